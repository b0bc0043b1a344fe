// Package guard gates fleet operations on entity status: select the members
// matching a predicate under an ALL/ANY/NONE policy, or block until every
// member matches.
package guard

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/testdeck/testdeck/internal/status"
)

// Require is the selection policy: ALL fails unless every candidate matches,
// ANY fails only when none match, NONE never fails.
type Require string

const (
	RequireAll  Require = "ALL"
	RequireAny  Require = "ANY"
	RequireNone Require = "NONE"
)

// Source answers the current status of one entity. Implementations must not
// fail: a probe failure degrades to an UNKNOWN or ERROR report.
type Source interface {
	Report(id string) status.Report
}

// SourceFunc adapts a plain function to a Source.
type SourceFunc func(id string) status.Report

func (f SourceFunc) Report(id string) status.Report { return f(id) }

// Predicate decides whether an entity's current report permits the pending
// action.
type Predicate func(status.Report) bool

// StatusIn builds a predicate matching any of the given status values.
func StatusIn(values ...status.Value) Predicate {
	return func(r status.Report) bool {
		for _, v := range values {
			if r.Status == v {
				return true
			}
		}
		return false
	}
}

// Clock abstracts wall time so wait loops can be tested without sleeping.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time        { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

const (
	pollInterval   = time.Second
	noticeInterval = 30 * time.Second
)

// Guard evaluates status-gated selections against a single status source.
// The zero-value Clock falls back to wall time.
type Guard struct {
	Source Source
	Clock  Clock
	Log    zerolog.Logger
	// Quiet suppresses the diagnostic log of non-matching members.
	Quiet bool
}

func (g *Guard) clock() Clock {
	if g.Clock == nil {
		return realClock{}
	}
	return g.Clock
}

// SelectMatching partitions candidates by predicate and applies the require
// policy. force short-circuits: all candidates are returned and no status is
// queried.
func (g *Guard) SelectMatching(action string, candidates []string, pred Predicate, req Require, force bool) (map[string]struct{}, error) {
	if force {
		all := make(map[string]struct{}, len(candidates))
		for _, id := range candidates {
			all[id] = struct{}{}
		}
		return all, nil
	}

	matching, rest := g.partition(candidates, pred)

	if len(rest) > 0 && !g.Quiet {
		ids := make([]string, 0, len(rest))
		for id := range rest {
			ids = append(ids, id)
		}
		g.Log.Debug().Str("action", action).Strs("not_matching", ids).
			Msg("members excluded by status")
	}

	switch req {
	case RequireAll:
		if len(rest) > 0 {
			reasons := make(map[string]string, len(rest))
			for id, report := range rest {
				reason := report.Reason
				if reason == "" {
					reason = report.Status.String()
				}
				reasons[id] = reason
			}
			return nil, &StatusMismatchError{Action: action, Reasons: reasons}
		}
	case RequireAny:
		if len(matching) == 0 {
			return nil, &NoMatchError{Action: action}
		}
	}
	return matching, nil
}

// WaitUntilMatching polls until every candidate satisfies the predicate,
// sleeping one poll interval between rounds. Elapsed time counts from loop
// entry. A progress notice is re-emitted every 30 elapsed seconds, and
// exceeding the timeout fails with the last observed status of every
// outstanding member.
func (g *Guard) WaitUntilMatching(action string, candidates []string, pred Predicate, timeout time.Duration) error {
	clock := g.clock()
	start := clock.Now()
	var lastNotice time.Duration

	for {
		matching, rest := g.partition(candidates, pred)
		if len(matching) == len(candidates) {
			return nil
		}

		elapsed := clock.Now().Sub(start)
		if elapsed > timeout {
			return &TimeoutError{Action: action, Timeout: timeout, LastStatus: rest}
		}
		if elapsed-lastNotice >= noticeInterval {
			lastNotice = elapsed
			g.Log.Info().Str("action", action).Int("remaining", len(rest)).
				Dur("elapsed", elapsed).Msg("still waiting for members")
		}
		clock.Sleep(pollInterval)
	}
}

func (g *Guard) partition(candidates []string, pred Predicate) (map[string]struct{}, map[string]status.Report) {
	matching := make(map[string]struct{})
	rest := make(map[string]status.Report)
	for _, id := range candidates {
		report := g.Source.Report(id)
		if pred(report) {
			matching[id] = struct{}{}
		} else {
			rest[id] = report
		}
	}
	return matching, rest
}
