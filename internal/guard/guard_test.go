package guard

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testdeck/testdeck/internal/status"
)

// fakeClock advances only when Sleep is called.
type fakeClock struct {
	now    time.Time
	sleeps int
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(d time.Duration) {
	c.sleeps++
	c.now = c.now.Add(d)
}

func newGuard(src Source, clock Clock) *Guard {
	return &Guard{Source: src, Clock: clock, Log: zerolog.Nop()}
}

func TestSelectMatching_ForceSkipsStatus(t *testing.T) {
	src := SourceFunc(func(id string) status.Report {
		t.Fatalf("status queried for %s despite force", id)
		return status.Report{}
	})
	g := newGuard(src, &fakeClock{})

	matching, err := g.SelectMatching("stop", []string{"a", "b"}, StatusIn(status.NodeRunning), RequireAll, true)

	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"a": {}, "b": {}}, matching)
}

func TestSelectMatching_RequireAll(t *testing.T) {
	src := SourceFunc(func(id string) status.Report {
		if id == "good" {
			return status.Leaf(status.NodeRunning)
		}
		return status.LeafReason(status.NodeError, "daemon unreachable")
	})
	g := newGuard(src, &fakeClock{})

	_, err := g.SelectMatching("stop", []string{"good", "bad-1", "bad-2"},
		StatusIn(status.NodeRunning), RequireAll, false)

	var mismatch *StatusMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "stop", mismatch.Action)
	assert.Equal(t, map[string]string{
		"bad-1": "daemon unreachable",
		"bad-2": "daemon unreachable",
	}, mismatch.Reasons)
}

func TestSelectMatching_RequireAny(t *testing.T) {
	down := SourceFunc(func(string) status.Report { return status.Leaf(status.NodeDown) })
	g := newGuard(down, &fakeClock{})

	matching, err := g.SelectMatching("start", []string{"a", "b"},
		StatusIn(status.NodeReadyToStart, status.NodeStopped), RequireAny, false)
	var noMatch *NoMatchError
	require.ErrorAs(t, err, &noMatch)
	assert.Nil(t, matching)

	// NONE never fails on the same partition.
	matching, err = g.SelectMatching("start", []string{"a", "b"},
		StatusIn(status.NodeReadyToStart), RequireNone, false)
	require.NoError(t, err)
	assert.Empty(t, matching)
}

func TestWaitUntilMatching_SucceedsOnThirdPoll(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	candidates := []string{"a", "b"}

	// Count rounds off the first candidate, everything matches on round 3.
	round := 0
	src := SourceFunc(func(id string) status.Report {
		if id == candidates[0] {
			round++
		}
		if round >= 3 {
			return status.Leaf(status.NodeRunning)
		}
		return status.Leaf(status.NodeInitializing)
	})
	g := newGuard(src, clock)

	err := g.WaitUntilMatching("start", candidates, StatusIn(status.NodeRunning), time.Minute)

	require.NoError(t, err)
	assert.Equal(t, 3, round)
	assert.Equal(t, 2, clock.sleeps)
}

func TestWaitUntilMatching_Timeout(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	stuck := SourceFunc(func(string) status.Report {
		return status.Leaf(status.NodeInitializing)
	})
	g := newGuard(stuck, clock)

	err := g.WaitUntilMatching("start", []string{"a", "b"},
		StatusIn(status.NodeRunning), 5*time.Second)

	var timeout *TimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, 5*time.Second, timeout.Timeout)
	require.Contains(t, timeout.LastStatus, "a")
	require.Contains(t, timeout.LastStatus, "b")
	assert.Equal(t, status.NodeInitializing, timeout.LastStatus["a"].Status)
	// One poll per elapsed second, and the loop only fails once elapsed
	// time first exceeds the budget.
	assert.Equal(t, 6, clock.sleeps)
}

func TestWaitUntilMatching_ProgressNoticeCadence(t *testing.T) {
	var buf bytes.Buffer
	clock := &fakeClock{now: time.Unix(1000, 0)}
	stuck := SourceFunc(func(string) status.Report {
		return status.Leaf(status.NodeInitializing)
	})
	g := &Guard{Source: stuck, Clock: clock, Log: zerolog.New(&buf)}

	err := g.WaitUntilMatching("start", []string{"a"},
		StatusIn(status.NodeRunning), 100*time.Second)

	var timeout *TimeoutError
	require.ErrorAs(t, err, &timeout)
	// One notice at 30, 60 and 90 elapsed seconds, not one per poll.
	notices := strings.Count(buf.String(), "still waiting for members")
	assert.Equal(t, 3, notices)
}

func TestPreconditionError_Forcible(t *testing.T) {
	err := &PreconditionError{Action: "tear down", Detail: "fleet is not fully stopped", Forcible: true}
	assert.Contains(t, err.Error(), "force")

	hard := &PreconditionError{Action: "tear down", Detail: "deployment does not exist"}
	assert.NotContains(t, hard.Error(), "force")
}
