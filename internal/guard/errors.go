package guard

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/testdeck/testdeck/internal/status"
)

// StatusMismatchError is returned by an ALL-required selection when at least
// one candidate fails the predicate. Reasons is keyed by the failing ids.
type StatusMismatchError struct {
	Action  string
	Reasons map[string]string
}

func (e *StatusMismatchError) Error() string {
	ids := make([]string, 0, len(e.Reasons))
	for id := range e.Reasons {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var parts []string
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%s (%s)", id, e.Reasons[id]))
	}
	return fmt.Sprintf("cannot %s: status mismatch for %s", e.Action, strings.Join(parts, ", "))
}

// NoMatchError is returned by an ANY-required selection when no candidate
// matches.
type NoMatchError struct {
	Action string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("no entity in a state to %s", e.Action)
}

// TimeoutError is returned when a wait loop exhausts its budget. LastStatus
// holds the last observed report per still-non-matching id.
type TimeoutError struct {
	Action     string
	Timeout    time.Duration
	LastStatus map[string]status.Report
}

func (e *TimeoutError) Error() string {
	ids := make([]string, 0, len(e.LastStatus))
	for id := range e.LastStatus {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var parts []string
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%s=%s", id, e.LastStatus[id].Status))
	}
	return fmt.Sprintf("timed out after %s waiting to %s: %s",
		e.Timeout, e.Action, strings.Join(parts, ", "))
}

// PreconditionError reports an operation attempted against a fleet that is
// not in the state the operation requires. Forcible tells the caller whether
// an explicit override is allowed to proceed anyway.
type PreconditionError struct {
	Action   string
	Detail   string
	Forcible bool
}

func (e *PreconditionError) Error() string {
	msg := fmt.Sprintf("cannot %s: %s", e.Action, e.Detail)
	if e.Forcible {
		msg += " (use force to override)"
	}
	return msg
}
