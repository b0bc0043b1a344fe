package status

import (
	"fmt"
	"sort"
	"strings"
)

// Value is implemented by every status enumeration in this package. Composite
// reports the kind of the value: composite values may sit on a report that
// carries children, plain values only ever appear on leaves.
type Value interface {
	fmt.Stringer
	Composite() bool
}

// Report is an immutable snapshot of one entity's status. A report with no
// children is a leaf; a report with children must carry a composite status
// value. Every status query builds a fresh tree, reports are never updated
// in place.
type Report struct {
	Status   Value
	Reason   string
	Children map[string]Report
}

// Leaf returns a childless report.
func Leaf(status Value) Report {
	return Report{Status: status}
}

// LeafReason returns a childless report carrying a human readable reason,
// used for terminal or error findings.
func LeafReason(status Value, reason string) Report {
	return Report{Status: status, Reason: reason}
}

// Parent returns a composite report. It panics if status is not a
// composite-kind value: that is a programming error, not an input error.
func Parent(status Value, children map[string]Report) Report {
	if !status.Composite() {
		panic(fmt.Sprintf("status: %q is not a composite value", status))
	}
	return Report{Status: status, Children: children}
}

// IsLeaf reports whether r carries no children.
func (r Report) IsLeaf() bool {
	return len(r.Children) == 0
}

// Flatten recursively replaces every composite child with its own children
// until only leaf reports remain. Nested leaf names are used as-is, so two
// leaves with the same name arriving from different branches collide and the
// last write wins.
func Flatten(children map[string]Report) map[string]Report {
	flat := make(map[string]Report)
	for name, child := range children {
		if child.IsLeaf() {
			flat[name] = child
			continue
		}
		for nested, report := range Flatten(child.Children) {
			flat[nested] = report
		}
	}
	return flat
}

// Render pretty-prints the report as "name: STATUS" lines. Reasons print on
// an indented line below their owner. Children are descended into only while
// the remaining detail budget is positive, decrementing one per level.
func (r Report) Render(name string, detail int) string {
	var b strings.Builder
	r.render(&b, name, detail, 0)
	return b.String()
}

func (r Report) render(b *strings.Builder, name string, detail, indent int) {
	pad := strings.Repeat("  ", indent)
	fmt.Fprintf(b, "%s%s: %s\n", pad, name, r.Status)
	if r.Reason != "" {
		fmt.Fprintf(b, "%s  reason: %s\n", pad, r.Reason)
	}
	if detail <= 0 {
		return
	}
	names := make([]string, 0, len(r.Children))
	for child := range r.Children {
		names = append(names, child)
	}
	sort.Strings(names)
	for _, child := range names {
		r.Children[child].render(b, child, detail-1, indent+1)
	}
}
