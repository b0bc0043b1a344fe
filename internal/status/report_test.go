package status

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree() map[string]Report {
	return map[string]Report{
		"node-1": Parent(NodeRunning, map[string]Report{
			"daemon": Leaf(DaemonRunning),
			"app":    Leaf(AppRunning),
		}),
		"node-2": Parent(NodeError, map[string]Report{
			"daemon": Leaf(DaemonRunning),
			"app":    LeafReason(AppError, "exit status 137"),
		}),
		"volume": Leaf(AwsReady),
	}
}

func TestFlatten_LeavesOnly(t *testing.T) {
	flat := Flatten(sampleTree())

	for name, report := range flat {
		assert.True(t, report.IsLeaf(), "%s should be a leaf", name)
		assert.False(t, report.Status.Composite(), "%s should carry a leaf-kind value", name)
	}
	assert.Contains(t, flat, "volume")
}

func TestFlatten_Idempotent(t *testing.T) {
	once := Flatten(sampleTree())
	twice := Flatten(once)
	assert.Equal(t, once, twice)
}

func TestFlatten_LastWriteWins(t *testing.T) {
	// node-1 and node-2 both publish an "app" leaf; flatten keeps exactly one
	// of them under the bare name. Collisions are documented as
	// last-write-wins, not an error.
	flat := Flatten(sampleTree())

	require.Contains(t, flat, "app")
	require.Contains(t, flat, "daemon")
	assert.Len(t, flat, 3)
}

func TestParent_RejectsLeafKindStatus(t *testing.T) {
	assert.Panics(t, func() {
		Parent(DaemonRunning, map[string]Report{"x": Leaf(AppRunning)})
	})
}

func TestRender_DetailBudget(t *testing.T) {
	fleet := Parent(ParentMixed, sampleTree())

	summary := fleet.Render("fleet", 0)
	assert.Equal(t, "fleet: MIXED\n", summary)

	oneLevel := fleet.Render("fleet", 1)
	assert.Contains(t, oneLevel, "node-1: RUNNING")
	assert.NotContains(t, oneLevel, "daemon")

	full := fleet.Render("fleet", 2)
	assert.Contains(t, full, "daemon: RUNNING")
	assert.Contains(t, full, "reason: exit status 137")

	// Children render in stable name order.
	assert.Less(t,
		strings.Index(full, "node-1"),
		strings.Index(full, "node-2"))
}
