// Package deployment wires the instance directory, the daemon observer and
// the status reducers into whole-fleet status queries and status-gated
// operations for one deployment.
package deployment

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/testdeck/testdeck/internal/agent"
	"github.com/testdeck/testdeck/internal/config"
	"github.com/testdeck/testdeck/internal/directory"
	"github.com/testdeck/testdeck/internal/guard"
	"github.com/testdeck/testdeck/internal/inventory"
	"github.com/testdeck/testdeck/internal/status"
)

// Resolver is the directory lookup the manager depends on, satisfied by
// *directory.Cache.
type Resolver interface {
	Resolve(forceRefresh, validate bool) (map[string][]string, error)
}

// Observer derives one node's dimensions, satisfied by *agent.Observer.
type Observer interface {
	Observe(ctx context.Context, node, address string) status.Dimensions
}

// InfraSource lists the deployment's cloud resource groups, satisfied by
// *inventory.AWSSource.
type InfraSource interface {
	Stacks(ctx context.Context, envTag string) ([]inventory.Stack, error)
	FileSystems(ctx context.Context, envTag string) ([]inventory.FileSystem, error)
}

var _ Resolver = (*directory.Cache)(nil)
var _ Observer = (*agent.Observer)(nil)
var _ InfraSource = (*inventory.AWSSource)(nil)

// Manager answers status questions for one deployment's fleet.
type Manager struct {
	Deployment *config.Deployment
	Directory  Resolver
	Observer   Observer
	Infra      InfraSource
	Log        zerolog.Logger
}

// NodeNames lists every node in the deployment.
func (m *Manager) NodeNames() []string {
	names := make([]string, 0, len(m.Deployment.Nodes))
	for _, node := range m.Deployment.Nodes {
		names = append(names, node.Name)
	}
	return names
}

// addresses assigns each node the address of an instance of its role,
// round-robin when a role hosts more nodes than it has instances. Nodes of
// roles with no resolved instances keep an empty address; their daemon poll
// degrades to not-reporting.
func (m *Manager) addresses() map[string]string {
	assigned := make(map[string]string, len(m.Deployment.Nodes))

	resolved, err := m.Directory.Resolve(false, false)
	if err != nil {
		m.Log.Warn().Err(err).Msg("instance directory unavailable, nodes will report as unreachable")
		resolved = nil
	}

	next := make(map[string]int)
	for _, node := range m.Deployment.Nodes {
		hosts := resolved[node.Role]
		if len(hosts) == 0 {
			assigned[node.Name] = ""
			continue
		}
		assigned[node.Name] = hosts[next[node.Role]%len(hosts)]
		next[node.Role]++
	}
	return assigned
}

// NodeReport builds a fresh composite report for one node.
func (m *Manager) NodeReport(ctx context.Context, node string) status.Report {
	address := m.addresses()[node]
	dims := m.Observer.Observe(ctx, node, address)
	return status.NodeReport(dims)
}

// FleetReport builds the full status tree: node reports grouped under their
// roles, roles reduced to parent statuses, and the roles reduced once more
// at the top.
func (m *Manager) FleetReport(ctx context.Context) status.Report {
	addresses := m.addresses()

	roleChildren := make(map[string]status.Report)
	var roleStatuses []status.ParentStatus
	for role, nodes := range m.Deployment.NodesByRole() {
		children := make(map[string]status.Report, len(nodes))
		var nodeStatuses []status.NodeStatus
		for _, node := range nodes {
			dims := m.Observer.Observe(ctx, node, addresses[node])
			report := status.NodeReport(dims)
			children[node] = report
			nodeStatuses = append(nodeStatuses, report.Status.(status.NodeStatus))
		}
		parent := status.ReduceToParent(nodeStatuses)
		roleChildren[role] = status.Parent(parent, children)
		roleStatuses = append(roleStatuses, parent)
	}

	return status.Parent(status.ReduceGrandparent(roleStatuses), roleChildren)
}

// InfraReport maps the deployment's infrastructure stacks and shared file
// systems into the fixed component vocabulary and rolls the two groups up
// like any other branch of the status tree. Unlike node status, inventory
// enumeration failures surface as errors: there is no degraded reading of an
// unanswerable cloud API.
func (m *Manager) InfraReport(ctx context.Context) (status.Report, error) {
	stacks, err := m.Infra.Stacks(ctx, m.Deployment.Env)
	if err != nil {
		return status.Report{}, fmt.Errorf("failed to enumerate stacks: %w", err)
	}
	fileSystems, err := m.Infra.FileSystems(ctx, m.Deployment.Env)
	if err != nil {
		return status.Report{}, fmt.Errorf("failed to enumerate file systems: %w", err)
	}

	stackChildren := make(map[string]status.Report, len(stacks))
	stackStatuses := make([]status.AwsComponentStatus, 0, len(stacks))
	for _, stack := range stacks {
		mapped := status.MapStackState(stack.State)
		stackChildren[stack.Name] = status.Leaf(mapped)
		stackStatuses = append(stackStatuses, mapped)
	}

	fsChildren := make(map[string]status.Report, len(fileSystems))
	fsStatuses := make([]status.AwsComponentStatus, 0, len(fileSystems))
	for _, fs := range fileSystems {
		name := fs.Name
		if name == "" {
			name = fs.ID
		}
		mapped := status.MapFileSystemState(fs.State)
		fsChildren[name] = status.Leaf(mapped)
		fsStatuses = append(fsStatuses, mapped)
	}

	groups := map[string]status.Report{
		"stacks":       status.Parent(status.ReduceComponentGroup(stackStatuses), stackChildren),
		"file-systems": status.Parent(status.ReduceComponentGroup(fsStatuses), fsChildren),
	}
	top := status.ReduceGrandparent([]status.ParentStatus{
		groups["stacks"].Status.(status.ParentStatus),
		groups["file-systems"].Status.(status.ParentStatus),
	})
	return status.Parent(top, groups), nil
}

// Guard returns an execution guard whose status source queries this
// manager's nodes live.
func (m *Manager) Guard(ctx context.Context) *guard.Guard {
	return &guard.Guard{
		Source: guard.SourceFunc(func(id string) status.Report {
			return m.NodeReport(ctx, id)
		}),
		Log: m.Log,
	}
}

// RequireFleetStatus fails with a forcible precondition violation unless the
// whole fleet currently reduces to want.
func (m *Manager) RequireFleetStatus(ctx context.Context, action string, want status.ParentStatus) error {
	report := m.FleetReport(ctx)
	if report.Status == want {
		return nil
	}
	return &guard.PreconditionError{
		Action:   action,
		Detail:   "fleet is " + report.Status.String() + ", needs " + want.String(),
		Forcible: true,
	}
}
