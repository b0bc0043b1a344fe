package status

// NodeStatus is the composite status of a single node, derived from the six
// dimension statuses. A node report carries the dimension reports as
// children, so the value is composite-kind.
type NodeStatus string

const (
	NodeReadyToGenerateConfig NodeStatus = "READY_TO_GENERATE_CONFIG"
	NodeReadyToTarConfigs     NodeStatus = "READY_TO_TAR_CONFIGS"
	NodeDown                  NodeStatus = "DOWN"
	NodeReadyToPublishConfigs NodeStatus = "READY_TO_PUBLISH_CONFIGS"
	NodeReadyToInstallConfigs NodeStatus = "READY_TO_INSTALL_CONFIGS"
	NodeReadyToStart          NodeStatus = "READY_TO_START"
	NodeReadyToBootstrap      NodeStatus = "READY_TO_BOOTSTRAP"
	NodeInitializing          NodeStatus = "INITIALIZING"
	NodeRunning               NodeStatus = "RUNNING"
	NodeStopped               NodeStatus = "STOPPED"
	NodeError                 NodeStatus = "ERROR"
	NodeUnknown               NodeStatus = "UNKNOWN"
)

func (s NodeStatus) String() string  { return string(s) }
func (s NodeStatus) Composite() bool { return true }

// ParentStatus is the aggregate vocabulary reused at every composite level:
// a fleet of nodes, a set of containers, a set of services, or a group of
// cloud resources.
type ParentStatus string

const (
	ParentAllReadyToGenerateConfig ParentStatus = "ALL_READY_TO_GENERATE_CONFIG"
	ParentAllReadyToTarConfigs     ParentStatus = "ALL_READY_TO_TAR_CONFIGS"
	ParentAllDown                  ParentStatus = "ALL_DOWN"
	ParentAllReadyToPublishConfigs ParentStatus = "ALL_READY_TO_PUBLISH_CONFIGS"
	ParentAllReadyToInstallConfigs ParentStatus = "ALL_READY_TO_INSTALL_CONFIGS"
	ParentAllReadyToStart          ParentStatus = "ALL_READY_TO_START"
	ParentAllReadyToBootstrap      ParentStatus = "ALL_READY_TO_BOOTSTRAP"
	ParentAllInitializing          ParentStatus = "ALL_INITIALIZING"
	ParentAllRunning               ParentStatus = "ALL_RUNNING"
	ParentAllStopped               ParentStatus = "ALL_STOPPED"
	ParentSomeRunning              ParentStatus = "SOME_RUNNING"
	ParentMixed                    ParentStatus = "MIXED"
	ParentError                    ParentStatus = "ERROR"
	ParentUnknown                  ParentStatus = "UNKNOWN"
)

func (s ParentStatus) String() string  { return string(s) }
func (s ParentStatus) Composite() bool { return true }

// ParentNamesake returns the aggregate value used when every child in a
// group agrees on s, and whether s is part of the node vocabulary at all.
func ParentNamesake(s NodeStatus) (ParentStatus, bool) {
	parent, ok := parentNamesake[s]
	return parent, ok
}

// parentNamesake maps each node status to the parent value used when every
// child in a group agrees on it.
var parentNamesake = map[NodeStatus]ParentStatus{
	NodeReadyToGenerateConfig: ParentAllReadyToGenerateConfig,
	NodeReadyToTarConfigs:     ParentAllReadyToTarConfigs,
	NodeDown:                  ParentAllDown,
	NodeReadyToPublishConfigs: ParentAllReadyToPublishConfigs,
	NodeReadyToInstallConfigs: ParentAllReadyToInstallConfigs,
	NodeReadyToStart:          ParentAllReadyToStart,
	NodeReadyToBootstrap:      ParentAllReadyToBootstrap,
	NodeInitializing:          ParentAllInitializing,
	NodeRunning:               ParentAllRunning,
	NodeStopped:               ParentAllStopped,
	NodeError:                 ParentError,
	NodeUnknown:               ParentUnknown,
}
