package status

// The six dimension enumerations, one per node-health axis. All of them are
// leaf-kind: they only ever appear on childless reports.

// DaemonStatus reports reachability of the always-on node agent.
type DaemonStatus string

const (
	DaemonNotReporting DaemonStatus = "NOT_REPORTING"
	DaemonRunning      DaemonStatus = "RUNNING"
	DaemonError        DaemonStatus = "ERROR"
	DaemonUnknown      DaemonStatus = "UNKNOWN"
)

func (s DaemonStatus) String() string  { return string(s) }
func (s DaemonStatus) Composite() bool { return false }

// AppStatus reports install and run state of the node application.
type AppStatus string

const (
	AppNotReporting AppStatus = "NOT_REPORTING"
	AppNotInstalled AppStatus = "NOT_INSTALLED"
	AppNotRunning   AppStatus = "NOT_RUNNING"
	AppRunning      AppStatus = "RUNNING"
	AppError        AppStatus = "ERROR"
	AppUnknown      AppStatus = "UNKNOWN"
)

func (s AppStatus) String() string  { return string(s) }
func (s AppStatus) Composite() bool { return false }

// CoreProtocolStatus reports readiness of the application's core protocol.
type CoreProtocolStatus string

const (
	CoreNotReporting       CoreProtocolStatus = "NOT_REPORTING"
	CoreNotInitialized     CoreProtocolStatus = "NOT_INITIALIZED"
	CoreDependencyNotReady CoreProtocolStatus = "DEPENDENCY_NOT_READY"
	CoreRunning            CoreProtocolStatus = "RUNNING"
	CoreUnknown            CoreProtocolStatus = "UNKNOWN"
)

func (s CoreProtocolStatus) String() string  { return string(s) }
func (s CoreProtocolStatus) Composite() bool { return false }

// ConfigStatus tracks a node's config bundle through generation, archiving,
// publication, download and extraction.
type ConfigStatus string

const (
	ConfigGenSuccess ConfigStatus = "CONFIG_GEN_SUCCESS"
	ConfigGenFailed  ConfigStatus = "CONFIG_GEN_FAILED"
	ConfigTarExists  ConfigStatus = "TAR_EXISTS"
	ConfigTarPushed  ConfigStatus = "TAR_PUSHED"
	ConfigDownloaded ConfigStatus = "DOWNLOADED"
	ConfigExtracted  ConfigStatus = "EXTRACTED"
	ConfigInvalid    ConfigStatus = "INVALID"
	ConfigError      ConfigStatus = "ERROR"
	ConfigUnknown    ConfigStatus = "UNKNOWN"
)

func (s ConfigStatus) String() string  { return string(s) }
func (s ConfigStatus) Composite() bool { return false }

// AuxFileStatus tracks the auxiliary file bundle. Same shape as ConfigStatus
// plus READY, reached once the files are usable in place on the node.
type AuxFileStatus string

const (
	AuxFileGenSuccess AuxFileStatus = "CONFIG_GEN_SUCCESS"
	AuxFileGenFailed  AuxFileStatus = "CONFIG_GEN_FAILED"
	AuxFileTarExists  AuxFileStatus = "TAR_EXISTS"
	AuxFileTarPushed  AuxFileStatus = "TAR_PUSHED"
	AuxFileDownloaded AuxFileStatus = "DOWNLOADED"
	AuxFileExtracted  AuxFileStatus = "EXTRACTED"
	AuxFileReady      AuxFileStatus = "READY"
	AuxFileInvalid    AuxFileStatus = "INVALID"
	AuxFileError      AuxFileStatus = "ERROR"
	AuxFileUnknown    AuxFileStatus = "UNKNOWN"
)

func (s AuxFileStatus) String() string  { return string(s) }
func (s AuxFileStatus) Composite() bool { return false }

// ArtifactStatus reports presence of the application artifacts on a node.
type ArtifactStatus string

const (
	ArtifactsExist    ArtifactStatus = "EXIST"
	ArtifactTarsExist ArtifactStatus = "TARS_EXIST"
	ArtifactsError    ArtifactStatus = "ERROR"
)

func (s ArtifactStatus) String() string  { return string(s) }
func (s ArtifactStatus) Composite() bool { return false }

// ContainerStatus is the leaf vocabulary for application containers and the
// services they expose.
type ContainerStatus string

const (
	ContainerNotPresent ContainerStatus = "NOT_PRESENT"
	ContainerExited     ContainerStatus = "EXITED"
	ContainerStarting   ContainerStatus = "STARTING"
	ContainerRunning    ContainerStatus = "RUNNING"
	ContainerUnhealthy  ContainerStatus = "UNHEALTHY"
	ContainerError      ContainerStatus = "ERROR"
	ContainerUnknown    ContainerStatus = "UNKNOWN"
)

func (s ContainerStatus) String() string  { return string(s) }
func (s ContainerStatus) Composite() bool { return false }
