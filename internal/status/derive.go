package status

// Dimensions holds the six per-node status axes that feed the node status
// decision table.
type Dimensions struct {
	Daemon    DaemonStatus
	App       AppStatus
	Core      CoreProtocolStatus
	Configs   ConfigStatus
	AuxFiles  AuxFileStatus
	Artifacts ArtifactStatus
}

// DeriveNodeStatus collapses the six dimensions into one node status. The
// clauses form an ordered decision table: the first clause whose conjunction
// holds wins, and later clauses rely on earlier, more specific states having
// been ruled out already. Reordering them changes behavior.
func DeriveNodeStatus(d Dimensions) NodeStatus {
	appNotUp := d.App == AppNotRunning || d.App == AppNotInstalled || d.App == AppNotReporting

	switch {
	case d.Configs == ConfigGenFailed && d.App != AppRunning:
		return NodeReadyToGenerateConfig

	case d.Configs == ConfigGenSuccess && d.AuxFiles == AuxFileGenSuccess && d.App != AppRunning:
		return NodeReadyToTarConfigs

	case d.Configs == ConfigTarExists && d.AuxFiles == AuxFileTarExists &&
		d.Daemon != DaemonRunning && d.App != AppRunning:
		return NodeDown

	case d.Configs == ConfigTarExists && d.AuxFiles == AuxFileTarExists &&
		d.Daemon == DaemonRunning && d.App != AppRunning:
		return NodeReadyToPublishConfigs

	case d.Configs == ConfigTarPushed && d.AuxFiles == AuxFileTarPushed &&
		d.Daemon == DaemonRunning && appNotUp:
		return NodeReadyToInstallConfigs

	case d.AuxFiles == AuxFileReady && d.Configs == ConfigDownloaded &&
		d.Daemon == DaemonRunning && d.App == AppNotRunning:
		return NodeReadyToStart

	case d.AuxFiles == AuxFileReady && d.Artifacts == ArtifactTarsExist &&
		d.Daemon == DaemonRunning && d.App == AppNotInstalled:
		return NodeReadyToBootstrap

	case d.AuxFiles == AuxFileReady &&
		(d.Configs == ConfigExtracted || d.Configs == ConfigDownloaded) &&
		d.Daemon == DaemonRunning && d.App == AppRunning &&
		d.Core == CoreDependencyNotReady:
		return NodeInitializing

	case d.AuxFiles == AuxFileReady && d.Configs == ConfigExtracted &&
		d.Daemon == DaemonRunning && d.App == AppRunning && d.Core == CoreRunning:
		return NodeRunning

	case d.AuxFiles == AuxFileReady && d.Configs == ConfigExtracted &&
		d.Daemon == DaemonRunning && d.App == AppNotRunning:
		return NodeStopped
	}

	if d.Daemon == DaemonError || d.App == AppError ||
		d.Configs == ConfigError || d.Configs == ConfigInvalid ||
		d.AuxFiles == AuxFileError || d.AuxFiles == AuxFileInvalid ||
		d.Artifacts == ArtifactsError {
		return NodeError
	}
	return NodeUnknown
}

// NodeReport builds the composite report for one node: the derived node
// status on top, the six dimension reports as children.
func NodeReport(d Dimensions) Report {
	return Parent(DeriveNodeStatus(d), map[string]Report{
		"daemon":    Leaf(d.Daemon),
		"app":       Leaf(d.App),
		"core":      Leaf(d.Core),
		"configs":   Leaf(d.Configs),
		"aux-files": Leaf(d.AuxFiles),
		"artifacts": Leaf(d.Artifacts),
	})
}
