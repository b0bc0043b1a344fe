package agent

import (
	"context"
	"os"
	"path/filepath"

	"github.com/testdeck/testdeck/internal/status"
)

// FileOracle answers local file presence checks for generated configs,
// archives and artifacts.
type FileOracle interface {
	Exists(path string) bool
}

// OSFiles is the real file oracle.
type OSFiles struct{}

func (OSFiles) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// PublishedOracle answers whether a named archive has been pushed to the
// distribution point.
type PublishedOracle interface {
	Published(name string) bool
}

// Layout locates a node's generated files under the deployment directory.
type Layout struct {
	BaseDir string
}

func (l Layout) genStatusPath(node string) string {
	return filepath.Join(l.BaseDir, "configs", node, "gen_status.json")
}

func (l Layout) genFailedPath(node string) string {
	return filepath.Join(l.BaseDir, "configs", node, "gen_failed")
}

func (l Layout) configTarPath(node string) string {
	return filepath.Join(l.BaseDir, "configs", node+"-configs.tar.gz")
}

func (l Layout) auxTarPath(node string) string {
	return filepath.Join(l.BaseDir, "aux-files", node+"-aux.tar.gz")
}

func (l Layout) artifactDirPath(node string) string {
	return filepath.Join(l.BaseDir, "artifacts", node)
}

func (l Layout) artifactTarPath(node string) string {
	return filepath.Join(l.BaseDir, "artifacts", node+"-artifacts.tar.gz")
}

// Observer combines the daemon snapshot with the local and remote oracles
// into the six dimension statuses for one node. Derivation never fails:
// missing signals surface as NOT_REPORTING or UNKNOWN values.
type Observer struct {
	Client    *Client
	Files     FileOracle
	Published PublishedOracle
	Layout    Layout
}

// Observe derives the dimensions for the named node at the given address.
func (o *Observer) Observe(ctx context.Context, node, address string) status.Dimensions {
	snapshot := o.Client.Poll(ctx, address)
	return status.Dimensions{
		Daemon:    o.daemon(snapshot),
		App:       o.app(snapshot),
		Core:      o.core(snapshot),
		Configs:   o.configs(node, snapshot),
		AuxFiles:  o.auxFiles(node, snapshot),
		Artifacts: o.artifacts(node, snapshot),
	}
}

func (o *Observer) daemon(s Snapshot) status.DaemonStatus {
	if !s.Alive {
		return status.DaemonNotReporting
	}
	return status.DaemonRunning
}

func (o *Observer) app(s Snapshot) status.AppStatus {
	switch {
	case !s.Alive:
		return status.AppNotReporting
	case !s.AppInstalled:
		return status.AppNotInstalled
	case !s.AppRunning:
		return status.AppNotRunning
	default:
		return status.AppRunning
	}
}

func (o *Observer) core(s Snapshot) status.CoreProtocolStatus {
	switch {
	case !s.Alive || !s.AppRunning:
		return status.CoreNotReporting
	case !s.CoreInitialized:
		return status.CoreNotInitialized
	case !s.CoreDepsReady:
		return status.CoreDependencyNotReady
	case s.CoreRunning:
		return status.CoreRunning
	default:
		return status.CoreUnknown
	}
}

// configs walks the delivery chain from the most advanced state backwards:
// extracted on the node, downloaded, pushed to the distribution point,
// archived locally, generated locally.
func (o *Observer) configs(node string, s Snapshot) status.ConfigStatus {
	switch {
	case s.Alive && s.ConfigsExtracted:
		return status.ConfigExtracted
	case s.Alive && s.ConfigsDownloaded:
		return status.ConfigDownloaded
	case o.Published.Published(node + "-configs.tar.gz"):
		return status.ConfigTarPushed
	case o.Files.Exists(o.Layout.configTarPath(node)):
		return status.ConfigTarExists
	case o.Files.Exists(o.Layout.genFailedPath(node)):
		return status.ConfigGenFailed
	case o.Files.Exists(o.Layout.genStatusPath(node)):
		return status.ConfigGenSuccess
	default:
		return status.ConfigUnknown
	}
}

func (o *Observer) auxFiles(node string, s Snapshot) status.AuxFileStatus {
	switch {
	case s.Alive && s.AuxFilesReady:
		return status.AuxFileReady
	case s.Alive && s.AuxFilesExtracted:
		return status.AuxFileExtracted
	case s.Alive && s.AuxFilesDownloaded:
		return status.AuxFileDownloaded
	case o.Published.Published(node + "-aux.tar.gz"):
		return status.AuxFileTarPushed
	case o.Files.Exists(o.Layout.auxTarPath(node)):
		return status.AuxFileTarExists
	case o.Files.Exists(o.Layout.genFailedPath(node)):
		return status.AuxFileGenFailed
	case o.Files.Exists(o.Layout.genStatusPath(node)):
		return status.AuxFileGenSuccess
	default:
		return status.AuxFileUnknown
	}
}

func (o *Observer) artifacts(node string, s Snapshot) status.ArtifactStatus {
	switch {
	case s.Alive && s.ArtifactsPresent:
		return status.ArtifactsExist
	case o.Files.Exists(o.Layout.artifactDirPath(node)):
		return status.ArtifactsExist
	case o.Files.Exists(o.Layout.artifactTarPath(node)):
		return status.ArtifactTarsExist
	default:
		return status.ArtifactsError
	}
}
