// Package agent polls the per-node daemon for its flat status snapshot and
// derives the six status dimensions from it plus the local file oracles.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Snapshot is the flat key-value status a node daemon reports. The zero
// value doubles as the not-reporting sentinel.
type Snapshot struct {
	Alive              bool `json:"alive"`
	AppInstalled       bool `json:"app_installed"`
	AppRunning         bool `json:"app_running"`
	ConfigsDownloaded  bool `json:"configs_downloaded"`
	ConfigsExtracted   bool `json:"configs_extracted"`
	AuxFilesDownloaded bool `json:"aux_files_downloaded"`
	AuxFilesExtracted  bool `json:"aux_files_extracted"`
	AuxFilesReady      bool `json:"aux_files_ready"`
	ArtifactsPresent   bool `json:"artifacts_present"`
	CoreInitialized    bool `json:"core_initialized"`
	CoreDepsReady      bool `json:"core_deps_ready"`
	CoreRunning        bool `json:"core_running"`
}

// Client queries node daemons over HTTP.
type Client struct {
	Port    int
	Timeout time.Duration
	Log     zerolog.Logger

	httpClient *http.Client
}

// Poll fetches the daemon snapshot for one address. Every failure mode
// (transport error, bad status, undecodable body) degrades to the
// not-reporting sentinel; callers never see an error, the aggregation layer
// works with whatever came back.
func (c *Client) Poll(ctx context.Context, address string) Snapshot {
	timeout := c.Timeout
	if timeout == 0 {
		timeout = 3 * time.Second
	}
	client := c.httpClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	url := fmt.Sprintf("http://%s:%d/status", address, c.Port)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Snapshot{}
	}

	resp, err := client.Do(req)
	if err != nil {
		c.Log.Debug().Str("address", address).Err(err).Msg("daemon poll failed")
		return Snapshot{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.Log.Debug().Str("address", address).Int("status", resp.StatusCode).
			Msg("daemon poll rejected")
		return Snapshot{}
	}

	var snapshot Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		c.Log.Debug().Str("address", address).Err(err).Msg("daemon snapshot undecodable")
		return Snapshot{}
	}
	return snapshot
}
