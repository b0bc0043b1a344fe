package cli

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/testdeck/testdeck/internal/agent"
	"github.com/testdeck/testdeck/internal/config"
	"github.com/testdeck/testdeck/internal/directory"
	"github.com/testdeck/testdeck/internal/fleet"
	"github.com/testdeck/testdeck/internal/secrets"
)

func newPublishedOracle(record *config.Deployment, log zerolog.Logger) agent.PublishedOracle {
	return &agent.HTTPPublished{BaseURL: record.DistributionURL, Log: log}
}

// sshPassphrase prefers the local environment and falls back to the remote
// secret store when a machine identity is configured.
func sshPassphrase(cmd *cobra.Command) (string, error) {
	if passphrase := os.Getenv("TESTDECK_SSH_PASSPHRASE"); passphrase != "" {
		return passphrase, nil
	}

	client, err := secrets.NewClient(cmd.Context())
	if err != nil {
		return "", err
	}
	if client == nil {
		return "", nil
	}
	return client.SSHPassphrase()
}

func newExecutor(cmd *cobra.Command, record *config.Deployment, dir *directory.Cache) (*fleet.Executor, error) {
	passphrase, err := sshPassphrase(cmd)
	if err != nil {
		return nil, err
	}

	dialer := &fleet.SSHDialer{
		KeyPath:    record.SSH.KeyPath,
		Passphrase: passphrase,
	}

	return &fleet.Executor{
		Resolver: dir,
		Cache:    fleet.NewConnCache(dialer),
		Config: fleet.Config{
			User:             record.SSH.User,
			Port:             record.SSH.Port,
			GatewayRole:      record.GatewayRole,
			GatewayAdminUser: record.GatewayAdminUser,
			GatewayAdminPort: record.GatewayAdminPort,
			TaskTimeout:      2 * time.Minute,
		},
		Log: logger,
	}, nil
}
