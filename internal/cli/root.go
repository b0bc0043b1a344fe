package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/testdeck/testdeck/internal/agent"
	"github.com/testdeck/testdeck/internal/cache"
	"github.com/testdeck/testdeck/internal/config"
	"github.com/testdeck/testdeck/internal/deployment"
	"github.com/testdeck/testdeck/internal/directory"
	"github.com/testdeck/testdeck/internal/fleet"
	"github.com/testdeck/testdeck/internal/inventory"
)

const appName = "testdeck"

var (
	deploymentName string
	verbose        bool
	logger         zerolog.Logger

	rootCmd = &cobra.Command{
		Use:   "testdeck",
		Short: "Distributed test deployment operations tool",
		Long: `A CLI tool for operating a distributed test deployment:
fleet status, status-gated waits and remote command dispatch.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			godotenv.Load()

			level := zerolog.InfoLevel
			if verbose {
				level = zerolog.DebugLevel
			}
			logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
				Level(level).With().Timestamp().Logger()

			if cmd.Name() != "help" && deploymentName == "" {
				return fmt.Errorf("deployment name is required")
			}
			return nil
		},
	}
)

func Execute() {
	c := make(chan os.Signal, 1)

	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		os.Exit(1)
	}()

	rootCmd.SilenceErrors = false
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&deploymentName, "deployment", "", "Deployment name")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")

	rootCmd.MarkPersistentFlagRequired("deployment")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(waitCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(provisionCmd)
	rootCmd.AddCommand(teardownCmd)
}

// services bundles everything a subcommand needs for one deployment.
type services struct {
	deployment *config.Deployment
	directory  *directory.Cache
	manager    *deployment.Manager
	executor   *fleet.Executor
}

func setupServices(cmd *cobra.Command) (*services, error) {
	store, err := config.NewStore()
	if err != nil {
		return nil, err
	}

	record, err := store.Load(deploymentName)
	if err != nil {
		return nil, err
	}

	disk, err := cache.NewDiskCache(appName)
	if err != nil {
		return nil, err
	}

	source, err := inventory.NewAWSSource(cmd.Context(), record.Region, logger)
	if err != nil {
		return nil, err
	}

	dir := &directory.Cache{
		Env:         record.Env,
		PrimaryRole: record.PrimaryRole,
		ProbePort:   record.DaemonPort,
		Inventory:   source,
		Disk:        disk,
		Log:         logger,
	}

	observer := &agent.Observer{
		Client:    &agent.Client{Port: record.DaemonPort, Log: logger},
		Files:     agent.OSFiles{},
		Published: newPublishedOracle(record, logger),
		Layout:    agent.Layout{BaseDir: record.DeployDir},
	}

	manager := &deployment.Manager{
		Deployment: record,
		Directory:  dir,
		Observer:   observer,
		Infra:      source,
		Log:        logger,
	}

	executor, err := newExecutor(cmd, record, dir)
	if err != nil {
		return nil, err
	}

	return &services{
		deployment: record,
		directory:  dir,
		manager:    manager,
		executor:   executor,
	}, nil
}
