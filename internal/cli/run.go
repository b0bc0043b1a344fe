package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/testdeck/testdeck/internal/fleet"
	"github.com/testdeck/testdeck/internal/ui"
)

var (
	runRole    string
	runGateway bool

	runCmd = &cobra.Command{
		Use:   "run -- <command>",
		Short: "Run a command on every fleet instance",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runRun,
	}

	resolveRefresh    bool
	resolveNoValidate bool

	resolveCmd = &cobra.Command{
		Use:   "resolve",
		Short: "Resolve roles to instance addresses",
		RunE:  runResolve,
	}
)

func init() {
	runCmd.Flags().StringVar(&runRole, "role", "", "Only target instances of this role")
	runCmd.Flags().BoolVar(&runGateway, "gateway", false, "Target the gateway on its admin port")

	resolveCmd.Flags().BoolVar(&resolveRefresh, "refresh", false, "Force a directory refresh")
	resolveCmd.Flags().BoolVar(&resolveNoValidate, "no-validate", false, "Trust the cache without probing")
}

func runRun(cmd *cobra.Command, args []string) error {
	services, err := setupServices(cmd)
	if err != nil {
		return err
	}
	defer services.executor.Cache.Close()

	roleFilter := runRole
	if runGateway {
		roleFilter = fleet.GatewayAdminRole
	}

	results, err := services.executor.RunOnFleet(strings.Join(args, " "), roleFilter)
	if err != nil {
		return err
	}

	ui.PrintFleetResults(results)

	failed := 0
	for _, hosts := range results {
		for _, result := range hosts {
			if !result.Success {
				failed++
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("command failed on %d host(s)", failed)
	}
	return nil
}

func runResolve(cmd *cobra.Command, args []string) error {
	services, err := setupServices(cmd)
	if err != nil {
		return err
	}

	instances, err := services.directory.Resolve(resolveRefresh, !resolveNoValidate)
	if err != nil {
		return err
	}

	for role, addresses := range instances {
		fmt.Printf("%s: %s\n", role, strings.Join(addresses, ", "))
	}
	return nil
}
