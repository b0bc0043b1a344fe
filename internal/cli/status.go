package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/testdeck/testdeck/internal/guard"
	"github.com/testdeck/testdeck/internal/status"
	"github.com/testdeck/testdeck/internal/ui"
)

var (
	statusDetail int
	statusInfra  bool

	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show the fleet status tree",
		RunE:  runStatus,
	}

	waitStatus  string
	waitTimeout int

	waitCmd = &cobra.Command{
		Use:   "wait",
		Short: "Block until every node reaches a status",
		RunE:  runWait,
	}
)

func init() {
	statusCmd.Flags().IntVar(&statusDetail, "detail", 1, "Levels of detail to descend into")
	statusCmd.Flags().BoolVar(&statusInfra, "infra", false, "Include cloud resource groups")

	waitCmd.Flags().StringVar(&waitStatus, "status", "", "Node status to wait for")
	waitCmd.Flags().IntVar(&waitTimeout, "timeout", 300, "Timeout in seconds")
	waitCmd.MarkFlagRequired("status")
}

func runStatus(cmd *cobra.Command, args []string) error {
	services, err := setupServices(cmd)
	if err != nil {
		return err
	}

	report := services.manager.FleetReport(cmd.Context())
	fmt.Print(report.Render(services.deployment.Name, statusDetail))

	if statusInfra {
		infra, err := services.manager.InfraReport(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Print(infra.Render("infra", statusDetail))
	}
	return nil
}

func runWait(cmd *cobra.Command, args []string) error {
	services, err := setupServices(cmd)
	if err != nil {
		return err
	}

	want := status.NodeStatus(waitStatus)
	if _, ok := status.ParentNamesake(want); !ok {
		return fmt.Errorf("unknown node status %q", waitStatus)
	}

	spinner := ui.NewStepSpinner(services.deployment.Name)
	spinner.Start(fmt.Sprintf("waiting for %d nodes to reach %s", len(services.deployment.Nodes), want))

	g := services.manager.Guard(cmd.Context())
	g.Quiet = true
	err = g.WaitUntilMatching("reach "+want.String(), services.manager.NodeNames(),
		guard.StatusIn(want), time.Duration(waitTimeout)*time.Second)

	spinner.Stop(err == nil)
	return err
}
