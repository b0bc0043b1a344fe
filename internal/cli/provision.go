package cli

import (
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/testdeck/testdeck/internal/guard"
	"github.com/testdeck/testdeck/internal/provision"
	"github.com/testdeck/testdeck/internal/status"
)

var (
	playbookDir   string
	teardownForce bool

	provisionCmd = &cobra.Command{
		Use:   "provision",
		Short: "Run the infrastructure playbook",
		RunE:  runProvision,
	}

	teardownCmd = &cobra.Command{
		Use:   "teardown",
		Short: "Destroy the deployment's infrastructure",
		RunE:  runTeardown,
	}
)

func init() {
	provisionCmd.Flags().StringVar(&playbookDir, "playbook", ".", "Playbook directory")
	teardownCmd.Flags().StringVar(&playbookDir, "playbook", ".", "Playbook directory")
	teardownCmd.Flags().BoolVar(&teardownForce, "force", false, "Tear down even if the fleet is not stopped")
}

func newRunner() *provision.Runner {
	return &provision.Runner{
		WorkDir:   playbookDir,
		StackName: fmt.Sprintf("testdeck-%s", deploymentName),
		Log:       logger,
	}
}

func runProvision(cmd *cobra.Command, args []string) error {
	if _, err := setupServices(cmd); err != nil {
		return err
	}
	return newRunner().Up(cmd.Context())
}

// runTeardown refuses to destroy infrastructure under a fleet that is still
// active. The violation is forcible: --force, or an interactive confirm,
// overrides it.
func runTeardown(cmd *cobra.Command, args []string) error {
	services, err := setupServices(cmd)
	if err != nil {
		return err
	}

	err = services.manager.RequireFleetStatus(cmd.Context(), "tear down", status.ParentAllDown)
	if err != nil && !teardownForce {
		var precondition *guard.PreconditionError
		if !errors.As(err, &precondition) || !precondition.Forcible {
			return err
		}

		prompt := promptui.Prompt{
			Label:     fmt.Sprintf("%s. Tear down anyway", precondition.Detail),
			IsConfirm: true,
		}
		if _, err := prompt.Run(); err != nil {
			return precondition
		}
	}

	return newRunner().Destroy(cmd.Context())
}
