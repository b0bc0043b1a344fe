// Package provision runs the deployment's infrastructure playbook as an
// opaque pass/fail job. What the playbook provisions is its own business;
// the rest of the tool only ever asks whether it succeeded.
package provision

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/pulumi/pulumi/sdk/v3/go/auto"
	"github.com/pulumi/pulumi/sdk/v3/go/auto/optdestroy"
	"github.com/pulumi/pulumi/sdk/v3/go/auto/optup"
	"github.com/rs/zerolog"
)

// Runner executes the playbook found in WorkDir against one stack per
// deployment.
type Runner struct {
	WorkDir   string
	StackName string
	Log       zerolog.Logger
}

// Up brings the stack to the playbook's desired state. The playbook's own
// progress stream is captured and only surfaces on failure.
func (r *Runner) Up(ctx context.Context) error {
	stack, err := auto.UpsertStackLocalSource(ctx, r.StackName, r.WorkDir)
	if err != nil {
		return fmt.Errorf("failed to initialize playbook stack: %v", err)
	}

	var progress bytes.Buffer
	if _, err := stack.Up(ctx, optup.ProgressStreams(&progress)); err != nil {
		r.Log.Debug().Str("stack", r.StackName).Msg(progress.String())
		return cleanupError("provision", err)
	}

	r.Log.Info().Str("stack", r.StackName).Msg("playbook applied")
	return nil
}

// Destroy tears the stack down.
func (r *Runner) Destroy(ctx context.Context) error {
	stack, err := auto.SelectStackLocalSource(ctx, r.StackName, r.WorkDir)
	if err != nil {
		return fmt.Errorf("failed to select playbook stack: %v", err)
	}

	var progress bytes.Buffer
	if _, err := stack.Destroy(ctx, optdestroy.ProgressStreams(&progress)); err != nil {
		r.Log.Debug().Str("stack", r.StackName).Msg(progress.String())
		return cleanupError("tear down", err)
	}

	r.Log.Info().Str("stack", r.StackName).Msg("playbook destroyed")
	return nil
}

// cleanupError strips engine noise out of playbook failures so the operator
// sees the underlying cause.
func cleanupError(action string, err error) error {
	msg := err.Error()

	if strings.Contains(msg, "unauthorized") {
		return fmt.Errorf("failed to %s: cloud authentication failed, check your credentials", action)
	}

	noisePatterns := []string{
		"failed to run update: exit status",
		"failed to run destroy: exit status",
	}
	for _, pattern := range noisePatterns {
		msg = strings.ReplaceAll(msg, pattern, "")
	}
	if idx := strings.Index(msg, "error:"); idx != -1 {
		msg = msg[idx+6:]
	}

	return fmt.Errorf("failed to %s: %s", action, strings.TrimSpace(msg))
}
