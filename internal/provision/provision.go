// Package provision runs the environment setup commands that must succeed
// before an installer can be automated. Steps run one at a time and the
// first failure aborts the rest.
package provision

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"

	"github.com/cboone/unattended"
	"github.com/cboone/unattended/internal/logging"
)

// StepError reports the step that stopped provisioning. It matches
// unattended.ErrSetupFailed.
type StepError struct {
	Step  string
	Index int
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("setup step %d (%s): %v", e.Index+1, e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Is makes every StepError match unattended.ErrSetupFailed.
func (e *StepError) Is(target error) bool {
	return target == unattended.ErrSetupFailed
}

// Runner executes setup steps.
type Runner struct {
	Shell  string
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	// Announce, when set, is called before each step that runs.
	Announce func(index, total int, step unattended.SetupStep)
}

// NewRunner returns a Runner that uses bash and the process's own output.
func NewRunner() *Runner {
	return &Runner{
		Shell:  "bash",
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Logger: logging.NewNop(),
	}
}

// Run executes steps in order and stops at the first failure.
func (r *Runner) Run(ctx context.Context, steps []unattended.SetupStep) error {
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			return &StepError{Step: step.Name, Index: i, Err: err}
		}

		if step.SkipIfExists != "" {
			if _, err := os.Stat(step.SkipIfExists); err == nil {
				r.Logger.Info("setup step skipped", "step", step.Name, "exists", step.SkipIfExists)
				continue
			} else if !errors.Is(err, os.ErrNotExist) {
				return &StepError{Step: step.Name, Index: i, Err: err}
			}
		}

		if r.Announce != nil {
			r.Announce(i, len(steps), step)
		}
		r.Logger.Info("setup step", "step", step.Name, "index", i+1, "total", len(steps))

		cmd := exec.CommandContext(ctx, r.Shell, "-c", step.Run)
		cmd.Stdout = r.Stdout
		cmd.Stderr = r.Stderr
		if err := cmd.Run(); err != nil {
			r.Logger.Error("setup step failed", "step", step.Name, "error", err)
			return &StepError{Step: step.Name, Index: i, Err: err}
		}
	}
	return nil
}
