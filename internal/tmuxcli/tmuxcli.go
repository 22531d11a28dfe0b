// Package tmuxcli provides low-level tmux command execution. It is internal
// to the unattended package.
package tmuxcli

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Runner executes tmux commands, optionally against a private server socket.
type Runner struct {
	tmuxPath   string
	socketPath string
}

// New creates a Runner bound to the given tmux binary. An empty socketPath
// targets the user's default tmux server.
func New(tmuxPath, socketPath string) *Runner {
	return &Runner{
		tmuxPath:   tmuxPath,
		socketPath: socketPath,
	}
}

// Run executes a tmux command with the given context and arguments and
// returns its stdout. If the command fails, the error carries stderr.
func (r *Runner) Run(ctx context.Context, args ...string) (string, error) {
	var fullArgs []string
	if r.socketPath != "" {
		fullArgs = append(fullArgs, "-S", r.socketPath)
	}
	fullArgs = append(fullArgs, args...)
	cmd := exec.CommandContext(ctx, r.tmuxPath, fullArgs...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		op := ""
		if len(args) > 0 {
			op = args[0]
		}
		return "", &Error{
			Op:     op,
			Args:   fullArgs,
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
	}

	return stdout.String(), nil
}

// SocketPath returns the socket path used by this runner, or "" for the
// default server.
func (r *Runner) SocketPath() string {
	return r.socketPath
}

// Error represents a tmux command failure.
type Error struct {
	Op     string
	Args   []string
	Stderr string
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("tmux %s failed: %v", e.Op, e.Err)
	if e.Stderr != "" {
		msg += "\nstderr: " + e.Stderr
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Version runs "tmux -V" and returns the version string (e.g. "3.4").
func Version(ctx context.Context, tmuxPath string) (string, error) {
	cmd := exec.CommandContext(ctx, tmuxPath, "-V")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tmux -V failed: %v (stderr: %s)", err, strings.TrimSpace(stderr.String()))
	}

	// Output is like "tmux 3.4" or "tmux next-3.5"
	output := strings.TrimSpace(stdout.String())
	version := strings.TrimPrefix(output, "tmux ")
	return version, nil
}

// HasSession reports whether a session with the given name exists on the
// runner's server. A missing server counts as a missing session.
func (r *Runner) HasSession(ctx context.Context, name string) bool {
	_, err := r.Run(ctx, "has-session", "-t", "="+name)
	return err == nil
}

// WaitForSession polls until the named session exists or the timeout expires.
func (r *Runner) WaitForSession(ctx context.Context, name string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if r.HasSession(ctx, name) {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("tmux session %q not ready after %v", name, timeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
}

