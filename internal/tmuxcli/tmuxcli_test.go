package tmuxcli_test

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cboone/unattended/internal/tmuxcli"
)

func findTmux(t *testing.T) string {
	t.Helper()
	path, err := exec.LookPath("tmux")
	if err != nil {
		t.Skip("tmux not found in PATH")
	}
	return path
}

func TestVersion(t *testing.T) {
	tmuxPath := findTmux(t)
	version, err := tmuxcli.Version(context.Background(), tmuxPath)
	require.NoError(t, err)
	require.NotEmpty(t, version)
	// Should contain a number.
	assert.True(t, strings.ContainsAny(version, "0123456789"), "Version() = %q, expected digits", version)
}

func TestRunnerBasic(t *testing.T) {
	tmuxPath := findTmux(t)
	ctx := context.Background()

	socketPath := t.TempDir() + "/test.sock"
	runner := tmuxcli.New(tmuxPath, socketPath)

	assert.Equal(t, socketPath, runner.SocketPath())

	assert.False(t, runner.HasSession(ctx, "basic"), "no server yet, no session")

	_, err := runner.Run(ctx, "new-session", "-d", "-s", "basic", "-x", "80", "-y", "24", "--", "/bin/sh")
	require.NoError(t, err)
	t.Cleanup(func() { _, _ = runner.Run(context.Background(), "kill-server") })

	require.NoError(t, runner.WaitForSession(ctx, "basic", 5*time.Second))
	assert.True(t, runner.HasSession(ctx, "basic"))
	assert.False(t, runner.HasSession(ctx, "bas"), "has-session must match the exact name")

	output, err := runner.Run(ctx, "list-panes", "-t", "basic", "-F", "#{pane_id}")
	require.NoError(t, err)
	assert.NotEmpty(t, strings.TrimSpace(output))
}

func TestRunnerError(t *testing.T) {
	tmuxPath := findTmux(t)
	socketPath := t.TempDir() + "/nonexistent.sock"

	runner := tmuxcli.New(tmuxPath, socketPath)

	_, err := runner.Run(context.Background(), "list-sessions")
	require.Error(t, err)

	var tmuxErr *tmuxcli.Error
	require.True(t, errors.As(err, &tmuxErr), "expected *tmuxcli.Error, got %T", err)
	assert.Equal(t, "list-sessions", tmuxErr.Op)

	var exitErr *exec.ExitError
	assert.ErrorAs(t, err, &exitErr, "tmux ran and exited non-zero")
}

func TestWaitForSessionTimeout(t *testing.T) {
	tmuxPath := findTmux(t)
	runner := tmuxcli.New(tmuxPath, t.TempDir()+"/idle.sock")

	err := runner.WaitForSession(context.Background(), "never", 50*time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not ready")
}

func TestErrorMessage(t *testing.T) {
	err := &tmuxcli.Error{Op: "send-keys", Stderr: "can't find session", Err: errors.New("exit status 1")}
	assert.Equal(t, "tmux send-keys failed: exit status 1\nstderr: can't find session", err.Error())
	assert.Equal(t, "exit status 1", errors.Unwrap(err).Error())

	bare := &tmuxcli.Error{Op: "kill-session", Err: errors.New("boom")}
	assert.Equal(t, "tmux kill-session failed: boom", bare.Error())
}
