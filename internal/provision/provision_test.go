package provision

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cboone/unattended"
)

func newTestRunner(t *testing.T) (*Runner, *bytes.Buffer) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not found in PATH")
	}
	var out bytes.Buffer
	r := NewRunner()
	r.Shell = "sh"
	r.Stdout = &out
	r.Stderr = &out
	return r, &out
}

func TestRunExecutesStepsInOrder(t *testing.T) {
	r, out := newTestRunner(t)

	var announced []string
	r.Announce = func(i, total int, step unattended.SetupStep) {
		announced = append(announced, step.Name)
		assert.Equal(t, 2, total)
	}

	err := r.Run(context.Background(), []unattended.SetupStep{
		{Name: "first", Run: "echo one"},
		{Name: "second", Run: "echo two"},
	})
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", out.String())
	assert.Equal(t, []string{"first", "second"}, announced)
}

func TestRunStopsAtFirstFailure(t *testing.T) {
	r, out := newTestRunner(t)

	err := r.Run(context.Background(), []unattended.SetupStep{
		{Name: "ok", Run: "echo before"},
		{Name: "broken", Run: "exit 3"},
		{Name: "never", Run: "echo after"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, unattended.ErrSetupFailed))

	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, "broken", stepErr.Step)
	assert.Equal(t, 1, stepErr.Index)
	assert.Contains(t, err.Error(), "setup step 2 (broken)")
	assert.NotContains(t, out.String(), "after")
}

func TestRunSkipsWhenPathExists(t *testing.T) {
	r, out := newTestRunner(t)
	marker := filepath.Join(t.TempDir(), "swapfile")
	require.NoError(t, os.WriteFile(marker, nil, 0o600))

	err := r.Run(context.Background(), []unattended.SetupStep{
		{Name: "swap", Run: "echo created", SkipIfExists: marker},
		{Name: "other", Run: "echo ran", SkipIfExists: marker + ".missing"},
	})
	require.NoError(t, err)
	assert.Equal(t, "ran\n", out.String())
}

func TestRunHonorsCancellation(t *testing.T) {
	r, _ := newTestRunner(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.Run(ctx, []unattended.SetupStep{{Name: "late", Run: "echo hi"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, unattended.ErrSetupFailed))
	assert.True(t, errors.Is(err, context.Canceled))
}
