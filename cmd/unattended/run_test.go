package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cboone/unattended"
)

func newOverrideCmd(t *testing.T, args ...string) (*cobra.Command, *overrides) {
	t.Helper()
	var o overrides
	cmd := &cobra.Command{Use: "test"}
	o.register(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd, &o
}

func TestOverridesApply(t *testing.T) {
	t.Setenv("UNATTENDED_NODE_ID", "from-env")
	cmd, o := newOverrideCmd(t,
		"-s", "node-9",
		"--socket", "/tmp/u.sock",
		"--policy", "repeat-forever",
		"--timeout", "45s",
		"--var", "wallet=w1",
	)

	cfg := unattended.DefaultConfig()
	o.apply(cmd, &cfg)

	assert.Equal(t, "node-9", cfg.Session.Name)
	assert.Equal(t, "/tmp/u.sock", cfg.Session.Socket)
	assert.Equal(t, "/tmp/nexus_screen.log", cfg.Session.Log)
	assert.Equal(t, unattended.RepeatForever, cfg.Policy)
	assert.Equal(t, 45*time.Second, cfg.Timeout)
	assert.Equal(t, "from-env", cfg.Vars[unattended.NodeIDVar])
	assert.Equal(t, "w1", cfg.Vars["wallet"])
}

func TestOverridesPrecedence(t *testing.T) {
	t.Setenv("UNATTENDED_NODE_ID", "from-env")
	cmd, o := newOverrideCmd(t, "--var", "node_id=from-var", "--node-id", "from-flag")

	cfg := unattended.DefaultConfig()
	cfg.Vars = map[string]string{unattended.NodeIDVar: "from-file"}
	o.apply(cmd, &cfg)
	assert.Equal(t, "from-flag", cfg.Vars[unattended.NodeIDVar])
}

func TestOverridesLeavePolicyUnlessSet(t *testing.T) {
	cmd, o := newOverrideCmd(t)

	cfg := unattended.DefaultConfig()
	cfg.Policy = unattended.RepeatForever
	o.apply(cmd, &cfg)
	assert.Equal(t, unattended.RepeatForever, cfg.Policy)
}

func TestPromptMissingVarsNeedsTerminal(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "stdin"))
	require.NoError(t, err)
	defer f.Close()

	cfg := unattended.DefaultConfig()
	var out bytes.Buffer
	err = promptMissingVars(&cfg, f, &out)
	assert.ErrorContains(t, err, "no value for node_id")
	assert.Empty(t, out.String())

	cfg.Vars = map[string]string{unattended.NodeIDVar: "N1"}
	assert.NoError(t, promptMissingVars(&cfg, f, &out))
}

func TestPrinterEvents(t *testing.T) {
	var buf bytes.Buffer
	p := &printer{w: &buf}

	p.event(unattended.Event{Kind: unattended.EventLine, Line: "downloading"})
	p.event(unattended.Event{Kind: unattended.EventResponse, Rule: unattended.Rule{Match: "Agree?", Response: "Y"}})
	out := buf.String()
	assert.Contains(t, out, "downloading")
	assert.Contains(t, out, `"Agree?"`)
	assert.Contains(t, out, `"Y"`)

	buf.Reset()
	p.quiet = true
	p.event(unattended.Event{Kind: unattended.EventLine, Line: "downloading"})
	assert.Empty(t, buf.String())
}

func TestRulesCommand(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"rules", "--node-id", "N42"})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	out := buf.String()
	assert.Contains(t, out, `"Please enter your node ID:"`)
	assert.Contains(t, out, `"N42"`)
	assert.Contains(t, out, "policy: consume-once")
}
