package unattended

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/cboone/unattended/internal/tmuxcli"
)

const minTmuxVersion = "3.0"

// resolveTmuxPath determines the tmux binary path by checking, in order:
// 1. WithTmuxPath option
// 2. UNATTENDED_TMUX environment variable
// 3. $PATH lookup
func resolveTmuxPath(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}

	if envPath := os.Getenv("UNATTENDED_TMUX"); envPath != "" {
		return envPath, nil
	}

	found, err := exec.LookPath("tmux")
	if err != nil {
		return "", errors.New("tmux not found in PATH")
	}
	return found, nil
}

// checkTmuxVersion verifies the tmux version meets the minimum requirement.
func checkTmuxVersion(ctx context.Context, tmuxPath string) error {
	version, err := tmuxcli.Version(ctx, tmuxPath)
	if err != nil {
		return err
	}
	if !versionAtLeast(version, minTmuxVersion) {
		return fmt.Errorf("tmux version %s is below minimum %s", version, minTmuxVersion)
	}
	return nil
}

// versionAtLeast returns true if version >= minVersion.
// Handles version strings like "3.4", "next-3.5", "3.3a".
var versionRe = regexp.MustCompile(`(\d+)\.(\d+)`)

func versionAtLeast(version, minVersion string) bool {
	parseMajorMinor := func(v string) (int, int, bool) {
		m := versionRe.FindStringSubmatch(v)
		if m == nil {
			return 0, 0, false
		}
		major, _ := strconv.Atoi(m[1])
		minor, _ := strconv.Atoi(m[2])
		return major, minor, true
	}

	vMajor, vMinor, ok1 := parseMajorMinor(version)
	mMajor, mMinor, ok2 := parseMajorMinor(minVersion)
	if !ok1 || !ok2 {
		return false
	}

	if vMajor != mMajor {
		return vMajor > mMajor
	}
	return vMinor >= mMinor
}

// validSessionName rejects names tmux would reinterpret as targets.
func validSessionName(name string) error {
	if name == "" {
		return errors.New("empty session name")
	}
	if strings.ContainsAny(name, ".:") {
		return fmt.Errorf("session name %q must not contain '.' or ':'", name)
	}
	return nil
}

// startSession starts a new detached tmux session running the idle shell.
func startSession(ctx context.Context, runner *tmuxcli.Runner, name string, opts sessionOptions) error {
	args := []string{
		"new-session", "-d",
		"-s", name,
		"-x", strconv.Itoa(opts.width),
		"-y", strconv.Itoa(opts.height),
	}

	if opts.dir != "" {
		args = append(args, "-c", opts.dir)
	}

	args = append(args, "--", opts.shell)

	_, err := runner.Run(ctx, args...)
	return err
}

// paneID returns the id of the first pane of the named session.
func paneID(ctx context.Context, runner *tmuxcli.Runner, name string) (string, error) {
	output, err := runner.Run(ctx, "list-panes", "-t", "="+name, "-F", "#{pane_id}")
	if err != nil {
		return "", err
	}
	lines := strings.Fields(output)
	if len(lines) == 0 {
		return "", fmt.Errorf("session %q has no panes", name)
	}
	return lines[0], nil
}

// pipePane mirrors everything the pane displays into path, appending. Without
// -o, tmux closes any pipe the pane already has before opening this one.
func pipePane(ctx context.Context, runner *tmuxcli.Runner, pane, path string) error {
	_, err := runner.Run(ctx, "pipe-pane", "-t", pane, "cat >> "+shellQuote(path))
	return err
}

// sendLiteral types text into the pane without key-name interpretation.
func sendLiteral(ctx context.Context, runner *tmuxcli.Runner, pane, text string) error {
	_, err := runner.Run(ctx, "send-keys", "-t", pane, "-l", "--", text)
	return err
}

// pressEnter sends the Enter key to the pane.
func pressEnter(ctx context.Context, runner *tmuxcli.Runner, pane string) error {
	_, err := runner.Run(ctx, "send-keys", "-t", pane, "Enter")
	return err
}

// capturePaneContent captures the visible pane content.
func capturePaneContent(ctx context.Context, runner *tmuxcli.Runner, pane string) (string, error) {
	return runner.Run(ctx, "capture-pane", "-p", "-t", pane)
}

// killSession destroys the named session.
func killSession(ctx context.Context, runner *tmuxcli.Runner, name string) error {
	_, err := runner.Run(ctx, "kill-session", "-t", "="+name)
	return err
}

// shellQuote wraps s in single quotes for /bin/sh.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
