package unattended

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cboone/unattended/internal/tmuxcli"
)

// Session is a handle to one named, detached tmux session whose output is
// mirrored to a transcript file. The session outlives the handle: nothing in
// this package stops it as part of normal operation.
type Session struct {
	name    string
	logPath string
	runner  *tmuxcli.Runner
	opts    sessionOptions
	pane    string
}

// NewSession binds a handle to the session name and transcript path. It
// resolves and checks tmux but does not start anything; call Create for that.
func NewSession(ctx context.Context, name, logPath string, userOpts ...SessionOption) (*Session, error) {
	opts := defaultSessionOptions()
	for _, o := range userOpts {
		o(&opts)
	}

	if err := validSessionName(name); err != nil {
		return nil, &SessionError{Op: "open", Name: name, Err: err}
	}
	if logPath == "" {
		return nil, &SessionError{Op: "open", Name: name, Err: errors.New("empty transcript path")}
	}
	abs, err := filepath.Abs(logPath)
	if err != nil {
		return nil, &SessionError{Op: "open", Name: name, Err: err}
	}

	tmuxPath, err := resolveTmuxPath(opts.tmuxPath)
	if err != nil {
		return nil, &SessionError{Op: "open", Name: name, Err: err}
	}
	if err := checkTmuxVersion(ctx, tmuxPath); err != nil {
		return nil, &SessionError{Op: "open", Name: name, Err: err}
	}

	return &Session{
		name:    name,
		logPath: abs,
		runner:  tmuxcli.New(tmuxPath, opts.socket),
		opts:    opts,
	}, nil
}

// Name returns the session name.
func (s *Session) Name() string {
	return s.name
}

// LogPath returns the absolute transcript path.
func (s *Session) LogPath() string {
	return s.logPath
}

// Create starts the detached session running an idle shell. It fails if a
// session with the same name already exists; callers must pick a fresh name.
func (s *Session) Create(ctx context.Context) error {
	if s.runner.HasSession(ctx, s.name) {
		return &SessionError{Op: "create", Name: s.name, Err: errors.New("a session with this name already exists")}
	}
	if err := startSession(ctx, s.runner, s.name, s.opts); err != nil {
		return &SessionError{Op: "create", Name: s.name, Err: err}
	}
	return s.resolvePane(ctx, "create")
}

// WaitReady polls until the session exists, for callers that race a session
// started elsewhere.
func (s *Session) WaitReady(ctx context.Context, timeout time.Duration) error {
	if err := s.runner.WaitForSession(ctx, s.name, timeout); err != nil {
		return &SessionError{Op: "wait", Name: s.name, Err: err}
	}
	return s.resolvePane(ctx, "wait")
}

// Exists reports whether the session is running.
func (s *Session) Exists(ctx context.Context) bool {
	return s.runner.HasSession(ctx, s.name)
}

// EnableLogging mirrors all pane output to the transcript path in append mode.
// Call it before starting anything whose output matters. An existing output
// pipe is replaced, so the pane always logs to this handle's path.
func (s *Session) EnableLogging(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.logPath), 0o755); err != nil {
		return &SessionError{Op: "log", Name: s.name, Err: err}
	}
	pane, err := s.target(ctx, "log")
	if err != nil {
		return err
	}
	if err := pipePane(ctx, s.runner, pane, s.logPath); err != nil {
		return &SessionError{Op: "log", Name: s.name, Err: err}
	}
	return nil
}

// Send types text into the session followed by Enter, as a user would.
// An empty text presses Enter alone.
func (s *Session) Send(ctx context.Context, text string) error {
	pane, err := s.target(ctx, "send")
	if err != nil {
		return err
	}
	if text != "" {
		if err := sendLiteral(ctx, s.runner, pane, text); err != nil {
			return &SessionError{Op: "send", Name: s.name, Err: err}
		}
	}
	if err := pressEnter(ctx, s.runner, pane); err != nil {
		return &SessionError{Op: "send", Name: s.name, Err: err}
	}
	return nil
}

// Capture returns the visible pane content, for diagnostics.
func (s *Session) Capture(ctx context.Context) (string, error) {
	pane, err := s.target(ctx, "capture")
	if err != nil {
		return "", err
	}
	out, err := capturePaneContent(ctx, s.runner, pane)
	if err != nil {
		return "", &SessionError{Op: "capture", Name: s.name, Err: err}
	}
	return strings.TrimRight(out, "\n "), nil
}

// AttachCommand returns the shell command an operator runs to inspect the
// session.
func (s *Session) AttachCommand() string {
	if sock := s.runner.SocketPath(); sock != "" {
		return fmt.Sprintf("tmux -S %s attach -t %s", shellQuote(sock), s.name)
	}
	return "tmux attach -t " + s.name
}

// Kill destroys the session. Automation never calls it; it exists for
// operators and tests.
func (s *Session) Kill(ctx context.Context) error {
	if err := killSession(ctx, s.runner, s.name); err != nil {
		return &SessionError{Op: "kill", Name: s.name, Err: err}
	}
	s.pane = ""
	return nil
}

func (s *Session) target(ctx context.Context, op string) (string, error) {
	if s.pane == "" {
		if err := s.resolvePane(ctx, op); err != nil {
			return "", err
		}
	}
	return s.pane, nil
}

func (s *Session) resolvePane(ctx context.Context, op string) error {
	pane, err := paneID(ctx, s.runner, s.name)
	if err != nil {
		return &SessionError{Op: op, Name: s.name, Err: err}
	}
	s.pane = pane
	return nil
}
