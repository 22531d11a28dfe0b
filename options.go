package unattended

import (
	"log/slog"
	"time"

	"github.com/cboone/unattended/internal/logging"
)

type options struct {
	policy        Policy
	pollInterval  time.Duration
	awaitInterval time.Duration
	timeout       time.Duration
	bufferLimit   int
	logger        *slog.Logger
	onEvent       func(Event)
}

// Option configures an Engine created by NewEngine.
type Option func(*options)

// WithPolicy selects the completion policy. Defaults to ConsumeOnce.
func WithPolicy(p Policy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithPollInterval sets how long Run sleeps when the transcript has no new
// data. Values under 10ms are clamped to 10ms.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		o.pollInterval = d
	}
}

// WithAwaitInterval sets how often Run checks whether the transcript file
// has been created.
func WithAwaitInterval(d time.Duration) Option {
	return func(o *options) {
		o.awaitInterval = d
	}
}

// WithTimeout bounds the whole of Run. When it expires before completion Run
// returns a *TimeoutError. Zero means no deadline.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithBufferLimit caps the unterminated text kept between polls. Once a
// partial line grows past the limit, only enough of its end to still complete
// the longest prompt is kept.
func WithBufferLimit(n int) Option {
	return func(o *options) {
		o.bufferLimit = n
	}
}

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithEventHandler registers a callback invoked synchronously for every
// Event, in order.
func WithEventHandler(fn func(Event)) Option {
	return func(o *options) {
		o.onEvent = fn
	}
}

type sessionOptions struct {
	tmuxPath string
	socket   string
	shell    string
	width    int
	height   int
	dir      string
}

// SessionOption configures a Session created by NewSession.
type SessionOption func(*sessionOptions)

// WithTmuxPath sets the path to the tmux binary. Defaults to "tmux"
// (resolved via $PATH). The UNATTENDED_TMUX environment variable can also
// be used as a fallback before the default.
func WithTmuxPath(path string) SessionOption {
	return func(o *sessionOptions) {
		o.tmuxPath = path
	}
}

// WithSocket runs the session on a private tmux server listening on path
// instead of the user's default server.
func WithSocket(path string) SessionOption {
	return func(o *sessionOptions) {
		o.socket = path
	}
}

// WithShell sets the idle command the session starts with. Defaults to bash.
func WithShell(shell string) SessionOption {
	return func(o *sessionOptions) {
		o.shell = shell
	}
}

// WithSize sets the terminal dimensions (columns x rows).
func WithSize(width, height int) SessionOption {
	return func(o *sessionOptions) {
		o.width = width
		o.height = height
	}
}

// WithDir sets the session's starting directory.
func WithDir(dir string) SessionOption {
	return func(o *sessionOptions) {
		o.dir = dir
	}
}

const (
	defaultPollInterval  = 200 * time.Millisecond
	defaultAwaitInterval = 500 * time.Millisecond
	defaultBufferLimit   = 64 * 1024
	minPollInterval      = 10 * time.Millisecond

	defaultShell  = "bash"
	defaultWidth  = 200
	defaultHeight = 50
)

func defaultOptions() options {
	return options{
		policy:        ConsumeOnce,
		pollInterval:  defaultPollInterval,
		awaitInterval: defaultAwaitInterval,
		bufferLimit:   defaultBufferLimit,
		logger:        logging.NewNop(),
	}
}

func defaultSessionOptions() sessionOptions {
	return sessionOptions{
		shell:  defaultShell,
		width:  defaultWidth,
		height: defaultHeight,
	}
}
