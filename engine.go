package unattended

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"
)

// State is a phase of the match-and-respond loop.
type State int

const (
	// AwaitingLog waits for the transcript file to appear.
	AwaitingLog State = iota
	// Streaming reads transcript text and answers prompts.
	Streaming
	// Complete means the policy is satisfied. The session is left running.
	Complete
)

func (s State) String() string {
	switch s {
	case AwaitingLog:
		return "awaiting-log"
	case Streaming:
		return "streaming"
	case Complete:
		return "complete"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// A Sender types text followed by Enter into a terminal session.
// *Session implements Sender.
type Sender interface {
	Send(ctx context.Context, text string) error
}

// EventKind identifies what an Event reports.
type EventKind int

const (
	// EventState reports a state transition.
	EventState EventKind = iota
	// EventLine reports a completed transcript line that matched no rule.
	EventLine
	// EventResponse reports that a rule matched and its response was sent.
	EventResponse
)

// Event is delivered to the handler registered with WithEventHandler.
type Event struct {
	Kind  EventKind
	State State
	// Line is the transcript line (for EventLine) or the text leading up to
	// and including the prompt (for EventResponse).
	Line string
	Rule Rule
}

// Engine watches a session transcript and answers the prompts listed in its
// table. An Engine is single-use and not safe for concurrent use.
type Engine struct {
	table  Table
	sender Sender
	opts   options
	logger *slog.Logger

	state     State
	live      []bool
	remaining int
	responses int
	buf       string
	norm      normalizer
	keep      int
}

// NewEngine creates an engine for table that injects responses through sender.
func NewEngine(table Table, sender Sender, userOpts ...Option) (*Engine, error) {
	if sender == nil {
		return nil, errors.New("unattended: nil sender")
	}

	opts := defaultOptions()
	for _, o := range userOpts {
		o(&opts)
	}
	if opts.pollInterval < minPollInterval {
		opts.pollInterval = minPollInterval
	}
	if opts.timeout < 0 {
		return nil, fmt.Errorf("unattended: negative timeout: %v", opts.timeout)
	}
	if err := table.Validate(opts.policy); err != nil {
		return nil, err
	}

	e := &Engine{
		table:  append(Table(nil), table...),
		sender: sender,
		opts:   opts,
		logger: opts.logger.With("policy", opts.policy.String()),
		live:   make([]bool, len(table)),
		keep:   table.LongestMatch() - 1,
	}
	for i := range e.live {
		e.live[i] = true
	}
	if opts.policy == ConsumeOnce {
		e.remaining = len(table.Required())
	}
	if opts.bufferLimit < e.keep+1 {
		e.opts.bufferLimit = e.keep + 1
	}
	return e, nil
}

// State returns the current phase.
func (e *Engine) State() State {
	return e.state
}

// Responses returns how many responses have been sent.
func (e *Engine) Responses() int {
	return e.responses
}

// Pending returns the required rules not yet answered, in table order.
// It is always empty under RepeatForever.
func (e *Engine) Pending() Table {
	var out Table
	if e.opts.policy != ConsumeOnce {
		return out
	}
	for i, r := range e.table {
		if e.live[i] && !r.Repeat {
			out = append(out, r)
		}
	}
	return out
}

// Run waits for the transcript at path, opens it at its current end, and
// watches it until the policy completes or ctx ends. Text written before the
// file is opened is ignored, so callers that start the installer themselves
// should open the transcript first and use Watch.
func (e *Engine) Run(ctx context.Context, path string) error {
	return e.withDeadline(ctx, func(ctx context.Context) error {
		e.logger.Info("waiting for transcript", "path", path)
		if err := AwaitTranscript(ctx, path, e.opts.awaitInterval); err != nil {
			return err
		}
		tr, err := OpenTranscript(path)
		if err != nil {
			return err
		}
		defer tr.Close()
		return e.watch(ctx, tr)
	})
}

// Watch streams tr and answers prompts until the policy completes or ctx
// ends. Under RepeatForever it only returns on cancellation or error. It
// never closes or alters the session, and it does not close tr.
func (e *Engine) Watch(ctx context.Context, tr *Transcript) error {
	return e.withDeadline(ctx, func(ctx context.Context) error {
		return e.watch(ctx, tr)
	})
}

var errEngineTimeout = errors.New("engine deadline")

// withDeadline applies the WithTimeout deadline to fn and converts its
// expiry into a *TimeoutError.
func (e *Engine) withDeadline(ctx context.Context, fn func(context.Context) error) error {
	if e.state == Complete {
		return nil
	}
	if e.opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, e.opts.timeout, errEngineTimeout)
		defer cancel()
	}

	err := fn(ctx)
	if err != nil && errors.Is(context.Cause(ctx), errEngineTimeout) {
		return &TimeoutError{After: e.opts.timeout, Pending: e.Pending()}
	}
	return err
}

func (e *Engine) watch(ctx context.Context, tr *Transcript) error {
	e.setState(Streaming)
	e.logger.Info("watching transcript", "path", tr.Path(), "offset", tr.Offset())

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		chunk, err := tr.Poll()
		if err != nil {
			return err
		}
		if chunk == "" {
			if err := sleepContext(ctx, e.opts.pollInterval); err != nil {
				return err
			}
			continue
		}
		done, err := e.Process(ctx, chunk)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// Process feeds one chunk of raw transcript output through the matching pass
// and reports whether the policy is now complete.
//
// The pass works on a single buffer: the unprocessed remainder of earlier
// chunks followed by this chunk. It repeatedly takes whichever comes first,
// a newline or the earliest occurrence of a live rule's match. A newline
// completes a line, which is reported and discarded. A match sends the rule's
// response and discards the buffer up to the end of the match, so the same
// occurrence can never trigger twice. When two rules match at the same
// position the one earlier in the table wins. Whatever follows the last
// newline is carried over to the next call.
func (e *Engine) Process(ctx context.Context, chunk string) (bool, error) {
	switch e.state {
	case Complete:
		return true, nil
	case AwaitingLog:
		e.setState(Streaming)
	}

	e.buf += e.norm.normalize(chunk)

	for {
		nl := strings.IndexByte(e.buf, '\n')
		idx, start := e.earliestMatch()

		if nl >= 0 && (idx < 0 || nl < start) {
			e.observeLine(e.buf[:nl])
			e.buf = e.buf[nl+1:]
			continue
		}
		if idx < 0 {
			break
		}

		end := start + len(e.table[idx].Match)
		seen := e.buf[:end]
		e.buf = e.buf[end:]
		if err := e.respond(ctx, idx, seen); err != nil {
			return false, err
		}
		if e.opts.policy == ConsumeOnce && e.remaining == 0 {
			e.logger.Info("all prompts answered", "responses", e.responses)
			e.setState(Complete)
			return true, nil
		}
	}

	e.trimCarry()
	return false, nil
}

// earliestMatch returns the index of the live rule whose match occurs first
// in the buffer, and where it starts. It returns -1 when nothing matches.
func (e *Engine) earliestMatch() (idx, start int) {
	idx, start = -1, -1
	for i, r := range e.table {
		if !e.live[i] {
			continue
		}
		pos := strings.Index(e.buf, r.Match)
		if pos < 0 {
			continue
		}
		if idx < 0 || pos < start {
			idx, start = i, pos
		}
	}
	return idx, start
}

func (e *Engine) respond(ctx context.Context, idx int, seen string) error {
	rule := e.table[idx]
	e.logger.Info("prompt detected", "match", rule.Match, "response", rule.Response)

	start := time.Now()
	if err := e.sender.Send(ctx, rule.Response); err != nil {
		return fmt.Errorf("unattended: respond to %q: %w", rule.Match, err)
	}
	e.logger.Debug("response sent", "match", rule.Match, "elapsed", time.Since(start))

	e.responses++
	if e.opts.policy == ConsumeOnce && !rule.Repeat {
		e.live[idx] = false
		e.remaining--
	}
	e.emit(Event{Kind: EventResponse, State: e.state, Line: lastLine(seen), Rule: rule})
	return nil
}

func (e *Engine) observeLine(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	e.logger.Debug("transcript", "line", line)
	e.emit(Event{Kind: EventLine, State: e.state, Line: line})
}

// trimCarry bounds the partial line kept between calls. A match can never
// span more than keep bytes of the old text, so the rest is safe to drop.
func (e *Engine) trimCarry() {
	if len(e.buf) <= e.opts.bufferLimit {
		return
	}
	cut := len(e.buf) - e.keep
	for cut < len(e.buf) && !utf8.RuneStart(e.buf[cut]) {
		cut++
	}
	e.logger.Debug("dropping unterminated output", "bytes", cut)
	e.buf = e.buf[cut:]
}

func (e *Engine) setState(s State) {
	if e.state == s {
		return
	}
	e.logger.Debug("state change", "from", e.state.String(), "to", s.String())
	e.state = s
	e.emit(Event{Kind: EventState, State: s})
}

func (e *Engine) emit(ev Event) {
	if e.opts.onEvent != nil {
		e.opts.onEvent(ev)
	}
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(s)
}
