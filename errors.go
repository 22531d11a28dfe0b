package unattended

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Error kinds. Callers distinguish failures with errors.Is.
var (
	// ErrSetupFailed reports that an environment provisioning step failed.
	ErrSetupFailed = errors.New("setup failed")

	// ErrSessionUnavailable reports that the terminal session could not be
	// created, configured, or written to.
	ErrSessionUnavailable = errors.New("session unavailable")

	// ErrPromptTimeout reports that the overall deadline expired before the
	// completion policy was satisfied.
	ErrPromptTimeout = errors.New("prompt timeout")
)

// SessionError describes a failed operation on a terminal session.
type SessionError struct {
	Op   string
	Name string
	Err  error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("unattended: %s session %q: %v", e.Op, e.Name, e.Err)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

// Is makes every SessionError match ErrSessionUnavailable.
func (e *SessionError) Is(target error) bool {
	return target == ErrSessionUnavailable
}

// TimeoutError is returned by Engine.Run when the deadline configured with
// WithTimeout expires. Pending lists the required prompts never seen.
type TimeoutError struct {
	After   time.Duration
	Pending []Rule
}

func (e *TimeoutError) Error() string {
	if len(e.Pending) == 0 {
		return fmt.Sprintf("unattended: no completion after %v", e.After)
	}
	quoted := make([]string, len(e.Pending))
	for i, r := range e.Pending {
		quoted[i] = fmt.Sprintf("%q", r.Match)
	}
	return fmt.Sprintf("unattended: no completion after %v; still waiting for %s", e.After, strings.Join(quoted, ", "))
}

// Is makes every TimeoutError match ErrPromptTimeout.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrPromptTimeout
}
