package unattended

import (
	"fmt"
	"strings"
)

// Policy decides when the match-and-respond loop stops on its own.
type Policy int

const (
	// ConsumeOnce answers each non-repeat rule exactly once and completes as
	// soon as all of them have been answered.
	ConsumeOnce Policy = iota

	// RepeatForever keeps every rule live and never completes; the loop runs
	// until its context is cancelled.
	RepeatForever
)

// String returns the name used in configuration files and flags.
func (p Policy) String() string {
	switch p {
	case ConsumeOnce:
		return "consume-once"
	case RepeatForever:
		return "repeat-forever"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy parses a policy name. Matching is case-insensitive and accepts
// underscores in place of dashes.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-") {
	case "consume-once", "once":
		return ConsumeOnce, nil
	case "repeat-forever", "forever":
		return RepeatForever, nil
	default:
		return 0, fmt.Errorf("unattended: unknown policy %q (want consume-once or repeat-forever)", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Policy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Policy) UnmarshalText(text []byte) error {
	parsed, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Set implements pflag.Value so a Policy can back a command-line flag.
func (p *Policy) Set(s string) error {
	return p.UnmarshalText([]byte(s))
}

// Type implements pflag.Value.
func (p *Policy) Type() string {
	return "policy"
}
