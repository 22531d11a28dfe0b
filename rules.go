package unattended

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

// A Rule pairs a prompt substring with the literal text sent back when the
// prompt appears. The response is typed followed by Enter.
type Rule struct {
	Match    string `yaml:"match"`
	Response string `yaml:"response"`

	// Repeat marks a prompt that may appear any number of times, such as a
	// confirmation asked again after a retry. Under ConsumeOnce a repeat rule
	// is answered every time but never counts toward completion.
	Repeat bool `yaml:"repeat,omitempty"`
}

func (r Rule) String() string {
	return fmt.Sprintf("%q -> %q", r.Match, r.Response)
}

// Table is an ordered list of rules. When two rules match at the same
// transcript position the one listed first wins.
type Table []Rule

// Validate checks that the table can drive the given policy.
func (t Table) Validate(p Policy) error {
	if len(t) == 0 {
		return errors.New("unattended: prompt table is empty")
	}
	seen := make(map[string]int, len(t))
	required := 0
	for i, r := range t {
		if r.Match == "" {
			return fmt.Errorf("unattended: rule %d: empty match", i)
		}
		if j, dup := seen[r.Match]; dup {
			return fmt.Errorf("unattended: rule %d: match %q duplicates rule %d", i, r.Match, j)
		}
		seen[r.Match] = i
		if (r.Repeat || p == RepeatForever) && strings.Contains(r.Response, r.Match) {
			return fmt.Errorf("unattended: rule %d: response %q would re-trigger its own match when echoed", i, r.Response)
		}
		if !r.Repeat {
			required++
		}
	}
	if p == ConsumeOnce && required == 0 {
		return errors.New("unattended: consume-once needs at least one rule without repeat")
	}
	return nil
}

// Required returns the rules that must be answered for ConsumeOnce to
// complete, in table order.
func (t Table) Required() Table {
	var out Table
	for _, r := range t {
		if !r.Repeat {
			out = append(out, r)
		}
	}
	return out
}

// LongestMatch returns the byte length of the longest match string.
func (t Table) LongestMatch() int {
	n := 0
	for _, r := range t {
		if len(r.Match) > n {
			n = len(r.Match)
		}
	}
	return n
}

var placeholderRe = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Placeholders returns the sorted, de-duplicated ${name} variables referenced
// by any match or response.
func (t Table) Placeholders() []string {
	set := make(map[string]struct{})
	for _, r := range t {
		for _, s := range []string{r.Match, r.Response} {
			for _, m := range placeholderRe.FindAllStringSubmatch(s, -1) {
				set[m[1]] = struct{}{}
			}
		}
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Expand returns a copy of the table with every ${name} replaced by its value
// in vars. A placeholder without a value is an error; a bare "$" is left alone.
func (t Table) Expand(vars map[string]string) (Table, error) {
	var missing []string
	expand := func(s string) string {
		return placeholderRe.ReplaceAllStringFunc(s, func(m string) string {
			name := placeholderRe.FindStringSubmatch(m)[1]
			v, ok := vars[name]
			if !ok {
				missing = append(missing, name)
				return m
			}
			return v
		})
	}

	out := make(Table, len(t))
	for i, r := range t {
		out[i] = Rule{Match: expand(r.Match), Response: expand(r.Response), Repeat: r.Repeat}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("unattended: no value for variable %q", missing[0])
	}
	return out, nil
}

// VarsFromEnv returns values for the given variable names taken from
// UNATTENDED_<NAME> environment variables (upper-cased). Unset variables are
// omitted.
func VarsFromEnv(names []string) map[string]string {
	vars := make(map[string]string)
	for _, name := range names {
		if v, ok := os.LookupEnv("UNATTENDED_" + strings.ToUpper(name)); ok {
			vars[name] = v
		}
	}
	return vars
}
