package rules

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dlclark/regexp2"
)

// Rule is a single pin criterion. Pattern is compared for exact equality
// with the tab URL, or used as an ECMAScript regular expression when
// IsRegex is set.
type Rule struct {
	Pattern string `json:"pattern" yaml:"pattern"`
	IsRegex bool   `json:"isRegex" yaml:"isRegex"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

// NewRule returns an enabled rule.
func NewRule(pattern string, isRegex bool) Rule {
	return Rule{Pattern: pattern, IsRegex: isRegex, Enabled: true}
}

// FieldPattern is the only field Validate can report on.
const FieldPattern = "pattern"

// ValidationResult maps field names to human-readable messages.
// An empty result means the rule is valid.
type ValidationResult map[string]string

// OK reports whether validation passed.
func (v ValidationResult) OK() bool {
	return len(v) == 0
}

// Error joins the field messages in field order.
func (v ValidationResult) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, v[f]))
	}
	return strings.Join(parts, "; ")
}

// Validate checks the rule without side effects.
func (r Rule) Validate() ValidationResult {
	if r.Pattern == "" {
		return ValidationResult{FieldPattern: "Pattern field cannot be empty"}
	}
	if r.IsRegex {
		if _, err := compile(r.Pattern); err != nil {
			return ValidationResult{FieldPattern: "Pattern is not a valid regular expression: " + err.Error()}
		}
	}
	return nil
}

func (r Rule) String() string {
	mode := "exact"
	if r.IsRegex {
		mode = "regex"
	}
	state := "on"
	if !r.Enabled {
		state = "off"
	}
	return fmt.Sprintf("[%s %s] %s", mode, state, r.Pattern)
}

// compile builds a case-sensitive, unanchored ECMAScript expression.
func compile(pattern string) (*regexp2.Regexp, error) {
	return regexp2.Compile(pattern, regexp2.ECMAScript)
}
