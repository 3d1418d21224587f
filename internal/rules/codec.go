package rules

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// wireRule is the persisted shape of a rule. Enabled is a pointer so a
// missing field can default to true.
type wireRule struct {
	Pattern string `json:"pattern" yaml:"pattern"`
	IsRegex bool   `json:"isRegex" yaml:"isRegex"`
	Enabled *bool  `json:"enabled,omitempty" yaml:"enabled,omitempty"`
}

func (w wireRule) rule() Rule {
	r := NewRule(w.Pattern, w.IsRegex)
	if w.Enabled != nil {
		r.Enabled = *w.Enabled
	}
	return r
}

// ErrNotList is returned when the top-level value is not a list of rules.
var ErrNotList = errors.New("rules: value is not a list")

// DecodeRules strictly decodes a JSON array of rules. Unknown fields and
// trailing data are rejected.
func DecodeRules(raw []byte) ([]Rule, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrNotList
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	var wire []wireRule
	if err := dec.Decode(&wire); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("decode rules: unexpected data after list")
	}
	return fromWire(wire), nil
}

// DecodeRulesYAML strictly decodes a YAML sequence of rules.
func DecodeRulesYAML(raw []byte) ([]Rule, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	if len(node.Content) == 0 {
		return []Rule{}, nil
	}
	if node.Content[0].Kind != yaml.SequenceNode {
		return nil, ErrNotList
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	var wire []wireRule
	if err := dec.Decode(&wire); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	return fromWire(wire), nil
}

// CoerceRules decodes a persisted rule list, treating an absent, null,
// non-list or malformed value as the empty rule set.
func CoerceRules(raw json.RawMessage) ([]Rule, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []Rule{}, nil
	}
	rs, err := DecodeRules(trimmed)
	if err != nil {
		return []Rule{}, err
	}
	return rs, nil
}

// EncodeRules encodes rules as a JSON array. A nil slice encodes as [].
func EncodeRules(rs []Rule) ([]byte, error) {
	if rs == nil {
		rs = []Rule{}
	}
	return json.Marshal(rs)
}

// EncodeRulesYAML encodes rules as a YAML sequence.
func EncodeRulesYAML(rs []Rule) ([]byte, error) {
	if rs == nil {
		rs = []Rule{}
	}
	return yaml.Marshal(rs)
}

func fromWire(wire []wireRule) []Rule {
	out := make([]Rule, 0, len(wire))
	for _, w := range wire {
		out = append(out, w.rule())
	}
	return out
}
