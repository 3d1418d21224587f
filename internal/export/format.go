package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/lotas/autopin/internal/rules"
)

// Format is a rule file format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "md"
)

// ParseFormat accepts json, yaml/yml and md/markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unknown format %q (want json, yaml or md)", s)
}

// FormatFromPath picks a format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return FormatJSON
	}
	return f
}

// Rules formats rs in format f.
func Rules(f Format, rs []rules.Rule) (string, error) {
	switch f {
	case FormatYAML:
		return YAML(rs)
	case FormatMarkdown:
		return Markdown(rs), nil
	default:
		return JSON(rs)
	}
}

// YAML formats rs as a YAML sequence.
func YAML(rs []rules.Rule) (string, error) {
	b, err := rules.EncodeRulesYAML(rs)
	return string(b), err
}

// Import strictly decodes a rule list. Markdown is export only.
func Import(f Format, data []byte) ([]rules.Rule, error) {
	switch f {
	case FormatJSON:
		return rules.DecodeRules(data)
	case FormatYAML:
		return rules.DecodeRulesYAML(data)
	}
	return nil, fmt.Errorf("cannot import %s", f)
}
