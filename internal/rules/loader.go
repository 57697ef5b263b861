package rules

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/inclusify/internal/model"
)

//go:embed default_rules.yaml
var defaultRules []byte

// Format identifies a rule file encoding
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// fileTable is the on-disk form of a rule table
type fileTable struct {
	Version int        `yaml:"version" toml:"version"`
	Rules   []fileRule `yaml:"rules" toml:"rules"`
}

type fileRule struct {
	Term        string            `yaml:"term" toml:"term"`
	Severity    string            `yaml:"severity" toml:"severity"`
	Explanation string            `yaml:"explanation" toml:"explanation"`
	Suggestion  string            `yaml:"suggestion,omitempty" toml:"suggestion,omitempty"`
	References  []model.Reference `yaml:"references,omitempty" toml:"references,omitempty"`
}

// Load reads a rule table from path; the format follows the file extension.
// An empty path returns the built-in table.
func Load(path string) (*Table, error) {
	if path == "" {
		return Default(), nil
	}

	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules %s: %w", path, err)
	}

	t, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return t, nil
}

// FormatFromPath maps a file extension to a Format
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Parse decodes and validates a rule table
func Parse(data []byte, format Format) (*Table, error) {
	var ft fileTable
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &ft); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	case FormatTOML:
		if err := toml.Unmarshal(data, &ft); err != nil {
			return nil, fmt.Errorf("parse toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	rules := make([]model.TermRule, 0, len(ft.Rules))
	for i, fr := range ft.Rules {
		sev, err := model.ParseSeverity(fr.Severity)
		if err != nil {
			return nil, fmt.Errorf("rule %d (%q): %w: %q", i, fr.Term, ErrUnknownSeverity, fr.Severity)
		}
		rules = append(rules, model.TermRule{
			Term:        fr.Term,
			Severity:    sev,
			Explanation: strings.TrimSpace(fr.Explanation),
			Suggestion:  strings.TrimSpace(fr.Suggestion),
			References:  fr.References,
		})
	}

	return New(ft.Version, rules)
}

// Marshal encodes a table in the given format, for `rules export`-style output
func Marshal(t *Table, format Format) ([]byte, error) {
	ft := fileTable{Version: t.Version()}
	for _, r := range t.rules {
		ft.Rules = append(ft.Rules, fileRule{
			Term:        r.Term,
			Severity:    r.Severity.String(),
			Explanation: r.Explanation,
			Suggestion:  r.Suggestion,
			References:  r.References,
		})
	}

	switch format {
	case FormatYAML:
		return yaml.Marshal(ft)
	case FormatTOML:
		return toml.Marshal(ft)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}
