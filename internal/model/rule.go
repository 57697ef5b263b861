package model

import (
	"fmt"
	"strings"
)

// Severity classifies why a term is flagged
type Severity string

const (
	SeverityOutdated  Severity = "outdated"  // Clinical or superseded wording
	SeverityBiased    Severity = "biased"    // Implies a norm the subject deviates from
	SeverityOffensive Severity = "offensive" // Disrespectful or invalidating wording
	SeverityIncorrect Severity = "incorrect" // Factually misleading wording
)

// Severities returns the four categories in canonical order
func Severities() []Severity {
	return []Severity{SeverityOutdated, SeverityBiased, SeverityOffensive, SeverityIncorrect}
}

// ParseSeverity maps a name to its Severity, case-insensitively
func ParseSeverity(name string) (Severity, error) {
	s := Severity(strings.ToLower(strings.TrimSpace(name)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown severity %q (expected outdated, biased, offensive or incorrect)", name)
	}
	return s, nil
}

// Valid reports whether s is one of the four categories
func (s Severity) Valid() bool {
	switch s {
	case SeverityOutdated, SeverityBiased, SeverityOffensive, SeverityIncorrect:
		return true
	default:
		return false
	}
}

func (s Severity) String() string {
	return string(s)
}

// Reference is a labelled link backing a rule
type Reference struct {
	Label string `json:"label" yaml:"label" toml:"label"`
	URL   string `json:"url" yaml:"url" toml:"url"`
}

// TermRule is one entry of the rule table.
// Term is matched case-insensitively as a literal substring.
type TermRule struct {
	Term        string      `json:"term" yaml:"term" toml:"term"`
	Severity    Severity    `json:"severity" yaml:"severity" toml:"severity"`
	Explanation string      `json:"explanation" yaml:"explanation" toml:"explanation"`
	Suggestion  string      `json:"suggestion,omitempty" yaml:"suggestion,omitempty" toml:"suggestion,omitempty"`
	References  []Reference `json:"references,omitempty" yaml:"references,omitempty" toml:"references,omitempty"`
}

// Key returns the case-insensitive identity of the rule
func (r TermRule) Key() string {
	return FoldCase(r.Term)
}
