// Package rules loads and validates the term rule table.
//
// The table is a data asset: the built-in rules are embedded from
// default_rules.yaml and a custom table can be loaded from a YAML or TOML
// file. A Table is immutable once built and safe for concurrent use.
package rules

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ppiankov/inclusify/internal/model"
)

var (
	// ErrEmptyTerm indicates a rule whose term is empty or whitespace.
	ErrEmptyTerm = errors.New("empty term")

	// ErrUnknownSeverity indicates a severity outside the four categories.
	ErrUnknownSeverity = errors.New("unknown severity")

	// ErrMissingExplanation indicates a rule without an explanation.
	ErrMissingExplanation = errors.New("missing explanation")

	// ErrInvalidReference indicates a reference without a URL.
	ErrInvalidReference = errors.New("invalid reference")

	// ErrDuplicateTerm indicates two rules with the same case-insensitive term.
	ErrDuplicateTerm = errors.New("duplicate term")

	// ErrUnsupportedFormat indicates a rule file extension we cannot parse.
	ErrUnsupportedFormat = errors.New("unsupported rule file format")
)

// Table is an ordered, immutable collection of term rules
type Table struct {
	version     int
	rules       []model.TermRule
	byKey       map[string]int
	fingerprint string
}

// New validates rules and builds a table holding a private copy of them
func New(version int, rules []model.TermRule) (*Table, error) {
	if err := Validate(rules); err != nil {
		return nil, err
	}

	t := &Table{
		version: version,
		rules:   cloneRules(rules),
		byKey:   make(map[string]int, len(rules)),
	}
	for i, r := range t.rules {
		t.byKey[r.Key()] = i
	}

	sum, err := json.Marshal(t.rules)
	if err != nil {
		return nil, fmt.Errorf("fingerprint rules: %w", err)
	}
	hash := sha256.Sum256(sum)
	t.fingerprint = hex.EncodeToString(hash[:8])

	return t, nil
}

// Validate checks every rule and reports the first problem found
func Validate(rules []model.TermRule) error {
	seen := make(map[string]int, len(rules))
	for i, r := range rules {
		if strings.TrimSpace(r.Term) == "" {
			return fmt.Errorf("rule %d: %w", i, ErrEmptyTerm)
		}
		if !r.Severity.Valid() {
			return fmt.Errorf("rule %d (%q): %w: %q", i, r.Term, ErrUnknownSeverity, r.Severity)
		}
		if strings.TrimSpace(r.Explanation) == "" {
			return fmt.Errorf("rule %d (%q): %w", i, r.Term, ErrMissingExplanation)
		}
		for j, ref := range r.References {
			if strings.TrimSpace(ref.URL) == "" {
				return fmt.Errorf("rule %d (%q) reference %d: %w", i, r.Term, j, ErrInvalidReference)
			}
		}
		if prev, ok := seen[r.Key()]; ok {
			return fmt.Errorf("rule %d (%q) repeats rule %d: %w", i, r.Term, prev, ErrDuplicateTerm)
		}
		seen[r.Key()] = i
	}
	return nil
}

// Rules returns a copy of the rules in table order
func (t *Table) Rules() []model.TermRule {
	return cloneRules(t.rules)
}

// Len returns the number of rules
func (t *Table) Len() int {
	return len(t.rules)
}

// Version returns the schema version declared by the source file
func (t *Table) Version() int {
	return t.version
}

// Fingerprint identifies the table contents; it changes whenever any rule does
func (t *Table) Fingerprint() string {
	return t.fingerprint
}

// Lookup finds a rule by case-insensitive term
func (t *Table) Lookup(term string) (model.TermRule, bool) {
	i, ok := t.byKey[model.FoldCase(term)]
	if !ok {
		return model.TermRule{}, false
	}
	return cloneRule(t.rules[i]), true
}

// References returns every distinct reference URL in the table, in first-seen order
func (t *Table) References() []model.Reference {
	seen := make(map[string]bool)
	var refs []model.Reference
	for _, r := range t.rules {
		for _, ref := range r.References {
			if !seen[ref.URL] {
				seen[ref.URL] = true
				refs = append(refs, ref)
			}
		}
	}
	return refs
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// Default returns the built-in table. It panics if the embedded asset is
// invalid, which can only happen through a bad edit of default_rules.yaml.
func Default() *Table {
	defaultOnce.Do(func() {
		t, err := Parse(defaultRules, FormatYAML)
		if err != nil {
			panic(fmt.Sprintf("rules: built-in table: %v", err))
		}
		defaultTable = t
	})
	return defaultTable
}

func cloneRules(rules []model.TermRule) []model.TermRule {
	out := make([]model.TermRule, len(rules))
	for i, r := range rules {
		out[i] = cloneRule(r)
	}
	return out
}

func cloneRule(r model.TermRule) model.TermRule {
	if r.References != nil {
		refs := make([]model.Reference, len(r.References))
		copy(refs, r.References)
		r.References = refs
	}
	return r
}
