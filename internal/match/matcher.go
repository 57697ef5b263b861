// Package match locates rule terms in text.
//
// Matching is a case-insensitive literal substring search. All terms of a
// rule table are compiled into one Aho-Corasick automaton; the overlapping
// hits it reports are then reduced, per rule, to the leftmost chain of
// non-overlapping matches. For a single rule this is the same as repeatedly
// searching from the end of the previous match, so "aa" is found twice in
// "aaaa", at [0,2) and [2,4).
package match

import (
	aho "github.com/petar-dambovaliev/aho-corasick"

	"github.com/ppiankov/inclusify/internal/model"
)

// Occurrence is one location in text where a rule's term was found.
// Start and End are byte offsets into the scanned text.
type Occurrence struct {
	Start     int
	End       int
	RuleIndex int // Position of Rule in the table the matcher was built from
	Rule      model.TermRule
}

// Matcher scans text against a fixed set of rules.
// It is immutable after New and safe for concurrent use.
type Matcher struct {
	rules     []model.TermRule
	automaton aho.AhoCorasick
	patterns  []string
	byPattern [][]int // pattern index -> rule indices sharing that folded term
}

// New compiles rules into a Matcher. Rules with an empty term never match.
func New(rules []model.TermRule) *Matcher {
	m := &Matcher{
		rules: make([]model.TermRule, len(rules)),
	}
	copy(m.rules, rules)

	index := make(map[string]int)
	for i, r := range m.rules {
		if r.Term == "" {
			continue
		}
		key := model.FoldCase(r.Term)
		p, ok := index[key]
		if !ok {
			p = len(m.patterns)
			index[key] = p
			m.patterns = append(m.patterns, key)
			m.byPattern = append(m.byPattern, nil)
		}
		m.byPattern[p] = append(m.byPattern[p], i)
	}

	if len(m.patterns) > 0 {
		builder := aho.NewAhoCorasickBuilder(aho.Opts{
			DFA: true,
		})
		m.automaton = builder.Build(m.patterns)
	}
	return m
}

// Scan returns every occurrence of every rule in text: all occurrences of
// the first rule in text order, then those of the second rule, and so on.
// Occurrences of different rules may overlap.
func (m *Matcher) Scan(text string) []Occurrence {
	if text == "" || len(m.patterns) == 0 {
		return nil
	}

	perRule := make([][]Occurrence, len(m.rules))
	lastEnd := make([]int, len(m.rules))

	// Overlapping hits arrive ordered by end offset; for a fixed pattern that
	// is also start order, so a greedy pass keeps the leftmost chain.
	iter := m.automaton.IterOverlappingByte([]byte(model.FoldCase(text)))
	for next := iter.Next(); next != nil; next = iter.Next() {
		hit := *next
		for _, ri := range m.byPattern[hit.Pattern()] {
			if hit.Start() < lastEnd[ri] {
				continue
			}
			perRule[ri] = append(perRule[ri], Occurrence{
				Start:     hit.Start(),
				End:       hit.End(),
				RuleIndex: ri,
				Rule:      m.rules[ri],
			})
			lastEnd[ri] = hit.End()
		}
	}

	var out []Occurrence
	for _, occs := range perRule {
		out = append(out, occs...)
	}
	return out
}

// Rules returns the number of rules the matcher was built from
func (m *Matcher) Rules() int {
	return len(m.rules)
}

// Scan is a convenience for one-off scans; callers scanning many texts
// against the same rules should build a Matcher once.
func Scan(text string, rules []model.TermRule) []Occurrence {
	return New(rules).Scan(text)
}
