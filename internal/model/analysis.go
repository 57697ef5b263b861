package model

import "fmt"

// Annotation is the externally visible record of one occurrence.
// Start and End are byte offsets into the scanned text; UTF16Start and
// UTF16End address the same span in UTF-16 code units.
type Annotation struct {
	Start       int         `json:"start"`
	End         int         `json:"end"`
	UTF16Start  int         `json:"utf16_start"`
	UTF16End    int         `json:"utf16_end"`
	Severity    Severity    `json:"severity"`
	Label       string      `json:"label"`
	Suggestion  string      `json:"suggestion,omitempty"`
	Explanation string      `json:"explanation,omitempty"`
	References  []Reference `json:"references,omitempty"`
}

// NewAnnotation builds the annotation for rule matched at [start, end).
// It panics when the span is empty or negative: offsets come from the
// matcher, so a bad span is a programming error.
func NewAnnotation(start, end int, rule TermRule) Annotation {
	if start < 0 || start >= end {
		panic(fmt.Sprintf("model: invalid annotation span [%d,%d) for %q", start, end, rule.Term))
	}
	return Annotation{
		Start:       start,
		End:         end,
		Severity:    rule.Severity,
		Label:       rule.Term,
		Suggestion:  rule.Suggestion,
		Explanation: rule.Explanation,
		References:  rule.References,
	}
}

// Len returns the span length in bytes
func (a Annotation) Len() int {
	return a.End - a.Start
}

// Result is a deduplicated per-rule summary entry
type Result struct {
	Phrase      string      `json:"phrase"`
	Severity    Severity    `json:"severity"`
	Explanation string      `json:"explanation"`
	Suggestion  string      `json:"suggestion,omitempty"`
	References  []Reference `json:"references,omitempty"`
}

// ResultFromRule builds the summary entry for rule
func ResultFromRule(rule TermRule) Result {
	return Result{
		Phrase:      rule.Term,
		Severity:    rule.Severity,
		Explanation: rule.Explanation,
		Suggestion:  rule.Suggestion,
		References:  rule.References,
	}
}

// Counts holds total occurrences per severity
type Counts struct {
	Outdated  int `json:"outdated" yaml:"outdated"`
	Biased    int `json:"biased" yaml:"biased"`
	Offensive int `json:"offensive" yaml:"offensive"`
	Incorrect int `json:"incorrect" yaml:"incorrect"`
}

// Add increments the counter for s by n. Unknown severities are ignored.
func (c *Counts) Add(s Severity, n int) {
	switch s {
	case SeverityOutdated:
		c.Outdated += n
	case SeverityBiased:
		c.Biased += n
	case SeverityOffensive:
		c.Offensive += n
	case SeverityIncorrect:
		c.Incorrect += n
	}
}

// Get returns the counter for s
func (c Counts) Get(s Severity) int {
	switch s {
	case SeverityOutdated:
		return c.Outdated
	case SeverityBiased:
		return c.Biased
	case SeverityOffensive:
		return c.Offensive
	case SeverityIncorrect:
		return c.Incorrect
	default:
		return 0
	}
}

// Total returns the sum over all severities
func (c Counts) Total() int {
	return c.Outdated + c.Biased + c.Offensive + c.Incorrect
}

// Merge adds other into c
func (c *Counts) Merge(other Counts) {
	for _, s := range Severities() {
		c.Add(s, other.Get(s))
	}
}

// Segment is a contiguous slice of the original text, plain when
// Annotation is nil
type Segment struct {
	Content    string      `json:"content"`
	Annotation *Annotation `json:"annotation,omitempty"`
}

// Annotated reports whether the segment carries an annotation
func (s Segment) Annotated() bool {
	return s.Annotation != nil
}

// Analysis is the output of one analyze call
type Analysis struct {
	Annotations []Annotation `json:"annotations"`
	Results     []Result     `json:"results"`
	Counts      Counts       `json:"counts"`
}

// Empty returns an analysis with no findings (non-nil slices so JSON
// renders [] rather than null)
func Empty() Analysis {
	return Analysis{
		Annotations: []Annotation{},
		Results:     []Result{},
	}
}
