// Package engine is the single entry point for term analysis: it runs the
// matcher, aggregator and segmenter against one rule table.
package engine

import (
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/inclusify/internal/annotate"
	"github.com/ppiankov/inclusify/internal/match"
	"github.com/ppiankov/inclusify/internal/model"
	"github.com/ppiankov/inclusify/internal/rules"
	"github.com/ppiankov/inclusify/internal/segment"
)

// Engine analyzes text against a compiled rule table.
// It holds no per-call state and is safe for concurrent use.
type Engine struct {
	table   *rules.Table
	matcher *match.Matcher
}

// New compiles table into an Engine. A nil table uses the built-in rules.
func New(table *rules.Table) *Engine {
	if table == nil {
		table = rules.Default()
	}
	return &Engine{
		table:   table,
		matcher: match.New(table.Rules()),
	}
}

// Table returns the rule table the engine was built from
func (e *Engine) Table() *rules.Table {
	return e.table
}

// Analyze scans text and returns its annotations, deduplicated results and
// per-severity counts. Empty or whitespace-only text yields an empty analysis.
func (e *Engine) Analyze(text string) model.Analysis {
	if strings.TrimSpace(text) == "" {
		return model.Empty()
	}

	analysis := annotate.Aggregate(e.matcher.Scan(text))
	fillUTF16(text, analysis.Annotations)
	return analysis
}

// Segments partitions text by the annotations of analysis
func (e *Engine) Segments(text string, analysis model.Analysis) []model.Segment {
	return segment.Split(text, analysis.Annotations)
}

// fillUTF16 sets the UTF-16 code unit offsets of each annotation from its
// byte offsets. Invalid UTF-8 bytes count as one unit each (U+FFFD).
func fillUTF16(text string, annotations []model.Annotation) {
	if len(annotations) == 0 {
		return
	}

	// byte offset -> utf16 offset, sampled at every rune start and at len(text)
	units := make([]int, len(text)+1)
	u := 0
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		for k := 0; k < size; k++ {
			units[i+k] = u
		}
		if r >= 0x10000 {
			u += 2
		} else {
			u++
		}
		i += size
	}
	units[len(text)] = u

	for i := range annotations {
		annotations[i].UTF16Start = units[annotations[i].Start]
		annotations[i].UTF16End = units[annotations[i].End]
	}
}
