package score

import (
	"fmt"
	"math"
	"sort"

	"github.com/ppiankov/inclusify/internal/model"
)

// DefaultTopTerms is how many flagged terms a score lists
const DefaultTopTerms = 5

// Scorer calculates the inclusivity index and generates signals
type Scorer struct {
	topTerms int
}

// NewScorer creates a new scorer
func NewScorer() *Scorer {
	return &Scorer{topTerms: DefaultTopTerms}
}

// WithTopTerms sets how many terms Calculate lists (0 disables the list)
func (s *Scorer) WithTopTerms(n int) *Scorer {
	if n < 0 {
		n = 0
	}
	s.topTerms = n
	return s
}

// Calculate scores an analysis of a text with wordCount words
func (s *Scorer) Calculate(analysis model.Analysis, wordCount int) model.Score {
	total := analysis.Counts.Total()

	density := Density(total, wordCount)
	index := Index(density)

	var signals []model.Signal
	breakdown := make(map[model.Severity]float64, len(model.Severities()))
	for _, sev := range model.Severities() {
		count := analysis.Counts.Get(sev)
		share := Share(count, total)
		breakdown[sev] = share

		if count > 0 {
			signals = append(signals, s.severitySignal(sev, count, share))
		}
	}

	return model.Score{
		Index:     index,
		Density:   density,
		Signals:   signals,
		Breakdown: breakdown,
		TopTerms:  s.rankTerms(analysis.Annotations),
	}
}

// Density returns occurrences per 100 words
func Density(occurrences, words int) float64 {
	if words <= 0 {
		return 0
	}
	return float64(occurrences) / float64(words) * 100
}

// Index converts a density into the 0-100 inclusivity index
func Index(density float64) int {
	index := 100 - int(math.Round(density*10))
	if index < 0 {
		return 0
	}
	return index
}

// Share returns count/total, or 0 when total is 0
func Share(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total)
}

// severitySignal describes the occurrences of one severity
func (s *Scorer) severitySignal(sev model.Severity, count int, share float64) model.Signal {
	level := model.LevelWarning
	switch sev {
	case model.SeverityOutdated:
		level = model.LevelInfo
	case model.SeverityOffensive:
		level = model.LevelCritical
	}

	noun := "occurrences"
	if count == 1 {
		noun = "occurrence"
	}

	return model.Signal{
		Severity:    sev,
		Level:       level,
		Description: fmt.Sprintf("%d %s %s (%.0f%% of findings)", count, sev, noun, share*100),
		Data: map[string]interface{}{
			"count":   count,
			"share":   share,
			"formula": "count / total_occurrences",
		},
	}
}

func (s *Scorer) rankTerms(annotations []model.Annotation) []model.TermCount {
	if s.topTerms == 0 || len(annotations) == 0 {
		return []model.TermCount{}
	}
	return TopTerms(CountTerms(annotations), s.topTerms)
}

// CountTerms counts annotations per case-insensitive label in
// first-occurrence order
func CountTerms(annotations []model.Annotation) []model.TermCount {
	index := make(map[string]int)
	terms := []model.TermCount{}
	for _, a := range annotations {
		key := model.FoldCase(a.Label)
		i, ok := index[key]
		if !ok {
			i = len(terms)
			index[key] = i
			terms = append(terms, model.TermCount{
				Term:       a.Label,
				Severity:   a.Severity,
				Suggestion: a.Suggestion,
			})
		}
		terms[i].Count++
	}
	return terms
}

// TopTerms sorts terms by descending count (stable) and keeps the first n
func TopTerms(terms []model.TermCount, n int) []model.TermCount {
	sorted := make([]model.TermCount, len(terms))
	copy(sorted, terms)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Count > sorted[j].Count
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
