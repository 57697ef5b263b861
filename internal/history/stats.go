package history

import (
	"math"

	"github.com/ppiankov/inclusify/internal/model"
	"github.com/ppiankov/inclusify/internal/score"
)

// Stats are the dashboard KPIs over recorded analyses
type Stats struct {
	TotalAnalyses int                        `json:"total_analyses"`
	IssuesFound   int                        `json:"issues_found"`
	Counts        model.Counts               `json:"counts"`
	Breakdown     map[model.Severity]float64 `json:"breakdown"`
	AverageScore  float64                    `json:"average_score"`
	TopTerms      []model.TermCount          `json:"top_terms"`
}

// Aggregate folds entries into Stats. Terms are merged and labelled by
// their folded form, so the result does not depend on entry order. The
// topTerms most frequent are kept.
func Aggregate(entries []Entry, topTerms int) Stats {
	stats := Stats{
		TotalAnalyses: len(entries),
		Breakdown:     make(map[model.Severity]float64, len(model.Severities())),
		TopTerms:      []model.TermCount{},
	}

	index := make(map[string]int)
	var terms []model.TermCount
	var scoreSum int
	for _, e := range entries {
		stats.Counts.Merge(e.Counts)
		scoreSum += e.Score

		for _, t := range e.Terms {
			key := model.FoldCase(t.Term)
			i, ok := index[key]
			if !ok {
				i = len(terms)
				index[key] = i
				terms = append(terms, model.TermCount{Term: key, Severity: t.Severity, Suggestion: t.Suggestion})
			}
			terms[i].Count += t.Count
		}
	}

	stats.IssuesFound = stats.Counts.Total()
	for _, sev := range model.Severities() {
		stats.Breakdown[sev] = score.Share(stats.Counts.Get(sev), stats.IssuesFound)
	}
	if len(entries) > 0 {
		stats.AverageScore = math.Round(float64(scoreSum)/float64(len(entries))*10) / 10
	}
	if topTerms > 0 && len(terms) > 0 {
		stats.TopTerms = score.TopTerms(terms, topTerms)
	}
	return stats
}
