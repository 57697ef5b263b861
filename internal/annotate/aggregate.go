// Package annotate turns raw occurrences into annotations, a deduplicated
// result list and per-severity counts.
package annotate

import (
	"github.com/ppiankov/inclusify/internal/match"
	"github.com/ppiankov/inclusify/internal/model"
)

// Aggregate builds one annotation per occurrence, one result per distinct
// case-insensitive term (in first-occurrence order) and counts every
// occurrence under its rule's severity.
func Aggregate(occurrences []match.Occurrence) model.Analysis {
	out := model.Analysis{
		Annotations: make([]model.Annotation, 0, len(occurrences)),
		Results:     []model.Result{},
	}

	seen := make(map[string]bool)
	for _, occ := range occurrences {
		out.Annotations = append(out.Annotations, model.NewAnnotation(occ.Start, occ.End, occ.Rule))

		key := occ.Rule.Key()
		if !seen[key] {
			seen[key] = true
			out.Results = append(out.Results, model.ResultFromRule(occ.Rule))
		}

		out.Counts.Add(occ.Rule.Severity, 1)
	}

	return out
}
