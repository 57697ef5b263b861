package annotate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/inclusify/internal/match"
	"github.com/ppiankov/inclusify/internal/model"
)

var (
	outdated = model.TermRule{
		Term:        "homosexual",
		Severity:    model.SeverityOutdated,
		Explanation: "clinical",
		Suggestion:  "gay",
		References:  []model.Reference{{Label: "APA", URL: "https://apa.example"}},
	}
	incorrect = model.TermRule{
		Term:        "sexual preference",
		Severity:    model.SeverityIncorrect,
		Explanation: "not a preference",
	}
)

func TestAggregate_Empty(t *testing.T) {
	got := Aggregate(nil)

	assert.NotNil(t, got.Annotations)
	assert.NotNil(t, got.Results)
	assert.Empty(t, got.Annotations)
	assert.Empty(t, got.Results)
	assert.Equal(t, model.Counts{}, got.Counts)
}

func TestAggregate_OneAnnotationPerOccurrence(t *testing.T) {
	occs := []match.Occurrence{
		{Start: 0, End: 10, Rule: outdated},
		{Start: 20, End: 30, Rule: outdated},
		{Start: 40, End: 57, Rule: incorrect},
	}
	got := Aggregate(occs)

	require.Len(t, got.Annotations, 3)
	a := got.Annotations[0]
	assert.Equal(t, 0, a.Start)
	assert.Equal(t, 10, a.End)
	assert.Equal(t, "homosexual", a.Label)
	assert.Equal(t, model.SeverityOutdated, a.Severity)
	assert.Equal(t, "gay", a.Suggestion)
	assert.Equal(t, "clinical", a.Explanation)
	assert.Equal(t, outdated.References, a.References)
}

func TestAggregate_ResultsAreDeduplicatedInFirstOccurrenceOrder(t *testing.T) {
	shouting := outdated
	shouting.Term = "HOMOSEXUAL"

	occs := []match.Occurrence{
		{Start: 40, End: 57, Rule: incorrect},
		{Start: 0, End: 10, Rule: outdated},
		{Start: 20, End: 30, Rule: shouting},
		{Start: 60, End: 77, Rule: incorrect},
	}
	got := Aggregate(occs)

	require.Len(t, got.Results, 2)
	assert.Equal(t, "sexual preference", got.Results[0].Phrase)
	assert.Equal(t, "homosexual", got.Results[1].Phrase)
	assert.Equal(t, "clinical", got.Results[1].Explanation)
}

func TestAggregate_CountsEveryOccurrence(t *testing.T) {
	occs := []match.Occurrence{
		{Start: 0, End: 10, Rule: outdated},
		{Start: 20, End: 30, Rule: outdated},
		{Start: 40, End: 57, Rule: incorrect},
	}
	got := Aggregate(occs)

	assert.Equal(t, model.Counts{Outdated: 2, Incorrect: 1}, got.Counts)
	assert.Equal(t, len(occs), got.Counts.Total())
}

func TestAggregate_IsDeterministic(t *testing.T) {
	occs := match.Scan("homosexual sexual preference Homosexual", []model.TermRule{outdated, incorrect})
	assert.Equal(t, Aggregate(occs), Aggregate(occs))
}

func TestAggregate_PanicsOnInvalidSpan(t *testing.T) {
	assert.Panics(t, func() {
		Aggregate([]match.Occurrence{{Start: 5, End: 5, Rule: outdated}})
	})
	assert.Panics(t, func() {
		Aggregate([]match.Occurrence{{Start: -1, End: 2, Rule: outdated}})
	})
}
