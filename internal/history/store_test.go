package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/inclusify/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func report(id string, index int, anns ...model.Annotation) *model.Report {
	analysis := model.Empty()
	analysis.Annotations = anns
	for _, a := range anns {
		analysis.Counts.Add(a.Severity, 1)
	}
	return &model.Report{
		ID:         id,
		Source:     model.Source{Kind: model.SourceText, Name: "inline"},
		AnalyzedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		WordCount:  40,
		Analysis:   analysis,
		Score:      model.Score{Index: index},
	}
}

func ann(label string, sev model.Severity, suggestion string) model.Annotation {
	return model.Annotation{Start: 0, End: len(label), Label: label, Severity: sev, Suggestion: suggestion}
}

func TestRecordAndList(t *testing.T) {
	store := newTestStore(t)

	first, err := store.Record(report("r1", 90, ann("homosexual", model.SeverityOutdated, "gay")))
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, "r1", first.ReportID)
	assert.Equal(t, 1, first.Issues())
	require.Len(t, first.Terms, 1)
	assert.Equal(t, "homosexual", first.Terms[0].Term)

	_, err = store.Record(report("r2", 100))
	require.NoError(t, err)

	entries, err := store.List(0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "r2", entries[0].ReportID, "newest first")
	assert.Equal(t, "r1", entries[1].ReportID)

	limited, err := store.List(1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "r2", limited[0].ReportID)

	n, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRecordNilReport(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Record(nil)
	assert.Error(t, err)
}

func TestRecordFillsTimestamp(t *testing.T) {
	store := newTestStore(t)
	r := report("r1", 100)
	r.AnalyzedAt = time.Time{}

	entry, err := store.Record(r)
	require.NoError(t, err)
	assert.False(t, entry.AnalyzedAt.IsZero())
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	store, err := Open(path)
	require.NoError(t, err)
	_, err = store.Record(report("r1", 80, ann("normal people", model.SeverityBiased, "")))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	entries, err := reopened.List(0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].Counts.Biased)
}

func TestClear(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Record(report("r1", 100))
	require.NoError(t, err)

	require.NoError(t, store.Clear())

	n, err := store.Count()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNilStoreIsDisabled(t *testing.T) {
	var store *Store

	_, err := store.Record(report("r1", 100))
	assert.ErrorIs(t, err, ErrDisabled)

	_, err = store.List(0)
	assert.ErrorIs(t, err, ErrDisabled)

	_, err = store.Stats(5)
	assert.ErrorIs(t, err, ErrDisabled)

	_, err = store.Count()
	assert.ErrorIs(t, err, ErrDisabled)

	assert.ErrorIs(t, store.Clear(), ErrDisabled)
	assert.NoError(t, store.Close())
}

func TestStoreStats(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Record(report("r1", 80,
		ann("homosexual", model.SeverityOutdated, "gay"),
		ann("sexual preference", model.SeverityIncorrect, "sexual orientation"),
	))
	require.NoError(t, err)
	_, err = store.Record(report("r2", 90,
		ann("Homosexual", model.SeverityOutdated, "gay"),
		ann("homosexual", model.SeverityOutdated, "gay"),
	))
	require.NoError(t, err)

	stats, err := store.Stats(5)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalAnalyses)
	assert.Equal(t, 4, stats.IssuesFound)
	assert.Equal(t, model.Counts{Outdated: 3, Incorrect: 1}, stats.Counts)
	assert.InDelta(t, 0.75, stats.Breakdown[model.SeverityOutdated], 1e-9)
	assert.InDelta(t, 0.25, stats.Breakdown[model.SeverityIncorrect], 1e-9)
	assert.InDelta(t, 0.0, stats.Breakdown[model.SeverityBiased], 1e-9)
	assert.InDelta(t, 85.0, stats.AverageScore, 1e-9)

	require.Len(t, stats.TopTerms, 2)
	assert.Equal(t, "homosexual", stats.TopTerms[0].Term)
	assert.Equal(t, 3, stats.TopTerms[0].Count)
	assert.Equal(t, "gay", stats.TopTerms[0].Suggestion)
	assert.Equal(t, "sexual preference", stats.TopTerms[1].Term)
}

func TestAggregateEmpty(t *testing.T) {
	stats := Aggregate(nil, 5)

	assert.Zero(t, stats.TotalAnalyses)
	assert.Zero(t, stats.IssuesFound)
	assert.Zero(t, stats.AverageScore)
	assert.NotNil(t, stats.TopTerms)
	assert.Empty(t, stats.TopTerms)
	assert.Len(t, stats.Breakdown, 4)
}

func TestAggregateTopTermsLimit(t *testing.T) {
	entries := []Entry{
		{Score: 70, Terms: []model.TermCount{{Term: "a", Count: 1}, {Term: "b", Count: 3}, {Term: "c", Count: 2}}},
		{Score: 71},
	}

	stats := Aggregate(entries, 2)
	require.Len(t, stats.TopTerms, 2)
	assert.Equal(t, "b", stats.TopTerms[0].Term)
	assert.Equal(t, "c", stats.TopTerms[1].Term)
	assert.InDelta(t, 70.5, stats.AverageScore, 1e-9)
}

func TestAggregateLabelIgnoresEntryOrder(t *testing.T) {
	older := Entry{Terms: []model.TermCount{{Term: "homosexual", Severity: model.SeverityOutdated, Count: 1}}}
	newer := Entry{Terms: []model.TermCount{{Term: "Homosexual", Severity: model.SeverityOutdated, Count: 2}}}

	for _, entries := range [][]Entry{{older, newer}, {newer, older}} {
		stats := Aggregate(entries, 5)
		require.Len(t, stats.TopTerms, 1)
		assert.Equal(t, "homosexual", stats.TopTerms[0].Term)
		assert.Equal(t, 3, stats.TopTerms[0].Count)
	}
}
