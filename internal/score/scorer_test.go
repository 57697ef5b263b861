package score

import (
	"testing"

	"github.com/ppiankov/inclusify/internal/model"
)

func annotation(label string, sev model.Severity) model.Annotation {
	return model.Annotation{Start: 0, End: len(label), Label: label, Severity: sev, Suggestion: "use " + label + "-free wording"}
}

func analysisOf(anns ...model.Annotation) model.Analysis {
	a := model.Empty()
	a.Annotations = anns
	for _, ann := range anns {
		a.Counts.Add(ann.Severity, 1)
	}
	return a
}

func TestScorer_Calculate_CleanText(t *testing.T) {
	result := NewScorer().Calculate(model.Empty(), 120)

	if result.Index != 100 {
		t.Errorf("Expected index 100 for clean text, got %d", result.Index)
	}
	if result.Density != 0 {
		t.Errorf("Expected density 0, got %f", result.Density)
	}
	if len(result.Signals) != 0 {
		t.Errorf("Expected no signals, got %d", len(result.Signals))
	}
	if len(result.Breakdown) != 4 {
		t.Errorf("Expected breakdown for all 4 severities, got %d", len(result.Breakdown))
	}
	if result.TopTerms == nil || len(result.TopTerms) != 0 {
		t.Errorf("Expected empty, non-nil top terms, got %v", result.TopTerms)
	}
}

func TestScorer_Calculate_Formula(t *testing.T) {
	a := analysisOf(
		annotation("homosexual", model.SeverityOutdated),
		annotation("sexual preference", model.SeverityIncorrect),
	)

	// 2 occurrences in 8 words = 25 per 100 words, 100 - 250 clamps to 0
	result := NewScorer().Calculate(a, 8)
	if result.Index != 0 {
		t.Errorf("Expected index 0, got %d", result.Index)
	}
	if result.Density != 25 {
		t.Errorf("Expected density 25, got %f", result.Density)
	}

	// 2 occurrences in 100 words = 2 per 100 words, 100 - 20 = 80
	result = NewScorer().Calculate(a, 100)
	if result.Index != 80 {
		t.Errorf("Expected index 80, got %d", result.Index)
	}
}

func TestScorer_Calculate_SignalsPerSeverity(t *testing.T) {
	a := analysisOf(
		annotation("homosexual", model.SeverityOutdated),
		annotation("homosexual", model.SeverityOutdated),
		annotation("born as a man", model.SeverityOffensive),
		annotation("normal people", model.SeverityBiased),
	)

	result := NewScorer().Calculate(a, 400)

	if len(result.Signals) != 3 {
		t.Fatalf("Expected 3 signals, got %d", len(result.Signals))
	}

	levels := map[model.Severity]model.SignalLevel{}
	for _, s := range result.Signals {
		levels[s.Severity] = s.Level
		if s.Data["formula"] == nil {
			t.Errorf("Expected formula in signal data for %s", s.Severity)
		}
	}
	if levels[model.SeverityOutdated] != model.LevelInfo {
		t.Errorf("Expected outdated to be info, got %s", levels[model.SeverityOutdated])
	}
	if levels[model.SeverityOffensive] != model.LevelCritical {
		t.Errorf("Expected offensive to be critical, got %s", levels[model.SeverityOffensive])
	}
	if levels[model.SeverityBiased] != model.LevelWarning {
		t.Errorf("Expected biased to be warning, got %s", levels[model.SeverityBiased])
	}

	if result.Breakdown[model.SeverityOutdated] != 0.5 {
		t.Errorf("Expected outdated share 0.5, got %f", result.Breakdown[model.SeverityOutdated])
	}
	if result.Breakdown[model.SeverityIncorrect] != 0 {
		t.Errorf("Expected incorrect share 0, got %f", result.Breakdown[model.SeverityIncorrect])
	}
}

func TestScorer_Calculate_TopTerms(t *testing.T) {
	a := analysisOf(
		annotation("normal people", model.SeverityBiased),
		annotation("homosexual", model.SeverityOutdated),
		annotation("Homosexual", model.SeverityOutdated),
		annotation("transsexual", model.SeverityOutdated),
	)

	result := NewScorer().WithTopTerms(2).Calculate(a, 50)

	if len(result.TopTerms) != 2 {
		t.Fatalf("Expected 2 top terms, got %d", len(result.TopTerms))
	}
	if result.TopTerms[0].Term != "homosexual" || result.TopTerms[0].Count != 2 {
		t.Errorf("Expected homosexual x2 first, got %+v", result.TopTerms[0])
	}
	if result.TopTerms[1].Term != "normal people" {
		t.Errorf("Expected ties to keep first-occurrence order, got %+v", result.TopTerms[1])
	}
	if result.TopTerms[0].Suggestion == "" {
		t.Error("Expected suggestion to be carried")
	}
}

func TestScorer_Calculate_ZeroWords(t *testing.T) {
	a := analysisOf(annotation("homosexual", model.SeverityOutdated))

	result := NewScorer().Calculate(a, 0)
	if result.Density != 0 || result.Index != 100 {
		t.Errorf("Expected density 0 and index 100 with no words, got %f / %d", result.Density, result.Index)
	}
}

func TestIndex_Rounding(t *testing.T) {
	tests := []struct {
		density float64
		want    int
	}{
		{0, 100},
		{0.04, 100},
		{0.05, 99},
		{1.26, 87},
		{10, 0},
		{50, 0},
	}

	for _, tt := range tests {
		if got := Index(tt.density); got != tt.want {
			t.Errorf("Index(%v) = %d, want %d", tt.density, got, tt.want)
		}
	}
}

func TestCountTerms(t *testing.T) {
	annotations := []model.Annotation{
		{Label: "homosexual", Severity: model.SeverityOutdated, Suggestion: "gay"},
		{Label: "normal people", Severity: model.SeverityBiased},
		{Label: "Homosexual", Severity: model.SeverityOutdated, Suggestion: "gay"},
	}

	terms := CountTerms(annotations)
	if len(terms) != 2 {
		t.Fatalf("expected 2 terms, got %d", len(terms))
	}
	if terms[0].Term != "homosexual" || terms[0].Count != 2 || terms[0].Suggestion != "gay" {
		t.Errorf("unexpected first term: %+v", terms[0])
	}
	if terms[1].Term != "normal people" || terms[1].Count != 1 {
		t.Errorf("unexpected second term: %+v", terms[1])
	}

	if got := CountTerms(nil); got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}
