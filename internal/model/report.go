package model

import "time"

// Report is the complete output of analyzing one source
type Report struct {
	ID         string    `json:"id"`          // Report identifier (UUID)
	Source     Source    `json:"source"`      // Where the text came from
	AnalyzedAt time.Time `json:"analyzed_at"` // When the analysis ran
	TextLength int       `json:"text_length"` // Characters (runes) in the analyzed text
	WordCount  int       `json:"word_count"`  // Whitespace-separated words

	Analysis Analysis  `json:"analysis"`           // Annotations, results, counts
	Segments []Segment `json:"segments,omitempty"` // Render-ready partition (optional)

	Score Score `json:"score"` // Inclusivity index and breakdown

	LLM *LLMSummary `json:"llm,omitempty"` // Optional LLM narrative (never affects counts or score)
}

// Source describes the origin of analyzed text
type Source struct {
	Kind        SourceKind `json:"kind"`                   // text, file, url
	Name        string     `json:"name"`                   // Display name (file base name, URL subject)
	Location    string     `json:"location,omitempty"`     // Path or final URL
	ContentType string     `json:"content_type,omitempty"` // Detected or reported content type
}

// SourceKind classifies the origin of analyzed text
type SourceKind string

const (
	SourceText SourceKind = "text" // Inline text or stdin
	SourceFile SourceKind = "file" // Local file
	SourceURL  SourceKind = "url"  // Fetched web page
)

// Score represents the transparent scoring breakdown
type Score struct {
	Index     int                  `json:"index"`     // Inclusivity index (0-100, higher is better)
	Density   float64              `json:"density"`   // Occurrences per 100 words
	Signals   []Signal             `json:"signals"`   // One signal per severity with findings
	Breakdown map[Severity]float64 `json:"breakdown"` // Share of occurrences per severity (0-1)
	TopTerms  []TermCount          `json:"top_terms"` // Most frequent flagged terms
}

// Signal is a diagnostic entry with transparent scoring data
type Signal struct {
	Severity    Severity               `json:"severity"`
	Level       SignalLevel            `json:"level"`
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// SignalLevel indicates how much attention a signal needs
type SignalLevel string

const (
	LevelInfo     SignalLevel = "info"
	LevelWarning  SignalLevel = "warning"
	LevelCritical SignalLevel = "critical"
)

// TermCount is the number of occurrences of one flagged term
type TermCount struct {
	Term       string   `json:"term"`
	Severity   Severity `json:"severity"`
	Count      int      `json:"count"`
	Suggestion string   `json:"suggestion,omitempty"`
}

// LLMSummary contains an optional LLM-generated narrative
type LLMSummary struct {
	Enabled        bool     `json:"enabled"`
	Provider       string   `json:"provider,omitempty"`   // openai, ollama
	Model          string   `json:"model,omitempty"`      // Model name
	StrictCitation bool     `json:"strict_citation"`      // Whether the reference allowlist was enforced
	SummaryMD      string   `json:"summary_md,omitempty"` // Markdown summary
	Warnings       []string `json:"warnings,omitempty"`   // Issues (e.g. disallowed links)
}
