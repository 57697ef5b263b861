package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/inclusify/internal/model"
)

// Summarizer attaches an optional LLM narrative to reports. It never
// changes annotations, counts or the score.
type Summarizer struct {
	provider Provider
	config   Config
}

// NewSummarizer builds a summarizer for config. An empty provider yields a
// disabled summarizer.
func NewSummarizer(config Config) (*Summarizer, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}
	return &Summarizer{provider: provider, config: config}, nil
}

// NewSummarizerWithProvider wraps an already constructed provider
func NewSummarizerWithProvider(provider Provider, config Config) *Summarizer {
	return &Summarizer{provider: provider, config: config}
}

// IsEnabled reports whether a provider is configured
func (s *Summarizer) IsEnabled() bool {
	return s != nil && s.provider != nil
}

// ProviderName returns the configured provider name, or "" when disabled
func (s *Summarizer) ProviderName() string {
	if !s.IsEnabled() {
		return ""
	}
	return s.provider.Name()
}

// GenerateSummary asks the provider for a narrative of report. Provider
// failures degrade into warnings on the returned summary; the error
// return is reserved for callers that need to abort. A disabled
// summarizer returns (nil, nil).
func (s *Summarizer) GenerateSummary(ctx context.Context, report model.Report) (*model.LLMSummary, error) {
	if !s.IsEnabled() {
		return nil, nil
	}

	summary := &model.LLMSummary{
		Provider:       s.provider.Name(),
		Model:          s.config.Model,
		StrictCitation: s.config.StrictCitation,
	}

	if !s.provider.IsAvailable(ctx) {
		summary.Warnings = append(summary.Warnings,
			fmt.Sprintf("LLM provider %s is not available; summary skipped", summary.Provider))
		return summary, nil
	}
	summary.Enabled = true

	refs := ReferenceURLs(report)
	resp, err := s.provider.Summarize(ctx, SummarizeRequest{
		Report:        report,
		ReferenceURLs: refs,
		Model:         s.config.Model,
		MaxTokens:     s.config.MaxTokens,
	})
	if err != nil {
		summary.Warnings = append(summary.Warnings, fmt.Sprintf("LLM summary failed: %v", err))
		return summary, nil
	}

	summary.SummaryMD = resp.Summary
	if resp.Model != "" {
		summary.Model = resp.Model
	}
	if resp.TokensUsed > 0 {
		summary.Warnings = append(summary.Warnings, fmt.Sprintf("Tokens used: %d", resp.TokensUsed))
	}
	if s.config.StrictCitation {
		summary.Warnings = append(summary.Warnings,
			fmt.Sprintf("Verified %d citations against %d reference URLs", len(resp.CitedURLs), len(refs)))
	}
	return summary, nil
}

// RenderSeparateMarkdown renders summary as a standalone markdown document,
// kept apart from the deterministic report
func RenderSeparateMarkdown(summary *model.LLMSummary) string {
	if summary == nil || !summary.Enabled {
		return ""
	}

	var b strings.Builder
	b.WriteString("# LLM Summary\n\n")
	b.WriteString("> **GENERATED CONTENT.** This narrative was written by a language model from the report below. ")
	b.WriteString("Annotations, counts and the inclusivity index were determined independently by the rule table.\n\n")

	fmt.Fprintf(&b, "- **Provider:** %s\n", summary.Provider)
	if summary.Model != "" {
		fmt.Fprintf(&b, "- **Model:** %s\n", summary.Model)
	}
	fmt.Fprintf(&b, "- **Strict Citation Mode:** %t\n\n", summary.StrictCitation)

	b.WriteString("## Summary\n\n")
	if summary.SummaryMD == "" {
		b.WriteString("_No summary generated._\n")
	} else {
		b.WriteString(summary.SummaryMD)
		b.WriteString("\n")
	}

	if len(summary.Warnings) > 0 {
		b.WriteString("\n## Notes\n\n")
		for _, w := range summary.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}
	return b.String()
}
