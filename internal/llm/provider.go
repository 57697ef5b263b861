package llm

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ppiankov/inclusify/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Summarize generates a narrative for the report under the citation allowlist
	Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// SummarizeRequest contains the input for LLM summarization
type SummarizeRequest struct {
	// Report is the analysis report to summarize
	Report model.Report

	// ReferenceURLs is the allowlist of URLs the LLM may cite
	ReferenceURLs []string

	// Prompt is an optional custom prompt (if empty, use default)
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// SummarizeResponse contains the LLM's summary output
type SummarizeResponse struct {
	// Summary is the generated summary text
	Summary string

	// CitedURLs are the URLs the LLM actually cited
	CitedURLs []string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI-compatible endpoints
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// StrictCitation rejects summaries citing URLs outside the allowlist
	StrictCitation bool

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Timeout:        30,
		StrictCitation: true,
		MaxTokens:      600,
	}
}

const systemPrompt = "You summarize inclusive-language reports. You describe the findings you are given and never add findings of your own."

// maxPromptURLs caps the allowlist rendered into the prompt
const maxPromptURLs = 20

// BuildPrompt constructs the default summarization prompt
func BuildPrompt(report model.Report, referenceURLs []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `You are summarizing an Inclusify report. Inclusify flags terms from a fixed rule table; it does not judge the author.

RULES:
1. You may ONLY cite URLs from this allowed list:
%s

2. Do not cite any other source.
3. Do not add, remove or re-rank findings. The counts below are final.
4. Describe wording, not people. Prefer "the text uses X; Y is preferred" over judgments.

Report Summary:
- Source: %s
- Words: %d
- Inclusivity Index: %d/100
- Findings: %d outdated, %d biased, %d offensive, %d incorrect

Most frequent terms:
`, joinURLs(referenceURLs), report.Source.Name, report.WordCount, report.Score.Index,
		report.Analysis.Counts.Outdated, report.Analysis.Counts.Biased,
		report.Analysis.Counts.Offensive, report.Analysis.Counts.Incorrect)

	if len(report.Score.TopTerms) == 0 {
		b.WriteString("- (none)\n")
	}
	for _, term := range report.Score.TopTerms {
		if term.Suggestion != "" {
			fmt.Fprintf(&b, "- %q (%s) x%d, suggested: %q\n", term.Term, term.Severity, term.Count, term.Suggestion)
		} else {
			fmt.Fprintf(&b, "- %q (%s) x%d\n", term.Term, term.Severity, term.Count)
		}
	}

	b.WriteString("\nProvide a 3-4 sentence summary of the wording issues and the suggested alternatives.")
	return b.String()
}

// ReferenceURLs collects the distinct reference URLs attached to the
// report's results, in result order
func ReferenceURLs(report model.Report) []string {
	seen := make(map[string]bool)
	var urls []string
	for _, result := range report.Analysis.Results {
		for _, ref := range result.References {
			if ref.URL == "" || seen[ref.URL] {
				continue
			}
			seen[ref.URL] = true
			urls = append(urls, ref.URL)
		}
	}
	return urls
}

func joinURLs(urls []string) string {
	if len(urls) == 0 {
		return "(No reference URLs available)"
	}
	var b strings.Builder
	for i, url := range urls {
		if i >= maxPromptURLs {
			fmt.Fprintf(&b, "\n... and %d more URLs", len(urls)-maxPromptURLs)
			break
		}
		fmt.Fprintf(&b, "\n- %s", url)
	}
	return b.String()
}

var urlPattern = regexp.MustCompile(`https?://[^\s\)\]>"']+`)

// extractURLs returns the distinct http(s) URLs cited in text
func extractURLs(text string) []string {
	seen := make(map[string]bool)
	var unique []string
	for _, url := range urlPattern.FindAllString(text, -1) {
		url = strings.TrimRight(url, ".,;:!?")
		if !seen[url] {
			seen[url] = true
			unique = append(unique, url)
		}
	}
	return unique
}

// checkCitations returns an error for the first cited URL outside allowed
func checkCitations(cited, allowed []string) error {
	for _, url := range cited {
		if !contains(allowed, url) {
			return fmt.Errorf("citation leak: LLM cited disallowed URL: %s", url)
		}
	}
	return nil
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
