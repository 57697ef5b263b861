package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ppiankov/inclusify/internal/model"
	"github.com/ppiankov/inclusify/internal/render"
)

// Renderer writes reports as JSON, Markdown and terminal output
type Renderer struct {
	includeFooter   bool
	includeSegments bool
	out             io.Writer
	terminal        *render.Terminal
}

// NewRenderer creates a renderer writing terminal output to stdout
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{
		includeFooter: includeFooter,
		out:           os.Stdout,
		terminal:      render.NewTerminal(nil, false),
	}
}

// WithSegments keeps segments in JSON output
func (r *Renderer) WithSegments(include bool) *Renderer {
	r.includeSegments = include
	return r
}

// WithOutput redirects terminal output (summary, highlight, "-" paths)
func (r *Renderer) WithOutput(w io.Writer) *Renderer {
	r.out = w
	return r
}

// WithColor toggles lipgloss styling of terminal output
func (r *Renderer) WithColor(color bool) *Renderer {
	r.terminal = render.NewTerminal(nil, color)
	return r
}

// JSON encodes report, dropping segments unless enabled
func (r *Renderer) JSON(report *model.Report) ([]byte, error) {
	out := *report
	if !r.includeSegments {
		out.Segments = nil
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return append(data, '\n'), nil
}

// RenderJSON writes the JSON report to path ("-" for the renderer output)
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := r.JSON(report)
	if err != nil {
		return err
	}
	return r.write(path, data)
}

// RenderMarkdown writes the Markdown report to path ("-" for the renderer output)
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	return r.write(path, []byte(r.Markdown(report)))
}

// RenderLLMMarkdown writes a pre-rendered LLM summary to path
func (r *Renderer) RenderLLMMarkdown(markdown string, path string) error {
	return r.write(path, []byte(markdown))
}

func (r *Renderer) write(path string, data []byte) error {
	if path == "-" {
		_, err := r.out.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Markdown renders the report
func (r *Renderer) Markdown(report *model.Report) string {
	var b strings.Builder

	name := report.Source.Name
	if name == "" {
		name = string(report.Source.Kind)
	}
	fmt.Fprintf(&b, "# Inclusify Report: %s\n\n", render.EscapeMarkdown(name))

	fmt.Fprintf(&b, "- **Source:** %s", report.Source.Kind)
	if report.Source.Location != "" {
		fmt.Fprintf(&b, " `%s`", report.Source.Location)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "- **Analyzed:** %s\n", report.AnalyzedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "- **Length:** %d words, %d characters\n", report.WordCount, report.TextLength)
	fmt.Fprintf(&b, "- **Inclusivity Index:** %d/100\n\n", report.Score.Index)

	b.WriteString("## Findings\n\n")
	b.WriteString("| Severity | Count | Share |\n")
	b.WriteString("|---|---:|---:|\n")
	for _, sev := range model.Severities() {
		fmt.Fprintf(&b, "| %s | %d | %.0f%% |\n", sev, report.Analysis.Counts.Get(sev), report.Score.Breakdown[sev]*100)
	}
	fmt.Fprintf(&b, "| **total** | **%d** | |\n\n", report.Analysis.Counts.Total())

	if len(report.Analysis.Results) == 0 {
		b.WriteString("No flagged terms.\n\n")
	} else {
		b.WriteString("## Flagged Terms\n\n")
		for _, res := range report.Analysis.Results {
			fmt.Fprintf(&b, "### %s (*%s*)\n\n", render.EscapeMarkdown(res.Phrase), res.Severity)
			if res.Explanation != "" {
				fmt.Fprintf(&b, "%s\n\n", render.EscapeMarkdown(res.Explanation))
			}
			if res.Suggestion != "" {
				fmt.Fprintf(&b, "**Suggestion:** %s\n\n", render.EscapeMarkdown(res.Suggestion))
			}
			for _, ref := range res.References {
				fmt.Fprintf(&b, "- [%s](%s)\n", render.EscapeMarkdown(ref.Label), ref.URL)
			}
			if len(res.References) > 0 {
				b.WriteString("\n")
			}
		}
	}

	if len(report.Score.Signals) > 0 {
		b.WriteString("## Signals\n\n")
		for _, sig := range report.Score.Signals {
			fmt.Fprintf(&b, "- **%s** (%s): %s\n", sig.Severity, sig.Level, sig.Description)
		}
		b.WriteString("\n")
	}

	if len(report.Segments) > 0 {
		b.WriteString("## Annotated Text\n\n")
		b.WriteString(render.Markdown(render.NewHighlighter(report.Segments, nil)))
		b.WriteString("\n")
	}

	if r.includeFooter {
		b.WriteString("---\n\n")
		b.WriteString("_Generated by Inclusify. Findings come from a fixed rule table and flag wording, not intent._\n")
	}
	return b.String()
}

// Highlight writes the annotated text with its legend. It needs the
// report's segments.
func (r *Renderer) Highlight(report *model.Report) error {
	if len(report.Segments) == 0 {
		return nil
	}
	return r.terminal.Render(r.out, render.NewHighlighter(report.Segments, nil))
}

// RenderSummary prints a short summary of report
func (r *Renderer) RenderSummary(report *model.Report) {
	name := report.Source.Name
	if name == "" {
		name = string(report.Source.Kind)
	}

	fmt.Fprintf(r.out, "\n%s\n", name)
	fmt.Fprintf(r.out, "  Inclusivity index: %d/100 (%.2f flagged per 100 words)\n", report.Score.Index, report.Score.Density)
	fmt.Fprintf(r.out, "  %s\n", r.terminal.Summary(report.Analysis.Counts))

	if len(report.Score.TopTerms) > 0 {
		terms := make([]string, 0, len(report.Score.TopTerms))
		for _, t := range report.Score.TopTerms {
			terms = append(terms, fmt.Sprintf("%s x%d", t.Term, t.Count))
		}
		fmt.Fprintf(r.out, "  Top terms: %s\n", strings.Join(terms, ", "))
	}
	fmt.Fprintln(r.out)
}

// RenderCounts prints aggregate counts of a batch, most flagged severity first
func (r *Renderer) RenderCounts(counts model.Counts) {
	sevs := model.Severities()
	sort.SliceStable(sevs, func(i, j int) bool {
		return counts.Get(sevs[i]) > counts.Get(sevs[j])
	})
	for _, sev := range sevs {
		fmt.Fprintf(r.out, "  %-10s %d\n", sev, counts.Get(sev))
	}
}
