package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/inclusify/internal/history"
	"github.com/ppiankov/inclusify/internal/llm"
	"github.com/ppiankov/inclusify/internal/logging"
	"github.com/ppiankov/inclusify/internal/model"
	"github.com/ppiankov/inclusify/internal/pipeline"
)

var (
	inputText   string
	inputURL    string
	outJSON     string
	outMD       string
	segments    bool
	highlight   bool
	private     bool
	timeout     time.Duration
	noCache     bool
	noFooter    bool
	llmEnabled  bool
	llmProvider string
	llmModel    string
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [file|-]",
	Short: "Analyze text, a file or a URL for flagged terms",
	Long: `Analyze finds every occurrence of the rule table's terms and reports:
- each annotated span with its severity and suggestion
- one explanation card per flagged term
- occurrence counts per severity and the inclusivity index

Input is a file, "-" for stdin, --text or --url.

Example:
  inclusify analyze --text "Normal people only"
  inclusify analyze essay.md --highlight
  inclusify analyze --url https://example.com --json report.json --md report.md
  cat draft.txt | inclusify analyze - --json -`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Input flags
	analyzeCmd.Flags().StringVar(&inputText, "text", "", "text to analyze")
	analyzeCmd.Flags().StringVar(&inputURL, "url", "", "URL to fetch and analyze")

	// Output flags
	analyzeCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (\"-\" for stdout)")
	analyzeCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (\"-\" for stdout)")
	analyzeCmd.Flags().BoolVar(&segments, "segments", false, "include render segments in JSON output")
	analyzeCmd.Flags().BoolVar(&highlight, "highlight", false, "print the text with flagged terms highlighted")
	analyzeCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	// Behaviour flags
	analyzeCmd.Flags().BoolVar(&private, "private", true, "do not record this analysis in history")
	analyzeCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall analysis timeout")
	analyzeCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh fetch)")

	addLLMFlags(analyzeCmd)
}

func addLLMFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable LLM summary generation")
	cmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, ollama)")
	cmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name (provider default when empty)")
}

// applyFlags overlays command-line flags on the loaded configuration
func applyFlags(cmd *cobra.Command, cfg *model.Config) error {
	if noCache {
		cfg.Cache.Enabled = false
	}
	if noFooter {
		cfg.Output.IncludeFooter = false
	}
	if f := cmd.Flags().Lookup("segments"); f != nil && f.Changed {
		cfg.Output.IncludeSegments = segments
	}
	if f := cmd.Flags().Lookup("private"); f != nil && f.Changed {
		cfg.History.Private = private
	}

	if !llmEnabled {
		return nil
	}
	cfg.LLM.Provider = llmProvider
	if llmModel != "" {
		cfg.LLM.Model = llmModel
	}
	cfg.LLM.StrictCitation = true
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = llm.APIKeyFromEnv(llmProvider)
	}
	if llmProvider == "openai" && cfg.LLM.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY or INCLUSIFY_LLM_API_KEY environment variable not set")
	}
	if llmProvider == "ollama" && cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = os.Getenv("OLLAMA_BASE_URL")
	}
	return nil
}

// openHistory opens the history store unless the config is private.
// A nil store means nothing is recorded.
func openHistory(cfg *model.Config) (*history.Store, error) {
	if cfg.History.Private {
		return nil, nil
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	return store, nil
}

// newPipeline builds a pipeline plus its history store from cfg
func newPipeline(cfg *model.Config) (*pipeline.Pipeline, *history.Store, error) {
	store, err := openHistory(cfg)
	if err != nil {
		return nil, nil, err
	}
	p, err := pipeline.NewPipeline(cfg,
		pipeline.WithHistory(store),
		pipeline.WithLogger(logging.Default()))
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return p, store, nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if err := checkSingleInput(args); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	p, store, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	var report *model.Report
	switch {
	case inputText != "":
		report, err = p.AnalyzeText(ctx, inputText, model.Source{Kind: model.SourceText, Name: "text"})
	case inputURL != "":
		if cfg.Output.Verbose {
			fmt.Fprintf(os.Stderr, "⚙️  Fetching %s...\n", inputURL)
		}
		report, err = p.AnalyzeURL(ctx, inputURL)
	case args[0] == "-":
		report, err = p.AnalyzeReader(ctx, os.Stdin, "stdin")
	default:
		report, err = p.AnalyzeFile(ctx, args[0])
	}
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "✓ Analyzed %d words\n", report.WordCount)
		fmt.Fprintf(os.Stderr, "✓ Found %d flagged occurrences\n", report.Analysis.Counts.Total())
		fmt.Fprintf(os.Stderr, "✓ Calculated inclusivity index: %d/100\n", report.Score.Index)
		if report.LLM != nil && report.LLM.Enabled {
			fmt.Fprintf(os.Stderr, "✓ Generated LLM summary using %s/%s\n", report.LLM.Provider, report.LLM.Model)
		}
		if store != nil {
			fmt.Fprintf(os.Stderr, "✓ Recorded in history\n")
		}
		fmt.Fprintln(os.Stderr)
	}

	if highlight {
		if err := p.Renderer().Highlight(report); err != nil {
			return fmt.Errorf("highlight: %w", err)
		}
	}

	if err := p.RenderReport(report, outJSON, outMD, cfg.Output.Verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	return nil
}

// checkSingleInput requires exactly one of --text, --url or a file argument
func checkSingleInput(args []string) error {
	n := len(args)
	if inputText != "" {
		n++
	}
	if inputURL != "" {
		n++
	}
	switch {
	case n == 0:
		return errors.New("nothing to analyze: pass a file, \"-\", --text or --url")
	case n > 1:
		return errors.New("pass only one of a file, \"-\", --text or --url")
	}
	return nil
}
