package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/ppiankov/inclusify/internal/cache"
	"github.com/ppiankov/inclusify/internal/engine"
	"github.com/ppiankov/inclusify/internal/extract"
	"github.com/ppiankov/inclusify/internal/history"
	"github.com/ppiankov/inclusify/internal/llm"
	"github.com/ppiankov/inclusify/internal/logging"
	"github.com/ppiankov/inclusify/internal/model"
	"github.com/ppiankov/inclusify/internal/rules"
	"github.com/ppiankov/inclusify/internal/score"
	"github.com/ppiankov/inclusify/internal/util"
	"github.com/ppiankov/inclusify/internal/worker"
)

// ErrTooLarge is returned for inputs above the configured size limit
var ErrTooLarge = errors.New("input too large")

// Pipeline orchestrates source → extract → engine → score → summary
type Pipeline struct {
	engine     *engine.Engine
	registry   *extract.Registry
	fetcher    *Fetcher
	scorer     *score.Scorer
	renderer   *Renderer
	summarizer *llm.Summarizer // nil when the LLM is disabled
	history    *history.Store  // nil in private mode
	cache      cache.Cache
	logger     logging.Logger
	config     *model.Config
	now        func() time.Time
}

// Option customizes a Pipeline
type Option func(*Pipeline)

// WithHistory records every report in store
func WithHistory(store *history.Store) Option {
	return func(p *Pipeline) { p.history = store }
}

// WithSummarizer overrides the summarizer built from the LLM config
func WithSummarizer(s *llm.Summarizer) Option {
	return func(p *Pipeline) { p.summarizer = s }
}

// WithCache overrides the cache built from the cache config
func WithCache(c cache.Cache) Option {
	return func(p *Pipeline) { p.cache = c }
}

// WithLogger sets the logger
func WithLogger(l logging.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithEngine overrides the engine built from the rules config
func WithEngine(e *engine.Engine) Option {
	return func(p *Pipeline) { p.engine = e }
}

// WithClock sets the time source for report timestamps
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(cfg *model.Config, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}

	p := &Pipeline{
		registry: extract.NewRegistry(),
		scorer:   score.NewScorer(),
		renderer: NewRenderer(cfg.Output.IncludeFooter).
			WithSegments(cfg.Output.IncludeSegments).
			WithColor(cfg.Output.Color),
		logger: logging.Default(),
		config: cfg,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.engine == nil {
		table := rules.Default()
		if cfg.Rules.Path != "" {
			t, err := rules.Load(cfg.Rules.Path)
			if err != nil {
				return nil, fmt.Errorf("load rules: %w", err)
			}
			table = t
		}
		p.engine = engine.New(table)
	}

	if p.cache == nil {
		if cfg.Cache.Enabled {
			p.cache = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
		} else {
			p.cache = cache.Nop{}
		}
	}

	if p.summarizer == nil && cfg.LLM.Provider != "" {
		s, err := llm.NewSummarizer(llm.ConfigFromModel(cfg.LLM, cfg.HTTP))
		if err != nil {
			p.logger.Warn("LLM provider unavailable", logging.String("provider", cfg.LLM.Provider), logging.Err(err))
		} else {
			p.summarizer = s
		}
	}

	p.fetcher = NewFetcher(cfg.HTTP.Timeout, cfg.HTTP.UserAgent, cfg.HTTP.MaxBodyBytes,
		cfg.HTTP.InsecureTLS, cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy).
		WithCache(p.cache, cfg.Cache.DiskTTL).
		WithLogger(p.logger)
	if cfg.HTTP.RespectRobots {
		p.fetcher.WithRobots(util.NewRobotsChecker(p.fetcher.Client(), cfg.HTTP.UserAgent))
	}

	return p, nil
}

// Engine returns the analysis engine
func (p *Pipeline) Engine() *engine.Engine {
	return p.engine
}

// Renderer returns the report renderer
func (p *Pipeline) Renderer() *Renderer {
	return p.renderer
}

// Analysis runs the engine on text, consulting the analysis cache
func (p *Pipeline) Analysis(text string) model.Analysis {
	key := cache.AnalysisKey(p.engine.Table().Fingerprint(), text)

	var analysis model.Analysis
	if cache.GetJSON(p.cache, key, &analysis) {
		return analysis
	}

	analysis = p.engine.Analyze(text)
	if err := cache.SetJSON(p.cache, key, analysis, p.config.Cache.MemoryTTL); err != nil {
		p.logger.Warn("analysis cache write failed", logging.Err(err))
	}
	return analysis
}

// AnalyzeText analyzes already extracted text
func (p *Pipeline) AnalyzeText(ctx context.Context, text string, source model.Source) (*model.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if source.Kind == "" {
		source.Kind = model.SourceText
	}

	analysis := p.Analysis(text)
	words := extract.WordCount(text)

	report := &model.Report{
		ID:         uuid.NewString(),
		Source:     source,
		AnalyzedAt: p.now().UTC(),
		TextLength: utf8.RuneCountInString(text),
		WordCount:  words,
		Analysis:   analysis,
		Segments:   p.engine.Segments(text, analysis),
		Score:      p.scorer.Calculate(analysis, words),
	}

	// The summary runs after scoring and never changes it
	if p.summarizer.IsEnabled() {
		summary, err := p.summarizer.GenerateSummary(ctx, *report)
		if err != nil {
			p.logger.Warn("LLM summary failed", logging.Err(err))
		} else {
			report.LLM = summary
		}
	}

	if p.history != nil {
		if _, err := p.history.Record(report); err != nil {
			p.logger.Warn("history write failed", logging.Err(err))
		}
	}

	p.logger.Debug("analyzed",
		logging.String("source", source.Name),
		logging.Int("words", words),
		logging.Int("occurrences", analysis.Counts.Total()),
		logging.Int("index", report.Score.Index))
	return report, nil
}

// AnalyzeDocument extracts text from data and analyzes it
func (p *Pipeline) AnalyzeDocument(ctx context.Context, data []byte, contentType string, source model.Source) (*model.Report, error) {
	doc, err := p.registry.Extract(data, source.Name, contentType)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	if source.ContentType == "" {
		source.ContentType = string(doc.Format)
	}
	if doc.Title != "" && source.Kind == model.SourceURL {
		source.Name = doc.Title
	}
	return p.AnalyzeText(ctx, doc.Text, source)
}

// AnalyzeReader reads up to the size limit from r and analyzes it
func (p *Pipeline) AnalyzeReader(ctx context.Context, r io.Reader, name string) (*model.Report, error) {
	data, err := p.readLimited(r)
	if err != nil {
		return nil, err
	}
	return p.AnalyzeDocument(ctx, data, "", model.Source{Kind: model.SourceText, Name: name})
}

// AnalyzeFile analyzes a local file
func (p *Pipeline) AnalyzeFile(ctx context.Context, path string) (*model.Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }()

	data, err := p.readLimited(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return p.AnalyzeDocument(ctx, data, "", model.Source{
		Kind:     model.SourceFile,
		Name:     filepath.Base(path),
		Location: path,
	})
}

// AnalyzeURL fetches a web page and analyzes its visible text
func (p *Pipeline) AnalyzeURL(ctx context.Context, rawURL string) (*model.Report, error) {
	result, err := p.fetcher.Get(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}

	return p.AnalyzeDocument(ctx, result.Body, result.ContentType, model.Source{
		Kind:        model.SourceURL,
		Name:        result.Subject,
		Location:    result.FinalURL,
		ContentType: extract.MediaType(result.ContentType),
	})
}

// AnalyzeInput dispatches a batch input line: http(s) URLs are fetched,
// anything else is read as a file path
func (p *Pipeline) AnalyzeInput(ctx context.Context, input string) (*model.Report, error) {
	if worker.IsURL(input) {
		return p.AnalyzeURL(ctx, input)
	}
	return p.AnalyzeFile(ctx, input)
}

func (p *Pipeline) readLimited(r io.Reader) ([]byte, error) {
	limit := p.config.HTTP.MaxBodyBytes
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
	}
	return data, nil
}

// RenderReport renders the report to the specified outputs
func (p *Pipeline) RenderReport(report *model.Report, jsonPath string, mdPath string, verbose bool) error {
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose && jsonPath != "-" {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose && mdPath != "-" {
			fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", mdPath)
		}
	}

	// The LLM narrative goes to its own file next to the Markdown report
	if report.LLM != nil && report.LLM.Enabled && mdPath != "" && mdPath != "-" {
		llmPath := strings.TrimSuffix(mdPath, ".md") + ".llm.md"
		if err := p.renderer.RenderLLMMarkdown(llm.RenderSeparateMarkdown(report.LLM), llmPath); err != nil {
			p.logger.Warn("failed to write LLM summary", logging.String("path", llmPath), logging.Err(err))
		} else if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote LLM Summary: %s\n", llmPath)
		}
	}

	if jsonPath != "-" && mdPath != "-" {
		p.renderer.RenderSummary(report)
	}
	return nil
}
