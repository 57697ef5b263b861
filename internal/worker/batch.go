package worker

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ppiankov/inclusify/internal/logging"
	"github.com/ppiankov/inclusify/internal/model"
)

// Analyzer produces a report for one batch input (a file path or URL)
type Analyzer interface {
	AnalyzeInput(ctx context.Context, input string) (*model.Report, error)
}

// AnalyzeJob analyzes one input
type AnalyzeJob struct {
	Index    int
	Input    string
	Analyzer Analyzer
	Limiter  *Limiter
}

// Execute waits for the host's rate limit, then runs the analysis
func (j *AnalyzeJob) Execute(ctx context.Context) Result {
	res := &JobResult{Index: j.Index, Input: j.Input}

	if j.Limiter != nil {
		if err := j.Limiter.Wait(ctx, j.Input); err != nil {
			res.Error = fmt.Errorf("rate limit: %w", err)
			return res
		}
	}

	res.Report, res.Error = j.Analyzer.AnalyzeInput(ctx, j.Input)
	return res
}

// JobResult is the outcome of one AnalyzeJob
type JobResult struct {
	Index  int
	Input  string
	Report *model.Report
	Error  error
}

// GetError returns the error from the job
func (r *JobResult) GetError() error {
	return r.Error
}

// BatchProcessor analyzes many inputs concurrently
type BatchProcessor struct {
	analyzer    Analyzer
	concurrency int
	limiter     *Limiter
	logger      logging.Logger
}

// NewBatchProcessor creates a batch processor. requestsPerSecond and burst
// bound fetches per host; a non-positive rate disables the limit.
func NewBatchProcessor(analyzer Analyzer, concurrency int, requestsPerSecond float64, burst int) *BatchProcessor {
	return &BatchProcessor{
		analyzer:    analyzer,
		concurrency: concurrency,
		limiter:     NewLimiter(requestsPerSecond, burst),
		logger:      logging.NewNopLogger(),
	}
}

// WithLogger sets the logger for per-input failures
func (b *BatchProcessor) WithLogger(l logging.Logger) *BatchProcessor {
	if l != nil {
		b.logger = l
	}
	return b
}

// Process analyzes inputs and returns one result per input, in input
// order. Inputs not started before ctx is cancelled carry ctx's error.
func (b *BatchProcessor) Process(ctx context.Context, inputs []string) []*JobResult {
	if len(inputs) == 0 {
		return []*JobResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	// Results are drained while submitting; the queues are bounded.
	collected := make(chan []Result, 1)
	go func() {
		var out []Result
		for r := range pool.Results() {
			out = append(out, r)
		}
		collected <- out
	}()

	for i, input := range inputs {
		job := &AnalyzeJob{
			Index:    i,
			Input:    input,
			Analyzer: b.analyzer,
			Limiter:  b.limiter,
		}
		if !pool.Submit(job) {
			break
		}
	}

	pool.Close()

	results := make([]*JobResult, len(inputs))
	for _, r := range <-collected {
		jr := r.(*JobResult)
		results[jr.Index] = jr
		if jr.Error != nil {
			b.logger.Warn("analysis failed", logging.String("input", jr.Input), logging.Err(jr.Error))
		}
	}

	for i, r := range results {
		if r == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			results[i] = &JobResult{Index: i, Input: inputs[i], Error: err}
		}
	}

	return results
}

// ProcessFile reads inputs from a list file and processes them
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*JobResult, error) {
	inputs, err := ReadInputsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read inputs: %w", err)
	}
	return b.Process(ctx, inputs), nil
}

// ReadInputsFromFile reads a list file (see ReadInputs)
func ReadInputsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return ReadInputs(file)
}

// ReadInputs reads one input per line, skipping blank lines and '#'
// comments and dropping duplicates
func ReadInputs(r io.Reader) ([]string, error) {
	var inputs []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			inputs = append(inputs, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan inputs: %w", err)
	}
	return inputs, nil
}

// Summarize totals the counts of all successful results
func Summarize(results []*JobResult) (model.Counts, int) {
	var counts model.Counts
	failed := 0
	for _, r := range results {
		if r.Error != nil || r.Report == nil {
			failed++
			continue
		}
		counts.Merge(r.Report.Analysis.Counts)
	}
	return counts, failed
}
