// Package validate checks that the reference links attached to rules are
// reachable.
package validate

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ppiankov/inclusify/internal/model"
)

const validateMaxRetries = 3

// validateSleepFunc is the sleep function used between retries (injectable for tests)
var validateSleepFunc = func(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Link is one distinct reference URL and the rule terms that cite it
type Link struct {
	URL   string   `json:"url"`
	Label string   `json:"label"`
	Terms []string `json:"terms"`
}

// LinkResult is the outcome of checking one Link
type LinkResult struct {
	Link
	StatusCode  int    `json:"status_code,omitempty"`
	Reachable   bool   `json:"reachable"`
	Dead        bool   `json:"dead"`
	RedirectURL string `json:"redirect_url,omitempty"`
	Tier        Tier   `json:"tier"`
	Error       string `json:"error,omitempty"`
}

// LinksFromRules collects the distinct reference URLs of rules, in rule
// order, with the terms citing each
func LinksFromRules(rules []model.TermRule) []Link {
	var links []Link
	index := make(map[string]int)
	for _, r := range rules {
		for _, ref := range r.References {
			i, ok := index[ref.URL]
			if !ok {
				i = len(links)
				index[ref.URL] = i
				links = append(links, Link{URL: ref.URL, Label: ref.Label})
			}
			links[i].Terms = append(links[i].Terms, r.Term)
		}
	}
	return links
}

// Validator checks links concurrently
type Validator struct {
	httpClient *http.Client
	maxWorkers int
	userAgent  string
	authority  *AuthorityClassifier
}

// NewValidator creates a validator. client's transport and timeout are
// used as given; redirects are capped at 3.
func NewValidator(client *http.Client, maxWorkers int, userAgent string) *Validator {
	if maxWorkers <= 0 {
		maxWorkers = 10
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	c := *client
	c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= 3 {
			return fmt.Errorf("stopped after 3 redirects")
		}
		return nil
	}

	return &Validator{
		httpClient: &c,
		maxWorkers: maxWorkers,
		userAgent:  userAgent,
		authority:  NewAuthorityClassifier(nil, nil),
	}
}

// Validate checks all links; results are in input order
func (v *Validator) Validate(ctx context.Context, links []Link) []LinkResult {
	results := make([]LinkResult, len(links))
	var wg sync.WaitGroup

	semaphore := make(chan struct{}, v.maxWorkers)

	for i, link := range links {
		wg.Add(1)
		go func(idx int, l Link) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				results[idx] = LinkResult{Link: l, Tier: v.authority.Classify(l.URL), Error: "context cancelled"}
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			results[idx] = v.checkWithRetry(ctx, l)
		}(i, link)
	}

	wg.Wait()
	return results
}

// check issues a HEAD request, falling back to GET for servers that
// reject HEAD
func (v *Validator) check(ctx context.Context, link Link) LinkResult {
	result := LinkResult{
		Link: link,
		Tier: v.authority.Classify(link.URL),
	}

	resp, err := v.do(ctx, http.MethodHead, link.URL)
	if err == nil && (resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusNotImplemented) {
		_ = resp.Body.Close()
		resp, err = v.do(ctx, http.MethodGet, link.URL)
	}
	if err != nil {
		result.Error = err.Error()
		result.Dead = !strings.Contains(strings.ToLower(err.Error()), "timeout")
		return result
	}
	defer func() { _ = resp.Body.Close() }()

	result.StatusCode = resp.StatusCode
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 400:
		result.Reachable = true
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		result.Dead = true
	}

	if final := resp.Request.URL.String(); final != link.URL {
		result.RedirectURL = final
	}

	return result
}

func (v *Validator) do(ctx context.Context, method, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if v.userAgent != "" {
		req.Header.Set("User-Agent", v.userAgent)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// checkWithRetry retries transient failures with exponential backoff
func (v *Validator) checkWithRetry(ctx context.Context, link Link) LinkResult {
	var result LinkResult
	for attempt := 0; attempt < validateMaxRetries; attempt++ {
		result = v.check(ctx, link)
		if !isRetryable(result) || ctx.Err() != nil {
			return result
		}
		if attempt < validateMaxRetries-1 {
			validateSleepFunc(ctx, time.Duration(1<<uint(attempt))*time.Second)
		}
	}
	return result
}

// isRetryable returns true for results that indicate transient failures
func isRetryable(result LinkResult) bool {
	if result.StatusCode >= 500 && result.StatusCode < 600 {
		return true
	}
	if result.StatusCode == http.StatusTooManyRequests {
		return true
	}
	if result.Error != "" {
		s := strings.ToLower(result.Error)
		return strings.Contains(s, "timeout") ||
			strings.Contains(s, "connection refused") ||
			strings.Contains(s, "connection reset")
	}
	return false
}

// Broken returns the results that are not reachable
func Broken(results []LinkResult) []LinkResult {
	var out []LinkResult
	for _, r := range results {
		if !r.Reachable {
			out = append(out, r)
		}
	}
	return out
}
