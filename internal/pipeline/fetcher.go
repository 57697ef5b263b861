package pipeline

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ppiankov/inclusify/internal/cache"
	"github.com/ppiankov/inclusify/internal/logging"
	"github.com/ppiankov/inclusify/internal/util"
)

// ErrRobotsDisallowed is returned when robots.txt forbids the fetch
var ErrRobotsDisallowed = errors.New("disallowed by robots.txt")

const maxFetchAttempts = 3

// fetchSleepFunc is replaced in tests
var fetchSleepFunc = time.Sleep

// Fetcher fetches web pages for analysis
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	robots     *util.RobotsChecker
	cache      cache.Cache
	cacheTTL   time.Duration
	logger     logging.Logger
}

// NewFetcher creates a new Fetcher with the given configuration
func NewFetcher(timeout time.Duration, userAgent string, maxBytes int64, insecureTLS bool, httpProxy, httpsProxy, noProxy string) *Fetcher {
	transport := &http.Transport{
		Proxy: util.NewProxyFunc(httpProxy, httpsProxy, noProxy),
	}
	if insecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in via --insecure
	}

	return &Fetcher{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: userAgent,
		maxBytes:  maxBytes,
		cache:     cache.Nop{},
		logger:    logging.NewNopLogger(),
	}
}

// WithRobots enables robots.txt checks
func (f *Fetcher) WithRobots(r *util.RobotsChecker) *Fetcher {
	f.robots = r
	return f
}

// WithCache stores fetched pages in c for ttl
func (f *Fetcher) WithCache(c cache.Cache, ttl time.Duration) *Fetcher {
	if c == nil {
		c = cache.Nop{}
	}
	f.cache = c
	f.cacheTTL = ttl
	return f
}

// WithLogger sets the logger
func (f *Fetcher) WithLogger(l logging.Logger) *Fetcher {
	if l != nil {
		f.logger = l
	}
	return f
}

// Client returns the underlying HTTP client
func (f *Fetcher) Client() *http.Client {
	return f.httpClient
}

// FetchResult contains the fetched body and metadata
type FetchResult struct {
	Body        []byte `json:"body"`
	ContentType string `json:"content_type"`
	StatusCode  int    `json:"status_code"`
	Subject     string `json:"subject"`
	FinalURL    string `json:"final_url"`
	Truncated   bool   `json:"truncated"`
	FromCache   bool   `json:"-"`
}

// Get returns the page at rawURL from cache, or fetches it after the
// robots.txt check and caches the result
func (f *Fetcher) Get(ctx context.Context, rawURL string) (*FetchResult, error) {
	key := cache.SourceKey(rawURL)

	var cached FetchResult
	if cache.GetJSON(f.cache, key, &cached) {
		f.logger.Debug("source cache hit", logging.String("url", rawURL))
		cached.FromCache = true
		return &cached, nil
	}

	if f.robots != nil {
		allowed, delay, err := f.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return nil, fmt.Errorf("robots check: %w", err)
		}
		if !allowed {
			return nil, fmt.Errorf("%s: %w", rawURL, ErrRobotsDisallowed)
		}
		if delay > 0 {
			f.logger.Debug("robots crawl delay", logging.String("url", rawURL), logging.Duration("delay", delay))
		}
	}

	result, err := f.FetchWithRetry(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	if err := cache.SetJSON(f.cache, key, result, f.cacheTTL); err != nil {
		f.logger.Warn("source cache write failed", logging.String("url", rawURL), logging.Err(err))
	}
	return result, nil
}

// FetchWithRetry fetches rawURL, retrying transient failures with
// exponential backoff
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) (*FetchResult, error) {
	var lastErr error
	backoff := time.Second

	for attempt := 1; attempt <= maxFetchAttempts; attempt++ {
		result, err := f.Fetch(ctx, rawURL)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !isRetryableFetchError(err) || attempt == maxFetchAttempts || ctx.Err() != nil {
			break
		}
		f.logger.Debug("retrying fetch",
			logging.String("url", rawURL),
			logging.Int("attempt", attempt),
			logging.Err(err))
		fetchSleepFunc(backoff)
		backoff *= 2
	}
	return nil, lastErr
}

// Fetch retrieves the given URL once
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	// Read one byte past the limit to detect truncation
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	truncated := int64(len(body)) > f.maxBytes
	if truncated {
		body = body[:f.maxBytes]
		f.logger.Warn("response truncated", logging.String("url", rawURL), logging.Int64("max_bytes", f.maxBytes))
	}

	finalURL := resp.Request.URL.String()
	return &FetchResult{
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
		Subject:     extractSubject(finalURL),
		FinalURL:    finalURL,
		Truncated:   truncated,
	}, nil
}

// isRetryableFetchError reports whether err is a transient failure:
// transport errors, 429 and 5xx responses
func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()

	if strings.HasPrefix(msg, "fetch: ") {
		return true
	}
	if rest, ok := strings.CutPrefix(msg, "unexpected status: "); ok {
		return strings.HasPrefix(rest, "429") || strings.HasPrefix(rest, "5")
	}
	return false
}

// extractSubject derives a human-readable name from the URL
func extractSubject(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	path := strings.Trim(parsed.Path, "/")
	if path == "" {
		return parsed.Host
	}

	segments := strings.Split(path, "/")
	last := segments[len(segments)-1]
	if idx := strings.LastIndex(last, "."); idx > 0 {
		last = last[:idx]
	}
	last = strings.ReplaceAll(last, "_", " ")
	last = strings.ReplaceAll(last, "-", " ")

	if unescaped, err := url.PathUnescape(last); err == nil {
		last = unescaped
	}
	return last
}
