package worker

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter rate-limits requests per host. Inputs that are not URLs (local
// files, inline text) are never limited.
type Limiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.Mutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a limiter allowing requestsPerSecond per host.
// A non-positive rate disables limiting.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}

	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}

	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  limit,
		defaultBurst: burst,
	}
}

// Wait blocks until input may be fetched
func (l *Limiter) Wait(ctx context.Context, input string) error {
	host, ok, err := hostOf(input)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	return l.limiter(host).Wait(ctx)
}

// WaitWithDelay waits for the limiter, then for delay (a robots.txt
// crawl delay, for instance)
func (l *Limiter) WaitWithDelay(ctx context.Context, input string, delay time.Duration) error {
	if err := l.Wait(ctx, input); err != nil {
		return err
	}
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Allow reports whether input may be fetched now, consuming a token
func (l *Limiter) Allow(input string) bool {
	host, ok, err := hostOf(input)
	if err != nil {
		return false
	}
	if !ok {
		return true
	}
	return l.limiter(host).Allow()
}

// SetHostRate overrides the rate for one host
func (l *Limiter) SetHostRate(host string, requestsPerSecond float64, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if burst <= 0 {
		burst = l.defaultBurst
	}
	l.limiters[strings.ToLower(host)] = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

func (l *Limiter) limiter(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[host]
	if !ok {
		lim = rate.NewLimiter(l.defaultRate, l.defaultBurst)
		l.limiters[host] = lim
	}
	return lim
}

// hostOf returns the lower-cased host of an http(s) URL; ok is false for
// inputs that are not URLs
func hostOf(input string) (string, bool, error) {
	if !IsURL(input) {
		return "", false, nil
	}
	parsed, err := url.Parse(input)
	if err != nil {
		return "", false, fmt.Errorf("parse URL: %w", err)
	}
	return strings.ToLower(parsed.Host), true, nil
}

// IsURL reports whether input is an http or https URL
func IsURL(input string) bool {
	lower := strings.ToLower(input)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
