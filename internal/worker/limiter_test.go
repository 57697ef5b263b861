package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_New(t *testing.T) {
	if l := NewLimiter(10, 5); l.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", l.defaultBurst)
	}
	if l := NewLimiter(10, -1); l.defaultBurst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l.defaultBurst)
	}
}

func TestLimiter_RateLimitPerHost(t *testing.T) {
	limiter := NewLimiter(1, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "https://example.com/a"); err != nil {
		t.Fatalf("first wait failed: %v", err)
	}
	if limiter.Allow("https://EXAMPLE.com/b") {
		t.Error("expected same host (any case) to be exhausted")
	}
	if !limiter.Allow("https://other.com") {
		t.Error("expected other host to be allowed")
	}
}

func TestLimiter_NonURLInputsAreNotLimited(t *testing.T) {
	limiter := NewLimiter(0.001, 1)

	for i := 0; i < 3; i++ {
		if !limiter.Allow("docs/guide.md") {
			t.Fatal("expected file inputs to bypass the limiter")
		}
	}
	if err := limiter.Wait(context.Background(), "notes.txt"); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestLimiter_DisabledRate(t *testing.T) {
	limiter := NewLimiter(0, 1)
	for i := 0; i < 10; i++ {
		if !limiter.Allow("https://example.com") {
			t.Fatal("expected unlimited rate when rps <= 0")
		}
	}
}

func TestLimiter_WaitWithDelay(t *testing.T) {
	limiter := NewLimiter(100, 1)

	start := time.Now()
	if err := limiter.WaitWithDelay(context.Background(), "http://example.com", 50*time.Millisecond); err != nil {
		t.Fatalf("WaitWithDelay failed: %v", err)
	}
	if time.Since(start) < 50*time.Millisecond {
		t.Errorf("expected delay >= 50ms, got %v", time.Since(start))
	}
}

func TestLimiter_WaitHonoursContext(t *testing.T) {
	limiter := NewLimiter(0.001, 1)
	limiter.Allow("https://slow.example")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := limiter.Wait(ctx, "https://slow.example/page"); err == nil {
		t.Error("expected context error while waiting")
	}
}

func TestLimiter_SetHostRate(t *testing.T) {
	limiter := NewLimiter(10, 10)
	limiter.SetHostRate("Slow.com", 0.1, 1)

	if !limiter.Allow("http://slow.com") {
		t.Error("first request should pass")
	}
	if limiter.Allow("http://slow.com/x") {
		t.Error("second request should fail")
	}
	if !limiter.Allow("http://fast.com") {
		t.Error("other host should pass")
	}
}

func TestIsURL(t *testing.T) {
	cases := map[string]bool{
		"https://example.com": true,
		"HTTP://example.com":  true,
		"ftp://example.com":   false,
		"./file.txt":          false,
		"":                    false,
	}
	for in, want := range cases {
		if got := IsURL(in); got != want {
			t.Errorf("IsURL(%q) = %v, want %v", in, got, want)
		}
	}
}
