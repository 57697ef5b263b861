package validate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/inclusify/internal/model"
)

func init() {
	validateSleepFunc = func(context.Context, time.Duration) {}
}

func newTestValidator() *Validator {
	return NewValidator(&http.Client{Timeout: 5 * time.Second}, 20, "Inclusify/test")
}

func TestValidator_Check_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("Expected HEAD request, got %s", r.Method)
		}
		if ua := r.Header.Get("User-Agent"); ua != "Inclusify/test" {
			t.Errorf("Expected user agent to be set, got %q", ua)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	result := newTestValidator().check(context.Background(), Link{URL: server.URL})

	if !result.Reachable {
		t.Error("Expected link to be reachable")
	}
	if result.StatusCode != http.StatusOK {
		t.Errorf("Expected status code 200, got %d", result.StatusCode)
	}
	if result.Dead {
		t.Error("Expected link not to be dead")
	}
}

func TestValidator_Check_404(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	result := newTestValidator().check(context.Background(), Link{URL: server.URL})

	if result.Reachable {
		t.Error("Expected 404 link not to be reachable")
	}
	if !result.Dead {
		t.Error("Expected 404 link to be marked as dead")
	}
}

func TestValidator_Check_FallsBackToGET(t *testing.T) {
	var methods []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	result := newTestValidator().check(context.Background(), Link{URL: server.URL})

	if !result.Reachable {
		t.Error("Expected link to be reachable via GET")
	}
	if len(methods) != 2 || methods[1] != http.MethodGet {
		t.Errorf("Expected HEAD then GET, got %v", methods)
	}
}

func TestValidator_Check_Redirect(t *testing.T) {
	finalServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer finalServer.Close()

	redirectServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, finalServer.URL, http.StatusMovedPermanently)
	}))
	defer redirectServer.Close()

	result := newTestValidator().check(context.Background(), Link{URL: redirectServer.URL})

	if !result.Reachable {
		t.Error("Expected redirected link to be reachable")
	}
	if result.RedirectURL != finalServer.URL {
		t.Errorf("Expected redirect to %s, got %s", finalServer.URL, result.RedirectURL)
	}
}

func TestValidator_Check_BadURL(t *testing.T) {
	result := newTestValidator().check(context.Background(), Link{URL: "http://[::1"})

	if result.Reachable || result.Error == "" {
		t.Errorf("Expected error for malformed URL, got %+v", result)
	}
}

func TestValidator_Validate_OrderAndConcurrency(t *testing.T) {
	serverCount := 8
	links := make([]Link, serverCount)
	for i := 0; i < serverCount; i++ {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()
		links[i] = Link{URL: server.URL}
	}

	start := time.Now()
	results := newTestValidator().Validate(context.Background(), links)
	duration := time.Since(start)

	if len(results) != serverCount {
		t.Fatalf("Expected %d results, got %d", serverCount, len(results))
	}
	for i, r := range results {
		if r.URL != links[i].URL {
			t.Errorf("Result %d out of order", i)
		}
		if !r.Reachable {
			t.Errorf("Expected %s to be reachable", r.URL)
		}
	}
	if duration > 600*time.Millisecond {
		t.Errorf("Expected concurrent validation, took %v", duration)
	}
}

func TestValidator_Validate_Empty(t *testing.T) {
	results := newTestValidator().Validate(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("Expected no results, got %d", len(results))
	}
}

func TestValidator_Validate_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := NewValidator(nil, 1, "").Validate(ctx, []Link{{URL: server.URL}, {URL: server.URL + "/b"}})
	for _, r := range results {
		if r.Reachable {
			t.Errorf("Expected cancelled validation not to report reachable links: %+v", r)
		}
	}
}

func TestCheckWithRetry_TransientThenSuccess(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	result := newTestValidator().checkWithRetry(context.Background(), Link{URL: server.URL})

	if !result.Reachable {
		t.Error("Expected reachable after retry")
	}
	if attempts.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts.Load())
	}
}

func TestCheckWithRetry_PermanentFailure(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusGone)
	}))
	defer server.Close()

	result := newTestValidator().checkWithRetry(context.Background(), Link{URL: server.URL})

	if !result.Dead {
		t.Error("Expected dead for 410")
	}
	if attempts.Load() != 1 {
		t.Errorf("Expected 1 attempt for non-retryable status, got %d", attempts.Load())
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		desc      string
		result    LinkResult
		retryable bool
	}{
		{"200 OK", LinkResult{StatusCode: 200, Reachable: true}, false},
		{"404 Not Found", LinkResult{StatusCode: 404, Dead: true}, false},
		{"502 Bad Gateway", LinkResult{StatusCode: 502}, true},
		{"429 Too Many Requests", LinkResult{StatusCode: 429}, true},
		{"timeout error", LinkResult{Error: "request failed: timeout"}, true},
		{"connection refused", LinkResult{Error: "request failed: connection refused"}, true},
		{"create request error", LinkResult{Error: "create request: invalid URL"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if got := isRetryable(tt.result); got != tt.retryable {
				t.Errorf("isRetryable(%s) = %v, want %v", tt.desc, got, tt.retryable)
			}
		})
	}
}

func TestLinksFromRules(t *testing.T) {
	apa := model.Reference{Label: "APA", URL: "https://apastyle.apa.org/style-grammar-guidelines"}
	glaad := model.Reference{Label: "GLAAD", URL: "https://glaad.org/reference"}

	links := LinksFromRules([]model.TermRule{
		{Term: "homosexual", References: []model.Reference{apa}},
		{Term: "transsexual", References: []model.Reference{apa, glaad}},
		{Term: "normal people"},
	})

	if len(links) != 2 {
		t.Fatalf("Expected 2 distinct links, got %d", len(links))
	}
	if links[0].URL != apa.URL || len(links[0].Terms) != 2 {
		t.Errorf("Expected APA link cited by 2 terms, got %+v", links[0])
	}
	if links[1].Terms[0] != "transsexual" {
		t.Errorf("Expected GLAAD link cited by transsexual, got %+v", links[1])
	}
}

func TestBroken(t *testing.T) {
	broken := Broken([]LinkResult{{Reachable: true}, {Dead: true}, {Error: "x"}})
	if len(broken) != 2 {
		t.Errorf("Expected 2 broken links, got %d", len(broken))
	}
}

func TestAuthorityClassifier_Classify(t *testing.T) {
	c := NewAuthorityClassifier(nil, nil)

	tests := []struct {
		url  string
		want Tier
	}{
		{"https://apastyle.apa.org/style-grammar-guidelines", TierPrimary},
		{"https://www.apa.org/about", TierPrimary},
		{"https://www.cdc.gov/page", TierPrimary},
		{"https://www.ox.ac.uk/", TierPrimary},
		{"https://glaad.org/reference", TierSecondary},
		{"https://en.wikipedia.org/wiki/Gender", TierSecondary},
		{"https://example.com/blog", TierTertiary},
		{"://bad", TierTertiary},
	}

	for _, tt := range tests {
		if got := c.Classify(tt.url); got != tt.want {
			t.Errorf("Classify(%s) = %s, want %s", tt.url, got, tt.want)
		}
	}
}

func TestAuthorityClassifier_CustomDomains(t *testing.T) {
	c := NewAuthorityClassifier([]string{"Example.com"}, []string{})

	if got := c.Classify("https://docs.example.com/x"); got != TierPrimary {
		t.Errorf("Expected custom primary domain, got %s", got)
	}
	if got := c.Classify("https://glaad.org"); got != TierTertiary {
		t.Errorf("Expected empty secondary list to override defaults, got %s", got)
	}
}
