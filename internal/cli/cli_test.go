package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/inclusify/internal/model"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"essay.md", "essay"},
		{"https://example.com/blog/post", "example.com_blog_post"},
		{"My Draft: v2?.txt", "My-Draft_-v2"},
		{"", "report"},
		{"...", "report"},
	}

	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	long := strings.Repeat("a", 150)
	if got := sanitizeFilename(long); len(got) != 100 {
		t.Errorf("expected 100 chars, got %d", len(got))
	}
}

func TestUniqueSlug(t *testing.T) {
	used := make(map[string]int)
	got := []string{
		uniqueSlug(used, "report"),
		uniqueSlug(used, "report"),
		uniqueSlug(used, "other"),
		uniqueSlug(used, "report"),
	}
	want := []string{"report", "report-2", "other", "report-3"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("slug %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCheckSingleInput(t *testing.T) {
	defer func() { inputText, inputURL = "", "" }()

	tests := []struct {
		name    string
		text    string
		url     string
		args    []string
		wantErr bool
	}{
		{name: "nothing", wantErr: true},
		{name: "text", text: "hello"},
		{name: "url", url: "https://example.com"},
		{name: "file", args: []string{"essay.md"}},
		{name: "stdin", args: []string{"-"}},
		{name: "text and file", text: "hello", args: []string{"essay.md"}, wantErr: true},
		{name: "text and url", text: "hello", url: "https://example.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inputText, inputURL = tt.text, tt.url
			err := checkSingleInput(tt.args)
			if (err != nil) != tt.wantErr {
				t.Errorf("checkSingleInput() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	if err := writeDefaultConfig(path); err != nil {
		t.Fatalf("writeDefaultConfig: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.HasPrefix(string(data), "# Inclusify Configuration File") {
		t.Errorf("missing header comment")
	}

	var cfg model.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("written config is not valid YAML: %v", err)
	}
	if cfg.Server.Addr != model.DefaultConfig().Server.Addr {
		t.Errorf("server.addr = %q, want default", cfg.Server.Addr)
	}
	if !cfg.History.Private {
		t.Error("history should default to private")
	}

	if err := writeDefaultConfig(path); err == nil {
		t.Error("expected error when config already exists")
	}
}
