package model

import "time"

// Config is the runtime configuration shared by the CLI and the server
type Config struct {
	Rules        RulesConfig        `yaml:"rules" mapstructure:"rules"`
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
	History      HistoryConfig      `yaml:"history" mapstructure:"history"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
}

// RulesConfig selects the rule table
type RulesConfig struct {
	Path string `yaml:"path" mapstructure:"path"` // Empty uses the built-in table
}

// HTTPConfig controls fetching of URL sources
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	InsecureTLS   bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy     string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CacheConfig controls the fetch/analysis cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig controls worker counts
type ConcurrencyConfig struct {
	Workers          int `yaml:"workers" mapstructure:"workers"`
	LinkCheckWorkers int `yaml:"link_check_workers" mapstructure:"link_check_workers"`
}

// RateLimitingConfig controls per-host request pacing in batch mode
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Verbose         bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter   bool `yaml:"include_footer" mapstructure:"include_footer"`
	IncludeSegments bool `yaml:"include_segments" mapstructure:"include_segments"`
	Color           bool `yaml:"color" mapstructure:"color"`
}

// HistoryConfig controls the analysis history store
type HistoryConfig struct {
	Path    string `yaml:"path" mapstructure:"path"`       // bbolt file; empty uses ~/.inclusify/history.db
	Private bool   `yaml:"private" mapstructure:"private"` // When true nothing is recorded
}

// ServerConfig controls the HTTP API
type ServerConfig struct {
	Addr              string        `yaml:"addr" mapstructure:"addr"`
	MaxTextBytes      int           `yaml:"max_text_bytes" mapstructure:"max_text_bytes"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int           `yaml:"burst" mapstructure:"burst"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// LogConfig controls structured logging
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // console, json
}

// LLMConfig controls the optional narrative summary
type LLMConfig struct {
	Provider       string `yaml:"provider" mapstructure:"provider"` // "", openai, ollama
	Model          string `yaml:"model" mapstructure:"model"`
	APIKey         string `yaml:"-" mapstructure:"api_key"`
	BaseURL        string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout        int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	StrictCitation bool   `yaml:"strict_citation" mapstructure:"strict_citation"`
	MaxTokens      int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "Inclusify/0.1 (+https://github.com/ppiankov/inclusify)",
			MaxBodyBytes:  2_000_000,
			RespectRobots: true,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".inclusify-cache",
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers:          4,
			LinkCheckWorkers: 10,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         5,
		},
		Output: OutputConfig{
			IncludeFooter: true,
			Color:         true,
		},
		History: HistoryConfig{
			Private: true,
		},
		Server: ServerConfig{
			Addr:              ":8080",
			MaxTextBytes:      1 << 20,
			RequestsPerSecond: 20,
			Burst:             40,
			ShutdownTimeout:   10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		LLM: LLMConfig{
			Timeout:        30,
			StrictCitation: true,
			MaxTokens:      600,
		},
	}
}
