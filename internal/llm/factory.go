package llm

import (
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/inclusify/internal/model"
)

// NewProvider creates a new LLM provider based on configuration.
// An empty provider name disables the LLM and returns (nil, nil).
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config)
	case "ollama":
		return NewOllamaProvider(config)
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, ollama)", config.Provider)
	}
}

// ConfigFromModel converts the runtime config sections into an llm.Config
func ConfigFromModel(llmConfig model.LLMConfig, httpConfig model.HTTPConfig) Config {
	return Config{
		Provider:       llmConfig.Provider,
		Model:          llmConfig.Model,
		APIKey:         llmConfig.APIKey,
		BaseURL:        llmConfig.BaseURL,
		Timeout:        llmConfig.Timeout,
		StrictCitation: llmConfig.StrictCitation,
		MaxTokens:      llmConfig.MaxTokens,
		HTTPProxy:      httpConfig.HTTPProxy,
		HTTPSProxy:     httpConfig.HTTPSProxy,
		NoProxy:        httpConfig.NoProxy,
	}
}

// APIKeyFromEnv returns the API key for provider from the environment
func APIKeyFromEnv(provider string) string {
	if key := os.Getenv("INCLUSIFY_LLM_API_KEY"); key != "" {
		return key
	}
	if strings.EqualFold(provider, "openai") {
		return os.Getenv("OPENAI_API_KEY")
	}
	return ""
}
