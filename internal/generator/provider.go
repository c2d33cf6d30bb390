// Package generator abstracts the text-generation backend. The backend is
// an opaque capability: it may fail, time out, or return nothing useful,
// and callers must treat all of those as generation failure.
package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jhinnbay/DaemonAgent-Farcaster/pkg/config"
)

// ErrEmptyCompletion is returned when the model produced no usable text.
var ErrEmptyCompletion = errors.New("generator: empty completion")

// DefaultMaxTokens bounds a completion when no budget is configured.
// Generation must never run unbounded.
const DefaultMaxTokens = 200

// Request is a single completion request. Zero MaxTokens/Temperature fall
// back to the provider's configured budget.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Provider generates a completion for a request.
type Provider interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Config selects and configures a provider.
type Config struct {
	Provider    string
	Model       string
	APIKey      string
	APIURL      string
	MaxTokens   int
	Temperature float64
}

// LoadConfig reads provider configuration from LLM_* env vars.
func LoadConfig() Config {
	return Config{
		Provider:    config.GetEnv("LLM_PROVIDER", "openai"),
		Model:       config.GetEnv("LLM_MODEL", ""),
		APIKey:      config.GetEnv("LLM_API_KEY", ""),
		APIURL:      config.GetEnv("LLM_API_URL", ""),
		MaxTokens:   config.GetEnvInt("LLM_MAX_TOKENS", 200),
		Temperature: float64(config.GetEnvInt("LLM_TEMPERATURE_PCT", 60)) / 100,
	}
}

// NewProvider builds a provider from config. "openai" covers any
// OpenAI-compatible chat completions API via APIURL.
func NewProvider(cfg Config) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return NewOpenAIProvider(cfg), nil
	case "anthropic":
		return NewAnthropicProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unknown generator provider %q", cfg.Provider)
	}
}
