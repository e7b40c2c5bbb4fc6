// Package llm wraps model completion providers behind a single client
// interface and layers JSON extraction and a structured-response contract on
// top of it.
package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"
)

// Message roles as seen by the model.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single role-tagged prompt entry.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options are per-call completion options.
type Options struct {
	Temperature float64
	// JSONOnly asks the provider for JSON-only output where supported.
	// Providers that cannot honor it ignore it; callers must not rely on it.
	JSONOnly bool
}

// Client performs a single completion round-trip. It returns whatever text
// the model produced, including prose around JSON, and applies no semantic
// validation.
type Client interface {
	Complete(ctx context.Context, messages []Message, opts Options) (string, error)
}

// Config describes how to reach a completion provider. Model is
// provider-prefixed, e.g. "anthropic:claude-3-5-sonnet-20241022" or
// "openai:gpt-4o-2024-08-06".
type Config struct {
	Model     string        `json:"model"               mapstructure:"model"`
	APIKey    string        `json:"api_key,omitempty"   mapstructure:"api_key"`
	APIKeyEnv string        `json:"api_key_env,omitempty" mapstructure:"api_key_env"`
	BaseURL   string        `json:"base_url,omitempty"  mapstructure:"base_url"`
	Timeout   time.Duration `json:"-"                   mapstructure:"-"`
}

const defaultTimeout = 120 * time.Second

// NewClient constructs a client for the provider named by the model prefix.
func NewClient(cfg Config) (Client, error) {
	provider, model, ok := strings.Cut(strings.TrimSpace(cfg.Model), ":")
	if !ok || model == "" {
		return nil, fmt.Errorf("model %q must be provider-prefixed, e.g. \"anthropic:claude-3-5-sonnet-20241022\"", cfg.Model)
	}
	cfg.Model = model
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	switch provider {
	case "anthropic":
		return newAnthropicClient(cfg)
	case "openai":
		return newOpenAIClient(cfg)
	case "gemini", "google":
		return newGeminiClient(cfg)
	default:
		return nil, fmt.Errorf("unknown model provider %q", provider)
	}
}

func resolveAPIKey(cfg Config, defaultEnv string) (string, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key != "" {
		return key, nil
	}
	envKey := strings.TrimSpace(cfg.APIKeyEnv)
	if envKey == "" {
		envKey = defaultEnv
	}
	key = strings.TrimSpace(os.Getenv(envKey))
	if key == "" {
		return "", fmt.Errorf("api key is required (set api_key or %s)", envKey)
	}
	return key, nil
}

// splitSystem separates a leading system message from the conversational
// remainder. Providers that take the system instruction out of band need it
// split off; only the first entry is treated as system.
func splitSystem(messages []Message) (string, []Message) {
	if len(messages) > 0 && messages[0].Role == RoleSystem {
		return messages[0].Content, messages[1:]
	}
	return "", messages
}
