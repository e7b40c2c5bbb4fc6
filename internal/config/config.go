// Package config provides configuration loading and management for designgen.
package config

import (
	"github.com/ButterFlowQ/DesignGen/internal/llm"
)

// Default model names, matching the provider choices of the hosted pipeline.
const (
	DefaultModel       = "anthropic:claude-3-5-sonnet-20241022"
	DefaultTemperature = 0.25
)

// Config is the root configuration.
type Config struct {
	DBPath     string            `json:"db_path,omitempty"     mapstructure:"db_path"`
	SchemaPath string            `json:"schema_path,omitempty" mapstructure:"schema_path"`
	LLM        LLMConfig         `json:"llm"                   mapstructure:"llm"`
	Limits     Limits            `json:"limits"                mapstructure:"limits"`
	Models     map[string]string `json:"models,omitempty"      mapstructure:"models"`
}

// LLMConfig describes the default completion provider. Model is
// provider-prefixed ("anthropic:...", "openai:...", "gemini:...").
type LLMConfig struct {
	Model          string  `json:"model"                     mapstructure:"model"`
	Temperature    float64 `json:"temperature,omitempty"     mapstructure:"temperature"`
	APIKeyEnv      string  `json:"api_key_env,omitempty"     mapstructure:"api_key_env"`
	BaseURL        string  `json:"base_url,omitempty"        mapstructure:"base_url"`
	TimeoutSeconds int     `json:"timeout_seconds,omitempty" mapstructure:"timeout_seconds"`
}

// Limits bounds the turn machinery.
type Limits struct {
	MaxRetries      int `json:"max_retries,omitempty"       mapstructure:"max_retries"`
	FanOutWorkers   int `json:"fan_out_workers,omitempty"   mapstructure:"fan_out_workers"`
	MaxChainedTurns int `json:"max_chained_turns,omitempty" mapstructure:"max_chained_turns"`
}

// ApplyDefaults fills unset fields with working defaults.
func (c *Config) ApplyDefaults() {
	if c.LLM.Model == "" {
		c.LLM.Model = DefaultModel
	}
	if c.LLM.Temperature <= 0 {
		c.LLM.Temperature = DefaultTemperature
	}
	if c.Limits.MaxRetries <= 0 {
		c.Limits.MaxRetries = llm.DefaultMaxRetries
	}
	if c.Limits.FanOutWorkers <= 0 {
		c.Limits.FanOutWorkers = 5
	}
	if c.Limits.MaxChainedTurns <= 0 {
		c.Limits.MaxChainedTurns = 10
	}
}

// ModelFor resolves the model for an agent type, falling back to the default.
func (c *Config) ModelFor(agentType string) string {
	if model, ok := c.Models[agentType]; ok && model != "" {
		return model
	}
	return c.LLM.Model
}
