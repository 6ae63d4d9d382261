// Package config loads configuration from environment variables and .env files.
package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"ai_study_planner/generator"
)

// Config holds all configuration for the planner.
type Config struct {
	// Server
	HTTPAddr       string   `env:"HTTP_ADDR" envDefault:":8501"`
	LogMode        string   `env:"LOG_MODE" envDefault:"development"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	// Providers. Keys are optional defaults for the CLI; the web page always sends its own.
	DeepSeekAPIBase string        `env:"DEEPSEEK_API_BASE"`
	OpenAIAPIBase   string        `env:"OPENAI_API_BASE"`
	DeepSeekAPIKey  string        `env:"DEEPSEEK_API_KEY"`
	OpenAIAPIKey    string        `env:"OPENAI_API_KEY"`
	LLMTimeout      time.Duration `env:"LLM_TIMEOUT" envDefault:"0s"`
}

// Load loads configuration from .env file (if present) and environment variables
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// BaseURL returns the override for kind, empty meaning the provider default.
func (c *Config) BaseURL(kind generator.ProviderKind) string {
	switch kind {
	case generator.ProviderDeepSeek:
		return c.DeepSeekAPIBase
	case generator.ProviderOpenAI:
		return c.OpenAIAPIBase
	default:
		return ""
	}
}

// DefaultAPIKey returns the key configured in the environment for kind.
func (c *Config) DefaultAPIKey(kind generator.ProviderKind) string {
	switch kind {
	case generator.ProviderDeepSeek:
		return c.DeepSeekAPIKey
	case generator.ProviderOpenAI:
		return c.OpenAIAPIKey
	default:
		return ""
	}
}

// Provider assembles a ProviderConfig, falling back to the environment key when apiKey is empty.
func (c *Config) Provider(kind generator.ProviderKind, apiKey, model string) generator.ProviderConfig {
	if apiKey == "" {
		apiKey = c.DefaultAPIKey(kind)
	}
	return generator.ProviderConfig{
		Kind:    kind,
		APIKey:  apiKey,
		Model:   model,
		BaseURL: c.BaseURL(kind),
	}.WithDefaults()
}
