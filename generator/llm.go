package generator

import (
	"context"
	"fmt"
	"strings"
)

// LLMClient 抽象大模型客户端，便于替换/Mock。
type LLMClient interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
	Name() string
	Model() string
}

// LLMSettings 提供给具体实现的基础配置。
type LLMSettings struct {
	Provider ProviderKind
	Model    string
	APIKey   string
	BaseURL  string
}

// NewLLM picks the backend once, when the session is configured.
func NewLLM(cfg ProviderConfig) (LLMClient, error) {
	cfg = cfg.WithDefaults()
	settings := &LLMSettings{
		Provider: cfg.Kind,
		Model:    cfg.Model,
		APIKey:   strings.TrimSpace(cfg.APIKey),
		BaseURL:  strings.TrimSpace(cfg.BaseURL),
	}
	switch cfg.Kind {
	case ProviderDeepSeek:
		return NewDeepSeekLLMFromConfig(settings, nil)
	case ProviderOpenAI:
		return NewOpenAILLMFromConfig(settings)
	default:
		return nil, fmt.Errorf("llm provider %s not supported", cfg.Kind)
	}
}
