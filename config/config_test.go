package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai_study_planner/generator"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"DEEPSEEK_API_BASE", "HTTP_ADDR", "LLM_TIMEOUT"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8501", cfg.HTTPAddr)
	// empty lets the DeepSeek client fall back to generator.DefaultDeepSeekBaseURL
	assert.Empty(t, cfg.DeepSeekAPIBase)
	assert.Equal(t, time.Duration(0), cfg.LLMTimeout)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("DEEPSEEK_API_BASE", "http://gateway.local/v1")
	t.Setenv("OPENAI_API_BASE", "http://openai.local/v1")
	t.Setenv("LLM_TIMEOUT", "45s")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test,http://b.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://gateway.local/v1", cfg.BaseURL(generator.ProviderDeepSeek))
	assert.Equal(t, "http://openai.local/v1", cfg.BaseURL(generator.ProviderOpenAI))
	assert.Equal(t, 45*time.Second, cfg.LLMTimeout)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("LLM_TIMEOUT", "soon")

	_, err := Load()
	assert.Error(t, err)
}

func TestProvider_FallsBackToEnvKeyAndDefaultModel(t *testing.T) {
	cfg := &Config{DeepSeekAPIBase: "http://ds", DeepSeekAPIKey: "env-key"}

	pc := cfg.Provider(generator.ProviderDeepSeek, "", "")
	assert.Equal(t, "env-key", pc.APIKey)
	assert.Equal(t, "deepseek-chat", pc.Model)
	assert.Equal(t, "http://ds", pc.BaseURL)

	pc = cfg.Provider(generator.ProviderDeepSeek, "form-key", "deepseek-coder")
	assert.Equal(t, "form-key", pc.APIKey)
	assert.Equal(t, "deepseek-coder", pc.Model)
}
