package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// DefaultDeepSeekBaseURL is used when DEEPSEEK_API_BASE is not set.
const DefaultDeepSeekBaseURL = "https://api.deepseek.com/v1"

// DeepSeekLLM talks to an OpenAI-compatible /chat/completions endpoint over plain HTTP.
type DeepSeekLLM struct {
	model   string
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewDeepSeekLLMFromConfig(cfg *LLMSettings, client *http.Client) (*DeepSeekLLM, error) {
	if cfg == nil {
		return nil, errors.New("llm config is nil")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("deepseek: %w", ErrMissingAPIKey)
	}
	if cfg.Model == "" {
		return nil, errors.New("llm model is required")
	}
	base := cfg.BaseURL
	if base == "" {
		base = DefaultDeepSeekBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &DeepSeekLLM{
		model:   cfg.Model,
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(base, "/"),
		client:  client,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (d *DeepSeekLLM) Name() string  { return string(ProviderDeepSeek) }
func (d *DeepSeekLLM) Model() string { return d.model }

func (d *DeepSeekLLM) Complete(ctx context.Context, prompt Prompt) (string, error) {
	turns := prompt.Messages()
	msgs := make([]chatMessage, 0, len(turns))
	for _, t := range turns {
		msgs = append(msgs, chatMessage{Role: string(t.Role), Content: t.Content})
	}
	body, err := json.Marshal(chatRequest{
		Model:       d.model,
		Messages:    msgs,
		Temperature: prompt.Temperature,
		MaxTokens:   prompt.MaxTokens,
	})
	if err != nil {
		return "", d.transport(0, fmt.Errorf("marshaling request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", d.transport(0, fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+d.apiKey)

	resp, err := d.client.Do(req)
	if err != nil {
		return "", d.transport(0, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", d.transport(resp.StatusCode, fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := fmt.Errorf("API error %d: %s", resp.StatusCode, truncate(string(respBody), 300))
		if isBillingStatus(resp.StatusCode) {
			return "", &ProviderError{Kind: KindBilling, Provider: d.Name(), Status: resp.StatusCode, Err: apiErr}
		}
		return "", d.transport(resp.StatusCode, apiErr)
	}

	var data chatResponse
	if err := json.Unmarshal(respBody, &data); err != nil {
		return "", d.transport(resp.StatusCode, fmt.Errorf("decoding response: %w", err))
	}
	if len(data.Choices) == 0 {
		return "", d.transport(resp.StatusCode, errors.New("empty choices"))
	}
	return data.Choices[0].Message.Content, nil
}

func (d *DeepSeekLLM) transport(status int, err error) error {
	return &ProviderError{Kind: KindTransport, Provider: d.Name(), Status: status, Err: err}
}

func isBillingStatus(status int) bool {
	return status == http.StatusPaymentRequired || status == http.StatusUnprocessableEntity
}

// truncate keeps at most n runes so a cut never splits a multi-byte character.
func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
