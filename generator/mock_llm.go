package generator

import (
	"context"
	"sync"
)

// MockLLM 一个简单的占位实现，不调用外部模型，记录每次收到的 Prompt。
type MockLLM struct {
	Reply string
	Err   error

	mu      sync.Mutex
	prompts []Prompt
}

func (m *MockLLM) Name() string  { return "mock" }
func (m *MockLLM) Model() string { return "mock-model" }

func (m *MockLLM) Complete(_ context.Context, prompt Prompt) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	if m.Err != nil {
		return "", m.Err
	}
	return m.Reply, nil
}

// Calls is the number of Complete invocations so far.
func (m *MockLLM) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// LastPrompt returns the most recent prompt, or the zero Prompt.
func (m *MockLLM) LastPrompt() Prompt {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return Prompt{}
	}
	return m.prompts[len(m.prompts)-1]
}
