package generator

import (
	"time"

	tokenizer "github.com/pandodao/tokenizer-go"

	"ai_study_planner/logger"
)

// CallEvent records metadata about a single provider invocation.
type CallEvent struct {
	Task         string
	Provider     string
	Model        string
	PromptTokens int
	Latency      time.Duration
	Success      bool
	ErrorKind    ErrorKind
	Status       int
}

// Observer receives events about provider calls.
type Observer interface {
	OnCallComplete(event CallEvent)
}

// LogObserver writes call events to the structured logger.
type LogObserver struct {
	log *logger.Logger
}

func NewLogObserver(log *logger.Logger) *LogObserver {
	return &LogObserver{log: log}
}

func (o *LogObserver) OnCallComplete(ev CallEvent) {
	kv := []interface{}{
		"task", ev.Task,
		"provider", ev.Provider,
		"model", ev.Model,
		"prompt_tokens", ev.PromptTokens,
		"latency_ms", ev.Latency.Milliseconds(),
	}
	if ev.Success {
		o.log.Info("llm call", kv...)
		return
	}
	kv = append(kv, "error_kind", string(ev.ErrorKind), "status", ev.Status)
	o.log.Warn("llm call failed", kv...)
}

// NoopObserver discards all events.
type NoopObserver struct{}

func (NoopObserver) OnCallComplete(CallEvent) {}

// EstimateTokens approximates the token count of all prompt messages.
func EstimateTokens(p Prompt) int {
	n := 0
	for _, m := range p.Messages() {
		n += tokenizer.MustCalToken(m.Content)
	}
	return n
}
