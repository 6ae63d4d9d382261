package generator

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	// PlanDisclaimer is appended to every fallback plan.
	PlanDisclaimer = "\n\n**注意**: 这是一个基础回复。要获取更准确的答案，请确保您的API密钥有效。"

	chatBillingDisclaimer = "\n\n**注意**: 这是一个基础回复。要获取更准确的答案，请确保您的API密钥有效。"
	chatGenericDisclaimer = "\n\n**注意**: 这是一个基础回复。要获取更准确的答案，请检查您的API设置。"

	planBillingWarning = "⚠️ DeepSeek API调用失败（支付错误），使用本地学习计划生成器"
	chatBillingWarning = "⚠️ DeepSeek API调用失败（支付错误），使用本地回复助手"
)

// Agent is the generation pipeline: prompt, provider call, then local fallback.
type Agent struct {
	llm      LLMClient
	observer Observer
	now      func() time.Time
}

func NewAgent(llm LLMClient, observer Observer) (*Agent, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	if observer == nil {
		observer = NoopObserver{}
	}
	return &Agent{llm: llm, observer: observer, now: time.Now}, nil
}

// LLM returns the configured provider.
func (a *Agent) LLM() LLMClient { return a.llm }

// GeneratePlan always returns renderable Markdown. The request must already be validated.
func (a *Agent) GeneratePlan(ctx context.Context, req UserRequest) Reply {
	text, err := a.complete(ctx, BuildPlanPrompt(req))
	if err == nil {
		return Reply{Markdown: text, Source: SourceLLM}
	}

	warning := fmt.Sprintf("⚠️ API调用失败: %s 生成计划时出错: %v，使用本地学习计划生成器", ErrorMarker, err)
	if KindOf(err) == KindBilling {
		warning = planBillingWarning
	}
	return Reply{
		Markdown: FallbackPlan(req) + PlanDisclaimer,
		Source:   SourceFallback,
		Warning:  warning,
	}
}

// GenerateChatReply answers message with the full conversation as context and
// records both turns in conv, whichever path produced the answer.
func (a *Agent) GenerateChatReply(ctx context.Context, conv *Conversation, message string) Reply {
	text, err := a.complete(ctx, BuildChatPrompt(conv.Turns(), message))

	var reply Reply
	switch {
	case err == nil:
		reply = Reply{Markdown: text, Source: SourceLLM}
	case KindOf(err) == KindBilling:
		reply = Reply{
			Markdown: FallbackChat(message) + chatBillingDisclaimer,
			Source:   SourceFallback,
			Warning:  chatBillingWarning,
		}
	default:
		reply = Reply{
			Markdown: FallbackChat(message) + chatGenericDisclaimer,
			Source:   SourceFallback,
			Warning:  fmt.Sprintf("⚠️ API调用失败: %s 生成回复时出错: %v，使用本地回复助手", ErrorMarker, err),
		}
	}

	conv.Append(ChatTurn{Role: RoleUser, Content: message})
	conv.Append(ChatTurn{Role: RoleAssistant, Content: reply.Markdown})
	return reply
}

// complete runs one provider call. A successful text is returned as is, even
// when blank; Session.GeneratePlan rejects it with ErrEmptyResult.
func (a *Agent) complete(ctx context.Context, prompt Prompt) (text string, err error) {
	start := a.now()
	ev := CallEvent{
		Task:         prompt.Task,
		Provider:     a.llm.Name(),
		Model:        a.llm.Model(),
		PromptTokens: EstimateTokens(prompt),
	}
	defer func() {
		if r := recover(); r != nil {
			text, err = "", &ProviderError{Kind: KindTransport, Provider: ev.Provider, Err: fmt.Errorf("panic: %v", r)}
		}
		ev.Latency = a.now().Sub(start)
		ev.Success = err == nil
		if err != nil {
			ev.ErrorKind = KindOf(err)
			var pe *ProviderError
			if errors.As(err, &pe) {
				ev.Status = pe.Status
			}
		}
		a.observer.OnCallComplete(ev)
	}()

	text, err = a.llm.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	return text, nil
}
