package generator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	events []CallEvent
}

func (o *recordingObserver) OnCallComplete(ev CallEvent) { o.events = append(o.events, ev) }

func newTestAgent(t *testing.T, llm LLMClient) (*Agent, *recordingObserver) {
	t.Helper()
	obs := &recordingObserver{}
	a, err := NewAgent(llm, obs)
	require.NoError(t, err)
	return a, obs
}

func TestNewAgent_RequiresLLM(t *testing.T) {
	_, err := NewAgent(nil, nil)
	assert.Error(t, err)
}

func TestAgent_GeneratePlan_ReturnsSuccessUnchanged(t *testing.T) {
	text := "# 总览\n\n  保留原样的文本  \n"
	mock := &MockLLM{Reply: text}
	a, obs := newTestAgent(t, mock)

	reply := a.GeneratePlan(context.Background(), sampleRequest())

	assert.Equal(t, text, reply.Markdown)
	assert.Equal(t, SourceLLM, reply.Source)
	assert.Empty(t, reply.Warning)
	assert.Equal(t, 1, mock.Calls())
	assert.Equal(t, PlanSystemInstruction, mock.LastPrompt().System)

	require.Len(t, obs.events, 1)
	assert.True(t, obs.events[0].Success)
	assert.Equal(t, "plan", obs.events[0].Task)
	assert.Equal(t, "mock", obs.events[0].Provider)
	assert.Greater(t, obs.events[0].PromptTokens, 0)
}

func TestAgent_GeneratePlan_TransportFallback(t *testing.T) {
	mock := &MockLLM{Err: &ProviderError{Kind: KindTransport, Provider: "mock", Err: errors.New("dial tcp: refused")}}
	a, obs := newTestAgent(t, mock)
	req := sampleRequest()

	reply := a.GeneratePlan(context.Background(), req)

	assert.NotEmpty(t, strings.TrimSpace(reply.Markdown))
	assert.Equal(t, FallbackPlan(req)+PlanDisclaimer, reply.Markdown)
	assert.Contains(t, reply.Markdown, "这是一个基础回复")
	assert.Equal(t, SourceFallback, reply.Source)
	assert.Contains(t, reply.Warning, "dial tcp: refused")
	assert.NoError(t, CheckResult(reply.Markdown))

	require.Len(t, obs.events, 1)
	assert.False(t, obs.events[0].Success)
	assert.Equal(t, KindTransport, obs.events[0].ErrorKind)
}

func TestAgent_GeneratePlan_UnclassifiedErrorFallsBack(t *testing.T) {
	a, _ := newTestAgent(t, &MockLLM{Err: errors.New("boom")})

	reply := a.GeneratePlan(context.Background(), sampleRequest())

	assert.Equal(t, SourceFallback, reply.Source)
	assert.Contains(t, reply.Markdown, PlanDisclaimer)
}

func TestAgent_GeneratePlan_BillingFallback(t *testing.T) {
	billing := &MockLLM{Err: &ProviderError{Kind: KindBilling, Provider: "deepseek", Status: http.StatusPaymentRequired, Err: errors.New("API error 402")}}
	transport := &MockLLM{Err: &ProviderError{Kind: KindTransport, Provider: "deepseek", Status: http.StatusInternalServerError, Err: errors.New("API error 500")}}
	req := sampleRequest()

	ab, obs := newTestAgent(t, billing)
	billingReply := ab.GeneratePlan(context.Background(), req)
	at, _ := newTestAgent(t, transport)
	transportReply := at.GeneratePlan(context.Background(), req)

	for _, h := range []string{"# 总览", "## 第1周", "### 周一", "### 周末", "## 学习资源", "## 评估与调整"} {
		assert.Contains(t, billingReply.Markdown, h)
	}
	assert.Equal(t, SourceFallback, billingReply.Source)
	assert.Equal(t, planBillingWarning, billingReply.Warning)
	assert.Contains(t, billingReply.Warning, "支付错误")
	assert.NotEqual(t, billingReply.Warning, transportReply.Warning)
	assert.Equal(t, billingReply.Markdown, transportReply.Markdown)

	require.Len(t, obs.events, 1)
	assert.Equal(t, KindBilling, obs.events[0].ErrorKind)
	assert.Equal(t, http.StatusPaymentRequired, obs.events[0].Status)
}

func TestAgent_GeneratePlan_UnusableSuccessPassesThrough(t *testing.T) {
	for _, text := range []string{"", "   \n", ErrorMarker + " 生成计划时出错"} {
		a, obs := newTestAgent(t, &MockLLM{Reply: text})

		reply := a.GeneratePlan(context.Background(), sampleRequest())

		assert.Equal(t, text, reply.Markdown, "text %q", text)
		assert.Equal(t, SourceLLM, reply.Source, "text %q", text)
		assert.Empty(t, reply.Warning)
		assert.ErrorIs(t, CheckResult(reply.Markdown), ErrEmptyResult)
		require.Len(t, obs.events, 1)
		assert.True(t, obs.events[0].Success)
	}
}

type panickyLLM struct{ MockLLM }

func (p *panickyLLM) Complete(context.Context, Prompt) (string, error) { panic("sdk bug") }

func TestAgent_GeneratePlan_RecoversFromPanic(t *testing.T) {
	a, obs := newTestAgent(t, &panickyLLM{})

	reply := a.GeneratePlan(context.Background(), sampleRequest())

	assert.Equal(t, SourceFallback, reply.Source)
	require.Len(t, obs.events, 1)
	assert.False(t, obs.events[0].Success)
}

func TestAgent_GenerateChatReply_AppendsTurns(t *testing.T) {
	mock := &MockLLM{Reply: "回答"}
	a, _ := newTestAgent(t, mock)
	var conv Conversation

	const n = 4
	for i := 0; i < n; i++ {
		reply := a.GenerateChatReply(context.Background(), &conv, fmt.Sprintf("问题%d", i))
		assert.Equal(t, "回答", reply.Markdown)
	}

	turns := conv.Turns()
	require.Len(t, turns, 2*n)
	for i, turn := range turns {
		if i%2 == 0 {
			assert.Equal(t, RoleUser, turn.Role)
			assert.Equal(t, fmt.Sprintf("问题%d", i/2), turn.Content)
		} else {
			assert.Equal(t, RoleAssistant, turn.Role)
		}
	}

	// the last call saw the full history before the new question
	last := mock.LastPrompt()
	assert.Len(t, last.History, 2*(n-1))
	assert.Equal(t, "问题3", last.User)
	assert.Equal(t, ChatSystemInstruction, last.System)

	conv.Reset()
	assert.Equal(t, 0, conv.Len())
}

func TestAgent_GenerateChatReply_FallbackPaths(t *testing.T) {
	msg := strings.Repeat("问", 25)

	var conv Conversation
	ab, _ := newTestAgent(t, &MockLLM{Err: &ProviderError{Kind: KindBilling, Err: errors.New("402")}})
	billing := ab.GenerateChatReply(context.Background(), &conv, msg)

	at, _ := newTestAgent(t, &MockLLM{Err: errors.New("timeout")})
	generic := at.GenerateChatReply(context.Background(), &conv, msg)

	assert.Equal(t, FallbackChat(msg)+chatBillingDisclaimer, billing.Markdown)
	assert.Equal(t, FallbackChat(msg)+chatGenericDisclaimer, generic.Markdown)
	assert.Equal(t, chatBillingWarning, billing.Warning)
	assert.Contains(t, generic.Warning, "timeout")
	assert.Equal(t, SourceFallback, generic.Source)

	turns := conv.Turns()
	require.Len(t, turns, 4)
	assert.Equal(t, billing.Markdown, turns[1].Content)
	assert.Equal(t, generic.Markdown, turns[3].Content)
}

func TestCheckResult(t *testing.T) {
	assert.ErrorIs(t, CheckResult(""), ErrEmptyResult)
	assert.ErrorIs(t, CheckResult(" \n\t"), ErrEmptyResult)
	assert.ErrorIs(t, CheckResult("❌ 生成计划时出错: x"), ErrEmptyResult)
	assert.NoError(t, CheckResult("# 总览"))
	assert.NoError(t, CheckResult("计划 ❌ 中间的标记不算"))
}
