package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Conversation 按时间顺序追加的对话记录，只能整体清空。
type Conversation struct {
	turns []ChatTurn
}

func (c *Conversation) Append(t ChatTurn) {
	c.turns = append(c.turns, t)
}

// Turns returns a copy so callers cannot reorder the log.
func (c *Conversation) Turns() []ChatTurn {
	out := make([]ChatTurn, len(c.turns))
	copy(out, c.turns)
	return out
}

func (c *Conversation) Len() int { return len(c.turns) }

func (c *Conversation) Reset() { c.turns = nil }

// Session 持有一个用户的对话、最近一次计划和模型配置。
type Session struct {
	ID        string
	CreatedAt time.Time

	mu           sync.Mutex
	agent        *Agent
	conversation Conversation
	plan         string
	goal         string
}

// NewSession 创建 session，尚未生成计划。
func NewSession(id string, agent *Agent) *Session {
	return &Session{
		ID:        id,
		CreatedAt: time.Now(),
		agent:     agent,
	}
}

// Configure swaps the provider, e.g. when the user changes key or model.
func (s *Session) Configure(agent *Agent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agent = agent
}

// Provider reports the configured provider name and model.
func (s *Session) Provider() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.agent == nil {
		return "", ""
	}
	return s.agent.llm.Name(), s.agent.llm.Model()
}

// GeneratePlan validates req, runs the pipeline and caches the plan.
// ErrEmptyResult means the provider answered with blank or ❌-marked text; the
// cached plan is left untouched and the user is asked to retry.
func (s *Session) GeneratePlan(ctx context.Context, req UserRequest) (Reply, error) {
	if err := req.Validate(); err != nil {
		return Reply{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.agent == nil {
		return Reply{}, fmt.Errorf("session %s: %w", s.ID, ErrMissingAPIKey)
	}

	reply := s.agent.GeneratePlan(ctx, req)
	if err := CheckResult(reply.Markdown); err != nil {
		return Reply{}, err
	}
	s.plan = reply.Markdown
	s.goal = req.Goal
	return reply, nil
}

// Chat 发送一条消息并记录问答。
func (s *Session) Chat(ctx context.Context, message string) (Reply, error) {
	if strings.TrimSpace(message) == "" {
		return Reply{}, &ValidationError{Field: "message", Msg: "请输入你的问题"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.agent == nil {
		return Reply{}, fmt.Errorf("session %s: %w", s.ID, ErrMissingAPIKey)
	}
	return s.agent.GenerateChatReply(ctx, &s.conversation, message), nil
}

func (s *Session) ResetConversation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversation.Reset()
}

func (s *Session) Turns() []ChatTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversation.Turns()
}

// Plan returns the last accepted plan and the goal it was generated for.
func (s *Session) Plan() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plan, s.goal
}

// ErrNoPlan is returned when exporting before any plan was generated.
var ErrNoPlan = errors.New("no plan generated yet")
