package generator

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	MinDailyHours = 0.5
	MaxDailyHours = 8.0
)

// Level 学习水平。
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
	LevelExpert       Level = "expert"
)

var levelLabels = map[Level]string{
	LevelBeginner:     "初学者",
	LevelIntermediate: "中级",
	LevelAdvanced:     "高级",
	LevelExpert:       "专家",
}

// Label 返回提示词中使用的中文名称。
func (l Level) Label() string {
	if s, ok := levelLabels[l]; ok {
		return s
	}
	return string(l)
}

// ParseLevel accepts either the English key or the Chinese label. Empty means beginner.
func ParseLevel(s string) (Level, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return LevelBeginner, nil
	}
	for lvl, label := range levelLabels {
		if strings.EqualFold(s, string(lvl)) || s == label {
			return lvl, nil
		}
	}
	return "", fmt.Errorf("unknown level %q", s)
}

// UserRequest 一次表单提交的学习需求。
type UserRequest struct {
	Topic        string  `json:"topic"`
	Goal         string  `json:"goal"`
	DailyHours   float64 `json:"daily_hours"`
	Level        Level   `json:"level"`
	SpecialNeeds string  `json:"special_needs,omitempty"`
}

// Validate rejects requests that must never reach a provider.
func (r UserRequest) Validate() error {
	if strings.TrimSpace(r.Topic) == "" {
		return &ValidationError{Field: "topic", Msg: "请填写学习主题和学习目标"}
	}
	if strings.TrimSpace(r.Goal) == "" {
		return &ValidationError{Field: "goal", Msg: "请填写学习主题和学习目标"}
	}
	if r.DailyHours < MinDailyHours || r.DailyHours > MaxDailyHours {
		return &ValidationError{
			Field: "daily_hours",
			Msg:   fmt.Sprintf("每天可用学习时间需在 %.1f 到 %.1f 小时之间", MinDailyHours, MaxDailyHours),
		}
	}
	if _, ok := levelLabels[r.Level]; !ok {
		return &ValidationError{Field: "level", Msg: fmt.Sprintf("未知学习水平 %q", r.Level)}
	}
	return nil
}

// Role of a chat turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatTurn 一条带角色的消息，创建后不可修改。
type ChatTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ProviderKind selects one of the two chat-completion backends.
type ProviderKind string

const (
	ProviderDeepSeek ProviderKind = "deepseek"
	ProviderOpenAI   ProviderKind = "openai"
)

// Models lists the selectable models for a provider; the first one is the default.
func (k ProviderKind) Models() []string {
	switch k {
	case ProviderDeepSeek:
		return []string{"deepseek-chat", "deepseek-coder"}
	case ProviderOpenAI:
		return []string{"gpt-3.5-turbo", "gpt-4"}
	default:
		return nil
	}
}

// ParseProviderKind 兼容界面上的显示名称。
func ParseProviderKind(s string) (ProviderKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "deepseek", "deepseek (免费)":
		return ProviderDeepSeek, nil
	case "openai":
		return ProviderOpenAI, nil
	default:
		return "", fmt.Errorf("llm provider %s not supported", s)
	}
}

// ProviderConfig 每个会话自带的模型配置，不落盘。
type ProviderConfig struct {
	Kind    ProviderKind
	APIKey  string
	Model   string
	BaseURL string
}

// WithDefaults fills the model when the caller left it empty.
func (c ProviderConfig) WithDefaults() ProviderConfig {
	if strings.TrimSpace(c.Model) == "" {
		if models := c.Kind.Models(); len(models) > 0 {
			c.Model = models[0]
		}
	}
	return c
}

// Source tells where a reply came from.
type Source string

const (
	SourceLLM      Source = "llm"
	SourceFallback Source = "fallback"
)

// Reply 是流水线的唯一产出：可渲染的 Markdown，外加给用户的提示。
type Reply struct {
	Markdown string `json:"markdown"`
	Source   Source `json:"source"`
	Warning  string `json:"warning,omitempty"`
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
