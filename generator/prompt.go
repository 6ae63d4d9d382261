package generator

import (
	"fmt"
	"strings"
)

const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 2000
)

// PlanSystemInstruction 固定的学习计划系统提示。
const PlanSystemInstruction = "你是一名资深学习规划师。请只用中文输出，并严格使用Markdown格式（# 总览，## 第1周...，## 学习资源，## 评估与调整；使用有序/无序列表；资源用Markdown链接）。不要输出HTML。"

// ChatSystemInstruction 对话助手的系统提示。
const ChatSystemInstruction = "你是一位专业的学习助手，擅长解答各种学习问题，提供学习建议和指导。"

// Prompt 表示发送给 LLM 的消息集合。
type Prompt struct {
	Task        string
	System      string
	History     []ChatTurn
	User        string
	Temperature float64
	MaxTokens   int
}

// Messages flattens the prompt in wire order: system, history, then the user turn.
func (p Prompt) Messages() []ChatTurn {
	msgs := make([]ChatTurn, 0, len(p.History)+2)
	if p.System != "" {
		msgs = append(msgs, ChatTurn{Role: RoleSystem, Content: p.System})
	}
	msgs = append(msgs, p.History...)
	if p.User != "" {
		msgs = append(msgs, ChatTurn{Role: RoleUser, Content: p.User})
	}
	return msgs
}

var weekdays = []string{"周一", "周二", "周三", "周四", "周五"}

// BuildPlanPrompt 生成学习计划提示词。
func BuildPlanPrompt(req UserRequest) Prompt {
	var sb strings.Builder
	sb.WriteString("你是一个专业的学习规划顾问。请根据以下信息为用户创建一个详细的一周学习计划。\n\n")
	sb.WriteString(fmt.Sprintf("学习主题: %s\n", req.Topic))
	sb.WriteString(fmt.Sprintf("学习目标: %s\n", req.Goal))
	sb.WriteString(fmt.Sprintf("每天可用时间: %s小时\n", formatHours(req.DailyHours)))
	sb.WriteString(fmt.Sprintf("学习水平: %s\n", req.Level.Label()))
	sb.WriteString(fmt.Sprintf("特殊需求: %s\n\n", req.SpecialNeeds))
	sb.WriteString("请按照以下格式生成计划，确保计划具体、可执行且平衡:\n\n")
	sb.WriteString("# 总览\n[简要总结一周学习目标]\n\n")
	sb.WriteString("## 第1周\n")
	for _, day := range weekdays {
		sb.WriteString(fmt.Sprintf("### %s\n", day))
		sb.WriteString("- **上午**: [具体学习内容和建议时长]\n")
		sb.WriteString("- **下午**: [具体学习内容和建议时长]\n")
		sb.WriteString("- **关键概念**: [列出当日需要掌握的关键概念]\n")
		sb.WriteString("- **推荐资源**: [推荐的学习资源，使用Markdown链接]\n\n")
	}
	sb.WriteString("### 周末\n[安排周末的复习、实践或项目时间]\n\n")
	sb.WriteString("## 学习资源\n[列出本周用到的资源]\n\n")
	sb.WriteString("## 评估与调整\n[列出可以判断学习成功的具体标准，以及如何调整下周计划]\n")

	return Prompt{
		Task:        "plan",
		System:      PlanSystemInstruction,
		User:        sb.String(),
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	}
}

// BuildChatPrompt 把完整历史和新问题组装成对话请求。
func BuildChatPrompt(history []ChatTurn, message string) Prompt {
	return Prompt{
		Task:        "chat",
		System:      ChatSystemInstruction,
		History:     history,
		User:        message,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	}
}

// formatHours prints 2 as "2.0" and 2.5 as "2.5", like the form slider.
func formatHours(h float64) string {
	return fmt.Sprintf("%.1f", h)
}
