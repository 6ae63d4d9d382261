package generator

import (
	"fmt"
	"math"
	"strings"
)

type dayStage struct {
	day       string
	morning   string // %s is the topic
	afternoon string
	concepts  string
	resources string
}

// 五个工作日依次为：入门、核心、实践、进阶、项目。
var fallbackStages = []dayStage{
	{"周一", "%s基础知识入门", "核心概念理解与简单练习", "基础知识框架、核心术语", "[官方文档](https://example.com)、入门教程"},
	{"周二", "%s核心功能学习与实践", "案例分析与应用", "主要功能模块、使用方法", "[在线课程](https://example.com)、示例代码"},
	{"周三", "%s实践练习与问题解决", "常见问题整理与复盘", "高级特性、常见问题", "[进阶教程](https://example.com)、技术博客"},
	{"周四", "深入理解%s底层原理", "综合应用案例", "工作原理、优化方法", "技术文章、[源码分析](https://example.com)"},
	{"周五", "%s项目开发实践", "项目完善与调试", "实际应用、问题排查", "项目示例、[调试指南](https://example.com)"},
}

// FallbackPlan builds a complete plan without any network call.
// Identical requests produce identical output.
func FallbackPlan(req UserRequest) string {
	morning, afternoon := splitHours(req.DailyHours)

	var sb strings.Builder
	sb.WriteString("# 总览\n")
	sb.WriteString(fmt.Sprintf("基于你的需求，这里提供了关于%s的基础学习计划。完整版本需要有效的API调用。\n\n", req.Topic))
	sb.WriteString(fmt.Sprintf("- **学习目标**: %s\n", req.Goal))
	sb.WriteString(fmt.Sprintf("- **学习水平**: %s\n", req.Level.Label()))
	sb.WriteString(fmt.Sprintf("- **每天可用时间**: %s小时\n\n", formatHours(req.DailyHours)))

	sb.WriteString("## 第1周\n")
	for _, st := range fallbackStages {
		sb.WriteString(fmt.Sprintf("### %s\n", st.day))
		sb.WriteString(fmt.Sprintf("- **上午**: %s (%s小时)\n", fmt.Sprintf(st.morning, req.Topic), morning))
		sb.WriteString(fmt.Sprintf("- **下午**: %s (%s小时)\n", st.afternoon, afternoon))
		sb.WriteString(fmt.Sprintf("- **关键概念**: %s\n", st.concepts))
		sb.WriteString(fmt.Sprintf("- **推荐资源**: %s\n\n", st.resources))
	}
	sb.WriteString("### 周末\n- **全天**: 复习、总结与扩展学习\n\n")

	sb.WriteString("## 学习资源\n")
	sb.WriteString("- 官方文档\n- 在线课程平台\n- 技术社区和论坛\n- 推荐书籍\n\n")

	sb.WriteString("## 评估与调整\n")
	sb.WriteString("- 每周结束时评估学习进度\n- 根据掌握程度调整下周计划\n- 重点加强薄弱环节\n\n")

	sb.WriteString("**注意**: 这是一个简化版本的学习计划。要获取更个性化、更详细的计划，请确保:\n")
	sb.WriteString("1. 你的DeepSeek API密钥有效\n")
	sb.WriteString("2. 检查API密钥是否有足够的权限\n")
	sb.WriteString("3. 或尝试使用OpenAI API选项\n")
	return sb.String()
}

// splitHours halves the daily time in tenths of an hour so the two blocks
// always add back up to the input; an odd tenth goes to the morning.
func splitHours(h float64) (string, string) {
	total := int(math.Round(h * 10))
	morning := (total + 1) / 2
	afternoon := total - morning
	return tenths(morning), tenths(afternoon)
}

func tenths(n int) string {
	return fmt.Sprintf("%d.%d", n/10, n%10)
}

var fallbackChatResponses = []string{
	"您好！关于学习计划的问题，我建议您关注基础知识的学习，制定合理的时间规划，并结合实践练习来巩固所学内容。",
	"为了更好地帮助您，请提供更具体的学习主题和目标，我可以为您生成一个详细的学习计划。",
	"在学习过程中，坚持每天的学习习惯非常重要。建议您将大目标分解为小任务，逐步完成。",
	"学习是一个循序渐进的过程。请确保您理解了基础概念后再进入更复杂的内容。",
	"实践是掌握技能的最佳方式。尝试将所学知识应用到实际项目中，这将大大提高您的学习效果。",
}

// FallbackChat picks a canned reply; longer questions get later entries.
func FallbackChat(message string) string {
	return fallbackChatResponses[fallbackChatIndex(message)]
}

func fallbackChatIndex(message string) int {
	return min(runeLen(message)/10, len(fallbackChatResponses)-1)
}
