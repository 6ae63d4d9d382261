package generator

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRequest() UserRequest {
	return UserRequest{
		Topic:        "Python数据分析",
		Goal:         "能用Pandas完成数据清洗",
		DailyHours:   2.0,
		Level:        LevelBeginner,
		SpecialNeeds: "喜欢视频学习",
	}
}

func TestFallbackPlan_Deterministic(t *testing.T) {
	req := sampleRequest()
	assert.Equal(t, FallbackPlan(req), FallbackPlan(req))

	req.DailyHours = 3.5
	assert.Equal(t, FallbackPlan(req), FallbackPlan(req))
}

func TestFallbackPlan_Skeleton(t *testing.T) {
	plan := FallbackPlan(sampleRequest())

	for _, h := range []string{"# 总览\n", "## 第1周\n", "### 周一\n", "### 周二\n", "### 周三\n", "### 周四\n", "### 周五\n", "### 周末\n", "## 学习资源\n", "## 评估与调整\n"} {
		assert.Contains(t, plan, h)
	}
	assert.Less(t, strings.Index(plan, "# 总览"), strings.Index(plan, "## 第1周"))
	assert.Less(t, strings.Index(plan, "### 周五"), strings.Index(plan, "### 周末"))
	assert.Less(t, strings.Index(plan, "## 学习资源"), strings.Index(plan, "## 评估与调整"))
	assert.Equal(t, 5, strings.Count(plan, "- **关键概念**"))
	assert.Equal(t, 5, strings.Count(plan, "- **推荐资源**"))
	assert.Contains(t, plan, "或尝试使用OpenAI API选项")
	assert.NotContains(t, plan, "<")
}

func TestFallbackPlan_SubstitutesTopic(t *testing.T) {
	plan := FallbackPlan(sampleRequest())

	assert.Contains(t, plan, "关于Python数据分析的基础学习计划")
	assert.Contains(t, plan, "Python数据分析基础知识入门")
	assert.Contains(t, plan, "Python数据分析项目开发实践")
	assert.Contains(t, plan, "能用Pandas完成数据清洗")
}

func TestFallbackPlan_HoursSplit(t *testing.T) {
	for tenthsIn := 5; tenthsIn <= 80; tenthsIn += 5 {
		h := float64(tenthsIn) / 10
		t.Run(fmt.Sprintf("%.1f", h), func(t *testing.T) {
			req := sampleRequest()
			req.DailyHours = h
			plan := FallbackPlan(req)

			m, a := splitHours(h)
			assert.Contains(t, plan, fmt.Sprintf("- **上午**: Python数据分析基础知识入门 (%s小时)", m))
			assert.Contains(t, plan, fmt.Sprintf("- **下午**: 核心概念理解与简单练习 (%s小时)", a))

			mf, err := strconv.ParseFloat(m, 64)
			require.NoError(t, err)
			af, err := strconv.ParseFloat(a, 64)
			require.NoError(t, err)
			assert.InDelta(t, h, mf+af, 1e-9)
			assert.InDelta(t, h/2, mf, 0.05+1e-9)
			assert.InDelta(t, h/2, af, 0.05+1e-9)
			assert.Regexp(t, `^\d+\.\d$`, m)
			assert.Regexp(t, `^\d+\.\d$`, a)
		})
	}
}

func TestSplitHours(t *testing.T) {
	m, a := splitHours(2.0)
	assert.Equal(t, "1.0", m)
	assert.Equal(t, "1.0", a)

	m, a = splitHours(2.5)
	assert.Equal(t, "1.3", m)
	assert.Equal(t, "1.2", a)

	m, a = splitHours(0.5)
	assert.Equal(t, "0.3", m)
	assert.Equal(t, "0.2", a)

	m, a = splitHours(8.0)
	assert.Equal(t, "4.0", m)
	assert.Equal(t, "4.0", a)
}

func TestFallbackChat_IndexByLength(t *testing.T) {
	cases := []struct {
		length int
		want   int
	}{
		{0, 0}, {9, 0}, {10, 1}, {19, 1}, {20, 2}, {29, 2}, {30, 3}, {39, 3}, {40, 4}, {41, 4}, {500, 4},
	}
	for _, tc := range cases {
		msg := strings.Repeat("a", tc.length)
		assert.Equal(t, tc.want, fallbackChatIndex(msg), "length %d", tc.length)
		assert.Equal(t, fallbackChatResponses[tc.want], FallbackChat(msg))
	}
}

func TestFallbackChat_CountsCharactersNotBytes(t *testing.T) {
	// 10 Chinese characters are 30 bytes but still select the second entry.
	assert.Equal(t, 1, fallbackChatIndex(strings.Repeat("学", 10)))
	require.Len(t, fallbackChatResponses, 5)
}
