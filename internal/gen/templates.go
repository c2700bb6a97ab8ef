package gen

import (
	"fmt"
	"strings"

	"github.com/liuyve552/esa-ai-generator-sub000/internal/cache/keys"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/core/model"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/gen/seeded"
)

var modeLabels = map[string]map[string]string{
	"other": {
		model.ModeOracle: "oracle",
		model.ModeTravel: "travel",
		model.ModeFocus:  "focus",
		model.ModeCalm:   "calm",
		model.ModeCard:   "card",
	},
	"zh": {
		model.ModeOracle: "神谕",
		model.ModeTravel: "旅行",
		model.ModeFocus:  "专注",
		model.ModeCalm:   "平静",
		model.ModeCard:   "卡片",
	},
}

func modeLabel(mode, bucket string) string {
	if l, ok := modeLabels[bucket][mode]; ok {
		return l
	}
	return mode
}

var defaultPrompts = map[string]map[string]string{
	"other": {
		model.ModeOracle: "What should I pay attention to today?",
		model.ModeTravel: "Plan a small adventure nearby",
		model.ModeFocus:  "Help me run a 25-minute focus session",
		model.ModeCalm:   "Help me wind down",
		model.ModeCard:   "Make me a small card for today",
	},
	"zh": {
		model.ModeOracle: "今天我该留意什么？",
		model.ModeTravel: "帮我计划一次附近的小冒险",
		model.ModeFocus:  "帮我进行一次25分钟的专注",
		model.ModeCalm:   "帮我放松下来",
		model.ModeCard:   "为今天做一张小卡片",
	},
}

// DefaultPrompt returns the mode-specific prompt substituted when the caller
// sends none.
func DefaultPrompt(mode, lang string) string {
	bucket := keys.LangBucket(lang)
	if p, ok := defaultPrompts[bucket][mode]; ok {
		return p
	}
	return defaultPrompts["other"][model.ModeOracle]
}

type templateParts struct {
	title   string
	summary string
	bullets []string
}

var templates = map[string]map[string]templateParts{
	"other": {
		model.ModeOracle: {
			title:   "Today's Oracle",
			summary: "The signs point at attention, not answers.",
			bullets: []string{
				"Start with the task you keep glancing at",
				"Say no to one thing before noon",
				"Check one assumption against a real person",
				"Leave slack for the unexpected",
				"Write down what surprised you at day's end",
				"Trust the boring option once",
			},
		},
		model.ModeTravel: {
			title:   "Pocket Itinerary",
			summary: "A short route built for wandering, not rushing.",
			bullets: []string{
				"Begin where the morning light is best",
				"Pick one place to sit for twenty minutes",
				"Eat where the menu is handwritten",
				"Take the long way back once",
				"Collect one sound, not just photos",
				"End somewhere you can see the sky",
			},
		},
		model.ModeFocus: {
			title:   "25-Minute Focus Sprint",
			summary: "One 25-minute block, one outcome, nothing else.",
			bullets: []string{
				"Name the single deliverable for this block",
				"Clear the desk and the dock",
				"Start the timer before you feel ready",
				"Park stray thoughts on paper, not tabs",
				"Stop when the timer stops, even mid-sentence",
				"Take the 5-minute break away from the screen",
			},
		},
		model.ModeCalm: {
			title:   "A Quieter Hour",
			summary: "Small settling moves, in order, no effort required.",
			bullets: []string{
				"Lower the screen brightness one notch",
				"Breathe out longer than you breathe in",
				"Put both feet flat on the floor",
				"Let one task stay unfinished tonight",
				"Swap one scroll for one page",
				"Dim the lights before you are tired",
			},
		},
		model.ModeCard: {
			title:   "A Small Card",
			summary: "A keepsake for today, nothing grand.",
			bullets: []string{
				"One thing that went quietly right",
				"One person who made today lighter",
				"One thing worth doing again tomorrow",
				"One thing you are allowed to drop",
				"One sentence future-you should read",
			},
		},
	},
	"zh": {
		model.ModeOracle: {
			title:   "今日神谕",
			summary: "指向的是注意力，而不是答案。",
			bullets: []string{
				"从你一直瞟向的那件事开始",
				"中午之前拒绝一件事",
				"找一个真实的人验证一个假设",
				"为意外留出余地",
				"一天结束时写下让你意外的事",
				"信任一次无聊的选项",
			},
		},
		model.ModeTravel: {
			title:   "口袋行程",
			summary: "一条为漫步而非赶路设计的小路线。",
			bullets: []string{
				"从晨光最好的地方出发",
				"选一个地方坐二十分钟",
				"在菜单是手写的地方吃饭",
				"回程走一次远路",
				"收集一种声音，不只是照片",
				"在看得到天空的地方结束",
			},
		},
		model.ModeFocus: {
			title:   "25分钟专注冲刺",
			summary: "一个25分钟的块，一个产出，别无其他。",
			bullets: []string{
				"写下这个块的唯一产出",
				"清空桌面和程序坞",
				"在准备好之前就按下计时器",
				"杂念写在纸上，而不是开新标签页",
				"计时器停就停，哪怕话说到一半",
				"离开屏幕去休息五分钟",
			},
		},
		model.ModeCalm: {
			title:   "更安静的一小时",
			summary: "一些小小的安顿动作，按顺序来，不费力。",
			bullets: []string{
				"把屏幕亮度调低一格",
				"呼气比吸气更长",
				"双脚平放在地板上",
				"允许一件事今晚不完成",
				"用一页书换一次刷屏",
				"在困倦之前调暗灯光",
			},
		},
		model.ModeCard: {
			title:   "一张小卡片",
			summary: "给今天留个纪念，不必隆重。",
			bullets: []string{
				"一件悄悄顺利的事",
				"一个让今天更轻松的人",
				"一件明天值得再做的事",
				"一件你可以放下的事",
				"一句未来的你应该读到的话",
			},
		},
	},
}

// TemplateText renders the deterministic fallback content: short title,
// one-line summary, 3-6 bullets, one share line. Seeded by the same
// date|mode|city|weather key as the rest of the daily material (own stream,
// "|text" suffix) so repeat requests render byte-identical text.
func TemplateText(seedKey, mode, lang, city string, wx model.WeatherInfo, weatherOverride string) string {
	bucket := keys.LangBucket(lang)
	parts, ok := templates[bucket][mode]
	if !ok {
		parts = templates["other"][model.ModeOracle]
	}

	r := seeded.FromKey(seedKey + "|text")
	n := 3 + r.Intn(len(parts.bullets)-2) // 3..len
	if n > 6 {
		n = 6
	}
	picked := make([]string, 0, n)
	seen := map[int]bool{}
	for len(picked) < n {
		i := r.Intn(len(parts.bullets))
		if seen[i] {
			continue
		}
		seen[i] = true
		picked = append(picked, parts.bullets[i])
	}

	desc := wx.Description
	if weatherOverride != "" {
		desc = weatherOverride
	}
	var contextLine string
	place := city
	if place == "" {
		if bucket == "zh" {
			place = "某处"
		} else {
			place = "somewhere"
		}
	}
	if desc != "" {
		if wx.Temperature != nil {
			contextLine = fmt.Sprintf("%s · %s · %.0f°C", place, desc, *wx.Temperature)
		} else {
			contextLine = fmt.Sprintf("%s · %s", place, desc)
		}
	} else {
		contextLine = place
	}

	line := shareLines[bucket]
	var share string
	if bucket == "zh" {
		share = fmt.Sprintf(line, place, modeLabel(mode, bucket))
	} else {
		share = fmt.Sprintf(line, modeLabel(mode, bucket), place)
	}

	var b strings.Builder
	b.WriteString(parts.title)
	b.WriteString("\n")
	b.WriteString(contextLine)
	b.WriteString("\n\n")
	b.WriteString(parts.summary)
	b.WriteString("\n\n")
	for _, p := range picked {
		b.WriteString("- ")
		b.WriteString(p)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(share)
	return b.String()
}
