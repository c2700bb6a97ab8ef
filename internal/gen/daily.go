package gen

import (
	"fmt"

	"github.com/liuyve552/esa-ai-generator-sub000/internal/cache/keys"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/core/model"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/gen/seeded"
)

var taskPools = map[string]map[string][]string{
	"other": {
		model.ModeOracle: {
			"Write down one question you keep avoiding",
			"Reread the last message that surprised you",
			"Name the decision you are actually postponing",
			"Ask someone what they would do in your place",
			"Pick the smallest next step and schedule it",
			"Note one assumption you have never tested",
		},
		model.ModeTravel: {
			"Walk one street you have never taken",
			"Order the dish you cannot pronounce",
			"Ask a local for their favorite view",
			"Leave one hour completely unplanned",
			"Photograph something ordinary, not famous",
			"Learn three words in the local language",
		},
		model.ModeFocus: {
			"Silence every notification for one block",
			"Write the single outcome this session must produce",
			"Close every tab not serving the task",
			"Put the phone in another room",
			"Set a visible timer and honor the break",
			"Finish the ugliest subtask first",
		},
		model.ModeCalm: {
			"Take ten slow breaths before the next task",
			"Step outside for two minutes of sky",
			"Unclench your jaw and drop your shoulders",
			"Drink a glass of water slowly",
			"Write down the worry, then close the notebook",
			"Stretch whatever has been still the longest",
		},
		model.ModeCard: {
			"Send one honest compliment today",
			"Save a note of thanks you received",
			"Tell someone what they taught you",
			"Revisit a photo that makes you smile",
			"Write tomorrow-you a one-line note",
			"Share something small you made",
		},
	},
	"zh": {
		model.ModeOracle: {
			"写下一个你一直回避的问题",
			"重读最近一条让你意外的消息",
			"说出你真正在拖延的那个决定",
			"问问别人站在你的位置会怎么做",
			"选出最小的下一步并排进日程",
			"记下一个你从未验证过的假设",
		},
		model.ModeTravel: {
			"走一条从未走过的街",
			"点一道你念不出名字的菜",
			"向当地人打听他们最爱的风景",
			"留出完全不做计划的一小时",
			"拍一张平凡而非著名的照片",
			"学三句当地话",
		},
		model.ModeFocus: {
			"在一个专注块里静音所有通知",
			"写下这次专注必须产出的唯一结果",
			"关掉所有与任务无关的标签页",
			"把手机放到另一个房间",
			"设一个看得见的计时器并遵守休息",
			"先做最不想做的那个子任务",
		},
		model.ModeCalm: {
			"开始下一件事之前慢慢呼吸十次",
			"出门看两分钟天空",
			"放松下颌，垂下肩膀",
			"慢慢喝完一杯水",
			"把担忧写下来，然后合上本子",
			"伸展身上最久没动的部位",
		},
		model.ModeCard: {
			"今天送出一句真诚的称赞",
			"保存一条收到的感谢",
			"告诉某人他们教会了你什么",
			"翻看一张让你微笑的照片",
			"给明天的自己写一句话",
			"分享一件你做的小东西",
		},
	},
}

var shareLines = map[string]string{
	"other": "My %s reading for %s — generated at the edge.",
	"zh":    "这是我今天在 %s 的「%s」签文，来自边缘节点。",
}

// DailyBundle draws the date-scoped tasks, lucky number and share line from
// the seeded stream. Tasks are drawn with duplicates collapsed, so the bundle
// carries between 1 and 3 unique entries.
func DailyBundle(r *seeded.Rand, date, mode, lang, city string) model.DailyInfo {
	bucket := keys.LangBucket(lang)
	pool := taskPools[bucket][mode]
	if len(pool) == 0 {
		pool = taskPools["other"][model.ModeOracle]
	}

	var tasks []string
	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		t := seeded.Pick(r, pool)
		if seen[t] {
			continue
		}
		seen[t] = true
		tasks = append(tasks, t)
	}

	lucky := 1 + r.Intn(9)

	place := city
	if place == "" {
		if bucket == "zh" {
			place = "某处"
		} else {
			place = "somewhere"
		}
	}
	var line string
	if bucket == "zh" {
		line = fmt.Sprintf(shareLines["zh"], place, modeLabel(mode, bucket))
	} else {
		line = fmt.Sprintf(shareLines["other"], modeLabel(mode, bucket), place)
	}

	return model.DailyInfo{
		Date:      date,
		Tasks:     tasks,
		Lucky:     lucky,
		ShareLine: line,
	}
}
