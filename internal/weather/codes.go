package weather

import (
	"fmt"

	"github.com/liuyve552/esa-ai-generator-sub000/internal/cache/keys"
)

// WMO weather interpretation codes, hand-authored. Unmapped codes degrade to
// a generic "code N" string.
var descriptionsEN = map[int]string{
	0:  "clear sky",
	1:  "mainly clear",
	2:  "partly cloudy",
	3:  "overcast",
	45: "fog",
	48: "depositing rime fog",
	51: "light drizzle",
	53: "moderate drizzle",
	55: "dense drizzle",
	56: "light freezing drizzle",
	57: "dense freezing drizzle",
	61: "slight rain",
	63: "moderate rain",
	65: "heavy rain",
	66: "light freezing rain",
	67: "heavy freezing rain",
	71: "slight snowfall",
	73: "moderate snowfall",
	75: "heavy snowfall",
	77: "snow grains",
	80: "slight rain showers",
	81: "moderate rain showers",
	82: "violent rain showers",
	85: "slight snow showers",
	86: "heavy snow showers",
	95: "thunderstorm",
	96: "thunderstorm with slight hail",
	99: "thunderstorm with heavy hail",
}

var descriptionsZH = map[int]string{
	0:  "晴",
	1:  "基本晴朗",
	2:  "局部多云",
	3:  "阴天",
	45: "雾",
	48: "雾凇",
	51: "小毛毛雨",
	53: "中等毛毛雨",
	55: "浓毛毛雨",
	56: "轻冻毛毛雨",
	57: "浓冻毛毛雨",
	61: "小雨",
	63: "中雨",
	65: "大雨",
	66: "轻冻雨",
	67: "强冻雨",
	71: "小雪",
	73: "中雪",
	75: "大雪",
	77: "米雪",
	80: "小阵雨",
	81: "中阵雨",
	82: "强阵雨",
	85: "小阵雪",
	86: "大阵雪",
	95: "雷暴",
	96: "雷暴伴小冰雹",
	99: "雷暴伴大冰雹",
}

// Describe maps a weather code to its human description for the language
// bucket.
func Describe(code int, lang string) string {
	if keys.LangBucket(lang) == "zh" {
		if d, ok := descriptionsZH[code]; ok {
			return d
		}
		return fmt.Sprintf("代码 %d", code)
	}
	if d, ok := descriptionsEN[code]; ok {
		return d
	}
	return fmt.Sprintf("code %d", code)
}
