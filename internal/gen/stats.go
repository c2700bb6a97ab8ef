package gen

import (
	"github.com/cespare/xxhash/v2"

	"github.com/liuyve552/esa-ai-generator-sub000/internal/core/model"
)

// PseudoStats derives the display-only counters from the seed key. They are
// stable per (date, mode, city, weather) and carry no real meaning.
func PseudoStats(seedKey string) model.StatsInfo {
	h := xxhash.Sum64String(seedKey)
	return model.StatsInfo{
		Generated: 1200 + int(h%8800),
		Shared:    80 + int((h>>16)%920),
		Streak:    1 + int((h>>32)%30),
	}
}
