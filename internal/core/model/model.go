// Package model defines core domain types shared across the service.
package model

import (
	"fmt"
	"strings"
)

// Generation modes. Anything else normalizes to empty.
const (
	ModeOracle = "oracle"
	ModeTravel = "travel"
	ModeFocus  = "focus"
	ModeCalm   = "calm"
	ModeCard   = "card"
)

var knownModes = map[string]bool{
	ModeOracle: true,
	ModeTravel: true,
	ModeFocus:  true,
	ModeCalm:   true,
	ModeCard:   true,
}

// NormalizeMode lowercases and validates a mode string; unknown values
// normalize to "".
func NormalizeMode(s string) string {
	m := strings.ToLower(strings.TrimSpace(s))
	if knownModes[m] {
		return m
	}
	return ""
}

// NormalizeLang reduces a language tag to a lowercased 2-letter-ish code
// ("zh-CN" -> "zh"). Empty input yields "en".
func NormalizeLang(s string) string {
	l := strings.ToLower(strings.TrimSpace(s))
	if l == "" {
		return "en"
	}
	if i := strings.IndexAny(l, "-_"); i > 0 {
		l = l[:i]
	}
	if len(l) > 3 {
		l = l[:2]
	}
	return l
}

type LocationInfo struct {
	City      string   `json:"city"`
	Country   string   `json:"country"`
	Region    string   `json:"region"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	// IP is internal plumbing for the lookup path and is scrubbed before a
	// LocationInfo leaves the resolver.
	IP     string `json:"ip,omitempty"`
	Source string `json:"source"` // headers | ip_lookup | unknown
}

// Label is the location component of the generation cache key. The format is
// pinned; changing it invalidates every cached generation.
func (l LocationInfo) Label() string {
	var lat, lon float64
	if l.Latitude != nil {
		lat = *l.Latitude
	}
	if l.Longitude != nil {
		lon = *l.Longitude
	}
	return fmt.Sprintf("%s-%s-%.2f-%.2f", l.City, l.Country, lat, lon)
}

type WeatherInfo struct {
	Temperature *float64 `json:"temperature"`
	Code        *int     `json:"code"`
	Description string   `json:"description"`
	Timezone    string   `json:"timezone"`
	LocalTime   string   `json:"localTime"`
	IsDay       *bool    `json:"isDay"`
}

type EdgeInfo struct {
	Provider  string `json:"provider"`
	Node      string `json:"node"`
	RequestID string `json:"requestId"`
}

type CacheInfo struct {
	Hit        bool   `json:"hit"`
	TTLSeconds int    `json:"ttlSeconds"`
	Key        string `json:"key"`
}

// Content provenance values.
const (
	ProvenanceAI       = "ai"
	ProvenanceTemplate = "template"
)

type ContentInfo struct {
	Text       string `json:"text"`
	Model      string `json:"model"`
	Provenance string `json:"provenance"`
}

type ShareInfo struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Views int    `json:"views"`
}

type TimingInfo struct {
	GeoMs     int64 `json:"geoMs"`
	WeatherMs int64 `json:"weatherMs"`
	AIMs      int64 `json:"aiMs"`
	TotalMs   int64 `json:"totalMs"`
	// SimulatedNonEdgeMs is illustrative only and must never gate behavior.
	SimulatedNonEdgeMs int64 `json:"simulatedNonEdgeMs"`
}

type Palette struct {
	Name       string `json:"name"`
	Primary    string `json:"primary"`
	Accent     string `json:"accent"`
	Background string `json:"background"`
}

type VisualInfo struct {
	Seed    uint32  `json:"seed"`
	SeedKey string  `json:"seedKey"`
	Palette Palette `json:"palette"`
	Sigil   string  `json:"sigil"`
}

type DailyInfo struct {
	Date      string   `json:"date"`
	Tasks     []string `json:"tasks"`
	Lucky     int      `json:"lucky"`
	ShareLine string   `json:"shareLine"`
}

type StatsInfo struct {
	Generated int `json:"generated"`
	Shared    int `json:"shared"`
	Streak    int `json:"streak"`
}

// GenerationResult is the unit of work, caching and sharing.
type GenerationResult struct {
	Prompt      string       `json:"prompt"`
	Lang        string       `json:"lang"`
	Mode        string       `json:"mode"`
	Location    LocationInfo `json:"location"`
	Weather     WeatherInfo  `json:"weather"`
	Edge        EdgeInfo     `json:"edge"`
	Cache       CacheInfo    `json:"cache"`
	Content     ContentInfo  `json:"content"`
	Share       *ShareInfo   `json:"share,omitempty"`
	Timing      TimingInfo   `json:"timing"`
	Visual      *VisualInfo  `json:"visual,omitempty"`
	Daily       *DailyInfo   `json:"daily,omitempty"`
	Stats       *StatsInfo   `json:"stats,omitempty"`
	GeneratedAt string       `json:"generatedAt"`
}

// ShareSnapshot is the canonical, volatile-field-stripped projection of a
// GenerationResult. It is both the hashing input for the share identifier and
// the payload embedded in replay tokens, so field order and shape are pinned.
type ShareSnapshot struct {
	V           int          `json:"v"`
	Prompt      string       `json:"prompt"`
	Lang        string       `json:"lang"`
	Mode        string       `json:"mode"`
	Location    LocationInfo `json:"location"`
	Weather     WeatherInfo  `json:"weather"`
	Content     ContentInfo  `json:"content"`
	GeneratedAt string       `json:"generatedAt"`
}

// SnapshotVersion is the only accepted share snapshot version tag.
const SnapshotVersion = 1
