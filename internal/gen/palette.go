package gen

import "github.com/liuyve552/esa-ai-generator-sub000/internal/core/model"

var modePalettes = map[string]model.Palette{
	model.ModeOracle: {Name: "oracle", Primary: "#7c3aed", Accent: "#c4b5fd", Background: "#1e1b4b"},
	model.ModeTravel: {Name: "travel", Primary: "#0ea5e9", Accent: "#7dd3fc", Background: "#0c4a6e"},
	model.ModeFocus:  {Name: "focus", Primary: "#f97316", Accent: "#fdba74", Background: "#431407"},
	model.ModeCalm:   {Name: "calm", Primary: "#10b981", Accent: "#6ee7b7", Background: "#022c22"},
	model.ModeCard:   {Name: "card", Primary: "#ec4899", Accent: "#f9a8d4", Background: "#500724"},
}

// Weather severity categories that override the mode's default accent.
const (
	severityStorm    = "storm"
	severitySnow     = "snow"
	severityRain     = "rain"
	severityClearDay = "clear-day"
)

var severityAccents = map[string]string{
	severityStorm:    "#facc15",
	severitySnow:     "#e0f2fe",
	severityRain:     "#38bdf8",
	severityClearDay: "#fde68a",
}

// Severity buckets a WMO weather code. Code 0 counts as clear-day only while
// the sun is up; storms win regardless of time of day.
func Severity(code *int, isDay bool) string {
	if code == nil {
		return ""
	}
	c := *code
	switch {
	case c == 95 || c == 96 || c == 99:
		return severityStorm
	case (c >= 71 && c <= 77) || c == 85 || c == 86:
		return severitySnow
	case (c >= 51 && c <= 67) || (c >= 80 && c <= 82):
		return severityRain
	case c == 0 && isDay:
		return severityClearDay
	default:
		return ""
	}
}

// PaletteFor selects the mode palette, with the accent perturbed by weather
// severity.
func PaletteFor(mode string, code *int, isDay bool) model.Palette {
	p, ok := modePalettes[mode]
	if !ok {
		p = modePalettes[model.ModeOracle]
	}
	if sev := Severity(code, isDay); sev != "" {
		p.Accent = severityAccents[sev]
		p.Name = p.Name + "-" + sev
	}
	return p
}
