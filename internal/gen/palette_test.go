package gen

import (
	"strings"
	"testing"

	"github.com/liuyve552/esa-ai-generator-sub000/internal/core/model"
)

func intp(n int) *int { return &n }

func TestSeverity_Buckets(t *testing.T) {
	cases := []struct {
		code  *int
		isDay bool
		want  string
	}{
		{nil, true, ""},
		{intp(95), false, "storm"},
		{intp(96), true, "storm"},
		{intp(99), false, "storm"},
		{intp(71), true, "snow"},
		{intp(77), false, "snow"},
		{intp(85), true, "snow"},
		{intp(86), true, "snow"},
		{intp(51), true, "rain"},
		{intp(67), false, "rain"},
		{intp(80), true, "rain"},
		{intp(82), false, "rain"},
		{intp(0), true, "clear-day"},
		{intp(0), false, ""},
		{intp(3), true, ""},
		{intp(45), true, ""},
	}
	for _, c := range cases {
		if got := Severity(c.code, c.isDay); got != c.want {
			t.Fatalf("Severity(%v, %v)=%q want %q", c.code, c.isDay, got, c.want)
		}
	}
}

func TestPaletteFor_ClearCodeAtNightKeepsModeAccent(t *testing.T) {
	p := PaletteFor(model.ModeFocus, intp(0), false)
	if p.Name != "focus" {
		t.Fatalf("night-time code 0 must keep the base palette, got %q", p.Name)
	}
	if p.Accent != modePalettes[model.ModeFocus].Accent {
		t.Fatalf("accent must be untouched at night, got %s", p.Accent)
	}
}

func TestPaletteFor_StormWinsForEveryMode(t *testing.T) {
	for _, mode := range []string{
		model.ModeOracle, model.ModeTravel, model.ModeFocus, model.ModeCalm, model.ModeCard,
	} {
		for _, code := range []int{95, 96, 99} {
			p := PaletteFor(mode, intp(code), true)
			if p.Accent != severityAccents[severityStorm] {
				t.Fatalf("mode %s code %d: accent=%s want storm accent", mode, code, p.Accent)
			}
			if !strings.HasSuffix(p.Name, "-storm") {
				t.Fatalf("mode %s code %d: name=%s want -storm suffix", mode, code, p.Name)
			}
		}
	}
}

func TestPaletteFor_SeverityAccents(t *testing.T) {
	if p := PaletteFor(model.ModeCalm, intp(73), true); p.Accent != severityAccents[severitySnow] {
		t.Fatalf("snow accent: got %s", p.Accent)
	}
	if p := PaletteFor(model.ModeTravel, intp(61), false); p.Accent != severityAccents[severityRain] {
		t.Fatalf("rain accent: got %s", p.Accent)
	}
	if p := PaletteFor(model.ModeOracle, intp(0), true); p.Accent != severityAccents[severityClearDay] {
		t.Fatalf("clear-day accent: got %s", p.Accent)
	}
}

func TestPaletteFor_UnknownModeFallsBackToOracle(t *testing.T) {
	p := PaletteFor("nope", nil, false)
	if p.Primary != modePalettes[model.ModeOracle].Primary {
		t.Fatalf("unknown mode should use the oracle palette, got %+v", p)
	}
}
