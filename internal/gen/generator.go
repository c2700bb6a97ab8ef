// Package gen produces the natural-language payload and its deterministic
// companions: palette, sigil, daily bundle and pseudo-stats.
package gen

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/liuyve552/esa-ai-generator-sub000/internal/core/model"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/core/observability"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/gen/seeded"
)

// AIProvider is satisfied by aiclient.Client. A nil provider selects the
// template path.
type AIProvider interface {
	Complete(ctx context.Context, system, user string) (string, error)
	Model() string
}

type Option func(*Generator)

func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

type Generator struct {
	ai     AIProvider
	logger *slog.Logger
	now    func() time.Time
}

func New(ai AIProvider, logger *slog.Logger, opts ...Option) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Generator{ai: ai, logger: logger, now: time.Now}
	for _, o := range opts {
		o(g)
	}
	return g
}

type Input struct {
	Prompt          string
	Mode            string
	Lang            string
	WeatherOverride string
	Location        model.LocationInfo
	Weather         model.WeatherInfo
}

type Output struct {
	Content model.ContentInfo
	Visual  model.VisualInfo
	Daily   model.DailyInfo
	Stats   model.StatsInfo
}

// SeedKey pins the deterministic derivation scope: same day, mode, city and
// weather code always replay the same stream.
func (g *Generator) SeedKey(in Input) string {
	code := "x"
	if in.Weather.Code != nil {
		code = strconv.Itoa(*in.Weather.Code)
	}
	date := g.now().UTC().Format("2006-01-02")
	return date + "|" + in.Mode + "|" + strings.ToLower(in.Location.City) + "|" + code
}

// Generate produces text via the AI provider when configured, falling back
// silently to templates on any provider error, and always derives the
// deterministic visual/daily/stats companions.
func (g *Generator) Generate(ctx context.Context, in Input) Output {
	out := g.Derive(in)

	if g.ai != nil {
		text, err := g.ai.Complete(ctx, systemPrompt(in.Lang), userPrompt(in))
		if err == nil {
			out.Content = model.ContentInfo{
				Text:       text,
				Model:      g.ai.Model(),
				Provenance: model.ProvenanceAI,
			}
			return out
		}
		// Fallback is silent: the caller always receives usable text.
		g.logger.WarnContext(ctx, "ai provider failed, using template", "mode", in.Mode, "err", err)
		observability.IncAIFallback("provider_error")
	}

	out.Content = model.ContentInfo{
		Text:       TemplateText(g.SeedKey(in), in.Mode, in.Lang, in.Location.City, in.Weather, in.WeatherOverride),
		Model:      "template",
		Provenance: model.ProvenanceTemplate,
	}
	return out
}

// Derive computes only the deterministic companions. The orchestrator uses it
// to upgrade older cached shapes in place.
func (g *Generator) Derive(in Input) Output {
	key := g.SeedKey(in)
	seed := seeded.Hash(key)
	r := seeded.New(seed)

	isDay := in.Weather.IsDay != nil && *in.Weather.IsDay
	palette := PaletteFor(in.Mode, in.Weather.Code, isDay)

	// Draw order is pinned: daily bundle first, then the sigil.
	daily := DailyBundle(r, g.now().UTC().Format("2006-01-02"), in.Mode, in.Lang, in.Location.City)
	sigil := Sigil(r, palette)

	return Output{
		Visual: model.VisualInfo{
			Seed:    seed,
			SeedKey: key,
			Palette: palette,
			Sigil:   sigil,
		},
		Daily: daily,
		Stats: PseudoStats(key),
	}
}

func systemPrompt(lang string) string {
	if strings.HasPrefix(strings.ToLower(lang), "zh") {
		return "你是一位简洁而温暖的生活向导。回复格式：一个短标题；一句话概述；3到6条可执行的要点（以 - 开头）；最后一行是一句适合分享的话。不要输出其他内容。"
	}
	return "You are a concise, warm daily guide. Reply format: a short title; a one-line summary; 3 to 6 actionable bullets (each starting with \"- \"); and exactly one final share line. Output nothing else."
}

func userPrompt(in Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Mode: %s\n", in.Mode)
	if in.Location.City != "" || in.Location.Country != "" {
		fmt.Fprintf(&b, "Location: %s %s\n", in.Location.City, in.Location.Country)
	}
	desc := in.Weather.Description
	if in.WeatherOverride != "" {
		desc = in.WeatherOverride
	}
	if desc != "" {
		if in.Weather.Temperature != nil {
			fmt.Fprintf(&b, "Weather: %s, %.0f°C\n", desc, *in.Weather.Temperature)
		} else {
			fmt.Fprintf(&b, "Weather: %s\n", desc)
		}
	}
	fmt.Fprintf(&b, "Language: %s\n", in.Lang)
	fmt.Fprintf(&b, "Request: %s", in.Prompt)
	return b.String()
}
