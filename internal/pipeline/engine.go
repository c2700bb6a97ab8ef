// Package pipeline coordinates one generation request: cache key, cache-aside
// lookup, location -> weather -> content on a miss, share registration, and
// optional incremental delivery.
package pipeline

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"github.com/liuyve552/esa-ai-generator-sub000/internal/cache"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/cache/keys"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/core/model"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/gen"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/geo"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/logger"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/share"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/stream"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/weather"
)

// Request is one validated generation request. Prompt is already defaulted
// and mood-folded by the HTTP layer.
type Request struct {
	Prompt          string
	Lang            string
	Mode            string
	WeatherOverride string
	Coords          *Coords
	Meta            geo.RequestMeta
	RequestID       string
}

type Coords struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithJitter(j func() int64) Option {
	return func(e *Engine) { e.jitter = j }
}

type Engine struct {
	store   *cache.Store
	geo     *geo.Resolver
	weather *weather.Client
	gen     *gen.Generator
	codec   *share.Codec
	views   *share.Views

	genTTL   time.Duration
	provider string
	node     string

	logger *slog.Logger
	now    func() time.Time
	jitter func() int64
}

func New(
	store *cache.Store,
	resolver *geo.Resolver,
	wx *weather.Client,
	g *gen.Generator,
	codec *share.Codec,
	views *share.Views,
	genTTL time.Duration,
	provider string,
	log *slog.Logger,
	opts ...Option,
) *Engine {
	if log == nil {
		log = slog.Default()
	}
	node, _ := os.Hostname()
	e := &Engine{
		store:    store,
		geo:      resolver,
		weather:  wx,
		gen:      g,
		codec:    codec,
		views:    views,
		genTTL:   genTTL,
		provider: provider,
		node:     node,
		logger:   log,
		now:      time.Now,
		jitter:   func() int64 { return rand.Int64N(120) },
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// keyLabel builds the location component of the cache key from request
// metadata alone, so the key is computable before any lookup runs.
func keyLabel(req Request) string {
	loc := model.LocationInfo{
		City:      req.Meta.City,
		Country:   req.Meta.Country,
		Latitude:  req.Meta.Latitude,
		Longitude: req.Meta.Longitude,
	}
	if req.Coords != nil {
		loc.Latitude = &req.Coords.Latitude
		loc.Longitude = &req.Coords.Longitude
	}
	return loc.Label()
}

// Handle serves one generation request cache-aside.
func (e *Engine) Handle(ctx context.Context, req Request) model.GenerationResult {
	start := e.now()
	key := keys.Generation(req.Lang, req.Mode, keyLabel(req), req.Prompt)

	var cached model.GenerationResult
	if e.store.Get(ctx, key, &cached) {
		res := e.refreshHit(ctx, key, cached, req)
		res.Timing.TotalMs = e.sinceMs(start)
		res.Timing.SimulatedNonEdgeMs = res.Timing.TotalMs + 180 + e.jitter()
		e.logger.LogAttrs(logger.WithCacheResult(ctx, "hit"), slog.LevelInfo, "generation served",
			slog.String("mode", req.Mode), slog.Bool("hit", true))
		return res
	}

	res := e.generate(ctx, req, key, start)
	e.logger.LogAttrs(logger.WithCacheResult(ctx, "miss"), slog.LevelInfo, "generation served",
		slog.String("mode", req.Mode), slog.Bool("hit", false))
	return res
}

// refreshHit re-stamps mutable fields on a cached result and upgrades older
// cached shapes in place: derived fields are filled only when absent, and the
// entry is rewritten only when something was actually derived.
func (e *Engine) refreshHit(ctx context.Context, key string, res model.GenerationResult, req Request) model.GenerationResult {
	res.Lang = req.Lang
	res.Mode = req.Mode
	res.Cache = model.CacheInfo{Hit: true, TTLSeconds: int(e.genTTL.Seconds()), Key: key}
	res.Edge = e.edgeInfo(req)

	upgraded := false
	if res.Visual == nil || res.Daily == nil || res.Stats == nil {
		derived := e.gen.Derive(gen.Input{
			Prompt:   res.Prompt,
			Mode:     res.Mode,
			Lang:     res.Lang,
			Location: res.Location,
			Weather:  res.Weather,
		})
		if res.Visual == nil {
			res.Visual = &derived.Visual
			upgraded = true
		}
		if res.Daily == nil {
			res.Daily = &derived.Daily
			upgraded = true
		}
		if res.Stats == nil {
			res.Stats = &derived.Stats
			upgraded = true
		}
	}

	e.register(ctx, &res)

	if upgraded {
		stored := res
		stored.Cache.Hit = false // stored entries replay as a fresh generation
		e.store.Put(ctx, key, stored, e.genTTL)
	}
	return res
}

// generate runs the full miss path: resolve, fetch, generate, persist,
// register, persist the share-enriched copy.
func (e *Engine) generate(ctx context.Context, req Request, key string, start time.Time) model.GenerationResult {
	geoStart := e.now()
	loc := e.geo.Resolve(ctx, req.Meta)
	if req.Coords != nil {
		loc.Latitude = &req.Coords.Latitude
		loc.Longitude = &req.Coords.Longitude
	}
	geoMs := e.sinceMs(geoStart)

	var wx model.WeatherInfo
	wxStart := e.now()
	if loc.Latitude != nil && loc.Longitude != nil {
		wx = e.weather.Resolve(ctx, *loc.Latitude, *loc.Longitude, req.Lang)
	} else {
		wx = model.WeatherInfo{Description: unknownDescription(req.Lang)}
	}
	wxMs := e.sinceMs(wxStart)

	aiStart := e.now()
	out := e.gen.Generate(ctx, gen.Input{
		Prompt:          req.Prompt,
		Mode:            req.Mode,
		Lang:            req.Lang,
		WeatherOverride: req.WeatherOverride,
		Location:        loc,
		Weather:         wx,
	})
	aiMs := e.sinceMs(aiStart)

	totalMs := e.sinceMs(start)
	res := model.GenerationResult{
		Prompt:   req.Prompt,
		Lang:     req.Lang,
		Mode:     req.Mode,
		Location: loc,
		Weather:  wx,
		Edge:     e.edgeInfo(req),
		Cache:    model.CacheInfo{Hit: false, TTLSeconds: int(e.genTTL.Seconds()), Key: key},
		Content:  out.Content,
		Timing: model.TimingInfo{
			GeoMs:              geoMs,
			WeatherMs:          wxMs,
			AIMs:               aiMs,
			TotalMs:            totalMs,
			SimulatedNonEdgeMs: totalMs + 180 + e.jitter(),
		},
		Visual:      &out.Visual,
		Daily:       &out.Daily,
		Stats:       &out.Stats,
		GeneratedAt: e.now().UTC().Format(time.RFC3339),
	}

	e.store.Put(ctx, key, res, e.genTTL)
	e.register(ctx, &res)
	// Persist again so the cached value and the returned value are identical.
	e.store.Put(ctx, key, res, e.genTTL)
	return res
}

// register saves the share snapshot and attaches id/url/views to the result.
func (e *Engine) register(ctx context.Context, res *model.GenerationResult) {
	if res.Content.Text == "" {
		return
	}
	id := e.codec.Save(ctx, *res)
	token := share.Encode(*res)
	res.Share = &model.ShareInfo{
		ID:    id,
		URL:   e.codec.PublicURL(id, token),
		Views: e.views.Get(ctx, id),
	}
}

// HandleStream serves a generation request incrementally: meta first, then
// the text in token frames, then the terminal frame.
func (e *Engine) HandleStream(ctx context.Context, req Request, em *stream.Emitter) {
	res := e.Handle(ctx, req)

	if err := em.Meta(res); err != nil {
		return
	}
	for _, delta := range splitDeltas(res.Content.Text) {
		if ctx.Err() != nil {
			_ = em.Fail("request canceled")
			return
		}
		if err := em.Token(delta); err != nil {
			return
		}
	}
	_ = em.Done(res)
}

// splitDeltas chunks the final text into word-boundary deltas that rebuild it
// exactly when concatenated in order.
func splitDeltas(text string) []string {
	if text == "" {
		return nil
	}
	var out []string
	rest := text
	for len(rest) > 0 {
		i := strings.IndexByte(rest, ' ')
		if i < 0 {
			out = append(out, rest)
			break
		}
		out = append(out, rest[:i+1])
		rest = rest[i+1:]
	}
	return out
}

// FromSnapshot rebuilds a presentational result from a replay token's
// snapshot, re-deriving the deterministic companions. Nothing is persisted.
func (e *Engine) FromSnapshot(snap model.ShareSnapshot) model.GenerationResult {
	out := e.gen.Derive(gen.Input{
		Prompt:   snap.Prompt,
		Mode:     snap.Mode,
		Lang:     snap.Lang,
		Location: snap.Location,
		Weather:  snap.Weather,
	})
	return model.GenerationResult{
		Prompt:      snap.Prompt,
		Lang:        snap.Lang,
		Mode:        snap.Mode,
		Location:    snap.Location,
		Weather:     snap.Weather,
		Edge:        model.EdgeInfo{Provider: e.provider, Node: e.node},
		Cache:       model.CacheInfo{Hit: false},
		Content:     snap.Content,
		Visual:      &out.Visual,
		Daily:       &out.Daily,
		Stats:       &out.Stats,
		GeneratedAt: snap.GeneratedAt,
	}
}

func (e *Engine) edgeInfo(req Request) model.EdgeInfo {
	return model.EdgeInfo{
		Provider:  e.provider,
		Node:      e.node,
		RequestID: req.RequestID,
	}
}

func (e *Engine) sinceMs(t time.Time) int64 {
	return e.now().Sub(t).Milliseconds()
}

func unknownDescription(lang string) string {
	if keys.LangBucket(lang) == "zh" {
		return "未知"
	}
	return "unknown"
}
