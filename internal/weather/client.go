// Package weather resolves current weather for a coordinate pair, cached per
// rounded coordinate and language bucket.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/liuyve552/esa-ai-generator-sub000/internal/cache"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/cache/keys"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/core/model"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/core/observability"
)

type Option func(*Client)

func WithTTL(d time.Duration) Option {
	return func(c *Client) { c.ttl = d }
}

type Client struct {
	store   *cache.Store
	http    *http.Client
	baseURL string
	logger  *slog.Logger
	ttl     time.Duration
}

func NewClient(store *cache.Store, hc *http.Client, baseURL string, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		store:   store,
		http:    hc,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
		ttl:     10 * time.Minute,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Resolve returns the current weather for lat/lon. Failures degrade to an
// all-null WeatherInfo with an "unknown" description; they never propagate.
func (c *Client) Resolve(ctx context.Context, lat, lon float64, lang string) model.WeatherInfo {
	key := keys.Weather(lat, lon, lang)

	var cached model.WeatherInfo
	if c.store.Get(ctx, key, &cached) {
		return cached
	}

	wx := c.fetch(ctx, lat, lon, lang)
	c.store.Put(ctx, key, wx, c.ttl)
	return wx
}

func (c *Client) fetch(ctx context.Context, lat, lon float64, lang string) model.WeatherInfo {
	target := fmt.Sprintf(
		"%s/v1/forecast?latitude=%.4f&longitude=%.4f&current_weather=true&timezone=auto",
		c.baseURL, lat, lon,
	)

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return unknown(lang)
	}
	resp, err := c.http.Do(req)
	observability.ObserveUpstreamLatency("weather", time.Since(start).Seconds())
	if err != nil {
		c.logger.WarnContext(ctx, "weather fetch failed", "err", err)
		return unknown(lang)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		c.logger.WarnContext(ctx, "weather fetch non-200", "status", resp.StatusCode)
		return unknown(lang)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<18))
	if err != nil {
		c.logger.WarnContext(ctx, "weather read failed", "err", err)
		return unknown(lang)
	}

	var payload struct {
		Timezone       string `json:"timezone"`
		CurrentWeather *struct {
			Temperature float64 `json:"temperature"`
			WeatherCode int     `json:"weathercode"`
			IsDay       int     `json:"is_day"`
			Time        string  `json:"time"`
		} `json:"current_weather"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.CurrentWeather == nil {
		c.logger.WarnContext(ctx, "weather malformed body", "err", err)
		return unknown(lang)
	}

	cw := payload.CurrentWeather
	temp := cw.Temperature
	code := cw.WeatherCode
	isDay := cw.IsDay == 1

	return model.WeatherInfo{
		Temperature: &temp,
		Code:        &code,
		Description: Describe(code, lang),
		Timezone:    payload.Timezone,
		LocalTime:   cw.Time,
		IsDay:       &isDay,
	}
}

func unknown(lang string) model.WeatherInfo {
	desc := "unknown"
	if keys.LangBucket(lang) == "zh" {
		desc = "未知"
	}
	return model.WeatherInfo{Description: desc}
}
