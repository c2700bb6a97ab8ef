package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/liuyve552/esa-ai-generator-sub000/internal/cache"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/cache/memstore"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/cache/redisstore"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/core/config"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/core/httpclient"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/core/observability"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/core/router"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/core/server"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/gen"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/gen/aiclient"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/geo"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/invalidation"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/logger"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/pipeline"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/share"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/weather"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.FromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Backend selection happens once at startup: Redis when reachable, the
	// in-process store otherwise.
	var backend cache.Backend
	if cfg.RedisAddr != "" {
		rc, err := redisstore.New(ctx, cfg.RedisAddr)
		if err == nil {
			backend = rc
			defer func() { _ = rc.Close() }()
		}
	}
	if backend == nil {
		backend = memstore.New(0, 0)
	}

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   strings.ToLower(os.Getenv("LOG_CONSOLE")) == "true",
		Component: "server",
		Backend:   backend.Name(),
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	observability.SetBackend(backend.Name())
	observability.ExposeBuildInfo(Version)
	appLog.Info("starting generator",
		"addr", cfg.Addr,
		"version", Version,
		"cache_backend", backend.Name(),
		"ai_configured", cfg.AI.APIKey != "")

	store := cache.New(backend, appLog, cache.WithOpTimeout(cfg.CacheOpTimeout))
	outbound := httpclient.NewOutbound()

	resolver := geo.NewResolver(store, outbound, cfg.GeoLookupURL, appLog, geo.WithTTL(cfg.GeoTTL))
	wx := weather.NewClient(store, outbound, cfg.WeatherURL, appLog, weather.WithTTL(cfg.WeatherTTL))

	// A missing credential silently selects the template path.
	var provider gen.AIProvider
	if ai := aiclient.New(aiclient.Config{
		APIKey:  cfg.AI.APIKey,
		Model:   cfg.AI.Model,
		BaseURL: cfg.AI.BaseURL,
		Timeout: cfg.AI.Timeout,
	}); ai != nil {
		provider = ai
	}
	generator := gen.New(provider, appLog)

	codec := share.NewCodec(store, cfg.PublicBaseURL, cfg.ShareTTL, appLog)
	views := share.NewViews(store, cfg.ViewTTL, appLog)

	engine := pipeline.New(store, resolver, wx, generator, codec, views,
		cfg.GenerationTTL, cfg.EdgeProvider, appLog)

	if cfg.Invalidation.Enabled {
		consumer, err := invalidation.New(cfg.Invalidation, store, appLog)
		if err != nil {
			appLog.Error("invalidation setup failed", "err", err)
			return 1
		}
		go func() {
			if err := consumer.Start(ctx); err != nil {
				appLog.Error("invalidation consumer exited", "err", err)
			}
		}()
	}

	h := router.New(engine, codec, views, appLog)
	if err := server.Run(ctx, cfg, appLog, h); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}
