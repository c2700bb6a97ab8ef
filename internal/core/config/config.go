package config

import (
	"os"
	"strings"
	"time"
)

type InvalidationCfg struct {
	Enabled bool
	Topic   string
	Brokers string
	GroupID string
}

type AICfg struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

type Config struct {
	Addr          string
	LogLevel      string
	PublicBaseURL string
	EdgeProvider  string

	RedisAddr      string
	CacheOpTimeout time.Duration

	GenerationTTL time.Duration
	GeoTTL        time.Duration
	WeatherTTL    time.Duration
	ShareTTL      time.Duration
	ViewTTL       time.Duration

	GeoLookupURL string
	WeatherURL   string

	AI AICfg

	Invalidation InvalidationCfg
}

func FromEnv() Config {
	return Config{
		Addr:          getenv("ADDR", ":8090"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		PublicBaseURL: strings.TrimRight(getenv("PUBLIC_BASE_URL", "http://localhost:8090"), "/"),
		EdgeProvider:  getenv("EDGE_PROVIDER", "origin"),

		RedisAddr:      getenv("REDIS_ADDR", ""),
		CacheOpTimeout: getduration("CACHE_OP_TIMEOUT", 250*time.Millisecond),

		GenerationTTL: getduration("CACHE_TTL_GENERATION", time.Hour),
		GeoTTL:        getduration("CACHE_TTL_GEO", 10*time.Minute),
		WeatherTTL:    getduration("CACHE_TTL_WEATHER", 10*time.Minute),
		ShareTTL:      getduration("SHARE_TTL", 7*24*time.Hour),
		ViewTTL:       getduration("VIEW_TTL", 7*24*time.Hour),

		GeoLookupURL: getenv("GEO_LOOKUP_URL", "http://ip-api.com/json"),
		WeatherURL:   getenv("WEATHER_URL", "https://api.open-meteo.com"),

		AI: AICfg{
			APIKey:  getenv("AI_API_KEY", ""),
			Model:   getenv("AI_MODEL", "gpt-4o-mini"),
			BaseURL: getenv("AI_BASE_URL", ""),
			Timeout: getduration("AI_TIMEOUT", 20*time.Second),
		},

		Invalidation: InvalidationCfg{
			Enabled: getbool("INVALIDATION_ENABLED", false),
			Topic:   getenv("KAFKA_TOPIC", "generator-invalidation"),
			Brokers: getenv("KAFKA_BROKERS", "localhost:9092"),
			GroupID: getenv("KAFKA_GROUP_ID", "generator-invalidator"),
		},
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
