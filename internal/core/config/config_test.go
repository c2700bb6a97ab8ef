package config

import (
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv()

	if cfg.Addr != ":8090" {
		t.Fatalf("addr = %q", cfg.Addr)
	}
	if cfg.GenerationTTL != time.Hour {
		t.Fatalf("generation ttl = %v", cfg.GenerationTTL)
	}
	if cfg.GeoTTL != 10*time.Minute || cfg.WeatherTTL != 10*time.Minute {
		t.Fatalf("lookup ttls = %v/%v", cfg.GeoTTL, cfg.WeatherTTL)
	}
	if cfg.ShareTTL != 7*24*time.Hour || cfg.ViewTTL != 7*24*time.Hour {
		t.Fatalf("share/view ttls = %v/%v", cfg.ShareTTL, cfg.ViewTTL)
	}
	if cfg.AI.Model != "gpt-4o-mini" || cfg.AI.Timeout != 20*time.Second {
		t.Fatalf("ai cfg = %+v", cfg.AI)
	}
	if cfg.Invalidation.Enabled {
		t.Fatalf("invalidation must default off")
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("ADDR", ":9000")
	t.Setenv("CACHE_TTL_GENERATION", "30m")
	t.Setenv("PUBLIC_BASE_URL", "https://gen.example.test/")
	t.Setenv("INVALIDATION_ENABLED", "yes")

	cfg := FromEnv()
	if cfg.Addr != ":9000" {
		t.Fatalf("addr = %q", cfg.Addr)
	}
	if cfg.GenerationTTL != 30*time.Minute {
		t.Fatalf("generation ttl = %v", cfg.GenerationTTL)
	}
	if cfg.PublicBaseURL != "https://gen.example.test" {
		t.Fatalf("base url must be trimmed, got %q", cfg.PublicBaseURL)
	}
	if !cfg.Invalidation.Enabled {
		t.Fatalf("invalidation enabled override ignored")
	}
}

func TestFromEnv_BadValuesFallBack(t *testing.T) {
	t.Setenv("CACHE_TTL_GENERATION", "soon")
	t.Setenv("INVALIDATION_ENABLED", "maybe")

	cfg := FromEnv()
	if cfg.GenerationTTL != time.Hour {
		t.Fatalf("bad duration must keep the default, got %v", cfg.GenerationTTL)
	}
	if cfg.Invalidation.Enabled {
		t.Fatalf("bad bool must keep the default")
	}
}
