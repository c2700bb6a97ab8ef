package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/liuyve552/esa-ai-generator-sub000/internal/cache"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/cache/memstore"
)

const forecastBody = `{
	"timezone": "Europe/Paris",
	"current_weather": {"temperature": 18.5, "weathercode": 61, "is_day": 1, "time": "2026-03-14T10:15"}
}`

func newClient(t *testing.T, handler http.HandlerFunc) (*Client, *atomic.Int64) {
	t.Helper()
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	store := cache.New(memstore.New(64, time.Hour), nil)
	return NewClient(store, srv.Client(), srv.URL, nil), &calls
}

func TestResolve_ParsesForecast(t *testing.T) {
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.RawQuery, "current_weather=true") {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(forecastBody))
	})

	wx := c.Resolve(context.Background(), 48.8566, 2.3522, "en")
	if wx.Temperature == nil || *wx.Temperature != 18.5 {
		t.Fatalf("temperature = %v", wx.Temperature)
	}
	if wx.Code == nil || *wx.Code != 61 {
		t.Fatalf("code = %v", wx.Code)
	}
	if wx.Description != "slight rain" {
		t.Fatalf("description = %q", wx.Description)
	}
	if wx.IsDay == nil || !*wx.IsDay {
		t.Fatalf("isDay = %v", wx.IsDay)
	}
	if wx.Timezone != "Europe/Paris" || wx.LocalTime != "2026-03-14T10:15" {
		t.Fatalf("tz/time = %q/%q", wx.Timezone, wx.LocalTime)
	}
}

func TestResolve_CachedByRoundedCoords(t *testing.T) {
	c, calls := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(forecastBody))
	})
	ctx := context.Background()

	c.Resolve(ctx, 48.8566, 2.3522, "en")
	c.Resolve(ctx, 48.8601, 2.3489, "fr") // rounds to the same cell and bucket
	if calls.Load() != 1 {
		t.Fatalf("fetch ran %d times, want 1", calls.Load())
	}

	c.Resolve(ctx, 48.8566, 2.3522, "zh")
	if calls.Load() != 2 {
		t.Fatalf("zh bucket must fetch separately, got %d calls", calls.Load())
	}
}

func TestResolve_FailureDegradesToUnknown(t *testing.T) {
	c, _ := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	})

	wx := c.Resolve(context.Background(), 1, 1, "en")
	if wx.Description != "unknown" || wx.Temperature != nil || wx.Code != nil {
		t.Fatalf("wx = %+v", wx)
	}

	c2, _ := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	})
	if wx := c2.Resolve(context.Background(), 1, 1, "zh"); wx.Description != "未知" {
		t.Fatalf("zh unknown = %q", wx.Description)
	}
}

func TestResolve_MalformedBodyDegrades(t *testing.T) {
	c, _ := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"timezone":"UTC"}`))
	})
	if wx := c.Resolve(context.Background(), 1, 1, "en"); wx.Description != "unknown" {
		t.Fatalf("missing current_weather must degrade, got %+v", wx)
	}
}

func TestDescribe(t *testing.T) {
	if got := Describe(0, "en"); got != "clear sky" {
		t.Fatalf("Describe(0,en)=%q", got)
	}
	if got := Describe(95, "zh"); got != "雷暴" {
		t.Fatalf("Describe(95,zh)=%q", got)
	}
	if got := Describe(42, "en"); got != "code 42" {
		t.Fatalf("unmapped code = %q", got)
	}
	if got := Describe(42, "zh"); got != "代码 42" {
		t.Fatalf("unmapped zh code = %q", got)
	}
}
