package share

import (
	"context"
	"log/slog"
	"time"

	"github.com/liuyve552/esa-ai-generator-sub000/internal/cache"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/cache/keys"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/core/observability"
)

type viewEntry struct {
	Count int `json:"count"`
}

// Views is the TTL-bounded view counter. Increments are read-then-write
// without compare-and-swap; concurrent hits on one id may under-count, which
// is accepted for a display metric.
type Views struct {
	store  *cache.Store
	ttl    time.Duration
	logger *slog.Logger
}

func NewViews(store *cache.Store, ttl time.Duration, logger *slog.Logger) *Views {
	if logger == nil {
		logger = slog.Default()
	}
	return &Views{store: store, ttl: ttl, logger: logger}
}

// Get returns the current count, 0 when absent or expired.
func (v *Views) Get(ctx context.Context, id string) int {
	var e viewEntry
	if !v.store.Get(ctx, keys.Views(id), &e) {
		return 0
	}
	return e.Count
}

// Increment bumps the counter and returns the new count. Each write renews
// the TTL window.
func (v *Views) Increment(ctx context.Context, id string) int {
	e := viewEntry{Count: v.Get(ctx, id) + 1}
	v.store.Put(ctx, keys.Views(id), e, v.ttl)
	observability.IncViewIncrement()
	return e.Count
}
