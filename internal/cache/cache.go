// Package cache implements the envelope-based cache-aside storage used by the
// generation pipeline. Backends are interchangeable; everything above this
// layer is backend-agnostic.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/liuyve552/esa-ai-generator-sub000/internal/core/observability"
)

// Backend is the raw byte-level storage capability. Implementations enforce
// their own TTL as an upper bound; freshness is decided by the envelope.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Name() string
}

// envelope pairs a stored value with its expiry. Callers never see it.
type envelope struct {
	ExpiresAt int64           `json:"expiresAt"` // unix millis
	Value     json.RawMessage `json:"value"`
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithOpTimeout(d time.Duration) Option {
	return func(s *Store) { s.opTimeout = d }
}

// Store wraps a Backend with envelope expiry and a swallow-errors policy:
// any read failure is a miss, any write failure is a no-op.
type Store struct {
	backend   Backend
	logger    *slog.Logger
	opTimeout time.Duration
	now       func() time.Time
}

func New(b Backend, logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{backend: b, logger: logger, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) Backend() Backend { return s.backend }

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.opTimeout)
}

// Get reads key into out. It reports a hit only when the entry exists, its
// envelope is fresh and the payload unmarshals; everything else is a miss.
// Expired entries are left in place (passive expiry).
func (s *Store) Get(ctx context.Context, key string, out any) bool {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	raw, found, err := s.backend.Get(ctx, key)
	observability.ObserveCacheOp("get", err, time.Since(start).Seconds())
	if err != nil {
		s.logger.WarnContext(ctx, "cache read failed", "key", key, "err", err)
		observability.IncCacheMiss()
		return false
	}
	if !found {
		observability.IncCacheMiss()
		return false
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		s.logger.WarnContext(ctx, "cache envelope malformed", "key", key, "err", err)
		observability.IncCacheMiss()
		return false
	}
	if env.ExpiresAt <= s.now().UnixMilli() {
		observability.IncCacheExpired()
		return false
	}
	if err := json.Unmarshal(env.Value, out); err != nil {
		s.logger.WarnContext(ctx, "cache value malformed", "key", key, "err", err)
		observability.IncCacheMiss()
		return false
	}
	observability.IncCacheHit()
	return true
}

// Put stores v under key for ttl, overwriting any previous entry. Failures
// are logged and swallowed.
func (s *Store) Put(ctx context.Context, key string, v any, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		s.logger.WarnContext(ctx, "cache value not serializable", "key", key, "err", err)
		return
	}
	env := envelope{
		ExpiresAt: s.now().Add(ttl).UnixMilli(),
		Value:     raw,
	}
	payload, err := json.Marshal(env)
	if err != nil {
		s.logger.WarnContext(ctx, "cache envelope not serializable", "key", key, "err", err)
		return
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	err = s.backend.Set(ctx, key, payload, ttl)
	observability.ObserveCacheOp("set", err, time.Since(start).Seconds())
	if err != nil {
		s.logger.WarnContext(ctx, "cache write failed", "key", key, "err", err)
	}
}

// Delete removes keys, swallowing failures.
func (s *Store) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	err := s.backend.Del(ctx, keys...)
	observability.ObserveCacheOp("del", err, time.Since(start).Seconds())
	if err != nil {
		s.logger.WarnContext(ctx, "cache delete failed", "keys", len(keys), "err", err)
	}
}
