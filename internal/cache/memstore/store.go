// Package memstore is the in-process fallback cache backend, used when no
// Redis is configured or reachable. Entries are size-capped and coarsely
// TTL-bounded; exact freshness is enforced by the envelope layer above.
package memstore

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	defaultMaxEntries = 4096
	defaultMaxAge     = 24 * time.Hour
)

type Store struct {
	lru *expirable.LRU[string, []byte]
}

func New(maxEntries int, maxAge time.Duration) *Store {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	if maxAge <= 0 {
		maxAge = defaultMaxAge
	}
	return &Store{lru: expirable.NewLRU[string, []byte](maxEntries, nil, maxAge)}
}

func (s *Store) Name() string { return "memory" }

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := s.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	return v, true, nil
}

// Set stores val. The per-entry ttl is carried by the envelope; the LRU's
// single max-age only bounds worst-case retention.
func (s *Store) Set(_ context.Context, key string, val []byte, _ time.Duration) error {
	s.lru.Add(key, val)
	return nil
}

func (s *Store) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		s.lru.Remove(k)
	}
	return nil
}

func (s *Store) Len() int { return s.lru.Len() }
