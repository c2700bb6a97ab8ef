// Package share turns generation results into durable, content-addressable
// snapshots and stateless replay tokens.
package share

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/liuyve552/esa-ai-generator-sub000/internal/cache"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/cache/keys"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/core/model"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/core/observability"
)

const (
	// maxDecodedLen bounds memory for replay tokens (decoded characters).
	maxDecodedLen = 12000
	// maxURLTokenLen is the encoded-length ceiling beyond which the public
	// share URL falls back to id-only.
	maxURLTokenLen = 6000
)

// Snapshot strips the volatile fields (timing, edge, cache, share) so that
// two generations with identical substantive content canonicalize equally.
func Snapshot(res model.GenerationResult) model.ShareSnapshot {
	loc := res.Location
	loc.IP = ""
	return model.ShareSnapshot{
		V:           model.SnapshotVersion,
		Prompt:      res.Prompt,
		Lang:        res.Lang,
		Mode:        res.Mode,
		Location:    loc,
		Weather:     res.Weather,
		Content:     res.Content,
		GeneratedAt: res.GeneratedAt,
	}
}

func canonical(res model.GenerationResult) []byte {
	// Struct field order is fixed, so this marshal is deterministic.
	raw, _ := json.Marshal(Snapshot(res))
	return raw
}

// ID is the content-addressable share identifier:
// base64url(sha256(canonical projection)).
func ID(res model.GenerationResult) string {
	sum := sha256.Sum256(canonical(res))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// Encode packs the canonical projection into a URL-safe replay token.
func Encode(res model.GenerationResult) string {
	return base64.RawURLEncoding.EncodeToString(canonical(res))
}

// Decode validates and unpacks a replay token. Any validation failure yields
// nil, never an error: version tag, required string fields and nested shape
// are all checked, and oversized payloads are rejected outright.
func Decode(token string) *model.ShareSnapshot {
	if token == "" {
		return nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		// Tolerate padded input from older clients.
		raw, err = base64.URLEncoding.DecodeString(token)
		if err != nil {
			return nil
		}
	}
	if len(raw) > maxDecodedLen {
		return nil
	}

	var snap model.ShareSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil
	}
	if snap.V != model.SnapshotVersion {
		return nil
	}
	if snap.Prompt == "" || snap.Lang == "" || snap.Mode == "" {
		return nil
	}
	if snap.Content.Text == "" || snap.GeneratedAt == "" {
		return nil
	}
	return &snap
}

type Option func(*Codec)

func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// Codec persists snapshots keyed by their content-addressable id.
type Codec struct {
	store   *cache.Store
	baseURL string
	ttl     time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

func NewCodec(store *cache.Store, baseURL string, ttl time.Duration, logger *slog.Logger, opts ...Option) *Codec {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Codec{store: store, baseURL: baseURL, ttl: ttl, logger: logger, now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Save persists res under its content-addressable id. A live entry under the
// same id is left untouched (first-writer-wins within the TTL window).
func (c *Codec) Save(ctx context.Context, res model.GenerationResult) string {
	id := ID(res)
	key := keys.Share(id)

	var existing model.GenerationResult
	if c.store.Get(ctx, key, &existing) {
		observability.IncShareSave("exists")
		return id
	}

	stored := res
	stored.Location.IP = ""
	c.store.Put(ctx, key, stored, c.ttl)
	observability.IncShareSave("written")
	return id
}

// Load returns the stored result for id, or false.
func (c *Codec) Load(ctx context.Context, id string) (model.GenerationResult, bool) {
	var res model.GenerationResult
	if id == "" {
		return res, false
	}
	ok := c.store.Get(ctx, keys.Share(id), &res)
	return res, ok
}

// PublicURL builds the shareable URL. Tokens beyond the encoded-length
// ceiling are omitted so URLs stay within practical platform limits.
func (c *Codec) PublicURL(id, token string) string {
	u := c.baseURL + "/api/share/" + id
	if token != "" && len(token) <= maxURLTokenLen {
		u += "?d=" + token
	}
	return u
}
