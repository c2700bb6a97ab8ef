package share

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/liuyve552/esa-ai-generator-sub000/internal/cache"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/cache/memstore"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/core/model"
)

func sampleResult() model.GenerationResult {
	lat, lon := 48.86, 2.35
	temp := 18.5
	code := 3
	return model.GenerationResult{
		Prompt: "help me focus",
		Lang:   "en",
		Mode:   model.ModeFocus,
		Location: model.LocationInfo{
			City: "Paris", Country: "France",
			Latitude: &lat, Longitude: &lon,
			Source: "headers",
		},
		Weather:     model.WeatherInfo{Temperature: &temp, Code: &code, Description: "overcast"},
		Content:     model.ContentInfo{Text: "Title\nBody", Model: "template", Provenance: model.ProvenanceTemplate},
		Edge:        model.EdgeInfo{Provider: "test", RequestID: "r1"},
		Cache:       model.CacheInfo{Hit: false, Key: "gen:abc"},
		Timing:      model.TimingInfo{TotalMs: 42},
		GeneratedAt: "2026-03-14T09:30:00Z",
	}
}

func TestID_IgnoresVolatileFields(t *testing.T) {
	a := sampleResult()
	b := sampleResult()
	b.Edge.RequestID = "other"
	b.Cache = model.CacheInfo{Hit: true, TTLSeconds: 99, Key: "gen:xyz"}
	b.Timing = model.TimingInfo{GeoMs: 5, TotalMs: 9000}
	b.Share = &model.ShareInfo{ID: "something", Views: 7}
	b.Location.IP = "1.2.3.4"

	if ID(a) != ID(b) {
		t.Fatalf("volatile fields must not affect the share id")
	}
}

func TestID_SensitiveToContent(t *testing.T) {
	a := sampleResult()
	b := sampleResult()
	b.Content.Text = "different"
	if ID(a) == ID(b) {
		t.Fatalf("different content must yield different ids")
	}
	c := sampleResult()
	c.Prompt = "another prompt"
	if ID(a) == ID(c) {
		t.Fatalf("different prompt must yield different ids")
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	res := sampleResult()
	res.Location.IP = "1.2.3.4"

	snap := Decode(Encode(res))
	if snap == nil {
		t.Fatalf("round trip decoded to nil")
	}
	if snap.V != model.SnapshotVersion {
		t.Fatalf("version = %d", snap.V)
	}
	if snap.Prompt != res.Prompt || snap.Content.Text != res.Content.Text {
		t.Fatalf("round trip lost content: %+v", snap)
	}
	if snap.Location.IP != "" {
		t.Fatalf("ip must be scrubbed from tokens")
	}
}

func TestDecode_Rejections(t *testing.T) {
	if Decode("") != nil {
		t.Fatalf("empty token must decode to nil")
	}
	if Decode("!!!not-base64!!!") != nil {
		t.Fatalf("invalid base64 must decode to nil")
	}

	// Structurally valid token with a missing required field.
	res := sampleResult()
	res.Prompt = ""
	if Decode(Encode(res)) != nil {
		t.Fatalf("empty prompt must be rejected")
	}

	res = sampleResult()
	res.Content.Text = ""
	if Decode(Encode(res)) != nil {
		t.Fatalf("empty content text must be rejected")
	}

	res = sampleResult()
	res.GeneratedAt = ""
	if Decode(Encode(res)) != nil {
		t.Fatalf("missing generatedAt must be rejected")
	}
}

func TestDecode_OversizedToken(t *testing.T) {
	res := sampleResult()
	res.Content.Text = strings.Repeat("x", maxDecodedLen+1)
	if Decode(Encode(res)) != nil {
		t.Fatalf("oversized payload must be rejected")
	}
}

func TestDecode_PaddedBase64Accepted(t *testing.T) {
	token := Encode(sampleResult())
	padded := token
	for len(padded)%4 != 0 {
		padded += "="
	}
	if padded != token && Decode(padded) == nil {
		t.Fatalf("padded token must still decode")
	}
}

func newCodec(t *testing.T, now *time.Time) *Codec {
	t.Helper()
	store := cache.New(memstore.New(64, time.Hour), nil,
		cache.WithClock(func() time.Time { return *now }))
	return NewCodec(store, "https://example.test", time.Hour, nil,
		WithClock(func() time.Time { return *now }))
}

func TestSave_FirstWriterWins(t *testing.T) {
	now := time.Unix(1700000000, 0)
	c := newCodec(t, &now)
	ctx := context.Background()

	res := sampleResult()
	id := c.Save(ctx, res)

	// A second save with different volatile fields maps to the same id and
	// leaves the stored copy intact.
	second := sampleResult()
	second.Timing.TotalMs = 9999
	if got := c.Save(ctx, second); got != id {
		t.Fatalf("same snapshot saved under different ids: %s vs %s", got, id)
	}

	stored, ok := c.Load(ctx, id)
	if !ok {
		t.Fatalf("load after save failed")
	}
	if stored.Timing.TotalMs != 42 {
		t.Fatalf("second save must not overwrite, got timing %d", stored.Timing.TotalMs)
	}
}

func TestSave_ScrubsIP(t *testing.T) {
	now := time.Unix(1700000000, 0)
	c := newCodec(t, &now)
	ctx := context.Background()

	res := sampleResult()
	res.Location.IP = "1.2.3.4"
	id := c.Save(ctx, res)

	stored, ok := c.Load(ctx, id)
	if !ok || stored.Location.IP != "" {
		t.Fatalf("stored snapshot must not carry an ip, got %q", stored.Location.IP)
	}
}

func TestLoad_ExpiredIsMiss(t *testing.T) {
	now := time.Unix(1700000000, 0)
	c := newCodec(t, &now)
	ctx := context.Background()

	id := c.Save(ctx, sampleResult())
	now = now.Add(time.Hour + time.Second)

	if _, ok := c.Load(ctx, id); ok {
		t.Fatalf("expired share must not load")
	}
	if _, ok := c.Load(ctx, ""); ok {
		t.Fatalf("empty id must not load")
	}
}

func TestPublicURL_TokenCeiling(t *testing.T) {
	now := time.Unix(1700000000, 0)
	c := newCodec(t, &now)

	if got := c.PublicURL("abc", "tok"); got != "https://example.test/api/share/abc?d=tok" {
		t.Fatalf("url = %s", got)
	}
	long := strings.Repeat("a", maxURLTokenLen+1)
	if got := c.PublicURL("abc", long); got != "https://example.test/api/share/abc" {
		t.Fatalf("oversized token must be dropped, got %d chars", len(got))
	}
	if got := c.PublicURL("abc", ""); got != "https://example.test/api/share/abc" {
		t.Fatalf("empty token url = %s", got)
	}
}

func TestViews_IncrementAndExpiry(t *testing.T) {
	now := time.Unix(1700000000, 0)
	store := cache.New(memstore.New(64, time.Hour), nil,
		cache.WithClock(func() time.Time { return now }))
	v := NewViews(store, time.Hour, nil)
	ctx := context.Background()

	if got := v.Get(ctx, "id"); got != 0 {
		t.Fatalf("fresh counter = %d", got)
	}
	if got := v.Increment(ctx, "id"); got != 1 {
		t.Fatalf("first increment = %d", got)
	}
	if got := v.Increment(ctx, "id"); got != 2 {
		t.Fatalf("second increment = %d", got)
	}
	if got := v.Get(ctx, "id"); got != 2 {
		t.Fatalf("get after increments = %d", got)
	}

	now = now.Add(time.Hour + time.Second)
	if got := v.Get(ctx, "id"); got != 0 {
		t.Fatalf("expired counter = %d, want 0", got)
	}
	if got := v.Increment(ctx, "id"); got != 1 {
		t.Fatalf("increment after expiry = %d, want 1", got)
	}
}
