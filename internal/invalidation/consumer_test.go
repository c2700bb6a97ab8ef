package invalidation

import (
	"context"
	"testing"
	"time"

	"github.com/IBM/sarama"

	"github.com/liuyve552/esa-ai-generator-sub000/internal/cache"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/cache/keys"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/cache/memstore"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/core/config"
)

func newConsumer(t *testing.T) (*Consumer, *cache.Store) {
	t.Helper()
	store := cache.New(memstore.New(64, time.Hour), nil)
	c, err := New(config.InvalidationCfg{Topic: "t", Brokers: "b:9092", GroupID: "g"}, store, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return c, store
}

func msg(payload string) *sarama.ConsumerMessage {
	return &sarama.ConsumerMessage{Value: []byte(payload)}
}

func TestProcessOne_PurgesNamedKeys(t *testing.T) {
	c, store := newConsumer(t)
	ctx := context.Background()

	store.Put(ctx, "gen:abc", "v", time.Minute)
	if err := c.ProcessOne(ctx, msg(`{"id":"e1","keys":["gen:abc"]}`)); err != nil {
		t.Fatalf("process: %v", err)
	}

	var out string
	if store.Get(ctx, "gen:abc", &out) {
		t.Fatalf("purged key still readable")
	}
}

func TestProcessOne_ExpandsShareIDs(t *testing.T) {
	c, store := newConsumer(t)
	ctx := context.Background()

	store.Put(ctx, keys.Share("s1"), "snap", time.Minute)
	store.Put(ctx, keys.Views("s1"), 3, time.Minute)

	if err := c.ProcessOne(ctx, msg(`{"id":"e2","shareIds":["s1"]}`)); err != nil {
		t.Fatalf("process: %v", err)
	}

	var s string
	if store.Get(ctx, keys.Share("s1"), &s) {
		t.Fatalf("share row survived the purge")
	}
	var n int
	if store.Get(ctx, keys.Views("s1"), &n) {
		t.Fatalf("view row survived the purge")
	}
}

func TestProcessOne_MalformedPayloadDropped(t *testing.T) {
	c, _ := newConsumer(t)
	if err := c.ProcessOne(context.Background(), msg("not json")); err != nil {
		t.Fatalf("malformed payload must not error: %v", err)
	}
}

func TestProcessOne_DuplicateEventSkipped(t *testing.T) {
	c, store := newConsumer(t)
	ctx := context.Background()

	if err := c.ProcessOne(ctx, msg(`{"id":"dup","keys":["gen:x"]}`)); err != nil {
		t.Fatalf("first: %v", err)
	}

	// Repopulate, then replay the same event id.
	store.Put(ctx, "gen:x", "v", time.Minute)
	if err := c.ProcessOne(ctx, msg(`{"id":"dup","keys":["gen:x"]}`)); err != nil {
		t.Fatalf("second: %v", err)
	}

	var out string
	if !store.Get(ctx, "gen:x", &out) {
		t.Fatalf("duplicate event must not purge again")
	}
}

func TestNew_RequiresStore(t *testing.T) {
	if _, err := New(config.InvalidationCfg{}, nil, nil); err == nil {
		t.Fatalf("nil store must be rejected")
	}
}
