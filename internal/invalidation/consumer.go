// Package invalidation consumes cache purge events so operators can drop
// generation and share entries ahead of their TTL.
package invalidation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/IBM/sarama"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/liuyve552/esa-ai-generator-sub000/internal/cache"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/cache/keys"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/core/config"
	"github.com/liuyve552/esa-ai-generator-sub000/internal/core/observability"
)

// Event names cache entries to purge. ShareIDs expand to their share and
// view rows.
type Event struct {
	ID       string   `json:"id"`
	Keys     []string `json:"keys,omitempty"`
	ShareIDs []string `json:"shareIds,omitempty"`
}

const seenWindow = 2048

type Consumer struct {
	cfg    config.InvalidationCfg
	store  *cache.Store
	logger *slog.Logger
	seen   *lru.Cache[string, struct{}]
}

func New(cfg config.InvalidationCfg, store *cache.Store, logger *slog.Logger) (*Consumer, error) {
	if store == nil {
		return nil, errors.New("invalidation: cache store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	seen, err := lru.New[string, struct{}](seenWindow)
	if err != nil {
		return nil, fmt.Errorf("seen window: %w", err)
	}
	return &Consumer{cfg: cfg, store: store, logger: logger, seen: seen}, nil
}

// Start consumes events until ctx is canceled.
func (c *Consumer) Start(ctx context.Context) error {
	sc := sarama.NewConfig()
	sc.Version = sarama.V2_1_0_0
	sc.Consumer.Offsets.Initial = sarama.OffsetNewest
	sc.Consumer.Offsets.AutoCommit.Enable = true

	brokers := strings.Split(c.cfg.Brokers, ",")
	group, err := sarama.NewConsumerGroup(brokers, c.cfg.GroupID, sc)
	if err != nil {
		return fmt.Errorf("create consumer group: %w", err)
	}
	defer func() { _ = group.Close() }()

	handler := &groupHandler{process: c.ProcessOne}

	c.logger.Info("invalidation consumer starting",
		"brokers", c.cfg.Brokers, "topic", c.cfg.Topic, "group", c.cfg.GroupID)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("invalidation consumer shutting down")
			return nil
		default:
			if err := group.Consume(ctx, []string{c.cfg.Topic}, handler); err != nil {
				c.logger.Error("consumer error", "err", err)
				time.Sleep(2 * time.Second)
			}
		}
	}
}

// ProcessOne handles a single purge event. Malformed payloads are dropped,
// duplicate event ids within the seen window are skipped.
func (c *Consumer) ProcessOne(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var ev Event
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		observability.IncInvalidation("decode_error")
		c.logger.WarnContext(ctx, "invalidation event malformed", "err", err)
		return nil
	}
	if ev.ID != "" {
		if _, dup := c.seen.Get(ev.ID); dup {
			observability.IncInvalidation("duplicate")
			return nil
		}
		c.seen.Add(ev.ID, struct{}{})
	}

	purge := make([]string, 0, len(ev.Keys)+2*len(ev.ShareIDs))
	purge = append(purge, ev.Keys...)
	for _, id := range ev.ShareIDs {
		purge = append(purge, keys.Share(id), keys.Views(id))
	}
	if len(purge) == 0 {
		observability.IncInvalidation("empty")
		return nil
	}

	c.store.Delete(ctx, purge...)
	observability.IncInvalidation("purged")
	c.logger.InfoContext(ctx, "cache entries purged", "event", ev.ID, "keys", len(purge))
	return nil
}

type groupHandler struct {
	process func(ctx context.Context, msg *sarama.ConsumerMessage) error
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		if err := h.process(sess.Context(), msg); err != nil {
			return err
		}
		sess.MarkMessage(msg, "")
	}
	return nil
}
