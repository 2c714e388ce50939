package invalidation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"

	"github.com/cartapress/cartapress/internal/cache"
	"github.com/cartapress/cartapress/internal/observability"
)

type Config struct {
	Brokers             []string
	Topic               string
	GroupID             string
	SessionTimeout      time.Duration
	Heartbeat           time.Duration
	RebalanceTimeout    time.Duration
	InitialOffsetOldest bool
}

// DefaultTimeouts fills the zero timing fields with working values.
func (c Config) DefaultTimeouts() Config {
	if c.SessionTimeout == 0 {
		c.SessionTimeout = 30 * time.Second
	}
	if c.Heartbeat == 0 {
		c.Heartbeat = 3 * time.Second
	}
	if c.RebalanceTimeout == 0 {
		c.RebalanceTimeout = 30 * time.Second
	}
	return c
}

// Consumer applies clear events to the stores registered per scope.
type Consumer struct {
	cfg    Config
	stores map[string]cache.Store
	logger zerolog.Logger
}

// NewConsumer registers the stores to clear. Scope "all" clears every
// registered store, so callers only register the concrete scopes.
func NewConsumer(cfg Config, stores map[string]cache.Store, logger zerolog.Logger) *Consumer {
	return &Consumer{cfg: cfg.DefaultTimeouts(), stores: stores, logger: logger}
}

// Start blocks consuming invalidation events until the context is canceled.
func (c *Consumer) Start(ctx context.Context) error {
	if len(c.stores) == 0 {
		return errors.New("invalidation: no stores registered")
	}

	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_1_0_0
	cfg.Consumer.Group.Session.Timeout = c.cfg.SessionTimeout
	cfg.Consumer.Group.Heartbeat.Interval = c.cfg.Heartbeat
	cfg.Consumer.Group.Rebalance.Timeout = c.cfg.RebalanceTimeout
	if c.cfg.InitialOffsetOldest {
		cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	}
	cfg.Consumer.Offsets.AutoCommit.Enable = true

	group, err := sarama.NewConsumerGroup(c.cfg.Brokers, c.cfg.GroupID, cfg)
	if err != nil {
		return fmt.Errorf("create consumer group: %w", err)
	}
	defer func() { _ = group.Close() }()

	handler := &groupHandler{process: c.ProcessOne}
	c.logger.Info().
		Strs("brokers", c.cfg.Brokers).
		Str("topic", c.cfg.Topic).
		Str("group", c.cfg.GroupID).
		Msg("invalidation consumer starting")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("invalidation consumer shutting down")
			return nil
		default:
			if err := group.Consume(ctx, []string{c.cfg.Topic}, handler); err != nil {
				c.logger.Error().Err(err).Str("topic", c.cfg.Topic).Msg("consumer error")
				time.Sleep(2 * time.Second)
			}
		}
	}
}

// ProcessOne handles one message. Malformed events are logged and dropped;
// a failed clear is returned so the claim retries it.
func (c *Consumer) ProcessOne(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var ev Event
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		observability.IncInvalidation("unknown", err)
		c.logger.Error().Err(err).Int64("offset", msg.Offset).Msg("invalidation decode failed, dropping")
		return nil
	}
	if err := ev.Validate(); err != nil {
		observability.IncInvalidation(ev.Scope, err)
		c.logger.Error().Err(err).Int64("offset", msg.Offset).Msg("invalid invalidation event, dropping")
		return nil
	}

	for scope, store := range c.stores {
		if ev.Scope != ScopeAll && ev.Scope != scope {
			continue
		}
		if err := store.Clear(ctx); err != nil {
			observability.IncInvalidation(ev.Scope, err)
			return fmt.Errorf("clear %s store: %w", scope, err)
		}
	}

	observability.IncInvalidation(ev.Scope, nil)
	c.logger.Info().Str("scope", ev.Scope).Str("reason", ev.Reason).Msg("cache cleared")
	return nil
}

type messageProcessor func(context.Context, *sarama.ConsumerMessage) error

type groupHandler struct {
	process messageProcessor
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	ctx := sess.Context()
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("claim context done: %w", ctx.Err())
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if err := h.process(ctx, msg); err != nil {
				return fmt.Errorf("process failed (topic=%s, part=%d, off=%d): %w",
					msg.Topic, msg.Partition, msg.Offset, err)
			}
			sess.MarkMessage(msg, "")
		}
	}
}
