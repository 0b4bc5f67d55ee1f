// Package redisbroker implements internal/broker.Broker on top of Redis
// Streams and consumer groups, adapted from the teacher's
// pkg/redis/stream_producer.go and stream_consumer.go.
package redisbroker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aioutlet/product-catalog-core/internal/broker"
	"github.com/aioutlet/product-catalog-core/internal/cloudevents"
)

// Broker publishes to and consumes from Redis Streams. One Broker instance
// is shared by the Event Publisher and the Event Router.
type Broker struct {
	client       *redis.Client
	groupName    string
	consumerName string
	batchSize    int64
	pollInterval time.Duration
	logger       *slog.Logger
}

// Option customizes a Broker at construction.
type Option func(*Broker)

func WithGroupName(name string) Option       { return func(b *Broker) { b.groupName = name } }
func WithConsumerName(name string) Option    { return func(b *Broker) { b.consumerName = name } }
func WithBatchSize(n int64) Option           { return func(b *Broker) { b.batchSize = n } }
func WithPollInterval(d time.Duration) Option { return func(b *Broker) { b.pollInterval = d } }
func WithLogger(l *slog.Logger) Option       { return func(b *Broker) { b.logger = l } }

// New builds a Broker around an existing Redis client. Recommended prefetch
// (batchSize) is ~10 per §5.
func New(client *redis.Client, opts ...Option) *Broker {
	b := &Broker{
		client:       client,
		groupName:    "product-service",
		consumerName: "product-service-0",
		batchSize:    10,
		pollInterval: 2 * time.Second,
		logger:       slog.Default(),
	}
	for _, o := range opts {
		o(b)
	}
	b.logger = b.logger.With("component", "redisbroker")
	return b
}

// streamName maps a logical topic to the Redis stream key.
func streamName(topic string) string { return "stream:" + topic }

// Publish adds envelope to the stream for topic, JSON-encoded.
func (b *Broker) Publish(ctx context.Context, topic string, envelope *cloudevents.Event) error {
	if topic == "" {
		return fmt.Errorf("topic cannot be empty")
	}
	if envelope == nil {
		return fmt.Errorf("envelope cannot be nil")
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	id, err := b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: streamName(topic),
		ID:     "*",
		Values: map[string]any{"event": string(data)},
	}).Result()
	if err != nil {
		return fmt.Errorf("publish to stream %s: %w", topic, err)
	}
	b.logger.Debug("published event", "topic", topic, "type", envelope.Type, "id", envelope.ID, "messageId", id)
	return nil
}

// ensureGroup creates the consumer group for stream if absent.
func (b *Broker) ensureGroup(ctx context.Context, stream string) error {
	err := b.client.XGroupCreateMkStream(ctx, stream, b.groupName, "0").Err()
	if err != nil && !errors.Is(err, redis.Nil) && err.Error() != "BUSYGROUP Consumer Group name already exists" {
		return fmt.Errorf("create consumer group: %w", err)
	}
	return nil
}

// Subscribe consumes topic via XREADGROUP until ctx is cancelled, acking on
// success and leaving unacked (for redelivery) on handler error. The event
// router is the one place that interprets handler errors into retry/drop;
// this layer only decides ack vs. no-ack.
func (b *Broker) Subscribe(ctx context.Context, topic string, handler broker.Handler) error {
	stream := streamName(topic)
	if err := b.ensureGroup(ctx, stream); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		res, err := b.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    b.groupName,
			Consumer: b.consumerName,
			Streams:  []string{stream, ">"},
			Count:    b.batchSize,
			Block:    b.pollInterval,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			b.logger.Error("read from stream failed", "stream", stream, "error", err)
			time.Sleep(b.pollInterval)
			continue
		}

		for _, s := range res {
			for _, msg := range s.Messages {
				b.deliver(ctx, stream, msg, handler)
			}
		}
	}
}

func (b *Broker) deliver(ctx context.Context, stream string, msg redis.XMessage, handler broker.Handler) {
	raw, ok := msg.Values["event"].(string)
	if !ok {
		b.logger.Warn("message missing event field", "messageId", msg.ID)
		return
	}
	var envelope cloudevents.Event
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		b.logger.Error("failed to unmarshal envelope", "messageId", msg.ID, "error", err)
		return
	}
	if err := handler(ctx, &envelope); err != nil {
		b.logger.Warn("handler returned error, leaving unacked for redelivery",
			"stream", stream, "messageId", msg.ID, "type", envelope.Type, "error", err)
		return
	}
	if err := b.client.XAck(ctx, stream, b.groupName, msg.ID).Err(); err != nil {
		b.logger.Error("failed to ack message", "messageId", msg.ID, "error", err)
	}
}

// ClaimStale reclaims messages idle longer than minIdle, for a periodic
// sweep against crashed consumers.
func (b *Broker) ClaimStale(ctx context.Context, topic string, minIdle time.Duration, count int64) ([]redis.XMessage, error) {
	stream := streamName(topic)
	pending, err := b.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: stream,
		Group:  b.groupName,
		Start:  "-",
		End:    "+",
		Count:  count,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}

	var claimed []redis.XMessage
	for _, p := range pending {
		if p.Idle < minIdle {
			continue
		}
		msgs, err := b.client.XClaim(ctx, &redis.XClaimArgs{
			Stream:   stream,
			Group:    b.groupName,
			Consumer: b.consumerName,
			MinIdle:  minIdle,
			Messages: []string{p.ID},
		}).Result()
		if err != nil {
			b.logger.Error("failed to claim stale message", "messageId", p.ID, "error", err)
			continue
		}
		claimed = append(claimed, msgs...)
	}
	return claimed, nil
}

var _ broker.Broker = (*Broker)(nil)
