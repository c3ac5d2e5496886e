// Package redisstream publishes feed events to a Redis stream.
package redisstream

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/disaster-feed-service/internal/config"
	"github.com/couchcryptid/disaster-feed-service/internal/domain"
	"github.com/go-redis/redis/v8"
)

// Stream entry field names.
const (
	FieldType      = "type"
	FieldID        = "id"
	FieldEmittedAt = "emitted_at"
	FieldPayload   = "payload"
)

// NewClient builds a Redis client from the REDIS_* settings.
func NewClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

// Publisher appends feed events to a stream with XADD.
// It implements events.Sink.
type Publisher struct {
	client *redis.Client
	stream string
	maxLen int64
	logger *slog.Logger
}

// NewPublisher creates a Publisher. A positive maxLen caps the stream length
// with approximate trimming; zero leaves the stream unbounded.
func NewPublisher(client *redis.Client, stream string, maxLen int64, logger *slog.Logger) *Publisher {
	return &Publisher{client: client, stream: stream, maxLen: maxLen, logger: logger}
}

// Publish appends one entry carrying the event type, entity id and the JSON
// payload.
func (p *Publisher) Publish(ctx context.Context, event domain.FeedEvent) error {
	out, err := domain.SerializeFeedEvent(event)
	if err != nil {
		return err
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			FieldType:      string(event.Type),
			FieldID:        event.ID,
			FieldEmittedAt: out.Headers["emitted_at"],
			FieldPayload:   string(out.Value),
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", p.stream, err)
	}
	return nil
}

// Ping checks that Redis is reachable.
func (p *Publisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func (p *Publisher) Close() error {
	return p.client.Close()
}
