package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/couchcryptid/disaster-feed-service/internal/config"
	"github.com/couchcryptid/disaster-feed-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces feed events to a Kafka topic.
// It implements events.Sink.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured events topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaEventsTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 5 * time.Second,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes a feed event and writes it synchronously. Events are
// keyed by point or mission id so one entity's history stays on one partition.
func (w *Writer) Publish(ctx context.Context, event domain.FeedEvent) error {
	msg, err := serializeToMessage(event)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write feed event: %w", err)
	}
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a FeedEvent into a Kafka message with headers
// in a stable order.
func serializeToMessage(event domain.FeedEvent) (kafkago.Message, error) {
	out, err := domain.SerializeFeedEvent(event)
	if err != nil {
		return kafkago.Message{}, err
	}
	headers := make([]kafkago.Header, 0, len(out.Headers))
	for _, k := range slices.Sorted(maps.Keys(out.Headers)) {
		headers = append(headers, kafkago.Header{Key: k, Value: []byte(out.Headers[k])})
	}
	return kafkago.Message{
		Key:     out.Key,
		Value:   out.Value,
		Headers: headers,
	}, nil
}
