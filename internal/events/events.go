// Package events delivers feed events to the configured sink.
package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/disaster-feed-service/internal/domain"
	"github.com/sony/gobreaker"
)

// Sink publishes a single feed event to an external system.
type Sink interface {
	Publish(ctx context.Context, event domain.FeedEvent) error
}

// Nop discards every event. It is the sink for EVENT_SINK=none.
type Nop struct{}

func (Nop) Publish(context.Context, domain.FeedEvent) error { return nil }

// BreakerSettings configures the circuit breaker in front of a sink.
type BreakerSettings struct {
	Name        string
	MaxFailures uint32
	OpenTimeout time.Duration
}

// Breaker guards a sink with a circuit breaker so a dead broker fails fast
// instead of stalling every API call on its write timeout.
type Breaker struct {
	sink   Sink
	cb     *gobreaker.CircuitBreaker
	logger *slog.Logger
}

// NewBreaker wraps sink. The breaker opens after MaxFailures consecutive
// failures and probes again after OpenTimeout.
func NewBreaker(sink Sink, settings BreakerSettings, logger *slog.Logger) *Breaker {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    settings.Name,
		Timeout: settings.OpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= settings.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("event sink breaker state changed", "sink", name, "from", from.String(), "to", to.String())
		},
	})
	return &Breaker{sink: sink, cb: cb, logger: logger}
}

// Publish forwards the event unless the breaker is open, in which case it
// returns gobreaker.ErrOpenState without touching the sink.
func (b *Breaker) Publish(ctx context.Context, event domain.FeedEvent) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.sink.Publish(ctx, event)
	})
	return err
}

// State reports the breaker state, e.g. "closed" or "open".
func (b *Breaker) State() string {
	return b.cb.State().String()
}
