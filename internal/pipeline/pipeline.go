package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/couchcryptid/disaster-feed-service/internal/domain"
	"github.com/couchcryptid/disaster-feed-service/internal/observability"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// BatchExtractor reads up to batchSize raw messages from the sensor source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawMessage, error)
}

// Transformer converts a raw message into a sensor reading.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawMessage) (domain.SensorReading, error)
}

// BatchLoader applies a batch of readings to the feed.
type BatchLoader interface {
	LoadReadings(ctx context.Context, readings []domain.SensorReading) error
}

// Pipeline orchestrates the extract-transform-load loop for sensor readings.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	running     atomic.Bool
	batchSize   int
	backoff     *backoff.ExponentialBackOff
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initialBackoff
	bo.MaxInterval = maxBackoff
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0 // retry until the context ends
	bo.Reset()

	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
		backoff:     bo,
	}
}

// CheckReadiness returns nil while Run is active. Sensor traffic may be
// sparse, so readiness does not wait for the first message.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.running.Load() {
		return errors.New("sensor pipeline is not running")
	}
	return nil
}

// Run executes the batch loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("sensor pipeline started", "batch_size", p.batchSize)
	p.running.Store(true)
	p.metrics.PipelineRunning.Set(1)
	defer func() {
		p.running.Store(false)
		p.metrics.PipelineRunning.Set(0)
	}()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("sensor pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx) {
			return nil
		}
	}
}

// processBatch runs one extract-transform-load cycle. Returns false if the pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context) bool {
	start := time.Now()

	rawBatch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.backoffOrStop(ctx)
	}

	if len(rawBatch) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.ReadingsConsumed.Add(float64(len(rawBatch)))
	p.metrics.BatchSize.Observe(float64(len(rawBatch)))

	if !p.transformAndLoad(ctx, rawBatch) {
		return false
	}

	p.backoff.Reset()
	p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	return true
}

// transformAndLoad parses each message, applies the valid readings and
// commits every offset. Invalid messages are committed without being applied
// so a poison pill cannot wedge the partition. A failed load is retried after
// backing off; returns false if the pipeline should stop.
func (p *Pipeline) transformAndLoad(ctx context.Context, rawBatch []domain.RawMessage) bool {
	readings := make([]domain.SensorReading, 0, len(rawBatch))
	valid := make([]domain.RawMessage, 0, len(rawBatch))

	for _, raw := range rawBatch {
		reading, err := p.transformer.Transform(ctx, raw)
		if err != nil {
			p.logger.Warn("invalid sensor reading, skipping message",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.metrics.ReadingsRejected.Inc()
			p.commitOffset(ctx, raw)
			continue
		}
		readings = append(readings, reading)
		valid = append(valid, raw)
	}

	if len(readings) == 0 {
		return true
	}

	for {
		err := p.loader.LoadReadings(ctx, readings)
		if err == nil {
			break
		}
		p.logger.Error("load readings failed", "error", err, "batch_size", len(readings))
		if !p.backoffOrStop(ctx) {
			return false
		}
	}

	for _, raw := range valid {
		p.commitOffset(ctx, raw)
	}
	return true
}

// backoffOrStop sleeps for the next backoff interval. Returns false if the
// context ended first.
func (p *Pipeline) backoffOrStop(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	return sleepWithContext(ctx, p.backoff.NextBackOff())
}

// commitOffset commits the message offset if a commit function is available.
func (p *Pipeline) commitOffset(ctx context.Context, raw domain.RawMessage) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
