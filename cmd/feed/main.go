package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	httpadapter "github.com/couchcryptid/disaster-feed-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/disaster-feed-service/internal/adapter/kafka"
	"github.com/couchcryptid/disaster-feed-service/internal/adapter/mapbox"
	"github.com/couchcryptid/disaster-feed-service/internal/adapter/redisstream"
	"github.com/couchcryptid/disaster-feed-service/internal/config"
	"github.com/couchcryptid/disaster-feed-service/internal/domain"
	"github.com/couchcryptid/disaster-feed-service/internal/events"
	"github.com/couchcryptid/disaster-feed-service/internal/observability"
	"github.com/couchcryptid/disaster-feed-service/internal/pipeline"
	"github.com/couchcryptid/disaster-feed-service/internal/simulator"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	if envErr == nil {
		logger.Info("loaded configuration from .env file")
	}
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, metrics); err != nil {
		logger.Error("service exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	catalog := geocodeCatalog(ctx, cfg, logger, metrics)

	sink, closeSink, err := newSink(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeSink.Close(); err != nil {
			logger.Error("event sink close error", "error", err)
		}
	}()

	sim := simulator.New(logger, metrics,
		simulator.WithSeed(cfg.Seed),
		simulator.WithSpawnProbability(cfg.SpawnProbability),
		simulator.WithCatalog(catalog),
		simulator.WithPublisher(sink),
	)

	g, gctx := errgroup.WithContext(ctx)

	var p *pipeline.Pipeline
	if cfg.SensorIngest {
		reader := kafkaadapter.NewReader(cfg, logger)
		defer func() {
			if err := reader.Close(); err != nil {
				logger.Error("kafka reader close error", "error", err)
			}
		}()
		p = pipeline.New(reader, pipeline.NewTransformer(logger), sim, logger, metrics, cfg.BatchSize)
		g.Go(func() error { return p.Run(gctx) })
	} else {
		logger.Info("sensor ingest disabled")
	}

	if cfg.TickInterval > 0 {
		g.Go(func() error {
			sim.RunTicker(gctx, cfg.TickInterval)
			return nil
		})
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, sim, readiness(sim, p), logger)
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
		return nil
	})

	return g.Wait()
}

// geocodeCatalog attaches addresses to the catalog when Mapbox is enabled.
func geocodeCatalog(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) []domain.Location {
	catalog := domain.Catalog()
	if !cfg.MapboxEnabled {
		metrics.GeocodeEnabled.Set(0)
		logger.Info("mapbox geocoding disabled")
		return catalog
	}

	metrics.GeocodeEnabled.Set(1)
	client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, logger, metrics)
	geocoder := mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
	logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	return domain.EnrichCatalog(ctx, catalog, geocoder, logger)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// readiness gates /readyz on the simulator and, when enabled, the sensor
// pipeline. The event sink is left out: its failures are absorbed by the
// circuit breaker and never fail a request.
func readiness(sim *simulator.Simulator, p *pipeline.Pipeline) httpadapter.Readiness {
	checks := httpadapter.Readiness{sim}
	if p != nil {
		checks = append(checks, p)
	}
	return checks
}

// newSink builds the configured event sink wrapped in a circuit breaker.
func newSink(ctx context.Context, cfg *config.Config, logger *slog.Logger) (simulator.Publisher, io.Closer, error) {
	breaker := events.BreakerSettings{
		Name:        cfg.EventSink,
		MaxFailures: cfg.BreakerMaxFailures,
		OpenTimeout: cfg.BreakerOpenTimeout,
	}

	switch cfg.EventSink {
	case config.SinkKafka:
		w := kafkaadapter.NewWriter(cfg, logger)
		logger.Info("event sink enabled", "sink", "kafka", "topic", cfg.KafkaEventsTopic)
		return events.NewBreaker(w, breaker, logger), w, nil

	case config.SinkRedis:
		pub := redisstream.NewPublisher(redisstream.NewClient(cfg), cfg.RedisStream, cfg.RedisStreamMaxLen, logger)
		if err := pingWithRetry(ctx, pub, logger); err != nil {
			_ = pub.Close()
			return nil, nil, err
		}
		logger.Info("event sink enabled", "sink", "redis", "stream", cfg.RedisStream)
		return events.NewBreaker(pub, breaker, logger), pub, nil

	default:
		logger.Info("event sink disabled")
		return events.Nop{}, nopCloser{}, nil
	}
}

// pingWithRetry waits for Redis to accept connections, backing off
// exponentially for up to five attempts.
func pingWithRetry(ctx context.Context, pub *redisstream.Publisher, logger *slog.Logger) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 10 * time.Second

	err := backoff.Retry(func() error {
		if err := pub.Ping(ctx); err != nil {
			logger.Warn("redis not reachable, retrying", "error", err)
			return err
		}
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(bo, 4), ctx))
	if err != nil {
		return fmt.Errorf("connect to redis after retries: %w", err)
	}
	return nil
}
