package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Event sink names accepted by EVENT_SINK.
const (
	SinkNone  = "none"
	SinkKafka = "kafka"
	SinkRedis = "redis"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Simulation.
	TickInterval     time.Duration
	Seed             uint64
	SpawnProbability float64

	EventSink string

	KafkaBrokers       []string
	KafkaEventsTopic   string
	KafkaSensorTopic   string
	KafkaGroupID       string
	SensorIngest       bool
	BatchSize          int
	BatchFlushInterval time.Duration

	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	RedisStream       string
	RedisStreamMaxLen int64

	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	tickInterval, err := parseDuration("TICK_INTERVAL", "0s", true)
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := parseDuration("MAPBOX_TIMEOUT", "5s", false)
	if err != nil {
		return nil, err
	}

	breakerOpen, err := parseDuration("BREAKER_OPEN_TIMEOUT", "30s", false)
	if err != nil {
		return nil, err
	}

	seed, err := strconv.ParseUint(sharedcfg.EnvOrDefault("SIM_SEED", "0"), 10, 64)
	if err != nil {
		return nil, errors.New("invalid SIM_SEED")
	}

	spawn, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("NEW_POINT_PROBABILITY", "0.3"), 64)
	if err != nil || spawn < 0 || spawn > 1 {
		return nil, errors.New("invalid NEW_POINT_PROBABILITY: must be between 0 and 1")
	}

	redisDB, err := strconv.Atoi(sharedcfg.EnvOrDefault("REDIS_DB", "0"))
	if err != nil || redisDB < 0 {
		return nil, errors.New("invalid REDIS_DB")
	}

	maxLen, err := strconv.ParseInt(sharedcfg.EnvOrDefault("REDIS_STREAM_MAXLEN", "10000"), 10, 64)
	if err != nil || maxLen < 0 {
		return nil, errors.New("invalid REDIS_STREAM_MAXLEN")
	}

	maxFailures, err := strconv.ParseUint(sharedcfg.EnvOrDefault("BREAKER_MAX_FAILURES", "5"), 10, 32)
	if err != nil || maxFailures == 0 {
		return nil, errors.New("invalid BREAKER_MAX_FAILURES")
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":5000"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		TickInterval:     tickInterval,
		Seed:             seed,
		SpawnProbability: spawn,

		EventSink: sharedcfg.EnvOrDefault("EVENT_SINK", SinkNone),

		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaEventsTopic:   sharedcfg.EnvOrDefault("KAFKA_EVENTS_TOPIC", "disaster-feed-events"),
		KafkaSensorTopic:   sharedcfg.EnvOrDefault("KAFKA_SENSOR_TOPIC", "sensor-readings"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "disaster-feed"),
		SensorIngest:       os.Getenv("SENSOR_INGEST_ENABLED") == "true",
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		RedisAddr:         sharedcfg.EnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisDB:           redisDB,
		RedisStream:       sharedcfg.EnvOrDefault("REDIS_STREAM", "disaster-feed-events"),
		RedisStreamMaxLen: maxLen,

		BreakerMaxFailures: uint32(maxFailures),
		BreakerOpenTimeout: breakerOpen,

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),
	}

	switch cfg.EventSink {
	case SinkNone, SinkKafka, SinkRedis:
	default:
		return nil, fmt.Errorf("invalid EVENT_SINK %q: want none, kafka or redis", cfg.EventSink)
	}
	if (cfg.EventSink == SinkKafka || cfg.SensorIngest) && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.EventSink == SinkKafka && cfg.KafkaEventsTopic == "" {
		return nil, errors.New("KAFKA_EVENTS_TOPIC is required")
	}
	if cfg.SensorIngest && cfg.KafkaSensorTopic == "" {
		return nil, errors.New("KAFKA_SENSOR_TOPIC is required")
	}
	if cfg.EventSink == SinkRedis && cfg.RedisStream == "" {
		return nil, errors.New("REDIS_STREAM is required")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

// parseDuration reads a duration variable. Zero is accepted only when allowZero is set.
func parseDuration(key, def string, allowZero bool) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d < 0 || (d == 0 && !allowZero) {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
