package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/disaster-feed-service/internal/domain"
	"github.com/couchcryptid/disaster-feed-service/internal/observability"
	"github.com/couchcryptid/disaster-feed-service/internal/pipeline"
	"github.com/couchcryptid/disaster-feed-service/internal/simulator"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockExtractor struct {
	batches [][]domain.RawMessage
	errs    []error
	index   atomic.Int64
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, _ int) ([]domain.RawMessage, error) {
	i := int(m.index.Add(1) - 1)
	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	if i >= len(m.batches) {
		// block until context cancelled to simulate waiting for messages
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.batches[i], nil
}

type mockLoader struct {
	mu       sync.Mutex
	loaded   []domain.SensorReading
	failures int
	calls    int
}

func (m *mockLoader) LoadReadings(_ context.Context, readings []domain.SensorReading) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failures > 0 {
		m.failures--
		return errors.New("loader unavailable")
	}
	m.loaded = append(m.loaded, readings...)
	return nil
}

func (m *mockLoader) snapshot() []domain.SensorReading {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.SensorReading, len(m.loaded))
	copy(out, m.loaded)
	return out
}

func newTestMetrics() *observability.Metrics {
	// Use a fresh registry to avoid "already registered" panics in tests.
	return observability.NewMetricsForTesting()
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	var committed atomic.Int64
	raw := makeRawMessage(t, "Adyar", 18)
	raw.Commit = func(context.Context) error {
		committed.Add(1)
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawMessage{{raw}}}
	ldr := &mockLoader{}
	metrics := newTestMetrics()
	p := pipeline.New(ext, pipeline.NewTransformer(slog.Default()), ldr, slog.Default(), metrics, 50)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	loaded := ldr.snapshot()
	require.Len(t, loaded, 1)
	assert.Equal(t, "Adyar", loaded[0].Location)
	assert.InDelta(t, 18, loaded[0].Water, 1e-9)
	assert.Equal(t, int64(1), committed.Load())
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.ReadingsConsumed), 1e-9)
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ext := &mockExtractor{}
	ldr := &mockLoader{}
	p := pipeline.New(ext, pipeline.NewTransformer(slog.Default()), ldr, slog.Default(), newTestMetrics(), 50)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, p.Run(ctx))
	assert.Empty(t, ldr.snapshot())
}

func TestPipeline_Run_InvalidMessageSkippedAndCommitted(t *testing.T) {
	var badCommitted, goodCommitted bool
	bad := domain.RawMessage{Value: []byte("not-json{{{"), Commit: func(context.Context) error {
		badCommitted = true
		return nil
	}}
	noLocation := domain.RawMessage{Value: []byte(`{"water":10}`)}
	good := makeRawMessage(t, "Velachery", 60)
	good.Commit = func(context.Context) error {
		goodCommitted = true
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawMessage{{bad, noLocation, good}}}
	ldr := &mockLoader{}
	metrics := newTestMetrics()
	p := pipeline.New(ext, pipeline.NewTransformer(slog.Default()), ldr, slog.Default(), metrics, 50)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	loaded := ldr.snapshot()
	require.Len(t, loaded, 1)
	assert.Equal(t, "Velachery", loaded[0].Location)
	assert.True(t, badCommitted, "poison pill offset must be committed")
	assert.True(t, goodCommitted)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.ReadingsRejected), 1e-9)
}

func TestPipeline_Run_AllInvalidSkipsLoader(t *testing.T) {
	ext := &mockExtractor{batches: [][]domain.RawMessage{{{Value: []byte("[]")}}}}
	ldr := &mockLoader{}
	p := pipeline.New(ext, pipeline.NewTransformer(slog.Default()), ldr, slog.Default(), newTestMetrics(), 50)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.Zero(t, ldr.calls)
}

func TestPipeline_Run_ExtractErrorBacksOffAndRecovers(t *testing.T) {
	ext := &mockExtractor{
		errs:    []error{errors.New("broker down")},
		batches: [][]domain.RawMessage{nil, {makeRawMessage(t, "Guindy", 40)}},
	}
	ldr := &mockLoader{}
	p := pipeline.New(ext, pipeline.NewTransformer(slog.Default()), ldr, slog.Default(), newTestMetrics(), 50)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	go func() {
		assert.Eventually(t, func() bool { return len(ldr.snapshot()) == 1 }, 900*time.Millisecond, 10*time.Millisecond)
		cancel()
	}()
	require.NoError(t, p.Run(ctx))
	assert.Len(t, ldr.snapshot(), 1)
}

func TestPipeline_Run_LoadRetriedBeforeCommit(t *testing.T) {
	var commits atomic.Int64
	raw := makeRawMessage(t, "Adyar", 30)
	raw.Commit = func(context.Context) error {
		commits.Add(1)
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawMessage{{raw}}}
	ldr := &mockLoader{failures: 1}
	p := pipeline.New(ext, pipeline.NewTransformer(slog.Default()), ldr, slog.Default(), newTestMetrics(), 50)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	go func() {
		assert.Eventually(t, func() bool { return commits.Load() == 1 }, 900*time.Millisecond, 10*time.Millisecond)
		cancel()
	}()
	require.NoError(t, p.Run(ctx))
	assert.Len(t, ldr.snapshot(), 1)
	assert.Equal(t, 2, ldr.calls)
}

func TestPipeline_CheckReadiness(t *testing.T) {
	ext := &mockExtractor{}
	metrics := newTestMetrics()
	p := pipeline.New(ext, pipeline.NewTransformer(slog.Default()), &mockLoader{}, slog.Default(), metrics, 50)

	require.Error(t, p.CheckReadiness(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = p.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return p.CheckReadiness(context.Background()) == nil
	}, time.Second, 5*time.Millisecond)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.PipelineRunning), 1e-9)

	cancel()
	<-done
	assert.Error(t, p.CheckReadiness(context.Background()))
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.PipelineRunning), 1e-9)
}

func TestPipeline_AppliesReadingsToSimulator(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 11, 30, 9, 15, 0, 0, time.UTC))
	sim := simulator.New(slog.Default(), newTestMetrics(),
		simulator.WithClock(clock),
		simulator.WithSeed(7),
		simulator.WithCatalog([]domain.Location{{Name: "Adyar", Lat: 13.0012, Lng: 80.2565}}),
	)
	sim.Initialize(context.Background())

	ext := &mockExtractor{batches: [][]domain.RawMessage{{makeRawMessage(t, "ADYAR", 10)}}}
	p := pipeline.New(ext, pipeline.NewTransformer(slog.Default()), sim, slog.Default(), newTestMetrics(), 50)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	require.NoError(t, p.Run(ctx))

	points, _ := sim.Points()
	require.Len(t, points, 1)
	assert.Equal(t, domain.SeverityRed, points[0].Severity)
	assert.Equal(t, 10, points[0].WaterLevel)
}

func TestSensorTransformer_Transform(t *testing.T) {
	ts := time.Date(2024, 11, 30, 9, 0, 0, 0, time.UTC)
	raw := domain.RawMessage{
		Value:     []byte(`{"location":"  Marina Beach ","water":42.5,"rainfall":61}`),
		Timestamp: ts,
	}

	got, err := pipeline.NewTransformer(slog.Default()).Transform(context.Background(), raw)
	require.NoError(t, err)

	rain := 61.0
	want := domain.SensorReading{Location: "Marina Beach", Water: 42.5, Rainfall: &rain, Timestamp: ts}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("reading mismatch (-want +got):\n%s", diff)
	}
}

func TestSensorTransformer_RejectsNegativeWater(t *testing.T) {
	raw := domain.RawMessage{Value: []byte(`{"location":"Adyar","water":-3}`)}

	_, err := pipeline.NewTransformer(slog.Default()).Transform(context.Background(), raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid water value")
}

// --- helpers ---

func makeRawMessage(t *testing.T, location string, water float64) domain.RawMessage {
	t.Helper()
	data, err := json.Marshal(map[string]any{"location": location, "water": water})
	require.NoError(t, err)
	return domain.RawMessage{
		Key:       []byte(location),
		Value:     data,
		Topic:     "sensor-readings",
		Timestamp: time.Now(),
	}
}
