package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "disaster_feed"

// Metrics holds the Prometheus counters, histograms, and gauges for the feed.
type Metrics struct {
	// Simulator state transitions.
	PointsCreated     prometheus.Counter
	MissionsAssigned  *prometheus.CounterVec // labels: agency={NDRF,NGO,other}
	MissionsCompleted prometheus.Counter
	Ticks             prometheus.Counter
	ActivePoints      prometheus.Gauge
	ActiveMissions    prometheus.Gauge

	// Sensor ingest pipeline.
	ReadingsConsumed        prometheus.Counter
	ReadingsApplied         prometheus.Counter
	ReadingsRejected        prometheus.Counter
	PipelineRunning         prometheus.Gauge
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Event sink.
	EventsPublished *prometheus.CounterVec // labels: type
	EventsFailed    *prometheus.CounterVec // labels: type

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeAPIDuration prometheus.Histogram
	GeocodeEnabled     prometheus.Gauge
}

// NewMetrics creates and registers all feed metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		PointsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_created_total",
			Help:      "Total hazard points generated.",
		}),
		MissionsAssigned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "missions_assigned_total",
			Help:      "Total missions assigned, by agency (NDRF, NGO, other).",
		}, []string{"agency"}),
		MissionsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "missions_completed_total",
			Help:      "Total missions completed.",
		}),
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Total simulation ticks.",
		}),
		ActivePoints: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_points",
			Help:      "Hazard points awaiting a response.",
		}),
		ActiveMissions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_missions",
			Help:      "Missions in progress.",
		}),
		ReadingsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sensor_readings_consumed_total",
			Help:      "Total messages read from the sensor topic.",
		}),
		ReadingsApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sensor_readings_applied_total",
			Help:      "Total sensor readings that updated at least one point.",
		}),
		ReadingsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sensor_readings_rejected_total",
			Help:      "Total sensor messages that failed to parse.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the sensor pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete sensor batch cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Feed events delivered to the event sink, by type.",
		}, []string{"type"}),
		EventsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_failed_total",
			Help:      "Feed events the event sink rejected, by type.",
		}, []string{"type"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      "1 when catalog geocoding is enabled, 0 otherwise.",
		}),
	}

	prometheus.MustRegister(
		m.PointsCreated,
		m.MissionsAssigned,
		m.MissionsCompleted,
		m.Ticks,
		m.ActivePoints,
		m.ActiveMissions,
		m.ReadingsConsumed,
		m.ReadingsApplied,
		m.ReadingsRejected,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.EventsPublished,
		m.EventsFailed,
		m.GeocodeRequests,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		PointsCreated:           prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "points_created_total"}),
		MissionsAssigned:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "missions_assigned_total"}, []string{"agency"}),
		MissionsCompleted:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "missions_completed_total"}),
		Ticks:                   prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "ticks_total"}),
		ActivePoints:            prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "active_points"}),
		ActiveMissions:          prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "active_missions"}),
		ReadingsConsumed:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "sensor_readings_consumed_total"}),
		ReadingsApplied:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "sensor_readings_applied_total"}),
		ReadingsRejected:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "sensor_readings_rejected_total"}),
		PipelineRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "pipeline_running"}),
		BatchSize:               prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "batch_size"}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "batch_processing_duration_seconds"}),
		EventsPublished:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "events_published_total"}, []string{"type"}),
		EventsFailed:            prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "events_failed_total"}, []string{"type"}),
		GeocodeRequests:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "geocode_requests_total"}, []string{"outcome"}),
		GeocodeAPIDuration:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "geocode_api_duration_seconds"}),
		GeocodeEnabled:          prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "geocode_enabled"}),
	}
}
