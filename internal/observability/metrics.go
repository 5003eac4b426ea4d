package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "beachhub"

// Metrics holds the Prometheus counters, histograms, and gauges for the recommender.
type Metrics struct {
	RecommendationsBuilt prometheus.Counter
	ItemsEmitted         prometheus.Counter
	ItemsOmitted         *prometheus.CounterVec // labels: reason={observation,alerts,events,metadata,distance,party,timeout}
	SourceErrors         *prometheus.CounterVec // labels: source={observation,alerts,events}
	EventLookupsDegraded prometheus.Counter
	BuildDuration        prometheus.Histogram
	SafetyScore          prometheus.Histogram

	// Snapshot publisher.
	SnapshotsPublished prometheus.Counter
	PublisherRunning   prometheus.Gauge

	// Source decorators.
	CacheLookups        *prometheus.CounterVec // labels: source, result={hit,miss}
	CircuitBreakerState *prometheus.GaugeVec   // labels: name; 0 closed, 1 half-open, 2 open
}

// NewMetrics creates and registers all recommender metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RecommendationsBuilt,
		m.ItemsEmitted,
		m.ItemsOmitted,
		m.SourceErrors,
		m.EventLookupsDegraded,
		m.BuildDuration,
		m.SafetyScore,
		m.SnapshotsPublished,
		m.PublisherRunning,
		m.CacheLookups,
		m.CircuitBreakerState,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RecommendationsBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendations_built_total",
			Help:      "Total recommendation passes completed.",
		}),
		ItemsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_emitted_total",
			Help:      "Total recommendation items returned to callers.",
		}),
		ItemsOmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_omitted_total",
			Help:      "Beaches dropped from a pass, by reason.",
		}, []string{"reason"}),
		SourceErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_errors_total",
			Help:      "Failed source lookups by source.",
		}, []string{"source"}),
		EventLookupsDegraded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_lookups_degraded_total",
			Help:      "Event lookups that failed and were treated as no events.",
		}),
		BuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Duration of a complete recommendation pass.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		SafetyScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "safety_score",
			Help:      "Distribution of computed safety scores.",
			Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),
		SnapshotsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_published_total",
			Help:      "Recommendation snapshots written to Kafka.",
		}),
		PublisherRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "publisher_running",
			Help:      "1 when the snapshot publisher is active, 0 when shut down.",
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Source cache lookups by source and result.",
		}, []string{"source", "result"}),
		CircuitBreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Remote source circuit breaker state (0 closed, 1 half-open, 2 open).",
		}, []string{"name"}),
	}
}
