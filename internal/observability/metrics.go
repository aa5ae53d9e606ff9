package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// point-resolver pipeline.
type Metrics struct {
	RunsTotal    *prometheus.CounterVec // labels: outcome={fresh,fallback_prior,fallback_diagnostic}
	RunDuration  prometheus.Histogram
	ResolverBusy prometheus.Gauge

	// Upstream fetch metrics.
	FetchAttempts *prometheus.CounterVec // labels: result={success,retryable,client_error,network_error,empty_body}
	FetchRetries  prometheus.Counter
	FetchDuration prometheus.Histogram

	// Tier escalation metrics.
	TiersAttempted prometheus.Histogram
	RowsParsed     prometheus.Histogram

	LastSuccessTimestamp prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.ResolverBusy,
		m.FetchAttempts,
		m.FetchRetries,
		m.FetchDuration,
		m.TiersAttempted,
		m.RowsParsed,
		m.LastSuccessTimestamp,
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
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "currentpoint",
			Name:      "runs_total",
			Help:      "Completed pipeline runs by outcome.",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "currentpoint",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete resolve-and-persist run.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		}),
		ResolverBusy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "currentpoint",
			Name:      "resolver_busy",
			Help:      "1 while a run is in progress, 0 between runs.",
		}),
		FetchAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "currentpoint",
			Name:      "fetch_attempts_total",
			Help:      "Upstream GET attempts by result classification.",
		}, []string{"result"}),
		FetchRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "currentpoint",
			Name:      "fetch_retries_total",
			Help:      "Backoff-and-retry cycles within the fetcher.",
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "currentpoint",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of individual upstream GET attempts.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 5, 15, 30, 60},
		}),
		TiersAttempted: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "currentpoint",
			Name:      "tiers_attempted",
			Help:      "Number of escalation tiers tried before a run settled.",
			Buckets:   []float64{1, 2, 3, 4, 5},
		}),
		RowsParsed: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "currentpoint",
			Name:      "rows_parsed",
			Help:      "Valid sample rows parsed from the winning tier's response.",
			Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000},
		}),
		LastSuccessTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "currentpoint",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run that resolved fresh data.",
		}),
	}
}
