// Package telemetry provides Prometheus metrics for watch mode.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus instruments for recurring score computation.
type Metrics struct {
	registry *prometheus.Registry

	computeRuns     prometheus.Counter
	computeErrors   prometheus.Counter
	computeDuration prometheus.Histogram
	lastComputeUnix prometheus.Gauge
	rankedUsers     prometheus.Gauge
}

// New creates a Metrics instance backed by its own registry, keeping the
// scrape output free of default Go collector noise.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	auto := promauto.With(registry)

	m := &Metrics{registry: registry}
	m.computeRuns = auto.NewCounter(prometheus.CounterOpts{
		Namespace: "devscore",
		Name:      "compute_runs_total",
		Help:      "Total number of score computation runs",
	})
	m.computeErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: "devscore",
		Name:      "compute_errors_total",
		Help:      "Total number of failed score computation runs",
	})
	m.computeDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "devscore",
		Name:      "compute_duration_seconds",
		Help:      "Histogram of score computation run duration in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	m.lastComputeUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: "devscore",
		Name:      "last_compute_timestamp_seconds",
		Help:      "Unix timestamp of the last completed score computation",
	})
	m.rankedUsers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: "devscore",
		Name:      "ranked_users",
		Help:      "Number of ranked users in the most recent leaderboard snapshot",
	})
	return m
}

// Handler returns the /metrics scrape endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveComputeRun records the outcome of one computation run.
func (m *Metrics) ObserveComputeRun(duration time.Duration, err error) {
	m.computeRuns.Inc()
	m.computeDuration.Observe(duration.Seconds())
	if err != nil {
		m.computeErrors.Inc()
		return
	}
	m.lastComputeUnix.Set(float64(time.Now().Unix()))
}

// SetRankedUsers records the entry count of the latest snapshot.
func (m *Metrics) SetRankedUsers(n int) {
	m.rankedUsers.Set(float64(n))
}
