package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "discovery"

// Trajectory query outcomes.
const (
	OutcomeFound    = "found"
	OutcomeFallback = "fallback"
	OutcomeCached   = "cached"
	OutcomeError    = "error"
)

// Metrics holds the Prometheus collectors of the engine. Each instance owns
// its registry. All methods are safe on a nil receiver.
type Metrics struct {
	Registry *prometheus.Registry

	StageDuration       *prometheus.HistogramVec
	RunsTotal           *prometheus.CounterVec
	Concepts            prometheus.Gauge
	Edges               prometheus.Gauge
	Communities         prometheus.Gauge
	GapCandidates       prometheus.Gauge
	TrajectoryQueries   *prometheus.CounterVec
	TrajectoryPaths     prometheus.Histogram
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Pipeline stage latency in seconds.",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
			},
			[]string{"stage"},
		),
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total analysis runs by status.",
			},
			[]string{"status"},
		),
		Concepts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "concepts",
			Help:      "Number of concepts in the last report.",
		}),
		Edges: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "link_edges",
			Help:      "Number of directed link edges in the last report.",
		}),
		Communities: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "communities",
			Help:      "Number of detected communities in the last report.",
		}),
		GapCandidates: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "gap_candidates",
			Help:      "Number of retained gap candidates in the last report.",
		}),
		TrajectoryQueries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "trajectory_queries_total",
				Help:      "Trajectory queries by outcome (found, fallback, cached, error).",
			},
			[]string{"outcome"},
		),
		TrajectoryPaths: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "trajectory_paths_enumerated",
			Help:      "Simple paths enumerated per trajectory query.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds.",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
	}

	m.Registry.MustRegister(
		m.StageDuration,
		m.RunsTotal,
		m.Concepts,
		m.Edges,
		m.Communities,
		m.GapCandidates,
		m.TrajectoryQueries,
		m.TrajectoryPaths,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)
	return m
}

// Handler returns the Prometheus scrape HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// ObserveStage records a stage duration.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordRun counts a finished run.
func (m *Metrics) RecordRun(status string) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(status).Inc()
}

// SetReportSize publishes the size of the latest report.
func (m *Metrics) SetReportSize(concepts, edges, communities, gaps int) {
	if m == nil {
		return
	}
	m.Concepts.Set(float64(concepts))
	m.Edges.Set(float64(edges))
	m.Communities.Set(float64(communities))
	m.GapCandidates.Set(float64(gaps))
}

// RecordTrajectory counts a trajectory query and, unless cached, its work.
func (m *Metrics) RecordTrajectory(outcome string, enumerated int) {
	if m == nil {
		return
	}
	m.TrajectoryQueries.WithLabelValues(outcome).Inc()
	if outcome == OutcomeFound || outcome == OutcomeFallback {
		m.TrajectoryPaths.Observe(float64(enumerated))
	}
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, path, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}
