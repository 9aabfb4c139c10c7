// Package metrics provides Prometheus metrics for vinylo voting sessions.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels shared by the session recorders.
const (
	OutcomeReady    = "ready"
	OutcomeEmpty    = "empty"
	OutcomeFailed   = "failed"
	OutcomeStale    = "stale"
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
	OutcomeOK       = "ok"
)

// Manager manages all Prometheus metrics for vinylo.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Session metrics
	fetches        *prometheus.CounterVec
	votes          *prometheus.CounterVec
	votesInFlight  prometheus.Gauge
	exclusions     *prometheus.CounterVec
	snapshots      *prometheus.CounterVec
	settleDuration prometheus.Histogram
	activeSessions prometheus.Gauge

	// Backend client metrics
	backendRequests        *prometheus.CounterVec
	backendRequestDuration *prometheus.HistogramVec

	// Development backend HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorRateByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "vinylo",
		subsystem:        "session",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		enabled:          true,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)
	constLabels := prometheus.Labels(m.customLabels)

	m.fetches = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("matchup_fetches_total"),
		Help:        "Matchup fetch results by outcome (ready, empty, failed, stale)",
		ConstLabels: constLabels,
	}, []string{"outcome"})

	m.votes = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("votes_total"),
		Help:        "Vote decisions by outcome (accepted, failed, rejected)",
		ConstLabels: constLabels,
	}, []string{"outcome"})

	m.votesInFlight = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("votes_in_flight"),
		Help:        "Vote submissions currently awaiting the backend",
		ConstLabels: constLabels,
	})

	m.exclusions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("exclusions_total"),
		Help:        "Ignore and restore calls by action and outcome",
		ConstLabels: constLabels,
	}, []string{"action", "outcome"})

	m.snapshots = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("snapshots_total"),
		Help:        "Share snapshot captures by renderer and outcome",
		ConstLabels: constLabels,
	}, []string{"renderer", "outcome"})

	m.settleDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("settle_duration_milliseconds"),
		Help:        "Time a voted pair stayed on screen with its updated scores",
		Buckets:     m.histogramBuckets,
		ConstLabels: constLabels,
	})

	m.activeSessions = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("active"),
		Help:        "Number of running session controllers",
		ConstLabels: constLabels,
	})

	m.backendRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "backend",
		Name:        m.name("requests_total"),
		Help:        "Backend requests by endpoint, method and status code",
		ConstLabels: constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.backendRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   "backend",
		Name:        m.name("request_duration_milliseconds"),
		Help:        "Backend request latency in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "stub",
		Name:        m.name("http_requests_total"),
		Help:        "Requests served by the development backend",
		ConstLabels: constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   "stub",
		Name:        m.name("http_request_duration_milliseconds"),
		Help:        "Development backend request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("errors_total"),
		Help:        "Errors by component and type",
		ConstLabels: constLabels,
	}, []string{"component", "error_type"})
}

// RecordFetch counts a matchup fetch result.
func RecordFetch(outcome string) {
	if !globalManager.enabled {
		return
	}
	globalManager.fetches.WithLabelValues(outcome).Inc()
}

// RecordVote counts a vote decision result.
func RecordVote(outcome string) {
	if !globalManager.enabled {
		return
	}
	globalManager.votes.WithLabelValues(outcome).Inc()
}

// AddVotesInFlight moves the in-flight vote gauge by delta.
func AddVotesInFlight(delta int) {
	globalManager.votesInFlight.Add(float64(delta))
}

// RecordExclusion counts an ignore or restore call.
func RecordExclusion(action, outcome string) {
	if !globalManager.enabled {
		return
	}
	globalManager.exclusions.WithLabelValues(action, outcome).Inc()
}

// RecordSnapshot counts a share capture.
func RecordSnapshot(renderer, outcome string) {
	if !globalManager.enabled {
		return
	}
	globalManager.snapshots.WithLabelValues(renderer, outcome).Inc()
}

// RecordSettleDuration records how long a voted pair was held before refetching.
func RecordSettleDuration(latencyMs float64) {
	globalManager.settleDuration.Observe(latencyMs)
}

// AddActiveSessions moves the running sessions gauge by delta.
func AddActiveSessions(delta int) {
	globalManager.activeSessions.Add(float64(delta))
}

// RecordBackendRequest records a request made by the backend client.
func RecordBackendRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.backendRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.backendRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordHTTPRequest records a request served by the development backend.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records development backend request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
