// Package metrics provides Prometheus metrics for the thunder rating service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Skip reasons for matches that reach the replay driver but not the store.
const (
	SkipCutoff    = "cutoff"
	SkipTie       = "tie"
	SkipNonFinite = "non_finite"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Refresh cycle
	refreshesTotal   prometheus.Counter
	refreshFailures  prometheus.Counter
	refreshDuration  prometheus.Histogram
	refreshLastUnix  prometheus.Gauge
	matchesReplayed  prometheus.Counter
	matchesSkipped   *prometheus.CounterVec
	seedRejections   prometheus.Counter
	playersTotal     prometheus.Gauge
	solverIterations prometheus.Histogram
	solverCapHits    prometheus.Counter

	// Ingestion
	ingestIssues *prometheus.CounterVec

	// Snapshot export
	snapshotBuildDuration prometheus.Histogram

	// Refresh queue and worker
	queueSize               prometheus.Gauge
	queueCapacity           prometheus.Gauge
	queueUtilization        prometheus.Gauge
	queueEnqueued           prometheus.Counter
	queueDequeued           prometheus.Counter
	queueRejected           prometheus.Counter
	workerProcessingLatency prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "thunder",
		subsystem:        "ratings",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.refreshesTotal = m.counter("refreshes_total", "Total number of completed refresh cycles")
	m.refreshFailures = m.counter("refresh_failures_total", "Total number of refresh cycles that failed to publish")
	m.refreshDuration = m.histogram("refresh_duration_milliseconds", "Duration of a full load and replay in milliseconds",
		[]float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000})
	m.refreshLastUnix = m.gauge("refresh_last_success_unix", "Unix time of the last published snapshot")
	m.matchesReplayed = m.counter("matches_replayed_total", "Total number of matches fed to the rating store")
	m.matchesSkipped = m.counterVec("matches_skipped_total", "Matches not applied to ratings, by reason", "reason")
	m.seedRejections = m.counter("seed_rejections_total", "Total number of rejected seed records")
	m.playersTotal = m.gauge("players_total", "Number of players in the live snapshot")
	m.solverIterations = m.histogram("volatility_solver_iterations", "Iterations used per volatility solve",
		[]float64{1, 2, 3, 4, 5, 6, 8, 10, 15, 20, 30, 50})
	m.solverCapHits = m.counter("volatility_solver_cap_hits_total", "Volatility solves that stopped at the iteration cap")

	m.ingestIssues = m.counterVec("ingest_issues_total", "Rows rejected or repaired during ingestion, by issue", "issue")

	m.snapshotBuildDuration = m.histogram("snapshot_build_duration_milliseconds", "Time to export a snapshot in milliseconds",
		m.histogramBuckets)

	m.queueSize = m.gauge("refresh_queue_size", "Pending refresh requests")
	m.queueCapacity = m.gauge("refresh_queue_capacity", "Capacity of the refresh queue")
	m.queueUtilization = m.gauge("refresh_queue_utilization_ratio", "Refresh queue fill ratio (0-1)")
	m.queueEnqueued = m.counter("refresh_queue_enqueued_total", "Refresh requests accepted")
	m.queueDequeued = m.counter("refresh_queue_dequeued_total", "Refresh requests handed to the worker")
	m.queueRejected = m.counter("refresh_queue_rejected_total", "Refresh requests rejected by backpressure or shutdown")
	m.workerProcessingLatency = m.histogram("refresh_worker_latency_milliseconds", "Worker time per refresh request",
		m.histogramBuckets)

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")
}

// RecordRefresh records a published refresh and its duration.
func RecordRefresh(duration time.Duration) {
	globalManager.refreshesTotal.Inc()
	globalManager.refreshDuration.Observe(float64(duration.Microseconds()) / 1000)
	globalManager.refreshLastUnix.Set(float64(time.Now().Unix()))
}

// RecordRefreshFailure increments the failed refresh counter.
func RecordRefreshFailure() {
	globalManager.refreshFailures.Inc()
}

// RecordMatchReplayed increments the replayed match counter.
func RecordMatchReplayed() {
	globalManager.matchesReplayed.Inc()
}

// RecordMatchSkipped counts a match dropped for reason.
func RecordMatchSkipped(reason string) {
	globalManager.matchesSkipped.WithLabelValues(reason).Inc()
}

// RecordSeedRejected counts a rejected seed.
func RecordSeedRejected() {
	globalManager.seedRejections.Inc()
}

// UpdatePlayersTotal sets the player gauge.
func UpdatePlayersTotal(n int) {
	globalManager.playersTotal.Set(float64(n))
}

// RecordSolve observes one volatility solve.
func RecordSolve(iterations int, converged bool) {
	globalManager.solverIterations.Observe(float64(iterations))
	if !converged {
		globalManager.solverCapHits.Inc()
	}
}

// RecordIngestIssue counts one ingestion issue of the given kind.
func RecordIngestIssue(issue string) {
	globalManager.ingestIssues.WithLabelValues(issue).Inc()
}

// RecordSnapshotBuild records snapshot export time in milliseconds.
func RecordSnapshotBuild(ms float64) {
	globalManager.snapshotBuildDuration.Observe(ms)
}

// UpdateQueueSize sets the pending request gauge.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity gauge.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue fill ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments accepted requests.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments dequeued requests.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueRejected increments rejected requests.
func RecordQueueRejected() {
	globalManager.queueRejected.Inc()
}

// RecordWorkerProcessingLatency records worker time per request.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordHTTPRequest counts one HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent counts an error raised by component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
