// Package metrics provides Prometheus metrics for the CV ranking service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Matching batch metrics - the core business activity
	batchesStarted   prometheus.Counter
	batchesCompleted prometheus.Counter
	batchesConflict  prometheus.Counter
	cvsScored        prometheus.Counter
	cvsFailed        prometheus.Counter
	scoringLatency   prometheus.Histogram

	// Extraction metrics
	extractionsSucceeded prometheus.Counter
	extractionsFailed    prometheus.Counter
	extractionLatency    prometheus.Histogram

	// Claim/lease health
	claimsAcquired prometheus.Counter
	claimsExpired  prometheus.Counter

	// Store gauges - business scale indicators
	totalJobs      prometheus.Gauge
	totalCVs       prometheus.Gauge
	totalScoredCVs prometheus.Gauge
	batchesActive  prometheus.Gauge
	workerCount    prometheus.Gauge

	// HTTP performance metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error tracking by component
	errorsByComponent *prometheus.CounterVec

	// System metrics
	systemMemoryUsage prometheus.Gauge
	systemGoroutines  prometheus.Gauge
	systemGCPauseTime prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "cvranker",
		subsystem:        "matching",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.batchesStarted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batches_started_total",
		Help:      "Total number of scoring batches started",
	})

	m.batchesCompleted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batches_completed_total",
		Help:      "Total number of scoring batches completed",
	})

	m.batchesConflict = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batches_conflict_total",
		Help:      "Total number of batch requests rejected due to an in-flight batch",
	})

	m.cvsScored = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cvs_scored_total",
		Help:      "Total number of CVs scored successfully",
	})

	m.cvsFailed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cvs_failed_total",
		Help:      "Total number of per-CV scoring failures",
	})

	m.scoringLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scoring_latency_milliseconds",
		Help:      "Histogram of per-CV scoring latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.extractionsSucceeded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "extractions_succeeded_total",
		Help:      "Total number of successful extraction runs",
	})

	m.extractionsFailed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "extractions_failed_total",
		Help:      "Total number of failed extraction runs",
	})

	m.extractionLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "extraction_latency_milliseconds",
		Help:      "Histogram of extraction latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.claimsAcquired = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "claims_acquired_total",
		Help:      "Total number of CV scoring claims acquired",
	})

	m.claimsExpired = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "claims_expired_total",
		Help:      "Total number of CV scoring claims that expired and were reclaimed",
	})

	m.totalJobs = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "total_jobs",
		Help:      "Total number of jobs in the store",
	})

	m.totalCVs = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "total_cvs",
		Help:      "Total number of CVs in the store",
	})

	m.totalScoredCVs = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "total_scored_cvs",
		Help:      "Total number of CVs carrying a score",
	})

	m.batchesActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batches_active",
		Help:      "Number of scoring batches currently in flight",
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_count",
		Help:      "Configured per-batch scoring worker bound",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorsByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_total",
			Help:      "Total number of errors by component and type",
		},
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "memory_usage_bytes",
		Help:      "Current heap memory usage in bytes",
	})

	m.systemGoroutines = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "goroutine_count",
		Help:      "Current number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "gc_pause_milliseconds",
		Help:      "Histogram of GC pause time in milliseconds",
		Buckets:   m.histogramBuckets,
	})
}

// Batch metrics functions.

// RecordBatchStarted increments the started-batch counter.
func RecordBatchStarted() {
	globalManager.batchesStarted.Inc()
}

// RecordBatchCompleted increments the completed-batch counter.
func RecordBatchCompleted() {
	globalManager.batchesCompleted.Inc()
}

// RecordBatchConflict increments the batch-conflict counter.
func RecordBatchConflict() {
	globalManager.batchesConflict.Inc()
}

// RecordCVScored increments the scored-CV counter.
func RecordCVScored() {
	globalManager.cvsScored.Inc()
}

// RecordCVFailed increments the per-CV failure counter.
func RecordCVFailed() {
	globalManager.cvsFailed.Inc()
}

// RecordScoringLatency records per-CV scoring latency in milliseconds.
func RecordScoringLatency(latencyMs float64) {
	globalManager.scoringLatency.Observe(latencyMs)
}

// Extraction metrics functions.

// RecordExtractionSucceeded increments the successful extraction counter.
func RecordExtractionSucceeded() {
	globalManager.extractionsSucceeded.Inc()
}

// RecordExtractionFailed increments the failed extraction counter.
func RecordExtractionFailed() {
	globalManager.extractionsFailed.Inc()
}

// RecordExtractionLatency records extraction latency in milliseconds.
func RecordExtractionLatency(latencyMs float64) {
	globalManager.extractionLatency.Observe(latencyMs)
}

// Claim metrics functions.

// RecordClaimAcquired increments the acquired-claim counter.
func RecordClaimAcquired() {
	globalManager.claimsAcquired.Inc()
}

// RecordClaimExpired increments the expired-claim counter.
func RecordClaimExpired() {
	globalManager.claimsExpired.Inc()
}

// Store gauge functions.

// UpdateTotalJobs sets the total job count gauge.
func UpdateTotalJobs(count int) {
	globalManager.totalJobs.Set(float64(count))
}

// UpdateTotalCVs sets the total CV count gauge.
func UpdateTotalCVs(count int) {
	globalManager.totalCVs.Set(float64(count))
}

// UpdateTotalScoredCVs sets the scored CV count gauge.
func UpdateTotalScoredCVs(count int) {
	globalManager.totalScoredCVs.Set(float64(count))
}

// UpdateBatchesActive sets the in-flight batch gauge.
func UpdateBatchesActive(count int) {
	globalManager.batchesActive.Set(float64(count))
}

// UpdateWorkerCount sets the worker bound gauge.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// HTTP metrics functions.

// RecordHTTPRequest records an HTTP request with labels.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration with labels.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// System metrics functions.

// UpdateSystemMemoryUsage sets the heap memory gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutines.Set(float64(count))
}

// RecordSystemGCPauseTime records a GC pause duration in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
