// Package metrics provides Prometheus metrics for the weekboard service.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the weekboard service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Leaderboard
	rankingLatency prometheus.Histogram
	rankedItems    prometheus.Histogram
	rowsDropped    *prometheus.CounterVec
	upstreamCalls  *prometheus.HistogramVec

	// Cache
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	cacheErrors     *prometheus.CounterVec
	cacheWriteDrops prometheus.Counter
	breakerState    *prometheus.GaugeVec

	// Artifacts
	renderLatency prometheus.Histogram
	uploadLatency prometheus.Histogram
	registryHits  prometheus.Counter
	renderErrors  *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Cache write queue
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge
	queueEnqueue     prometheus.Counter
	queueDequeue     prometheus.Counter
	queueEnqueueErrs prometheus.Counter

	// Workers
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
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
		namespace:        "weekboard",
		subsystem:        "leaderboard",
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

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
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

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.rankingLatency = m.histogram("ranking_latency_milliseconds",
		"Time spent ranking one collection window", m.histogramBuckets)
	m.rankedItems = m.histogram("ranked_items",
		"Number of items in a computed ranking", prometheus.ExponentialBuckets(1, 4, 8))
	m.rowsDropped = m.counterVec("rows_dropped_total",
		"Ranked items dropped from a page because metadata was missing", "reason")
	m.upstreamCalls = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "upstream_latency_milliseconds",
		Help:      "Latency of upstream store calls",
		Buckets:   m.histogramBuckets,
	}, []string{"store", "outcome"})

	m.cacheHits = m.counterVec("cache_hits_total", "Cache hits by operation", "op")
	m.cacheMisses = m.counterVec("cache_misses_total", "Cache misses by operation", "op")
	m.cacheErrors = m.counterVec("cache_errors_total", "Cache errors by operation and direction", "op", "direction")
	m.cacheWriteDrops = m.counter("cache_write_drops_total",
		"Cache writes dropped because the write queue was full or closed")
	m.breakerState = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "circuit_breaker_state",
		Help:      "Circuit breaker state (0 closed, 1 half-open, 2 open)",
	}, []string{"name"})

	m.renderLatency = m.histogram("render_latency_milliseconds", "Image render latency", m.histogramBuckets)
	m.uploadLatency = m.histogram("upload_latency_milliseconds", "Image upload latency", m.histogramBuckets)
	m.registryHits = m.counter("render_registry_hits_total", "Artifacts served from the render registry")
	m.renderErrors = m.counterVec("render_errors_total", "Artifact pipeline failures by stage", "stage")

	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.queueSize = m.gauge("queue_size", "Current size of the cache write queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum cache write queue capacity")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue utilization ratio (current size / capacity)")
	m.queueEnqueue = m.counter("queue_enqueue_total", "Total number of jobs enqueued")
	m.queueDequeue = m.counter("queue_dequeue_total", "Total number of jobs dequeued")
	m.queueEnqueueErrs = m.counter("queue_enqueue_errors_total", "Total number of enqueue errors")

	m.workerCount = m.gauge("worker_count", "Current number of cache writer workers")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds",
		"Worker processing latency in milliseconds", m.histogramBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Total number of worker errors")

	m.errorRateByComponent = m.counterVec("errors_by_component_total",
		"Total number of errors by component", "component", "error_type")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total",
		"Total number of errors by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
}

// Leaderboard Metrics Functions.

// RecordRankingLatency records ranking latency in milliseconds.
func RecordRankingLatency(latencyMs float64) {
	globalManager.rankingLatency.Observe(latencyMs)
}

// RecordRankedItems records the size of a computed ranking.
func RecordRankedItems(n int) {
	globalManager.rankedItems.Observe(float64(n))
}

// RecordRowsDropped counts ranked items left off a page.
func RecordRowsDropped(reason string, n int) {
	if n <= 0 {
		return
	}
	globalManager.rowsDropped.WithLabelValues(reason).Add(float64(n))
}

// RecordUpstreamLatency records one upstream store call.
func RecordUpstreamLatency(store, outcome string, latencyMs float64) {
	globalManager.upstreamCalls.WithLabelValues(store, outcome).Observe(latencyMs)
}

// Cache Metrics Functions.

// RecordCacheHit increments the cache hit counter for op.
func RecordCacheHit(op string) {
	globalManager.cacheHits.WithLabelValues(op).Inc()
}

// RecordCacheMiss increments the cache miss counter for op.
func RecordCacheMiss(op string) {
	globalManager.cacheMisses.WithLabelValues(op).Inc()
}

// RecordCacheError increments the cache error counter. direction is "read" or "write".
func RecordCacheError(op, direction string) {
	globalManager.cacheErrors.WithLabelValues(op, direction).Inc()
}

// RecordCacheWriteDropped increments the dropped write counter.
func RecordCacheWriteDropped() {
	globalManager.cacheWriteDrops.Inc()
}

// UpdateBreakerState publishes the state of a named circuit breaker.
// Unknown states are ignored.
func UpdateBreakerState(name, state string) {
	v, err := breakerStateValue(state)
	if err != nil {
		return
	}
	globalManager.breakerState.WithLabelValues(name).Set(v)
}

func breakerStateValue(state string) (float64, error) {
	switch state {
	case "closed":
		return 0, nil
	case "half-open":
		return 1, nil
	case "open":
		return 2, nil //nolint:mnd // gauge encoding
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownBreakerState, state)
	}
}

// Artifact Metrics Functions.

// RecordRenderLatency records image render latency.
func RecordRenderLatency(latencyMs float64) {
	globalManager.renderLatency.Observe(latencyMs)
}

// RecordUploadLatency records image upload latency.
func RecordUploadLatency(latencyMs float64) {
	globalManager.uploadLatency.Observe(latencyMs)
}

// RecordRegistryHit increments the registry hit counter.
func RecordRegistryHit() {
	globalManager.registryHits.Inc()
}

// RecordRenderError increments the artifact failure counter for stage.
func RecordRenderError(stage string) {
	globalManager.renderErrors.WithLabelValues(stage).Inc()
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Queue Metrics Functions.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueue.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeue.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrs.Inc()
}

// Worker Metrics Functions.

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
