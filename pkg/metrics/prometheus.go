// Package metrics provides Prometheus metrics for the telematics dashboard service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the telematics service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Feedback simulation
	ticks               prometheus.Counter
	eventsByType        *prometheus.CounterVec
	drivingScore        prometheus.Histogram
	simulationsStarted  prometheus.Counter
	simulationsIgnored  prometheus.Counter
	simulationsFinished prometheus.Counter
	simulationsActive   prometheus.Gauge
	markReadTotal       *prometheus.CounterVec

	// Sessions
	sessionsCreated prometheus.Counter
	sessionsReaped  prometheus.Counter
	sessionsActive  prometheus.Gauge

	// Scheduler
	schedulerFires   *prometheus.CounterVec
	schedulerPending prometheus.Gauge

	// Live feed
	streamSubscribers prometheus.Gauge
	streamPublished   prometheus.Counter
	streamDropped     prometheus.Counter

	// Queue
	queueSize              prometheus.Gauge
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueueRate       prometheus.Counter
	queueDequeueRate       prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Worker
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

	// Dashboard
	dashboardLoads *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec
	errorLatency        *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
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
		namespace:        "telematics",
		subsystem:        "feedback",
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
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: buckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	m.ticks = m.counter("ticks_total", "Total number of simulated feedback events generated")
	m.eventsByType = m.counterVec("events_total", "Simulated feedback events by event type", "type")
	m.drivingScore = m.histogram("driving_score", "Driving score after each applied event",
		prometheus.LinearBuckets(0, 10, 11))
	m.simulationsStarted = m.counter("simulations_started_total", "Total number of simulation runs started")
	m.simulationsIgnored = m.counter("simulations_ignored_total", "Start requests ignored because a run was active")
	m.simulationsFinished = m.counter("simulations_finished_total", "Total number of simulation runs that expired")
	m.simulationsActive = m.gauge("simulations_active", "Current number of running simulations")
	m.markReadTotal = m.counterVec("mark_read_total", "Mark-read requests by outcome", "outcome")

	m.sessionsCreated = m.counter("sessions_created_total", "Total number of feedback sessions created")
	m.sessionsReaped = m.counter("sessions_reaped_total", "Total number of idle sessions disposed by the reaper")
	m.sessionsActive = m.gauge("sessions_active", "Current number of feedback sessions")

	m.schedulerFires = m.counterVec("scheduler_fires_total", "Scheduled task executions by kind", "kind")
	m.schedulerPending = m.gauge("scheduler_pending", "Current number of pending scheduled tasks")

	m.streamSubscribers = m.gauge("stream_subscribers", "Current number of live feed subscribers")
	m.streamPublished = m.counter("stream_published_total", "Notifications delivered to live feed subscribers")
	m.streamDropped = m.counter("stream_dropped_total", "Notifications dropped for slow live feed subscribers")

	m.queueSize = m.gauge("queue_size", "Current size of the notification queue (backlog indicator)")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum capacity of the notification queue")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue utilization ratio (0-1)")
	m.queueEnqueueRate = m.counter("queue_enqueue_total", "Total number of notifications enqueued")
	m.queueDequeueRate = m.counter("queue_dequeue_total", "Total number of notifications dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Total number of enqueue errors (queue full)")
	m.queueProcessingLatency = m.histogram("queue_processing_latency_milliseconds",
		"Time a notification spent in the queue in milliseconds", m.histogramBuckets)

	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds",
		"Dispatcher processing latency in milliseconds", m.histogramBuckets)
	m.workerErrorRate = m.counter("worker_errors_total", "Total number of dispatcher errors")

	m.dashboardLoads = m.counterVec("dashboard_requests_total", "Dashboard view requests by load state", "state")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", "endpoint", "method", "status_code")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint, method and type",
		"endpoint", "method", "error_type")
	m.errorLatency = m.histogramVec("error_latency_milliseconds", "Latency of requests that failed",
		"component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_bytes", "Heap memory in use in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutines", "Current number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_milliseconds", "Most recent GC pause in milliseconds",
		m.histogramBuckets)
}

// RecordTick counts one generated feedback event and observes the resulting score.
func RecordTick(eventType string, score int) {
	globalManager.ticks.Inc()
	globalManager.eventsByType.WithLabelValues(eventType).Inc()
	globalManager.drivingScore.Observe(float64(score))
}

// RecordSimulationStarted counts a started run.
func RecordSimulationStarted() {
	globalManager.simulationsStarted.Inc()
	globalManager.simulationsActive.Inc()
}

// RecordSimulationIgnored counts a start request made while a run was active.
func RecordSimulationIgnored() {
	globalManager.simulationsIgnored.Inc()
}

// RecordSimulationFinished counts a run leaving the Running state.
func RecordSimulationFinished() {
	globalManager.simulationsFinished.Inc()
	globalManager.simulationsActive.Dec()
}

// RecordMarkRead counts a mark-read request; hit reports whether the id existed.
func RecordMarkRead(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	globalManager.markReadTotal.WithLabelValues(outcome).Inc()
}

// RecordSessionCreated increments the created sessions counter.
func RecordSessionCreated() {
	globalManager.sessionsCreated.Inc()
}

// RecordSessionsReaped adds n reaped sessions.
func RecordSessionsReaped(n int) {
	globalManager.sessionsReaped.Add(float64(n))
}

// UpdateSessionsActive sets the current number of sessions.
func UpdateSessionsActive(n int) {
	globalManager.sessionsActive.Set(float64(n))
}

// RecordSchedulerFire counts a scheduled task execution of the given kind.
func RecordSchedulerFire(kind string) {
	globalManager.schedulerFires.WithLabelValues(kind).Inc()
}

// UpdateSchedulerPending sets the number of pending scheduled tasks.
func UpdateSchedulerPending(n int) {
	globalManager.schedulerPending.Set(float64(n))
}

// UpdateStreamSubscribers sets the current number of live feed subscribers.
func UpdateStreamSubscribers(n int) {
	globalManager.streamSubscribers.Set(float64(n))
}

// RecordStreamPublished counts a delivered notification.
func RecordStreamPublished() {
	globalManager.streamPublished.Inc()
}

// RecordStreamDropped counts a notification dropped for a slow subscriber.
func RecordStreamDropped() {
	globalManager.streamDropped.Inc()
}

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
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordQueueProcessingLatency records queue processing latency.
func RecordQueueProcessingLatency(latencyMs float64) {
	globalManager.queueProcessingLatency.Observe(latencyMs)
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrorRate.Inc()
}

// RecordDashboardRequest counts a dashboard request in the given state ("loading" or "ready").
func RecordDashboardRequest(state string) {
	globalManager.dashboardLoads.WithLabelValues(state).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
