// Package metrics provides Prometheus metrics for the touchline pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for touchline.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Acquisition
	sourceFetches *prometheus.CounterVec
	fetchAttempts *prometheus.CounterVec
	fetchLatency  *prometheus.HistogramVec
	breakerState  *prometheus.GaugeVec
	tableRows     *prometheus.GaugeVec

	// Pipeline
	classRecords  *prometheus.GaugeVec
	classFailures *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	runs          *prometheus.CounterVec
	lastRunUnix   prometheus.Gauge
	lastRunMs     prometheus.Gauge

	// Results store
	storeRecords      *prometheus.GaugeVec
	storeQueryLatency prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec
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
		namespace:        "touchline",
		subsystem:        "pipeline",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.sourceFetches = auto.NewCounterVec(
		m.counterOpts("source_fetches_total", "Source acquisitions by outcome (ok, empty, failed)"),
		[]string{"source", "outcome"},
	)
	m.fetchAttempts = auto.NewCounterVec(
		m.counterOpts("fetch_attempts_total", "HTTP fetch attempts by host and result"),
		[]string{"host", "result"},
	)
	m.fetchLatency = auto.NewHistogramVec(
		m.histogramOpts("fetch_latency_milliseconds", "Latency of single HTTP fetch attempts"),
		[]string{"host"},
	)
	m.breakerState = auto.NewGaugeVec(
		m.gaugeOpts("breaker_state", "Circuit breaker state per host (0 closed, 1 half-open, 2 open)"),
		[]string{"host"},
	)
	m.tableRows = auto.NewGaugeVec(
		m.gaugeOpts("table_rows", "Rows in the last normalized table per source"),
		[]string{"source"},
	)

	m.classRecords = auto.NewGaugeVec(
		m.gaugeOpts("class_records", "Records per player class at each pipeline stage"),
		[]string{"class", "stage"},
	)
	m.classFailures = auto.NewCounterVec(
		m.counterOpts("class_failures_total", "Class runs that produced no export"),
		[]string{"class", "reason"},
	)
	m.stageDuration = auto.NewHistogramVec(
		m.histogramOpts("stage_duration_milliseconds", "Duration of pipeline stages"),
		[]string{"stage"},
	)
	m.runs = auto.NewCounterVec(
		m.counterOpts("runs_total", "Pipeline runs by outcome"),
		[]string{"outcome"},
	)
	m.lastRunUnix = auto.NewGauge(m.gaugeOpts("last_run_unix", "Unix timestamp of the last finished run"))
	m.lastRunMs = auto.NewGauge(m.gaugeOpts("last_run_duration_milliseconds", "Duration of the last finished run"))

	m.storeRecords = auto.NewGaugeVec(
		m.gaugeOpts("store_records", "Ranked records currently published per class"),
		[]string{"class"},
	)
	m.storeQueryLatency = auto.NewHistogram(
		m.histogramOpts("store_query_latency_milliseconds", "Results store query latency"),
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)
}

// RecordSourceFetch counts one source acquisition outcome.
func RecordSourceFetch(source, outcome string) {
	globalManager.sourceFetches.WithLabelValues(source, outcome).Inc()
}

// RecordFetchAttempt counts one HTTP attempt against host.
func RecordFetchAttempt(host, result string) {
	globalManager.fetchAttempts.WithLabelValues(host, result).Inc()
}

// RecordFetchLatency records the latency of one HTTP attempt.
func RecordFetchLatency(host string, latencyMs float64) {
	globalManager.fetchLatency.WithLabelValues(host).Observe(latencyMs)
}

// UpdateBreakerState sets the breaker state gauge for host.
func UpdateBreakerState(host string, state int) {
	globalManager.breakerState.WithLabelValues(host).Set(float64(state))
}

// UpdateTableRows sets the normalized row count for source.
func UpdateTableRows(source string, rows int) {
	globalManager.tableRows.WithLabelValues(source).Set(float64(rows))
}

// UpdateClassRecords sets the record count of class at stage.
func UpdateClassRecords(class, stage string, count int) {
	globalManager.classRecords.WithLabelValues(class, stage).Set(float64(count))
}

// RecordClassFailure counts a class that produced no export.
func RecordClassFailure(class, reason string) {
	globalManager.classFailures.WithLabelValues(class, reason).Inc()
}

// RecordStageDuration records how long a pipeline stage took.
func RecordStageDuration(stage string, d time.Duration) {
	globalManager.stageDuration.WithLabelValues(stage).Observe(float64(d.Milliseconds()))
}

// RecordRun counts a finished run and updates the last-run gauges.
func RecordRun(outcome string, finished time.Time, d time.Duration) {
	globalManager.runs.WithLabelValues(outcome).Inc()
	globalManager.lastRunUnix.Set(float64(finished.Unix()))
	globalManager.lastRunMs.Set(float64(d.Milliseconds()))
}

// UpdateStoreRecords sets the published record count for class.
func UpdateStoreRecords(class string, count int) {
	globalManager.storeRecords.WithLabelValues(class).Set(float64(count))
}

// RecordStoreQueryLatency records a results store query latency.
func RecordStoreQueryLatency(latencyMs float64) {
	globalManager.storeQueryLatency.Observe(latencyMs)
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

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
