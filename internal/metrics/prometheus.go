package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/anstrom/scanviz/internal/errors"
)

const (
	namespace = "scanviz"

	subsystemPlayback = "playback"
	subsystemDatabase = "database"
	subsystemAPI      = "api"
	subsystemCatalog  = "catalog"
	subsystemSystem   = "system"

	statusSuccess = "success"
	statusError   = "error"
)

var (
	playbackBuckets = []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32}
	queryBuckets    = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}
	requestBuckets  = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5}
)

// PrometheusMetrics implements Recorder on a private registry, so several
// instances can coexist in one process.
type PrometheusMetrics struct {
	registry *prometheus.Registry
	started  time.Time

	sessions        *prometheus.CounterVec
	outcomes        *prometheus.CounterVec
	sessionDuration *prometheus.HistogramVec
	frames          *prometheus.CounterVec
	rejected        *prometheus.CounterVec
	playing         prometheus.Gauge

	queries       *prometheus.CounterVec
	queryDuration *prometheus.HistogramVec
	queryErrors   *prometheus.CounterVec

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestErrors   *prometheus.CounterVec

	scanTypes prometheus.Gauge

	clientsOnce sync.Once
}

func counter(subsystem, name, help string, labels ...string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: subsystem, Name: name, Help: help,
	}, labels)
}

func histogram(subsystem, name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Subsystem: subsystem, Name: name, Help: help, Buckets: buckets,
	}, labels)
}

func gauge(subsystem, name, help string) prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: subsystem, Name: name, Help: help,
	})
}

// NewPrometheusMetrics creates the collectors and registers them together
// with the Go runtime and process collectors.
func NewPrometheusMetrics() *PrometheusMetrics {
	pm := &PrometheusMetrics{
		registry: prometheus.NewRegistry(),
		started:  time.Now(),

		sessions: counter(subsystemPlayback, "sessions_total",
			"Playback sessions started, by scan type and port state", "scan_type", "port_state"),
		outcomes: counter(subsystemPlayback, "outcomes_total",
			"Finished playback sessions, by scan type and outcome", "scan_type", "outcome"),
		sessionDuration: histogram(subsystemPlayback, "duration_seconds",
			"Wall-clock duration of playback sessions", playbackBuckets, "scan_type"),
		frames: counter(subsystemPlayback, "frames_total",
			"Packets shown, by scan type and protocol", "scan_type", "protocol"),
		rejected: counter(subsystemPlayback, "rejected_actions_total",
			"Control actions refused while a session was playing", "action"),
		playing: gauge(subsystemPlayback, "active",
			"1 while a playback session is running"),

		queries: counter(subsystemDatabase, "queries_total",
			"Repository queries, by operation and status", "operation", "status"),
		queryDuration: histogram(subsystemDatabase, "query_duration_seconds",
			"Duration of repository queries", queryBuckets, "operation"),
		queryErrors: counter(subsystemDatabase, "errors_total",
			"Failed repository queries, by operation and error code", "operation", "error_type"),

		requests: counter(subsystemAPI, "requests_total",
			"HTTP requests, by method, route and status", "method", "path", "status"),
		requestDuration: histogram(subsystemAPI, "request_duration_seconds",
			"Duration of HTTP requests", requestBuckets, "method", "path"),
		requestErrors: counter(subsystemAPI, "errors_total",
			"HTTP responses with status 400 or above", "method", "path", "status"),

		scanTypes: gauge(subsystemCatalog, "scan_types",
			"Scan types in the loaded catalog"),
	}

	uptime := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: subsystemSystem, Name: "uptime_seconds",
		Help: "Seconds since the metrics were created",
	}, func() float64 { return time.Since(pm.started).Seconds() })

	pm.registry.MustRegister(
		pm.sessions, pm.outcomes, pm.sessionDuration, pm.frames, pm.rejected, pm.playing,
		pm.queries, pm.queryDuration, pm.queryErrors,
		pm.requests, pm.requestDuration, pm.requestErrors,
		pm.scanTypes, uptime,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return pm
}

// GetRegistry returns the registry served at /metrics.
func (pm *PrometheusMetrics) GetRegistry() *prometheus.Registry {
	return pm.registry
}

// Uptime reports how long the metrics have existed.
func (pm *PrometheusMetrics) Uptime() time.Duration {
	return time.Since(pm.started)
}

// SetCatalogSize records how many scan types the catalog holds.
func (pm *PrometheusMetrics) SetCatalogSize(n int) {
	pm.scanTypes.Set(float64(n))
}

// TrackWebSocketClients exports clients as a gauge read on every scrape.
// Only the first call registers.
func (pm *PrometheusMetrics) TrackWebSocketClients(clients func() int) {
	pm.clientsOnce.Do(func() {
		pm.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: subsystemAPI, Name: "websocket_clients",
			Help: "Connected playback stream clients",
		}, func() float64 { return float64(clients()) }))
	})
}

func (pm *PrometheusMetrics) PlaybackStarted(scanType, portState string) {
	pm.sessions.WithLabelValues(scanType, portState).Inc()
	pm.playing.Set(1)
}

func (pm *PrometheusMetrics) PlaybackFinished(scanType, outcome string, duration time.Duration) {
	pm.outcomes.WithLabelValues(scanType, outcome).Inc()
	pm.sessionDuration.WithLabelValues(scanType).Observe(duration.Seconds())
	pm.playing.Set(0)
}

func (pm *PrometheusMetrics) FrameShown(scanType, protocol string) {
	pm.frames.WithLabelValues(scanType, protocol).Inc()
}

func (pm *PrometheusMetrics) ActionRejected(action string) {
	pm.rejected.WithLabelValues(action).Inc()
}

// ObserveQuery labels failures with the error code of err.
func (pm *PrometheusMetrics) ObserveQuery(operation string, duration time.Duration, err error) {
	status := statusSuccess
	if err != nil {
		status = statusError
		pm.queryErrors.WithLabelValues(operation, string(errors.GetCode(err))).Inc()
	}
	pm.queries.WithLabelValues(operation, status).Inc()
	pm.queryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (pm *PrometheusMetrics) HTTPRequest(method, path string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	pm.requests.WithLabelValues(method, path, code).Inc()
	pm.requestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	if status >= 400 {
		pm.requestErrors.WithLabelValues(method, path, code).Inc()
	}
}
