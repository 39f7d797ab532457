package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the relay.
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// RPC metrics: one command execution through the bridge
	RPCTotal    *prometheus.CounterVec
	RPCDuration *prometheus.HistogramVec
	RPCErrors   *prometheus.CounterVec

	// Target metrics
	TargetsActive prometheus.Gauge
	TargetsTotal  prometheus.Counter

	// Injection metrics
	Injections prometheus.Counter

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	m := &Metrics{
		startTime: time.Now(),

		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "relay_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		RPCTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_rpc_total",
				Help: "Total number of RPC commands executed",
			},
			[]string{"command", "status"},
		),
		RPCDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "relay_rpc_duration_seconds",
				Help:    "RPC command duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"command"},
		),
		RPCErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_rpc_errors_total",
				Help: "Total number of RPC errors by taxonomy code",
			},
			[]string{"command", "code"},
		),

		TargetsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "relay_targets_active",
				Help: "Number of registered targets",
			},
		),
		TargetsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "relay_targets_total",
				Help: "Total number of targets created",
			},
		),

		Injections: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "relay_injections_total",
				Help: "Total number of executor installs into target scopes",
			},
		),

		WSConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "relay_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),

		Uptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "relay_uptime_seconds",
				Help: "Relay uptime in seconds",
			},
		),
	}

	go m.updateUptime()

	return m
}

// updateUptime continuously updates the uptime metric.
func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.Uptime.Set(time.Since(m.startTime).Seconds())
	}
}

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordRPC records one command execution.
func (m *Metrics) RecordRPC(command, status string, duration time.Duration) {
	m.RPCTotal.WithLabelValues(command, status).Inc()
	m.RPCDuration.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordRPCError records a failed command by taxonomy code.
func (m *Metrics) RecordRPCError(command, code string) {
	m.RPCErrors.WithLabelValues(command, code).Inc()
}

// RecordWSMessage records a WebSocket message.
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// SetTargetsActive sets the number of registered targets.
func (m *Metrics) SetTargetsActive(count int) {
	m.TargetsActive.Set(float64(count))
}

// IncTargetsTotal increments the total targets counter.
func (m *Metrics) IncTargetsTotal() {
	m.TargetsTotal.Inc()
}

// IncInjections increments the executor install counter.
func (m *Metrics) IncInjections() {
	m.Injections.Inc()
}

// IncWSConnections increments WebSocket connections.
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections.
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
}
