package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Capture metrics
	CapturesTotal   *prometheus.CounterVec
	CaptureDuration *prometheus.HistogramVec
	PayloadBytes    prometheus.Counter
	CapturesActive  prometheus.Gauge
	BreakerState    prometheus.Gauge

	// Transport metrics
	Connections   *prometheus.CounterVec
	WSConnections prometheus.Gauge

	startTime time.Time
	snapshot  Snapshot
	mu        sync.RWMutex
}

// Snapshot holds running totals for the JSON health endpoint
type Snapshot struct {
	Captures       int64   `json:"captures"`
	Failures       int64   `json:"failures"`
	PayloadBytes   int64   `json:"payload_bytes"`
	Active         int64   `json:"active"`
	UptimeSeconds  float64 `json:"uptime_seconds"`
	LastOutcome    string  `json:"last_outcome,omitempty"`
	AverageSeconds float64 `json:"average_seconds"`

	totalSeconds float64
}

// NewMetrics creates a collector on its own registry, so several instances
// can coexist (tests, embedded use)
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fbbridge_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fbbridge_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fbbridge_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
			},
			[]string{"method", "path"},
		),

		CapturesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fbbridge_captures_total",
				Help: "Total number of framebuffer captures by outcome",
			},
			[]string{"outcome"},
		),
		CaptureDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fbbridge_capture_duration_seconds",
				Help:    "Framebuffer capture duration in seconds",
				Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"outcome"},
		),
		PayloadBytes: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "fbbridge_payload_bytes_total",
				Help: "Total pixel bytes forwarded to sinks",
			},
		),
		CapturesActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "fbbridge_captures_active",
				Help: "Number of captures in progress",
			},
		),
		BreakerState: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "fbbridge_breaker_state",
				Help: "Producer launch breaker state (0 closed, 1 half-open, 2 open)",
			},
		),

		Connections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fbbridge_connections_total",
				Help: "Total number of accepted sink connections by transport",
			},
			[]string{"transport"},
		),
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "fbbridge_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "fbbridge_uptime_seconds",
			Help: "Bridge uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Handler returns the Prometheus exposition handler for this registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))
}

// RecordCapture records a finished capture
func (m *Metrics) RecordCapture(outcome string, duration time.Duration, payloadBytes int64) {
	m.CapturesTotal.WithLabelValues(outcome).Inc()
	m.CaptureDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	if payloadBytes > 0 {
		m.PayloadBytes.Add(float64(payloadBytes))
	}

	m.mu.Lock()
	m.snapshot.Captures++
	if outcome != "ok" {
		m.snapshot.Failures++
	}
	m.snapshot.PayloadBytes += payloadBytes
	m.snapshot.LastOutcome = outcome
	m.snapshot.totalSeconds += duration.Seconds()
	m.mu.Unlock()
}

// IncCapturesActive marks a capture as started
func (m *Metrics) IncCapturesActive() {
	m.CapturesActive.Inc()
	m.mu.Lock()
	m.snapshot.Active++
	m.mu.Unlock()
}

// DecCapturesActive marks a capture as finished
func (m *Metrics) DecCapturesActive() {
	m.CapturesActive.Dec()
	m.mu.Lock()
	m.snapshot.Active--
	m.mu.Unlock()
}

// SetBreakerState publishes the launch breaker state
func (m *Metrics) SetBreakerState(state int) {
	m.BreakerState.Set(float64(state))
}

// IncConnections counts an accepted connection on a transport
func (m *Metrics) IncConnections(transport string) {
	m.Connections.WithLabelValues(transport).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
}

// Snapshot returns a copy of the running totals
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.snapshot
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	if s.Captures > 0 {
		s.AverageSeconds = s.totalSeconds / float64(s.Captures)
	}
	return s
}
