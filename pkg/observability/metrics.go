package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ClientMetrics holds the Prometheus metrics of the discovery client and
// session manager
type ClientMetrics struct {
	// Discovery API metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec
	TransportErrors *prometheus.CounterVec

	// Schema validation metrics
	ValidationsTotal *prometheus.CounterVec

	// Session metrics
	SessionEventsTotal *prometheus.CounterVec
}

// NewClientMetrics creates the client metrics and registers them on registry.
// A nil registry leaves the metrics unregistered, which is useful in tests.
func NewClientMetrics(registry prometheus.Registerer) *ClientMetrics {
	m := &ClientMetrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ssd_client_requests_total",
				Help: "Total number of discovery API requests",
			},
			[]string{"operation", "method", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ssd_client_request_duration_seconds",
				Help:    "Discovery API request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "method"},
		),
		ResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ssd_client_response_size_bytes",
				Help:    "Discovery API response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"operation"},
		),
		TransportErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ssd_client_transport_errors_total",
				Help: "Total number of discovery API requests that failed before a response was received",
			},
			[]string{"operation"},
		),
		ValidationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ssd_schema_validations_total",
				Help: "Total number of SSR schema validations",
			},
			[]string{"result"},
		),
		SessionEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ssd_session_events_total",
				Help: "Total number of authentication session events",
			},
			[]string{"event", "result"},
		),
	}

	if registry != nil {
		registry.MustRegister(
			m.RequestsTotal,
			m.RequestDuration,
			m.ResponseSize,
			m.TransportErrors,
			m.ValidationsTotal,
			m.SessionEventsTotal,
		)
	}

	return m
}

// RecordRequest records a completed discovery API request
func (m *ClientMetrics) RecordRequest(operation, method string, status int, duration time.Duration, size int) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(operation, method, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(operation, method).Observe(duration.Seconds())
	if size >= 0 {
		m.ResponseSize.WithLabelValues(operation).Observe(float64(size))
	}
}

// RecordTransportError records a request that never produced a response
func (m *ClientMetrics) RecordTransportError(operation string) {
	if m == nil {
		return
	}
	m.TransportErrors.WithLabelValues(operation).Inc()
}

// RecordValidation records the outcome of a schema validation
func (m *ClientMetrics) RecordValidation(err error) {
	if m == nil {
		return
	}
	m.ValidationsTotal.WithLabelValues(result(err)).Inc()
}

// RecordSessionEvent records a session event such as "login" or "logout"
func (m *ClientMetrics) RecordSessionEvent(event string, err error) {
	if m == nil {
		return
	}
	m.SessionEventsTotal.WithLabelValues(event, result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
