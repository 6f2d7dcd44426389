// Package observability provides logging, Prometheus metrics, and OpenTelemetry
// tracing for the discovery client and its tools.
//
// # Overview
//
// Logging uses logrus. Components accept a *logrus.Logger and fall back to a
// default when none is given; FromContext adds trace and span IDs from the
// active span.
//
// # Structured Logging
//
// Create logger:
//
//	logger := observability.NewLogger(logrus.InfoLevel, observability.JSONFormat, os.Stderr)
//	logger.WithField("country", "fi").Info("Querying services")
//
// # Prometheus Metrics
//
// Register client metrics:
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewClientMetrics(registry)
//	client := discovery.New(discovery.WithMetrics(metrics))
//
// Exposed series:
//
//	ssd_client_requests_total{operation,method,status}
//	ssd_client_request_duration_seconds{operation,method}
//	ssd_client_response_size_bytes{operation}
//	ssd_client_transport_errors_total{operation}
//	ssd_schema_validations_total{result}
//	ssd_session_events_total{event,result}
//
// # OpenTelemetry
//
// Initialize exporters (OTLP over gRPC):
//
//	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
//		Enabled:     true,
//		Endpoint:    "otel-collector:4317",
//		ServiceName: "ssd-cli",
//		Insecure:    true,
//	}, logger)
//	defer providers.Shutdown(ctx)
//
// # Related Packages
//
//   - pkg/config: Observability configuration
//   - pkg/discovery: Records request metrics and spans
package observability
