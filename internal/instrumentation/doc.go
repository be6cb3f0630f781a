// Package instrumentation provides OpenTelemetry metrics for the server.
//
// It records HTTP requests, MCP tool invocations, Calendar API operations
// and OAuth token refresh attempts. Metrics are exported via Prometheus by
// default; OTLP and stdout exporters are available for other backends.
// Metric labels never carry user identifiers or token material.
package instrumentation
