// Package server provides the MCP server context, HTTP transport and
// operational endpoints.
//
// ServerContext carries the shared dependencies (credential store, credential
// resolver, metrics) into tool handlers. It holds no per-user API clients:
// handlers resolve credentials and build clients per call, so credential
// changes take effect immediately.
//
// HTTPServer exposes the MCP protocol over streamable HTTP on /mcp behind a
// pre-shared API key gate. Health endpoints (/healthz, /readyz) are exempt
// from the gate so Kubernetes probes keep working. Prometheus metrics are
// served by MetricsServer on a dedicated port.
package server
