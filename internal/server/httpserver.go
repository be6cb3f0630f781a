package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/calbridge/calbridge/internal/instrumentation"
)

// HTTPServerConfig holds configuration for the MCP HTTP server.
type HTTPServerConfig struct {
	// Addr is the address to bind to (e.g., ":8080").
	Addr string

	// APIKey is the pre-shared key gating all MCP traffic. Empty disables
	// authentication (a warning is logged).
	APIKey string

	// Metrics records HTTP request metrics. May be nil.
	Metrics *instrumentation.Metrics

	// Logger for server lifecycle events.
	Logger *slog.Logger
}

// HTTPServer serves the MCP protocol over streamable HTTP on /mcp, with
// health endpoints and the API key gate in front.
type HTTPServer struct {
	httpServer *http.Server
	addr       string
	logger     *slog.Logger
}

// NewHTTPServer wires the MCP server, health checker and middleware into an
// HTTP server ready to start.
func NewHTTPServer(mcpServer *mcpserver.MCPServer, health *HealthChecker, config HTTPServerConfig) *HTTPServer {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	streamable := mcpserver.NewStreamableHTTPServer(mcpServer,
		mcpserver.WithEndpointPath("/mcp"),
	)

	mux := http.NewServeMux()
	mux.Handle("/mcp", streamable)
	if health != nil {
		health.RegisterHealthEndpoints(mux)
	}

	var handler http.Handler = mux
	handler = httpMetricsMiddleware(config.Metrics)(handler)
	handler = APIKeyMiddleware(config.APIKey, logger)(handler)

	return &HTTPServer{
		httpServer: &http.Server{
			Addr:              config.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		addr:   config.Addr,
		logger: logger,
	}
}

// Start starts the HTTP server in a blocking manner.
func (s *HTTPServer) Start() error {
	s.logger.Info("starting MCP HTTP server", "addr", s.addr)
	return s.httpServer.ListenAndServe()
}

// Handler returns the composed handler. Used in tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.httpServer.Handler
}

// Shutdown gracefully shuts down the server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down MCP HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// httpMetricsMiddleware records request counts and latency per method and path.
func httpMetricsMiddleware(metrics *instrumentation.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if metrics == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(recorder, r)

			metrics.RecordHTTPRequest(r.Context(), r.Method, r.URL.Path, recorder.status, time.Since(start))
		})
	}
}
