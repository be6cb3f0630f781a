package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/calbridge/calbridge/internal/credentials"
	"github.com/calbridge/calbridge/internal/instrumentation"
	"github.com/calbridge/calbridge/internal/server"
	"github.com/calbridge/calbridge/internal/store"
	"github.com/calbridge/calbridge/internal/tools/calendar_tools"
	"github.com/calbridge/calbridge/internal/tools/credential_tools"
)

// DefaultDBPath is the default location of the credential database.
const DefaultDBPath = "calbridge.db"

// ServeConfig holds the resolved configuration for the serve command.
type ServeConfig struct {
	// Transport is the MCP transport type: "stdio" or "streamable-http".
	Transport string

	// HTTPAddr is the bind address for the streamable-http transport.
	HTTPAddr string

	// DBPath is the path to the SQLite credential database.
	DBPath string

	// APIKey is the pre-shared key gating MCP traffic on the HTTP transport.
	// Empty disables authentication (a warning is logged at startup).
	APIKey string

	// Debug enables debug logging.
	Debug bool

	// Metrics configures the dedicated metrics server.
	Metrics MetricsConfig
}

// MetricsConfig holds configuration for the metrics server.
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

func newServeCmd() *cobra.Command {
	var config ServeConfig

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server to provide Google Calendar
tools for AI assistants.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport

Credentials:
  Per-user OAuth client credentials and refresh tokens are stored in a local
  SQLite database (--db-path or CALBRIDGE_DB_PATH). Use the setup_credentials
  tool to store them; access tokens are refreshed lazily per call.

Authentication (HTTP transport only):
  All MCP traffic is gated by a pre-shared API key (--api-key or
  CALBRIDGE_API_KEY), presented as an X-API-Key header or Bearer token.
  Health endpoints are exempt. An empty key disables the gate.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// .env files are a local development convenience. A missing file
			// is not an error.
			_ = godotenv.Load()

			applyEnvFallbacks(cmd, &config)
			return runServe(config)
		},
	}

	cmd.Flags().BoolVar(&config.Debug, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&config.Transport, "transport", "stdio", "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&config.HTTPAddr, "http-addr", ":8080", "HTTP server address (for streamable-http transport). Can also use CALBRIDGE_HTTP_ADDR env var.")
	cmd.Flags().StringVar(&config.DBPath, "db-path", DefaultDBPath, "Path to the SQLite credential database. Can also use CALBRIDGE_DB_PATH env var.")
	cmd.Flags().StringVar(&config.APIKey, "api-key", "", "Pre-shared API key for the HTTP transport. Can also use CALBRIDGE_API_KEY env var.")
	cmd.Flags().BoolVar(&config.Metrics.Enabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&config.Metrics.Addr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

// applyEnvFallbacks fills settings from environment variables.
// Environment variables only apply when the flag was not explicitly set.
func applyEnvFallbacks(cmd *cobra.Command, config *ServeConfig) {
	if !cmd.Flags().Changed("db-path") {
		if path := os.Getenv("CALBRIDGE_DB_PATH"); path != "" {
			config.DBPath = path
		}
	}

	if !cmd.Flags().Changed("api-key") {
		if key := os.Getenv("CALBRIDGE_API_KEY"); key != "" {
			config.APIKey = key
		}
	}

	if !cmd.Flags().Changed("http-addr") {
		if addr := os.Getenv("CALBRIDGE_HTTP_ADDR"); addr != "" {
			config.HTTPAddr = addr
		}
	}

	if !cmd.Flags().Changed("transport") {
		if transport := os.Getenv("CALBRIDGE_TRANSPORT"); transport != "" {
			config.Transport = transport
		}
	}

	if !cmd.Flags().Changed("metrics-enabled") {
		if os.Getenv("METRICS_ENABLED") == "false" {
			config.Metrics.Enabled = false
		}
	}

	if !cmd.Flags().Changed("metrics-addr") {
		if addr := os.Getenv("METRICS_ADDR"); addr != "" {
			config.Metrics.Addr = addr
		}
	}
}

func runServe(config ServeConfig) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	setupLogging(config.Debug)

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	if err := instrConfig.Validate(); err != nil {
		return fmt.Errorf("invalid instrumentation configuration: %w", err)
	}

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(shutdownCtx); err != nil {
			slog.Error("error during instrumentation shutdown", "error", err)
		}
	}()

	// Open the credential database and bring the schema up to date.
	db, err := store.NewDB(config.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open credential database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("error closing credential database", "error", err)
		}
	}()

	if err := store.RunMigrations(db.Writer); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	credStore := store.NewCredentialStore(db)
	resolver := credentials.NewResolver(credStore,
		credentials.WithRefreshRecorder(provider.Metrics()),
	)

	serverContext := server.NewServerContext(shutdownCtx, credStore, resolver, provider.Metrics())
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			slog.Error("error during server context shutdown", "error", err)
		}
	}()

	// Create MCP server
	mcpSrv := mcpserver.NewMCPServer("calbridge", version,
		mcpserver.WithToolCapabilities(true),
	)

	// Register all tools
	if err := registerAllTools(mcpSrv, serverContext); err != nil {
		return err
	}

	// Start the appropriate server based on transport type
	switch config.Transport {
	case "stdio":
		return runStdioServer(mcpSrv)
	case "streamable-http":
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, provider, config)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", config.Transport)
	}
}

// setupLogging configures the default slog logger. Logs go to stderr so the
// stdio transport's protocol stream on stdout stays clean.
func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}

// registerAllTools registers all MCP tools.
// Extracted so generate-docs registers the same set.
func registerAllTools(mcpSrv *mcpserver.MCPServer, ctx *server.ServerContext) error {
	// Define all tool registrations
	type toolRegistration struct {
		name     string
		register func() error
	}

	registrations := []toolRegistration{
		{
			name: "Calendar",
			register: func() error {
				return calendar_tools.RegisterCalendarTools(mcpSrv, ctx)
			},
		},
		{
			name: "Credentials",
			register: func() error {
				return credential_tools.RegisterCredentialTools(mcpSrv, ctx)
			},
		},
	}

	// Register all tools
	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s: %w", reg.name, err)
		}
	}

	return nil
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, serverContext *server.ServerContext, provider *instrumentation.Provider, config ServeConfig) error {
	// Start metrics server if enabled
	var metricsServer *server.MetricsServer
	if config.Metrics.Enabled && provider.Enabled() {
		var err error
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    config.Metrics.Addr,
			InstrumentationProvider: provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}

		go func() {
			if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
				slog.Error("metrics server stopped with error", "error", err)
			}
		}()
	}
	defer func() {
		if metricsServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("error during metrics server shutdown", "error", err)
			}
		}
	}()

	// Set up health checker for health check endpoints
	healthChecker := server.NewHealthChecker(serverContext)

	httpServer := server.NewHTTPServer(mcpSrv, healthChecker, server.HTTPServerConfig{
		Addr:    config.HTTPAddr,
		APIKey:  config.APIKey,
		Metrics: provider.Metrics(),
	})

	slog.Info("starting streamable HTTP server",
		"addr", config.HTTPAddr,
		"mcp_endpoint", "/mcp",
		"health_endpoints", "/healthz, /readyz",
	)
	if metricsServer != nil {
		slog.Info("metrics endpoint available", "addr", metricsServer.Addr())
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.Start(); err != nil && err != http.ErrServerClosed {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received, stopping HTTP server")
		healthChecker.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}

	slog.Info("HTTP server gracefully stopped")
	return nil
}
