package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHTTPServer(t *testing.T, apiKey string) *HTTPServer {
	t.Helper()

	mcpSrv := mcpserver.NewMCPServer("calbridge-test", "0.0.0")
	health := NewHealthChecker(nil)

	return NewHTTPServer(mcpSrv, health, HTTPServerConfig{
		Addr:   ":0",
		APIKey: apiKey,
	})
}

func TestHTTPServer_HealthBypassesKeyGate(t *testing.T) {
	srv := newTestHTTPServer(t, "secret")

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHTTPServer_MCPRequiresKey(t *testing.T) {
	srv := newTestHTTPServer(t, "secret")

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHTTPServer_MCPReachableWithKey(t *testing.T) {
	srv := newTestHTTPServer(t, "secret")

	// The GET handler streams SSE until the request context ends; give the
	// request a deadline so ServeHTTP returns.
	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/mcp", nil).WithContext(ctx)
	req.Header.Set("X-API-Key", "secret")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	// The streamable HTTP endpoint answers the request itself; anything but
	// the middleware's 401 means the gate let it through.
	require.NotEqual(t, http.StatusUnauthorized, rec.Code)
}
