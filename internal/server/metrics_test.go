package server

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calbridge/calbridge/internal/instrumentation"
)

func newTestProvider(t *testing.T) *instrumentation.Provider {
	t.Helper()

	config := instrumentation.Config{
		ServiceName:        "calbridge-test",
		Enabled:            true,
		MetricsExporter:    instrumentation.ExporterPrometheus,
		PrometheusEndpoint: "/metrics",
	}
	provider, err := instrumentation.NewProvider(context.Background(), config)
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	return provider
}

func TestNewMetricsServer_RequiresProvider(t *testing.T) {
	_, err := NewMetricsServer(MetricsServerConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "instrumentation provider is required")
}

func TestNewMetricsServer_RequiresPrometheusExporter(t *testing.T) {
	provider, err := instrumentation.NewProvider(context.Background(), instrumentation.Config{
		ServiceName:     "calbridge-test",
		Enabled:         true,
		MetricsExporter: instrumentation.ExporterStdout,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	_, err = NewMetricsServer(MetricsServerConfig{InstrumentationProvider: provider})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prometheus exporter is not configured")
}

func TestNewMetricsServer_Defaults(t *testing.T) {
	srv, err := NewMetricsServer(MetricsServerConfig{
		InstrumentationProvider: newTestProvider(t),
	})
	require.NoError(t, err)

	assert.Equal(t, DefaultMetricsAddr, srv.Addr())
	assert.Equal(t, "/metrics", srv.path)
}

func TestMetricsServer_ServesProviderRegistry(t *testing.T) {
	provider := newTestProvider(t)

	// Record through the provider so the scrape output carries our metric.
	provider.Metrics().RecordTokenRefresh(context.Background(),
		instrumentation.RefreshResultSuccess)

	srv, err := NewMetricsServer(MetricsServerConfig{
		InstrumentationProvider: provider,
	})
	require.NoError(t, err)

	handler := promhttp.HandlerFor(srv.gatherer, promhttp.HandlerOpts{})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "oauth_token_refresh_total")
}
