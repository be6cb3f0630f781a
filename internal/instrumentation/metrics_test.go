package instrumentation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := NewMetrics(provider.Meter("test"))
	require.NoError(t, err)

	return m, reader
}

func collectedMetricNames(t *testing.T, reader *sdkmetric.ManualReader) map[string]bool {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	names := map[string]bool{}
	for _, scope := range rm.ScopeMetrics {
		for _, metric := range scope.Metrics {
			names[metric.Name] = true
		}
	}
	return names
}

func TestMetrics_RecordInstruments(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordHTTPRequest(ctx, "POST", "/mcp", 200, 25*time.Millisecond)
	m.RecordToolInvocation(ctx, "find_events", StatusSuccess, 120*time.Millisecond)
	m.RecordCalendarAPIOperation(ctx, "find_events", StatusSuccess, 90*time.Millisecond)
	m.RecordTokenRefresh(ctx, RefreshResultSuccess)

	names := collectedMetricNames(t, reader)
	require.True(t, names["http_requests_total"])
	require.True(t, names["http_request_duration_seconds"])
	require.True(t, names["mcp_tool_invocations_total"])
	require.True(t, names["mcp_tool_duration_seconds"])
	require.True(t, names["calendar_api_operations_total"])
	require.True(t, names["calendar_api_operation_duration_seconds"])
	require.True(t, names["oauth_token_refresh_total"])
}

func TestMetrics_ZeroValueIsNoOp(t *testing.T) {
	var m Metrics
	ctx := context.Background()

	// Must not panic when instruments were never initialized.
	m.RecordHTTPRequest(ctx, "GET", "/healthz", 200, time.Millisecond)
	m.RecordToolInvocation(ctx, "list_calendars", StatusError, time.Millisecond)
	m.RecordCalendarAPIOperation(ctx, "list_calendars", StatusError, time.Millisecond)
	m.RecordTokenRefresh(ctx, RefreshResultFailure)
}
