package common

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/calbridge/calbridge/internal/server"
)

func withSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(noop.NewTracerProvider())
		_ = tp.Shutdown(context.Background())
	})

	return recorder
}

func TestInstrumentedToolHandler_SpanPerInvocation(t *testing.T) {
	recorder := withSpanRecorder(t)
	sc := server.NewServerContext(context.Background(), nil, nil, nil)

	handler := InstrumentedToolHandler("list_credentials", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("ok"), nil
		})

	result, err := handler(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	require.NotNil(t, result)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "tool.list_credentials", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
}

func TestInstrumentedToolHandler_ErrorResultMarksSpan(t *testing.T) {
	recorder := withSpanRecorder(t)
	sc := server.NewServerContext(context.Background(), nil, nil, nil)

	handler := InstrumentedToolHandler("delete_credentials", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultError("user_id is required"), nil
		})

	_, err := handler(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestInstrumentedCalendarToolHandler_NestedOperationSpan(t *testing.T) {
	recorder := withSpanRecorder(t)
	sc := server.NewServerContext(context.Background(), nil, nil, nil)

	handler := InstrumentedCalendarToolHandler("find_events", "find_events", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("[]"), nil
		})

	_, err := handler(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	// The operation span ends first and nests under the tool span.
	assert.Equal(t, "calendar.find_events", spans[0].Name())
	assert.Equal(t, "tool.find_events", spans[1].Name())
	assert.Equal(t, spans[1].SpanContext().SpanID(), spans[0].Parent().SpanID())
}
