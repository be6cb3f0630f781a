package common

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calbridge/calbridge/internal/credentials"
)

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()

	require.NotEmpty(t, result.Content)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	return text.Text
}

func TestJSONResult(t *testing.T) {
	result, err := JSONResult(map[string]string{"success": "ok"})
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.JSONEq(t, `{"success":"ok"}`, resultText(t, result))
}

func TestErrorResult_CredentialKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind string
	}{
		{
			name: "no credentials",
			err:  credentials.NewError(credentials.KindNoCredentials, "no stored credentials for user"),
			kind: "NoCredentials",
		},
		{
			name: "unrefreshable",
			err:  credentials.NewError(credentials.KindUnrefreshable, "access token stale and no refresh token stored"),
			kind: "Unrefreshable",
		},
		{
			name: "refresh failed",
			err:  credentials.WrapError(credentials.KindRefreshFailed, "refresh token exchange failed", errors.New("oauth2: invalid_grant")),
			kind: "RefreshFailed",
		},
		{
			name: "unclassified becomes provider error",
			err:  errors.New("googleapi: Error 404: Not Found"),
			kind: "ProviderError",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ErrorResult("find_events", tt.err)
			assert.True(t, result.IsError)

			var envelope struct {
				Error struct {
					Operation string `json:"operation"`
					Kind      string `json:"kind"`
					Message   string `json:"message"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &envelope))
			assert.Equal(t, "find_events", envelope.Error.Operation)
			assert.Equal(t, tt.kind, envelope.Error.Kind)
			assert.NotEmpty(t, envelope.Error.Message)
		})
	}
}

func TestErrorResult_OmitsWrappedCause(t *testing.T) {
	err := credentials.WrapError(credentials.KindRefreshFailed, "refresh token exchange failed",
		errors.New(`oauth2: response body {"refresh_token":"rt-secret"}`))

	text := resultText(t, ErrorResult("find_events", err))
	assert.NotContains(t, text, "rt-secret")
	assert.Contains(t, text, "refresh token exchange failed")
}

func TestValidationError(t *testing.T) {
	result := ValidationError("create_event", "summary is required")
	assert.True(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "ValidationError")
	assert.Contains(t, text, "summary is required")
}

func TestUserIDFromArgs(t *testing.T) {
	assert.Equal(t, "default", UserIDFromArgs(nil))
	assert.Equal(t, "default", UserIDFromArgs(map[string]any{}))
	assert.Equal(t, "default", UserIDFromArgs(map[string]any{"user_id": ""}))
	assert.Equal(t, "default", UserIDFromArgs(map[string]any{"user_id": 42}))
	assert.Equal(t, "alice", UserIDFromArgs(map[string]any{"user_id": "alice"}))
}
