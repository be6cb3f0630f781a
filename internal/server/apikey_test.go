package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func protectedHandler(t *testing.T, key string) http.Handler {
	t.Helper()

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return APIKeyMiddleware(key, nil)(next)
}

func TestAPIKeyMiddleware_RejectsWithoutKey(t *testing.T) {
	handler := protectedHandler(t, "secret-key")

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"unauthorized"}`, rec.Body.String())
}

func TestAPIKeyMiddleware_AcceptsHeaderKey(t *testing.T) {
	handler := protectedHandler(t, "secret-key")

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Header.Set("X-API-Key", "secret-key")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIKeyMiddleware_AcceptsBearerKey(t *testing.T) {
	handler := protectedHandler(t, "secret-key")

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Header.Set("Authorization", "Bearer secret-key")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIKeyMiddleware_RejectsWrongKey(t *testing.T) {
	handler := protectedHandler(t, "secret-key")

	for _, header := range []http.Header{
		{"X-Api-Key": []string{"wrong"}},
		{"Authorization": []string{"Bearer wrong"}},
		{"Authorization": []string{"Basic secret-key"}},
	} {
		req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
		req.Header = header
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
}

func TestAPIKeyMiddleware_HealthEndpointsExempt(t *testing.T) {
	handler := protectedHandler(t, "secret-key")

	for _, path := range []string{"/healthz", "/readyz", "/healthz/detailed"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, "path %s should bypass the key gate", path)
	}
}

func TestAPIKeyMiddleware_EmptyKeyAllowsAll(t *testing.T) {
	handler := protectedHandler(t, "")

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
