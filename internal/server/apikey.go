package server

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// health endpoints stay reachable without a key so probes keep working.
var apiKeyExemptPaths = map[string]bool{
	"/healthz":          true,
	"/readyz":           true,
	"/healthz/detailed": true,
}

// APIKeyMiddleware gates HTTP requests behind a pre-shared key. The key is
// accepted either as an X-API-Key header or as a Bearer token.
//
// When no key is configured the middleware logs a warning and lets requests
// through, so a misconfigured deployment degrades to open access loudly
// instead of silently rejecting everything.
func APIKeyMiddleware(key string, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if key == "" {
		logger.Warn("no API key configured, requests are not authenticated")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" || apiKeyExemptPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			if !validAPIKey(r, key) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// validAPIKey checks the request's X-API-Key header, then the Authorization
// Bearer token, against the configured key in constant time.
func validAPIKey(r *http.Request, key string) bool {
	if presented := r.Header.Get("X-API-Key"); presented != "" {
		return subtle.ConstantTimeCompare([]byte(presented), []byte(key)) == 1
	}

	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return subtle.ConstantTimeCompare([]byte(token), []byte(key)) == 1
	}

	return false
}
