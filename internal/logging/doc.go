// Package logging provides shared structured logging helpers built on log/slog.
//
// It defines the canonical attribute keys used across the codebase and helpers
// for logging user identifiers and tokens without exposing secrets or PII.
package logging
