// Package common holds shared helpers for MCP tool handlers: the structured
// error envelope, JSON result encoding, user id extraction and the metrics
// wrapper applied to every registered tool.
package common
