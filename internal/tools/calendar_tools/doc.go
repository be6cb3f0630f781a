// Package calendar_tools registers the Google Calendar MCP tools: event
// search and mutation, calendar listing and creation, and free/busy queries.
//
// Every handler validates its arguments first, then resolves the user's
// credentials and builds a fresh Calendar client for the single call.
package calendar_tools
