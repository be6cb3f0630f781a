// Package calendar provides a client for the Google Calendar API.
//
// The client is constructed per tool call from an already resolved access
// token and never refreshes it. Responses are projected onto small
// allow-listed types before they leave the package, so callers only ever see
// the fields the server intends to expose.
package calendar
