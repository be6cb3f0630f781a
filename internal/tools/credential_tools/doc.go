// Package credential_tools registers the credential management MCP tools:
// storing per-user OAuth client credentials and refresh tokens, listing which
// users have credentials, and deleting them. Responses never contain secret
// material.
package credential_tools
