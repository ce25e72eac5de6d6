// Package mcp provides an MCP (Model Context Protocol) server adapter for tome.
// It lets AI assistants index documents and ask grounded questions over them.
package mcp

import "errors"

// ErrMissingQueryService is returned when the query service is not provided.
var ErrMissingQueryService = errors.New("mcp: query service is required")
