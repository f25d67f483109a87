// Package mcp provides an MCP (Model Context Protocol) server adapter for spo.
// It lets AI assistants run prompt optimisation sessions and browse their history.
package mcp

import "errors"

// ErrMissingOptimizer is returned when the optimizer is not provided.
var ErrMissingOptimizer = errors.New("mcp: optimizer is required")
