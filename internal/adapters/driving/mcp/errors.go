// Package mcp provides an MCP (Model Context Protocol) server adapter for
// Aegis. It lets AI assistants query the knowledge base and fetch CVE
// records through a standard tool interface.
package mcp

import "errors"

// ErrMissingKnowledgeService is returned when the knowledge service is not provided.
var ErrMissingKnowledgeService = errors.New("mcp: knowledge service is required")
