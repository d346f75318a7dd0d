package mcp

import (
	"github.com/aegislabs/aegis-cli/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Knowledge provides knowledge base ingestion and querying.
	Knowledge driving.KnowledgeService

	// Analysis provides the CVE analysis features.
	Analysis driving.AnalysisService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Knowledge == nil {
		return ErrMissingKnowledgeService
	}
	// Analysis is optional: without it the CVE tools are not registered.
	return nil
}
