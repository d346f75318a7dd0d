package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/aegislabs/aegis-cli/internal/core/domain"
)

// QueryInput is the input schema for the knowledge base query tool.
type QueryInput struct {
	Query         string `json:"query" jsonschema:"the question to answer from the knowledge base"`
	TopKDocuments int    `json:"top_k_documents,omitempty" jsonschema:"maximum document chunks to retrieve (default 2)"`
	TopKFacts     int    `json:"top_k_facts,omitempty" jsonschema:"maximum facts to retrieve (default 2)"`
}

// QueryOutput is the output schema for the knowledge base query tool.
type QueryOutput struct {
	Answer              string         `json:"answer"`
	Confidence          float64        `json:"confidence"`
	Explanation         string         `json:"explanation,omitempty"`
	Sources             []SourceOutput `json:"sources"`
	InsufficientContext bool           `json:"insufficient_context"`
}

// SourceOutput represents one piece of retrieved evidence.
type SourceOutput struct {
	Content    string  `json:"content"`
	SourceType string  `json:"source_type"`
	Similarity float64 `json:"similarity"`
}

// LookupInput is the input schema for the raw retrieval tool.
type LookupInput struct {
	Query         string `json:"query" jsonschema:"the text to retrieve supporting context for"`
	TopKDocuments int    `json:"top_k_documents,omitempty" jsonschema:"maximum document chunks to retrieve (default 2)"`
	TopKFacts     int    `json:"top_k_facts,omitempty" jsonschema:"maximum facts to retrieve (default 2)"`
}

// LookupOutput is the output schema for the raw retrieval tool.
type LookupOutput struct {
	Context string         `json:"context"`
	Sources []SourceOutput `json:"sources"`
}

// AddFactInput is the input schema for the add-fact tool.
type AddFactInput struct {
	Fact string `json:"fact" jsonschema:"the factual statement to store"`
}

// AddFactOutput is the output schema for the add-fact tool.
type AddFactOutput struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// FlawInput is the input schema for the CVE retrieval tool.
type FlawInput struct {
	CVEID string `json:"cve_id" jsonschema:"the CVE identifier, e.g. CVE-2024-12345"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "kb_query",
		Description: "Answer a question grounded in the security knowledge base",
	}, s.handleQuery)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "rag_lookup",
		Description: "Retrieve raw supporting context from the knowledge base without generating an answer",
	}, s.handleLookup)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "kb_add_fact",
		Description: "Store an atomic factual statement in the knowledge base",
	}, s.handleAddFact)

	if s.ports.Analysis != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "cve_retrieve",
			Description: "Fetch the structured flaw record for a CVE id",
		}, s.handleRetrieveFlaw)
	}
}

// handleQuery handles the knowledge base query tool invocation.
func (s *Server) handleQuery(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryInput,
) (*mcp.CallToolResult, QueryOutput, error) {
	resp, err := s.ports.Knowledge.Query(ctx, domain.QueryRequest{
		Query:         input.Query,
		TopKDocuments: input.TopKDocuments,
		TopKFacts:     input.TopKFacts,
	})
	if err != nil {
		return nil, QueryOutput{}, err
	}

	output := QueryOutput{
		Answer:              resp.Answer,
		Confidence:          resp.Confidence,
		Explanation:         resp.Explanation,
		Sources:             make([]SourceOutput, len(resp.Sources)),
		InsufficientContext: resp.InsufficientContext,
	}
	for i := range resp.Sources {
		similarity := 0.0
		if resp.Sources[i].SimilarityScore != nil {
			similarity = *resp.Sources[i].SimilarityScore
		}
		output.Sources[i] = SourceOutput{
			Content:    resp.Sources[i].Content,
			SourceType: string(resp.Sources[i].SourceType),
			Similarity: similarity,
		}
	}

	return nil, output, nil
}

// handleLookup handles the raw retrieval tool invocation. The combined
// context and sources go back to the caller for its own synthesis.
func (s *Server) handleLookup(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input LookupInput,
) (*mcp.CallToolResult, LookupOutput, error) {
	rc, err := s.ports.Knowledge.Retrieve(ctx, domain.QueryRequest{
		Query:         input.Query,
		TopKDocuments: input.TopKDocuments,
		TopKFacts:     input.TopKFacts,
	})
	if err != nil {
		return nil, LookupOutput{}, err
	}

	output := LookupOutput{
		Context: rc.CombinedContext,
		Sources: make([]SourceOutput, len(rc.SourceItems)),
	}
	for i := range rc.SourceItems {
		similarity := 0.0
		if rc.SourceItems[i].SimilarityScore != nil {
			similarity = *rc.SourceItems[i].SimilarityScore
		}
		output.Sources[i] = SourceOutput{
			Content:    rc.SourceItems[i].Content,
			SourceType: string(rc.SourceItems[i].SourceType),
			Similarity: similarity,
		}
	}
	return nil, output, nil
}

// handleAddFact handles the add-fact tool invocation.
func (s *Server) handleAddFact(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AddFactInput,
) (*mcp.CallToolResult, AddFactOutput, error) {
	receipt, err := s.ports.Knowledge.AddFact(ctx, input.Fact, map[string]any{"source": "mcp"})
	if err != nil {
		return nil, AddFactOutput{}, err
	}
	return nil, AddFactOutput{ID: receipt.ID, Status: string(receipt.Status)}, nil
}

// handleRetrieveFlaw handles the CVE retrieval tool invocation.
func (s *Server) handleRetrieveFlaw(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FlawInput,
) (*mcp.CallToolResult, domain.Flaw, error) {
	flaw, err := s.ports.Analysis.RetrieveFlaw(ctx, input.CVEID)
	if err != nil {
		return nil, domain.Flaw{}, err
	}
	return nil, *flaw, nil
}
