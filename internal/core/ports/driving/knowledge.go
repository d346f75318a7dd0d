package driving

import (
	"context"

	"github.com/aegislabs/aegis-cli/internal/core/domain"
)

// KnowledgeService exposes knowledge base ingestion and querying.
type KnowledgeService interface {
	// AddDocument chunks, embeds and stores long-form text in the
	// documents collection. metadata is carried onto every chunk.
	AddDocument(ctx context.Context, text string, metadata map[string]any) (*domain.IngestReport, error)

	// AddFact embeds and stores one atomic statement in the facts
	// collection. Idempotent on byte-identical content.
	AddFact(ctx context.Context, fact string, metadata map[string]any) (*domain.InsertReceipt, error)

	// Retrieve embeds the query and assembles the grounded retrieval
	// context without calling the generation step.
	Retrieve(ctx context.Context, req domain.QueryRequest) (*domain.RetrievalContext, error)

	// Query answers a question grounded in the knowledge base: embed,
	// retrieve, prompt, generate, parse. An empty retrieval yields a
	// response with InsufficientContext set, not an error.
	Query(ctx context.Context, req domain.QueryRequest) (*domain.QueryResponse, error)
}
