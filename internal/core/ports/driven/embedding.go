package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// The service is constructed once at startup and injected into every
// component that needs it; it is safe for concurrent use. Ping is the
// explicit initialization check - callers validate connectivity before
// committing to ingestion rather than discovering a missing model
// mid-batch.
//
// Implementations may include:
//   - Ollama (nomic-embed-text, all-minilm)
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	// Inference failures surface as domain.ErrEmbeddingFailed wrapped
	// with provider detail; they are never replaced by a zero vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	// Batching is an optimization, not a semantic requirement.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g. 384, 768, 1536).
	// This must match the vector store's configured dimension.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
