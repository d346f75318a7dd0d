package driven

import (
	"context"

	"github.com/aegislabs/aegis-cli/internal/core/domain"
)

// VectorStore persists content units and performs nearest-neighbour search.
//
// Lifecycle: a store has exactly two states, uninitialized and ready.
// Init transitions to ready by idempotently ensuring the schema; every data
// operation requires ready and fails with domain.ErrNotInitialized
// otherwise. Close is the single terminal transition back to uninitialized.
//
// Duplicate detection is the store's responsibility: Insert is atomic and a
// uniqueness violation on content_hash surfaces as
// domain.ErrDuplicateContent. Callers must not pre-check then insert to
// decide duplication - check-then-act is inherently racy - but they may use
// Lookup as a fast path to avoid computing an embedding for content that
// already exists.
type VectorStore interface {
	// Init idempotently ensures tables and indexes exist and marks the
	// store ready.
	Init(ctx context.Context) error

	// Lookup returns the id of the row in collection with the given
	// content hash, or domain.ErrNotFound.
	Lookup(ctx context.Context, collection domain.Collection, contentHash string) (string, error)

	// Insert atomically stores a content unit and returns its generated
	// id. A content_hash collision returns domain.ErrDuplicateContent.
	Insert(ctx context.Context, collection domain.Collection, unit domain.ContentUnit) (string, error)

	// Search returns up to topK rows whose cosine similarity to the query
	// vector is at least minSimilarity, ordered by descending similarity
	// with ties broken by insertion order. An empty collection or no
	// qualifying rows yields an empty slice, never an error. Rows whose
	// stored metadata cannot be parsed are returned with empty metadata.
	Search(ctx context.Context, collection domain.Collection, query []float32, topK int, minSimilarity float64) ([]domain.SourceMatch, error)

	// Count returns the number of rows in a collection.
	Count(ctx context.Context, collection domain.Collection) (int, error)

	// Close releases resources and returns the store to uninitialized.
	Close() error
}
