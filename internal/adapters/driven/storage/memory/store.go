// Package memory provides an in-memory vector store for tests and
// ephemeral runs. It implements the same lifecycle and uniqueness
// semantics as the durable backends.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/aegislabs/aegis-cli/internal/core/domain"
	"github.com/aegislabs/aegis-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// row is one stored content unit with its insertion sequence number.
// The sequence is the deterministic tie-break for equal similarities.
type row struct {
	seq  int
	unit domain.ContentUnit
}

// Store is a mutex-guarded in-memory vector store.
type Store struct {
	mu      sync.RWMutex
	ready   bool
	nextSeq int
	rows    map[domain.Collection][]row
	byHash  map[domain.Collection]map[string]string
}

// NewStore creates an uninitialized in-memory store.
func NewStore() *Store {
	return &Store{
		rows:   make(map[domain.Collection][]row),
		byHash: make(map[domain.Collection]map[string]string),
	}
}

// Init marks the store ready. Idempotent.
func (s *Store) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = true
	return nil
}

// Close clears all data and returns the store to uninitialized.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = false
	s.rows = make(map[domain.Collection][]row)
	s.byHash = make(map[domain.Collection]map[string]string)
	return nil
}

// Lookup returns the id of the row with the given content hash.
func (s *Store) Lookup(_ context.Context, collection domain.Collection, contentHash string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.ready {
		return "", domain.ErrNotInitialized
	}
	if id, ok := s.byHash[collection][contentHash]; ok {
		return id, nil
	}
	return "", domain.ErrNotFound
}

// Insert stores a content unit, enforcing content_hash uniqueness
// atomically under the store lock.
func (s *Store) Insert(_ context.Context, collection domain.Collection, unit domain.ContentUnit) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		return "", domain.ErrNotInitialized
	}

	hashes, ok := s.byHash[collection]
	if !ok {
		hashes = make(map[string]string)
		s.byHash[collection] = hashes
	}
	if _, exists := hashes[unit.ContentHash]; exists {
		return "", domain.ErrDuplicateContent
	}

	unit.ID = uuid.New().String()
	unit.Metadata = copyMetadata(unit.Metadata)
	unit.Embedding = append([]float32(nil), unit.Embedding...)
	s.nextSeq++
	s.rows[collection] = append(s.rows[collection], row{seq: s.nextSeq, unit: unit})
	hashes[unit.ContentHash] = unit.ID

	return unit.ID, nil
}

// copyMetadata shallow-copies a metadata map so stored rows do not alias
// caller maps. nil stays nil.
func copyMetadata(metadata map[string]any) map[string]any {
	if metadata == nil {
		return nil
	}
	copied := make(map[string]any, len(metadata))
	for k, v := range metadata {
		copied[k] = v
	}
	return copied
}

// Search scans the collection, filters by the similarity floor and returns
// at most topK matches ordered by descending similarity, ties by insertion
// order.
func (s *Store) Search(_ context.Context, collection domain.Collection, query []float32, topK int, minSimilarity float64) ([]domain.SourceMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.ready {
		return nil, domain.ErrNotInitialized
	}

	type scored struct {
		seq        int
		similarity float64
		unit       domain.ContentUnit
	}

	var candidates []scored
	for _, r := range s.rows[collection] {
		sim := cosine(query, r.unit.Embedding)
		if sim < minSimilarity {
			continue
		}
		candidates = append(candidates, scored{seq: r.seq, similarity: sim, unit: r.unit})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].similarity != candidates[j].similarity {
			return candidates[i].similarity > candidates[j].similarity
		}
		return candidates[i].seq < candidates[j].seq
	})

	if topK < len(candidates) {
		candidates = candidates[:topK]
	}

	matches := make([]domain.SourceMatch, 0, len(candidates))
	for _, c := range candidates {
		metadata := copyMetadata(c.unit.Metadata)
		if metadata == nil {
			metadata = map[string]any{}
		}
		matches = append(matches, domain.SourceMatch{
			Content:    c.unit.Content,
			Metadata:   metadata,
			Similarity: c.similarity,
		})
	}
	return matches, nil
}

// Count returns the number of rows in a collection.
func (s *Store) Count(_ context.Context, collection domain.Collection) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.ready {
		return 0, domain.ErrNotInitialized
	}
	return len(s.rows[collection]), nil
}

// cosine computes cosine similarity between two vectors. Mismatched or
// zero-magnitude vectors score 0.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
