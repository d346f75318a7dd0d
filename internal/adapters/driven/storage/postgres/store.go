// Package postgres provides a PostgreSQL + pgvector backed vector store.
// Similarity search runs server-side via the cosine distance operator, so
// this backend scales past what the in-process backends can rank.
//
// Requires PostgreSQL 12+ with the pgvector extension installed.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/aegislabs/aegis-cli/internal/core/domain"
	"github.com/aegislabs/aegis-cli/internal/core/ports/driven"
	"github.com/aegislabs/aegis-cli/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Store is a pgvector-backed vector store.
type Store struct {
	mu         sync.RWMutex
	pool       *pgxpool.Pool
	dimensions int
	ready      bool
}

// NewStore connects to the database at connString. dimensions fixes the
// width of the embedding column; it must match the embedding model in use.
func NewStore(ctx context.Context, connString string, dimensions int) (*Store, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("%w: embedding dimensions must be positive", domain.ErrInvalidInput)
	}

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to postgres: %v", domain.ErrStorageUnavailable, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: pinging postgres: %v", domain.ErrStorageUnavailable, err)
	}

	return &Store{pool: pool, dimensions: dimensions}, nil
}

const (
	tableDocuments = "rag_documents"
	tableFacts     = "rag_facts"
)

// tableFor maps a collection to its table name. Table names are fixed
// constants, never caller input, so they are safe to interpolate.
func tableFor(collection domain.Collection) (string, error) {
	switch collection {
	case domain.CollectionDocuments:
		return tableDocuments, nil
	case domain.CollectionFacts:
		return tableFacts, nil
	default:
		return "", fmt.Errorf("%w: unknown collection %q", domain.ErrInvalidInput, collection)
	}
}

// Init idempotently ensures the pgvector extension and both collection
// tables exist, then marks the store ready.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("%w: creating vector extension: %v", domain.ErrStorageUnavailable, err)
	}

	for _, table := range []string{tableDocuments, tableFacts} {
		_, err := s.pool.Exec(ctx, fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				seq BIGSERIAL,
				content TEXT NOT NULL,
				content_hash TEXT NOT NULL UNIQUE,
				metadata JSONB NOT NULL DEFAULT '{}',
				embedding VECTOR(%d) NOT NULL
			)
		`, table, s.dimensions))
		if err != nil {
			return fmt.Errorf("%w: creating table %s: %v", domain.ErrStorageUnavailable, table, err)
		}
	}

	s.ready = true
	return nil
}

// Close releases the connection pool and returns the store to uninitialized.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = false
	s.pool.Close()
	return nil
}

func (s *Store) requireReady() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.ready {
		return domain.ErrNotInitialized
	}
	return nil
}

// Lookup returns the id of the row with the given content hash.
func (s *Store) Lookup(ctx context.Context, collection domain.Collection, contentHash string) (string, error) {
	if err := s.requireReady(); err != nil {
		return "", err
	}
	table, err := tableFor(collection)
	if err != nil {
		return "", err
	}

	var id string
	row := s.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT id FROM %s WHERE content_hash = $1", table), contentHash)
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("%w: looking up hash: %v", domain.ErrStorageUnavailable, err)
	}
	return id, nil
}

// Insert atomically stores a content unit. The UNIQUE constraint on
// content_hash resolves concurrent duplicate inserts; the loser surfaces
// domain.ErrDuplicateContent.
func (s *Store) Insert(ctx context.Context, collection domain.Collection, unit domain.ContentUnit) (string, error) {
	if err := s.requireReady(); err != nil {
		return "", err
	}
	table, err := tableFor(collection)
	if err != nil {
		return "", err
	}
	if len(unit.Embedding) != s.dimensions {
		return "", fmt.Errorf("%w: embedding has %d dimensions, store expects %d",
			domain.ErrInvalidInput, len(unit.Embedding), s.dimensions)
	}

	metadataJSON, err := json.Marshal(unit.Metadata)
	if err != nil {
		return "", fmt.Errorf("marshalling metadata: %w", err)
	}

	var id string
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO %s (content, content_hash, metadata, embedding)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, table), unit.Content, unit.ContentHash, metadataJSON, pgvector.NewVector(unit.Embedding))

	if err := row.Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return "", domain.ErrDuplicateContent
		}
		return "", fmt.Errorf("%w: inserting content: %v", domain.ErrStorageUnavailable, err)
	}
	return id, nil
}

// Search ranks the collection by cosine similarity server-side and returns
// matches at or above the similarity floor. Ties resolve by insertion
// order. Rows with unparseable metadata degrade to empty metadata.
func (s *Store) Search(ctx context.Context, collection domain.Collection, query []float32, topK int, minSimilarity float64) ([]domain.SourceMatch, error) {
	if err := s.requireReady(); err != nil {
		return nil, err
	}
	table, err := tableFor(collection)
	if err != nil {
		return nil, err
	}
	if topK <= 0 {
		return []domain.SourceMatch{}, nil
	}

	// Cosine similarity is 1 minus pgvector's cosine distance.
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT content, metadata, 1 - (embedding <=> $1) AS similarity
		FROM %s
		WHERE 1 - (embedding <=> $1) >= $2
		ORDER BY embedding <=> $1, seq
		LIMIT $3
	`, table), pgvector.NewVector(query), minSimilarity, topK)
	if err != nil {
		return nil, fmt.Errorf("%w: querying %s: %v", domain.ErrStorageUnavailable, table, err)
	}
	defer rows.Close()

	matches := []domain.SourceMatch{}
	for rows.Next() {
		var (
			content      string
			metadataJSON []byte
			similarity   float64
		)
		if err := rows.Scan(&content, &metadataJSON, &similarity); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		metadata := map[string]any{}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &metadata); err != nil {
				logger.Warn("row in %s: %v: %v", table, domain.ErrMalformedMetadata, err)
				metadata = map[string]any{}
			}
		}

		matches = append(matches, domain.SourceMatch{
			Content:    content,
			Metadata:   metadata,
			Similarity: similarity,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating %s: %v", domain.ErrStorageUnavailable, table, err)
	}
	return matches, nil
}

// Count returns the number of rows in a collection.
func (s *Store) Count(ctx context.Context, collection domain.Collection) (int, error) {
	if err := s.requireReady(); err != nil {
		return 0, err
	}
	table, err := tableFor(collection)
	if err != nil {
		return 0, err
	}

	var count int
	row := s.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table))
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting %s: %v", domain.ErrStorageUnavailable, table, err)
	}
	return count, nil
}

// isUniqueViolation reports whether err is a unique constraint violation
// (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}