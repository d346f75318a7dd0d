// Package sqlite provides a SQLite-backed vector store for local,
// single-machine deployments. Embeddings are stored as little-endian
// float32 blobs and similarity is computed in-process; uniqueness of
// content_hash is enforced by the database so concurrent duplicate inserts
// resolve at the storage layer.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/aegislabs/aegis-cli/internal/core/domain"
	"github.com/aegislabs/aegis-cli/internal/core/ports/driven"
	"github.com/aegislabs/aegis-cli/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Store is a SQLite-backed vector store.
type Store struct {
	mu    sync.RWMutex
	db    *sql.DB
	path  string
	ready bool
}

// NewStore opens (creating if necessary) the knowledge database in dataDir.
// If dataDir is empty, defaults to ~/.aegis/data/knowledge.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".aegis", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "knowledge.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	return &Store{db: db, path: dbPath}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Init idempotently ensures the documents and facts tables exist and marks
// the store ready.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{tableDocuments, tableFacts} {
		_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id TEXT PRIMARY KEY,
				content TEXT NOT NULL,
				content_hash TEXT NOT NULL UNIQUE,
				metadata TEXT NOT NULL DEFAULT '{}',
				embedding BLOB NOT NULL
			)
		`, table))
		if err != nil {
			return fmt.Errorf("%w: creating table %s: %v", domain.ErrStorageUnavailable, table, err)
		}
	}

	s.ready = true
	return nil
}

// Close closes the database connection and returns the store to
// uninitialized.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = false
	return s.db.Close()
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
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT id FROM %s WHERE content_hash = ?", table), contentHash)
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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

	metadataJSON, err := json.Marshal(unit.Metadata)
	if err != nil {
		return "", fmt.Errorf("marshalling metadata: %w", err)
	}

	id := uuid.New().String()
	_, err = s.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, content, content_hash, metadata, embedding)
		VALUES (?, ?, ?, ?, ?)
	`, table), id, unit.Content, unit.ContentHash, string(metadataJSON), float32SliceToBytes(unit.Embedding))

	if err != nil {
		if isUniqueViolation(err) {
			return "", domain.ErrDuplicateContent
		}
		return "", fmt.Errorf("%w: inserting content: %v", domain.ErrStorageUnavailable, err)
	}
	return id, nil
}

// Search loads the collection, scores every row in-process and returns the
// top matches above the similarity floor. Rows with unparseable metadata
// degrade to empty metadata rather than failing the search.
func (s *Store) Search(ctx context.Context, collection domain.Collection, query []float32, topK int, minSimilarity float64) ([]domain.SourceMatch, error) {
	if err := s.requireReady(); err != nil {
		return nil, err
	}
	table, err := tableFor(collection)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT rowid, content, metadata, embedding FROM %s ORDER BY rowid
	`, table))
	if err != nil {
		return nil, fmt.Errorf("%w: querying %s: %v", domain.ErrStorageUnavailable, table, err)
	}
	defer rows.Close()

	type scored struct {
		rowid      int64
		similarity float64
		match      domain.SourceMatch
	}

	var candidates []scored
	for rows.Next() {
		var (
			rowid        int64
			content      string
			metadataJSON string
			blob         []byte
		)
		if err := rows.Scan(&rowid, &content, &metadataJSON, &blob); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		sim := cosine(query, bytesToFloat32Slice(blob))
		if sim < minSimilarity {
			continue
		}

		metadata := map[string]any{}
		if metadataJSON != "" {
			if err := json.Unmarshal([]byte(metadataJSON), &metadata); err != nil {
				logger.Warn("row %d in %s: %v: %v", rowid, table, domain.ErrMalformedMetadata, err)
				metadata = map[string]any{}
			}
		}

		candidates = append(candidates, scored{
			rowid:      rowid,
			similarity: sim,
			match:      domain.SourceMatch{Content: content, Metadata: metadata, Similarity: sim},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating %s: %v", domain.ErrStorageUnavailable, table, err)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].similarity != candidates[j].similarity {
			return candidates[i].similarity > candidates[j].similarity
		}
		return candidates[i].rowid < candidates[j].rowid
	})
	if topK < len(candidates) {
		candidates = candidates[:topK]
	}

	matches := make([]domain.SourceMatch, 0, len(candidates))
	for _, c := range candidates {
		matches = append(matches, c.match)
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
	row := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table))
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting %s: %v", domain.ErrStorageUnavailable, table, err)
	}
	return count, nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// ==================== Helper Functions ====================

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
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
