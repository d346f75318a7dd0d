package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// Collection names a vector store collection. Documents and Facts share a
// schema but are never queried against each other implicitly; retrieval
// always unions both, tagged by origin.
type Collection string

const (
	// CollectionDocuments holds chunks derived from long-form text.
	CollectionDocuments Collection = "documents"

	// CollectionFacts holds short, atomic statements.
	CollectionFacts Collection = "facts"
)

// Metadata keys written by the ingestion path for traceability.
const (
	MetaChunkIndex         = "chunk_index"
	MetaOriginalTextLength = "original_text_length"
	MetaChunkLength        = "chunk_length"
	MetaChunkHash          = "chunk_hash"
	MetaFactHash           = "fact_hash"
)

// HashContent returns the lowercase hex SHA-256 digest of the UTF-8 bytes
// of content. It is the sole de-duplication key: only byte-exact duplicates
// of the same string collide, semantic near-duplicates do not.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// ContentUnit is a piece of ingestible content as persisted by the vector
// store. Immutable once stored.
type ContentUnit struct {
	// ID is the store-assigned unique identifier.
	ID string

	// Content is the exact chunk or fact text.
	Content string

	// ContentHash is HashContent(Content). Unique per collection.
	ContentHash string

	// Metadata contains arbitrary JSON-serializable key-value pairs.
	Metadata map[string]any

	// Embedding is the dense vector for Content. Its length is fixed per
	// deployment and must match the store's configured dimension.
	Embedding []float32
}

// InsertStatus reports the outcome of an insert-if-absent operation.
type InsertStatus string

const (
	// InsertStatusInserted means a new row was stored.
	InsertStatusInserted InsertStatus = "inserted"

	// InsertStatusSkipped means a row with the same content hash already
	// existed; nothing was stored and no embedding was computed.
	InsertStatusSkipped InsertStatus = "skipped"
)

// InsertReceipt is the result of inserting one content unit.
type InsertReceipt struct {
	// Status is inserted or skipped.
	Status InsertStatus `json:"status"`

	// ID is the stored row id: freshly generated when inserted, the
	// existing row's id when skipped.
	ID string `json:"id"`
}

// IngestReport summarises a document ingestion. A failed ingestion reports
// which items were stored vs skipped vs failed, never a bare boolean.
type IngestReport struct {
	// ChunkCount is the number of chunks the document was split into.
	ChunkCount int `json:"chunk_count"`

	// InsertedIDs are the ids of newly stored chunks, in chunk order.
	InsertedIDs []string `json:"inserted_ids"`

	// Skipped counts byte-exact duplicate chunks that were not re-stored.
	Skipped int `json:"skipped"`

	// Failed counts chunks that could not be embedded or stored.
	Failed int `json:"failed"`
}

// SourceType tags a retrieval result with its collection of origin.
type SourceType string

const (
	// SourceTypeDocumentChunk marks a result from the documents collection.
	SourceTypeDocumentChunk SourceType = "document_chunk"

	// SourceTypeFact marks a result from the facts collection.
	SourceTypeFact SourceType = "fact"
)

// SourceItem is one retrieved source document chunk or fact.
// Constructed fresh per query; never persisted.
type SourceItem struct {
	// Content is the retrieved text.
	Content string `json:"content"`

	// SourceType is document_chunk or fact.
	SourceType SourceType `json:"source_type"`

	// Metadata is the stored metadata of the matched row. Empty (never
	// nil after retrieval) when the stored blob could not be parsed.
	Metadata map[string]any `json:"metadata"`

	// SimilarityScore is cosine similarity in [-1, 1], nil when unknown.
	SimilarityScore *float64 `json:"similarity_score"`
}

// RetrievalContext is the combined, ordered evidence assembled for one
// query. All document chunks precede all facts, each list in its
// search-ranked order.
type RetrievalContext struct {
	// CombinedContext is every source item rendered as a labelled line
	// ("Document Chunk: …" or "Fact: …") joined by single spaces. Empty
	// when nothing matched; callers treat that as "no grounding
	// available", not as an error.
	CombinedContext string `json:"combined_context"`

	// SourceItems holds the retrieved items in context order.
	SourceItems []SourceItem `json:"source_items"`
}

// SourceMatch is a raw nearest-neighbour hit from the vector store, before
// the retrieval assembler tags it with a source type.
type SourceMatch struct {
	// Content is the stored text.
	Content string

	// Metadata is the parsed stored metadata.
	Metadata map[string]any

	// Similarity is 1 - cosine distance, in [-1, 1].
	Similarity float64
}
