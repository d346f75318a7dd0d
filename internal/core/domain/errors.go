package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotInitialized indicates the vector store was used before its
	// schema was ensured. Fatal to the calling request; not retried.
	ErrNotInitialized = errors.New("store not initialized")

	// ErrDuplicateContent indicates an insert lost the uniqueness race on
	// content_hash. Callers treat it as success-with-skip, never as fatal.
	ErrDuplicateContent = errors.New("duplicate content")

	// ErrStorageUnavailable indicates the storage backend cannot be
	// reached (pool exhaustion, network loss). The store never retries
	// internally; retry policy belongs to the caller.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrMalformedMetadata indicates stored metadata could not be parsed
	// back into a map. The store substitutes empty metadata for the
	// offending row rather than failing the whole search.
	ErrMalformedMetadata = errors.New("malformed metadata")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Ingestion and semantic retrieval are disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrEmbeddingFailed indicates the embedding model rejected or failed
	// an inference call. Surfaced to the caller, retryable by caller
	// policy; never silently replaced with a zero vector.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Query answering and CVE analysis features are disabled.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrInsufficientContext indicates retrieval legitimately found nothing
	// above the similarity floor. Distinct from a hard failure: the query
	// ran, there is just no grounding to answer from.
	ErrInsufficientContext = errors.New("insufficient context")

	// ErrEmbargoed indicates a flaw exists but is under embargo and
	// embargoed retrieval is disabled.
	ErrEmbargoed = errors.New("flaw is embargoed")

	// ErrRateLimited indicates the external API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)
