package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/aegislabs/aegis-cli/internal/chunker"
	"github.com/aegislabs/aegis-cli/internal/core/domain"
	"github.com/aegislabs/aegis-cli/internal/core/ports/driven"
	"github.com/aegislabs/aegis-cli/internal/core/ports/driving"
	"github.com/aegislabs/aegis-cli/internal/logger"
)

// Ensure KnowledgeService implements the interface.
var _ driving.KnowledgeService = (*KnowledgeService)(nil)

// Default retrieval bounds.
const (
	DefaultTopKDocuments   = 2
	DefaultTopKFacts       = 2
	DefaultSimilarityFloor = 0.7
)

// RetrievalDefaults bound a query when the request leaves them unset.
type RetrievalDefaults struct {
	TopKDocuments   int
	TopKFacts       int
	SimilarityFloor float64
}

// KnowledgeService implements knowledge base ingestion and querying over a
// vector store and an embedding service. The LLM is optional; without it
// Retrieve still works and Query degrades with an error.
type KnowledgeService struct {
	store    driven.VectorStore
	embedder driven.EmbeddingService
	llm      driven.LLMService
	splitter *chunker.Splitter
	defaults RetrievalDefaults
}

// NewKnowledgeService creates a new knowledge service. llm may be nil.
func NewKnowledgeService(
	store driven.VectorStore,
	embedder driven.EmbeddingService,
	llm driven.LLMService,
	splitter *chunker.Splitter,
	defaults RetrievalDefaults,
) *KnowledgeService {
	if defaults.TopKDocuments <= 0 {
		defaults.TopKDocuments = DefaultTopKDocuments
	}
	if defaults.TopKFacts <= 0 {
		defaults.TopKFacts = DefaultTopKFacts
	}
	if defaults.SimilarityFloor <= 0 {
		defaults.SimilarityFloor = DefaultSimilarityFloor
	}
	if splitter == nil {
		splitter = chunker.New()
	}

	return &KnowledgeService{
		store:    store,
		embedder: embedder,
		llm:      llm,
		splitter: splitter,
		defaults: defaults,
	}
}

// AddDocument chunks, embeds and stores long-form text in the documents
// collection. Duplicate chunks are skipped without re-embedding; a chunk
// that fails to embed or store is counted and the rest still proceed.
func (s *KnowledgeService) AddDocument(ctx context.Context, text string, metadata map[string]any) (*domain.IngestReport, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: document text is empty", domain.ErrInvalidInput)
	}

	chunks := s.splitter.Split(text)
	textLength := utf8.RuneCountInString(text)
	logger.Section("Document Ingestion")
	logger.Debug("split %d chars into %d chunks", textLength, len(chunks))

	report := &domain.IngestReport{ChunkCount: len(chunks)}
	for i, chunk := range chunks {
		chunkMetadata := make(map[string]any, len(metadata)+4)
		for k, v := range metadata {
			chunkMetadata[k] = v
		}
		chunkMetadata[domain.MetaChunkIndex] = i
		chunkMetadata[domain.MetaOriginalTextLength] = textLength
		chunkMetadata[domain.MetaChunkLength] = utf8.RuneCountInString(chunk)
		chunkMetadata[domain.MetaChunkHash] = domain.HashContent(chunk)

		receipt, err := s.insertIfAbsent(ctx, domain.CollectionDocuments, chunk, chunkMetadata)
		if err != nil {
			logger.Warn("chunk %d: %v", i, err)
			report.Failed++
			continue
		}
		if receipt.Status == domain.InsertStatusSkipped {
			logger.Debug("chunk %d is a duplicate, skipped", i)
			report.Skipped++
			continue
		}
		report.InsertedIDs = append(report.InsertedIDs, receipt.ID)
	}

	logger.Debug("ingested %d, skipped %d, failed %d",
		len(report.InsertedIDs), report.Skipped, report.Failed)
	return report, nil
}

// AddFact embeds and stores one atomic statement in the facts collection.
func (s *KnowledgeService) AddFact(ctx context.Context, fact string, metadata map[string]any) (*domain.InsertReceipt, error) {
	if strings.TrimSpace(fact) == "" {
		return nil, fmt.Errorf("%w: fact text is empty", domain.ErrInvalidInput)
	}

	factMetadata := make(map[string]any, len(metadata)+1)
	for k, v := range metadata {
		factMetadata[k] = v
	}
	factMetadata[domain.MetaFactHash] = domain.HashContent(fact)

	return s.insertIfAbsent(ctx, domain.CollectionFacts, fact, factMetadata)
}

// insertIfAbsent stores content unless a byte-identical row already exists.
// The hash lookup is only an embedding-cost fast path; the store's unique
// constraint is what resolves concurrent duplicate inserts.
func (s *KnowledgeService) insertIfAbsent(ctx context.Context, collection domain.Collection, content string, metadata map[string]any) (*domain.InsertReceipt, error) {
	hash := domain.HashContent(content)

	if id, err := s.store.Lookup(ctx, collection, hash); err == nil {
		return &domain.InsertReceipt{Status: domain.InsertStatusSkipped, ID: id}, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	embedding, err := s.embedder.Embed(ctx, content)
	if err != nil {
		return nil, err
	}

	id, err := s.store.Insert(ctx, collection, domain.ContentUnit{
		Content:     content,
		ContentHash: hash,
		Metadata:    metadata,
		Embedding:   embedding,
	})
	if errors.Is(err, domain.ErrDuplicateContent) {
		// Lost the race to a concurrent insert; surface the winner's row.
		existing, lookupErr := s.store.Lookup(ctx, collection, hash)
		if lookupErr != nil {
			return nil, fmt.Errorf("resolving duplicate: %w", lookupErr)
		}
		return &domain.InsertReceipt{Status: domain.InsertStatusSkipped, ID: existing}, nil
	}
	if err != nil {
		return nil, err
	}

	return &domain.InsertReceipt{Status: domain.InsertStatusInserted, ID: id}, nil
}
