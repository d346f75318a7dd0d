package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/aegislabs/aegis-cli/internal/core/domain"
	"github.com/aegislabs/aegis-cli/internal/core/ports/driven"
	"github.com/aegislabs/aegis-cli/internal/logger"
	"github.com/aegislabs/aegis-cli/internal/prompt"
)

// Retrieve embeds the query once and searches the documents and facts
// collections concurrently. Results are assembled deterministically: all
// document chunks first, then all facts, each in search-ranked order.
func (s *KnowledgeService) Retrieve(ctx context.Context, req domain.QueryRequest) (*domain.RetrievalContext, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidInput)
	}

	topKDocs := req.TopKDocuments
	if topKDocs <= 0 {
		topKDocs = s.defaults.TopKDocuments
	}
	topKFacts := req.TopKFacts
	if topKFacts <= 0 {
		topKFacts = s.defaults.TopKFacts
	}

	embedding, err := s.embedder.Embed(ctx, req.Query)
	if err != nil {
		return nil, err
	}

	var (
		wg                sync.WaitGroup
		docs, facts       []domain.SourceMatch
		docsErr, factsErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		docs, docsErr = s.store.Search(ctx, domain.CollectionDocuments, embedding, topKDocs, s.defaults.SimilarityFloor)
	}()
	go func() {
		defer wg.Done()
		facts, factsErr = s.store.Search(ctx, domain.CollectionFacts, embedding, topKFacts, s.defaults.SimilarityFloor)
	}()
	wg.Wait()

	if docsErr != nil {
		return nil, fmt.Errorf("searching documents: %w", docsErr)
	}
	if factsErr != nil {
		return nil, fmt.Errorf("searching facts: %w", factsErr)
	}

	logger.Debug("retrieved %d document chunks and %d facts", len(docs), len(facts))

	items := make([]domain.SourceItem, 0, len(docs)+len(facts))
	parts := make([]string, 0, len(docs)+len(facts))
	for _, match := range docs {
		items = append(items, toSourceItem(match, domain.SourceTypeDocumentChunk))
		parts = append(parts, "Document Chunk: "+match.Content)
	}
	for _, match := range facts {
		items = append(items, toSourceItem(match, domain.SourceTypeFact))
		parts = append(parts, "Fact: "+match.Content)
	}

	return &domain.RetrievalContext{
		CombinedContext: strings.Join(parts, " "),
		SourceItems:     items,
	}, nil
}

func toSourceItem(match domain.SourceMatch, sourceType domain.SourceType) domain.SourceItem {
	metadata := match.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	similarity := match.Similarity
	return domain.SourceItem{
		Content:         match.Content,
		SourceType:      sourceType,
		Metadata:        metadata,
		SimilarityScore: &similarity,
	}
}

// answerFormat is appended to the grounded prompt so the response can be
// parsed into a structured Answer.
const answerFormat = `

Respond with a single JSON object and nothing else:
{"answer": "<direct answer>", "confidence": <0.0-1.0>, "explanation": "<brief rationale naming the sources used>"}`

// Query answers a question grounded in the knowledge base. When retrieval
// finds nothing above the similarity floor the response reports
// InsufficientContext instead of guessing; the generation step is skipped
// entirely.
func (s *KnowledgeService) Query(ctx context.Context, req domain.QueryRequest) (*domain.QueryResponse, error) {
	if s.llm == nil {
		return nil, fmt.Errorf("%w: no LLM configured", domain.ErrLLMUnavailable)
	}

	retrieval, err := s.Retrieve(ctx, req)
	if err != nil {
		return nil, err
	}

	if retrieval.CombinedContext == "" {
		return &domain.QueryResponse{
			Answer:              "I do not have enough information from the knowledge base to answer this question.",
			Confidence:          0,
			Explanation:         "No stored content matched the query above the similarity floor.",
			Sources:             []domain.SourceItem{},
			InsufficientContext: true,
		}, nil
	}

	grounded := prompt.GroundedQuery(retrieval.CombinedContext, req.Query) + answerFormat
	raw, err := s.llm.Generate(ctx, grounded, driven.GenerateOptions{Temperature: 0.1})
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	answer := parseAnswer(raw)
	return &domain.QueryResponse{
		Answer:      answer.Answer,
		Confidence:  answer.Confidence,
		Explanation: answer.Explanation,
		Sources:     retrieval.SourceItems,
	}, nil
}

// parseAnswer extracts the structured answer from model output. Models
// occasionally wrap JSON in prose or code fences; fall back to treating
// the whole output as the answer rather than failing the query.
func parseAnswer(raw string) domain.Answer {
	candidate := raw
	if start := strings.Index(candidate, "{"); start >= 0 {
		if end := strings.LastIndex(candidate, "}"); end > start {
			candidate = candidate[start : end+1]
		}
	}

	var answer domain.Answer
	if err := json.Unmarshal([]byte(candidate), &answer); err == nil && answer.Answer != "" {
		if answer.Confidence < 0 {
			answer.Confidence = 0
		}
		if answer.Confidence > 1 {
			answer.Confidence = 1
		}
		return answer
	}

	logger.Warn("model returned unstructured output, using raw text")
	return domain.Answer{
		Answer:      strings.TrimSpace(raw),
		Confidence:  0,
		Explanation: "Model output was not valid JSON; returning raw text.",
	}
}
