package services

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aegislabs/aegis-cli/internal/adapters/driven/storage/memory"
	"github.com/aegislabs/aegis-cli/internal/chunker"
	"github.com/aegislabs/aegis-cli/internal/core/domain"
	"github.com/aegislabs/aegis-cli/internal/core/ports/driven"
)

// stubEmbedder returns canned vectors and counts calls.
type stubEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	calls   int
}

var _ driven.EmbeddingService = (*stubEmbedder)(nil)

func newStubEmbedder(vectors map[string][]float32) *stubEmbedder {
	return &stubEmbedder{vectors: vectors}
}

func (e *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if v, ok := e.vectors[text]; ok {
		return v, nil
	}
	return []float32{1, 0, 0}, nil
}

func (e *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *stubEmbedder) Dimensions() int              { return 3 }
func (e *stubEmbedder) ModelName() string            { return "stub" }
func (e *stubEmbedder) Ping(_ context.Context) error { return nil }
func (e *stubEmbedder) Close() error                 { return nil }

func (e *stubEmbedder) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// stubLLM returns a fixed response.
type stubLLM struct {
	response   string
	err        error
	lastPrompt string
}

var _ driven.LLMService = (*stubLLM)(nil)

func (l *stubLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	l.lastPrompt = prompt
	return l.response, l.err
}

func (l *stubLLM) ModelName() string            { return "stub" }
func (l *stubLLM) Ping(_ context.Context) error { return nil }
func (l *stubLLM) Close() error                 { return nil }

func setupKnowledge(t *testing.T, embedder driven.EmbeddingService, llm driven.LLMService) *KnowledgeService {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, store.Init(context.Background()))
	t.Cleanup(func() { store.Close() })

	return NewKnowledgeService(store, embedder, llm, chunker.New(), RetrievalDefaults{
		TopKDocuments:   2,
		TopKFacts:       2,
		SimilarityFloor: 0.5,
	})
}

func TestAddDocument(t *testing.T) {
	embedder := newStubEmbedder(nil)
	svc := setupKnowledge(t, embedder, nil)
	ctx := context.Background()

	report, err := svc.AddDocument(ctx, "a short document", map[string]any{"source": "test"})
	require.NoError(t, err)

	assert.Equal(t, 1, report.ChunkCount)
	assert.Len(t, report.InsertedIDs, 1)
	assert.Zero(t, report.Skipped)
	assert.Zero(t, report.Failed)
}

func TestAddDocument_Empty(t *testing.T) {
	svc := setupKnowledge(t, newStubEmbedder(nil), nil)
	_, err := svc.AddDocument(context.Background(), "   ", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAddDocument_DuplicateSkipsEmbedding(t *testing.T) {
	embedder := newStubEmbedder(nil)
	svc := setupKnowledge(t, embedder, nil)
	ctx := context.Background()

	first, err := svc.AddDocument(ctx, "identical content", nil)
	require.NoError(t, err)
	require.Len(t, first.InsertedIDs, 1)
	embedsAfterFirst := embedder.callCount()

	second, err := svc.AddDocument(ctx, "identical content", nil)
	require.NoError(t, err)
	assert.Empty(t, second.InsertedIDs)
	assert.Equal(t, 1, second.Skipped)

	// The duplicate was detected by hash lookup before embedding.
	assert.Equal(t, embedsAfterFirst, embedder.callCount())
}

func TestAddDocument_ChunksLongText(t *testing.T) {
	embedder := newStubEmbedder(nil)
	svc := setupKnowledge(t, embedder, nil)

	text := strings.Repeat("security advisory text. ", 200) // ~4800 chars
	report, err := svc.AddDocument(context.Background(), text, nil)
	require.NoError(t, err)

	assert.Greater(t, report.ChunkCount, 1)
	assert.Len(t, report.InsertedIDs, report.ChunkCount)
}

func TestAddFact_Idempotent(t *testing.T) {
	svc := setupKnowledge(t, newStubEmbedder(nil), nil)
	ctx := context.Background()

	first, err := svc.AddFact(ctx, "the service restarts nightly", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.InsertStatusInserted, first.Status)

	second, err := svc.AddFact(ctx, "the service restarts nightly", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.InsertStatusSkipped, second.Status)
	assert.Equal(t, first.ID, second.ID)
}

func TestRetrieve_DocumentsBeforeFacts(t *testing.T) {
	embedder := newStubEmbedder(map[string][]float32{
		"the question":  {1, 0, 0},
		"matching doc":  {1, 0.1, 0},
		"matching fact": {1, 0.2, 0},
		"unrelated doc": {0, 0, 1},
	})
	svc := setupKnowledge(t, embedder, nil)
	ctx := context.Background()

	_, err := svc.AddDocument(ctx, "matching doc", nil)
	require.NoError(t, err)
	_, err = svc.AddDocument(ctx, "unrelated doc", nil)
	require.NoError(t, err)
	_, err = svc.AddFact(ctx, "matching fact", nil)
	require.NoError(t, err)

	retrieval, err := svc.Retrieve(ctx, domain.QueryRequest{Query: "the question"})
	require.NoError(t, err)

	require.Len(t, retrieval.SourceItems, 2)
	assert.Equal(t, domain.SourceTypeDocumentChunk, retrieval.SourceItems[0].SourceType)
	assert.Equal(t, domain.SourceTypeFact, retrieval.SourceItems[1].SourceType)
	assert.Equal(t, "Document Chunk: matching doc Fact: matching fact", retrieval.CombinedContext)
	require.NotNil(t, retrieval.SourceItems[0].SimilarityScore)
	assert.Greater(t, *retrieval.SourceItems[0].SimilarityScore, 0.5)
}

func TestRetrieve_EmptyQuery(t *testing.T) {
	svc := setupKnowledge(t, newStubEmbedder(nil), nil)
	_, err := svc.Retrieve(context.Background(), domain.QueryRequest{Query: ""})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRetrieve_NothingMatches(t *testing.T) {
	embedder := newStubEmbedder(map[string][]float32{
		"the question": {0, 1, 0},
	})
	svc := setupKnowledge(t, embedder, nil)
	ctx := context.Background()

	_, err := svc.AddDocument(ctx, "orthogonal content", nil)
	require.NoError(t, err)

	retrieval, err := svc.Retrieve(ctx, domain.QueryRequest{Query: "the question"})
	require.NoError(t, err)
	assert.Empty(t, retrieval.SourceItems)
	assert.Empty(t, retrieval.CombinedContext)
}

func TestQuery_Grounded(t *testing.T) {
	llm := &stubLLM{response: `{"answer": "Nightly.", "confidence": 0.9, "explanation": "Stated by a fact."}`}
	svc := setupKnowledge(t, newStubEmbedder(nil), llm)
	ctx := context.Background()

	_, err := svc.AddFact(ctx, "the service restarts nightly", nil)
	require.NoError(t, err)

	resp, err := svc.Query(ctx, domain.QueryRequest{Query: "when does the service restart?"})
	require.NoError(t, err)

	assert.Equal(t, "Nightly.", resp.Answer)
	assert.Equal(t, 0.9, resp.Confidence)
	assert.False(t, resp.InsufficientContext)
	require.Len(t, resp.Sources, 1)
	assert.Contains(t, llm.lastPrompt, "Fact: the service restarts nightly")
	assert.Contains(t, llm.lastPrompt, "Question: when does the service restart?")
}

func TestQuery_InsufficientContext(t *testing.T) {
	llm := &stubLLM{response: "should never be called"}
	svc := setupKnowledge(t, newStubEmbedder(nil), llm)

	resp, err := svc.Query(context.Background(), domain.QueryRequest{Query: "anything"})
	require.NoError(t, err)

	assert.True(t, resp.InsufficientContext)
	assert.Zero(t, resp.Confidence)
	assert.Empty(t, resp.Sources)
	assert.Empty(t, llm.lastPrompt, "generation must be skipped with no context")
}

func TestQuery_NoLLM(t *testing.T) {
	svc := setupKnowledge(t, newStubEmbedder(nil), nil)
	_, err := svc.Query(context.Background(), domain.QueryRequest{Query: "anything"})
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestQuery_UnstructuredModelOutput(t *testing.T) {
	llm := &stubLLM{response: "The service restarts nightly."}
	svc := setupKnowledge(t, newStubEmbedder(nil), llm)
	ctx := context.Background()

	_, err := svc.AddFact(ctx, "the service restarts nightly", nil)
	require.NoError(t, err)

	resp, err := svc.Query(ctx, domain.QueryRequest{Query: "when does the service restart?"})
	require.NoError(t, err)

	assert.Equal(t, "The service restarts nightly.", resp.Answer)
	assert.Zero(t, resp.Confidence)
}
