package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aegislabs/aegis-cli/internal/core/domain"
)

// mockKnowledgeService is a mock implementation of driving.KnowledgeService.
type mockKnowledgeService struct {
	report   *domain.IngestReport
	receipt  *domain.InsertReceipt
	rc       *domain.RetrievalContext
	response *domain.QueryResponse
	err      error
}

func (m *mockKnowledgeService) AddDocument(_ context.Context, _ string, _ map[string]any) (*domain.IngestReport, error) {
	return m.report, m.err
}

func (m *mockKnowledgeService) AddFact(_ context.Context, _ string, _ map[string]any) (*domain.InsertReceipt, error) {
	return m.receipt, m.err
}

func (m *mockKnowledgeService) Retrieve(_ context.Context, _ domain.QueryRequest) (*domain.RetrievalContext, error) {
	return m.rc, m.err
}

func (m *mockKnowledgeService) Query(_ context.Context, _ domain.QueryRequest) (*domain.QueryResponse, error) {
	return m.response, m.err
}

// mockAnalysisService is a mock implementation of driving.AnalysisService.
type mockAnalysisService struct {
	flaw   *domain.Flaw
	impact *domain.ImpactSuggestion
	cwe    *domain.CWESuggestion
	pii    *domain.PIIReport
	rw     *domain.Rewrite
	cvss   *domain.CVSSDiffExplanation
	comp   *domain.ComponentReport
	err    error
}

func (m *mockAnalysisService) RetrieveFlaw(_ context.Context, _ string) (*domain.Flaw, error) {
	return m.flaw, m.err
}

func (m *mockAnalysisService) SuggestImpact(_ context.Context, _ string) (*domain.ImpactSuggestion, error) {
	return m.impact, m.err
}

func (m *mockAnalysisService) SuggestCWE(_ context.Context, _ string) (*domain.CWESuggestion, error) {
	return m.cwe, m.err
}

func (m *mockAnalysisService) IdentifyPII(_ context.Context, _ string) (*domain.PIIReport, error) {
	return m.pii, m.err
}

func (m *mockAnalysisService) RewriteDescription(_ context.Context, _ string) (*domain.Rewrite, error) {
	return m.rw, m.err
}

func (m *mockAnalysisService) RewriteStatement(_ context.Context, _ string) (*domain.Rewrite, error) {
	return m.rw, m.err
}

func (m *mockAnalysisService) ExplainCVSSDiff(_ context.Context, _ string) (*domain.CVSSDiffExplanation, error) {
	return m.cvss, m.err
}

func (m *mockAnalysisService) ComponentIntelligence(_ context.Context, _ string) (*domain.ComponentReport, error) {
	return m.comp, m.err
}

func newTestServer(t *testing.T, knowledge *mockKnowledgeService, analysis *mockAnalysisService) *Server {
	t.Helper()
	var server *Server
	var err error
	if analysis == nil {
		// Pass an untyped nil so the server sees the port as absent.
		server, err = NewServer(knowledge, nil)
	} else {
		server, err = NewServer(knowledge, analysis)
	}
	require.NoError(t, err)
	return server
}

func doRequest(t *testing.T, server *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestNewServer_RequiresKnowledge(t *testing.T) {
	server, err := NewServer(nil, nil)
	assert.Nil(t, server)
	assert.ErrorIs(t, err, ErrMissingKnowledgeService)
}

func TestHealthy(t *testing.T) {
	server := newTestServer(t, &mockKnowledgeService{}, nil)

	rec := doRequest(t, server, http.MethodGet, "/api/v1/healthy", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestAddDocument(t *testing.T) {
	knowledge := &mockKnowledgeService{
		report: &domain.IngestReport{
			ChunkCount:  2,
			InsertedIDs: []string{"a", "b"},
		},
	}
	server := newTestServer(t, knowledge, nil)

	rec := doRequest(t, server, http.MethodPost, "/api/v1/kb/add-document",
		`{"text": "a long advisory", "metadata": {"source": "test"}}`)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var report domain.IngestReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 2, report.ChunkCount)
	assert.Len(t, report.InsertedIDs, 2)
}

func TestAddDocument_MalformedBody(t *testing.T) {
	server := newTestServer(t, &mockKnowledgeService{}, nil)

	rec := doRequest(t, server, http.MethodPost, "/api/v1/kb/add-document", `{not json`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddDocument_EmptyText(t *testing.T) {
	knowledge := &mockKnowledgeService{
		err: fmt.Errorf("document text is empty: %w", domain.ErrInvalidInput),
	}
	server := newTestServer(t, knowledge, nil)

	rec := doRequest(t, server, http.MethodPost, "/api/v1/kb/add-document", `{"text": ""}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddFact_StatusByOutcome(t *testing.T) {
	cases := []struct {
		name       string
		status     domain.InsertStatus
		wantStatus int
	}{
		{"inserted", domain.InsertStatusInserted, http.StatusCreated},
		{"skipped duplicate", domain.InsertStatusSkipped, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			knowledge := &mockKnowledgeService{
				receipt: &domain.InsertReceipt{ID: "fact-1", Status: tc.status},
			}
			server := newTestServer(t, knowledge, nil)

			rec := doRequest(t, server, http.MethodPost, "/api/v1/kb/add-fact",
				`{"fact": "kernel 6.5 is not affected"}`)

			assert.Equal(t, tc.wantStatus, rec.Code)
		})
	}
}

func TestQuery(t *testing.T) {
	knowledge := &mockKnowledgeService{
		response: &domain.QueryResponse{
			Answer:     "openssl 3.0 through 3.0.7",
			Confidence: 0.9,
			Sources:    []domain.SourceItem{},
		},
	}
	server := newTestServer(t, knowledge, nil)

	rec := doRequest(t, server, http.MethodPost, "/api/v1/kb/query",
		`{"query": "which versions are affected?", "top_k_documents": 5}`)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp domain.QueryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "openssl 3.0 through 3.0.7", resp.Answer)
	assert.False(t, resp.InsufficientContext)
}

func TestAnalysisRoutes_WithoutAnalysisService(t *testing.T) {
	server := newTestServer(t, &mockKnowledgeService{}, nil)

	rec := doRequest(t, server, http.MethodGet, "/api/v1/cve/suggest/impact/CVE-2024-12345", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "not configured")
}

func TestSuggestImpact(t *testing.T) {
	analysis := &mockAnalysisService{
		impact: &domain.ImpactSuggestion{
			CVEID:      "CVE-2024-12345",
			Impact:     domain.ImpactImportant,
			Confidence: 0.85,
		},
	}
	server := newTestServer(t, &mockKnowledgeService{}, analysis)

	rec := doRequest(t, server, http.MethodGet, "/api/v1/cve/suggest/impact/CVE-2024-12345", "")

	assert.Equal(t, http.StatusOK, rec.Code)

	var suggestion domain.ImpactSuggestion
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &suggestion))
	assert.Equal(t, domain.ImpactImportant, suggestion.Impact)
}

func TestDomainErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"invalid input", domain.ErrInvalidInput, http.StatusBadRequest},
		{"not found", domain.ErrNotFound, http.StatusNotFound},
		{"embargoed", domain.ErrEmbargoed, http.StatusForbidden},
		{"rate limited", domain.ErrRateLimited, http.StatusTooManyRequests},
		{"llm unavailable", domain.ErrLLMUnavailable, http.StatusServiceUnavailable},
		{"other", fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			analysis := &mockAnalysisService{err: tc.err}
			server := newTestServer(t, &mockKnowledgeService{}, analysis)

			rec := doRequest(t, server, http.MethodGet, "/api/v1/cve/suggest/cwe/CVE-2024-12345", "")

			assert.Equal(t, tc.wantStatus, rec.Code)
		})
	}
}

func TestShowFlaw(t *testing.T) {
	analysis := &mockAnalysisService{
		flaw: &domain.Flaw{CVEID: "CVE-2024-12345", Title: "heap overflow"},
	}
	server := newTestServer(t, &mockKnowledgeService{}, analysis)

	rec := doRequest(t, server, http.MethodGet, "/api/v1/cve/CVE-2024-12345", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "heap overflow")
}

func TestComponentIntelligence(t *testing.T) {
	analysis := &mockAnalysisService{
		comp: &domain.ComponentReport{
			Component: "openssl",
			FlawCount: 12,
			Summary:   "mostly memory safety issues in the ASN.1 parser",
		},
	}
	server := newTestServer(t, &mockKnowledgeService{}, analysis)

	rec := doRequest(t, server, http.MethodGet, "/api/v1/component/intelligence/openssl", "")

	assert.Equal(t, http.StatusOK, rec.Code)

	var report domain.ComponentReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 12, report.FlawCount)
}
