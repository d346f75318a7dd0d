package cli

import (
	"context"

	"github.com/aegislabs/aegis-cli/internal/core/domain"
)

// mockKnowledgeService is a mock implementation of driving.KnowledgeService.
type mockKnowledgeService struct {
	report   *domain.IngestReport
	receipt  *domain.InsertReceipt
	rc       *domain.RetrievalContext
	response *domain.QueryResponse
	lastText string
	err      error
}

func (m *mockKnowledgeService) AddDocument(_ context.Context, text string, _ map[string]any) (*domain.IngestReport, error) {
	m.lastText = text
	return m.report, m.err
}

func (m *mockKnowledgeService) AddFact(_ context.Context, fact string, _ map[string]any) (*domain.InsertReceipt, error) {
	m.lastText = fact
	return m.receipt, m.err
}

func (m *mockKnowledgeService) Retrieve(_ context.Context, _ domain.QueryRequest) (*domain.RetrievalContext, error) {
	return m.rc, m.err
}

func (m *mockKnowledgeService) Query(_ context.Context, req domain.QueryRequest) (*domain.QueryResponse, error) {
	m.lastText = req.Query
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

// setupTestServices installs mock services and returns a cleanup that
// restores the previous wiring.
func setupTestServices(knowledge *mockKnowledgeService, analysis *mockAnalysisService) func() {
	oldKnowledge := knowledgeService
	oldAnalysis := analysisService

	if knowledge != nil {
		knowledgeService = knowledge
	}
	if analysis != nil {
		analysisService = analysis
	}

	return func() {
		knowledgeService = oldKnowledge
		analysisService = oldAnalysis
	}
}
