package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/aegislabs/aegis-cli/internal/core/domain"
)

// addDocumentRequest is the body of POST /api/v1/kb/add-document.
type addDocumentRequest struct {
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// addFactRequest is the body of POST /api/v1/kb/add-fact.
type addFactRequest struct {
	Fact     string         `json:"fact"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// queryRequest is the body of POST /api/v1/kb/query.
type queryRequest struct {
	Query         string `json:"query"`
	TopKDocuments int    `json:"top_k_documents,omitempty"`
	TopKFacts     int    `json:"top_k_facts,omitempty"`
}

func (s *Server) handleAddDocument(w http.ResponseWriter, r *http.Request) {
	var req addDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	report, err := s.knowledge.AddDocument(r.Context(), req.Text, req.Metadata)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

func (s *Server) handleAddFact(w http.ResponseWriter, r *http.Request) {
	var req addFactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	receipt, err := s.knowledge.AddFact(r.Context(), req.Fact, req.Metadata)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	status := http.StatusCreated
	if receipt.Status == domain.InsertStatusSkipped {
		status = http.StatusOK
	}
	writeJSON(w, status, receipt)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	resp, err := s.knowledge.Query(r.Context(), domain.QueryRequest{
		Query:         req.Query,
		TopKDocuments: req.TopKDocuments,
		TopKFacts:     req.TopKFacts,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleShowFlaw(w http.ResponseWriter, r *http.Request) {
	flaw, err := s.analysis.RetrieveFlaw(r.Context(), r.PathValue("cve_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, flaw)
}

func (s *Server) handleSuggestImpact(w http.ResponseWriter, r *http.Request) {
	suggestion, err := s.analysis.SuggestImpact(r.Context(), r.PathValue("cve_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestion)
}

func (s *Server) handleSuggestCWE(w http.ResponseWriter, r *http.Request) {
	suggestion, err := s.analysis.SuggestCWE(r.Context(), r.PathValue("cve_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestion)
}

func (s *Server) handleIdentifyPII(w http.ResponseWriter, r *http.Request) {
	report, err := s.analysis.IdentifyPII(r.Context(), r.PathValue("cve_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleRewriteDescription(w http.ResponseWriter, r *http.Request) {
	rewrite, err := s.analysis.RewriteDescription(r.Context(), r.PathValue("cve_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rewrite)
}

func (s *Server) handleRewriteStatement(w http.ResponseWriter, r *http.Request) {
	rewrite, err := s.analysis.RewriteStatement(r.Context(), r.PathValue("cve_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rewrite)
}

func (s *Server) handleExplainCVSSDiff(w http.ResponseWriter, r *http.Request) {
	explanation, err := s.analysis.ExplainCVSSDiff(r.Context(), r.PathValue("cve_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, explanation)
}

func (s *Server) handleComponentIntelligence(w http.ResponseWriter, r *http.Request) {
	report, err := s.analysis.ComponentIntelligence(r.Context(), r.PathValue("component"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
