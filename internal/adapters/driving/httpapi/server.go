// Package httpapi exposes the knowledge base and CVE analysis features
// over a JSON REST API.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aegislabs/aegis-cli/internal/core/domain"
	"github.com/aegislabs/aegis-cli/internal/core/ports/driving"
	"github.com/aegislabs/aegis-cli/internal/logger"
)

// ErrMissingKnowledgeService is returned when the knowledge service is not provided.
var ErrMissingKnowledgeService = errors.New("httpapi: knowledge service is required")

// Server is the HTTP API server for Aegis.
type Server struct {
	knowledge driving.KnowledgeService
	analysis  driving.AnalysisService
	mux       *http.ServeMux
}

// NewServer creates the API server. The analysis service may be nil, in
// which case the CVE and component routes respond 503.
func NewServer(knowledge driving.KnowledgeService, analysis driving.AnalysisService) (*Server, error) {
	if knowledge == nil {
		return nil, ErrMissingKnowledgeService
	}

	s := &Server{
		knowledge: knowledge,
		analysis:  analysis,
		mux:       http.NewServeMux(),
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /api/v1/kb/add-document", s.handleAddDocument)
	s.mux.HandleFunc("POST /api/v1/kb/add-fact", s.handleAddFact)
	s.mux.HandleFunc("POST /api/v1/kb/query", s.handleQuery)

	s.mux.HandleFunc("GET /api/v1/cve/{cve_id}", s.analysisHandler(s.handleShowFlaw))
	s.mux.HandleFunc("GET /api/v1/cve/suggest/impact/{cve_id}", s.analysisHandler(s.handleSuggestImpact))
	s.mux.HandleFunc("GET /api/v1/cve/suggest/cwe/{cve_id}", s.analysisHandler(s.handleSuggestCWE))
	s.mux.HandleFunc("GET /api/v1/cve/identify/pii/{cve_id}", s.analysisHandler(s.handleIdentifyPII))
	s.mux.HandleFunc("GET /api/v1/cve/rewrite/description/{cve_id}", s.analysisHandler(s.handleRewriteDescription))
	s.mux.HandleFunc("GET /api/v1/cve/rewrite/statement/{cve_id}", s.analysisHandler(s.handleRewriteStatement))
	s.mux.HandleFunc("GET /api/v1/cve/explain_cvss_diff/{cve_id}", s.analysisHandler(s.handleExplainCVSSDiff))
	s.mux.HandleFunc("GET /api/v1/component/intelligence/{component}", s.analysisHandler(s.handleComponentIntelligence))

	s.mux.HandleFunc("GET /api/v1/healthy", s.handleHealthy)
}

// Handler returns the server's HTTP handler, for mounting and testing.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run serves the API on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	logger.Info("API server listening on %s", addr)
	err := httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// analysisHandler guards routes that need the analysis service.
func (s *Server) analysisHandler(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.analysis == nil {
			writeError(w, http.StatusServiceUnavailable, "analysis service not configured")
			return
		}
		h(w, r)
	}
}

func (s *Server) handleHealthy(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// errorResponse is the JSON body of every non-2xx response.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("writing response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeDomainError maps domain sentinel errors onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrEmbargoed):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, domain.ErrLLMUnavailable),
		errors.Is(err, domain.ErrEmbeddingUnavailable),
		errors.Is(err, domain.ErrStorageUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
