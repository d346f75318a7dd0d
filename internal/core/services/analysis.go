package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aegislabs/aegis-cli/internal/core/domain"
	"github.com/aegislabs/aegis-cli/internal/core/ports/driven"
	"github.com/aegislabs/aegis-cli/internal/core/ports/driving"
	"github.com/aegislabs/aegis-cli/internal/logger"
	"github.com/aegislabs/aegis-cli/internal/prompt"
)

// Ensure AnalysisService implements the interface.
var _ driving.AnalysisService = (*AnalysisService)(nil)

// AnalysisService implements the CVE analysis features. Every feature is
// one flaw retrieval plus one bounded generation call; the CWE catalog is
// optional and only enriches suggestions when present.
type AnalysisService struct {
	flaws driven.FlawSource
	cwes  driven.CWECatalog
	llm   driven.LLMService
}

// NewAnalysisService creates a new analysis service. cwes may be nil.
func NewAnalysisService(flaws driven.FlawSource, cwes driven.CWECatalog, llm driven.LLMService) *AnalysisService {
	return &AnalysisService{flaws: flaws, cwes: cwes, llm: llm}
}

// featureMaxTokens bounds every feature generation call.
const featureMaxTokens = 2048

// RetrieveFlaw fetches the raw flaw record for a CVE id.
func (s *AnalysisService) RetrieveFlaw(ctx context.Context, cveID string) (*domain.Flaw, error) {
	if s.flaws == nil {
		return nil, fmt.Errorf("no flaw source configured")
	}
	return s.flaws.Retrieve(ctx, cveID)
}

// SuggestImpact asserts an aggregated impact rating for a CVE.
func (s *AnalysisService) SuggestImpact(ctx context.Context, cveID string) (*domain.ImpactSuggestion, error) {
	flaw, err := s.RetrieveFlaw(ctx, cveID)
	if err != nil {
		return nil, err
	}

	suggestion, err := runFeature[domain.ImpactSuggestion](ctx, s.llm, prompt.SuggestImpact(flaw))
	if err != nil {
		return nil, err
	}
	suggestion.CVEID = flaw.CVEID

	switch suggestion.Impact {
	case domain.ImpactLow, domain.ImpactModerate, domain.ImpactImportant, domain.ImpactCritical:
	default:
		return nil, fmt.Errorf("model suggested unknown impact %q", suggestion.Impact)
	}
	return suggestion, nil
}

// SuggestCWE predicts the weakness classification(s) for a CVE. When a CWE
// catalog is configured, each suggested id is resolved to its name and
// appended to the explanation; unknown ids are dropped.
func (s *AnalysisService) SuggestCWE(ctx context.Context, cveID string) (*domain.CWESuggestion, error) {
	flaw, err := s.RetrieveFlaw(ctx, cveID)
	if err != nil {
		return nil, err
	}

	suggestion, err := runFeature[domain.CWESuggestion](ctx, s.llm, prompt.SuggestCWE(flaw))
	if err != nil {
		return nil, err
	}
	suggestion.CVEID = flaw.CVEID

	if s.cwes != nil {
		var names []string
		valid := suggestion.CWEIDs[:0]
		for _, id := range suggestion.CWEIDs {
			entry, err := s.cwes.Lookup(ctx, id)
			if err != nil {
				logger.Warn("dropping suggested %s: %v", id, err)
				continue
			}
			valid = append(valid, id)
			names = append(names, fmt.Sprintf("%s (%s)", entry.ID, entry.Name))
		}
		suggestion.CWEIDs = valid
		if len(names) > 0 {
			suggestion.Explanation += "\n\nCatalog: " + strings.Join(names, ", ")
		}
	}
	return suggestion, nil
}

// IdentifyPII scans the flaw's public text for personally identifiable
// information.
func (s *AnalysisService) IdentifyPII(ctx context.Context, cveID string) (*domain.PIIReport, error) {
	flaw, err := s.RetrieveFlaw(ctx, cveID)
	if err != nil {
		return nil, err
	}

	report, err := runFeature[domain.PIIReport](ctx, s.llm, prompt.IdentifyPII(flaw))
	if err != nil {
		return nil, err
	}
	report.CVEID = flaw.CVEID
	if report.Findings == nil {
		report.Findings = []domain.PIIFinding{}
	}
	return report, nil
}

// rewriteResult is the wire shape of the rewrite feature responses.
type rewriteResult struct {
	CVEID       string  `json:"cve_id"`
	Text        string  `json:"text"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation"`
}

// RewriteDescription rewrites the flaw description for clarity.
func (s *AnalysisService) RewriteDescription(ctx context.Context, cveID string) (*domain.Rewrite, error) {
	flaw, err := s.RetrieveFlaw(ctx, cveID)
	if err != nil {
		return nil, err
	}

	result, err := runFeature[rewriteResult](ctx, s.llm, prompt.RewriteDescription(flaw))
	if err != nil {
		return nil, err
	}
	return &domain.Rewrite{
		CVEID:       flaw.CVEID,
		Original:    flaw.Description,
		Rewritten:   result.Text,
		Confidence:  result.Confidence,
		Explanation: result.Explanation,
	}, nil
}

// RewriteStatement rewrites the vendor statement for clarity.
func (s *AnalysisService) RewriteStatement(ctx context.Context, cveID string) (*domain.Rewrite, error) {
	flaw, err := s.RetrieveFlaw(ctx, cveID)
	if err != nil {
		return nil, err
	}

	result, err := runFeature[rewriteResult](ctx, s.llm, prompt.RewriteStatement(flaw))
	if err != nil {
		return nil, err
	}
	return &domain.Rewrite{
		CVEID:       flaw.CVEID,
		Original:    flaw.Statement,
		Rewritten:   result.Text,
		Confidence:  result.Confidence,
		Explanation: result.Explanation,
	}, nil
}

// ExplainCVSSDiff explains divergence between the issuers' CVSS scores.
func (s *AnalysisService) ExplainCVSSDiff(ctx context.Context, cveID string) (*domain.CVSSDiffExplanation, error) {
	flaw, err := s.RetrieveFlaw(ctx, cveID)
	if err != nil {
		return nil, err
	}
	if len(flaw.CVSSScores) < 2 {
		return nil, fmt.Errorf("%w: %s has %d CVSS score(s), need at least two to compare",
			domain.ErrInvalidInput, flaw.CVEID, len(flaw.CVSSScores))
	}

	explanation, err := runFeature[domain.CVSSDiffExplanation](ctx, s.llm, prompt.ExplainCVSSDiff(flaw))
	if err != nil {
		return nil, err
	}
	explanation.CVEID = flaw.CVEID
	return explanation, nil
}

// ComponentIntelligence summarises the flaw history of a component.
func (s *AnalysisService) ComponentIntelligence(ctx context.Context, component string) (*domain.ComponentReport, error) {
	if s.flaws == nil {
		return nil, fmt.Errorf("no flaw source configured")
	}

	flaws, err := s.flaws.ListComponentFlaws(ctx, component)
	if err != nil {
		return nil, err
	}
	if len(flaws) == 0 {
		return nil, fmt.Errorf("%w: no flaws recorded for component %q", domain.ErrNotFound, component)
	}

	report, err := runFeature[domain.ComponentReport](ctx, s.llm, prompt.ComponentIntelligence(component, flaws))
	if err != nil {
		return nil, err
	}
	report.Component = component
	report.FlawCount = len(flaws)
	return report, nil
}

// runFeature renders a prompt, runs one generation call and parses the
// JSON response into T.
func runFeature[T any](ctx context.Context, llm driven.LLMService, p prompt.Prompt) (*T, error) {
	if llm == nil {
		return nil, fmt.Errorf("%w: no LLM configured", domain.ErrLLMUnavailable)
	}

	raw, err := llm.Generate(ctx, p.String(), driven.GenerateOptions{
		MaxTokens:   featureMaxTokens,
		Temperature: 0.1,
	})
	if err != nil {
		return nil, err
	}

	var result T
	if err := json.Unmarshal([]byte(extractJSON(raw)), &result); err != nil {
		return nil, fmt.Errorf("parsing model response: %w", err)
	}
	return &result, nil
}

// extractJSON trims prose and code fences around the first JSON object in
// model output.
func extractJSON(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
