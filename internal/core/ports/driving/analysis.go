package driving

import (
	"context"

	"github.com/aegislabs/aegis-cli/internal/core/domain"
)

// AnalysisService exposes the CVE analysis features. Every feature fetches
// the flaw record from the external vulnerability database and runs one
// bounded generation call over it.
type AnalysisService interface {
	// RetrieveFlaw fetches the raw flaw record for a CVE id.
	RetrieveFlaw(ctx context.Context, cveID string) (*domain.Flaw, error)

	// SuggestImpact asserts an aggregated impact rating for a CVE.
	SuggestImpact(ctx context.Context, cveID string) (*domain.ImpactSuggestion, error)

	// SuggestCWE predicts the weakness classification(s) for a CVE.
	SuggestCWE(ctx context.Context, cveID string) (*domain.CWESuggestion, error)

	// IdentifyPII scans the flaw's public text for personally
	// identifiable information.
	IdentifyPII(ctx context.Context, cveID string) (*domain.PIIReport, error)

	// RewriteDescription rewrites the flaw description for clarity.
	RewriteDescription(ctx context.Context, cveID string) (*domain.Rewrite, error)

	// RewriteStatement rewrites the vendor statement for clarity.
	RewriteStatement(ctx context.Context, cveID string) (*domain.Rewrite, error)

	// ExplainCVSSDiff explains divergence between the issuers' CVSS
	// scores for a CVE.
	ExplainCVSSDiff(ctx context.Context, cveID string) (*domain.CVSSDiffExplanation, error)

	// ComponentIntelligence summarises the flaw history of a component.
	ComponentIntelligence(ctx context.Context, component string) (*domain.ComponentReport, error)
}
