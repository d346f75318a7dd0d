package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aegislabs/aegis-cli/internal/core/domain"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestCVEShow(t *testing.T) {
	analysis := &mockAnalysisService{
		flaw: &domain.Flaw{
			CVEID:       "CVE-2024-12345",
			Title:       "heap overflow in the parser",
			Impact:      "IMPORTANT",
			Components:  []string{"openssl"},
			Description: "A heap overflow was found.",
			CVSSScores: []domain.CVSSScore{
				{Issuer: "RH", Version: "3.1", Score: 7.5, Vector: "CVSS:3.1/AV:N"},
			},
		},
	}
	cleanup := setupTestServices(nil, analysis)
	defer cleanup()

	out, err := runCLI(t, "cve", "show", "CVE-2024-12345")

	assert.NoError(t, err)
	assert.Contains(t, out, "heap overflow in the parser")
	assert.Contains(t, out, "Components: openssl")
	assert.Contains(t, out, "CVSS 3.1 (RH): 7.5")
}

func TestCVESuggestImpact(t *testing.T) {
	analysis := &mockAnalysisService{
		impact: &domain.ImpactSuggestion{
			CVEID:       "CVE-2024-12345",
			Impact:      domain.ImpactModerate,
			Confidence:  0.8,
			Explanation: "requires local access",
		},
	}
	cleanup := setupTestServices(nil, analysis)
	defer cleanup()

	out, err := runCLI(t, "cve", "suggest-impact", "CVE-2024-12345")

	assert.NoError(t, err)
	assert.Contains(t, out, "MODERATE")
	assert.Contains(t, out, "requires local access")
}

func TestCVESuggestCWE(t *testing.T) {
	analysis := &mockAnalysisService{
		cwe: &domain.CWESuggestion{
			CVEID:      "CVE-2024-12345",
			CWEIDs:     []string{"CWE-122", "CWE-787"},
			Confidence: 0.75,
		},
	}
	cleanup := setupTestServices(nil, analysis)
	defer cleanup()

	out, err := runCLI(t, "cve", "suggest-cwe", "CVE-2024-12345")

	assert.NoError(t, err)
	assert.Contains(t, out, "CWE-122, CWE-787")
}

func TestCVESuggestCWE_NoMatch(t *testing.T) {
	analysis := &mockAnalysisService{
		cwe: &domain.CWESuggestion{
			CVEID:       "CVE-2024-12345",
			CWEIDs:      []string{},
			Explanation: "description too vague",
		},
	}
	cleanup := setupTestServices(nil, analysis)
	defer cleanup()

	out, err := runCLI(t, "cve", "suggest-cwe", "CVE-2024-12345")

	assert.NoError(t, err)
	assert.Contains(t, out, "no confident CWE match")
}

func TestCVEIdentifyPII(t *testing.T) {
	analysis := &mockAnalysisService{
		pii: &domain.PIIReport{
			CVEID:       "CVE-2024-12345",
			ContainsPII: true,
			Confidence:  0.9,
			Findings: []domain.PIIFinding{
				{Field: "description", Kind: "email", Excerpt: "reporter@example.com"},
			},
		},
	}
	cleanup := setupTestServices(nil, analysis)
	defer cleanup()

	out, err := runCLI(t, "cve", "identify-pii", "CVE-2024-12345")

	assert.NoError(t, err)
	assert.Contains(t, out, "1 PII findings")
	assert.Contains(t, out, "reporter@example.com")
}

func TestCVERewriteDescription(t *testing.T) {
	analysis := &mockAnalysisService{
		rw: &domain.Rewrite{
			CVEID:      "CVE-2024-12345",
			Rewritten:  "A clearer description.",
			Confidence: 0.85,
		},
	}
	cleanup := setupTestServices(nil, analysis)
	defer cleanup()

	out, err := runCLI(t, "cve", "rewrite-description", "CVE-2024-12345")

	assert.NoError(t, err)
	assert.Contains(t, out, "A clearer description.")
}

func TestCVEExplainCVSSDiff(t *testing.T) {
	analysis := &mockAnalysisService{
		cvss: &domain.CVSSDiffExplanation{
			CVEID:       "CVE-2024-12345",
			Explanation: "NVD assumes network attack vector",
			Confidence:  0.7,
		},
	}
	cleanup := setupTestServices(nil, analysis)
	defer cleanup()

	out, err := runCLI(t, "cve", "explain-cvss-diff", "CVE-2024-12345")

	assert.NoError(t, err)
	assert.Contains(t, out, "NVD assumes network attack vector")
}

func TestCVE_PropagatesNotFound(t *testing.T) {
	analysis := &mockAnalysisService{err: domain.ErrNotFound}
	cleanup := setupTestServices(nil, analysis)
	defer cleanup()

	_, err := runCLI(t, "cve", "show", "CVE-2024-99999")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCVE_ServiceNotConfigured(t *testing.T) {
	oldService := analysisService
	analysisService = nil
	defer func() {
		analysisService = oldService
	}()

	_, err := runCLI(t, "cve", "suggest-impact", "CVE-2024-12345")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "analysis service not configured")
}

func TestComponentCmd(t *testing.T) {
	analysis := &mockAnalysisService{
		comp: &domain.ComponentReport{
			Component:  "openssl",
			FlawCount:  12,
			Summary:    "mostly memory safety issues",
			Confidence: 0.8,
		},
	}
	cleanup := setupTestServices(nil, analysis)
	defer cleanup()

	out, err := runCLI(t, "component", "openssl")

	assert.NoError(t, err)
	assert.Contains(t, out, "12 flaws analysed")
	assert.Contains(t, out, "mostly memory safety issues")
}
