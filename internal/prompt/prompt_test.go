package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aegislabs/aegis-cli/internal/core/domain"
)

func TestString_SectionOrder(t *testing.T) {
	p := Prompt{
		UserInstruction: "do the task",
		Goals:           "the goals",
		Rules:           "the rules",
		Context:         map[string]any{"key": "value"},
		OutputSchema:    map[string]any{"type": "object"},
	}

	rendered := p.String()

	positions := []int{
		strings.Index(rendered, "system: "),
		strings.Index(rendered, "user: do the task"),
		strings.Index(rendered, "Goals:\nthe goals"),
		strings.Index(rendered, "Behavior and Rules:\nthe rules"),
		strings.Index(rendered, "Context:\n"),
		strings.Index(rendered, "Format: Should adhere to the following schema"),
	}
	for i, pos := range positions {
		assert.GreaterOrEqual(t, pos, 0, "section %d missing", i)
		if i > 0 {
			assert.Greater(t, pos, positions[i-1], "section %d out of order", i)
		}
	}
}

func TestString_OmitsEmptySections(t *testing.T) {
	p := Prompt{UserInstruction: "just ask"}
	rendered := p.String()

	assert.Contains(t, rendered, DefaultSystemInstruction)
	assert.NotContains(t, rendered, "Goals:")
	assert.NotContains(t, rendered, "Behavior and Rules:")
	assert.NotContains(t, rendered, "Format:")
}

func TestString_CustomSystemInstruction(t *testing.T) {
	p := Prompt{SystemInstruction: "be terse", UserInstruction: "ask"}
	rendered := p.String()

	assert.Contains(t, rendered, "system: be terse")
	assert.NotContains(t, rendered, DefaultSystemInstruction)
}

func TestGroundedQuery(t *testing.T) {
	rendered := GroundedQuery("Document Chunk: the sky is blue", "what colour is the sky?")

	assert.Contains(t, rendered, "Document Chunk: the sky is blue")
	assert.Contains(t, rendered, "Question: what colour is the sky?")
	assert.Contains(t, rendered, "Do NOT make up information")
}

func TestFeaturePrompts_CarryFlawContext(t *testing.T) {
	flaw := &domain.Flaw{CVEID: "CVE-2024-12345", Title: "heap overflow"}

	for name, p := range map[string]Prompt{
		"impact":      SuggestImpact(flaw),
		"cwe":         SuggestCWE(flaw),
		"pii":         IdentifyPII(flaw),
		"description": RewriteDescription(flaw),
		"statement":   RewriteStatement(flaw),
		"cvss":        ExplainCVSSDiff(flaw),
	} {
		rendered := p.String()
		assert.Contains(t, rendered, "CVE-2024-12345", name)
		assert.Contains(t, rendered, "Format: Should adhere to the following schema", name)
	}
}

func TestComponentIntelligence(t *testing.T) {
	flaws := []*domain.Flaw{{CVEID: "CVE-2024-0001"}, {CVEID: "CVE-2024-0002"}}
	rendered := ComponentIntelligence("kernel", flaws).String()

	assert.Contains(t, rendered, `"component": "kernel"`)
	assert.Contains(t, rendered, "CVE-2024-0001")
	assert.Contains(t, rendered, "CVE-2024-0002")
}
