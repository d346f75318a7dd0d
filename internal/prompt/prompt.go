// Package prompt builds the structured prompts sent to the LLM. A Prompt is
// composed of fixed instruction sections plus JSON-serialized context, and
// renders to a single string with String().
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DefaultSystemInstruction frames every analysis prompt. The model is asked
// to behave as a panel of independent product security analysts and to score
// its own confidence by their level of agreement.
const DefaultSystemInstruction = `System Prompt for Security Analysis

Core Methodology:
- Three independent product security experts collaborate
- Each expert conducts a separate, rigorous analysis
- Final output synthesizes most credible findings
- Prioritize consensus over averaging
- Explicit confidence scoring based on analytical agreement

Communication Principles:
- Professional, authoritative tone
- Concise, clear language
- No invented information
- No prescriptive language
- No code listings

Confidence Scoring:
- Dynamic confidence assessment
- Based on expert consensus, source credibility and factual substantiation`

// Prompt is a structured, composable representation of an LLM prompt.
type Prompt struct {
	// SystemInstruction frames the whole exchange. Empty uses the default.
	SystemInstruction string

	// UserInstruction states the task.
	UserInstruction string

	Goals string
	Rules string

	// Context is structured input, rendered as JSON.
	Context any

	// StaticContext is pre-rendered context appended verbatim.
	StaticContext string

	// OutputSchema constrains the response shape, rendered as JSON.
	OutputSchema any
}

// String renders the prompt sections in a fixed order, separated by blank
// lines. Empty sections are omitted.
func (p Prompt) String() string {
	system := p.SystemInstruction
	if system == "" {
		system = DefaultSystemInstruction
	}

	parts := []string{
		"system: " + system + "\n",
		"user: " + p.UserInstruction + "\n",
	}

	if p.Goals != "" {
		parts = append(parts, "Goals:\n"+p.Goals)
	}
	if p.Rules != "" {
		parts = append(parts, "Behavior and Rules:\n"+p.Rules)
	}
	if p.Context != nil {
		parts = append(parts, "Context:\n"+renderJSON(p.Context))
	}
	if p.StaticContext != "" {
		parts = append(parts, "Context:\n"+p.StaticContext)
	}
	if p.OutputSchema != nil {
		parts = append(parts, "Format: Should adhere to the following schema\n"+renderJSON(p.OutputSchema))
	}

	return strings.Join(parts, "\n\n")
}

func renderJSON(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

// GroundedQuery builds the retrieval-grounded question prompt. The model
// must answer strictly from the supplied context and say so when the
// context does not contain the answer.
func GroundedQuery(context, query string) string {
	return fmt.Sprintf(`You are a product security analyst. Your task is to answer the user's question precisely
using provided context. If the information needed to answer is not present
in the context, you MUST state that you do not have enough information from the context.
Do NOT make up information. Do not invent information.

Context:
%s

Question: %s

Ensure your answer is comprehensive and directly addresses the user's question. Summarise
the answer if supplied by context, in the answer section.`, context, query)
}
