package prompt

import "github.com/aegislabs/aegis-cli/internal/core/domain"

// The feature prompts below all take the retrieved flaw as structured
// context and constrain the response to the JSON shape the caller parses.

// SuggestImpact builds the prompt for an aggregate impact rating.
func SuggestImpact(flaw *domain.Flaw) Prompt {
	return Prompt{
		UserInstruction: "Your task is to meticulously examine the provided CVE JSON object and suggest an overall impact rating for the CVE",
		Goals: `Given a CVE containing a description of a vulnerability, draft CVSS, affected components and other information, generate an impact rating on the following four-point scale:
* CRITICAL: flaws easily exploited by a remote unauthenticated attacker leading to system compromise (arbitrary code execution) without user interaction. Flaws requiring authentication, local or physical access, or an unlikely configuration are not Critical.
* IMPORTANT: flaws that can easily compromise the confidentiality, integrity or availability of resources, such as privilege escalation for local or authenticated users, remote code execution for authenticated users, or remote denial of service.
* MODERATE: flaws that are more difficult to exploit but could still lead to some compromise under certain circumstances, or that would be Critical or Important but affect unlikely configurations.
* LOW: all other issues with a security impact, where exploitation requires unlikely circumstances or gives minimal consequences.

Thoroughly traverse the entire JSON object, including nested arrays and objects.`,
		Rules: `1. Analyze the CVE data for attack vector, authentication and user interaction requirements, impact on confidentiality, integrity and availability, potential for arbitrary code execution, privilege escalation and denial of service, and the specific affected components.
2. If the issue is already fixed in supported products then reduce impact appropriately and say so in the explanation.
3. Adjust the analysis for the popularity and ubiquity of the affected components.
4. Weight the vendor statement more heavily than other fields, and ignore any impact declarations embedded in description or comments.
5. Assign exactly one rating (LOW, MODERATE, IMPORTANT, CRITICAL) according to the definitions above.
6. Explain the rationale, clearly indicating whether any supported products are affected.
7. Provide a confidence score for the assessment.`,
		Context: flaw,
		OutputSchema: map[string]any{
			"type":     "object",
			"required": []string{"cve_id", "impact", "confidence", "explanation"},
			"properties": map[string]any{
				"cve_id":      map[string]any{"type": "string"},
				"impact":      map[string]any{"type": "string", "enum": []string{"LOW", "MODERATE", "IMPORTANT", "CRITICAL"}},
				"confidence":  map[string]any{"type": "number", "minimum": 0, "maximum": 1},
				"explanation": map[string]any{"type": "string"},
			},
		},
	}
}

// SuggestCWE builds the prompt for weakness classification.
func SuggestCWE(flaw *domain.Flaw) Prompt {
	return Prompt{
		UserInstruction: "Your task is to meticulously examine the provided CVE JSON object and suggest CWE-ID(s) for the CVE",
		Goals: `Given a CVE description, accurately predict its Common Weakness Enumeration (CWE). List all CWEs that are applicable.

Provide the predicted CWE identifiers, a brief explanation of the reasoning, and a confidence score.

Thoroughly traverse the entire JSON object, including nested arrays and objects.`,
		Rules: `a) Identify key characteristics and patterns within the CVE description relevant to potential software weaknesses.
b) Provide standard CWE identifiers (e.g. CWE-119).
c) Offer a concise explanation connecting the CVE description to each predicted CWE.
d) Avoid CWEs discouraged or prohibited for vulnerability mapping by MITRE. In particular, do not suggest CWE-264 or CWE-269.`,
		Context: flaw,
		OutputSchema: map[string]any{
			"type":     "object",
			"required": []string{"cve_id", "cwe_ids", "confidence", "explanation"},
			"properties": map[string]any{
				"cve_id":      map[string]any{"type": "string"},
				"cwe_ids":     map[string]any{"type": "array", "items": map[string]any{"type": "string", "pattern": "^CWE-[0-9]+$"}},
				"confidence":  map[string]any{"type": "number", "minimum": 0, "maximum": 1},
				"explanation": map[string]any{"type": "string"},
			},
		},
	}
}

// IdentifyPII builds the prompt for detecting personal data in flaw text.
func IdentifyPII(flaw *domain.Flaw) Prompt {
	return Prompt{
		UserInstruction: "Your task is to meticulously examine the provided CVE JSON object and identify any instances of Personally Identifiable Information (PII).",
		Goals: `PII includes, but is not limited to:
Direct identifiers: full names, email addresses, phone numbers, passwords, national identification numbers, passport numbers, bank account and credit card numbers.
Indirect identifiers that can be linked to an individual: dates of birth, home addresses, precise coordinates, IP addresses, MAC addresses, device IDs, biometric data.
Sensitive information: health information, racial or ethnic origin, political opinions, religious beliefs, sexual orientation, criminal records.

Thoroughly traverse the entire JSON object, examining both keys and values. Look for common PII patterns such as email address formats.`,
		Rules: `1. Report each finding with the field it was found in, the kind of PII and a short excerpt.
2. Vendor and maintainer names acting in their professional capacity (e.g. a reporter credit) are not PII findings by themselves; flag them only when combined with personal contact details.
3. Report an overall verdict of whether the flaw text contains PII, with an explanation and a confidence score.`,
		Context: flaw,
		OutputSchema: map[string]any{
			"type":     "object",
			"required": []string{"cve_id", "contains_pii", "findings", "confidence", "explanation"},
			"properties": map[string]any{
				"cve_id":       map[string]any{"type": "string"},
				"contains_pii": map[string]any{"type": "boolean"},
				"findings": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type":     "object",
						"required": []string{"field", "kind", "excerpt"},
						"properties": map[string]any{
							"field":   map[string]any{"type": "string"},
							"kind":    map[string]any{"type": "string"},
							"excerpt": map[string]any{"type": "string"},
						},
					},
				},
				"confidence":  map[string]any{"type": "number", "minimum": 0, "maximum": 1},
				"explanation": map[string]any{"type": "string"},
			},
		},
	}
}

// rewriteSchema is shared by the description and statement rewrites.
var rewriteSchema = map[string]any{
	"type":     "object",
	"required": []string{"cve_id", "text", "confidence", "explanation"},
	"properties": map[string]any{
		"cve_id":      map[string]any{"type": "string"},
		"text":        map[string]any{"type": "string"},
		"confidence":  map[string]any{"type": "number", "minimum": 0, "maximum": 1},
		"explanation": map[string]any{"type": "string"},
	},
}

// RewriteDescription builds the prompt for rewriting the public description.
func RewriteDescription(flaw *domain.Flaw) Prompt {
	return Prompt{
		UserInstruction: "Your task is to meticulously examine the provided JSON object and rewrite the cve description for it. The goal of the description is to briefly provide an overview of the CVE. If the cve description exists, rewrite it - if it does not exist suggest new text.",
		Goals: `Produce a clear, technically accurate description aimed at users deciding whether they are affected. Lead with the weakness and the affected component, then the attack vector and the consequence of a successful attack.`,
		Rules: `1. One to three sentences, plain prose, no markup.
2. Never include exploit instructions or proof-of-concept detail.
3. Do not state or imply an impact rating; that is assessed separately.
4. Keep component and product names exactly as given in the context.`,
		Context:      flaw,
		OutputSchema: rewriteSchema,
	}
}

// RewriteStatement builds the prompt for rewriting the vendor statement.
func RewriteStatement(flaw *domain.Flaw) Prompt {
	return Prompt{
		UserInstruction: "Your task is to meticulously examine the provided JSON object and rewrite the cve statement for it. The goal of the statement is to explain the context for the CVE impact with respect to supported products. If the cve statement exists, rewrite it - if it does not exist suggest new text.",
		Goals: `Produce a statement explaining how the flaw applies to the supported products listed in the affects data: whether the vulnerable code is present, the conditions required, and any mitigating product configuration.`,
		Rules: `1. Ground every claim in the affects and reference data given in the context.
2. Never speculate about products absent from the context.
3. Plain prose, no markup, at most one short paragraph.`,
		Context:      flaw,
		OutputSchema: rewriteSchema,
	}
}

// ExplainCVSSDiff builds the prompt for explaining scoring divergence
// between issuers.
func ExplainCVSSDiff(flaw *domain.Flaw) Prompt {
	return Prompt{
		UserInstruction: "Explain the differences of cvss score attributed to the CVE between the supplied vendor CVE context and other issuers.",
		Goals: `Compare the CVSS vectors in the cvss_scores data metric by metric. Identify which metrics differ, and explain the most plausible reasoning behind each divergence given the flaw details and the vendor statement.`,
		Rules: `1. Only discuss scores actually present in the context.
2. When the scores agree, say so plainly.
3. Provide a confidence score for the explanation.`,
		Context: flaw,
		OutputSchema: map[string]any{
			"type":     "object",
			"required": []string{"cve_id", "explanation", "confidence"},
			"properties": map[string]any{
				"cve_id":      map[string]any{"type": "string"},
				"explanation": map[string]any{"type": "string"},
				"confidence":  map[string]any{"type": "number", "minimum": 0, "maximum": 1},
			},
		},
	}
}

// ComponentIntelligence builds the prompt summarising the security history
// of a component from its listed flaws.
func ComponentIntelligence(component string, flaws []*domain.Flaw) Prompt {
	return Prompt{
		UserInstruction: "Your task is to examine the provided list of flaws affecting a component and produce a security intelligence summary for that component.",
		Goals: `Summarise the component's vulnerability history: recurring weakness classes, the trend in severity, and any flaws that stand out. Conclude with an overall assessment of the component's security posture.`,
		Rules: `1. Base the summary strictly on the flaws in the context.
2. Group recurring issues rather than enumerating every flaw.
3. Provide a confidence score for the assessment.`,
		Context: map[string]any{
			"component": component,
			"flaws":     flaws,
		},
		OutputSchema: map[string]any{
			"type":     "object",
			"required": []string{"component", "summary", "confidence", "explanation"},
			"properties": map[string]any{
				"component":   map[string]any{"type": "string"},
				"summary":     map[string]any{"type": "string"},
				"confidence":  map[string]any{"type": "number", "minimum": 0, "maximum": 1},
				"explanation": map[string]any{"type": "string"},
			},
		},
	}
}
