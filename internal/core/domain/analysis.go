package domain

// Impact is the four-point aggregated impact scale.
type Impact string

const (
	ImpactLow       Impact = "LOW"
	ImpactModerate  Impact = "MODERATE"
	ImpactImportant Impact = "IMPORTANT"
	ImpactCritical  Impact = "CRITICAL"
)

// ImpactSuggestion is the structured output of the suggest-impact feature.
type ImpactSuggestion struct {
	CVEID       string  `json:"cve_id"`
	Impact      Impact  `json:"impact"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation"`
}

// CWESuggestion is the structured output of the suggest-cwe feature.
type CWESuggestion struct {
	CVEID       string   `json:"cve_id"`
	CWEIDs      []string `json:"cwe_ids"`
	Confidence  float64  `json:"confidence"`
	Explanation string   `json:"explanation"`
}

// PIIFinding is one suspected piece of personally identifiable information.
type PIIFinding struct {
	// Field is where in the flaw record the PII was found.
	Field string `json:"field"`

	// Kind is the category (email, name, address, ...).
	Kind string `json:"kind"`

	// Excerpt is the offending text fragment.
	Excerpt string `json:"excerpt"`
}

// PIIReport is the structured output of the identify-pii feature.
type PIIReport struct {
	CVEID       string       `json:"cve_id"`
	ContainsPII bool         `json:"contains_pii"`
	Findings    []PIIFinding `json:"findings"`
	Confidence  float64      `json:"confidence"`
	Explanation string       `json:"explanation"`
}

// Rewrite is the structured output of the rewrite-description and
// rewrite-statement features.
type Rewrite struct {
	CVEID       string  `json:"cve_id"`
	Original    string  `json:"original"`
	Rewritten   string  `json:"rewritten"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation"`
}

// CVSSDiffExplanation explains divergence between CVSS scores from
// different issuers for the same flaw.
type CVSSDiffExplanation struct {
	CVEID       string  `json:"cve_id"`
	Explanation string  `json:"explanation"`
	Confidence  float64 `json:"confidence"`
}

// ComponentReport is the structured output of the component-intelligence
// feature: an aggregate view of the flaws affecting one component.
type ComponentReport struct {
	Component   string  `json:"component"`
	FlawCount   int     `json:"flaw_count"`
	Summary     string  `json:"summary"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation"`
}
