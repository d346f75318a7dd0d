package domain

import (
	"fmt"
	"regexp"
)

// cveIDPattern matches CVE identifiers such as CVE-2024-12345.
var cveIDPattern = regexp.MustCompile(`^CVE-\d{4}-\d{4,}$`)

// ValidateCVEID checks that id is a well-formed CVE identifier.
func ValidateCVEID(id string) error {
	if !cveIDPattern.MatchString(id) {
		return fmt.Errorf("%w: malformed CVE id %q", ErrInvalidInput, id)
	}
	return nil
}

// cwePattern matches CWE identifiers such as CWE-79.
var cwePattern = regexp.MustCompile(`^CWE-\d+$`)

// ValidateCWEID checks that id is a well-formed CWE identifier.
func ValidateCWEID(id string) error {
	if !cwePattern.MatchString(id) {
		return fmt.Errorf("%w: malformed CWE id %q", ErrInvalidInput, id)
	}
	return nil
}

// CVSSScore is one CVSS score attached to a flaw.
type CVSSScore struct {
	// Issuer is who assigned the score (e.g. "RH", "NIST").
	Issuer string `json:"issuer"`

	// Version is the CVSS version ("3.1", "4.0").
	Version string `json:"version"`

	// Vector is the full CVSS vector string.
	Vector string `json:"vector"`

	// Score is the numeric base score.
	Score float64 `json:"score"`
}

// Affect records one affected product/component pair.
type Affect struct {
	Product   string `json:"product"`
	Component string `json:"component"`
	State     string `json:"state"`
}

// Flaw is the structured CVE record retrieved from the external
// vulnerability database.
type Flaw struct {
	CVEID       string      `json:"cve_id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Statement   string      `json:"statement"`
	CommentZero string      `json:"comment_zero"`
	Comments    []string    `json:"comments"`
	Impact      string      `json:"impact"`
	Components  []string    `json:"components"`
	Affects     []Affect    `json:"affects"`
	References  []string    `json:"references"`
	CVSSScores  []CVSSScore `json:"cvss_scores"`

	// Embargoed flaws are withheld unless embargoed retrieval is
	// explicitly enabled.
	Embargoed bool `json:"embargoed"`
}

// CWEEntry is one weakness definition from the MITRE catalogue.
type CWEEntry struct {
	// ID is the CWE identifier (e.g. "CWE-79").
	ID string `json:"cwe_id"`

	Name        string `json:"name"`
	Description string `json:"description"`

	// ExtendedDescription may be empty for view-only entries.
	ExtendedDescription string `json:"extended_description,omitempty"`

	// RelatedWeaknesses is the raw related-weaknesses field from the
	// catalogue CSV.
	RelatedWeaknesses string `json:"related_weaknesses,omitempty"`
}
