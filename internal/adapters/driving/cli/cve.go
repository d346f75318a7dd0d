package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aegislabs/aegis-cli/internal/core/domain"
)

var cveJSON bool

var cveCmd = &cobra.Command{
	Use:   "cve",
	Short: "CVE analysis features",
	Long: `LLM-backed analysis features over CVE records.

Each feature fetches the flaw record from the vulnerability database
and runs one structured generation call over it.

Examples:
  aegis cve show CVE-2024-12345
  aegis cve suggest-impact CVE-2024-12345
  aegis cve suggest-cwe CVE-2024-12345
  aegis cve identify-pii CVE-2024-12345
  aegis cve rewrite-description CVE-2024-12345
  aegis cve rewrite-statement CVE-2024-12345
  aegis cve explain-cvss-diff CVE-2024-12345`,
}

var cveShowCmd = &cobra.Command{
	Use:   "show [cve-id]",
	Short: "Show the raw flaw record",
	Args:  cobra.ExactArgs(1),
	RunE:  runCVEShow,
}

var cveSuggestImpactCmd = &cobra.Command{
	Use:   "suggest-impact [cve-id]",
	Short: "Suggest an aggregated impact rating",
	Args:  cobra.ExactArgs(1),
	RunE:  runCVESuggestImpact,
}

var cveSuggestCWECmd = &cobra.Command{
	Use:   "suggest-cwe [cve-id]",
	Short: "Suggest weakness classifications",
	Args:  cobra.ExactArgs(1),
	RunE:  runCVESuggestCWE,
}

var cveIdentifyPIICmd = &cobra.Command{
	Use:   "identify-pii [cve-id]",
	Short: "Scan the flaw text for personally identifiable information",
	Args:  cobra.ExactArgs(1),
	RunE:  runCVEIdentifyPII,
}

var cveRewriteDescriptionCmd = &cobra.Command{
	Use:   "rewrite-description [cve-id]",
	Short: "Rewrite the flaw description for clarity",
	Args:  cobra.ExactArgs(1),
	RunE:  runCVERewriteDescription,
}

var cveRewriteStatementCmd = &cobra.Command{
	Use:   "rewrite-statement [cve-id]",
	Short: "Rewrite the vendor statement for clarity",
	Args:  cobra.ExactArgs(1),
	RunE:  runCVERewriteStatement,
}

var cveExplainCVSSDiffCmd = &cobra.Command{
	Use:   "explain-cvss-diff [cve-id]",
	Short: "Explain divergence between the issuers' CVSS scores",
	Args:  cobra.ExactArgs(1),
	RunE:  runCVEExplainCVSSDiff,
}

func init() {
	cveCmd.PersistentFlags().BoolVar(&cveJSON, "json", false, "output as JSON")

	cveCmd.AddCommand(cveShowCmd)
	cveCmd.AddCommand(cveSuggestImpactCmd)
	cveCmd.AddCommand(cveSuggestCWECmd)
	cveCmd.AddCommand(cveIdentifyPIICmd)
	cveCmd.AddCommand(cveRewriteDescriptionCmd)
	cveCmd.AddCommand(cveRewriteStatementCmd)
	cveCmd.AddCommand(cveExplainCVSSDiffCmd)
	rootCmd.AddCommand(cveCmd)
}

func requireAnalysis() error {
	if analysisService == nil {
		return errors.New("analysis service not configured")
	}
	return nil
}

func runCVEShow(cmd *cobra.Command, args []string) error {
	if err := requireAnalysis(); err != nil {
		return err
	}

	flaw, err := analysisService.RetrieveFlaw(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("retrieving flaw: %w", err)
	}

	if cveJSON {
		return printJSON(cmd, flaw)
	}

	cmd.Printf("%s: %s\n", flaw.CVEID, flaw.Title)
	if flaw.Impact != "" {
		cmd.Printf("  Impact: %s\n", flaw.Impact)
	}
	if len(flaw.Components) > 0 {
		cmd.Printf("  Components: %s\n", strings.Join(flaw.Components, ", "))
	}
	for i := range flaw.CVSSScores {
		score := &flaw.CVSSScores[i]
		cmd.Printf("  CVSS %s (%s): %.1f %s\n", score.Version, score.Issuer, score.Score, score.Vector)
	}
	if flaw.Description != "" {
		cmd.Printf("\n%s\n", flaw.Description)
	}
	if flaw.Statement != "" {
		cmd.Printf("\nStatement: %s\n", flaw.Statement)
	}
	return nil
}

func runCVESuggestImpact(cmd *cobra.Command, args []string) error {
	if err := requireAnalysis(); err != nil {
		return err
	}

	suggestion, err := analysisService.SuggestImpact(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("suggesting impact: %w", err)
	}

	if cveJSON {
		return printJSON(cmd, suggestion)
	}
	cmd.Printf("%s: %s (confidence %.2f)\n", suggestion.CVEID, suggestion.Impact, suggestion.Confidence)
	cmd.Printf("  %s\n", suggestion.Explanation)
	return nil
}

func runCVESuggestCWE(cmd *cobra.Command, args []string) error {
	if err := requireAnalysis(); err != nil {
		return err
	}

	suggestion, err := analysisService.SuggestCWE(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("suggesting CWE: %w", err)
	}

	if cveJSON {
		return printJSON(cmd, suggestion)
	}
	if len(suggestion.CWEIDs) == 0 {
		cmd.Printf("%s: no confident CWE match\n", suggestion.CVEID)
	} else {
		cmd.Printf("%s: %s (confidence %.2f)\n",
			suggestion.CVEID, strings.Join(suggestion.CWEIDs, ", "), suggestion.Confidence)
	}
	cmd.Printf("  %s\n", suggestion.Explanation)
	return nil
}

func runCVEIdentifyPII(cmd *cobra.Command, args []string) error {
	if err := requireAnalysis(); err != nil {
		return err
	}

	report, err := analysisService.IdentifyPII(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("identifying PII: %w", err)
	}

	if cveJSON {
		return printJSON(cmd, report)
	}
	if !report.ContainsPII {
		cmd.Printf("%s: no PII found (confidence %.2f)\n", report.CVEID, report.Confidence)
		return nil
	}
	cmd.Printf("%s: %d PII findings (confidence %.2f)\n", report.CVEID, len(report.Findings), report.Confidence)
	for i := range report.Findings {
		finding := &report.Findings[i]
		cmd.Printf("  [%s] %s: %q\n", finding.Field, finding.Kind, finding.Excerpt)
	}
	return nil
}

func runCVERewriteDescription(cmd *cobra.Command, args []string) error {
	if err := requireAnalysis(); err != nil {
		return err
	}
	return runRewrite(cmd, args[0], analysisService.RewriteDescription)
}

func runCVERewriteStatement(cmd *cobra.Command, args []string) error {
	if err := requireAnalysis(); err != nil {
		return err
	}
	return runRewrite(cmd, args[0], analysisService.RewriteStatement)
}

func runRewrite(cmd *cobra.Command, cveID string,
	rewrite func(ctx context.Context, cveID string) (*domain.Rewrite, error),
) error {
	result, err := rewrite(cmd.Context(), cveID)
	if err != nil {
		return fmt.Errorf("rewriting: %w", err)
	}

	if cveJSON {
		return printJSON(cmd, result)
	}
	cmd.Printf("%s (confidence %.2f):\n\n%s\n", result.CVEID, result.Confidence, result.Rewritten)
	return nil
}

func runCVEExplainCVSSDiff(cmd *cobra.Command, args []string) error {
	if err := requireAnalysis(); err != nil {
		return err
	}

	explanation, err := analysisService.ExplainCVSSDiff(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("explaining CVSS difference: %w", err)
	}

	if cveJSON {
		return printJSON(cmd, explanation)
	}
	cmd.Printf("%s (confidence %.2f):\n\n%s\n", explanation.CVEID, explanation.Confidence, explanation.Explanation)
	return nil
}
