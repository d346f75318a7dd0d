package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var componentJSON bool

var componentCmd = &cobra.Command{
	Use:   "component [name]",
	Short: "Summarise the flaw history of a component",
	Long: `Fetches every public flaw affecting a component from the vulnerability
database and generates an aggregate intelligence report: recurring
weakness patterns, severity trends and notable flaws.

Examples:
  aegis component openssl
  aegis component --json kernel`,
	Args: cobra.ExactArgs(1),
	RunE: runComponent,
}

func init() {
	componentCmd.Flags().BoolVar(&componentJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(componentCmd)
}

func runComponent(cmd *cobra.Command, args []string) error {
	if analysisService == nil {
		return errors.New("analysis service not configured")
	}

	report, err := analysisService.ComponentIntelligence(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("component intelligence failed: %w", err)
	}

	if componentJSON {
		return printJSON(cmd, report)
	}

	cmd.Printf("%s: %d flaws analysed (confidence %.2f)\n\n", report.Component, report.FlawCount, report.Confidence)
	cmd.Println(report.Summary)
	if report.Explanation != "" {
		cmd.Printf("\n%s\n", report.Explanation)
	}
	return nil
}
