package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aegislabs/aegis-cli/internal/core/domain"
)

var factMeta []string

var factCmd = &cobra.Command{
	Use:   "fact [statement]",
	Short: "Add an atomic fact to the knowledge base",
	Long: `Embeds and stores a single factual statement in the facts collection.

Facts are stored whole, without chunking. Adding the same statement
twice is a no-op and reports the existing entry.

Examples:
  aegis fact "CVE-2024-12345 affects openssl 3.0 through 3.0.7"
  aegis fact --meta source=triage "kernel 6.5 is not affected"`,
	Args: cobra.ExactArgs(1),
	RunE: runFact,
}

func init() {
	factCmd.Flags().StringArrayVar(&factMeta, "meta", nil, "metadata to attach to the fact (key=value, repeatable)")
	rootCmd.AddCommand(factCmd)
}

func runFact(cmd *cobra.Command, args []string) error {
	if knowledgeService == nil {
		return errors.New("knowledge service not configured")
	}

	metadata, err := parseMetadata(factMeta)
	if err != nil {
		return err
	}

	receipt, err := knowledgeService.AddFact(cmd.Context(), args[0], metadata)
	if err != nil {
		return fmt.Errorf("storing fact failed: %w", err)
	}

	switch receipt.Status {
	case domain.InsertStatusSkipped:
		cmd.Printf("Already known: %s\n", receipt.ID)
	default:
		cmd.Printf("Stored fact: %s\n", receipt.ID)
	}
	if preview := strings.TrimSpace(args[0]); len(preview) > 60 {
		cmd.Printf("  %s...\n", preview[:60])
	}
	return nil
}
