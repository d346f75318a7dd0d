package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aegislabs/aegis-cli/internal/core/domain"
)

var (
	queryTopKDocs  int
	queryTopKFacts int
	queryJSON      bool
	queryRetrieve  bool
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Ask the knowledge base a question",
	Long: `Answers a question grounded in the knowledge base.

The question is embedded, the closest document chunks and facts are
retrieved, and an answer is generated strictly from that context. When
nothing relevant is stored, the command says so instead of guessing.

Use --retrieve to inspect the retrieved context without generating
an answer.

Examples:
  aegis query "which openssl versions are affected by CVE-2024-12345?"
  aegis query --top-k-docs 5 --json "known kernel mitigations"
  aegis query --retrieve "heap overflow"`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().IntVar(&queryTopKDocs, "top-k-docs", 0, "maximum document chunks to retrieve (0 = default)")
	queryCmd.Flags().IntVar(&queryTopKFacts, "top-k-facts", 0, "maximum facts to retrieve (0 = default)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output the response as JSON")
	queryCmd.Flags().BoolVar(&queryRetrieve, "retrieve", false, "show retrieved context only, skip generation")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if knowledgeService == nil {
		return errors.New("knowledge service not configured")
	}

	req := domain.QueryRequest{
		Query:         args[0],
		TopKDocuments: queryTopKDocs,
		TopKFacts:     queryTopKFacts,
	}

	if queryRetrieve {
		rc, err := knowledgeService.Retrieve(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("retrieval failed: %w", err)
		}
		if queryJSON {
			return printJSON(cmd, rc)
		}
		return outputRetrieval(cmd, rc)
	}

	resp, err := knowledgeService.Query(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		return printJSON(cmd, resp)
	}
	return outputResponse(cmd, resp)
}

func outputRetrieval(cmd *cobra.Command, rc *domain.RetrievalContext) error {
	if len(rc.SourceItems) == 0 {
		cmd.Println("Nothing relevant in the knowledge base.")
		return nil
	}

	cmd.Printf("Retrieved %d items:\n\n", len(rc.SourceItems))
	for i := range rc.SourceItems {
		item := &rc.SourceItems[i]
		similarity := 0.0
		if item.SimilarityScore != nil {
			similarity = *item.SimilarityScore
		}
		cmd.Printf("  [%d] %s (%.3f)\n", i+1, item.SourceType, similarity)
		cmd.Printf("      %s\n\n", item.Content)
	}
	return nil
}

func outputResponse(cmd *cobra.Command, resp *domain.QueryResponse) error {
	if resp.InsufficientContext {
		cmd.Println(resp.Answer)
		return nil
	}

	cmd.Println(resp.Answer)
	cmd.Println()
	cmd.Printf("Confidence: %.2f\n", resp.Confidence)
	if resp.Explanation != "" {
		cmd.Printf("Explanation: %s\n", resp.Explanation)
	}
	if len(resp.Sources) > 0 {
		cmd.Printf("Sources: %d retrieved items\n", len(resp.Sources))
	}
	return nil
}

// printJSON writes any value as indented JSON on the command's stdout.
func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
