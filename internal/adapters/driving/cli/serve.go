package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aegislabs/aegis-cli/internal/adapters/driving/httpapi"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Serves the knowledge base and the CVE analysis features over a JSON
REST API.

Examples:
  aegis serve
  aegis serve --port 9000

  curl -s localhost:8000/api/v1/cve/suggest/impact/CVE-2024-12345
  curl -s -X POST localhost:8000/api/v1/kb/query \
    -d '{"query": "which openssl versions are affected?"}'`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8000, "port to listen on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if knowledgeService == nil {
		return errors.New("knowledge service not configured")
	}

	server, err := httpapi.NewServer(knowledgeService, analysisService)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", servePort)
	cmd.Printf("API server listening on http://localhost%s\n", addr)
	return server.Run(cmd.Context(), addr)
}
