// Package cli implements the aegis command line interface.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/aegislabs/aegis-cli/internal/core/ports/driven"
	"github.com/aegislabs/aegis-cli/internal/core/ports/driving"
	"github.com/aegislabs/aegis-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services injected by main before Execute. Commands check for nil so the
// CLI degrades gracefully when a backend is not configured.
var (
	knowledgeService driving.KnowledgeService
	analysisService  driving.AnalysisService
	configStore      driven.ConfigStore
)

var verboseFlag bool

var rootCmd = &cobra.Command{
	Use:   "aegis",
	Short: "LLM-assisted CVE analysis and security knowledge base",
	Long: `Aegis is a security analyst assistant. It keeps a local knowledge base
of documents and facts for grounded question answering, and runs
LLM-backed analysis features over CVE records fetched from the
vulnerability database.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose logging")
}

// Services bundles everything the commands need.
type Services struct {
	Knowledge driving.KnowledgeService
	Analysis  driving.AnalysisService
	Config    driven.ConfigStore
}

// Configure injects the service implementations. Call before Execute.
func Configure(s Services) {
	knowledgeService = s.Knowledge
	analysisService = s.Analysis
	configStore = s.Config
}

// SetVersion overrides the reported version string.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with a context, so long-running
// commands stop on cancellation.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
