package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Store service credentials",
	Long: `Store credentials for the external services aegis talks to.

Tokens are written to the configuration file and can be overridden at
any time with AEGIS_* environment variables.

Examples:
  aegis auth osidb        # vulnerability database token
  aegis auth llm          # LLM provider API key
  aegis auth embedding    # embedding provider API key`,
}

var authOSIDBCmd = &cobra.Command{
	Use:   "osidb",
	Short: "Store the vulnerability database token",
	RunE:  runAuthSet("osidb.token", "OSIDB token"),
}

var authLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Store the LLM provider API key",
	RunE:  runAuthSet("llm.api_key", "LLM API key"),
}

var authEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Store the embedding provider API key",
	RunE:  runAuthSet("embedding.api_key", "Embedding API key"),
}

func init() {
	authCmd.AddCommand(authOSIDBCmd)
	authCmd.AddCommand(authLLMCmd)
	authCmd.AddCommand(authEmbeddingCmd)
	rootCmd.AddCommand(authCmd)
}

// runAuthSet builds a RunE that prompts for a secret and stores it under
// the given config key.
func runAuthSet(key, label string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		if configStore == nil {
			return errors.New("config store not configured")
		}

		cmd.Printf("%s: ", label)
		secret := readPassword()
		cmd.Println()
		if secret == "" {
			return errors.New("no value entered")
		}

		if err := configStore.Set(key, secret); err != nil {
			return fmt.Errorf("saving credential: %w", err)
		}

		cmd.Printf("Stored %s (%s)\n", label, maskSecret(secret))
		return nil
	}
}

func readPassword() string {
	// Try to read password without echo
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskSecret(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
