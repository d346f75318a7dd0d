package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure storage, embedding, LLM and retrieval options.

Settings live in the configuration file and can be overridden per run
with AEGIS_* environment variables (dots become underscores, e.g.
AEGIS_RAG_TOP_K_DOCUMENTS).`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long: `Set a configuration value by dotted key.

Examples:
  aegis settings set storage.provider sqlite
  aegis settings set llm.provider anthropic
  aegis settings set rag.top_k_documents 5
  aegis settings set rag.similarity_floor 0.6`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

// shownSettings is the stable display order of settings keys.
var shownSettings = []struct {
	section string
	keys    []string
}{
	{"Storage", []string{"storage.provider", "storage.connection_string"}},
	{"Embedding", []string{"embedding.provider", "embedding.model", "embedding.base_url"}},
	{"LLM", []string{"llm.provider", "llm.model", "llm.base_url"}},
	{"Retrieval", []string{"rag.top_k_documents", "rag.top_k_facts", "rag.similarity_floor", "rag.chunk_size", "rag.chunk_overlap"}},
	{"OSIDB", []string{"osidb.base_url", "osidb.include_embargoed"}},
}

// secretSettings are masked on display.
var secretSettings = map[string]bool{
	"osidb.token":       true,
	"llm.api_key":       true,
	"embedding.api_key": true,
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	for _, section := range shownSettings {
		cmd.Println()
		cmd.Printf("[%s]\n", section.section)
		for _, key := range section.keys {
			value, ok := configStore.Get(key)
			if !ok {
				cmd.Printf("  %s: (not set)\n", key)
				continue
			}
			cmd.Printf("  %s: %v\n", key, value)
		}
	}

	cmd.Println()
	cmd.Println("[Credentials]")
	for _, key := range []string{"osidb.token", "llm.api_key", "embedding.api_key"} {
		if value := configStore.GetString(key); value != "" {
			cmd.Printf("  %s: %s\n", key, maskSecret(value))
		} else {
			cmd.Printf("  %s: (not set)\n", key)
		}
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	key := strings.TrimSpace(args[0])
	if key == "" {
		return errors.New("empty settings key")
	}

	if err := configStore.Set(key, args[1]); err != nil {
		return fmt.Errorf("saving setting: %w", err)
	}

	if secretSettings[key] {
		cmd.Printf("Set %s = %s\n", key, maskSecret(args[1]))
	} else {
		cmd.Printf("Set %s = %s\n", key, args[1])
	}
	return nil
}
