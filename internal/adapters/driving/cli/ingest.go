package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aegislabs/aegis-cli/internal/core/services"
)

var (
	ingestWatch bool
	ingestMeta  []string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Add documents to the knowledge base",
	Long: `Chunks, embeds and stores documents in the knowledge base.

Reads from the given files, or from stdin when no files are provided.
Duplicate chunks are detected by content hash and skipped.

With --watch, the single argument is a directory: existing and newly
created .txt/.md files are ingested as they appear, until interrupted.

Examples:
  aegis ingest advisory.txt
  cat advisory.txt | aegis ingest
  aegis ingest --meta source=osidb --meta product=rhel advisory.txt
  aegis ingest --watch ./advisories`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "watch a directory and ingest files as they appear")
	ingestCmd.Flags().StringArrayVar(&ingestMeta, "meta", nil, "metadata to attach to every chunk (key=value, repeatable)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if knowledgeService == nil {
		return errors.New("knowledge service not configured")
	}

	metadata, err := parseMetadata(ingestMeta)
	if err != nil {
		return err
	}

	if ingestWatch {
		if len(args) != 1 {
			return errors.New("--watch takes exactly one directory argument")
		}
		watcher := services.NewWatchService(knowledgeService, services.DefaultDebounce)
		cmd.Printf("Watching %s. Press Ctrl+C to stop.\n", args[0])
		return watcher.Watch(cmd.Context(), args[0])
	}

	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		return ingestOne(cmd, string(data), metadata)
	}

	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		meta := map[string]any{"source_path": path}
		for k, v := range metadata {
			meta[k] = v
		}
		cmd.Printf("%s:\n", filepath.Base(path))
		if err := ingestOne(cmd, string(data), meta); err != nil {
			return err
		}
	}
	return nil
}

func ingestOne(cmd *cobra.Command, text string, metadata map[string]any) error {
	start := time.Now()
	report, err := knowledgeService.AddDocument(cmd.Context(), text, metadata)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	cmd.Printf("  %d chunks: %d stored, %d duplicates skipped, %d failed (%s)\n",
		report.ChunkCount, len(report.InsertedIDs), report.Skipped, report.Failed,
		time.Since(start).Round(time.Millisecond))
	return nil
}

// parseMetadata parses repeated key=value flags into a metadata map.
func parseMetadata(pairs []string) (map[string]any, error) {
	metadata := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			return nil, fmt.Errorf("invalid metadata %q, expected key=value", pair)
		}
		metadata[key] = value
	}
	return metadata, nil
}
