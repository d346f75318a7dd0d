package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aegislabs/aegis-cli/internal/core/domain"
)

func TestIngestCmd_Use(t *testing.T) {
	assert.Equal(t, "ingest [file...]", ingestCmd.Use)
}

func TestIngestCmd_FromFile(t *testing.T) {
	knowledge := &mockKnowledgeService{
		report: &domain.IngestReport{
			ChunkCount:  3,
			InsertedIDs: []string{"a", "b", "c"},
		},
	}
	cleanup := setupTestServices(knowledge, nil)
	defer cleanup()

	path := filepath.Join(t.TempDir(), "advisory.txt")
	require.NoError(t, os.WriteFile(path, []byte("a long advisory"), 0o644))

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ingest", path})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Equal(t, "a long advisory", knowledge.lastText)
	assert.Contains(t, buf.String(), "3 chunks: 3 stored")
}

func TestIngestCmd_FromStdin(t *testing.T) {
	knowledge := &mockKnowledgeService{
		report: &domain.IngestReport{ChunkCount: 1, InsertedIDs: []string{"a"}},
	}
	cleanup := setupTestServices(knowledge, nil)
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetIn(strings.NewReader("piped advisory text"))
	rootCmd.SetArgs([]string{"ingest"})
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Equal(t, "piped advisory text", knowledge.lastText)
}

func TestIngestCmd_MissingFile(t *testing.T) {
	cleanup := setupTestServices(&mockKnowledgeService{}, nil)
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ingest", filepath.Join(t.TempDir(), "missing.txt")})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
}

func TestIngestCmd_ServiceNotConfigured(t *testing.T) {
	oldService := knowledgeService
	knowledgeService = nil
	defer func() {
		knowledgeService = oldService
	}()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader("text"))
	rootCmd.SetArgs([]string{"ingest"})
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "knowledge service not configured")
}

func TestParseMetadata(t *testing.T) {
	metadata, err := parseMetadata([]string{"source=osidb", "product=rhel 9"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"source": "osidb", "product": "rhel 9"}, metadata)
}

func TestParseMetadata_Invalid(t *testing.T) {
	_, err := parseMetadata([]string{"no-equals-sign"})
	assert.Error(t, err)

	_, err = parseMetadata([]string{"=value"})
	assert.Error(t, err)
}
