// Package cwe provides a weakness catalog backed by the MITRE CWE CSV
// downloads. Definitions are fetched once, cached as JSON under the config
// directory and served from memory afterwards.
package cwe

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aegislabs/aegis-cli/internal/core/domain"
	"github.com/aegislabs/aegis-cli/internal/core/ports/driven"
	"github.com/aegislabs/aegis-cli/internal/logger"
)

// Ensure Catalog implements the interface.
var _ driven.CWECatalog = (*Catalog)(nil)

// DefaultSourceURLs are the MITRE CSV views: research concepts,
// software development and architectural concepts.
var DefaultSourceURLs = []string{
	"https://cwe.mitre.org/data/csv/1000.csv.zip",
	"https://cwe.mitre.org/data/csv/699.csv.zip",
	"https://cwe.mitre.org/data/csv/1008.csv.zip",
}

const (
	cacheFileName  = "cwe_definitions.json"
	defaultTimeout = 60 * time.Second

	// The MITRE CSV layout: ID, Name, weakness abstraction, status,
	// description, extended description, related weaknesses, ...
	colID          = 0
	colName        = 1
	colDescription = 4
	colExtended    = 5
	colRelated     = 6
	minColumns     = 7
)

// Config holds configuration for the CWE catalog.
type Config struct {
	// CacheDir is where the parsed definitions are cached.
	// Defaults to ~/.aegis.
	CacheDir string

	// SourceURLs overrides the MITRE download URLs.
	SourceURLs []string

	// Timeout is the download timeout (default: 60s).
	Timeout time.Duration
}

// Catalog resolves CWE identifiers to their MITRE definitions.
type Catalog struct {
	mu         sync.Mutex
	client     *http.Client
	cachePath  string
	sourceURLs []string
	defs       map[string]domain.CWEEntry
}

// NewCatalog creates a CWE catalog. Definitions load lazily on first use.
func NewCatalog(cfg Config) (*Catalog, error) {
	cacheDir := cfg.CacheDir
	if cacheDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		cacheDir = filepath.Join(home, ".aegis")
	}
	if err := os.MkdirAll(cacheDir, 0700); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	urls := cfg.SourceURLs
	if len(urls) == 0 {
		urls = DefaultSourceURLs
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &Catalog{
		client:     &http.Client{Timeout: timeout},
		cachePath:  filepath.Join(cacheDir, cacheFileName),
		sourceURLs: urls,
	}, nil
}

// Lookup returns the definition for a CWE identifier such as "CWE-79".
func (c *Catalog) Lookup(ctx context.Context, cweID string) (*domain.CWEEntry, error) {
	if err := domain.ValidateCWEID(cweID); err != nil {
		return nil, err
	}

	if err := c.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	c.mu.Lock()
	entry, ok := c.defs[cweID]
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, cweID)
	}
	return &entry, nil
}

// ensureLoaded populates the in-memory definitions from the cache file,
// downloading from MITRE on a cold start.
func (c *Catalog) ensureLoaded(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.defs != nil {
		return nil
	}

	if data, err := os.ReadFile(c.cachePath); err == nil {
		var defs map[string]domain.CWEEntry
		if err := json.Unmarshal(data, &defs); err == nil {
			logger.Debug("loaded %d CWE definitions from cache %s", len(defs), c.cachePath)
			c.defs = defs
			return nil
		}
		logger.Warn("CWE cache %s is corrupt, refetching", c.cachePath)
	}

	defs, err := c.download(ctx)
	if err != nil {
		return err
	}

	if data, err := json.MarshalIndent(defs, "", "  "); err == nil {
		if err := os.WriteFile(c.cachePath, data, 0600); err != nil {
			logger.Warn("writing CWE cache: %v", err)
		}
	}

	c.defs = defs
	return nil
}

// download fetches and parses every configured CSV view. Later views do
// not overwrite entries from earlier ones.
func (c *Catalog) download(ctx context.Context) (map[string]domain.CWEEntry, error) {
	defs := make(map[string]domain.CWEEntry)
	for _, sourceURL := range c.sourceURLs {
		logger.Debug("fetching CWE definitions from %s", sourceURL)
		if err := c.fetchInto(ctx, sourceURL, defs); err != nil {
			return nil, fmt.Errorf("fetching %s: %w", sourceURL, err)
		}
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("no CWE definitions parsed")
	}
	return defs, nil
}

func (c *Catalog) fetchInto(ctx context.Context, sourceURL string, defs map[string]domain.CWEEntry) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	return parseZip(body, defs)
}

// parseZip reads every CSV inside a MITRE zip archive into defs.
func parseZip(data []byte, defs map[string]domain.CWEEntry) error {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}

	for _, file := range archive.File {
		rc, err := file.Open()
		if err != nil {
			return fmt.Errorf("open %s: %w", file.Name, err)
		}
		err = parseCSV(rc, defs)
		rc.Close()
		if err != nil {
			return fmt.Errorf("parse %s: %w", file.Name, err)
		}
	}
	return nil
}

func parseCSV(r io.Reader, defs map[string]domain.CWEEntry) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	// Skip header
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if len(record) < minColumns || record[colID] == "" {
			continue
		}

		id := "CWE-" + strings.TrimSpace(record[colID])
		if _, exists := defs[id]; exists {
			continue
		}
		defs[id] = domain.CWEEntry{
			ID:                  id,
			Name:                record[colName],
			Description:         record[colDescription],
			ExtendedDescription: record[colExtended],
			RelatedWeaknesses:   record[colRelated],
		}
	}
}
