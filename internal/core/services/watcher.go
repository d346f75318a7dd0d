package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/aegislabs/aegis-cli/internal/core/ports/driving"
	"github.com/aegislabs/aegis-cli/internal/logger"
)

// DefaultDebounce is how long a file must be quiet before ingestion.
// Editors fire bursts of write events while saving.
const DefaultDebounce = 500 * time.Millisecond

// watchExtensions are the plain-text formats the watcher ingests.
var watchExtensions = map[string]bool{
	".txt": true,
	".md":  true,
}

// WatchService monitors a directory and ingests new or changed text files
// into the knowledge base. Duplicate content is handled by the ingestion
// path, so re-ingesting an unchanged file is a no-op.
type WatchService struct {
	knowledge driving.KnowledgeService
	debounce  time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// NewWatchService creates a directory watcher over the knowledge service.
func NewWatchService(knowledge driving.KnowledgeService, debounce time.Duration) *WatchService {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &WatchService{
		knowledge: knowledge,
		debounce:  debounce,
		pending:   make(map[string]*time.Timer),
	}
}

// Watch ingests every eligible file already in dir, then blocks processing
// filesystem events until ctx is cancelled.
func (s *WatchService) Watch(ctx context.Context, dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("stat watch directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	logger.Info("watching %s for documents", dir)

	// Catch up on files present before the watch started.
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("listing %s: %w", dir, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			s.maybeIngest(ctx, filepath.Join(dir, entry.Name()))
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write) {
				s.scheduleIngest(ctx, event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error: %v", err)
		}
	}
}

// scheduleIngest (re)arms the debounce timer for a path.
func (s *WatchService) scheduleIngest(ctx context.Context, path string) {
	if !eligible(path) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, ok := s.pending[path]; ok {
		timer.Stop()
	}
	s.pending[path] = time.AfterFunc(s.debounce, func() {
		s.mu.Lock()
		delete(s.pending, path)
		s.mu.Unlock()
		s.maybeIngest(ctx, path)
	})
}

// maybeIngest reads and ingests a single file if it is eligible.
func (s *WatchService) maybeIngest(ctx context.Context, path string) {
	if !eligible(path) {
		return
	}
	if ctx.Err() != nil {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("reading %s: %v", path, err)
		return
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return
	}

	report, err := s.knowledge.AddDocument(ctx, string(data), map[string]any{
		"source":      "watch",
		"source_path": path,
	})
	if err != nil {
		logger.Warn("ingesting %s: %v", path, err)
		return
	}
	logger.Info("ingested %s: %d chunks (%d new, %d skipped, %d failed)",
		filepath.Base(path), report.ChunkCount, len(report.InsertedIDs), report.Skipped, report.Failed)
}

// eligible reports whether a path is a visible text file the watcher
// should ingest.
func eligible(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return watchExtensions[strings.ToLower(filepath.Ext(base))]
}
