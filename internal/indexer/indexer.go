// Package indexer walks a directory tree, embeds media files, and writes
// the resulting snapshot.
package indexer

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/mieru/internal/config"
	"github.com/hyperjump/mieru/internal/embedding"
	"github.com/hyperjump/mieru/internal/models"
	"github.com/hyperjump/mieru/internal/store"
)

// Indexer embeds every supported media file under a root directory and
// persists the accumulated records as one snapshot. Per-item failures and
// unreadable subdirectories are skipped with a warning; they never abort
// the run.
type Indexer struct {
	store    store.Store
	provider embedding.Provider
	config   *config.IndexConfig
	logger   *zap.Logger // optional; when set, logs per-file events
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for warnings and debug output.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// NewIndexer creates an indexer with the given dependencies. The provider
// is shared, caller-owned, and not closed by the indexer.
func NewIndexer(s store.Store, provider embedding.Provider, cfg *config.IndexConfig, opts ...IndexerOption) *Indexer {
	idx := &Indexer{
		store:    s,
		provider: provider,
		config:   cfg,
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// Run indexes root. maxItems caps how many discovered files are attempted
// (successes and failures both count); 0 or negative means no cap, and the
// config's MaxItems applies when the argument is 0.
//
// The snapshot is written once, at the end, replacing any prior snapshot in
// full. Re-running over a subdirectory therefore drops records outside it;
// callers wanting cumulative indexing must merge before saving. When no
// media files are discovered the existing snapshot is left untouched.
func (idx *Indexer) Run(ctx context.Context, root string, maxItems int) (*models.IndexStats, error) {
	start := time.Now()
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", absRoot)
	}
	if maxItems == 0 {
		maxItems = idx.config.MaxItems
	}

	stats := &models.IndexStats{
		RunID: uuid.New().String(),
		Root:  absRoot,
	}
	files := idx.discover(absRoot, stats)
	stats.Discovered = len(files)
	if len(files) == 0 {
		stats.EmptyRun = true
		stats.Duration = time.Since(start)
		if idx.logger != nil {
			idx.logger.Info("no media files discovered, snapshot untouched",
				zap.String("run_id", stats.RunID),
				zap.String("root", absRoot))
		}
		return stats, nil
	}

	records := make([]models.Record, 0, len(files))
	for _, path := range files {
		if maxItems > 0 && stats.Attempted >= maxItems {
			if idx.logger != nil {
				idx.logger.Info("item cap reached, ending run early",
					zap.String("run_id", stats.RunID),
					zap.Int("max_items", maxItems))
			}
			break
		}
		stats.Attempted++
		vec, err := idx.provider.EmbedImage(ctx, path)
		if err != nil {
			stats.Failed++
			if idx.logger != nil {
				idx.logger.Warn("embedding failed, skipping file",
					zap.String("run_id", stats.RunID),
					zap.String("path", path),
					zap.Error(err))
			}
			continue
		}
		records = append(records, models.Record{Path: path, Vector: vec})
		stats.Indexed++
		if idx.logger != nil {
			idx.logger.Debug("file indexed",
				zap.String("run_id", stats.RunID),
				zap.String("path", path))
		}
	}

	if err := idx.store.Save(ctx, records); err != nil {
		return stats, fmt.Errorf("save snapshot: %w", err)
	}
	stats.Duration = time.Since(start)
	if idx.logger != nil {
		idx.logger.Info("indexing run complete",
			zap.String("run_id", stats.RunID),
			zap.Int("discovered", stats.Discovered),
			zap.Int("attempted", stats.Attempted),
			zap.Int("indexed", stats.Indexed),
			zap.Int("failed", stats.Failed),
			zap.Duration("duration", stats.Duration))
	}
	return stats, nil
}

// discover enumerates supported media files under root in walk order.
// An unreadable subdirectory is skipped with a warning; its siblings
// continue.
func (idx *Indexer) discover(root string, stats *models.IndexStats) []string {
	var files []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if idx.logger != nil {
				idx.logger.Warn("directory entry unreadable, skipping",
					zap.String("run_id", stats.RunID),
					zap.String("path", path),
					zap.Error(walkErr))
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !extensionAllowed(filepath.Ext(path), idx.config.Extensions) {
			return nil
		}
		// Resolve symlinks so only regular files are indexed.
		finfo, statErr := os.Stat(path)
		if statErr != nil || !finfo.Mode().IsRegular() {
			return nil
		}
		files = append(files, path)
		return nil
	})
	return files
}

func extensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	if extNorm == "" {
		return false
	}
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}
