package trigger

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/file-ingestor/internal/common"
	"github.com/joseph-ayodele/file-ingestor/internal/entity"
)

// FileResult is the outcome of one file in a directory run.
type FileResult struct {
	Ref  entity.FileReference
	Kind common.ErrorKind
	Err  string
}

type DirStats struct {
	Scanned   uint32
	Matched   uint32
	Succeeded uint32
	Failed    uint32
}

type ScanOptions struct {
	Extensions []string
	SkipHidden bool
}

// ScanDirectory walks root and returns a reference for every matching file,
// in lexical order. The container of each reference is root.
func ScanDirectory(root string, opts ScanOptions) ([]entity.FileReference, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}
	exts := extSet(opts.Extensions)

	var (
		refs  []entity.FileReference
		stats DirStats
	)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if path != root && opts.SkipHidden && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		stats.Scanned++
		if !allowed(path, exts) {
			return nil
		}
		key, ok := refFor(root, path)
		if !ok {
			return nil
		}
		stats.Matched++
		refs = append(refs, entity.FileReference{Container: root, Key: key})
		return nil
	})
	if err != nil {
		return refs, stats, fmt.Errorf("walk: %w", err)
	}
	return refs, stats, nil
}

// ProcessDirectory scans root and hands every match to handler, at most
// parallel at a time. A failing file never stops the others.
func ProcessDirectory(ctx context.Context, handler FileHandler, root string, opts ScanOptions, parallel int, logger *slog.Logger) ([]FileResult, DirStats, error) {
	refs, stats, err := ScanDirectory(root, opts)
	if err != nil {
		return nil, stats, err
	}
	if parallel <= 0 {
		parallel = 1
	}

	results := make([]FileResult, len(refs))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i, ref := range refs {
		g.Go(func() error {
			res := FileResult{Ref: ref}
			if err := handler.Process(gctx, ref); err != nil {
				res.Kind, res.Err = common.KindOf(err), err.Error()
				logger.Warn("file failed", "file_name", ref.FileName(), "error", err)
			}
			mu.Lock()
			if res.Err == "" {
				stats.Succeeded++
			} else {
				stats.Failed++
			}
			mu.Unlock()
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()
	return results, stats, ctx.Err()
}
