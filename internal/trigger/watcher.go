package trigger

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/joseph-ayodele/file-ingestor/internal/entity"
)

type WatchConfig struct {
	Roots       []string // directories to watch (recursive)
	Extensions  []string // empty means every supported type
	InitialScan bool     // if true, walk roots and emit existing files
	Debounce    time.Duration
}

// Watcher emits a reference for every created, written or renamed file
// under its roots. Bursts on the same path are coalesced by Debounce.
type Watcher struct {
	cfg    WatchConfig
	roots  []string
	exts   map[string]struct{}
	logger *slog.Logger
}

func NewWatcher(cfg WatchConfig, logger *slog.Logger) (*Watcher, error) {
	if len(cfg.Roots) == 0 {
		return nil, errors.New("no roots provided")
	}
	roots := make([]string, 0, len(cfg.Roots))
	for _, r := range cfg.Roots {
		roots = append(roots, filepath.Clean(r))
	}
	// Longest first so nested roots own their files.
	sort.Slice(roots, func(i, j int) bool { return len(roots[i]) > len(roots[j]) })
	return &Watcher{cfg: cfg, roots: roots, exts: extSet(cfg.Extensions), logger: logger}, nil
}

// Watch starts watching and returns the event and error streams. Both are
// closed when ctx is done.
func (w *Watcher) Watch(ctx context.Context) (<-chan entity.FileReference, <-chan error, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Error("failed to create fsnotify watcher", "error", err)
		return nil, nil, err
	}

	var initial []entity.FileReference
	for _, root := range w.roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				return fw.Add(path)
			}
			if w.cfg.InitialScan {
				if ref, ok := w.ref(path); ok {
					initial = append(initial, ref)
				}
			}
			return nil
		})
		if err != nil {
			w.logger.Error("failed to add root directory", "root", root, "error", err)
			_ = fw.Close()
			return nil, nil, err
		}
	}

	evCh := make(chan entity.FileReference, 256)
	errCh := make(chan error, 1)
	go w.loop(ctx, fw, initial, evCh, errCh)
	w.logger.Info("watching directories", "roots", w.roots, "debounce", w.cfg.Debounce.String())
	return evCh, errCh, nil
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher, initial []entity.FileReference, evCh chan<- entity.FileReference, errCh chan<- error) {
	defer close(evCh)
	defer close(errCh)
	defer func() {
		if err := fw.Close(); err != nil {
			w.logger.Warn("failed to close watcher", "error", err)
		}
	}()

	emit := func(ref entity.FileReference) bool {
		select {
		case evCh <- ref:
			return true
		case <-ctx.Done():
			return false
		}
	}
	for _, ref := range initial {
		if !emit(ref) {
			return
		}
	}

	pending := map[string]struct{}{}
	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	flush := func() bool {
		paths := make([]string, 0, len(pending))
		for p := range pending {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		clear(pending)
		for _, p := range paths {
			if ref, ok := w.ref(p); ok && !emit(ref) {
				return false
			}
		}
		return true
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case e, ok := <-fw.Events:
			if !ok {
				return
			}
			if e.Has(fsnotify.Create) {
				if info, err := os.Stat(e.Name); err == nil && info.IsDir() {
					if err := fw.Add(e.Name); err != nil {
						w.logger.Warn("failed to add new directory to watcher", "path", e.Name, "error", err)
					}
					continue
				}
			}
			if !e.Has(fsnotify.Create) && !e.Has(fsnotify.Write) && !e.Has(fsnotify.Rename) {
				continue
			}
			if !allowed(e.Name, w.exts) {
				continue
			}
			pending[e.Name] = struct{}{}
			if w.cfg.Debounce <= 0 {
				if !flush() {
					return
				}
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.cfg.Debounce)
			} else {
				timer.Reset(w.cfg.Debounce)
			}
			timerC = timer.C
		case <-timerC:
			timerC = nil
			if !flush() {
				return
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)
			select {
			case errCh <- err:
			default:
			}
		}
	}
}

// ref maps a path to a reference under the root that contains it. Hidden
// files and files that vanished before the debounce fired are skipped.
func (w *Watcher) ref(path string) (entity.FileReference, bool) {
	if IsHidden(path) || !allowed(path, w.exts) {
		return entity.FileReference{}, false
	}
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return entity.FileReference{}, false
	}
	for _, root := range w.roots {
		if key, ok := refFor(root, path); ok {
			return entity.FileReference{Container: root, Key: key}, true
		}
	}
	return entity.FileReference{}, false
}
