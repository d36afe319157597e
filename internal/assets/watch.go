package assets

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"studiosite/internal/storage"
)

const debounceDelay = 300 * time.Millisecond

// Watcher uploads images as they appear or change under a source directory
// and drops the cached variants of changed images.
type Watcher struct {
	dir     string
	store   storage.Provider
	cache   storage.Provider
	manager *Manager
	logger  *slog.Logger
	watcher *fsnotify.Watcher
	pending map[string]struct{}
}

func NewWatcher(dir string, store, cache storage.Provider, m *Manager, logger *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	w := &Watcher{
		dir:     dir,
		store:   store,
		cache:   cache,
		manager: m,
		logger:  logger,
		watcher: fw,
		pending: make(map[string]struct{}),
	}
	if err := w.addTree(dir); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.watcher.Add(p)
		}
		return nil
	})
}

// Run handles events until ctx is canceled, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) {
	defer w.watcher.Close()

	debounce := time.NewTimer(debounceDelay)
	debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.handle(ev) {
				debounce.Reset(debounceDelay)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("asset watcher error", "err", err)
		case <-debounce.C:
			w.flush(ctx)
		}
	}
}

// handle records an event and reports whether a flush is needed.
func (w *Watcher) handle(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return false
	}
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addTree(ev.Name); err != nil {
				w.logger.Warn("failed to watch new directory", "dir", ev.Name, "err", err)
			}
			return false
		}
	}
	if !isImage(ev.Name) {
		return false
	}
	rel, err := filepath.Rel(w.dir, ev.Name)
	if err != nil {
		return false
	}
	w.pending[filepath.ToSlash(rel)] = struct{}{}
	return true
}

func (w *Watcher) flush(ctx context.Context) {
	if len(w.pending) == 0 {
		return
	}
	root, err := os.OpenRoot(w.dir)
	if err != nil {
		w.logger.Error("asset watcher cannot open source dir", "dir", w.dir, "err", err)
		return
	}
	defer root.Close()

	for rel := range w.pending {
		delete(w.pending, rel)
		if err := w.replace(ctx, root, rel); err != nil {
			w.logger.Error("failed to upload changed asset", "path", rel, "err", err)
			continue
		}
		w.logger.Info("uploaded changed asset", "key", path.Join(SourcePrefix, rel))
	}
}

func (w *Watcher) replace(ctx context.Context, root *os.Root, rel string) error {
	id, err := w.manager.Obfuscate(rel)
	if err != nil {
		return err
	}

	f, err := root.Open(rel)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := w.store.Save(ctx, path.Join(SourcePrefix, rel), f); err != nil {
		return err
	}
	for _, width := range Widths {
		key := VariantKey(id.String(), width)
		if w.cache.Exists(ctx, key) {
			if err := w.cache.Delete(ctx, key); err != nil {
				w.logger.Warn("stale variant not removed", "key", key, "err", err)
			}
		}
	}
	return nil
}
