package assets

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"slices"
	"strings"

	"studiosite/internal/storage"
)

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif"}

func isImage(name string) bool {
	return slices.Contains(imageExtensions, strings.ToLower(path.Ext(name)))
}

// Sync walks sourceDir, uploads images missing from store and registers every
// image with m. It returns the number of uploads.
func Sync(ctx context.Context, store storage.Provider, m *Manager, sourceDir string, logger *slog.Logger) (int, error) {
	logger.Info("starting asset sync", "dir", sourceDir)

	root, err := os.OpenRoot(sourceDir)
	if err != nil {
		return 0, fmt.Errorf("could not open directory %s: %w", sourceDir, err)
	}
	defer root.Close()

	uploaded := 0
	err = fs.WalkDir(root.FS(), ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !isImage(p) {
			return nil
		}

		if _, err := m.Obfuscate(p); err != nil {
			logger.Warn("skipping asset", "path", p, "err", err)
			return nil
		}

		ok, err := upload(ctx, store, root, p)
		if err != nil {
			logger.Error("failed to upload asset", "path", p, "err", err)
			return nil
		}
		if ok {
			uploaded++
			logger.Info("synced missing asset to store", "key", path.Join(SourcePrefix, p))
		}
		return nil
	})
	if err != nil {
		return uploaded, fmt.Errorf("walking %s: %w", sourceDir, err)
	}

	logger.Info("asset sync finished", "uploaded", uploaded, "known", m.Len())
	return uploaded, nil
}

// upload copies rel from root into the store unless it is already there.
func upload(ctx context.Context, store storage.Provider, root *os.Root, rel string) (bool, error) {
	key := path.Join(SourcePrefix, rel)
	if store.Exists(ctx, key) {
		return false, nil
	}

	f, err := root.Open(rel)
	if err != nil {
		return false, err
	}
	defer f.Close()

	if err := store.Save(ctx, key, f); err != nil {
		return false, err
	}
	return true, nil
}
