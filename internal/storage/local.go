package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

type LocalStore struct {
	basePath  string
	publicURL string
}

// NewLocalStorage stores blobs under basePath. publicURL prefixes the keys
// returned by URL, e.g. "/uploads".
func NewLocalStorage(basePath, publicURL string) *LocalStore {
	return &LocalStore{basePath: basePath, publicURL: publicURL}
}

func (l *LocalStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	return os.OpenInRoot(l.basePath, filepath.FromSlash(key))
}

// Exists takes a key and returns true if the file exists and can be opened
func (l *LocalStore) Exists(_ context.Context, key string) bool {
	if key == "" {
		return false
	}

	f, err := os.OpenInRoot(l.basePath, filepath.Clean(filepath.FromSlash(key)))
	if err != nil {
		return false
	}

	defer f.Close() // overkill to consider errors if only checking existence
	return true
}

func (l *LocalStore) Save(ctx context.Context, key string, body io.ReadSeeker) error {
	if key == "" {
		return ErrEmptyKey
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(l.basePath, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrBlobAccess, err)
	}
	root, err := os.OpenRoot(l.basePath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBlobAccess, err)
	}
	defer root.Close()

	name := filepath.FromSlash(key)
	if dir := filepath.Dir(name); dir != "." {
		if err := root.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrBlobAccess, key, err)
		}
	}

	// write to a temp name and rename so readers never see partial files
	tmp := name + ".part"
	f, err := root.Create(tmp)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBlobAccess, key, err)
	}

	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		root.Remove(tmp)
		return fmt.Errorf("%w: %s: %v", ErrBlobAccess, key, err)
	}
	if err := f.Close(); err != nil {
		root.Remove(tmp)
		return fmt.Errorf("%w: %s: %v", ErrBlobAccess, key, err)
	}

	return root.Rename(tmp, name)
}

func (l *LocalStore) Delete(_ context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	root, err := os.OpenRoot(l.basePath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBlobAccess, err)
	}
	defer root.Close()

	if err := root.Remove(filepath.FromSlash(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: %s: %v", ErrBlobAccess, key, err)
	}
	return nil
}

func (l *LocalStore) URL(key string) string {
	key = strings.TrimPrefix(path.Clean("/"+key), "/")
	if l.publicURL == "" {
		return "/" + key
	}
	u, err := url.JoinPath(l.publicURL, key)
	if err != nil {
		return strings.TrimSuffix(l.publicURL, "/") + "/" + key
	}
	return u
}
