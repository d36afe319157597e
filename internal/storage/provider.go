package storage

import (
	"context"
	"errors"
	"io"
)

var (
	ErrEmptyKey   = errors.New("key cannot be empty")
	ErrBlobAccess = errors.New("blob storage error")
)

// Provider is blob storage addressed by slash-separated keys.
type Provider interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) bool
	Save(ctx context.Context, key string, body io.ReadSeeker) error
	Delete(ctx context.Context, key string) error
	// URL is where a saved blob can be fetched from.
	URL(key string) string
}
