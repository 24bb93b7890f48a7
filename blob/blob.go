package blob

import (
	"context"
	"io"
)

// Store is the object-storage collaborator. References returned by Put are
// opaque paths; callers persist them, never the bytes.
type Store interface {
	Put(ctx context.Context, key, contentType string, r io.Reader) (string, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	DeletePrefix(ctx context.Context, prefix string) error
}
