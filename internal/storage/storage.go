package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key does not exist in the blob store.
var ErrNotFound = errors.New("storage: object not found")

// BlobStore is the content storage backend. Keys are opaque to callers and
// namespaced per owning user by whoever builds them.
type BlobStore interface {
	// Put stores content under key, overwriting any previous object.
	Put(ctx context.Context, key string, data []byte) error

	// Get retrieves the content stored under key.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether an object is stored under key.
	Exists(ctx context.Context, key string) (bool, error)

	// URL returns a presigned download URL for the object.
	URL(ctx context.Context, key string, expires time.Duration) (string, error)
}
