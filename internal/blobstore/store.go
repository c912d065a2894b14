// Package blobstore is the large-asset store: an asynchronous key-object
// store for payloads too big for the small-value store, such as an uploaded
// homepage video encoded as a data URL.
package blobstore

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("object not found")

// Store holds large values by key. Open is idempotent and creates the backing
// structure when absent; every other call expects a successful Open.
type Store interface {
	Open(ctx context.Context) error
	Put(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
