// Package storage abstracts where magnet files physically live. The engine
// only ever addresses files by the opaque storage key recorded in
// magnet_files.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when no object exists under the given key.
var ErrNotFound = errors.New("file not found")

type FileStore interface {
	// Open returns a reader over the object's content. The caller closes it.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Put writes an object. Used by the seeder and operator tooling, not by
	// the request path.
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
}
