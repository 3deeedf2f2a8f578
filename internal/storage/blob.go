// Package storage persists raw file bytes outside the metadata store.
// Blobs are referenced by their generated storage name; metadata renames
// never touch them.
package storage

import (
	"errors"
	"io"
)

// ErrTooLarge is returned by Save when the reader yields more bytes than
// the configured maximum. The partial blob is removed before returning.
var ErrTooLarge = errors.New("blob exceeds size limit")

// BlobStore stores and serves raw blobs by name.
type BlobStore interface {
	// Save streams r to a blob named name, enforcing maxSize when > 0.
	// On any failure the partial blob is removed; Save never leaves a
	// truncated blob behind.
	Save(name string, r io.Reader, maxSize int64) (int64, error)

	// Open opens a stored blob for reading.
	Open(name string) (io.ReadSeekCloser, error)

	// Remove deletes a blob. Removing an absent blob is not an error.
	Remove(name string) error

	// FilePath returns the absolute on-disk path for a blob, for handing
	// to http.ServeFile.
	FilePath(name string) string
}
