package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DiskStore is a filesystem-backed blob store. All blobs live flat in a
// single root directory under their generated names.
type DiskStore struct {
	root string
}

// NewDiskStore creates a disk store rooted at the given directory,
// creating it if needed.
func NewDiskStore(root string) (*DiskStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve blob root: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("create blob directory: %w", err)
	}
	return &DiskStore{root: abs}, nil
}

// Save streams r into <root>/<name>. When maxSize > 0 the copy stops one
// byte past the limit and fails with ErrTooLarge. Partial files are removed
// on every error path.
func (s *DiskStore) Save(name string, r io.Reader, maxSize int64) (int64, error) {
	dest, err := s.safePath(name)
	if err != nil {
		return 0, err
	}

	f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return 0, fmt.Errorf("create blob %s: %w", name, err)
	}

	src := r
	if maxSize > 0 {
		// One extra byte so an exactly-at-limit blob is distinguishable
		// from an oversized one.
		src = io.LimitReader(r, maxSize+1)
	}

	written, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}

	if err != nil {
		os.Remove(dest)
		return 0, fmt.Errorf("write blob %s: %w", name, err)
	}

	if maxSize > 0 && written > maxSize {
		os.Remove(dest)
		return 0, ErrTooLarge
	}

	return written, nil
}

// Open opens a stored blob for reading.
func (s *DiskStore) Open(name string) (io.ReadSeekCloser, error) {
	p, err := s.safePath(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("open blob %s: %w", name, err)
	}
	return f, nil
}

// Remove deletes a blob. A blob that is already gone is not an error:
// cascading deletes may race and unlink twice.
func (s *DiskStore) Remove(name string) error {
	p, err := s.safePath(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove blob %s: %w", name, err)
	}
	return nil
}

// FilePath returns the absolute path for a blob name.
func (s *DiskStore) FilePath(name string) string {
	return filepath.Join(s.root, name)
}

// safePath rejects names that would escape the root directory. Storage
// names are generated, never user input, so this only guards programmer
// error.
func (s *DiskStore) safePath(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, "/\\") || name == "." || name == ".." {
		return "", fmt.Errorf("invalid blob name %q", name)
	}
	return filepath.Join(s.root, name), nil
}
