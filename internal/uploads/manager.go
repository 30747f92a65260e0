package uploads

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"path"
	"strings"
	"time"
)

// NameLayout prefixes stored file names and names subject directories of
// records created without an Army No.
const NameLayout = "20060102150405"

// Manager names and stores uploaded documents. Stored paths have the form
// <Root>/<subject dir>/<timestamp>_<secured name>.
type Manager struct {
	Root  string
	Store Blob
	Now   func() time.Time
}

// NewManager returns a manager writing through store. root is the prefix of
// the paths recorded in the table.
func NewManager(root string, store Blob) *Manager {
	return &Manager{
		Root:  strings.TrimSuffix(path.Clean(strings.ReplaceAll(root, "\\", "/")), "/"),
		Store: store,
		Now:   time.Now,
	}
}

// Accept stores fh under dir and returns the recorded path. A missing file or
// empty filename is not an error and yields "". Disallowed extensions return
// ErrRejected without writing anything.
func (m *Manager) Accept(ctx context.Context, dir string, fh *multipart.FileHeader) (string, error) {
	if fh == nil || fh.Filename == "" {
		return "", nil
	}
	if !AllowedFile(fh.Filename) {
		return "", fmt.Errorf("%w: %s", ErrRejected, fh.Filename)
	}

	name := m.Now().Format(NameLayout) + "_" + SecureFilename(fh.Filename)
	key, err := cleanKey(dir + "/" + name)
	if err != nil {
		return "", err
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(path.Ext(name))
	}

	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	if err := m.Store.Put(ctx, key, f, fh.Size, contentType); err != nil {
		return "", fmt.Errorf("store %s: %w", key, err)
	}
	return m.Root + "/" + key, nil
}

// Rel strips the root prefix from a stored path. ok is false for paths that
// were not produced under this root.
func (m *Manager) Rel(stored string) (rel string, ok bool) {
	stored = strings.ReplaceAll(stored, "\\", "/")
	rel, ok = strings.CutPrefix(stored, m.Root+"/")
	if !ok || rel == "" {
		return "", false
	}
	return rel, true
}

// Open opens the file at rel, a path relative to the root.
func (m *Manager) Open(ctx context.Context, rel string) (*Object, error) {
	key, err := cleanKey(rel)
	if err != nil {
		return nil, err
	}
	return m.Store.Open(ctx, key)
}

// Remove deletes the file recorded as stored. Empty paths are ignored.
func (m *Manager) Remove(ctx context.Context, stored string) error {
	if stored == "" {
		return nil
	}
	rel, ok := m.Rel(stored)
	if !ok {
		return ErrInvalidPath
	}
	key, err := cleanKey(rel)
	if err != nil {
		return err
	}
	if err := m.Store.Remove(ctx, key); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

// Ping checks the underlying store.
func (m *Manager) Ping(ctx context.Context) error {
	return m.Store.Ping(ctx)
}
