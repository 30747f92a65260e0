// Package uploads validates, names and stores the document scans attached to
// personnel records, and reads them back for serving.
package uploads

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"
)

var (
	// ErrRejected is returned for files whose extension is not allowed.
	ErrRejected = errors.New("file type not allowed")
	// ErrInvalidPath is returned for paths that are empty, absolute or try to
	// leave the upload root.
	ErrInvalidPath = errors.New("invalid upload path")
	// ErrNotFound is returned when no file exists at a valid path.
	ErrNotFound = errors.New("upload not found")
)

// Object is an opened stored file.
type Object struct {
	io.ReadSeekCloser
	Size        int64
	ModTime     time.Time
	ContentType string
}

// Blob stores files under slash-separated keys relative to the upload root.
type Blob interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (*Object, error)
	Remove(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// cleanKey validates a relative key and returns it in canonical form.
func cleanKey(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, "\\\x00") || path.IsAbs(key) {
		return "", ErrInvalidPath
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return "", ErrInvalidPath
		}
	}
	clean := path.Clean(key)
	if clean == "." || clean == "" {
		return "", ErrInvalidPath
	}
	return clean, nil
}
