package storage

import (
	"context"
	"errors"
	"io"
)

var ErrNotFound = errors.New("file not found")

type FileStorage interface {
	// Upload writes a file, replacing any previous content, and returns its path
	Upload(ctx context.Context, file io.Reader, path string) (string, error)

	// Download opens a file for reading. Missing files return ErrNotFound
	Download(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes a file
	Delete(ctx context.Context, path string) error

	// Exists checks if file exists
	Exists(ctx context.Context, path string) (bool, error)
}
