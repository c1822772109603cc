package core

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	ErrFileNotFound     = errors.New("file not found")
	ErrInvalidPath      = errors.New("invalid storage path")
	ErrInvalidSignature = errors.New("invalid or expired signature")
)

type (
	// StoredFile describes an object held by a FileStore.
	StoredFile struct {
		Path    string    `json:"path"`
		Size    int64     `json:"size"`
		ModTime time.Time `json:"mod_time"`
	}

	// FileStore is the object storage collaborator: uploads, removals, listings and
	// time limited signed URLs.
	FileStore interface {
		Upload(ctx context.Context, path string, r io.Reader, contentType string) (StoredFile, error)
		Remove(ctx context.Context, paths ...string) error
		List(ctx context.Context, prefix string) ([]StoredFile, error)
		Open(ctx context.Context, path string) (io.ReadSeekCloser, StoredFile, error)
		SignURL(path string, ttl time.Duration) (string, error)
		Verify(path string, expires int64, signature string) error
	}
)
