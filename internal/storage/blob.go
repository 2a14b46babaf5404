package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("blob not found")

// BlobStore keeps small binary objects with their content type. The exporter
// uses it as a cache for images it inlines into documents.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, string, error) // ErrNotFound when absent
}
