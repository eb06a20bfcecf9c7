// Package storage keeps uploaded and exported documents in an object store.
package storage

import (
	"context"
	"time"
)

// ObjectStore is the minimal blob API the service needs.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	// URL returns a time-limited download link, or "" when the backend cannot
	// serve objects directly.
	URL(ctx context.Context, key string, ttl time.Duration) (string, error)
}
