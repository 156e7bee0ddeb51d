// Package storage defines the durable key/value store the local product
// backend persists its collection into.
package storage

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Get when the key holds no value.
var ErrKeyNotFound = errors.New("storage: key not found")

// Store is a minimal durable key/value store. Values are opaque blobs.
type Store interface {
	// Get returns the value stored under key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set replaces the value stored under key.
	Set(ctx context.Context, key string, value []byte) error

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error
}
