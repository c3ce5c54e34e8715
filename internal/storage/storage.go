// Package storage provides the external key-value blob store backing
// the event catalog. Views in separate processes share state only
// through this store.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has never been set.
// Callers use it to distinguish "empty by design" from a read failure.
var ErrNotFound = errors.New("storage: key not found")

// KV is a minimal key-value blob store.
type KV interface {
	// Get returns the value for key, or ErrNotFound when absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set writes value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	Close() error
}
