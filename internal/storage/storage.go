// Package storage defines the local key/value persistence boundary.
//
// A Backend is a flat, string-keyed record store. Several applications or
// subsystems may share one Backend; each is expected to keep its records under
// its own key prefix. Implementations live in subpackages (bbolt, sqlite,
// memory).
package storage

import (
	"context"
	"errors"
)

// ErrNotFound indicates a requested key is missing.
var ErrNotFound = errors.New("record not found")

type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Keys returns the keys starting with prefix in ascending order.
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}
