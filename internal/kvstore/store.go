// Package kvstore provides the key-value persistence backends for the
// attendance services. Values are opaque documents keyed by string; there
// are no transactions and no atomicity across keys.
package kvstore

import (
	"context"

	"pointage/internal/errs"
)

// Store is the abstraction over different backends.
type Store interface {
	// Get returns the value stored under key, or errs.ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set writes value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = errs.ErrNotFound
