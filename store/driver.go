package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that a store database driver should implement.
//
// The store keeps every artifact as a JSON payload under a composed string
// key, so drivers only need a key-value contract.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	// GetValue returns the payload stored under key. The second return value
	// reports whether the key exists.
	GetValue(ctx context.Context, key string) ([]byte, bool, error)
	// SetValue stores the payload under key, replacing any existing value.
	SetValue(ctx context.Context, key string, value []byte) error
	// DeleteValue removes the payload stored under key. Deleting a missing
	// key is not an error.
	DeleteValue(ctx context.Context, key string) error
	// ListKeys returns all keys with the given prefix.
	ListKeys(ctx context.Context, prefix string) ([]string, error)
}
