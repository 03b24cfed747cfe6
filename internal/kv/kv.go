// Package kv provides the string key-value substrate the stores persist into,
// with an in-memory implementation and a SQLite-backed one.
package kv

import "context"

// Store is an asynchronous string-keyed store with no cross-key transactions
// and no ordering guarantees between keys.
type Store interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	Set(ctx context.Context, key, value string) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error

	// MultiGet returns the values of the keys that exist. Absent keys are omitted.
	MultiGet(ctx context.Context, keys []string) (map[string]string, error)

	MultiSet(ctx context.Context, pairs map[string]string) error

	MultiRemove(ctx context.Context, keys []string) error

	// AllKeys lists every key, sorted ascending.
	AllKeys(ctx context.Context) ([]string, error)

	// Clear removes every key.
	Clear(ctx context.Context) error

	Close() error
}
