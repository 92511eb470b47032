// Package storage defines the key/value container that holds a room's shared
// state. A room starts on the in-memory implementation and may later be
// re-pointed at a durable one (sqlite on disk, or redis) through an Opener.
package storage

import (
	"context"
	"errors"
	"time"
)

// Store is a flat key/value container of encoded values. Implementations must
// be safe for concurrent use; the room relies on the store for its own
// internal consistency and only serializes the decision of which store to use.
type Store interface {
	// Get retrieves the value stored under key.
	// Returns nil Item if the key doesn't exist.
	// Returns error only for legitimate storage system failures.
	Get(ctx context.Context, key string) (*Item, error)

	// Update writes every entry of the batch. Either all entries are applied
	// or none are.
	Update(ctx context.Context, entries map[string][]byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// All returns a snapshot of every stored entry.
	All(ctx context.Context) (map[string][]byte, error)

	// Close closes the storage backend and releases resources
	Close() error
}

// Item represents a stored value with metadata
type Item struct {
	Data      []byte    // The stored, encoded value
	UpdatedAt time.Time // When the value was last written
}

// Opener opens or creates a durable Store rooted at path. Calling an Opener
// twice with the same path must yield stores that observe the same data.
type Opener func(ctx context.Context, path string) (Store, error)

// Error types
var (
	// ErrClosed is returned by operations on a store after Close.
	ErrClosed = errors.New("storage: store is closed")
)
