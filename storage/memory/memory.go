// Package memory provides an in-memory implementation of the storage.Store
// interface. It is the store every room starts with.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ggoodman/roomsync-go/storage"
)

// Store implements storage.Store using a map guarded by a RWMutex.
type Store struct {
	mu     sync.RWMutex
	items  map[string]*storage.Item
	closed bool
}

// New creates a new, empty in-memory store.
func New() *Store {
	return &Store{
		items: make(map[string]*storage.Item),
	}
}

// Get retrieves the value stored under key
func (s *Store) Get(ctx context.Context, key string) (*storage.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, storage.ErrClosed
	}

	item, exists := s.items[key]
	if !exists {
		return nil, nil
	}

	return &storage.Item{
		Data:      append([]byte(nil), item.Data...),
		UpdatedAt: item.UpdatedAt,
	}, nil
}

// Update writes every entry of the batch under a single lock acquisition
func (s *Store) Update(ctx context.Context, entries map[string][]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrClosed
	}

	for key, data := range entries {
		s.items[key] = &storage.Item{
			Data:      append([]byte(nil), data...),
			UpdatedAt: now,
		}
	}

	return nil
}

// Delete removes key
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrClosed
	}

	delete(s.items, key)
	return nil
}

// All returns a copy of every stored entry
func (s *Store) All(ctx context.Context) (map[string][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, storage.ErrClosed
	}

	out := make(map[string][]byte, len(s.items))
	for key, item := range s.items {
		out[key] = append([]byte(nil), item.Data...)
	}
	return out, nil
}

// Close discards the contents. Further calls fail with storage.ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.items = nil
	s.mu.Unlock()
	return nil
}

// Opener returns a storage.Opener that hands out one shared in-memory store
// per path. It lets tests exercise durable-attach semantics without a disk.
func Opener() storage.Opener {
	var mu sync.Mutex
	stores := make(map[string]*Store)
	return func(ctx context.Context, path string) (storage.Store, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		mu.Lock()
		defer mu.Unlock()
		s, ok := stores[path]
		if !ok || s.isClosed() {
			s = New()
			stores[path] = s
		}
		return s, nil
	}
}

func (s *Store) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// Compile-time interface check
var _ storage.Store = (*Store)(nil)
