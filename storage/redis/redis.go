// Package redis provides a Redis-based implementation of the storage.Store
// interface. Each store maps to a single Redis hash whose key is derived from
// the store path, so rooms attached at the same path from different
// processes share one hash.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ggoodman/roomsync-go/storage"
	"github.com/joeshaw/envdecode"
	"github.com/redis/go-redis/v9"
)

// Config contains configuration options for the Redis storage
type Config struct {
	// Client is the Redis client instance. When nil, one is created for Addr.
	Client *redis.Client

	// Addr like "localhost:6379". ENV: REDIS_ADDR
	Addr string `env:"REDIS_ADDR,default=localhost:6379"`

	// KeyPrefix is the prefix for all Redis keys. ENV: ROOMSYNC_REDIS_PREFIX
	// Default: "roomsync:store:"
	KeyPrefix string `env:"ROOMSYNC_REDIS_PREFIX,default=roomsync:store:"`
}

// Backend owns the Redis client and hands out one Store per path.
type Backend struct {
	client    *redis.Client
	keyPrefix string
}

// Store implements storage.Store on one Redis hash.
type Store struct {
	client *redis.Client
	key    string
	closed atomic.Bool
}

// storedItem represents the structure stored in each hash field
type storedItem struct {
	Data      []byte    `json:"data"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New creates a new Redis backend and verifies connectivity.
func New(ctx context.Context, config Config) (*Backend, error) {
	client := config.Client
	if client == nil {
		addr := config.Addr
		if addr == "" {
			addr = "localhost:6379"
		}
		client = redis.NewClient(&redis.Options{Addr: addr})
	}
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	// Apply defaults
	if config.KeyPrefix == "" {
		config.KeyPrefix = "roomsync:store:"
	}

	return &Backend{
		client:    client,
		keyPrefix: config.KeyPrefix,
	}, nil
}

// NewFromEnv builds a Backend using envdecode to populate Config.
func NewFromEnv(ctx context.Context) (*Backend, error) {
	var cfg Config
	// Defaults are provided via struct tags; a missing variable is not an error.
	_ = envdecode.Decode(&cfg)
	return New(ctx, cfg)
}

// Open returns the store for path. It does not touch Redis.
func (b *Backend) Open(path string) *Store {
	return &Store{client: b.client, key: b.keyPrefix + path}
}

// Opener adapts Open to storage.Opener.
func (b *Backend) Opener() storage.Opener {
	return func(ctx context.Context, path string) (storage.Store, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return b.Open(path), nil
	}
}

// Close closes the Redis client. Stores handed out by Open stop working.
func (b *Backend) Close() error { return b.client.Close() }

// Get retrieves the value stored under key
func (s *Store) Get(ctx context.Context, key string) (*storage.Item, error) {
	if s.closed.Load() {
		return nil, storage.ErrClosed
	}

	raw, err := s.client.HGet(ctx, s.key, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Key doesn't exist
		}
		return nil, fmt.Errorf("failed to get field %s of %s: %w", key, s.key, err)
	}

	// Unmarshal the stored item
	var item storedItem
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stored data: %w", err)
	}

	return &storage.Item{Data: item.Data, UpdatedAt: item.UpdatedAt}, nil
}

// Update writes every entry with a single HSET, which Redis applies atomically.
func (s *Store) Update(ctx context.Context, entries map[string][]byte) error {
	if s.closed.Load() {
		return storage.ErrClosed
	}
	if len(entries) == 0 {
		return nil
	}

	now := time.Now()
	values := make(map[string]interface{}, len(entries))
	for key, data := range entries {
		itemData, err := json.Marshal(storedItem{Data: data, UpdatedAt: now})
		if err != nil {
			return fmt.Errorf("failed to marshal storage item: %w", err)
		}
		values[key] = itemData
	}

	if err := s.client.HSet(ctx, s.key, values).Err(); err != nil {
		return fmt.Errorf("failed to update %s: %w", s.key, err)
	}
	return nil
}

// Delete removes key
func (s *Store) Delete(ctx context.Context, key string) error {
	if s.closed.Load() {
		return storage.ErrClosed
	}
	if err := s.client.HDel(ctx, s.key, key).Err(); err != nil {
		return fmt.Errorf("failed to delete field %s of %s: %w", key, s.key, err)
	}
	return nil
}

// All returns every stored entry
func (s *Store) All(ctx context.Context) (map[string][]byte, error) {
	if s.closed.Load() {
		return nil, storage.ErrClosed
	}

	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.key, err)
	}

	out := make(map[string][]byte, len(fields))
	for key, raw := range fields {
		var item storedItem
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			return nil, fmt.Errorf("failed to unmarshal field %s: %w", key, err)
		}
		out[key] = item.Data
	}
	return out, nil
}

// Close detaches the store. The shared client stays open; close it through
// the Backend.
func (s *Store) Close() error {
	s.closed.Store(true)
	return nil
}

// Compile-time interface check
var _ storage.Store = (*Store)(nil)
