// Package sqlite provides a durable storage.Store backed by a SQLite database
// file. Each store owns one directory; the database lives at
// <dir>/state.db so a room attached at /base/<room> keeps everything it
// persists under that directory.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ggoodman/roomsync-go/storage"
	_ "modernc.org/sqlite"
)

// DatabaseFile is the name of the SQLite file created inside a store directory.
const DatabaseFile = "state.db"

const schema = `
CREATE TABLE IF NOT EXISTS entries (
	key TEXT PRIMARY KEY,
	value BLOB NOT NULL,
	updated_at INTEGER NOT NULL
)`

// Store implements storage.Store on top of a SQLite database.
type Store struct {
	sqlDB  *sql.DB
	dir    string
	closed atomic.Bool
}

// Open opens or creates the store rooted at dir, creating the directory and
// schema when missing.
func Open(ctx context.Context, dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanDir := filepath.Clean(dir)
	if err := os.MkdirAll(cleanDir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	dsn := filepath.Join(cleanDir, DatabaseFile) +
		"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// SQLite serializes writers anyway; one connection avoids SQLITE_BUSY churn.
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.ExecContext(ctx, schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{sqlDB: sqlDB, dir: cleanDir}, nil
}

// Opener adapts Open to storage.Opener.
func Opener() storage.Opener {
	return func(ctx context.Context, path string) (storage.Store, error) {
		return Open(ctx, path)
	}
}

// Dir reports the directory the store is rooted at.
func (s *Store) Dir() string { return s.dir }

// Get retrieves the value stored under key.
func (s *Store) Get(ctx context.Context, key string) (*storage.Item, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	var (
		data      []byte
		updatedAt int64
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT value, updated_at FROM entries WHERE key = ?`, key,
	).Scan(&data, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get key %s: %w", key, err)
	}

	return &storage.Item{
		Data:      data,
		UpdatedAt: time.UnixMilli(updatedAt),
	}, nil
}

// Update upserts every entry of the batch in one transaction.
func (s *Store) Update(ctx context.Context, entries map[string][]byte) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO entries (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
`)
	if err != nil {
		return fmt.Errorf("prepare update: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().UnixMilli()
	for key, data := range entries {
		if _, err := stmt.ExecContext(ctx, key, data, now); err != nil {
			return fmt.Errorf("update key %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update: %w", err)
	}
	return nil
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete key %s: %w", key, err)
	}
	return nil
}

// All returns every stored entry.
func (s *Store) All(ctx context.Context) (map[string][]byte, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(ctx, `SELECT key, value FROM entries`)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]byte)
	for rows.Next() {
		var (
			key  string
			data []byte
		)
		if err := rows.Scan(&key, &data); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out[key] = data
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return out, nil
}

// Close releases the SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if s.closed.Load() {
		return storage.ErrClosed
	}
	return nil
}

// Compile-time interface check
var _ storage.Store = (*Store)(nil)
