package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ggoodman/roomsync-go/storage"
	"github.com/ggoodman/roomsync-go/storage/storagetest"
)

func TestSQLiteStore(t *testing.T) {
	storagetest.RunStoreTests(t, func(t *testing.T) storage.Store {
		s, err := Open(context.Background(), filepath.Join(t.TempDir(), "room"))
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		return s
	})
}

func TestSQLiteReopen(t *testing.T) {
	storagetest.RunReopenTests(t, Opener(), filepath.Join(t.TempDir(), "rooms", "r2"))
}

func TestOpenCreatesDatabaseFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "room")
	s, err := Open(context.Background(), dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if s.Dir() != dir {
		t.Fatalf("expected dir %s, got %s", dir, s.Dir())
	}
	if _, err := os.Stat(filepath.Join(dir, DatabaseFile)); err != nil {
		t.Fatalf("expected database file to exist: %v", err)
	}
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := Open(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	s, err := Open(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
