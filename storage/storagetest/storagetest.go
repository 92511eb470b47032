// Package storagetest provides a conformance suite for storage.Store
// implementations.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ggoodman/roomsync-go/storage"
)

// StoreFactory creates a new, empty Store instance for testing.
type StoreFactory func(t *testing.T) storage.Store

// RunStoreTests runs the complete Store test suite against the provided factory.
func RunStoreTests(t *testing.T, factory StoreFactory) {
	t.Run("UpdateAndGet", func(t *testing.T) { testUpdateAndGet(t, factory) })
	t.Run("GetNonExistent", func(t *testing.T) { testGetNonExistent(t, factory) })
	t.Run("UpdateOverwrites", func(t *testing.T) { testUpdateOverwrites(t, factory) })
	t.Run("All", func(t *testing.T) { testAll(t, factory) })
	t.Run("DeleteKey", func(t *testing.T) { testDeleteKey(t, factory) })
	t.Run("ConcurrentUpdates", func(t *testing.T) { testConcurrentUpdates(t, factory) })
	t.Run("ClosedStore", func(t *testing.T) { testClosedStore(t, factory) })
}

// RunReopenTests checks that a store opened twice at the same path observes
// the data written through the first handle, even after that handle is closed.
func RunReopenTests(t *testing.T, opener storage.Opener, path string) {
	ctx := context.Background()

	first, err := opener(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := first.Update(ctx, map[string][]byte{"x": []byte("1")}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second, err := opener(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()

	item, err := second.Get(ctx, "x")
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if item == nil {
		t.Fatal("expected value to survive reopen")
	}
	if string(item.Data) != "1" {
		t.Fatalf("expected 1, got %s", item.Data)
	}
}

func testUpdateAndGet(t *testing.T, factory StoreFactory) {
	s := factory(t)
	defer s.Close()
	ctx := context.Background()

	before := time.Now().Add(-time.Second)
	if err := s.Update(ctx, map[string][]byte{"a": []byte(`"alpha"`), "b": []byte(`2`)}); err != nil {
		t.Fatalf("update: %v", err)
	}

	item, err := s.Get(ctx, "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if item == nil {
		t.Fatal("expected item to exist, got nil")
	}
	if string(item.Data) != `"alpha"` {
		t.Errorf("expected data %s, got %s", `"alpha"`, item.Data)
	}
	if item.UpdatedAt.Before(before) {
		t.Errorf("UpdatedAt %v should not be before %v", item.UpdatedAt, before)
	}
}

func testGetNonExistent(t *testing.T, factory StoreFactory) {
	s := factory(t)
	defer s.Close()

	item, err := s.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if item != nil {
		t.Fatalf("expected nil for missing key, got %s", item.Data)
	}
}

func testUpdateOverwrites(t *testing.T, factory StoreFactory) {
	s := factory(t)
	defer s.Close()
	ctx := context.Background()

	if err := s.Update(ctx, map[string][]byte{"k": []byte("1")}); err != nil {
		t.Fatalf("update 1: %v", err)
	}
	if err := s.Update(ctx, map[string][]byte{"k": []byte("2")}); err != nil {
		t.Fatalf("update 2: %v", err)
	}

	item, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if item == nil || string(item.Data) != "2" {
		t.Fatalf("expected overwritten value 2, got %v", item)
	}
}

func testAll(t *testing.T, factory StoreFactory) {
	s := factory(t)
	defer s.Close()
	ctx := context.Background()

	all, err := s.All(ctx)
	if err != nil {
		t.Fatalf("all on empty store: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected empty snapshot, got %d entries", len(all))
	}

	want := map[string][]byte{"one": []byte("1"), "two": []byte("2"), "three": []byte("3")}
	if err := s.Update(ctx, want); err != nil {
		t.Fatalf("update: %v", err)
	}

	all, err = s.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(all))
	}
	for k, v := range want {
		if string(all[k]) != string(v) {
			t.Errorf("key %s: expected %s, got %s", k, v, all[k])
		}
	}
}

func testDeleteKey(t *testing.T, factory StoreFactory) {
	s := factory(t)
	defer s.Close()
	ctx := context.Background()

	if err := s.Update(ctx, map[string][]byte{"keep": []byte("1"), "drop": []byte("2")}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := s.Delete(ctx, "drop"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, "never-existed"); err != nil {
		t.Fatalf("delete of missing key should not fail: %v", err)
	}

	if item, err := s.Get(ctx, "drop"); err != nil || item != nil {
		t.Fatalf("expected deleted key to be gone, got %v (err=%v)", item, err)
	}
	if item, err := s.Get(ctx, "keep"); err != nil || item == nil {
		t.Fatalf("expected untouched key to remain, got %v (err=%v)", item, err)
	}
}

func testConcurrentUpdates(t *testing.T, factory StoreFactory) {
	s := factory(t)
	defer s.Close()
	ctx := context.Background()

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("w%d", i)
			if err := s.Update(ctx, map[string][]byte{key: []byte(fmt.Sprint(i))}); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent update: %v", err)
	}

	all, err := s.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != writers {
		t.Fatalf("expected %d entries, got %d", writers, len(all))
	}
}

func testClosedStore(t *testing.T, factory StoreFactory) {
	s := factory(t)
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	_, err := s.Get(context.Background(), "k")
	if !errors.Is(err, storage.ErrClosed) {
		t.Fatalf("expected ErrClosed from Get after Close, got %v", err)
	}
	err = s.Update(context.Background(), map[string][]byte{"k": []byte("1")})
	if !errors.Is(err, storage.ErrClosed) {
		t.Fatalf("expected ErrClosed from Update after Close, got %v", err)
	}
}
