package memory

import (
	"context"
	"testing"

	"github.com/ggoodman/roomsync-go/storage"
	"github.com/ggoodman/roomsync-go/storage/storagetest"
)

func TestMemoryStore(t *testing.T) {
	storagetest.RunStoreTests(t, func(t *testing.T) storage.Store {
		return New()
	})
}

func TestGetReturnsCopy(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()

	if err := s.Update(ctx, map[string][]byte{"k": []byte("abc")}); err != nil {
		t.Fatalf("Update() failed: %v", err)
	}

	item, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	item.Data[0] = 'z'

	again, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if string(again.Data) != "abc" {
		t.Fatalf("stored data was mutated through returned item: %s", again.Data)
	}
}

func TestOpenerSharesStorePerPath(t *testing.T) {
	open := Opener()
	ctx := context.Background()

	a, err := open(ctx, "/rooms/r1")
	if err != nil {
		t.Fatalf("open a: %v", err)
	}
	b, err := open(ctx, "/rooms/r1")
	if err != nil {
		t.Fatalf("open b: %v", err)
	}
	c, err := open(ctx, "/rooms/r2")
	if err != nil {
		t.Fatalf("open c: %v", err)
	}

	if err := a.Update(ctx, map[string][]byte{"x": []byte("1")}); err != nil {
		t.Fatalf("update: %v", err)
	}

	if item, _ := b.Get(ctx, "x"); item == nil {
		t.Fatal("expected store opened at the same path to observe the write")
	}
	if item, _ := c.Get(ctx, "x"); item != nil {
		t.Fatal("expected store at a different path to be isolated")
	}
}
