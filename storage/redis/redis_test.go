package redis

import (
	"context"
	"testing"

	"github.com/ggoodman/roomsync-go/storage"
	"github.com/ggoodman/roomsync-go/storage/storagetest"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()

	// Skip test if Redis is not available
	client := redis.NewClient(&redis.Options{
		Addr: "127.0.0.1:6379",
		DB:   2, // Use separate DB for storage tests
	})

	ctx := context.Background()
	b, err := New(ctx, Config{Client: client, KeyPrefix: "roomsync:test:"})
	if err != nil {
		_ = client.Close()
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() {
		client.FlushDB(ctx)
		_ = b.Close()
	})
	return b
}

func TestRedisStore(t *testing.T) {
	b := newTestBackend(t)

	storagetest.RunStoreTests(t, func(t *testing.T) storage.Store {
		return b.Open("/rooms/" + uuid.NewString())
	})
}

func TestRedisReopen(t *testing.T) {
	b := newTestBackend(t)

	storagetest.RunReopenTests(t, b.Opener(), "/rooms/"+uuid.NewString())
}

func TestStoresArePathScoped(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	a := b.Open("/rooms/a")
	other := b.Open("/rooms/b")

	if err := a.Update(ctx, map[string][]byte{"x": []byte("1")}); err != nil {
		t.Fatalf("update: %v", err)
	}

	item, err := other.Get(ctx, "x")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if item != nil {
		t.Fatal("expected stores at different paths to be isolated")
	}
}
