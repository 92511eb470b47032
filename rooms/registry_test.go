package rooms_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"testing"

	"github.com/ggoodman/roomsync-go/rooms"
	"github.com/ggoodman/roomsync-go/sessions/memoryhost"
	"github.com/ggoodman/roomsync-go/storage/memory"
)

func newRegistry(t *testing.T, host rooms.SessionHost, opts ...rooms.Option) *rooms.Registry {
	t.Helper()
	opts = append([]rooms.Option{
		rooms.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		rooms.WithOpener(memory.Opener()),
	}, opts...)
	reg := rooms.NewRegistry(host, opts...)
	t.Cleanup(func() {
		if err := reg.Close(); err != nil {
			t.Errorf("close registry: %v", err)
		}
	})
	return reg
}

func TestRoomIsSingleton(t *testing.T) {
	reg := newRegistry(t, memoryhost.New())

	a := reg.Room("r1")
	b := reg.Room("r1")
	c := reg.Room("r2")

	if a != b {
		t.Fatal("expected two lookups of the same name to return the same room")
	}
	if a == c {
		t.Fatal("expected different names to return different rooms")
	}
	if a.Name() != "r1" || c.Name() != "r2" {
		t.Fatalf("unexpected names %q, %q", a.Name(), c.Name())
	}
}

func TestRoomIsSingletonUnderConcurrency(t *testing.T) {
	reg := newRegistry(t, memoryhost.New())

	const n = 32
	got := make(chan *rooms.Room, n)
	for i := 0; i < n; i++ {
		go func() { got <- reg.Room("shared") }()
	}

	first := <-got
	for i := 1; i < n; i++ {
		if r := <-got; r != first {
			t.Fatal("concurrent lookups produced distinct rooms")
		}
	}
}

func TestNewRoomStartsEmptyAtEpoch(t *testing.T) {
	reg := newRegistry(t, memoryhost.New())
	room := reg.Room("fresh")

	if !room.LastUpdated().Equal(epoch) {
		t.Fatalf("expected epoch sentinel, got %v", room.LastUpdated())
	}
	snap, err := room.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap) != 0 {
		t.Fatalf("expected empty state, got %v", snap)
	}
	if _, ok := room.StorageDir(); ok {
		t.Fatal("expected new room to be in memory")
	}
}

func TestRoomNames(t *testing.T) {
	reg := newRegistry(t, memoryhost.New())

	if names := reg.RoomNames(); len(names) != 0 {
		t.Fatalf("expected no rooms, got %v", names)
	}

	reg.Room("beta")
	reg.Room("alpha").RegisterSession("sess-1")
	reg.Room("beta")

	want := []string{"alpha", "beta"}
	if names := reg.RoomNames(); !slices.Equal(names, want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
}

func TestDeleteRoomNotImplemented(t *testing.T) {
	reg := newRegistry(t, memoryhost.New())
	reg.Room("r1")

	err := reg.DeleteRoom(context.Background(), "r1")
	if !errors.Is(err, rooms.ErrNotImplemented) {
		t.Fatalf("expected ErrNotImplemented, got %v", err)
	}
	if names := reg.RoomNames(); !slices.Contains(names, "r1") {
		t.Fatalf("expected r1 to still exist, got %v", names)
	}
}

func TestRegisterSessionIsIdempotent(t *testing.T) {
	reg := newRegistry(t, memoryhost.New())
	room := reg.Room("r1")

	room.RegisterSession("sess-1")
	room.RegisterSession("sess-1")
	if got := room.ActiveSessionCount(); got != 1 {
		t.Fatalf("expected 1 session, got %d", got)
	}

	room.RegisterSession("sess-2")
	if got := room.ActiveSessionCount(); got != 2 {
		t.Fatalf("expected 2 sessions, got %d", got)
	}
}

func TestUnregisterSession(t *testing.T) {
	reg := newRegistry(t, memoryhost.New())
	room := reg.Room("r1")

	room.RegisterSession("sess-1")
	room.UnregisterSession("sess-1")
	room.UnregisterSession("sess-1")
	room.UnregisterSession("never-registered")

	if got := room.ActiveSessionCount(); got != 0 {
		t.Fatalf("expected 0 sessions, got %d", got)
	}
}
