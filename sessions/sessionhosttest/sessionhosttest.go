package sessionhosttest

import (
	"context"
	"testing"
	"time"

	"github.com/ggoodman/roomsync-go/rooms"
)

// Harness is a rooms.SessionHost that a test can start and end sessions on.
type Harness interface {
	rooms.SessionHost
	StartSession(t *testing.T) (sessionID string, reruns <-chan struct{})
	EndSession(t *testing.T, sessionID string)
}

// HostFactory creates a new Harness instance for testing.
type HostFactory func(t *testing.T) Harness

// RunSessionHostTests runs the complete SessionHost test suite against the provided factory.
func RunSessionHostTests(t *testing.T, factory HostFactory) {
	t.Run("Lookup_UnknownSession", func(t *testing.T) { testLookupUnknown(t, factory) })
	t.Run("Lookup_StartedSession", func(t *testing.T) { testLookupStarted(t, factory) })
	t.Run("Lookup_EndedSession", func(t *testing.T) { testLookupEnded(t, factory) })

	t.Run("Rerun_Delivered", func(t *testing.T) { testRerunDelivered(t, factory) })
	t.Run("Rerun_NonBlockingAndCoalesced", func(t *testing.T) { testRerunNonBlocking(t, factory) })
	t.Run("Rerun_IsolationBetweenSessions", func(t *testing.T) { testRerunIsolation(t, factory) })
}

func testLookupUnknown(t *testing.T, factory HostFactory) {
	h := factory(t)

	handle, ok := h.LookupSession(context.Background(), "no-such-session")
	if ok {
		t.Fatal("expected unknown session to be reported as missing")
	}
	if handle != nil {
		t.Fatalf("expected nil handle for missing session, got %v", handle)
	}
}

func testLookupStarted(t *testing.T, factory HostFactory) {
	h := factory(t)
	id, _ := h.StartSession(t)

	handle, ok := h.LookupSession(context.Background(), id)
	if !ok || handle == nil {
		t.Fatalf("expected started session %s to be found", id)
	}
}

func testLookupEnded(t *testing.T, factory HostFactory) {
	h := factory(t)
	id, reruns := h.StartSession(t)
	h.EndSession(t, id)

	if _, ok := h.LookupSession(context.Background(), id); ok {
		t.Fatalf("expected ended session %s to be missing", id)
	}

	select {
	case _, open := <-reruns:
		if open {
			t.Fatal("expected rerun channel of an ended session to be closed")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("rerun channel of an ended session was not closed")
	}
}

func testRerunDelivered(t *testing.T, factory HostFactory) {
	h := factory(t)
	id, reruns := h.StartSession(t)

	handle, ok := h.LookupSession(context.Background(), id)
	if !ok {
		t.Fatalf("lookup %s failed", id)
	}
	handle.RequestRerun()

	select {
	case <-reruns:
	case <-time.After(2 * time.Second):
		t.Fatal("rerun was not delivered")
	}
}

func testRerunNonBlocking(t *testing.T, factory HostFactory) {
	h := factory(t)
	id, reruns := h.StartSession(t)

	handle, ok := h.LookupSession(context.Background(), id)
	if !ok {
		t.Fatalf("lookup %s failed", id)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Nobody reads reruns while we hammer the handle.
		for i := 0; i < 1000; i++ {
			handle.RequestRerun()
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RequestRerun blocked without a reader")
	}

	select {
	case <-reruns:
	case <-time.After(2 * time.Second):
		t.Fatal("expected at least one pending rerun")
	}
}

func testRerunIsolation(t *testing.T, factory HostFactory) {
	h := factory(t)
	idA, rerunsA := h.StartSession(t)
	_, rerunsB := h.StartSession(t)

	handle, ok := h.LookupSession(context.Background(), idA)
	if !ok {
		t.Fatalf("lookup %s failed", idA)
	}
	handle.RequestRerun()

	select {
	case <-rerunsA:
	case <-time.After(2 * time.Second):
		t.Fatal("rerun was not delivered to target session")
	}

	select {
	case <-rerunsB:
		t.Fatal("rerun leaked to another session")
	case <-time.After(100 * time.Millisecond):
	}
}
