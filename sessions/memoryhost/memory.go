package memoryhost

import (
	"context"
	"sync"

	"github.com/ggoodman/roomsync-go/rooms"
	"github.com/google/uuid"
)

// Host is an in-memory implementation of rooms.SessionHost that also owns
// the sessions it hands out.
type Host struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// New returns an empty Host.
func New() *Host {
	return &Host{
		sessions: make(map[string]*Session),
	}
}

// NewSession starts a session with a fresh random id.
func (h *Host) NewSession() *Session {
	s := newSession(uuid.NewString())

	h.mu.Lock()
	h.sessions[s.id] = s
	h.mu.Unlock()

	return s
}

// Session returns the live session with the given id.
func (h *Host) Session(sessionID string) (*Session, bool) {
	h.mu.RLock()
	s, ok := h.sessions[sessionID]
	h.mu.RUnlock()
	return s, ok
}

// EndSession forgets the session without telling any room, the way a closed
// browser tab disappears. Its rerun channels are closed.
func (h *Host) EndSession(sessionID string) {
	h.mu.Lock()
	s, ok := h.sessions[sessionID]
	if ok {
		delete(h.sessions, sessionID)
	}
	h.mu.Unlock()

	if ok {
		s.reruns.Close()
	}
}

// LookupSession implements rooms.SessionHost.
func (h *Host) LookupSession(ctx context.Context, sessionID string) (rooms.SessionHandle, bool) {
	s, ok := h.Session(sessionID)
	if !ok {
		return nil, false
	}
	return s, true
}

// Ensure interface compliance
var _ rooms.SessionHost = (*Host)(nil)
