package rooms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/ggoodman/roomsync-go/internal/logctx"
	"github.com/ggoodman/roomsync-go/storage/memory"
	"go.opentelemetry.io/otel/trace"
)

// Registry maps room names to their singleton Room. A process normally builds
// one Registry at startup and shares it; rooms are created on first use and
// never removed.
type Registry struct {
	host   SessionHost
	log    *slog.Logger
	tracer trace.Tracer
	cfg    *config
	epoch  time.Time

	roomsMu sync.Mutex
	rooms   map[string]*Room

	namesMu sync.RWMutex
	names   map[string]struct{}
}

// NewRegistry creates a Registry whose rooms notify peers through host.
func NewRegistry(host SessionHost, opts ...Option) *Registry {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return &Registry{
		host:   host,
		log:    slog.New(logctx.Handler{Handler: cfg.logger.Handler()}),
		tracer: cfg.tracer(),
		cfg:    cfg,
		epoch:  time.Unix(0, 0),
		rooms:  make(map[string]*Room),
		names:  make(map[string]struct{}),
	}
}

// Room returns the room called name, creating an empty in-memory room on
// first use. Every call with the same name returns the same *Room.
func (r *Registry) Room(name string) *Room {
	r.roomsMu.Lock()
	room, ok := r.rooms[name]
	if !ok {
		room = &Room{
			name:        name,
			reg:         r,
			lastUpdated: r.epoch,
			state:       memory.New(),
			sessions:    make(map[string]struct{}),
		}
		r.rooms[name] = room
	}
	r.roomsMu.Unlock()

	if !ok {
		r.recordName(name)
		r.log.Debug("room.create", slog.String("room", name))
	}
	return room
}

// RoomNames returns, sorted, the name of every room created or joined in
// this process.
func (r *Registry) RoomNames() []string {
	r.namesMu.RLock()
	names := make([]string, 0, len(r.names))
	for name := range r.names {
		names = append(names, name)
	}
	r.namesMu.RUnlock()

	sort.Strings(names)
	return names
}

// DeleteRoom is not supported. It always fails with ErrNotImplemented so that
// callers cannot mistake it for success.
func (r *Registry) DeleteRoom(ctx context.Context, name string) error {
	return fmt.Errorf("%w: delete room %q", ErrNotImplemented, name)
}

// Close releases the store of every room. Rooms must not be used afterwards.
func (r *Registry) Close() error {
	r.roomsMu.Lock()
	rooms := make([]*Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, room)
	}
	r.roomsMu.Unlock()

	var errs []error
	for _, room := range rooms {
		if err := room.close(); err != nil {
			errs = append(errs, fmt.Errorf("close room %q: %w", room.name, err))
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) recordName(name string) {
	r.namesMu.Lock()
	r.names[name] = struct{}{}
	r.namesMu.Unlock()
}
