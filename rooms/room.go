package rooms

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ggoodman/roomsync-go/internal/logctx"
	"github.com/ggoodman/roomsync-go/storage"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Room is the state shared by every session of one room. All fields below mu
// are read and written as one unit per interaction.
type Room struct {
	name string
	reg  *Registry

	mu          sync.Mutex
	lastUpdated time.Time
	state       storage.Store
	sessions    map[string]struct{}
	storeDir    string // empty while in memory; fixed once set
}

// Name returns the room name.
func (r *Room) Name() string { return r.name }

// LastUpdated returns the time of the last accepted change, or the Unix epoch
// if the room has never changed.
func (r *Room) LastUpdated() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastUpdated
}

// ActiveSessionCount estimates the number of live sessions. Sessions that
// disappeared since the last broadcast are still counted.
func (r *Room) ActiveSessionCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// StorageDir reports where the room is persisted, if it is.
func (r *Room) StorageDir() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.storeDir, r.storeDir != ""
}

// Snapshot returns a decoded copy of the room's values.
func (r *Room) Snapshot(ctx context.Context) (map[string]any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	raw, err := r.state.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("read room %q: %w", r.name, err)
	}
	return decodeValues(raw)
}

// RegisterSession adds sessionID to the room and makes the room visible in
// Registry.RoomNames. Registering twice is a no-op.
func (r *Room) RegisterSession(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registerLocked(sessionID)
}

// UnregisterSession removes sessionID. Unknown ids are ignored.
func (r *Room) UnregisterSession(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

func (r *Room) registerLocked(sessionID string) {
	if _, ok := r.sessions[sessionID]; ok {
		return
	}
	r.sessions[sessionID] = struct{}{}
	r.reg.recordName(r.name)
}

// AttachDurableStore persists the room under baseDir/<room name>. The durable
// store becomes authoritative; values held in memory are not copied over.
//
// Attaching again to the same location is a no-op. Attaching to any other
// location fails with ErrConfigurationConflict.
func (r *Room) AttachDurableStore(ctx context.Context, baseDir string) (err error) {
	if err := validateRoomName(r.name); err != nil {
		return err
	}
	target, err := filepath.Abs(filepath.Join(baseDir, r.name))
	if err != nil {
		return fmt.Errorf("resolve storage dir for room %q: %w", r.name, err)
	}

	ctx = logctx.WithRoomData(ctx, &logctx.RoomData{Name: r.name, StoreDir: target})
	ctx, span := r.reg.tracer.Start(ctx, "rooms.AttachDurableStore", trace.WithAttributes(
		attribute.String("room.name", r.name),
		attribute.String("room.store_dir", target),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.storeDir != "" {
		if r.storeDir == target {
			return nil
		}
		return fmt.Errorf("%w: cannot attach room %q to %s: already attached to %s",
			ErrConfigurationConflict, r.name, target, r.storeDir)
	}

	store, err := r.reg.cfg.opener(ctx, target)
	if err != nil {
		r.reg.log.ErrorContext(ctx, "room.store.attach.fail", slog.String("err", err.Error()))
		return fmt.Errorf("attach room %q to %s: %w", r.name, target, err)
	}

	prev := r.state
	r.state = store
	r.storeDir = target
	// The visible state was swapped wholesale; sessions synced against the
	// in-memory values must pull again.
	r.lastUpdated = r.nextTimestampLocked()

	if err := prev.Close(); err != nil {
		r.reg.log.WarnContext(ctx, "room.store.release.fail", slog.String("err", err.Error()))
	}
	r.reg.log.InfoContext(ctx, "room.store.attach")
	return nil
}

// String renders the room for logs and debugging.
func (r *Room) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "<Room name=%s active_sessions=%d", r.name, len(r.sessions))
	if r.storeDir != "" {
		fmt.Fprintf(&b, " (stored at %s)", r.storeDir)
	}
	b.WriteString(">")
	return b.String()
}

// nextTimestampLocked returns the clock reading, nudged forward when the
// clock has not advanced past the current value.
func (r *Room) nextTimestampLocked() time.Time {
	now := r.reg.cfg.clock()
	if !now.After(r.lastUpdated) {
		now = r.lastUpdated.Add(time.Nanosecond)
	}
	return now
}

func (r *Room) close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Close()
}

func validateRoomName(name string) error {
	switch {
	case strings.TrimSpace(name) == "", name == ".", name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidRoomName, name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidRoomName, name)
	}
	return nil
}
