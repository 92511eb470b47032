package rooms

import (
	"context"
	"log/slog"

	"github.com/ggoodman/roomsync-go/internal/logctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Broadcast asks every registered session except excludeSessionID to rerun.
// Sessions the host no longer knows are removed from the room; this is the
// only place dead sessions are reaped.
func (r *Room) Broadcast(ctx context.Context, excludeSessionID string) {
	ctx = logctx.WithRoomData(ctx, &logctx.RoomData{Name: r.name})

	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcastLocked(ctx, excludeSessionID)
}

func (r *Room) broadcastLocked(ctx context.Context, excludeSessionID string) {
	ctx, span := r.reg.tracer.Start(ctx, "rooms.Broadcast", trace.WithAttributes(
		attribute.String("room.name", r.name),
	))
	defer span.End()

	var inactive []string
	notified := 0
	for sessionID := range r.sessions {
		if sessionID == excludeSessionID {
			continue
		}
		handle, ok := r.reg.host.LookupSession(ctx, sessionID)
		if !ok {
			// Most likely the tab was closed.
			inactive = append(inactive, sessionID)
			continue
		}
		handle.RequestRerun()
		notified++
	}

	for _, sessionID := range inactive {
		delete(r.sessions, sessionID)
	}

	span.SetAttributes(
		attribute.Int("rooms.broadcast.notified", notified),
		attribute.Int("rooms.broadcast.pruned", len(inactive)),
	)
	r.reg.log.DebugContext(ctx, "room.broadcast", slog.Int("notified", notified))
	if len(inactive) > 0 {
		r.reg.log.InfoContext(ctx, "room.broadcast.prune", slog.Any("sessions", inactive))
	}
}
