package rooms

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ggoodman/roomsync-go/internal/logctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SyncResult tells the host what to do after Sync returns.
type SyncResult int

const (
	// SyncUnchanged means the session was in sync and had nothing new.
	SyncUnchanged SyncResult = iota
	// SyncPushed means the session's changes were merged into the room and
	// peers were asked to rerun. The current execution may continue.
	SyncPushed
	// SyncRerun means the session was stale and its values were replaced.
	// The current execution is superseded and must not continue.
	SyncRerun
)

// Superseded reports whether the host must abandon the current execution and
// run the session again.
func (s SyncResult) Superseded() bool { return s == SyncRerun }

func (s SyncResult) String() string {
	switch s {
	case SyncUnchanged:
		return "unchanged"
	case SyncPushed:
		return "pushed"
	case SyncRerun:
		return "rerun"
	default:
		return "unknown"
	}
}

// Sync reconciles one interaction of a session with the room. The session is
// registered first. The whole step runs under the room's mutex.
//
// A stale session is overwritten with the room's values and SyncRerun is
// returned before any of its own pending values are considered. Otherwise
// the session's values that differ from the room's are merged, the room
// timestamp advances, and every other session is asked to rerun.
func (r *Room) Sync(ctx context.Context, s Interaction) (res SyncResult, err error) {
	sessionID := s.SessionID()
	ctx = logctx.WithRoomData(ctx, &logctx.RoomData{Name: r.name})
	ctx = logctx.WithSessionData(ctx, &logctx.SessionData{SessionID: sessionID})
	ctx, span := r.reg.tracer.Start(ctx, "rooms.Sync", trace.WithAttributes(
		attribute.String("room.name", r.name),
		attribute.String("session.id", sessionID),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(attribute.String("rooms.sync.result", res.String()))
		span.End()
	}()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.registerLocked(sessionID)

	if last, ok := s.LastSynced(); !ok || !last.Equal(r.lastUpdated) {
		return r.pullLocked(ctx, s)
	}
	return r.pushLocked(ctx, s)
}

func (r *Room) pullLocked(ctx context.Context, s Interaction) (SyncResult, error) {
	raw, err := r.state.All(ctx)
	if err != nil {
		return SyncUnchanged, fmt.Errorf("read room %q: %w", r.name, err)
	}
	values, err := decodeValues(raw)
	if err != nil {
		return SyncUnchanged, fmt.Errorf("read room %q: %w", r.name, err)
	}

	s.ReplaceValues(values)
	s.SetLastSynced(r.lastUpdated)

	r.reg.log.DebugContext(ctx, "room.sync.pull", slog.Int("keys", len(values)))
	return SyncRerun, nil
}

func (r *Room) pushLocked(ctx context.Context, s Interaction) (SyncResult, error) {
	candidates := r.collectLocked(ctx, s)
	if len(candidates) == 0 {
		return SyncUnchanged, nil
	}

	stored, err := r.state.All(ctx)
	if err != nil {
		return SyncUnchanged, fmt.Errorf("read room %q: %w", r.name, err)
	}

	updates := make(map[string][]byte)
	for key, data := range candidates {
		if prev, ok := stored[key]; ok && bytes.Equal(prev, data) {
			continue
		}
		updates[key] = data
	}
	if len(updates) == 0 {
		return SyncUnchanged, nil
	}

	if err := r.state.Update(ctx, updates); err != nil {
		return SyncUnchanged, fmt.Errorf("update room %q: %w", r.name, err)
	}
	r.lastUpdated = r.nextTimestampLocked()
	s.SetLastSynced(r.lastUpdated)

	r.reg.log.DebugContext(ctx, "room.sync.push", slog.Int("keys", len(updates)))
	r.broadcastLocked(ctx, s.SessionID())
	return SyncPushed, nil
}

// collectLocked gathers the session's syncable values, keyed by user key and
// encoded. Session values are read first, then widget values, then the
// materialized values; a later source overwrites an earlier one. Keys under
// ReservedPrefix never sync, whatever the policy says.
func (r *Room) collectLocked(ctx context.Context, s Interaction) map[string][]byte {
	out := make(map[string][]byte)
	sources := []map[string]any{s.SessionValues(), s.WidgetValues(), s.Values()}
	for _, src := range sources {
		for id, v := range src {
			key, kind := r.reg.cfg.resolver.Resolve(s, id)
			if kind != KeyValue {
				continue
			}
			if strings.HasPrefix(key, ReservedPrefix) || !r.reg.cfg.policy.Synced(key) {
				continue
			}
			data, err := encodeValue(v)
			if err != nil {
				// An earlier source's value for key, if any, still stands.
				r.reg.log.WarnContext(ctx, "room.sync.encode.fail",
					slog.String("key", key),
					slog.String("err", err.Error()),
				)
				continue
			}
			out[key] = data
		}
	}
	return out
}
