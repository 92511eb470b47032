package logctx

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestHandlerAddsRoomAndSessionGroups(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(Handler{Handler: slog.NewJSONHandler(&buf, nil)})

	ctx := WithRoomData(context.Background(), &RoomData{Name: "r1", StoreDir: "/tmp/rooms/r1"})
	ctx = WithSessionData(ctx, &SessionData{SessionID: "sess-1"})
	log.InfoContext(ctx, "room.sync.push")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("unmarshal log record: %v", err)
	}

	room, ok := rec["room"].(map[string]any)
	if !ok {
		t.Fatalf("expected room group, got %v", rec)
	}
	if room["name"] != "r1" || room["store_dir"] != "/tmp/rooms/r1" {
		t.Fatalf("unexpected room group: %v", room)
	}
	sess, ok := rec["sess"].(map[string]any)
	if !ok || sess["id"] != "sess-1" {
		t.Fatalf("unexpected sess group: %v", rec["sess"])
	}
	if _, ok := rec["trace_id"]; ok {
		t.Fatalf("did not expect trace_id without an active span: %v", rec)
	}
}

func TestHandlerKeepsWrappingAfterWith(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(Handler{Handler: slog.NewJSONHandler(&buf, nil)}).With("component", "rooms")

	ctx := WithSessionData(context.Background(), &SessionData{SessionID: "sess-2"})
	log.InfoContext(ctx, "room.broadcast")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("unmarshal log record: %v", err)
	}
	if rec["component"] != "rooms" {
		t.Fatalf("expected component attr, got %v", rec)
	}
	if _, ok := rec["sess"]; !ok {
		t.Fatalf("expected sess group to survive With, got %v", rec)
	}
}
