package rooms

import (
	"context"
	"time"
)

// Interaction is the host runtime's view of one session during one
// execution. Rooms only touch it from inside Sync.
type Interaction interface {
	SessionID() string

	// LastSynced reports the room timestamp the session believes it holds.
	// ok is false when the session has never synced.
	LastSynced() (t time.Time, ok bool)
	SetLastSynced(t time.Time)

	// SessionValues are values set programmatically during this execution.
	SessionValues() map[string]any
	// WidgetValues are values reported by widgets since the last execution,
	// keyed by widget id.
	WidgetValues() map[string]any
	// Values is the materialized state the session currently exposes.
	Values() map[string]any

	// ReplaceValues overwrites each given key in the materialized state and
	// discards any pending value for it. Keys not in values are untouched.
	ReplaceValues(values map[string]any)

	// Widget returns metadata for a widget id, if the id belongs to a widget.
	Widget(id string) (WidgetInfo, bool)
}

// SessionHost resolves session ids to live handles. A missing session is
// reported with ok == false and is not an error.
type SessionHost interface {
	LookupSession(ctx context.Context, sessionID string) (handle SessionHandle, ok bool)
}

// SessionHandle is a live peer session.
type SessionHandle interface {
	// RequestRerun asks the session to abandon its current execution and run
	// again. It must not block; the caller never learns the outcome.
	RequestRerun()
}

// KeyKind classifies a session value.
type KeyKind int

const (
	// KeyValue is ordinary application state and is eligible for sync.
	KeyValue KeyKind = iota
	// KeyFormSubmit belongs to a form submit control. Forms stage data until
	// submitted, so these values never leave the session.
	KeyFormSubmit
	// KeyTrigger is a one-shot value such as a button press. Replaying it in
	// another session would repeat its side effect.
	KeyTrigger
)

func (k KeyKind) String() string {
	switch k {
	case KeyValue:
		return "value"
	case KeyFormSubmit:
		return "form_submit"
	case KeyTrigger:
		return "trigger"
	default:
		return "unknown"
	}
}

// WidgetInfo is the metadata a host keeps for a widget id.
type WidgetInfo struct {
	// Key is the stable user-assigned key. Empty means the id is used as is.
	Key  string
	Kind KeyKind
}
