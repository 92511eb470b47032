package memoryhost

import (
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ggoodman/roomsync-go/rooms"
)

// Session is one simulated client. It keeps a materialized value map plus
// the values set during the current run, split into programmatic (Set) and
// widget (SetWidget) writes. The last-synced timestamp is kept in the value
// map under rooms.LastSyncedKey.
type Session struct {
	id     string
	reruns rerunSignal

	rerunCount atomic.Int64

	mu             sync.Mutex
	values         map[string]any
	pendingSession map[string]any
	pendingWidgets map[string]any
	widgets        map[string]rooms.WidgetInfo
}

func newSession(id string) *Session {
	return &Session{
		id:             id,
		values:         make(map[string]any),
		pendingSession: make(map[string]any),
		pendingWidgets: make(map[string]any),
		widgets:        make(map[string]rooms.WidgetInfo),
	}
}

func (s *Session) SessionID() string { return s.id }

// Set records a programmatic write to key.
func (s *Session) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingSession[key] = value
	s.values[key] = value
}

// SetWidget records a value reported by widget id. The value is materialized
// under the widget's user key.
func (s *Session) SetWidget(id string, info rooms.WidgetInfo, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.widgets[id] = info
	s.pendingWidgets[id] = value
	s.values[widgetKey(id, info)] = value
}

func widgetKey(id string, info rooms.WidgetInfo) string {
	if info.Key != "" {
		return info.Key
	}
	return rooms.UserKey(id)
}

// Get returns the materialized value for key.
func (s *Session) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// FinishRun clears the values pending from the current run.
func (s *Session) FinishRun() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.pendingSession)
	clear(s.pendingWidgets)
}

// Reruns returns a channel signalled whenever a rerun is requested.
func (s *Session) Reruns() <-chan struct{} { return s.reruns.Subscriber() }

// RerunCount reports how many rerun requests the session has received.
func (s *Session) RerunCount() int64 { return s.rerunCount.Load() }

// RequestRerun implements rooms.SessionHandle.
func (s *Session) RequestRerun() {
	s.rerunCount.Add(1)
	s.reruns.Notify()
}

func (s *Session) LastSynced() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.values[rooms.LastSyncedKey].(time.Time)
	return t, ok
}

func (s *Session) SetLastSynced(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[rooms.LastSyncedKey] = t
}

func (s *Session) SessionValues() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.pendingSession)
}

func (s *Session) WidgetValues() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.pendingWidgets)
}

func (s *Session) Values() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.values)
}

func (s *Session) ReplaceValues(values map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, v := range values {
		s.values[key] = v
		delete(s.pendingSession, key)
	}
	for id := range s.pendingWidgets {
		if _, ok := values[widgetKey(id, s.widgets[id])]; ok {
			delete(s.pendingWidgets, id)
		}
	}
}

// Widget answers for widget ids and for the user keys they declare.
func (s *Session) Widget(id string) (rooms.WidgetInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if info, ok := s.widgets[id]; ok {
		return info, true
	}
	for _, info := range s.widgets {
		if info.Key != "" && info.Key == id {
			return info, true
		}
	}
	return rooms.WidgetInfo{}, false
}

// Ensure interface compliance
var (
	_ rooms.Interaction   = (*Session)(nil)
	_ rooms.SessionHandle = (*Session)(nil)
)
