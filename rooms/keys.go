package rooms

import "strings"

const (
	// ReservedPrefix marks keys owned by this package. They are never synced.
	ReservedPrefix = "_roomsync_"
	// LastSyncedKey is where hosts that keep everything in one value map may
	// store the session's last-synced timestamp.
	LastSyncedKey = ReservedPrefix + "last_synced"

	// FormSubmitterPrefix starts the id of every form submit control.
	FormSubmitterPrefix = "FormSubmitter:"
	// GeneratedWidgetPrefix starts host-generated widget ids of the form
	// "$$WIDGET_ID-<hash>-<user key>".
	GeneratedWidgetPrefix = "$$WIDGET_ID-"
)

// KeyResolver maps a raw id reported by the session to the user-facing key
// and classifies the value.
type KeyResolver interface {
	Resolve(s Interaction, id string) (key string, kind KeyKind)
}

// KeyResolverFunc adapts a function to KeyResolver.
type KeyResolverFunc func(s Interaction, id string) (string, KeyKind)

func (f KeyResolverFunc) Resolve(s Interaction, id string) (string, KeyKind) { return f(s, id) }

// WidgetKeys is the default KeyResolver. Ids starting with
// FormSubmitterPrefix are always form submit values. Otherwise widget
// metadata known to the session decides, and generated widget ids without
// metadata are reduced to their user key.
type WidgetKeys struct{}

func (WidgetKeys) Resolve(s Interaction, id string) (string, KeyKind) {
	if strings.HasPrefix(id, FormSubmitterPrefix) {
		return id, KeyFormSubmit
	}
	if info, ok := s.Widget(id); ok {
		key := info.Key
		if key == "" {
			key = UserKey(id)
		}
		return key, info.Kind
	}
	return UserKey(id), KeyValue
}

// UserKey extracts the user key from a generated widget id. Ids that are not
// generated, or carry no user key, are returned unchanged.
func UserKey(id string) string {
	rest, ok := strings.CutPrefix(id, GeneratedWidgetPrefix)
	if !ok {
		return id
	}
	_, key, found := strings.Cut(rest, "-")
	if !found || key == "" {
		return id
	}
	return key
}

// SyncPolicy decides whether a user key takes part in synchronization. Keys
// under ReservedPrefix are excluded before the policy is consulted.
type SyncPolicy interface {
	Synced(key string) bool
}

// SyncPolicyFunc adapts a function to SyncPolicy.
type SyncPolicyFunc func(key string) bool

func (f SyncPolicyFunc) Synced(key string) bool { return f(key) }

// PrefixPolicy opts out every key starting with ReservedPrefix or with one of
// Excluded.
type PrefixPolicy struct {
	Excluded []string
}

func (p PrefixPolicy) Synced(key string) bool {
	if strings.HasPrefix(key, ReservedPrefix) {
		return false
	}
	for _, prefix := range p.Excluded {
		if strings.HasPrefix(key, prefix) {
			return false
		}
	}
	return true
}
