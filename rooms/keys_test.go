package rooms_test

import (
	"testing"

	"github.com/ggoodman/roomsync-go/rooms"
)

func TestUserKey(t *testing.T) {
	cases := []struct {
		id, want string
	}{
		{"plain", "plain"},
		{"$$WIDGET_ID-abc123-color", "color"},
		{"$$WIDGET_ID-abc123-my-key", "my-key"},
		{"$$WIDGET_ID-abc123", "$$WIDGET_ID-abc123"},
		{"$$WIDGET_ID-abc123-", "$$WIDGET_ID-abc123-"},
	}
	for _, tc := range cases {
		if got := rooms.UserKey(tc.id); got != tc.want {
			t.Errorf("UserKey(%q) = %q, want %q", tc.id, got, tc.want)
		}
	}
}

func TestWidgetKeysResolve(t *testing.T) {
	s := &fakeInteraction{
		id: "sess-1",
		meta: map[string]rooms.WidgetInfo{
			"$$WIDGET_ID-1-go":   {Key: "go", Kind: rooms.KeyTrigger},
			"$$WIDGET_ID-2-name": {Kind: rooms.KeyValue},
		},
	}

	cases := []struct {
		id       string
		wantKey  string
		wantKind rooms.KeyKind
	}{
		{"$$WIDGET_ID-1-go", "go", rooms.KeyTrigger},
		{"$$WIDGET_ID-2-name", "name", rooms.KeyValue},
		{"FormSubmitter:signup-Submit", "FormSubmitter:signup-Submit", rooms.KeyFormSubmit},
		{"$$WIDGET_ID-3-color", "color", rooms.KeyValue},
		{"counter", "counter", rooms.KeyValue},
	}
	for _, tc := range cases {
		key, kind := rooms.WidgetKeys{}.Resolve(s, tc.id)
		if key != tc.wantKey || kind != tc.wantKind {
			t.Errorf("Resolve(%q) = (%q, %v), want (%q, %v)", tc.id, key, kind, tc.wantKey, tc.wantKind)
		}
	}
}

func TestPrefixPolicy(t *testing.T) {
	p := rooms.PrefixPolicy{Excluded: []string{"tmp_", "local."}}

	cases := map[string]bool{
		"shared":             true,
		rooms.LastSyncedKey:  false,
		"_roomsync_anything": false,
		"tmp_upload":         false,
		"local.cursor":       false,
		"localish":           true,
	}
	for key, want := range cases {
		if got := p.Synced(key); got != want {
			t.Errorf("Synced(%q) = %v, want %v", key, got, want)
		}
	}
}

func TestPolicyAndResolverFuncs(t *testing.T) {
	policy := rooms.SyncPolicyFunc(func(key string) bool { return key == "only" })
	if !policy.Synced("only") || policy.Synced("other") {
		t.Fatal("SyncPolicyFunc did not delegate")
	}

	resolver := rooms.KeyResolverFunc(func(s rooms.Interaction, id string) (string, rooms.KeyKind) {
		return "k:" + id, rooms.KeyTrigger
	})
	key, kind := resolver.Resolve(&fakeInteraction{}, "x")
	if key != "k:x" || kind != rooms.KeyTrigger {
		t.Fatalf("KeyResolverFunc did not delegate: %q %v", key, kind)
	}
}
