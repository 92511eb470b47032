// Package rooms keeps a shared key/value state in sync across independent,
// concurrently executing sessions that join the same named room. A change
// written by one session becomes visible to every other session of the room,
// each of which is asked to re-execute with the fresh values.
//
// Layers & Roles
//
//	Registry     -> one Room per name, injected rather than global
//	Room         -> shared map + last-updated timestamp + registered sessions + mutex
//	Sync         -> per-interaction reconciliation (pull if stale, push if ahead)
//	Broadcast    -> fire-and-forget rerun requests to peers, pruning dead sessions
//	storage      -> in-memory by default, durable (sqlite/redis) once attached
//
// # Reconciliation
//
// Every interaction of a session calls Room.Sync while holding the room's
// mutex for the whole step. If the session's last-synced timestamp differs
// from the room's, the room's values are written into the session and Sync
// returns SyncRerun: the host must abandon the current execution and run the
// session again. Otherwise the session's pending values are diffed against
// the room; any difference is merged, the room timestamp advances, and every
// other registered session receives a rerun request.
//
// The protocol is last-write-wins. There is no merge of concurrent edits to
// the same key.
//
// # Host Interface
//
// The host runtime is reached through three small interfaces:
//   - Interaction   : the per-session view of pending and materialized values
//   - SessionHost   : lookup of a live session handle by id
//   - SessionHandle : non-blocking rerun request
//
// Widget ids are turned into user keys, and form-submit or trigger values
// are filtered out, by a KeyResolver. A SyncPolicy decides which user keys
// participate at all.
//
// Sessions that vanish without unregistering are only reaped when a later
// broadcast fails to find them; there is no heartbeat.
//
// Example:
//
//	reg := rooms.NewRegistry(host, rooms.WithLogger(log))
//	room := reg.Room("r1")
//	if err := room.AttachDurableStore(ctx, "/var/lib/rooms"); err != nil {
//		return err
//	}
//	res, err := room.Sync(ctx, session)
//	if err != nil {
//		return err
//	}
//	if res.Superseded() {
//		return errRerun // host restarts the session
//	}
package rooms
