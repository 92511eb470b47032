// Package memoryhost provides an in-memory host runtime for rooms: a
// rooms.SessionHost plus the sessions it owns. It is suitable for tests,
// development, and single-process servers. All state is ephemeral.
//
// Characteristics
//
//	Durability        : none (RAM only)
//	Horizontal scale  : no (process local)
//	Rerun delivery    : coalescing, non-blocking, best-effort
//	Concurrency       : safe (mutex per session, RWMutex on the session table)
//
// Example:
//
//	host := memoryhost.New()
//	reg := rooms.NewRegistry(host)
//	s := host.NewSession()
//	s.Set("x", 1)
//	res, err := reg.Room("r1").Sync(ctx, s)
//
// A session that ends through EndSession is not unregistered from any room;
// rooms drop it the next time they broadcast.
package memoryhost
