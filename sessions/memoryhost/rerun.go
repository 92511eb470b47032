package memoryhost

import "sync"

// rerunSignal is an in-process fan-out of rerun requests. Requests coalesce:
// a subscriber that has not consumed the previous signal sees one pending
// signal, not many.
type rerunSignal struct {
	subscribers   []chan struct{}
	subscribersMu sync.RWMutex
	closed        bool
}

// Notify signals every subscriber without blocking.
func (rs *rerunSignal) Notify() {
	rs.subscribersMu.RLock()
	defer rs.subscribersMu.RUnlock()

	if rs.closed {
		return
	}

	for _, ch := range rs.subscribers {
		select {
		case ch <- struct{}{}:
		default:
			// a rerun is already pending
		}
	}
}

func (rs *rerunSignal) Close() {
	// Take exclusive lock so that no Notify holds a read lock while we swap/close.
	rs.subscribersMu.Lock()
	if rs.closed {
		rs.subscribersMu.Unlock()
		return
	}
	rs.closed = true
	subs := rs.subscribers
	rs.subscribers = nil
	rs.subscribersMu.Unlock()

	for _, ch := range subs {
		close(ch)
	}
}

// Subscriber returns a channel that receives a signal whenever Notify is
// called. The channel is closed when the session ends.
func (rs *rerunSignal) Subscriber() <-chan struct{} {
	rs.subscribersMu.Lock()
	defer rs.subscribersMu.Unlock()

	if rs.closed {
		ch := make(chan struct{})
		close(ch)
		return ch
	}

	ch := make(chan struct{}, 1)
	rs.subscribers = append(rs.subscribers, ch)
	return ch
}
