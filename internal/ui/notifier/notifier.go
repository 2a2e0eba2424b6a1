// Package notifier provides a keyed broadcast mechanism for SSE updates.
package notifier

import "sync"

// Notifier sends update pings to listeners grouped by key. A key is a
// workspace id: every open tab of one browser session listens on the same
// key. Listeners receive an empty struct and should re-read the workspace.
type Notifier struct {
	mu        sync.RWMutex
	listeners map[string]map[chan struct{}]struct{}
}

// New creates a new Notifier instance.
func New() *Notifier {
	return &Notifier{
		listeners: make(map[string]map[chan struct{}]struct{}),
	}
}

// Subscribe returns a channel that receives pings for key.
// The caller must call Unsubscribe when done.
func (n *Notifier) Subscribe(key string) chan struct{} {
	ch := make(chan struct{}, 1)
	n.mu.Lock()
	set, ok := n.listeners[key]
	if !ok {
		set = make(map[chan struct{}]struct{})
		n.listeners[key] = set
	}
	set[ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel and closes it.
func (n *Notifier) Unsubscribe(key string, ch chan struct{}) {
	n.mu.Lock()
	if set, ok := n.listeners[key]; ok {
		delete(set, ch)
		if len(set) == 0 {
			delete(n.listeners, key)
		}
	}
	n.mu.Unlock()
	close(ch)
}

// Notify pings every listener of the given keys.
// Non-blocking: if a listener's channel is full, the ping is skipped.
func (n *Notifier) Notify(keys ...string) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for _, key := range keys {
		for ch := range n.listeners[key] {
			ping(ch)
		}
	}
}

// Listeners returns the number of subscribed channels.
func (n *Notifier) Listeners() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	total := 0
	for _, set := range n.listeners {
		total += len(set)
	}
	return total
}

func ping(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
		// Channel full; the listener already has a pending ping.
	}
}
