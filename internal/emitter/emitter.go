// Package emitter provides payload-less change notification with explicit
// listener registration.
package emitter

import (
	"slices"
	"sync"
)

// Listener is called once per emitted change.
type Listener func()

// Subscription identifies a registered listener. The zero value is never
// returned by On and is safe to pass to Off.
type Subscription uint64

type entry struct {
	id       Subscription
	listener Listener
}

// Emitter fans a change notification out to every registered listener. It is
// safe for concurrent use. Listeners run on the emitting goroutine and may
// call On or Off from inside the callback.
type Emitter struct {
	mu        sync.Mutex
	next      Subscription
	listeners []entry
}

// On registers a listener and returns its subscription.
func (e *Emitter) On(listener Listener) Subscription {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.next++
	e.listeners = append(e.listeners, entry{id: e.next, listener: listener})
	return e.next
}

// Off removes a listener. Removing an unknown subscription is a no-op.
func (e *Emitter) Off(sub Subscription) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.listeners = slices.DeleteFunc(e.listeners, func(en entry) bool {
		return en.id == sub
	})
}

// Emit notifies every listener registered at the time of the call.
func (e *Emitter) Emit() {
	e.mu.Lock()
	snapshot := slices.Clone(e.listeners)
	e.mu.Unlock()

	for _, en := range snapshot {
		en.listener()
	}
}

// Len returns the number of registered listeners.
func (e *Emitter) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners)
}
