package callback

import "sync"

// ListenerHandle identifies a registered listener for later Unregister
// calls.
type ListenerHandle uint64

type listener struct {
	id ListenerHandle
	fn Handler
}

// Bus holds the ordered set of application listeners and delivers events
// to them. It does not own its lock: callers pass in the same lock guarding
// the Device Registry, since registration and delivery must stay
// consistent with registry state changes made by the same goroutines.
// Register/Unregister follow a simple lock-acquire-mutate-release
// discipline; Deliver snapshots the listener list under the lock and
// invokes every handler after releasing it, so a listener calling back
// into Register, Unregister, or any other Bus method from within its
// handler never deadlocks.
type Bus struct {
	mu        sync.Locker
	listeners []listener
	nextID    ListenerHandle
}

// NewBus creates an empty Bus guarded by locker. Callers normally pass
// a Registry's Locker() so Bus and Registry state stay consistent under
// one lock.
func NewBus(locker sync.Locker) *Bus {
	return &Bus{mu: locker}
}

// Register adds h to the ordered listener list and returns a handle for
// later removal. Order of registration is the order of delivery.
func (b *Bus) Register(h Handler) ListenerHandle {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.listeners = append(b.listeners, listener{id: id, fn: h})
	return id
}

// Unregister removes the listener identified by id, if present.
func (b *Bus) Unregister(id ListenerHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, l := range b.listeners {
		if l.id == id {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			return
		}
	}
}

// Len reports the current number of registered listeners.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}

// Deliver invokes every currently-registered listener with ev, in
// registration order. The listener slice is snapshotted under the lock
// and invoked after releasing it, so a listener that registers or
// unregisters another listener during delivery never deadlocks and never
// observes a partially-mutated list.
func (b *Bus) Deliver(ev Event) {
	b.mu.Lock()
	snap := make([]listener, len(b.listeners))
	copy(snap, b.listeners)
	b.mu.Unlock()

	for _, l := range snap {
		l.fn(ev)
	}
}
