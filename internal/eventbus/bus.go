// Package eventbus provides the synchronous publish/subscribe hub every
// game system communicates through. Dispatch is priority-ordered and runs
// on the caller's goroutine; there is no queuing or deferral.
package eventbus

import (
	"log/slog"
	"sync"
)

// Handler receives the payload published with an event.
type Handler func(payload any)

// Options control how a handler is registered.
type Options struct {
	Once     bool // remove the handler after its first invocation
	Priority int  // higher runs first; ties keep insertion order
}

type entry struct {
	id       uint64
	priority int
	once     bool
	fired    bool
	fn       Handler
}

// Subscription identifies one registered handler and can cancel it.
type Subscription struct {
	bus   *Bus
	event string
	id    uint64
}

// Unsubscribe removes the handler. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.bus == nil {
		return
	}
	s.bus.remove(s.event, s.id)
	s.bus = nil
}

// Bus is a synchronous event dispatcher. Publish invokes a snapshot of the
// handler list, so handlers added or removed during dispatch do not affect
// the pass already in flight.
type Bus struct {
	mu        sync.Mutex
	listeners map[string][]*entry
	nextID    uint64
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{listeners: make(map[string][]*entry)}
}

// Subscribe registers a handler for the named event.
func (b *Bus) Subscribe(event string, fn Handler, opts ...Options) *Subscription {
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	e := &entry{id: b.nextID, priority: o.Priority, once: o.Once, fn: fn}

	list := b.listeners[event]
	inserted := false
	for i := range list {
		if list[i].priority < e.priority {
			list = append(list[:i], append([]*entry{e}, list[i:]...)...)
			inserted = true
			break
		}
	}
	if !inserted {
		list = append(list, e)
	}
	b.listeners[event] = list

	return &Subscription{bus: b, event: event, id: e.id}
}

// Once registers a handler that is removed after its first invocation.
func (b *Bus) Once(event string, fn Handler, opts ...Options) *Subscription {
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}
	o.Once = true
	return b.Subscribe(event, fn, o)
}

// Publish synchronously invokes every handler registered for the event, in
// priority order. A panicking handler is logged and skipped; its siblings
// still run.
func (b *Bus) Publish(event string, payload any) {
	b.mu.Lock()
	list := b.listeners[event]
	snapshot := make([]*entry, len(list))
	copy(snapshot, list)
	b.mu.Unlock()

	for _, e := range snapshot {
		if e.once {
			b.mu.Lock()
			already := e.fired
			e.fired = true
			b.mu.Unlock()
			if already {
				continue
			}
		}
		invoke(event, e, payload)
		if e.once {
			b.remove(event, e.id)
		}
	}
}

func invoke(event string, e *entry, payload any) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("event handler panicked", "event", event, "panic", r)
		}
	}()
	e.fn(payload)
}

// Clear removes every handler for the named event.
func (b *Bus) Clear(event string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.listeners, event)
}

// Reset removes every handler for every event.
func (b *Bus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = make(map[string][]*entry)
}

// ListenerCount reports how many handlers are registered for the event.
func (b *Bus) ListenerCount(event string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners[event])
}

func (b *Bus) remove(event string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	list := b.listeners[event]
	for i := range list {
		if list[i].id == id {
			b.listeners[event] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(b.listeners[event]) == 0 {
		delete(b.listeners, event)
	}
}
