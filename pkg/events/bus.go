package events

import "sync"

// Subscription identifies a registered handler so it can be removed.
// Handlers themselves are funcs and cannot be compared.
type Subscription struct {
	event Event
	id    uint64
}

type registration struct {
	id      uint64
	handler Handler
}

// Bus is a synchronous publish/subscribe registry for session lifecycle
// events. Handlers run in registration order on the dispatching
// goroutine, i.e. inside the request path. The bus does not isolate
// handler panics; callers needing isolation wrap their own handlers.
//
// All methods are safe for concurrent use.
type Bus struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[Event][]registration
}

// NewBus returns an empty event bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[Event][]registration)}
}

// On registers a handler for an event and returns a subscription handle
// for later removal. Nil handlers are ignored.
func (b *Bus) On(event Event, handler Handler) Subscription {
	if handler == nil {
		return Subscription{}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.handlers[event] = append(b.handlers[event], registration{id: b.nextID, handler: handler})
	return Subscription{event: event, id: b.nextID}
}

// Remove deregisters a previously registered handler. Removing an
// unknown or already-removed subscription is a no-op.
func (b *Bus) Remove(sub Subscription) {
	if sub.id == 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	regs := b.handlers[sub.event]
	for i, reg := range regs {
		if reg.id == sub.id {
			b.handlers[sub.event] = append(regs[:i:i], regs[i+1:]...)
			return
		}
	}
}

// Dispatch invokes every handler registered for the event, in
// registration order, passing the payload to each.
func (b *Bus) Dispatch(event Event, payload any) {
	b.mu.RLock()
	regs := b.handlers[event]
	b.mu.RUnlock()

	for _, reg := range regs {
		reg.handler(payload)
	}
}
