package auth

import (
	"sync"
	"time"
)

// Event describes one session state transition.
type Event struct {
	UserID   string
	SignedIn bool
	At       time.Time
}

// Events broadcasts sign-in and sign-out transitions to subscribers. It
// replaces ambient global auth state with an explicit subscription surface.
type Events struct {
	mu   sync.Mutex
	next int
	subs map[int]func(Event)
}

// NewEvents creates a new event publisher
func NewEvents() *Events {
	return &Events{subs: make(map[int]func(Event))}
}

// Subscribe registers fn for future events and returns a cancel function.
func (e *Events) Subscribe(fn func(Event)) (cancel func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.next
	e.next++
	e.subs[id] = fn

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.subs, id)
	}
}

// Publish delivers ev to every current subscriber.
func (e *Events) Publish(ev Event) {
	e.mu.Lock()
	fns := make([]func(Event), 0, len(e.subs))
	for _, fn := range e.subs {
		fns = append(fns, fn)
	}
	e.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
