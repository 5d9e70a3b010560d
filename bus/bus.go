// Package bus is the in-process scoped publish/subscribe system game logic
// uses to notify listeners (logging, broadcast enrichment) without coupling
// to them directly.
package bus

import (
	"log"
	"sync"
	"time"
)

// Scope selects which listeners an event is relevant to. The bus itself does
// not filter by scope — it delivers to every subscriber registered for the
// event's type and leaves filtering to the subscriber.
type Scope int

const (
	// Global events have no selector; every subscriber receives them.
	Global Scope = iota
	// Group events carry a group name selector (e.g. "players", "entities").
	Group
	// Targeted events carry a single target id selector.
	Targeted
)

// Known event type names emitted by the core. The taxonomy is open: any
// string may be used as a type, including ones not listed here.
const (
	EventBump            = "bump"
	EventPlayerJoined    = "playerJoined"
	EventPlayerLeft      = "playerLeft"
	EventSpawn           = "spawn"
	EventScoreChange     = "scoreChange"
	EventGameStateChange = "gameStateChange"
)

// CollisionType classifies why a MovePlayer attempt was rejected.
type CollisionType string

const (
	CollisionWall   CollisionType = "wall"
	CollisionPlayer CollisionType = "player"
	CollisionBounds CollisionType = "bounds"
)

// Event is the internal envelope delivered to subscribers. It is never
// transmitted over the wire. Group and TargetID are only meaningful for
// their matching Scope; Payload is event-type-specific.
type Event struct {
	Type      string
	Scope     Scope
	Group     string
	TargetID  string
	Timestamp time.Time
	Payload   any
}

// Handler receives one event. A handler must not block the emitter for long
// and must never call Publish synchronously for the same Type it is
// currently handling — that would recurse back into Dispatch for that type
// and the bus does not attempt to detect or break such cycles.
type Handler func(Event)

type subscription struct {
	id int
	h  Handler
}

// Bus is a synchronous, per-type fan-out dispatcher. Delivery happens in the
// calling goroutine; subscriber panics are caught and logged so one bad
// listener can never abort dispatch to the rest, or propagate into the
// emitter.
type Bus struct {
	mu          sync.Mutex
	subscribers map[string][]subscription
	nextID      int
}

// New returns an empty Bus.
func New() *Bus {
	return &Bus{subscribers: make(map[string][]subscription)}
}

// Subscribe registers h to receive every event of the given type,
// regardless of scope. The returned function unsubscribes h.
func (b *Bus) Subscribe(eventType string, h Handler) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subscribers[eventType] = append(b.subscribers[eventType], subscription{id: id, h: h})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subscribers[eventType]
		for i, s := range subs {
			if s.id == id {
				b.subscribers[eventType] = append(subs[:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Publish dispatches ev synchronously to every subscriber of ev.Type.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	subs := make([]subscription, len(b.subscribers[ev.Type]))
	copy(subs, b.subscribers[ev.Type])
	b.mu.Unlock()

	for _, s := range subs {
		b.dispatchOne(ev, s.h)
	}
}

func (b *Bus) dispatchOne(ev Event, h Handler) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("bus: subscriber for event %q panicked: %v", ev.Type, r)
		}
	}()
	h(ev)
}
