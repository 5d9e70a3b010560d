// Package registry tracks transport bindings and their metadata: which
// clientId maps to which playerId, and when each connection was last heard
// from. It owns no game state and never touches model.Model.
package registry

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Conn is the metadata kept for one connected transport. Transport is an
// opaque handle (the server package's *Client); the registry never
// dereferences it.
type Conn struct {
	ClientID     string
	PlayerID     string // empty until SetPlayerId is called
	PlayerName   string
	Transport    any
	ConnectedAt  time.Time
	LastActivity time.Time
	active       bool
}

// Registry is independently locked from model.Model, mirroring the
// teacher's separate Server.mu versus gameState.Mu.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*Conn
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{conns: make(map[string]*Conn)}
}

// AddConnection records a new transport binding and returns its clientId.
func (r *Registry) AddConnection(transport any, now time.Time) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := newClientID()
	r.conns[id] = &Conn{
		ClientID:     id,
		Transport:    transport,
		ConnectedAt:  now,
		LastActivity: now,
		active:       true,
	}
	return id
}

// RemoveConnection marks clientId as no longer active. The entry is kept
// retrievable for a reconnect window; callers that need it gone entirely
// should not rely on the registry for that (the grace buffer lives in
// model.Model).
func (r *Registry) RemoveConnection(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.conns[clientID]; ok {
		c.active = false
	}
}

// SetTransport rebinds clientId's transport handle. Used when the handle
// (e.g. *server.Client) can only be constructed after AddConnection has
// already minted the clientId it needs to carry.
func (r *Registry) SetTransport(clientID string, transport any) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conns[clientID]
	if !ok {
		return false
	}
	c.Transport = transport
	return true
}

// SetPlayerId binds clientId to playerId. Returns false if clientId is
// unknown.
func (r *Registry) SetPlayerId(clientID, playerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conns[clientID]
	if !ok {
		return false
	}
	c.PlayerID = playerID
	return true
}

// GetPlayerId returns the playerId bound to clientId, or "" if none.
func (r *Registry) GetPlayerId(clientID string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.conns[clientID]
	if !ok {
		return ""
	}
	return c.PlayerID
}

// SetPlayerName records the display name associated with clientId.
func (r *Registry) SetPlayerName(clientID, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conns[clientID]
	if !ok {
		return false
	}
	c.PlayerName = name
	return true
}

// UpdateActivity stamps clientId's LastActivity to now.
func (r *Registry) UpdateActivity(clientID string, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.conns[clientID]; ok {
		c.LastActivity = now
	}
}

// Get returns a copy of clientId's current metadata, or ok=false if
// unknown.
func (r *Registry) Get(clientID string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.conns[clientID]
	if !ok {
		return Conn{}, false
	}
	return *c, true
}

// AllActive returns a snapshot of every currently active connection's
// transport handle, for broadcast. The returned slice is safe to range
// over without holding the registry lock.
func (r *Registry) AllActive() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Conn, 0, len(r.conns))
	for _, c := range r.conns {
		if c.active {
			out = append(out, *c)
		}
	}
	return out
}

func newClientID() string {
	return "client-" + uuid.New().String()
}
