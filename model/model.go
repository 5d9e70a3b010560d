// Package model holds the authoritative, mutable game world: the board
// reference, players, bullets, scores, the disconnected-player grace
// buffer, and the respawn queue. It is the only component permitted to
// mutate players, bullets, or scores. All operations are total and
// serialized behind a single lock, grounded on game.GameState's
// sync.RWMutex-guarded struct in the teacher repo.
package model

import (
	"sync"
	"time"

	"github.com/arjwright/gridstrike/board"
	"github.com/arjwright/gridstrike/bus"
	"github.com/arjwright/gridstrike/spawn"
	"github.com/google/uuid"
)

// Config holds the tunables that govern spawn contention, respawn timing,
// and reconnect grace, normally built from the loaded server configuration.
// A zero DisconnectGrace disables the grace buffer; a zero ClearRadius only
// requires the spawn cell itself to be free.
type Config struct {
	RespawnDelay    time.Duration
	DisconnectGrace time.Duration
	ClearRadius     int
}

// RemoveReason distinguishes a transient disconnect (grace-eligible) from a
// permanent departure.
type RemoveReason int

const (
	ReasonDisconnect RemoveReason = iota
	ReasonLeave
)

// SpawnOutcome reports whether SpawnPlayer placed the player or left them
// waiting for a free point.
type SpawnOutcome int

const (
	Spawned SpawnOutcome = iota
	Waiting
)

// Model is the authoritative mutable world. The zero value is not usable;
// construct with New.
type Model struct {
	mu sync.RWMutex

	board  *board.Board
	bus    *bus.Bus
	clock  Clock
	config Config

	players       map[string]*Player
	bullets       map[string]*Bullet
	scores        map[string]int
	disconnected  map[string]*DisconnectedPlayerRecord
	respawnQueue  []*RespawnTask
	waitingOrder  []string // playerIDs in the order they entered the waiting state
	everSpawned   map[string]bool

	running bool
}

// New constructs a Model over brd, publishing events to eventBus and reading
// time from clock.
func New(brd *board.Board, eventBus *bus.Bus, clock Clock, cfg Config) *Model {
	m := &Model{
		board:        brd,
		bus:          eventBus,
		clock:        clock,
		config:       cfg,
		players:      make(map[string]*Player),
		bullets:      make(map[string]*Bullet),
		scores:       make(map[string]int),
		disconnected: make(map[string]*DisconnectedPlayerRecord),
		everSpawned:  make(map[string]bool),
		running:      true,
	}
	m.publish(bus.Event{
		Type:      bus.EventGameStateChange,
		Scope:     bus.Global,
		Timestamp: clock.Now(),
		Payload:   map[string]bool{"running": true},
	})
	return m
}

func newID(prefix string) string {
	return prefix + "-" + uuid.New().String()
}

// AddPlayer inserts a new player with no position (waiting). Fails with
// ErrDuplicatePlayer if playerID already exists.
func (m *Model) AddPlayer(clientID, playerID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.players[playerID]; exists {
		return ErrDuplicatePlayer
	}

	m.players[playerID] = &Player{
		ID:         playerID,
		Name:       name,
		ClientID:   clientID,
		SpawnIndex: -1,
	}
	m.scores[playerID] = 0
	return nil
}

// SpawnPlayer attempts to place playerID at the first available spawn
// point. On success it sets the position and emits a targeted "spawn"
// event; on the player's first ever spawn it also emits a global
// "playerJoined" event. On failure it leaves the player waiting and
// returns Waiting, nil.
func (m *Model) SpawnPlayer(playerID string) (SpawnOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.spawnPlayerLocked(playerID)
}

func (m *Model) spawnPlayerLocked(playerID string) (SpawnOutcome, error) {
	p, ok := m.players[playerID]
	if !ok {
		return Waiting, ErrUnknownPlayer
	}

	points := m.board.SpawnPoints()
	idx, ok := spawn.AssignSpawn(points, m.board, m.liveOthersLocked(""), m.config.ClearRadius)
	if !ok {
		if !p.Waiting() {
			p.clearPosition()
		}
		m.enqueueWaitingLocked(playerID)
		return Waiting, nil
	}

	m.dequeueWaitingLocked(playerID)
	pt := points[idx]
	p.setPosition(m.clock, pt.X, pt.Y)
	p.SpawnIndex = idx

	m.publish(bus.Event{
		Type:      bus.EventSpawn,
		Scope:     bus.Targeted,
		TargetID:  playerID,
		Timestamp: m.clock.Now(),
		Payload:   map[string]int{"x": pt.X, "y": pt.Y, "spawnIndex": idx},
	})

	if !m.everSpawned[playerID] {
		m.everSpawned[playerID] = true
		m.publish(bus.Event{
			Type:      bus.EventPlayerJoined,
			Scope:     bus.Global,
			Timestamp: m.clock.Now(),
			Payload:   map[string]string{"playerId": playerID, "name": p.Name},
		})
	}

	return Spawned, nil
}

func (m *Model) enqueueWaitingLocked(playerID string) {
	for _, id := range m.waitingOrder {
		if id == playerID {
			return
		}
	}
	m.waitingOrder = append(m.waitingOrder, playerID)
}

func (m *Model) dequeueWaitingLocked(playerID string) {
	for i, id := range m.waitingOrder {
		if id == playerID {
			m.waitingOrder = append(m.waitingOrder[:i], m.waitingOrder[i+1:]...)
			return
		}
	}
}

// liveOthersLocked returns every live player as a spawn.LivePlayer,
// excluding excludeID (pass "" to exclude none).
func (m *Model) liveOthersLocked(excludeID string) []spawn.LivePlayer {
	out := make([]spawn.LivePlayer, 0, len(m.players))
	for id, p := range m.players {
		if id == excludeID {
			continue
		}
		if p.Waiting() {
			out = append(out, spawn.LivePlayer{Waiting: true})
			continue
		}
		out = append(out, spawn.LivePlayer{X: *p.X, Y: *p.Y})
	}
	return out
}

func (m *Model) publish(ev bus.Event) {
	if m.bus == nil {
		return
	}
	m.bus.Publish(ev)
}
