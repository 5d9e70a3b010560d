package model

import "github.com/arjwright/gridstrike/bus"

// Snapshot is the complete, self-contained serialization of the world used
// as the broadcast payload (see protocol.GameState for the wire-facing
// alias of this shape).
type Snapshot struct {
	Board   BoardSnapshot    `json:"board"`
	Players []PlayerSnapshot `json:"players"`
	Bullets []BulletSnapshot `json:"bullets"`
	Scores  map[string]int   `json:"scores"`
	Running bool             `json:"running"`
}

// BoardSnapshot is the static grid sent to clients. Cells are single
// characters: "." empty, "#" wall. Rendering into a richer display object
// is a client concern, out of scope here.
type BoardSnapshot struct {
	Width  int        `json:"width"`
	Height int        `json:"height"`
	Grid   [][]string `json:"grid"`
}

// PlayerSnapshot serializes one player. X and Y are nil while waiting for a
// spawn point. Vx, Vy are cells-per-second, derived from the last applied
// move.
type PlayerSnapshot struct {
	PlayerID   string  `json:"playerId"`
	PlayerName string  `json:"playerName"`
	X          *int    `json:"x"`
	Y          *int    `json:"y"`
	Vx         float64 `json:"vx"`
	Vy         float64 `json:"vy"`
}

// BulletSnapshot serializes one in-flight bullet.
type BulletSnapshot struct {
	BulletID string `json:"bulletId"`
	PlayerID string `json:"playerId"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Dx       int    `json:"dx"`
	Dy       int    `json:"dy"`
}

// SerializeSnapshot produces the wire snapshot of the current world state.
// It has no hidden state: two successive calls without intervening
// mutation produce identical results, modulo vx/vy recomputation against
// the current clock reading.
func (m *Model) SerializeSnapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := m.clock.Now()

	players := make([]PlayerSnapshot, 0, len(m.players))
	for _, p := range m.players {
		vx, vy := p.velocity(now)
		players = append(players, PlayerSnapshot{
			PlayerID:   p.ID,
			PlayerName: p.Name,
			X:          p.X,
			Y:          p.Y,
			Vx:         vx,
			Vy:         vy,
		})
	}

	bullets := make([]BulletSnapshot, 0, len(m.bullets))
	for _, b := range m.bullets {
		bullets = append(bullets, BulletSnapshot{
			BulletID: b.ID,
			PlayerID: b.PlayerID,
			X:        b.X,
			Y:        b.Y,
			Dx:       b.Dx,
			Dy:       b.Dy,
		})
	}

	scores := make(map[string]int, len(m.scores))
	for id, s := range m.scores {
		scores[id] = s
	}

	return Snapshot{
		Board:   m.boardSnapshotLocked(),
		Players: players,
		Bullets: bullets,
		Scores:  scores,
		Running: m.running,
	}
}

func (m *Model) boardSnapshotLocked() BoardSnapshot {
	w, h := m.board.Width(), m.board.Height()
	grid := make([][]string, h)
	for y := 0; y < h; y++ {
		row := make([]string, w)
		for x := 0; x < w; x++ {
			if m.board.IsWall(x, y) {
				row[x] = "#"
			} else {
				row[x] = "."
			}
		}
		grid[y] = row
	}
	return BoardSnapshot{Width: w, Height: h, Grid: grid}
}

// Stop marks the model as no longer running; SerializeSnapshot's "running"
// field reflects this on the next call.
func (m *Model) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = false
	m.publish(bus.Event{
		Type:      bus.EventGameStateChange,
		Scope:     bus.Global,
		Timestamp: m.clock.Now(),
		Payload:   map[string]bool{"running": false},
	})
}
