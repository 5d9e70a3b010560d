package model

import "github.com/arjwright/gridstrike/bus"

// MovePlayer attempts to move playerID by exactly one cell in direction
// (dx,dy), each in {-1,0,1} and not both zero. On rejection it emits a
// targeted "bump" event describing the attempted position, the current
// position, and the collision type, and returns ErrMoveFailed; state is
// unchanged. Movement never crosses more than one cell per call.
func (m *Model) MovePlayer(playerID string, dx, dy int) error {
	if !validDeltaPair(dx, dy) || (dx == 0 && dy == 0) {
		return ErrInvalidMove
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.players[playerID]
	if !ok {
		return ErrUnknownPlayer
	}
	if p.Waiting() {
		return ErrNotSpawned
	}

	x, y := *p.X, *p.Y
	nx, ny := x+dx, y+dy

	if !m.board.InBounds(nx, ny) {
		m.emitBump(playerID, nx, ny, x, y, bus.CollisionBounds)
		return ErrMoveFailed
	}
	if m.board.IsWall(nx, ny) {
		m.emitBump(playerID, nx, ny, x, y, bus.CollisionWall)
		return ErrMoveFailed
	}
	if occupant := m.liveOccupantLocked(nx, ny, playerID); occupant != "" {
		m.emitBump(playerID, nx, ny, x, y, bus.CollisionPlayer)
		return ErrMoveFailed
	}

	p.setPosition(m.clock, nx, ny)
	return nil
}

func (m *Model) emitBump(playerID string, nx, ny, x, y int, collision bus.CollisionType) {
	m.publish(bus.Event{
		Type:      bus.EventBump,
		Scope:     bus.Targeted,
		TargetID:  playerID,
		Timestamp: m.clock.Now(),
		Payload: map[string]any{
			"attemptedPosition": map[string]int{"x": nx, "y": ny},
			"currentPosition":   map[string]int{"x": x, "y": y},
			"collisionType":     collision,
		},
	})
}

// liveOccupantLocked returns the playerID of the live (non-waiting, not
// excluded) player occupying (x,y), or "" if none.
func (m *Model) liveOccupantLocked(x, y int, exclude string) string {
	for id, p := range m.players {
		if id == exclude || p.Waiting() {
			continue
		}
		if *p.X == x && *p.Y == y {
			return id
		}
	}
	return ""
}

func validDelta(d int) bool { return d >= -1 && d <= 1 }

func validDeltaPair(dx, dy int) bool { return validDelta(dx) && validDelta(dy) }
