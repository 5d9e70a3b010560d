package model

// FireBullet spawns a bullet at playerID's current cell traveling in
// direction (dx,dy): exactly one of dx,dy must be non-zero, the other zero,
// each in {-1,0,1}. A player may have at most one live bullet at a time.
func (m *Model) FireBullet(playerID string, dx, dy int) (*Bullet, error) {
	if !validDeltaPair(dx, dy) || !exactlyOneNonZero(dx, dy) {
		return nil, ErrInvalidDirection
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.players[playerID]
	if !ok {
		return nil, ErrUnknownPlayer
	}
	if p.Waiting() {
		return nil, ErrNotSpawned
	}
	if m.playerHasBulletLocked(playerID) {
		return nil, ErrBulletInFlight
	}

	b := &Bullet{
		ID:       newID("bullet"),
		PlayerID: playerID,
		X:        *p.X,
		Y:        *p.Y,
		Dx:       dx,
		Dy:       dy,
	}
	m.bullets[b.ID] = b
	return b, nil
}

func exactlyOneNonZero(dx, dy int) bool {
	return (dx != 0) != (dy != 0)
}

func (m *Model) playerHasBulletLocked(playerID string) bool {
	for _, b := range m.bullets {
		if b.PlayerID == playerID {
			return true
		}
	}
	return false
}

// TickSummary reports the outcome of one TickBullets call.
type TickSummary struct {
	Kills []Kill
}

// TickBullets advances every live bullet by one cell and resolves
// collisions:
//
//  1. Out of bounds or a wall destroys the bullet with no damage.
//  2. A different live player on the new cell destroys the bullet and
//     kills that player.
//  3. The bullet's own owner on the new cell destroys the bullet; the
//     owner is not harmed.
//  4. Otherwise the bullet advances to the new cell.
//
// Bullets do not interact with each other; they pass through.
func (m *Model) TickBullets() TickSummary {
	m.mu.Lock()
	defer m.mu.Unlock()

	var summary TickSummary

	for id, b := range m.bullets {
		nx, ny := b.X+b.Dx, b.Y+b.Dy

		if !m.board.InBounds(nx, ny) || m.board.IsWall(nx, ny) {
			delete(m.bullets, id)
			continue
		}

		occupant := m.liveOccupantLocked(nx, ny, "")
		switch {
		case occupant == "":
			b.X, b.Y = nx, ny
		case occupant == b.PlayerID:
			delete(m.bullets, id)
		default:
			delete(m.bullets, id)
			m.killLocked(occupant, b.PlayerID)
			summary.Kills = append(summary.Kills, Kill{KillerID: b.PlayerID, VictimID: occupant})
		}
	}

	return summary
}
