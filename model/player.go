package model

import "time"

// Player is a connected avatar. Position is either both nil (waiting for a
// spawn point) or both set, in bounds, and on a non-wall cell not shared
// with any other live player.
type Player struct {
	ID         string
	Name       string
	ClientID   string
	SpawnIndex int // index into the board's spawn points, or -1 when waiting

	X, Y *int

	// Velocity bookkeeping, used only to derive vx/vy at serialization time.
	lastX, lastY int
	lastT        time.Time
	hasLast      bool
}

// Waiting reports whether the player currently has no position.
func (p *Player) Waiting() bool { return p.X == nil || p.Y == nil }

func (p *Player) setPosition(clock Clock, x, y int) {
	if p.X != nil && p.Y != nil {
		p.lastX, p.lastY = *p.X, *p.Y
		p.lastT = clock.Now()
		p.hasLast = true
	}
	p.X, p.Y = &x, &y
}

func (p *Player) clearPosition() {
	p.X, p.Y = nil, nil
	p.SpawnIndex = -1
	p.hasLast = false
}

// velocity derives cells-per-second velocity from the last applied move, as
// of now. Returns (0,0) when there is no prior position to compare against
// or no elapsed time.
func (p *Player) velocity(now time.Time) (vx, vy float64) {
	if !p.hasLast || p.X == nil || p.Y == nil {
		return 0, 0
	}
	dt := now.Sub(p.lastT).Seconds()
	if dt <= 0 {
		return 0, 0
	}
	return float64(*p.X-p.lastX) / dt, float64(*p.Y-p.lastY) / dt
}
