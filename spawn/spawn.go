// Package spawn decides whether a board cell is currently usable as a
// player spawn point.
package spawn

import "github.com/arjwright/gridstrike/board"

// LivePlayer is the minimal view of a player the policy needs: enough to
// test occupancy, nothing about identity or connection state.
type LivePlayer struct {
	X, Y    int
	Waiting bool // true when the player has no position yet
}

// IsAvailable reports whether point is currently usable as a spawn: in
// bounds, not a wall, and with no live player within clearRadius (Manhattan
// distance, closed disk, candidate cell inclusive). Waiting players are
// ignored since they occupy no cell. When the radius-R disk around point
// would extend outside the board, the candidate is rejected outright — the
// full disk must fit within bounds. At R=0 the disk is the cell itself, so
// only the cell's own bounds, wall and occupancy are checked.
func IsAvailable(point board.Point, b *board.Board, livePlayers []LivePlayer, clearRadius int) bool {
	if !b.InBounds(point.X, point.Y) {
		return false
	}
	if b.IsWall(point.X, point.Y) {
		return false
	}
	if !diskFitsInBounds(point, b, clearRadius) {
		return false
	}

	for _, p := range livePlayers {
		if p.Waiting {
			continue
		}
		if manhattan(point.X, point.Y, p.X, p.Y) <= clearRadius {
			return false
		}
	}
	return true
}

func diskFitsInBounds(point board.Point, b *board.Board, clearRadius int) bool {
	return b.InBounds(point.X-clearRadius, point.Y) &&
		b.InBounds(point.X+clearRadius, point.Y) &&
		b.InBounds(point.X, point.Y-clearRadius) &&
		b.InBounds(point.X, point.Y+clearRadius)
}

func manhattan(x1, y1, x2, y2 int) int {
	return abs(x1-x2) + abs(y1-y2)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// AssignSpawn returns the index into spawnPoints of the first currently
// available point, in declaration order, or ok=false when none is free.
func AssignSpawn(spawnPoints []board.Point, b *board.Board, livePlayers []LivePlayer, clearRadius int) (index int, ok bool) {
	for i, p := range spawnPoints {
		if IsAvailable(p, b, livePlayers, clearRadius) {
			return i, true
		}
	}
	return 0, false
}
