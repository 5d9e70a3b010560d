package model

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/arjwright/gridstrike/board"
	"github.com/arjwright/gridstrike/bus"
	"github.com/stretchr/testify/require"
)

// bordered writes and loads a w*h board with perimeter walls, an empty
// interior, and a single spawn point at (1,1) unless extraSpawns adds more.
func bordered(t *testing.T, w, h int, extraSpawns ...board.Point) *board.Board {
	t.Helper()
	dir := t.TempDir()

	isExtraSpawn := func(x, y int) bool {
		for _, p := range extraSpawns {
			if p.X == x && p.Y == y {
				return true
			}
		}
		return false
	}

	type rle struct {
		Entity int `json:"entity"`
	}
	entries := make([]rle, 0, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			switch {
			case x == 0 || y == 0 || x == w-1 || y == h-1:
				entries = append(entries, rle{Entity: board.CellWall})
			case x == 1 && y == 1:
				entries = append(entries, rle{Entity: board.CellSpawn})
			case isExtraSpawn(x, y):
				entries = append(entries, rle{Entity: board.CellSpawn})
			default:
				entries = append(entries, rle{Entity: board.CellEmpty})
			}
		}
	}

	boardPath := filepath.Join(dir, "b.board.json")
	cfgPath := filepath.Join(dir, "b.board.config.json")

	data, err := json.Marshal(entries)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(boardPath, data, 0o644))

	dim := struct{ Width, Height int }{w, h}
	dimData, err := json.Marshal(dim)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cfgPath, dimData, 0o644))

	b, err := board.Load(boardPath)
	require.NoError(t, err)
	return b
}

func newTestModel(t *testing.T, b *board.Board) (*Model, *FixedClock) {
	t.Helper()
	clock := NewFixedClock(time.Unix(1_700_000_000, 0))
	// ClearRadius 0 keeps these tests focused on Model's own contention and
	// lifecycle logic; the geometry of non-zero radii is exercised directly
	// in the spawn package's own tests.
	m := New(b, bus.New(), clock, Config{
		RespawnDelay:    2 * time.Second,
		DisconnectGrace: 60 * time.Second,
		ClearRadius:     0,
	})
	return m, clock
}

func TestAddPlayerRejectsDuplicate(t *testing.T) {
	m, _ := newTestModel(t, bordered(t, 10, 10))
	require.NoError(t, m.AddPlayer("c1", "p1", "Ann"))
	require.ErrorIs(t, m.AddPlayer("c2", "p1", "Bob"), ErrDuplicatePlayer)
}

func TestSpawnPlayerSuccessAndWaiting(t *testing.T) {
	m, _ := newTestModel(t, bordered(t, 5, 5)) // single spawn point
	require.NoError(t, m.AddPlayer("c1", "p1", "Ann"))

	outcome, err := m.SpawnPlayer("p1")
	require.NoError(t, err)
	require.Equal(t, Spawned, outcome)

	require.NoError(t, m.AddPlayer("c2", "p2", "Bob"))
	outcome, err = m.SpawnPlayer("p2")
	require.NoError(t, err)
	require.Equal(t, Waiting, outcome)

	snap := m.SerializeSnapshot()
	var p2 *PlayerSnapshot
	for i := range snap.Players {
		if snap.Players[i].PlayerID == "p2" {
			p2 = &snap.Players[i]
		}
	}
	require.NotNil(t, p2)
	require.Nil(t, p2.X)
	require.Nil(t, p2.Y)
}

// S1: solo move.
func TestMovePlayerSolo(t *testing.T) {
	m, clock := newTestModel(t, bordered(t, 20, 20))
	require.NoError(t, m.AddPlayer("c1", "p1", "Ann"))
	_, err := m.SpawnPlayer("p1")
	require.NoError(t, err)

	snap := m.SerializeSnapshot()
	startX := *snap.Players[0].X

	clock.Advance(500 * time.Millisecond)
	require.NoError(t, m.MovePlayer("p1", 1, 0))
	// The next snapshot is taken some time after the move.
	clock.Advance(500 * time.Millisecond)

	snap = m.SerializeSnapshot()
	require.Equal(t, startX+1, *snap.Players[0].X)
	require.Greater(t, snap.Players[0].Vx, 0.0)
	require.Equal(t, 0.0, snap.Players[0].Vy)
	require.Equal(t, 0, snap.Scores["p1"])
}

// A respawned player must report zero velocity even though its previous
// life had a nonzero one — clearPosition must wipe the velocity bookkeeping
// along with the position, not just X/Y/SpawnIndex.
func TestRespawnAfterKillResetsVelocity(t *testing.T) {
	m, clock := newTestModel(t, bordered(t, 20, 20, board.Point{X: 10, Y: 10}))
	require.NoError(t, m.AddPlayer("c1", "p1", "Ann"))
	_, err := m.SpawnPlayer("p1")
	require.NoError(t, err)

	clock.Advance(500 * time.Millisecond)
	require.NoError(t, m.MovePlayer("p1", 1, 0))
	clock.Advance(500 * time.Millisecond)

	snap := m.SerializeSnapshot()
	require.Greater(t, snap.Players[0].Vx, 0.0)

	require.NoError(t, m.Kill("p1", "p2"))
	clock.Advance(m.config.RespawnDelay)
	respawned := m.ProcessRespawns()
	require.Contains(t, respawned, "p1")

	snap = m.SerializeSnapshot()
	require.Equal(t, 0.0, snap.Players[0].Vx)
	require.Equal(t, 0.0, snap.Players[0].Vy)
}

// S2: wall bump.
func TestMovePlayerWallBump(t *testing.T) {
	m, _ := newTestModel(t, bordered(t, 6, 6))
	require.NoError(t, m.AddPlayer("c1", "p1", "Ann"))
	_, err := m.SpawnPlayer("p1")
	require.NoError(t, err)

	var gotBump bool
	var collision bus.CollisionType
	eb := bus.New()
	eb.Subscribe(bus.EventBump, func(e bus.Event) {
		gotBump = true
		collision = e.Payload.(map[string]any)["collisionType"].(bus.CollisionType)
	})
	m.bus = eb

	// Walk to the right-most interior cell (4,1) then bump the wall at x=5.
	for i := 0; i < 3; i++ {
		require.NoError(t, m.MovePlayer("p1", 1, 0))
	}
	snap := m.SerializeSnapshot()
	before := *snap.Players[0].X

	err = m.MovePlayer("p1", 1, 0)
	require.ErrorIs(t, err, ErrMoveFailed)
	require.True(t, gotBump)
	require.Equal(t, bus.CollisionWall, collision)

	snap = m.SerializeSnapshot()
	require.Equal(t, before, *snap.Players[0].X)
}

func TestMovePlayerInvalidDelta(t *testing.T) {
	m, _ := newTestModel(t, bordered(t, 6, 6))
	require.NoError(t, m.AddPlayer("c1", "p1", "Ann"))
	_, _ = m.SpawnPlayer("p1")

	require.ErrorIs(t, m.MovePlayer("p1", 0, 0), ErrInvalidMove)
	require.ErrorIs(t, m.MovePlayer("p1", 2, 0), ErrInvalidMove)
}

func TestMovePlayerRejectsOccupiedCell(t *testing.T) {
	m, _ := newTestModel(t, bordered(t, 8, 8))
	require.NoError(t, m.AddPlayer("c1", "p1", "Ann"))
	require.NoError(t, m.AddPlayer("c2", "p2", "Bob"))
	placePlayer(t, m, "p1", 1, 1)
	placePlayer(t, m, "p2", 3, 1)

	// p1 at (1,1), p2 at (3,1): move p1 right twice to bump into p2.
	require.NoError(t, m.MovePlayer("p1", 1, 0))
	err := m.MovePlayer("p1", 1, 0)
	require.ErrorIs(t, err, ErrMoveFailed)
}

// S3: player kill via bullet collision.
func TestFireAndTickKillsOpponent(t *testing.T) {
	m, _ := newTestModel(t, bordered(t, 10, 10, board.Point{X: 6, Y: 5}, board.Point{X: 5, Y: 5}))
	require.NoError(t, m.AddPlayer("cA", "A", "Ann"))
	require.NoError(t, m.AddPlayer("cB", "B", "Bob"))

	// Force deterministic positions instead of relying on spawn order.
	placePlayer(t, m, "A", 5, 5)
	placePlayer(t, m, "B", 6, 5)

	_, err := m.FireBullet("A", 1, 0)
	require.NoError(t, err)

	summary := m.TickBullets()
	require.Len(t, summary.Kills, 1)
	require.Equal(t, Kill{KillerID: "A", VictimID: "B"}, summary.Kills[0])

	snap := m.SerializeSnapshot()
	require.Equal(t, 1, snap.Scores["A"])

	var bPlayer *PlayerSnapshot
	for i := range snap.Players {
		if snap.Players[i].PlayerID == "B" {
			bPlayer = &snap.Players[i]
		}
	}
	require.NotNil(t, bPlayer)
	require.Nil(t, bPlayer.X)
}

// S4: one bullet per player.
func TestFireBulletInFlight(t *testing.T) {
	m, _ := newTestModel(t, bordered(t, 10, 10))
	require.NoError(t, m.AddPlayer("c1", "p1", "Ann"))
	_, _ = m.SpawnPlayer("p1")

	_, err := m.FireBullet("p1", 1, 0)
	require.NoError(t, err)

	_, err = m.FireBullet("p1", 0, 1)
	require.ErrorIs(t, err, ErrBulletInFlight)

	// Let the bullet leave the board (run enough ticks).
	for i := 0; i < 20; i++ {
		m.TickBullets()
	}
	_, err = m.FireBullet("p1", 1, 0)
	require.NoError(t, err)
}

func TestFireBulletInvalidDirection(t *testing.T) {
	m, _ := newTestModel(t, bordered(t, 10, 10))
	require.NoError(t, m.AddPlayer("c1", "p1", "Ann"))
	_, _ = m.SpawnPlayer("p1")

	_, err := m.FireBullet("p1", 0, 0)
	require.ErrorIs(t, err, ErrInvalidDirection)

	_, err = m.FireBullet("p1", 1, 1)
	require.ErrorIs(t, err, ErrInvalidDirection)
}

func TestBulletSelfIntersectionDoesNotHarmOwner(t *testing.T) {
	m, _ := newTestModel(t, bordered(t, 6, 6))
	require.NoError(t, m.AddPlayer("c1", "p1", "Ann"))
	_, _ = m.SpawnPlayer("p1")

	// Fire leaves the bullet at the player's current cell; then the player
	// steps ahead of it in the same direction, so the bullet's next advance
	// lands on its own owner.
	_, err := m.FireBullet("p1", 1, 0)
	require.NoError(t, err)
	require.NoError(t, m.MovePlayer("p1", 1, 0))

	summary := m.TickBullets()
	require.Empty(t, summary.Kills)

	snap := m.SerializeSnapshot()
	require.Equal(t, 0, snap.Scores["p1"])
	require.Empty(t, snap.Bullets)
}

// S5: spawn contention and waiting-room promotion.
func TestSpawnContentionAndPromotion(t *testing.T) {
	m, _ := newTestModel(t, bordered(t, 5, 5)) // single spawn point
	require.NoError(t, m.AddPlayer("c1", "p1", "Ann"))
	require.NoError(t, m.AddPlayer("c2", "p2", "Bob"))

	outcome1, err := m.SpawnPlayer("p1")
	require.NoError(t, err)
	require.Equal(t, Spawned, outcome1)

	outcome2, err := m.SpawnPlayer("p2")
	require.NoError(t, err)
	require.Equal(t, Waiting, outcome2)

	require.NoError(t, m.RemovePlayer("p1", ReasonDisconnect))

	spawned := m.TrySpawnWaitingPlayers()
	require.Equal(t, []string{"p2"}, spawned)

	snap := m.SerializeSnapshot()
	var p2 *PlayerSnapshot
	for i := range snap.Players {
		if snap.Players[i].PlayerID == "p2" {
			p2 = &snap.Players[i]
		}
	}
	require.NotNil(t, p2.X)
}

// S6: reconnect within grace restores position and score; after grace
// expires, a fresh CONNECT with the same id gets a new player.
func TestRestorePlayerWithinGrace(t *testing.T) {
	m, clock := newTestModel(t, bordered(t, 10, 10))
	require.NoError(t, m.AddPlayer("c1", "p1", "Ann"))
	_, _ = m.SpawnPlayer("p1")
	require.NoError(t, m.MovePlayer("p1", 1, 0))

	snapBefore := m.SerializeSnapshot()
	wantX, wantY := *snapBefore.Players[0].X, *snapBefore.Players[0].Y

	require.NoError(t, m.RemovePlayer("p1", ReasonDisconnect))

	clock.Advance(10 * time.Second)
	x, y, err := m.RestorePlayer("p1", "c2")
	require.NoError(t, err)
	require.Equal(t, wantX, *x)
	require.Equal(t, wantY, *y)
}

func TestRestorePlayerAfterGraceExpiredIsNotFound(t *testing.T) {
	m, clock := newTestModel(t, bordered(t, 10, 10))
	require.NoError(t, m.AddPlayer("c1", "p1", "Ann"))
	_, _ = m.SpawnPlayer("p1")
	require.NoError(t, m.RemovePlayer("p1", ReasonDisconnect))

	clock.Advance(61 * time.Second)
	m.PurgeExpiredDisconnected()

	_, _, err := m.RestorePlayer("p1", "c2")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPurgeExpiredDisconnectedIsIdempotent(t *testing.T) {
	m, clock := newTestModel(t, bordered(t, 10, 10))
	require.NoError(t, m.AddPlayer("c1", "p1", "Ann"))
	_, _ = m.SpawnPlayer("p1")
	require.NoError(t, m.RemovePlayer("p1", ReasonDisconnect))

	clock.Advance(61 * time.Second)
	m.PurgeExpiredDisconnected()
	m.PurgeExpiredDisconnected() // second call at the same clock must be a no-op

	_, _, err := m.RestorePlayer("p1", "c2")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSerializeSnapshotIsStableAcrossSuccessiveCalls(t *testing.T) {
	m, _ := newTestModel(t, bordered(t, 10, 10))
	require.NoError(t, m.AddPlayer("c1", "p1", "Ann"))
	_, _ = m.SpawnPlayer("p1")

	s1 := m.SerializeSnapshot()
	s2 := m.SerializeSnapshot()
	require.Equal(t, s1.Players[0].X, s2.Players[0].X)
	require.Equal(t, s1.Players[0].Y, s2.Players[0].Y)
	require.Equal(t, s1.Board, s2.Board)
}

func TestStopPublishesGameStateChange(t *testing.T) {
	m, _ := newTestModel(t, bordered(t, 6, 6))

	var events []bool
	eb := bus.New()
	eb.Subscribe(bus.EventGameStateChange, func(e bus.Event) {
		events = append(events, e.Payload.(map[string]bool)["running"])
	})
	m.bus = eb

	m.Stop()
	require.Equal(t, []bool{false}, events)

	snap := m.SerializeSnapshot()
	require.False(t, snap.Running)
}

// placePlayer is a test helper that forces a player's position directly,
// bypassing spawn contention, for scenarios that need fixed geometry.
func placePlayer(t *testing.T, m *Model, playerID string, x, y int) {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[playerID]
	require.True(t, ok)
	p.setPosition(m.clock, x, y)
	p.SpawnIndex = 0
}
