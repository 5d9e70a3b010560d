package model

import "github.com/arjwright/gridstrike/bus"

// Kill moves victimID to the waiting state, enqueues a respawn task, and
// credits killerID's score. Safe to call with killerID == victimID's
// self-inflicted equivalents elsewhere in the model (self-intersection in
// TickBullets never calls Kill at all — the owner is never harmed).
func (m *Model) Kill(victimID, killerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.players[victimID]; !ok {
		return ErrUnknownPlayer
	}
	m.killLocked(victimID, killerID)
	return nil
}

func (m *Model) killLocked(victimID, killerID string) {
	victim, ok := m.players[victimID]
	if !ok {
		return
	}
	victim.clearPosition()

	m.respawnQueue = append(m.respawnQueue, &RespawnTask{
		PlayerID:  victimID,
		RespawnAt: m.clock.Now().Add(m.config.RespawnDelay).UnixMilli(),
	})

	if killerID != victimID {
		m.scores[killerID]++
	}

	m.publish(bus.Event{
		Type:      bus.EventScoreChange,
		Scope:     bus.Targeted,
		TargetID:  killerID,
		Timestamp: m.clock.Now(),
		Payload:   map[string]int{"score": m.scores[killerID]},
	})
}

// ProcessRespawns attempts to spawn every queued player whose RespawnAt has
// elapsed. A player whose attempt fails (no spawn point available) stays
// queued for the next tick. Returns the ids successfully respawned.
func (m *Model) ProcessRespawns() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now().UnixMilli()
	var respawned []string
	var remaining []*RespawnTask

	for _, task := range m.respawnQueue {
		if task.RespawnAt > now {
			remaining = append(remaining, task)
			continue
		}
		outcome, err := m.spawnPlayerLocked(task.PlayerID)
		if err != nil || outcome != Spawned {
			remaining = append(remaining, task)
			continue
		}
		respawned = append(respawned, task.PlayerID)
	}

	m.respawnQueue = remaining
	return respawned
}

// RemovePlayer destroys playerID's bullets, clears their score, and either
// retains a grace-buffer record (reason=disconnect, when grace is enabled)
// or purges them entirely (reason=leave, or when grace is disabled).
func (m *Model) RemovePlayer(playerID string, reason RemoveReason) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.players[playerID]
	if !ok {
		return ErrUnknownPlayer
	}

	for id, b := range m.bullets {
		if b.PlayerID == playerID {
			delete(m.bullets, id)
		}
	}

	score := m.scores[playerID]
	delete(m.scores, playerID)
	m.dequeueWaitingLocked(playerID)
	m.removeRespawnTaskLocked(playerID)

	if reason == ReasonDisconnect && m.config.DisconnectGrace > 0 {
		m.disconnected[playerID] = &DisconnectedPlayerRecord{
			PlayerID:       playerID,
			Name:           p.Name,
			X:              p.X,
			Y:              p.Y,
			Score:          score,
			SpawnIndex:     p.SpawnIndex,
			DisconnectedAt: m.clock.Now().UnixMilli(),
		}
	}

	delete(m.players, playerID)
	delete(m.everSpawned, playerID)

	m.publish(bus.Event{
		Type:      bus.EventPlayerLeft,
		Scope:     bus.Global,
		Timestamp: m.clock.Now(),
		Payload:   map[string]string{"playerId": playerID},
	})
	return nil
}

func (m *Model) removeRespawnTaskLocked(playerID string) {
	var remaining []*RespawnTask
	for _, t := range m.respawnQueue {
		if t.PlayerID != playerID {
			remaining = append(remaining, t)
		}
	}
	m.respawnQueue = remaining
}

// RestorePlayer rebinds playerID to newClientID, reviving them from the
// grace buffer if needed. Returns the player's current position (nil,nil
// while waiting) and ErrNotFound if playerID is neither active nor in the
// grace buffer.
func (m *Model) RestorePlayer(playerID, newClientID string) (x, y *int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p, ok := m.players[playerID]; ok {
		p.ClientID = newClientID
		return p.X, p.Y, nil
	}

	rec, ok := m.disconnected[playerID]
	if !ok {
		return nil, nil, ErrNotFound
	}
	delete(m.disconnected, playerID)

	p := &Player{
		ID:         playerID,
		Name:       rec.Name,
		ClientID:   newClientID,
		SpawnIndex: rec.SpawnIndex,
		X:          rec.X,
		Y:          rec.Y,
	}
	m.players[playerID] = p
	m.scores[playerID] = rec.Score
	m.everSpawned[playerID] = true
	return p.X, p.Y, nil
}

// PurgeExpiredDisconnected removes grace-buffer records older than the
// configured grace period, as of now.
func (m *Model) PurgeExpiredDisconnected() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	for id, rec := range m.disconnected {
		age := now.Sub(timeFromMillis(rec.DisconnectedAt))
		if age >= m.config.DisconnectGrace {
			delete(m.disconnected, id)
		}
	}
}
