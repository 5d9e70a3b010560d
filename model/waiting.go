package model

// TrySpawnWaitingPlayers attempts to place every waiting player, in the
// order they entered the waiting state. A player that finds no spawn point
// does not stop later-waiting players from being tried — each candidate is
// evaluated independently against current occupancy.
// Returns the ids successfully spawned.
func (m *Model) TrySpawnWaitingPlayers() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	order := make([]string, len(m.waitingOrder))
	copy(order, m.waitingOrder)

	var spawned []string
	for _, id := range order {
		if _, ok := m.players[id]; !ok {
			continue
		}
		outcome, err := m.spawnPlayerLocked(id)
		if err == nil && outcome == Spawned {
			spawned = append(spawned, id)
		}
	}
	return spawned
}
