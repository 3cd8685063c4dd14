package coordinator

// Disconnect closes connID. A registered player is not removed yet: it
// moves to DisconnectPending and a purge timer for the grace window is
// returned. The player keeps its lobby or room seat until the purge.
func (s *State) Disconnect(connID string) Effects {
	var fx Effects

	c, ok := s.conns[connID]
	if !ok {
		return fx
	}
	delete(s.conns, connID)

	p := s.players[c.PlayerID]
	if p == nil || p.ConnID != connID {
		return fx
	}

	p.ConnID = ""
	p.Status = DisconnectPending
	p.gen++

	s.logf("CLEANUP: %q (%s) disconnected, purge pending", p.Name, p.ID)

	fx.Purges = append(fx.Purges, PurgeTimer{PlayerID: p.ID, Gen: p.gen})

	return fx
}

// Purge removes a player whose grace window expired. Timers armed before a
// resume or a later disconnect carry an old generation and are ignored.
func (s *State) Purge(playerID string, gen uint64) Effects {
	p, ok := s.players[playerID]
	if !ok || p.Status != DisconnectPending || p.gen != gen {
		return Effects{}
	}

	s.logf("CLEANUP: Purging %q (%s)", p.Name, p.ID)

	return s.remove(p)
}

// Resume lets a new connection reclaim a player that is still inside its
// grace window. The player keeps its id, score, seat and race.
func (s *State) Resume(connID, token string) Effects {
	var fx Effects

	c, ok := s.conns[connID]
	if !ok || c.PlayerID != "" {
		return fx
	}

	p := s.players[s.tokens[token]]
	if p == nil || p.Status != DisconnectPending {
		return fx
	}

	p.ConnID = connID
	p.Status = Connected
	p.gen++
	c.PlayerID = p.ID

	s.logf("CLEANUP: %q (%s) resumed on %s", p.Name, p.ID, connID)

	fx.send([]string{connID}, EventRegistered, Registered{
		PlayerID:    p.ID,
		Name:        p.Name,
		Score:       p.Score,
		ResumeToken: p.token,
	})
	if room := s.roomOf(p); room != nil && room.Ready() {
		fx.send([]string{connID}, EventGameStart, room.gameStart())
	}

	return fx
}
