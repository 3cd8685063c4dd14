package coordinator

// Lobby is an insertion ordered set of player ids.
type Lobby struct {
	order []string
	index map[string]struct{}
}

func NewLobby() *Lobby {
	return &Lobby{index: make(map[string]struct{})}
}

// Enter adds id and reports whether it was absent.
func (l *Lobby) Enter(id string) bool {
	if _, ok := l.index[id]; ok {
		return false
	}
	l.index[id] = struct{}{}
	l.order = append(l.order, id)
	return true
}

// Leave removes id and reports whether it was present.
func (l *Lobby) Leave(id string) bool {
	if _, ok := l.index[id]; !ok {
		return false
	}
	delete(l.index, id)
	for i, member := range l.order {
		if member == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	return true
}

func (l *Lobby) Contains(id string) bool {
	_, ok := l.index[id]
	return ok
}

func (l *Lobby) Len() int {
	return len(l.order)
}

func (l *Lobby) IDs() []string {
	return append([]string(nil), l.order...)
}

// LobbySnapshot lists unassigned registered players in the order they
// entered the lobby.
func (s *State) LobbySnapshot() []LobbyEntry {
	entries := make([]LobbyEntry, 0, s.lobby.Len())
	for _, id := range s.lobby.order {
		if p, ok := s.players[id]; ok {
			entries = append(entries, LobbyEntry{ID: p.ID, Name: p.Name})
		}
	}
	return entries
}

// lobbyBroadcast sends the full lobby to every open connection.
func (s *State) lobbyBroadcast() Effects {
	var fx Effects
	fx.send(s.liveConns(), EventLobbyUpdate, s.LobbySnapshot())
	return fx
}

func (s *State) inLobby(players ...*Player) bool {
	for _, p := range players {
		if !s.lobby.Contains(p.ID) {
			return false
		}
	}
	return true
}
