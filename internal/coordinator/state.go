// Package coordinator tracks connected racers and moves them through the
// lobby, challenge, race and result lifecycle.
//
// All tables live in a single State that is only ever touched by the
// Coordinator loop. State methods never perform I/O: each returns the
// Effects (deliveries, graph lookups, timers, published results) implied
// by the transition, computed from the post-mutation tables.
package coordinator

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

type Conn struct {
	ID       string
	PlayerID string
}

type State struct {
	conns      map[string]*Conn   // connection id -> connection
	players    map[string]*Player // player id -> player
	tokens     map[string]string  // resume token -> player id
	lobby      *Lobby
	challenges map[string]Challenge // target id -> latest challenge
	rooms      map[string]*Room

	now   func() time.Time
	newID func() string
	logf  func(format string, args ...any)
}

type StateOption func(*State)

func WithClock(now func() time.Time) StateOption {
	return func(s *State) { s.now = now }
}

func WithIDs(newID func() string) StateOption {
	return func(s *State) { s.newID = newID }
}

func WithLogf(logf func(format string, args ...any)) StateOption {
	return func(s *State) { s.logf = logf }
}

func NewState(opts ...StateOption) *State {
	s := &State{
		conns:      make(map[string]*Conn),
		players:    make(map[string]*Player),
		tokens:     make(map[string]string),
		lobby:      NewLobby(),
		challenges: make(map[string]Challenge),
		rooms:      make(map[string]*Room),
		now:        time.Now,
		newID:      uuid.NewString,
		logf:       func(string, ...any) {},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Connect records a new transport connection. It has no Player until it
// registers or resumes.
func (s *State) Connect(connID string) Effects {
	var fx Effects

	if _, exists := s.conns[connID]; exists {
		return fx
	}
	s.conns[connID] = &Conn{ID: connID}

	fx.send([]string{connID}, EventWelcome, Welcome{ConnectionID: connID})
	fx.send([]string{connID}, EventLobbyUpdate, s.LobbySnapshot())

	return fx
}

// Register creates the Player for connID, or resets the one it already owns
// to a fresh score, and seats it in the lobby.
func (s *State) Register(connID, name string) Effects {
	var fx Effects

	c, ok := s.conns[connID]
	if !ok {
		return fx
	}

	p := s.players[c.PlayerID]
	if p == nil {
		p = &Player{
			ID:     connID,
			ConnID: connID,
			Status: Connected,
			token:  s.newID(),
		}
		s.players[p.ID] = p
		s.tokens[p.token] = p.ID
		c.PlayerID = p.ID
	} else {
		fx.merge(s.vacateRoom(p))
	}

	p.Name = name
	p.Score = 0
	p.Seat = Unassigned{}
	p.Race = NotStarted{}
	s.lobby.Enter(p.ID)

	s.logf("LOBBY: Registered %q as %s", name, p.ID)

	fx.send([]string{connID}, EventRegistered, Registered{
		PlayerID:    p.ID,
		Name:        p.Name,
		Score:       p.Score,
		ResumeToken: p.token,
	})
	fx.merge(s.lobbyBroadcast())

	return fx
}

// Lookup returns the Player owned by connID, or nil.
func (s *State) Lookup(connID string) *Player {
	c, ok := s.conns[connID]
	if !ok {
		return nil
	}
	return s.players[c.PlayerID]
}

func (s *State) Player(id string) *Player {
	return s.players[id]
}

// Players returns every known player ordered by id.
func (s *State) Players() []*Player {
	out := make([]*Player, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Remove deletes the Player owned by connID from whichever lobby or room
// holds it. The connection itself stays open.
func (s *State) Remove(connID string) Effects {
	p := s.Lookup(connID)
	if p == nil {
		return Effects{}
	}
	return s.remove(p)
}

func (s *State) remove(p *Player) Effects {
	fx := s.vacateRoom(p)

	s.lobby.Leave(p.ID)
	delete(s.challenges, p.ID)
	delete(s.tokens, p.token)
	delete(s.players, p.ID)
	if c, ok := s.conns[p.ConnID]; ok && c.PlayerID == p.ID {
		c.PlayerID = ""
	}

	s.logf("LOBBY: Removed %q (%s)", p.Name, p.ID)

	fx.merge(s.lobbyBroadcast())

	return fx
}

// liveConns returns every open connection, registered or not.
func (s *State) liveConns() []string {
	ids := make([]string, 0, len(s.conns))
	for id := range s.conns {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func connsOf(players ...*Player) []string {
	ids := make([]string, 0, len(players))
	for _, p := range players {
		if p.live() {
			ids = append(ids, p.ConnID)
		}
	}
	return ids
}

type Stats struct {
	Connections int `json:"connections"`
	Players     int `json:"players"`
	Lobby       int `json:"lobby"`
	Rooms       int `json:"rooms"`
	Challenges  int `json:"challenges"`
}

func (s *State) Stats() Stats {
	return Stats{
		Connections: len(s.conns),
		Players:     len(s.players),
		Lobby:       s.lobby.Len(),
		Rooms:       len(s.rooms),
		Challenges:  len(s.challenges),
	}
}
