package coordinator

import (
	"strconv"

	"github.com/Seednode/sixdegrees/internal/graph"
	"github.com/Seednode/sixdegrees/internal/results"
)

const (
	pairFailedMessage   = "Could not find two connected actors. Please try again."
	opponentLeftMessage = "Your opponent left before the race could start."
)

type Room struct {
	ID         string
	Difficulty graph.Difficulty

	// Actors is nil until the graph has produced the pair.
	Actors *graph.Pair

	// Winner is the winner's name, set once and never changed.
	Winner   string
	winnerID string

	members map[string]*Player
	order   []string
	nonce   string
}

// RoomID derives the room id of an unordered pair of player ids. The length
// prefix keeps the mapping injective whatever characters the ids contain.
func RoomID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return "game-" + strconv.Itoa(len(a)) + "-" + a + "-" + b
}

func (r *Room) Resolved() bool {
	return r.winnerID != ""
}

func (r *Room) Ready() bool {
	return r.Actors != nil
}

func (r *Room) Has(playerID string) bool {
	_, ok := r.members[playerID]
	return ok
}

// Members returns the room's players in the order they were seated.
func (r *Room) Members() []*Player {
	out := make([]*Player, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.members[id])
	}
	return out
}

func (r *Room) remove(playerID string) {
	delete(r.members, playerID)
	for i, id := range r.order {
		if id == playerID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *Room) roomPlayers() []RoomPlayer {
	out := make([]RoomPlayer, 0, len(r.order))
	for _, p := range r.Members() {
		out = append(out, RoomPlayer{ID: p.ID, Name: p.Name, Score: p.Score})
	}
	return out
}

func (r *Room) standings() []results.Standing {
	out := make([]results.Standing, 0, len(r.order))
	for _, p := range r.Members() {
		out = append(out, results.Standing{Name: p.Name, Score: p.Score})
	}
	return out
}

func (r *Room) gameStart() GameStart {
	return GameStart{
		RoomID:     r.ID,
		Difficulty: r.Difficulty,
		ActorPair:  *r.Actors,
		Players:    r.roomPlayers(),
	}
}

func (s *State) Room(id string) *Room {
	return s.rooms[id]
}

func (s *State) roomOf(p *Player) *Room {
	if p == nil {
		return nil
	}
	id, ok := p.RoomID()
	if !ok {
		return nil
	}
	return s.rooms[id]
}

// createRoom seats a and b in a new room and asks for its actor pair. The
// room stays unready until ApplyPair runs.
func (s *State) createRoom(a, b *Player, d graph.Difficulty) Effects {
	var fx Effects

	id := RoomID(a.ID, b.ID)
	if _, exists := s.rooms[id]; exists {
		return fx
	}

	room := &Room{
		ID:         id,
		Difficulty: d,
		members:    make(map[string]*Player, 2),
		nonce:      s.newID(),
	}

	for _, p := range []*Player{a, b} {
		s.lobby.Leave(p.ID)
		p.Seat = InRoom{RoomID: id}
		p.Race = NotStarted{}
		room.members[p.ID] = p
		room.order = append(room.order, p.ID)
	}
	s.rooms[id] = room

	s.logf("ROOMS: Created %s for %q and %q (%s)", id, a.Name, b.Name, d)

	fx.Pairings = append(fx.Pairings, Pairing{
		RoomID:     id,
		Nonce:      room.nonce,
		Difficulty: d,
	})
	fx.merge(s.lobbyBroadcast())

	return fx
}

// ApplyPair completes room creation. A stale nonce (the room was torn down
// and possibly recreated meanwhile) is ignored. On failure, or if a member
// left while the pair was being fetched, the room is dissolved and its
// remaining members return to the lobby with a gameError.
func (s *State) ApplyPair(roomID, nonce string, pair graph.Pair, err error) Effects {
	var fx Effects

	room, ok := s.rooms[roomID]
	if !ok || room.nonce != nonce || room.Ready() {
		return fx
	}

	if err != nil || len(room.members) < 2 {
		message := opponentLeftMessage
		if err != nil {
			message = pairFailedMessage
			s.logf("ROOMS: No actor pair for %s: %v", roomID, err)
		}

		members := room.Members()
		delete(s.rooms, roomID)
		for _, p := range members {
			p.Seat = Unassigned{}
			p.Race = NotStarted{}
			s.lobby.Enter(p.ID)
		}

		fx.send(connsOf(members...), EventGameError, GameError{Message: message})
		fx.merge(s.lobbyBroadcast())

		return fx
	}

	room.Actors = &pair

	s.logf("ROOMS: %s races %q to %q", roomID, pair.Actor1.Name, pair.Actor2.Name)

	fx.send(connsOf(room.Members()...), EventGameStart, room.gameStart())

	return fx
}

// StartRace starts the clock for the player on connID. Only a player who has
// not yet started in a ready, unresolved room can start; repeats are no-ops.
func (s *State) StartRace(connID string) Effects {
	var fx Effects

	p := s.Lookup(connID)
	room := s.roomOf(p)
	if room == nil || !room.Ready() || room.Resolved() {
		return fx
	}
	if _, ok := p.Race.(NotStarted); !ok {
		return fx
	}

	p.Race = Racing{Since: s.now()}

	s.logf("RACES: %q started in %s", p.Name, room.ID)

	fx.send(connsOf(room.Members()...), EventPlayerStarted, PlayerStarted{
		PlayerID: p.ID,
		Name:     p.Name,
	})

	return fx
}

// FinishRace adjudicates the room: the first racing player whose finish is
// processed wins. Any later finish against the same room is a no-op.
func (s *State) FinishRace(connID string) Effects {
	var fx Effects

	p := s.Lookup(connID)
	room := s.roomOf(p)
	if room == nil || !room.Ready() || room.Resolved() {
		return fx
	}
	racing, ok := p.Race.(Racing)
	if !ok {
		return fx
	}

	at := s.now()
	p.Race = Finished{Since: racing.Since, At: at}
	p.Score++
	room.winnerID = p.ID
	room.Winner = p.Name

	elapsed := at.Sub(racing.Since)
	standings := room.standings()

	s.logf("RACES: %q won %s in %s", p.Name, room.ID, elapsed)

	fx.send(connsOf(room.Members()...), EventGameOver, GameOver{
		Winner:    p.Name,
		FinalTime: elapsed.Milliseconds(),
		Players:   standings,
	})
	fx.Results = append(fx.Results, results.RaceResult{
		RoomID:     room.ID,
		Difficulty: string(room.Difficulty),
		Start:      room.Actors.Actor1.Name,
		End:        room.Actors.Actor2.Name,
		Winner:     p.Name,
		ElapsedMS:  elapsed.Milliseconds(),
		Players:    standings,
		At:         at,
	})

	return fx
}

// LeaveRoom returns the player on connID to the lobby, telling the rest of
// the room first. Players already in the lobby are unaffected.
func (s *State) LeaveRoom(connID string) Effects {
	p := s.Lookup(connID)
	if p == nil {
		return Effects{}
	}

	fx := s.vacateRoom(p)
	if s.lobby.Enter(p.ID) {
		fx.merge(s.lobbyBroadcast())
	}

	return fx
}

// vacateRoom takes p out of its room, destroying the room once empty, and
// clears p's seat and race.
func (s *State) vacateRoom(p *Player) Effects {
	var fx Effects

	room := s.roomOf(p)
	p.Seat = Unassigned{}
	p.Race = NotStarted{}
	if room == nil {
		return fx
	}

	var others []*Player
	for _, m := range room.Members() {
		if m.ID != p.ID {
			others = append(others, m)
		}
	}
	fx.send(connsOf(others...), EventPlayerLeft, p.Name)

	room.remove(p.ID)
	if len(room.members) == 0 {
		delete(s.rooms, room.ID)
		s.logf("ROOMS: Closed %s", room.ID)
	}

	return fx
}
