package coordinator

import (
	"github.com/Seednode/sixdegrees/internal/graph"
	"github.com/Seednode/sixdegrees/internal/results"
)

// Outbound event names.
const (
	EventWelcome          = "welcome"
	EventRegistered       = "registered"
	EventLobbyUpdate      = "lobbyUpdate"
	EventChallengeRequest = "challengeRequest"
	EventGameStart        = "gameStart"
	EventPlayerStarted    = "playerStarted"
	EventGameOver         = "gameOver"
	EventPlayerLeft       = "playerLeft"
	EventGameError        = "gameError"
	EventConnectedActors  = "connectedActors"
	EventShortestPath     = "shortestPath"
)

// Event is the envelope of every server to client message.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type Welcome struct {
	ConnectionID string `json:"connectionId"`
}

type Registered struct {
	PlayerID    string `json:"playerId"`
	Name        string `json:"name"`
	Score       int    `json:"score"`
	ResumeToken string `json:"resumeToken"`
}

type LobbyEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ChallengeRequest struct {
	FromID     string           `json:"fromId"`
	FromName   string           `json:"fromName"`
	Difficulty graph.Difficulty `json:"difficulty"`
}

type RoomPlayer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type GameStart struct {
	RoomID     string           `json:"roomId"`
	Difficulty graph.Difficulty `json:"difficulty"`
	ActorPair  graph.Pair       `json:"actorPair"`
	Players    []RoomPlayer     `json:"players"`
}

type PlayerStarted struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
}

type GameOver struct {
	Winner string `json:"winner"`
	// FinalTime is the winner's own race duration in milliseconds.
	FinalTime int64              `json:"finalTime"`
	Players   []results.Standing `json:"players"`
}

type GameError struct {
	Message string `json:"message"`
}

type ConnectedActors struct {
	Actor   string         `json:"actor"`
	Costars []graph.Costar `json:"costars"`
}

type ShortestPath struct {
	From     string          `json:"from"`
	To       string          `json:"to"`
	Found    bool            `json:"found"`
	Length   int             `json:"length,omitempty"`
	Segments []graph.Segment `json:"segments,omitempty"`
}

// Delivery is one event addressed to a set of connections.
type Delivery struct {
	To    []string
	Event Event
}

// Pairing asks the graph for the actor pair of a freshly created room.
type Pairing struct {
	RoomID     string
	Nonce      string
	Difficulty graph.Difficulty
}

// PurgeTimer arms the grace window for a disconnected player.
type PurgeTimer struct {
	PlayerID string
	Gen      uint64
}

type hintKind int

const (
	hintConnected hintKind = iota
	hintPath
)

type Hint struct {
	ConnID string
	kind   hintKind
	Actor  string
	From   string
	To     string
}

// Effects is everything a state transition asks the outside world to do.
// State methods compute it; the Coordinator carries it out.
type Effects struct {
	Deliveries []Delivery
	Pairings   []Pairing
	Purges     []PurgeTimer
	Hints      []Hint
	Results    []results.RaceResult
}

func (fx *Effects) send(to []string, typ string, data any) {
	if len(to) == 0 {
		return
	}
	fx.Deliveries = append(fx.Deliveries, Delivery{
		To:    to,
		Event: Event{Type: typ, Data: data},
	})
}

func (fx *Effects) merge(other Effects) {
	fx.Deliveries = append(fx.Deliveries, other.Deliveries...)
	fx.Pairings = append(fx.Pairings, other.Pairings...)
	fx.Purges = append(fx.Purges, other.Purges...)
	fx.Hints = append(fx.Hints, other.Hints...)
	fx.Results = append(fx.Results, other.Results...)
}

// For returns the events addressed to connID, in order.
func (fx Effects) For(connID string) []Event {
	var events []Event
	for _, d := range fx.Deliveries {
		for _, to := range d.To {
			if to == connID {
				events = append(events, d.Event)
				break
			}
		}
	}
	return events
}
