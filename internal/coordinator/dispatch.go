package coordinator

import (
	"strings"
	"unicode/utf8"

	"github.com/Seednode/sixdegrees/internal/graph"
)

// Inbound event names.
const (
	InRegisterPlayer     = "registerPlayer"
	InChallenge          = "challenge"
	InAcceptChallenge    = "acceptChallenge"
	InStartGame          = "startGame"
	InWinGame            = "winGame"
	InReturnToLobby      = "returnToLobby"
	InResume             = "resume"
	InGetConnectedActors = "getConnectedActors"
	InGetShortestPath    = "getShortestPath"
)

const maxNameLength = 32

// ClientMessage is the wire form of every client to server event.
type ClientMessage struct {
	Type         string `json:"type"`
	Name         string `json:"name,omitempty"`         // registerPlayer
	TargetID     string `json:"targetId,omitempty"`     // challenge
	Difficulty   string `json:"difficulty,omitempty"`   // challenge
	ChallengerID string `json:"challengerId,omitempty"` // acceptChallenge
	Token        string `json:"token,omitempty"`        // resume
	Actor        string `json:"actor,omitempty"`        // getConnectedActors
	From         string `json:"from,omitempty"`         // getShortestPath
	To           string `json:"to,omitempty"`           // getShortestPath
}

type command struct {
	connID     string
	msg        ClientMessage
	difficulty graph.Difficulty
}

// parse validates msg. Unknown types and missing fields are rejected here
// and never reach the State.
func parse(connID string, msg ClientMessage) (command, bool) {
	cmd := command{connID: connID, msg: msg}

	switch msg.Type {
	case InRegisterPlayer:
		name := strings.TrimSpace(msg.Name)
		if name == "" || !utf8.ValidString(name) {
			return cmd, false
		}
		if utf8.RuneCountInString(name) > maxNameLength {
			name = string([]rune(name)[:maxNameLength])
		}
		cmd.msg.Name = name

	case InChallenge:
		if msg.TargetID == "" {
			return cmd, false
		}
		d, ok := graph.ParseDifficulty(msg.Difficulty)
		if !ok {
			return cmd, false
		}
		cmd.difficulty = d

	case InResume:
		if msg.Token == "" {
			return cmd, false
		}

	case InGetConnectedActors:
		if strings.TrimSpace(msg.Actor) == "" {
			return cmd, false
		}

	case InGetShortestPath:
		if strings.TrimSpace(msg.From) == "" || strings.TrimSpace(msg.To) == "" {
			return cmd, false
		}

	case InAcceptChallenge, InStartGame, InWinGame, InReturnToLobby:

	default:
		return cmd, false
	}

	return cmd, true
}

func (s *State) apply(cmd command) Effects {
	switch cmd.msg.Type {
	case InRegisterPlayer:
		return s.Register(cmd.connID, cmd.msg.Name)
	case InChallenge:
		return s.Challenge(cmd.connID, cmd.msg.TargetID, cmd.difficulty)
	case InAcceptChallenge:
		return s.Accept(cmd.connID, cmd.msg.ChallengerID)
	case InStartGame:
		return s.StartRace(cmd.connID)
	case InWinGame:
		return s.FinishRace(cmd.connID)
	case InReturnToLobby:
		return s.LeaveRoom(cmd.connID)
	case InResume:
		return s.Resume(cmd.connID, cmd.msg.Token)
	case InGetConnectedActors:
		return Effects{Hints: []Hint{{
			ConnID: cmd.connID,
			kind:   hintConnected,
			Actor:  strings.TrimSpace(cmd.msg.Actor),
		}}}
	case InGetShortestPath:
		return Effects{Hints: []Hint{{
			ConnID: cmd.connID,
			kind:   hintPath,
			From:   strings.TrimSpace(cmd.msg.From),
			To:     strings.TrimSpace(cmd.msg.To),
		}}}
	}

	return Effects{}
}
