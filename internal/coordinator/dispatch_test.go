package coordinator

import (
	"strings"
	"testing"

	"github.com/Seednode/sixdegrees/internal/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		msg  ClientMessage
		ok   bool
	}{
		{"register", ClientMessage{Type: InRegisterPlayer, Name: "Xavier"}, true},
		{"register blank name", ClientMessage{Type: InRegisterPlayer, Name: "   "}, false},
		{"register invalid utf8", ClientMessage{Type: InRegisterPlayer, Name: "\xff\xfe"}, false},
		{"challenge", ClientMessage{Type: InChallenge, TargetID: "y", Difficulty: "hard"}, true},
		{"challenge default difficulty", ClientMessage{Type: InChallenge, TargetID: "y"}, true},
		{"challenge without target", ClientMessage{Type: InChallenge, Difficulty: "easy"}, false},
		{"challenge unknown difficulty", ClientMessage{Type: InChallenge, TargetID: "y", Difficulty: "nightmare"}, false},
		{"accept", ClientMessage{Type: InAcceptChallenge}, true},
		{"start", ClientMessage{Type: InStartGame}, true},
		{"win", ClientMessage{Type: InWinGame}, true},
		{"return", ClientMessage{Type: InReturnToLobby}, true},
		{"resume", ClientMessage{Type: InResume, Token: "abc"}, true},
		{"resume without token", ClientMessage{Type: InResume}, false},
		{"costars", ClientMessage{Type: InGetConnectedActors, Actor: "Emma Stone"}, true},
		{"costars without actor", ClientMessage{Type: InGetConnectedActors, Actor: " "}, false},
		{"path", ClientMessage{Type: InGetShortestPath, From: "a", To: "b"}, true},
		{"path missing end", ClientMessage{Type: InGetShortestPath, From: "a"}, false},
		{"unknown type", ClientMessage{Type: "kick"}, false},
		{"empty type", ClientMessage{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := parse("c1", tt.msg)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestParse_NormalizesFields(t *testing.T) {
	cmd, ok := parse("c1", ClientMessage{Type: InRegisterPlayer, Name: "  Xavier  "})
	require.True(t, ok)
	assert.Equal(t, "Xavier", cmd.msg.Name)
	assert.Equal(t, "c1", cmd.connID)

	long := strings.Repeat("é", maxNameLength+10)
	cmd, ok = parse("c1", ClientMessage{Type: InRegisterPlayer, Name: long})
	require.True(t, ok)
	assert.Equal(t, strings.Repeat("é", maxNameLength), cmd.msg.Name)

	cmd, ok = parse("c1", ClientMessage{Type: InChallenge, TargetID: "y"})
	require.True(t, ok)
	assert.Equal(t, graph.Easy, cmd.difficulty)

	cmd, ok = parse("c1", ClientMessage{Type: InChallenge, TargetID: "y", Difficulty: "hard"})
	require.True(t, ok)
	assert.Equal(t, graph.Hard, cmd.difficulty)
}

func TestApply_HintsCarryTrimmedNames(t *testing.T) {
	s := NewState()

	fx := s.apply(command{connID: "c1", msg: ClientMessage{Type: InGetConnectedActors, Actor: " Emma Stone "}})
	require.Len(t, fx.Hints, 1)
	assert.Equal(t, Hint{ConnID: "c1", kind: hintConnected, Actor: "Emma Stone"}, fx.Hints[0])

	fx = s.apply(command{connID: "c1", msg: ClientMessage{Type: InGetShortestPath, From: "a ", To: " b"}})
	require.Len(t, fx.Hints, 1)
	assert.Equal(t, Hint{ConnID: "c1", kind: hintPath, From: "a", To: "b"}, fx.Hints[0])
}
