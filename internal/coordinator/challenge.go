package coordinator

import "github.com/Seednode/sixdegrees/internal/graph"

// Challenge is the most recent unanswered invitation to a target.
type Challenge struct {
	ChallengerID string
	Difficulty   graph.Difficulty
}

// Challenge records an invitation from the player on connID to targetID,
// replacing any earlier one to the same target, and notifies the target.
// Unknown, disconnected or seated players make it a no-op.
func (s *State) Challenge(connID, targetID string, d graph.Difficulty) Effects {
	var fx Effects

	challenger := s.Lookup(connID)
	target := s.players[targetID]
	if !challenger.live() || !target.live() || challenger.ID == target.ID {
		return fx
	}
	if !s.inLobby(challenger, target) {
		return fx
	}

	s.challenges[target.ID] = Challenge{
		ChallengerID: challenger.ID,
		Difficulty:   d,
	}

	s.logf("LOBBY: %q challenged %q (%s)", challenger.Name, target.Name, d)

	fx.send(connsOf(target), EventChallengeRequest, ChallengeRequest{
		FromID:     challenger.ID,
		FromName:   challenger.Name,
		Difficulty: d,
	})

	return fx
}

// Accept answers the pending challenge to the player on connID. When
// challengerID is set it must name the pending challenger, so accepting a
// superseded invitation does nothing.
func (s *State) Accept(connID, challengerID string) Effects {
	target := s.Lookup(connID)
	if !target.live() {
		return Effects{}
	}

	ch, ok := s.challenges[target.ID]
	if !ok {
		return Effects{}
	}
	if challengerID != "" && challengerID != ch.ChallengerID {
		return Effects{}
	}
	delete(s.challenges, target.ID)

	challenger := s.players[ch.ChallengerID]
	if !challenger.live() || !s.inLobby(challenger, target) {
		return Effects{}
	}

	return s.createRoom(challenger, target, ch.Difficulty)
}

// PendingChallenge returns the challenge currently awaiting targetID.
func (s *State) PendingChallenge(targetID string) (Challenge, bool) {
	ch, ok := s.challenges[targetID]
	return ch, ok
}
