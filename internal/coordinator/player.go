package coordinator

import "time"

// Seat says where a registered player currently sits.
type Seat interface {
	isSeat()
}

// Unassigned players are in the lobby.
type Unassigned struct{}

type InRoom struct {
	RoomID string
}

func (Unassigned) isSeat() {}
func (InRoom) isSeat()     {}

// Race is a player's progress through the current room's race.
type Race interface {
	isRace()
}

type NotStarted struct{}

type Racing struct {
	Since time.Time
}

type Finished struct {
	Since time.Time
	At    time.Time
}

func (NotStarted) isRace() {}
func (Racing) isRace()     {}
func (Finished) isRace()   {}

type Status int

const (
	Connected Status = iota
	DisconnectPending
)

func (s Status) String() string {
	if s == DisconnectPending {
		return "disconnect-pending"
	}
	return "connected"
}

type Player struct {
	ID    string
	Name  string
	Score int
	Seat  Seat
	Race  Race

	// ConnID is the live connection, empty while Status is DisconnectPending.
	ConnID string
	Status Status

	token string
	// gen invalidates purge timers armed before the latest disconnect or resume.
	gen uint64
}

// RoomID returns the room the player is seated in, if any.
func (p *Player) RoomID() (string, bool) {
	if in, ok := p.Seat.(InRoom); ok {
		return in.RoomID, true
	}
	return "", false
}

func (p *Player) live() bool {
	return p != nil && p.Status == Connected
}
