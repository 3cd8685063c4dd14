// Package graph is the film graph collaborator used by the race coordinator.
//
// A Service answers three questions about the actor/film graph: which two
// actors a race should connect, who an actor has appeared alongside, and the
// shortest chain of shared films between two actors. Adapters are provided
// for Neo4j, for an in-memory catalog loaded from YAML, and a Redis
// read-through cache that wraps either.
package graph

import (
	"context"
	"errors"
)

// Difficulty restricts which actors may be drawn as race endpoints.
type Difficulty string

const (
	Easy Difficulty = "easy"
	Hard Difficulty = "hard"
)

const (
	// PopularityThreshold is the minimum popularity of both endpoints on Easy.
	PopularityThreshold = 3.0

	// MaxHops bounds how many films apart the two endpoints of a race may
	// be. Every adapter counts a hop as one shared film.
	MaxHops = 6
)

var (
	ErrNoPair       = errors.New("graph: no connected actor pair available")
	ErrNoPath       = errors.New("graph: no path between actors")
	ErrUnknownActor = errors.New("graph: unknown actor")
)

// ParseDifficulty maps a client supplied tier onto a Difficulty. An empty
// string selects Easy.
func ParseDifficulty(s string) (Difficulty, bool) {
	switch d := Difficulty(s); d {
	case "":
		return Easy, true
	case Easy, Hard:
		return d, true
	}

	return "", false
}

type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Pair holds the two endpoints of a race.
type Pair struct {
	Actor1 Actor `json:"actor1"`
	Actor2 Actor `json:"actor2"`
}

// Costar is an actor who shares Film with the queried actor.
type Costar struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Film string `json:"film"`
}

// Segment is a single hop: From and To both appeared in Film.
type Segment struct {
	From string `json:"from"`
	Film string `json:"film"`
	To   string `json:"to"`
}

type Path struct {
	Start    string    `json:"start"`
	End      string    `json:"end"`
	Length   int       `json:"length"`
	Segments []Segment `json:"segments"`
}

type Service interface {
	// RandomPair returns two distinct actors joined by at least one path of
	// at most MaxHops films. Implementations retry internally; an error
	// means no pair could be produced.
	RandomPair(ctx context.Context, d Difficulty) (Pair, error)

	Connected(ctx context.Context, name string) ([]Costar, error)

	ShortestPath(ctx context.Context, from, to string) (Path, error)
}

func eligible(d Difficulty, name string, popularity float64) bool {
	if name == "" {
		return false
	}

	return d != Easy || popularity > PopularityThreshold
}
