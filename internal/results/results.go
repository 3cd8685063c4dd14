// Package results publishes the outcome of every adjudicated race.
package results

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

const DefaultSubject = "sixdegrees.results"

type Standing struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type RaceResult struct {
	RoomID     string     `json:"roomId"`
	Difficulty string     `json:"difficulty"`
	Start      string     `json:"start"`
	End        string     `json:"end"`
	Winner     string     `json:"winner"`
	ElapsedMS  int64      `json:"elapsedMs"`
	Players    []Standing `json:"players"`
	At         time.Time  `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, r RaceResult) error
}

// Discard drops every result.
type Discard struct{}

func (Discard) Publish(context.Context, RaceResult) error {
	return nil
}

// NATS publishes each result as a JSON message on a single subject.
type NATS struct {
	conn    *nats.Conn
	subject string
}

func NewNATS(url, subject string) (*NATS, error) {
	conn, err := nats.Connect(url,
		nats.Name("sixdegrees"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats at %s: %w", url, err)
	}

	if subject == "" {
		subject = DefaultSubject
	}

	return &NATS{conn: conn, subject: subject}, nil
}

func (n *NATS) Publish(_ context.Context, r RaceResult) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding result for %s: %w", r.RoomID, err)
	}

	if err := n.conn.Publish(n.subject, data); err != nil {
		return fmt.Errorf("publishing result for %s: %w", r.RoomID, err)
	}

	return nil
}

func (n *NATS) Close() error {
	return n.conn.Drain()
}
