package results

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscard(t *testing.T) {
	assert.NoError(t, Discard{}.Publish(context.Background(), RaceResult{RoomID: "r"}))
}

func TestNewNATS_Unreachable(t *testing.T) {
	_, err := NewNATS("nats://127.0.0.1:1", "")
	assert.Error(t, err)
}

// Requires a NATS server at SIXDEGREES_TEST_NATS.
func TestNATS_Publish(t *testing.T) {
	url := os.Getenv("SIXDEGREES_TEST_NATS")
	if url == "" {
		t.Skip("SIXDEGREES_TEST_NATS not set")
	}

	sub, err := nats.Connect(url)
	require.NoError(t, err)
	defer sub.Close()

	msgs := make(chan *nats.Msg, 1)
	s, err := sub.ChanSubscribe("sixdegrees.test.results", msgs)
	require.NoError(t, err)
	defer s.Unsubscribe()
	require.NoError(t, sub.Flush())

	pub, err := NewNATS(url, "sixdegrees.test.results")
	require.NoError(t, err)
	defer pub.Close()

	want := RaceResult{
		RoomID:     "game-1-a-b",
		Difficulty: "hard",
		Winner:     "alice",
		ElapsedMS:  4200,
		Players:    []Standing{{Name: "alice", Score: 1}, {Name: "bob", Score: 0}},
		At:         time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, pub.Publish(context.Background(), want))

	select {
	case msg := <-msgs:
		var got RaceResult
		require.NoError(t, json.Unmarshal(msg.Data, &got))
		assert.Equal(t, want, got)
	case <-time.After(5 * time.Second):
		t.Fatal("no result received")
	}
}
