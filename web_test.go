package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Seednode/sixdegrees/internal/coordinator"
	"github.com/Seednode/sixdegrees/internal/graph"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	*httptest.Server
	cfg     *Config
	coord   *coordinator.Coordinator
	clients *clientSet
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &Config{
		graceWindow: 50 * time.Millisecond,
		pairTimeout: time.Second,
		sendBuffer:  16,
	}

	clients := newClientSet(cfg)
	coord := coordinator.New(coordinator.Config{
		Graph:       graph.Sample(),
		Transport:   clients,
		GraceWindow: cfg.graceWindow,
		PairTimeout: cfg.pairTimeout,
		Logf:        logger(cfg),
	})

	ctx, cancel := context.WithCancel(context.Background())
	go coord.Run(ctx)

	errs := make(chan error, 64)
	srv := httptest.NewServer(newMux(cfg, coord, clients, errs))

	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-coord.Done()
	})

	return &testServer{Server: srv, cfg: cfg, coord: coord, clients: clients}
}

func (s *testServer) dial(t *testing.T) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(s.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

type wireEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// readUntil reads events from conn until one of type typ arrives.
func readUntil(t *testing.T, conn *websocket.Conn, typ string) wireEvent {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var ev wireEvent
		require.NoError(t, conn.ReadJSON(&ev), "waiting for %s", typ)
		if ev.Type == typ {
			return ev
		}
	}
}

func TestEndpoints(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		path        string
		status      int
		contentType string
		contains    string
	}{
		{"/", http.StatusOK, "text/html", "Six Degrees"},
		{"/healthz", http.StatusOK, "text/plain", "Ok"},
		{"/version", http.StatusOK, "text/plain", "sixdegrees v" + releaseVersion},
		{"/robots.txt", http.StatusOK, "text/plain", "GPTBot"},
		{"/stats", http.StatusOK, "application/json", `"rooms":0`},
		{"/qr", http.StatusOK, "image/png", ""},
		{"/assets/app.js", http.StatusOK, "text/javascript", "registerPlayer"},
		{"/assets/app.css", http.StatusOK, "text/css", ""},
		{"/assets/missing.js", http.StatusNotFound, "", ""},
		{"/favicons/favicon.svg", http.StatusOK, "image/svg+xml", "<svg"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(srv.URL + tt.path)
			require.NoError(t, err)
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)

			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.contentType != "" {
				assert.Contains(t, resp.Header.Get("Content-Type"), tt.contentType)
			}
			if tt.contains != "" {
				assert.Contains(t, string(body), tt.contains)
			}
		})
	}
}

func TestHomePageAllowsWebsocket(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Contains(t, resp.Header.Get("Content-Security-Policy"), "connect-src 'self' ws: wss:")
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
}

func TestWebsocketRace(t *testing.T) {
	srv := newTestServer(t)

	x := srv.dial(t)
	y := srv.dial(t)

	var welcome coordinator.Welcome
	require.NoError(t, json.Unmarshal(readUntil(t, x, coordinator.EventWelcome).Data, &welcome))
	assert.NotEmpty(t, welcome.ConnectionID)
	readUntil(t, y, coordinator.EventWelcome)

	require.NoError(t, x.WriteJSON(coordinator.ClientMessage{Type: coordinator.InRegisterPlayer, Name: "Xavier"}))
	var xReg coordinator.Registered
	require.NoError(t, json.Unmarshal(readUntil(t, x, coordinator.EventRegistered).Data, &xReg))
	assert.Equal(t, "Xavier", xReg.Name)

	require.NoError(t, y.WriteJSON(coordinator.ClientMessage{Type: coordinator.InRegisterPlayer, Name: "Yolanda"}))
	var yReg coordinator.Registered
	require.NoError(t, json.Unmarshal(readUntil(t, y, coordinator.EventRegistered).Data, &yReg))

	require.NoError(t, x.WriteJSON(coordinator.ClientMessage{Type: coordinator.InChallenge, TargetID: yReg.PlayerID, Difficulty: "hard"}))

	var req coordinator.ChallengeRequest
	require.NoError(t, json.Unmarshal(readUntil(t, y, coordinator.EventChallengeRequest).Data, &req))
	assert.Equal(t, xReg.PlayerID, req.FromID)
	assert.Equal(t, graph.Hard, req.Difficulty)

	require.NoError(t, y.WriteJSON(coordinator.ClientMessage{Type: coordinator.InAcceptChallenge, ChallengerID: req.FromID}))

	var start coordinator.GameStart
	require.NoError(t, json.Unmarshal(readUntil(t, x, coordinator.EventGameStart).Data, &start))
	readUntil(t, y, coordinator.EventGameStart)
	assert.Equal(t, coordinator.RoomID(xReg.PlayerID, yReg.PlayerID), start.RoomID)
	assert.NotEmpty(t, start.ActorPair.Actor1.Name)
	assert.NotEqual(t, start.ActorPair.Actor1.Name, start.ActorPair.Actor2.Name)

	require.NoError(t, x.WriteJSON(coordinator.ClientMessage{Type: coordinator.InStartGame}))
	readUntil(t, y, coordinator.EventPlayerStarted)

	require.NoError(t, x.WriteJSON(coordinator.ClientMessage{Type: coordinator.InGetShortestPath, From: start.ActorPair.Actor1.Name, To: start.ActorPair.Actor2.Name}))
	var path coordinator.ShortestPath
	require.NoError(t, json.Unmarshal(readUntil(t, x, coordinator.EventShortestPath).Data, &path))
	assert.True(t, path.Found)
	assert.LessOrEqual(t, path.Length, graph.MaxHops)

	require.NoError(t, x.WriteJSON(coordinator.ClientMessage{Type: coordinator.InWinGame}))
	for _, conn := range []*websocket.Conn{x, y} {
		var over coordinator.GameOver
		require.NoError(t, json.Unmarshal(readUntil(t, conn, coordinator.EventGameOver).Data, &over))
		assert.Equal(t, "Xavier", over.Winner)
	}

	// Dropping x leaves y alone in the room once the grace window passes.
	require.NoError(t, x.Close())
	var left string
	require.NoError(t, json.Unmarshal(readUntil(t, y, coordinator.EventPlayerLeft).Data, &left))
	assert.Equal(t, "Xavier", left)
}

func TestWebsocketIgnoresMalformed(t *testing.T) {
	srv := newTestServer(t)

	conn := srv.dial(t)
	readUntil(t, conn, coordinator.EventWelcome)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte{}))
	require.NoError(t, conn.WriteJSON(coordinator.ClientMessage{Type: "kick"}))
	require.NoError(t, conn.WriteJSON(coordinator.ClientMessage{Type: coordinator.InRegisterPlayer, Name: "Still Here"}))

	var reg coordinator.Registered
	require.NoError(t, json.Unmarshal(readUntil(t, conn, coordinator.EventRegistered).Data, &reg))
	assert.Equal(t, "Still Here", reg.Name)
}

func TestClientSet_DropsSlowClient(t *testing.T) {
	srv := newTestServer(t)

	conn := srv.dial(t)
	cfg := &Config{}
	clients := newClientSet(cfg)

	c := newClient(conn, 1)
	clients.add(c)
	assert.Equal(t, 1, clients.len())

	clients.Send(c.id, coordinator.Event{Type: coordinator.EventLobbyUpdate})
	select {
	case <-c.done:
		t.Fatal("client closed before its queue filled")
	default:
	}

	clients.Send(c.id, coordinator.Event{Type: coordinator.EventLobbyUpdate})
	select {
	case <-c.done:
	case <-time.After(time.Second):
		t.Fatal("slow client was not closed")
	}

	clients.remove(c.id)
	assert.Zero(t, clients.len())

	// Unknown connections are ignored.
	clients.Send("missing", coordinator.Event{Type: coordinator.EventLobbyUpdate})
}
