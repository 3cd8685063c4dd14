// Six Degrees race transport
//
// Browsers connect to a single websocket and exchange JSON events with the
// coordinator. Every connection gets a random id; all game state lives in
// the coordinator, so this file only moves bytes.
//
// Features:
// - One websocket per browser tab at $prefix/ws
// - Bounded per-connection send queue; a client that cannot keep up is dropped
// - Ping/pong keepalive so dead connections are noticed and purged
// - In-browser QR button to share the page, backed by go-qrcode
// - JSON session counters at $prefix/stats

package main

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Seednode/sixdegrees/internal/coordinator"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Client struct {
	id   string
	conn *websocket.Conn
	send chan coordinator.Event

	done      chan struct{}
	closeOnce sync.Once
}

func newClient(conn *websocket.Conn, buffer int) *Client {
	return &Client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan coordinator.Event, buffer),
		done: make(chan struct{}),
	}
}

// close stops the write pump and unblocks the read pump. Safe to call more
// than once and from any goroutine.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// clientSet routes coordinator events to open connections.
type clientSet struct {
	mu      sync.RWMutex
	clients map[string]*Client

	cfg *Config
}

func newClientSet(cfg *Config) *clientSet {
	return &clientSet{
		clients: make(map[string]*Client),
		cfg:     cfg,
	}
}

func (s *clientSet) add(c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clients[c.id] = c
}

func (s *clientSet) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.clients, id)
}

func (s *clientSet) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.clients)
}

// Send never blocks the coordinator: when a client's queue is full the
// connection is closed, and its read pump reports the disconnect.
func (s *clientSet) Send(connID string, ev coordinator.Event) {
	s.mu.RLock()
	c, ok := s.clients[connID]
	s.mu.RUnlock()

	if !ok {
		return
	}

	select {
	case c.send <- ev:
	default:
		logf(s.cfg, "SERVE: Dropping slow connection %s", connID)
		c.close()
	}
}

func serveWS(cfg *Config, coord *coordinator.Coordinator, clients *clientSet) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "ERROR: Upgrade from %s failed: %v", realIP(r), err)
			return
		}

		client := newClient(conn, cfg.sendBuffer)
		clients.add(client)

		logf(cfg, "SERVE: Connection %s from %s", client.id, realIP(r))

		// Connect is accepted by the coordinator before any message this
		// connection reads, so welcome always arrives first.
		coord.Connect(client.id)

		go client.writePump()
		client.readPump(cfg, coord, clients)
	}
}

func (c *Client) readPump(cfg *Config, coord *coordinator.Coordinator, clients *clientSet) {
	defer func() {
		coord.Disconnect(c.id)
		clients.remove(c.id)
		c.close()

		logf(cfg, "SERVE: Connection %s closed", c.id)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				logf(cfg, "ERROR: Connection %s: %v", c.id, err)
			}
			return
		}

		// Malformed payloads are dropped, the connection stays.
		var msg coordinator.ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logf(cfg, "SERVE: Ignoring malformed message from %s: %v", c.id, err)
			continue
		}

		if !coord.Handle(c.id, msg) {
			logf(cfg, "SERVE: Ignoring %q from %s", msg.Type, c.id)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case ev := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}

// QR handler: generates a PNG QR code for the race page using go-qrcode.
func qrHandler(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}

		// We are at $prefix/qr; the page lives at $prefix/.
		path := strings.TrimSuffix(r.URL.Path, "qr")

		url := scheme + "://" + r.Host + path

		const qrSize = 320 // mobile-friendly size
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		securityHeaders(cfg, w)
		_, _ = w.Write(png)
	}
}

func serveStats(cfg *Config, coord *coordinator.Coordinator, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		securityHeaders(cfg, w)

		if err := json.NewEncoder(w).Encode(coord.Stats()); err != nil {
			errs <- err
		}
	}
}

// registerRaceGame sets up routes so that:
//   - $prefix/ws     → WebSocket for the shared lobby
//   - $prefix/qr     → PNG QR code for the page URL
//   - $prefix/stats  → JSON session counters
func registerRaceGame(cfg *Config, coord *coordinator.Coordinator, clients *clientSet, mux *httprouter.Router, errs chan<- error) {
	mux.GET(cfg.prefix+"/ws", serveWS(cfg, coord, clients))

	mux.GET(cfg.prefix+"/qr", qrHandler(cfg))

	mux.GET(cfg.prefix+"/stats", serveStats(cfg, coord, errs))
}
