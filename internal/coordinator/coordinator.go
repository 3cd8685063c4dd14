package coordinator

import (
	"context"
	"time"

	"github.com/Seednode/sixdegrees/internal/graph"
	"github.com/Seednode/sixdegrees/internal/results"
)

const (
	DefaultGraceWindow = 3 * time.Second
	DefaultPairTimeout = 10 * time.Second
)

// Transport delivers events to connections. Send must not block; events for
// unknown or closed connections are dropped.
type Transport interface {
	Send(connID string, ev Event)
}

type TransportFunc func(connID string, ev Event)

func (f TransportFunc) Send(connID string, ev Event) {
	f(connID, ev)
}

type Config struct {
	Graph     graph.Service
	Transport Transport
	Results   results.Publisher

	GraceWindow time.Duration
	PairTimeout time.Duration

	Logf func(format string, args ...any)

	// Now and NewID default to time.Now and random UUIDs.
	Now   func() time.Time
	NewID func() string
}

type pairResult struct {
	roomID string
	nonce  string
	pair   graph.Pair
	err    error
}

type purgeRequest struct {
	playerID string
	gen      uint64
}

// Coordinator serializes every state change through Run. Public methods may
// be called from any goroutine; they block until Run accepts the request or
// has exited.
type Coordinator struct {
	state     *State
	graph     graph.Service
	transport Transport
	results   results.Publisher

	grace       time.Duration
	pairTimeout time.Duration
	logf        func(format string, args ...any)

	connects    chan string
	disconnects chan string
	commands    chan command
	pairs       chan pairResult
	purges      chan purgeRequest
	replies     chan Delivery
	stats       chan chan Stats
	done        chan struct{}
}

func New(cfg Config) *Coordinator {
	if cfg.Results == nil {
		cfg.Results = results.Discard{}
	}
	if cfg.GraceWindow <= 0 {
		cfg.GraceWindow = DefaultGraceWindow
	}
	if cfg.PairTimeout <= 0 {
		cfg.PairTimeout = DefaultPairTimeout
	}
	if cfg.Logf == nil {
		cfg.Logf = func(string, ...any) {}
	}

	opts := []StateOption{WithLogf(cfg.Logf)}
	if cfg.Now != nil {
		opts = append(opts, WithClock(cfg.Now))
	}
	if cfg.NewID != nil {
		opts = append(opts, WithIDs(cfg.NewID))
	}

	return &Coordinator{
		state:       NewState(opts...),
		graph:       cfg.Graph,
		transport:   cfg.Transport,
		results:     cfg.Results,
		grace:       cfg.GraceWindow,
		pairTimeout: cfg.PairTimeout,
		logf:        cfg.Logf,
		connects:    make(chan string),
		disconnects: make(chan string),
		commands:    make(chan command),
		pairs:       make(chan pairResult),
		purges:      make(chan purgeRequest),
		replies:     make(chan Delivery),
		stats:       make(chan chan Stats),
		done:        make(chan struct{}),
	}
}

// Run processes events until ctx is cancelled.
func (c *Coordinator) Run(ctx context.Context) {
	defer close(c.done)

	for {
		var fx Effects

		select {
		case <-ctx.Done():
			return

		case id := <-c.connects:
			fx = c.state.Connect(id)

		case id := <-c.disconnects:
			fx = c.state.Disconnect(id)

		case cmd := <-c.commands:
			fx = c.state.apply(cmd)

		case pr := <-c.pairs:
			fx = c.state.ApplyPair(pr.roomID, pr.nonce, pr.pair, pr.err)

		case pr := <-c.purges:
			fx = c.state.Purge(pr.playerID, pr.gen)

		case d := <-c.replies:
			fx.Deliveries = append(fx.Deliveries, d)

		case reply := <-c.stats:
			reply <- c.state.Stats()
			continue
		}

		c.execute(ctx, fx)
	}
}

// Done is closed once Run has returned.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

func submit[T any](c *Coordinator, ch chan<- T, v T) bool {
	select {
	case ch <- v:
		return true
	case <-c.done:
		return false
	}
}

// Connect must be called before any Handle for connID.
func (c *Coordinator) Connect(connID string) {
	submit(c, c.connects, connID)
}

func (c *Coordinator) Disconnect(connID string) {
	submit(c, c.disconnects, connID)
}

// Handle validates and applies one client message. Malformed messages are
// dropped and reported as false.
func (c *Coordinator) Handle(connID string, msg ClientMessage) bool {
	cmd, ok := parse(connID, msg)
	if !ok {
		return false
	}
	return submit(c, c.commands, cmd)
}

func (c *Coordinator) Stats() Stats {
	reply := make(chan Stats, 1)
	if !submit(c, c.stats, reply) {
		return Stats{}
	}
	return <-reply
}

func (c *Coordinator) execute(ctx context.Context, fx Effects) {
	for _, d := range fx.Deliveries {
		for _, id := range d.To {
			c.transport.Send(id, d.Event)
		}
	}

	for _, p := range fx.Pairings {
		go c.fetchPair(ctx, p)
	}

	for _, t := range fx.Purges {
		t := t
		time.AfterFunc(c.grace, func() {
			submit(c, c.purges, purgeRequest{playerID: t.PlayerID, gen: t.Gen})
		})
	}

	for _, h := range fx.Hints {
		go c.answerHint(ctx, h)
	}

	for _, r := range fx.Results {
		if err := c.results.Publish(ctx, r); err != nil {
			c.logf("ERROR: %v", err)
		}
	}
}

func (c *Coordinator) fetchPair(ctx context.Context, p Pairing) {
	ctx, cancel := context.WithTimeout(ctx, c.pairTimeout)
	defer cancel()

	pair, err := c.graph.RandomPair(ctx, p.Difficulty)

	submit(c, c.pairs, pairResult{
		roomID: p.RoomID,
		nonce:  p.Nonce,
		pair:   pair,
		err:    err,
	})
}

// answerHint runs a graph lookup for one client. Failures are answered with
// an empty result rather than an error.
func (c *Coordinator) answerHint(ctx context.Context, h Hint) {
	ctx, cancel := context.WithTimeout(ctx, c.pairTimeout)
	defer cancel()

	var ev Event

	switch h.kind {
	case hintConnected:
		costars, err := c.graph.Connected(ctx, h.Actor)
		if err != nil {
			c.logf("HINTS: Costars of %q unavailable: %v", h.Actor, err)
			costars = nil
		}
		if costars == nil {
			costars = []graph.Costar{}
		}
		ev = Event{Type: EventConnectedActors, Data: ConnectedActors{Actor: h.Actor, Costars: costars}}

	case hintPath:
		reply := ShortestPath{From: h.From, To: h.To}
		path, err := c.graph.ShortestPath(ctx, h.From, h.To)
		if err != nil {
			c.logf("HINTS: Path from %q to %q unavailable: %v", h.From, h.To, err)
		} else {
			reply.Found = true
			reply.Length = path.Length
			reply.Segments = path.Segments
		}
		ev = Event{Type: EventShortestPath, Data: reply}
	}

	submit(c, c.replies, Delivery{To: []string{h.ConnID}, Event: ev})
}
