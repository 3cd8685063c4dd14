package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Seednode/sixdegrees/internal/graph"
	"github.com/Seednode/sixdegrees/internal/results"
	"github.com/redis/go-redis/v9"
)

// backends are the external collaborators of the coordinator, built from
// flags at startup and closed on shutdown.
type backends struct {
	graph   graph.Service
	results results.Publisher

	closers []func()
}

func newBackends(ctx context.Context, cfg *Config) (*backends, error) {
	b := &backends{}

	g, err := b.newGraph(ctx, cfg)
	if err != nil {
		b.Close()
		return nil, err
	}
	b.graph = g

	pub, err := b.newPublisher(cfg)
	if err != nil {
		b.Close()
		return nil, err
	}
	b.results = pub

	return b, nil
}

func (b *backends) newGraph(ctx context.Context, cfg *Config) (graph.Service, error) {
	var g graph.Service

	switch {
	case cfg.neo4jURI != "":
		n, err := graph.NewNeo4j(ctx, cfg.neo4jURI, cfg.neo4jUsername, cfg.neo4jPassword, cfg.neo4jDatabase)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = n.Close(closeCtx)
		})

		logf(cfg, "GRAPH: Using neo4j at %s", cfg.neo4jURI)

		g = n
	case cfg.graphSeed != "":
		m, err := graph.LoadMemoryFile(cfg.graphSeed)
		if err != nil {
			return nil, err
		}

		logf(cfg, "GRAPH: Loaded %d actors from %s", m.Len(), cfg.graphSeed)

		g = m
	default:
		m := graph.Sample()

		logf(cfg, "GRAPH: Using built-in sample of %d actors", m.Len())

		g = m
	}

	if cfg.redisAddr == "" {
		return g, nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.redisAddr})
	b.closers = append(b.closers, func() { _ = client.Close() })

	pingCtx, cancel := context.WithTimeout(ctx, cfg.pairTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		// Lookups fall through to the graph while redis is away.
		fmt.Printf("%s | ERROR: redis at %s unavailable: %v\n", time.Now().Format(logDate), cfg.redisAddr, err)
	} else {
		logf(cfg, "GRAPH: Caching lookups in redis at %s for %s", cfg.redisAddr, cfg.cacheTTL)
	}

	return graph.NewCached(g, client, cfg.cacheTTL), nil
}

func (b *backends) newPublisher(cfg *Config) (results.Publisher, error) {
	if cfg.natsURL == "" {
		return results.Discard{}, nil
	}

	n, err := results.NewNATS(cfg.natsURL, cfg.natsSubject)
	if err != nil {
		return nil, err
	}
	b.closers = append(b.closers, func() { _ = n.Close() })

	logf(cfg, "RESULTS: Publishing to %s on %s", cfg.natsSubject, cfg.natsURL)

	return n, nil
}

// Close releases collaborators in reverse order of creation.
func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
	b.closers = nil
}
