package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cached is a read-through Redis cache in front of another Service. Costar
// lists and shortest paths are cached for ttl; random pairs never are. Redis
// failures fall through to the wrapped Service.
type Cached struct {
	next   Service
	client *redis.Client
	ttl    time.Duration
}

func NewCached(next Service, client *redis.Client, ttl time.Duration) *Cached {
	return &Cached{
		next:   next,
		client: client,
		ttl:    ttl,
	}
}

func connectedKey(name string) string {
	return fmt.Sprintf("sixdegrees:connected:%s", name)
}

func pathKey(from, to string) string {
	return fmt.Sprintf("sixdegrees:path:%s:%s", from, to)
}

func (c *Cached) RandomPair(ctx context.Context, d Difficulty) (Pair, error) {
	return c.next.RandomPair(ctx, d)
}

func (c *Cached) Connected(ctx context.Context, name string) ([]Costar, error) {
	var costars []Costar
	if c.load(ctx, connectedKey(name), &costars) {
		return costars, nil
	}

	costars, err := c.next.Connected(ctx, name)
	if err != nil {
		return nil, err
	}
	c.store(ctx, connectedKey(name), costars)

	return costars, nil
}

func (c *Cached) ShortestPath(ctx context.Context, from, to string) (Path, error) {
	var path Path
	if c.load(ctx, pathKey(from, to), &path) {
		return path, nil
	}

	path, err := c.next.ShortestPath(ctx, from, to)
	if err != nil {
		return Path{}, err
	}
	c.store(ctx, pathKey(from, to), path)

	return path, nil
}

func (c *Cached) load(ctx context.Context, key string, dst any) bool {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		// redis.Nil is a plain miss; anything else means Redis is unavailable
		// and the wrapped service answers instead.
		return false
	}

	return json.Unmarshal(data, dst) == nil
}

func (c *Cached) store(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}

	_ = c.client.Set(ctx, key, data, c.ttl).Err()
}
