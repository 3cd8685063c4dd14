package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Each film between two actors is two ACTED_IN relationships, so MaxHops
// films span 2..2*MaxHops relationships. Cypher cannot parameterize
// variable-length bounds.
var randomPairQuery = fmt.Sprintf(`
MATCH (a:Person)
WHERE a.name IS NOT NULL AND a.name <> ""
  AND ($minPopularity IS NULL OR a.popularity > $minPopularity)
WITH a, rand() AS r
ORDER BY r
LIMIT 1

MATCH (a)-[:ACTED_IN*2..%d]-(b:Person)
WHERE a <> b AND b.name IS NOT NULL AND b.name <> ""
  AND ($minPopularity IS NULL OR b.popularity > $minPopularity)
WITH a, b, rand() AS r2
ORDER BY r2
LIMIT 1

RETURN a.id AS aId, a.name AS aName, b.id AS bId, b.name AS bName`, 2*MaxHops)

const (
	connectedQuery = `
MATCH (n:Person {name: $name})-[:ACTED_IN]-(m:Movie)-[:ACTED_IN]-(p:Person)
RETURN DISTINCT elementId(p) AS id, p.name AS name, m.title AS film
ORDER BY name, film`

	shortestPathQuery = `
MATCH (a:Person {name: $start}), (b:Person {name: $end})
MATCH path = shortestPath((a)-[:ACTED_IN*]-(b))
RETURN path`

	pairAttempts = 3
)

// Neo4j queries a movie graph of (:Person)-[:ACTED_IN]-(:Movie) nodes.
type Neo4j struct {
	driver   neo4j.DriverWithContext
	database string
}

func NewNeo4j(ctx context.Context, uri, username, password, database string) (*Neo4j, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("creating neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("connecting to neo4j at %s: %w", uri, err)
	}

	return &Neo4j{driver: driver, database: database}, nil
}

func (n *Neo4j) Close(ctx context.Context) error {
	return n.driver.Close(ctx)
}

func (n *Neo4j) query(ctx context.Context, cypher string, params map[string]any) (*neo4j.EagerResult, error) {
	return neo4j.ExecuteQuery(ctx, n.driver, cypher, params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(n.database),
		neo4j.ExecuteQueryWithReadersRouting(),
	)
}

// RandomPair draws a random eligible start actor and a random eligible actor
// reachable from it. The start is drawn before reachability is known, so an
// isolated start yields no row; that case is retried a few times.
func (n *Neo4j) RandomPair(ctx context.Context, d Difficulty) (Pair, error) {
	params := map[string]any{"minPopularity": nil}
	if d == Easy {
		params["minPopularity"] = PopularityThreshold
	}

	for attempt := 0; attempt < pairAttempts; attempt++ {
		res, err := n.query(ctx, randomPairQuery, params)
		if err != nil {
			return Pair{}, fmt.Errorf("querying random pair: %w", err)
		}
		if len(res.Records) == 0 {
			continue
		}

		rec := res.Records[0]

		return Pair{
			Actor1: Actor{ID: stringValue(rec, "aId"), Name: stringValue(rec, "aName")},
			Actor2: Actor{ID: stringValue(rec, "bId"), Name: stringValue(rec, "bName")},
		}, nil
	}

	return Pair{}, ErrNoPair
}

func (n *Neo4j) Connected(ctx context.Context, name string) ([]Costar, error) {
	res, err := n.query(ctx, connectedQuery, map[string]any{"name": name})
	if err != nil {
		return nil, fmt.Errorf("querying costars of %q: %w", name, err)
	}

	costars := make([]Costar, 0, len(res.Records))
	for _, rec := range res.Records {
		costars = append(costars, Costar{
			ID:   stringValue(rec, "id"),
			Name: stringValue(rec, "name"),
			Film: stringValue(rec, "film"),
		})
	}

	return costars, nil
}

func (n *Neo4j) ShortestPath(ctx context.Context, from, to string) (Path, error) {
	res, err := n.query(ctx, shortestPathQuery, map[string]any{"start": from, "end": to})
	if err != nil {
		return Path{}, fmt.Errorf("querying path from %q to %q: %w", from, to, err)
	}
	if len(res.Records) == 0 {
		return Path{}, ErrNoPath
	}

	raw, ok := res.Records[0].Get("path")
	if !ok {
		return Path{}, ErrNoPath
	}
	p, ok := raw.(neo4j.Path)
	if !ok {
		return Path{}, errors.New("graph: unexpected path value")
	}

	segments := segmentsOf(p)

	return Path{
		Start:    from,
		End:      to,
		Length:   len(segments),
		Segments: segments,
	}, nil
}

// segmentsOf folds an alternating Person, Movie, Person... node sequence into
// actor to actor hops.
func segmentsOf(p neo4j.Path) []Segment {
	segments := []Segment{}
	for i := 0; i+2 < len(p.Nodes); i += 2 {
		segments = append(segments, Segment{
			From: propString(p.Nodes[i].Props, "name"),
			Film: propString(p.Nodes[i+1].Props, "title"),
			To:   propString(p.Nodes[i+2].Props, "name"),
		})
	}

	return segments
}

func stringValue(rec *neo4j.Record, key string) string {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return ""
	}

	return fmt.Sprint(v)
}

func propString(props map[string]any, key string) string {
	v, ok := props[key]
	if !ok || v == nil {
		return ""
	}

	return fmt.Sprint(v)
}
