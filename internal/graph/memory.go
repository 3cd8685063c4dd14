package graph

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed sample.yaml
var sampleCatalog []byte

// Catalog is the YAML document accepted by LoadMemory.
type Catalog struct {
	Films []Film `yaml:"films"`
}

type Film struct {
	Title string       `yaml:"title"`
	Year  int          `yaml:"year"`
	Cast  []CastMember `yaml:"cast"`
}

type CastMember struct {
	Name       string  `yaml:"name"`
	Popularity float64 `yaml:"popularity"`
}

type person struct {
	actor      Actor
	popularity float64
	edges      []edge
}

type edge struct {
	to   string
	film string
}

// Memory serves the graph from an in-process adjacency list. It is read-only
// after construction and safe for concurrent use.
type Memory struct {
	people map[string]*person
	names  []string

	intn func(n int) int
}

// NewMemory indexes every cast member of every film in cat.
func NewMemory(cat Catalog) *Memory {
	m := &Memory{
		people: make(map[string]*person),
		intn:   rand.Intn,
	}

	for _, film := range cat.Films {
		for _, member := range film.Cast {
			p, ok := m.people[member.Name]
			if !ok {
				p = &person{actor: Actor{Name: member.Name}}
				m.people[member.Name] = p
				m.names = append(m.names, member.Name)
			}
			if member.Popularity > p.popularity {
				p.popularity = member.Popularity
			}
		}

		for i, a := range film.Cast {
			for j, b := range film.Cast {
				if i == j || a.Name == b.Name {
					continue
				}
				pa := m.people[a.Name]
				pa.edges = append(pa.edges, edge{to: b.Name, film: film.Title})
			}
		}
	}

	sort.Strings(m.names)
	for i, name := range m.names {
		m.people[name].actor.ID = strconv.Itoa(i + 1)
	}

	return m
}

func LoadMemory(r io.Reader) (*Memory, error) {
	var cat Catalog
	if err := yaml.NewDecoder(r).Decode(&cat); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}

	return NewMemory(cat), nil
}

func LoadMemoryFile(path string) (*Memory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return LoadMemory(f)
}

// Sample returns a small built-in catalog, used when no graph database is
// configured.
func Sample() *Memory {
	var cat Catalog
	if err := yaml.Unmarshal(sampleCatalog, &cat); err != nil {
		panic("graph: embedded sample catalog is invalid: " + err.Error())
	}

	return NewMemory(cat)
}

func (m *Memory) Len() int {
	return len(m.names)
}

func (m *Memory) RandomPair(ctx context.Context, d Difficulty) (Pair, error) {
	if err := ctx.Err(); err != nil {
		return Pair{}, err
	}

	starts := make([]string, 0, len(m.names))
	for _, name := range m.names {
		if eligible(d, name, m.people[name].popularity) {
			starts = append(starts, name)
		}
	}

	for len(starts) > 0 {
		i := m.intn(len(starts))
		start := starts[i]
		starts[i] = starts[len(starts)-1]
		starts = starts[:len(starts)-1]

		var ends []string
		for name := range m.reachable(start, MaxHops) {
			if name != start && eligible(d, name, m.people[name].popularity) {
				ends = append(ends, name)
			}
		}
		if len(ends) == 0 {
			continue
		}
		sort.Strings(ends)

		end := ends[m.intn(len(ends))]

		return Pair{
			Actor1: m.people[start].actor,
			Actor2: m.people[end].actor,
		}, nil
	}

	return Pair{}, ErrNoPair
}

func (m *Memory) Connected(ctx context.Context, name string) ([]Costar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, ok := m.people[name]
	if !ok {
		return nil, ErrUnknownActor
	}

	seen := make(map[edge]bool, len(p.edges))
	costars := make([]Costar, 0, len(p.edges))
	for _, e := range p.edges {
		if seen[e] {
			continue
		}
		seen[e] = true
		costars = append(costars, Costar{
			ID:   m.people[e.to].actor.ID,
			Name: e.to,
			Film: e.film,
		})
	}

	sort.Slice(costars, func(i, j int) bool {
		if costars[i].Name != costars[j].Name {
			return costars[i].Name < costars[j].Name
		}
		return costars[i].Film < costars[j].Film
	})

	return costars, nil
}

func (m *Memory) ShortestPath(ctx context.Context, from, to string) (Path, error) {
	if err := ctx.Err(); err != nil {
		return Path{}, err
	}

	if _, ok := m.people[from]; !ok {
		return Path{}, ErrUnknownActor
	}
	if _, ok := m.people[to]; !ok {
		return Path{}, ErrUnknownActor
	}

	path := Path{Start: from, End: to, Segments: []Segment{}}
	if from == to {
		return path, nil
	}

	// parent[name] is the hop that first reached name.
	parent := map[string]Segment{from: {}}
	queue := []string{from}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, e := range m.people[cur].edges {
			if _, seen := parent[e.to]; seen {
				continue
			}
			parent[e.to] = Segment{From: cur, Film: e.film, To: e.to}
			if e.to == to {
				for name := to; name != from; name = parent[name].From {
					path.Segments = append(path.Segments, parent[name])
				}
				for i, j := 0, len(path.Segments)-1; i < j; i, j = i+1, j-1 {
					path.Segments[i], path.Segments[j] = path.Segments[j], path.Segments[i]
				}
				path.Length = len(path.Segments)

				return path, nil
			}
			queue = append(queue, e.to)
		}
	}

	return Path{}, ErrNoPath
}

// reachable returns every actor within hops films of start, start included.
func (m *Memory) reachable(start string, hops int) map[string]bool {
	seen := map[string]bool{start: true}
	frontier := []string{start}

	for depth := 0; depth < hops && len(frontier) > 0; depth++ {
		var next []string
		for _, name := range frontier {
			for _, e := range m.people[name].edges {
				if !seen[e.to] {
					seen[e.to] = true
					next = append(next, e.to)
				}
			}
		}
		frontier = next
	}

	return seen
}
