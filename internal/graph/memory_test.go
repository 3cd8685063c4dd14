package graph

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDifficulty(t *testing.T) {
	tests := []struct {
		in   string
		want Difficulty
		ok   bool
	}{
		{"", Easy, true},
		{"easy", Easy, true},
		{"hard", Hard, true},
		{"HARD", "", false},
		{"nightmare", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDifficulty(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSampleLoads(t *testing.T) {
	m := Sample()
	assert.Equal(t, 17, m.Len())
}

func TestMemory_Connected(t *testing.T) {
	m := Sample()

	costars, err := m.Connected(context.Background(), "Michael Cera")
	require.NoError(t, err)

	names := make([]string, 0, len(costars))
	for _, c := range costars {
		names = append(names, c.Name)
		assert.NotEmpty(t, c.ID)
	}
	assert.Equal(t, []string{"Anna Kendrick", "Chris Evans", "Emma Stone", "Jonah Hill"}, names)

	_, err = m.Connected(context.Background(), "Nobody")
	assert.ErrorIs(t, err, ErrUnknownActor)
}

func TestMemory_ShortestPath(t *testing.T) {
	m := Sample()
	ctx := context.Background()

	path, err := m.ShortestPath(ctx, "John Travolta", "Daniel Craig")
	require.NoError(t, err)
	assert.Equal(t, 3, path.Length)
	assert.Equal(t, []Segment{
		{From: "John Travolta", Film: "Pulp Fiction", To: "Samuel L. Jackson"},
		{From: "Samuel L. Jackson", Film: "The Avengers", To: "Chris Evans"},
		{From: "Chris Evans", Film: "Knives Out", To: "Daniel Craig"},
	}, path.Segments)

	same, err := m.ShortestPath(ctx, "Uma Thurman", "Uma Thurman")
	require.NoError(t, err)
	assert.Zero(t, same.Length)
	assert.Empty(t, same.Segments)

	_, err = m.ShortestPath(ctx, "Uma Thurman", "Nobody")
	assert.ErrorIs(t, err, ErrUnknownActor)
}

func TestMemory_ShortestPathDisconnected(t *testing.T) {
	m := NewMemory(Catalog{Films: []Film{
		{Title: "One", Cast: []CastMember{{Name: "A"}, {Name: "B"}}},
		{Title: "Two", Cast: []CastMember{{Name: "C"}, {Name: "D"}}},
	}})

	_, err := m.ShortestPath(context.Background(), "A", "D")
	assert.ErrorIs(t, err, ErrNoPath)
}

func TestMemory_RandomPair(t *testing.T) {
	m := Sample()
	ctx := context.Background()

	for _, d := range []Difficulty{Easy, Hard} {
		for i := 0; i < 50; i++ {
			pair, err := m.RandomPair(ctx, d)
			require.NoError(t, err)
			require.NotEqual(t, pair.Actor1.Name, pair.Actor2.Name)

			if d == Easy {
				assert.Greater(t, m.people[pair.Actor1.Name].popularity, PopularityThreshold)
				assert.Greater(t, m.people[pair.Actor2.Name].popularity, PopularityThreshold)
			}

			path, err := m.ShortestPath(ctx, pair.Actor1.Name, pair.Actor2.Name)
			require.NoError(t, err)
			assert.LessOrEqual(t, path.Length, MaxHops)
		}
	}
}

func TestMemory_RandomPairNoCandidates(t *testing.T) {
	tests := []struct {
		name string
		cat  Catalog
		d    Difficulty
	}{
		{
			name: "empty catalog",
			cat:  Catalog{},
			d:    Hard,
		},
		{
			name: "single actor",
			cat:  Catalog{Films: []Film{{Title: "Solo", Cast: []CastMember{{Name: "A", Popularity: 9}}}}},
			d:    Hard,
		},
		{
			name: "nobody popular enough",
			cat: Catalog{Films: []Film{{Title: "Indie", Cast: []CastMember{
				{Name: "A", Popularity: 1},
				{Name: "B", Popularity: 2},
			}}}},
			d: Easy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMemory(tt.cat).RandomPair(context.Background(), tt.d)
			assert.ErrorIs(t, err, ErrNoPair)
		})
	}
}

func TestMemory_RandomPairRespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Sample().RandomPair(ctx, Easy)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadMemory(t *testing.T) {
	doc := `
films:
  - title: Heat
    year: 1995
    cast:
      - {name: Al Pacino, popularity: 6}
      - {name: Robert De Niro, popularity: 6}
`
	m, err := LoadMemory(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, 2, m.Len())

	pair, err := m.RandomPair(context.Background(), Easy)
	require.NoError(t, err)
	assert.ElementsMatch(t,
		[]string{"Al Pacino", "Robert De Niro"},
		[]string{pair.Actor1.Name, pair.Actor2.Name},
	)

	_, err = LoadMemory(strings.NewReader("films: [this is not"))
	assert.Error(t, err)
}

func TestReachable_CountsFilms(t *testing.T) {
	// a0 - a1 - ... - a8, one film per link.
	var cat Catalog
	for i := 0; i < 8; i++ {
		cat.Films = append(cat.Films, Film{
			Title: "film-" + string(rune('0'+i)),
			Cast: []CastMember{
				{Name: "a" + string(rune('0'+i)), Popularity: 5},
				{Name: "a" + string(rune('0'+i+1)), Popularity: 5},
			},
		})
	}
	m := NewMemory(cat)

	seen := m.reachable("a0", MaxHops)
	assert.True(t, seen["a6"], "six films away is in range")
	assert.False(t, seen["a7"], "seven films away is out of range")

	path, err := m.ShortestPath(context.Background(), "a0", "a6")
	require.NoError(t, err)
	assert.Equal(t, MaxHops, path.Length)
}
