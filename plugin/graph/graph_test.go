package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/corpus"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/taxonomy"
)

func testDocs() []corpus.Document {
	return []corpus.Document{
		{
			Category: taxonomy.Theory,
			File:     "theoretical.md",
			Content: []byte(`Preamble [[./materials.md#graphene]] has no owner.

### info-theory
Links [[./materials.md#graphene]] twice [[./materials.md#graphene]],
to itself [[./theoretical.md#info-theory]] and nowhere [[./materials.md#unobtainium]].
`),
		},
		{
			Category: taxonomy.Material,
			File:     "materials.md",
			Content: []byte(`### graphene
Back to [[./theoretical.md#info-theory]] and on to [[./applications.md#sensors]].
`),
		},
		{
			Category: taxonomy.Application,
			File:     "applications.md",
			Content:  []byte("### sensors\nNo links.\n"),
		},
	}
}

func TestBuild(t *testing.T) {
	docs := testDocs()
	reg := corpus.ExtractRegistry(docs)
	g := Build(docs, reg)

	assert.Equal(t, []string{"graphene", "info-theory", "sensors"}, g.Nodes())
	for _, id := range g.Nodes() {
		assert.True(t, reg.Has(id))
	}

	assert.Equal(t, 3, g.EdgeCount())
	assert.True(t, g.HasEdge("info-theory", "graphene"))
	assert.True(t, g.HasEdge("graphene", "info-theory"))
	assert.True(t, g.HasEdge("graphene", "sensors"))
	assert.False(t, g.HasEdge("info-theory", "info-theory"))
	assert.False(t, g.HasNode("unobtainium"))

	assert.Equal(t, []string{"info-theory", "sensors"}, g.Successors("graphene"))
	assert.Equal(t, []string{"graphene"}, g.Predecessors("sensors"))
	assert.True(t, g.Adjacent("sensors", "graphene"))
}

func TestNewLinkGraphDropsInvalidEdges(t *testing.T) {
	g := NewLinkGraph([]string{"b", "a", "a"}, []Edge{
		{Source: "a", Target: "b"},
		{Source: "a", Target: "b"},
		{Source: "a", Target: "a"},
		{Source: "a", Target: "z"},
	})
	assert.Equal(t, []string{"a", "b"}, g.Nodes())
	assert.Equal(t, []Edge{{Source: "a", Target: "b"}}, g.Edges())
	assert.Equal(t, 1, g.OutDegree("a"))
	assert.Equal(t, 1, g.InDegree("b"))
}

func TestDegreeCentrality(t *testing.T) {
	single := NewLinkGraph([]string{"only"}, nil)
	assert.Equal(t, map[string]float64{"only": 1}, DegreeCentrality(single))

	g := NewLinkGraph([]string{"a", "b", "c"}, []Edge{{"a", "b"}, {"b", "c"}, {"c", "b"}})
	deg := DegreeCentrality(g)
	assert.InDelta(t, 0.5, deg["a"], 1e-12)
	assert.InDelta(t, 1.5, deg["b"], 1e-12)
	assert.InDelta(t, 1.0, deg["c"], 1e-12)
}

func TestBetweennessCentrality(t *testing.T) {
	chain := NewLinkGraph([]string{"a", "b", "c"}, []Edge{{"a", "b"}, {"b", "c"}})
	bc := BetweennessCentrality(chain)
	assert.InDelta(t, 0.0, bc["a"], 1e-12)
	assert.InDelta(t, 0.5, bc["b"], 1e-12)
	assert.InDelta(t, 0.0, bc["c"], 1e-12)

	// Two equal shortest paths a→x→d and a→y→d split the credit.
	diamond := NewLinkGraph([]string{"a", "x", "y", "d"}, []Edge{{"a", "x"}, {"a", "y"}, {"x", "d"}, {"y", "d"}})
	bc = BetweennessCentrality(diamond)
	assert.InDelta(t, 0.5/6, bc["x"], 1e-12)
	assert.InDelta(t, bc["x"], bc["y"], 1e-12)
}

func TestPageRank(t *testing.T) {
	tests := []struct {
		name         string
		nodes        []string
		edges        []Edge
		checkHighest string
	}{
		{
			name:  "single node",
			nodes: []string{"A"},
		},
		{
			name:         "star topology - center should be highest",
			nodes:        []string{"center", "leaf1", "leaf2", "leaf3"},
			edges:        []Edge{{"leaf1", "center"}, {"leaf2", "center"}, {"leaf3", "center"}},
			checkHighest: "center",
		},
		{
			name:  "cycle",
			nodes: []string{"A", "B", "C"},
			edges: []Edge{{"A", "B"}, {"B", "C"}, {"C", "A"}},
		},
		{
			name:         "linear chain with dangling end",
			nodes:        []string{"A", "B", "C"},
			edges:        []Edge{{"A", "B"}, {"B", "C"}},
			checkHighest: "C",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewLinkGraph(tt.nodes, tt.edges)
			res := PageRank(g, DefaultPageRankConfig())
			require.True(t, res.Converged)

			sum := 0.0
			for _, s := range res.Scores {
				sum += s
			}
			assert.InDelta(t, 1.0, sum, 1e-9)

			if tt.checkHighest != "" {
				for id, s := range res.Scores {
					if id != tt.checkHighest {
						assert.Greater(t, res.Scores[tt.checkHighest], s)
					}
				}
			}
		})
	}
}

func TestPageRankReportsNonConvergence(t *testing.T) {
	g := NewLinkGraph([]string{"a", "b"}, []Edge{{"a", "b"}})
	res := PageRank(g, PageRankConfig{Damping: 0.85, Tolerance: 0, MaxIterations: 3})
	assert.False(t, res.Converged)
	assert.Equal(t, 3, res.Iterations)
}

func twoTriangles(bridge bool) *LinkGraph {
	edges := []Edge{
		{"a", "b"}, {"b", "c"}, {"c", "a"},
		{"d", "e"}, {"e", "f"}, {"f", "d"},
	}
	if bridge {
		edges = append(edges, Edge{"c", "d"})
	}
	return NewLinkGraph([]string{"a", "b", "c", "d", "e", "f"}, edges)
}

func TestLouvainSeparatesComponents(t *testing.T) {
	part, err := DefaultLouvain().Partition(context.Background(), ToUndirected(twoTriangles(false)))
	require.NoError(t, err)

	assert.Equal(t, 2, part.Count)
	assert.Equal(t, map[string]int{"a": 0, "b": 0, "c": 0, "d": 1, "e": 1, "f": 1}, part.Community)
	assert.InDelta(t, 0.5, part.Modularity, 1e-9)
	assert.Equal(t, []string{"d", "e", "f"}, part.Members(1))
}

func TestLouvainIsDeterministic(t *testing.T) {
	u := ToUndirected(twoTriangles(true))
	first, err := DefaultLouvain().Partition(context.Background(), u)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := DefaultLouvain().Partition(context.Background(), u)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.GreaterOrEqual(t, first.Count, 1)
	assert.Equal(t, 0, first.Community["a"])
}

func TestLouvainWithoutEdges(t *testing.T) {
	part, err := DefaultLouvain().Partition(context.Background(), NewUndirected([]string{"y", "x"}))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"x": 0, "y": 1}, part.Community)
	assert.Equal(t, 2, part.Count)
}

func TestToUndirectedMergesDirections(t *testing.T) {
	g := NewLinkGraph([]string{"a", "b"}, []Edge{{"a", "b"}, {"b", "a"}})
	u := ToUndirected(g)
	assert.Equal(t, 1.0, u.Size())
	assert.Equal(t, 1.0, u.Weight(0, 1))
}

func TestAnalyzeEmptyGraph(t *testing.T) {
	cent, part, err := Analyze(context.Background(), NewLinkGraph(nil, nil), DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, cent.PageRank)
	assert.True(t, part.Skipped)
}

func TestAnalyzeDoesNotMutateGraph(t *testing.T) {
	g := twoTriangles(true)
	before := g.Edges()

	cent, part, err := Analyze(context.Background(), g, DefaultConfig())
	require.NoError(t, err)
	assert.Len(t, cent.Betweenness, 6)
	assert.Len(t, part.Community, 6)
	assert.Equal(t, before, g.Edges())
}

func TestAnalyzeHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := Analyze(ctx, twoTriangles(false), DefaultConfig())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestApplyFilter(t *testing.T) {
	docs := testDocs()
	reg := corpus.ExtractRegistry(docs)
	g := Build(docs, reg)
	cent, part, err := Analyze(context.Background(), g, DefaultConfig())
	require.NoError(t, err)

	network := NewNetwork(g, reg, cent, part)
	require.Len(t, network.Nodes, 3)
	assert.Equal(t, 3, network.Stats.EdgeCount)

	filtered := ApplyFilter(network, NetworkFilter{Categories: []taxonomy.Category{taxonomy.Theory, taxonomy.Material}})
	assert.Equal(t, 2, filtered.Stats.NodeCount)
	assert.Equal(t, 2, filtered.Stats.EdgeCount)
	for _, e := range filtered.Edges {
		assert.NotEqual(t, "sensors", e.Target)
	}

	assert.Nil(t, ApplyFilter(nil, NetworkFilter{}))
}
