package gap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/cooccurrence"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/corpus"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/graph"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/taxonomy"
)

func concept(id string, c taxonomy.Category) corpus.Concept {
	return corpus.Concept{ID: id, Category: c}
}

func TestScoreExcludesLinkedPairs(t *testing.T) {
	reg := corpus.NewRegistry(concept("alpha", taxonomy.Theory), concept("beta", taxonomy.Application))
	g := graph.NewLinkGraph(reg.IDs(), []graph.Edge{{Source: "alpha", Target: "beta"}})
	m := cooccurrence.NewMatrix(reg.IDs(), map[[2]string]float64{{"alpha", "beta"}: 0.9})

	res, err := NewScorer(DefaultConfig(), nil, nil).Score(context.Background(), Input{Graph: g, Matrix: m, Registry: reg})
	require.NoError(t, err)
	assert.Empty(t, res.Candidates)
	assert.False(t, res.Skipped)
}

func TestScoreBridgeBonusLiftsCandidate(t *testing.T) {
	reg := corpus.NewRegistry(concept("m1", taxonomy.Material), concept("m2", taxonomy.Application))
	g := graph.NewLinkGraph(reg.IDs(), nil)
	m := cooccurrence.NewMatrix(reg.IDs(), map[[2]string]float64{{"m1", "m2"}: 0.5})

	res, err := NewScorer(DefaultConfig(), nil, nil).Score(context.Background(), Input{Graph: g, Matrix: m, Registry: reg})
	require.NoError(t, err)
	require.Len(t, res.Candidates, 1)

	c := res.Candidates[0]
	assert.Equal(t, "m1", c.Source)
	assert.Equal(t, "m2", c.Target)
	assert.Equal(t, 0, c.Topological)
	assert.InDelta(t, 0.5, c.Cooccurrence, 1e-12)
	assert.InDelta(t, 1.0, c.Bridge, 1e-12)
	assert.InDelta(t, 1.5, c.Strength, 1e-12)

	assert.InDelta(t, 1.5, res.Atlas.Get(taxonomy.Material, taxonomy.Application), 1e-12)
	assert.InDelta(t, 1.5, res.Atlas.Get(taxonomy.Application, taxonomy.Material), 1e-12)
	assert.Zero(t, res.Atlas.Get(taxonomy.Material, taxonomy.Material))
}

func fixture() Input {
	reg := corpus.NewRegistry(
		concept("t1", taxonomy.Theory),
		concept("t2", taxonomy.Theory),
		concept("k1", taxonomy.Mechanism),
		concept("p1", taxonomy.Phenomenon),
		concept("a1", taxonomy.Application),
		concept("a2", taxonomy.Application),
	)
	g := graph.NewLinkGraph(reg.IDs(), []graph.Edge{
		{Source: "t1", Target: "p1"},
		{Source: "k1", Target: "p1"},
		{Source: "a1", Target: "p1"},
		{Source: "t2", Target: "a2"},
	})
	m := cooccurrence.NewMatrix(reg.IDs(), map[[2]string]float64{
		{"t1", "k1"}: 0.4,
		{"t1", "a1"}: -0.8,
		{"k1", "a1"}: 0.2,
	})
	return Input{Graph: g, Matrix: m, Registry: reg}
}

func TestScoreRanksAndNeverReturnsAdjacentPairs(t *testing.T) {
	in := fixture()
	res, err := NewScorer(DefaultConfig(), nil, nil).Score(context.Background(), in)
	require.NoError(t, err)
	require.NotEmpty(t, res.Candidates)

	for i, c := range res.Candidates {
		assert.False(t, in.Graph.Adjacent(c.Source, c.Target), "%s-%s", c.Source, c.Target)
		assert.NotEqual(t, c.SourceCategory, c.TargetCategory)
		assert.Greater(t, c.Strength, 1.0)
		assert.GreaterOrEqual(t, c.Cooccurrence, 0.0)
		if i > 0 {
			assert.GreaterOrEqual(t, res.Candidates[i-1].Strength, c.Strength)
		}
	}

	// t1 and a1 share p1 and a bridge; the negative correlation is clipped.
	top := res.Candidates[0]
	assert.Equal(t, "t1", top.Source)
	assert.Equal(t, "a1", top.Target)
	assert.Equal(t, 1, top.Topological)
	assert.Zero(t, top.Cooccurrence)
	assert.InDelta(t, 3.5, top.Strength, 1e-12)

	scores := NodeScores(res.Candidates)
	assert.InDelta(t, 3.5, scores["t1"], 1e-12)
	assert.InDelta(t, 3.5, res.Atlas.Get(taxonomy.Application, taxonomy.Theory), 1e-12)
}

func TestScoreSkipsEmptyInputs(t *testing.T) {
	reg := corpus.NewRegistry(concept("x", taxonomy.Theory))
	res, err := NewScorer(DefaultConfig(), nil, nil).Score(context.Background(), Input{
		Graph:    graph.NewLinkGraph(reg.IDs(), nil),
		Matrix:   cooccurrence.NewMatrix(nil, nil),
		Registry: reg,
	})
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Empty(t, res.Candidates)
	assert.Len(t, res.Atlas.Values, 6)
}

func TestScoreUsesConfiguredBridges(t *testing.T) {
	bridges, err := taxonomy.NewBridgeTable([]taxonomy.BridgeRule{{A: taxonomy.Mechanism, B: taxonomy.Phenomenon, Bonus: 5}})
	require.NoError(t, err)

	in := fixture()
	res, err := NewScorer(DefaultConfig(), nil, bridges).Score(context.Background(), in)
	require.NoError(t, err)

	for _, c := range res.Candidates {
		assert.False(t, c.SourceCategory == taxonomy.Theory && c.TargetCategory == taxonomy.Application && c.Topological == 0,
			"default bridge should not apply: %+v", c)
	}
}

func TestCommonSuccessorScore(t *testing.T) {
	g := graph.NewLinkGraph([]string{"a", "b", "x", "y", "z"}, []graph.Edge{
		{Source: "a", Target: "x"}, {Source: "a", Target: "y"},
		{Source: "b", Target: "y"}, {Source: "b", Target: "z"}, {Source: "b", Target: "x"},
	})
	assert.Equal(t, 2, CommonSuccessorScore(g, "a", "b"))
	assert.Equal(t, 0, CommonSuccessorScore(g, "a", "missing"))
}

func TestFilter(t *testing.T) {
	c := Candidate{
		Source: "t1", Target: "a1",
		SourceCategory: taxonomy.Theory, TargetCategory: taxonomy.Application,
		Topological: 1, Strength: 3.5, Bridge: 1.5,
	}

	tests := []struct {
		name    string
		expr    string
		match   bool
		wantErr bool
	}{
		{name: "empty matches", expr: "", match: true},
		{name: "category", expr: `source_category == "Theory" && target_category == "Application"`, match: true},
		{name: "strength", expr: "strength > 4.0", match: false},
		{name: "int field", expr: "topological >= 1", match: true},
		{name: "not boolean", expr: "strength + 1.0", wantErr: true},
		{name: "unknown field", expr: "weight > 1.0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := CompileFilter(tt.expr)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			ok, err := f.Match(c)
			require.NoError(t, err)
			assert.Equal(t, tt.match, ok)
		})
	}
}

func TestTop(t *testing.T) {
	res, err := NewScorer(DefaultConfig(), nil, nil).Score(context.Background(), fixture())
	require.NoError(t, err)

	f, err := CompileFilter(`target_category == "Application"`)
	require.NoError(t, err)

	top, err := Top(res.Candidates, f, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, taxonomy.Application, top[0].TargetCategory)

	all, err := Top(res.Candidates, nil, 0)
	require.NoError(t, err)
	assert.Len(t, all, len(res.Candidates))
}
