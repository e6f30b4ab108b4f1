package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/cooccurrence"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/gap"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/innovation"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/taxonomy"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/trajectory"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "0.123", Round3(0.12345))
	assert.Equal(t, "2", Round3(2))
	assert.Equal(t, "-0.5", Round3(-0.5))
	assert.Equal(t, "0.12345", FormatFloat(0.12345))
}

func TestWriteMatrixTable(t *testing.T) {
	m := cooccurrence.NewMatrix([]string{"b", "a"}, map[[2]string]float64{{"a", "b"}: 0.5})
	dir := filepath.Join(t.TempDir(), "out")

	path, err := NewWriter(dir).WriteTable(MatrixTable(m))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cooccurrence_matrix.csv"), path)

	records := readCSV(t, path)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"", m.IDs()[0], m.IDs()[1]}, records[0])
	for i, row := range records[1:] {
		assert.Equal(t, "1", row[i+1], "diagonal")
	}
	assert.Equal(t, records[1][2], records[2][1])
	assert.Equal(t, "0.5", records[1][2])
}

func TestAbundanceTable(t *testing.T) {
	a := &cooccurrence.Abundance{
		Concepts:  []string{"x", "y"},
		Documents: []string{"materials.md", "theoretical.md"},
		Counts:    [][]float64{{2, 0}, {1, 3}},
	}
	table := AbundanceTable(a)
	assert.Equal(t, []string{"concept", "materials.md", "theoretical.md"}, table.Header)
	assert.Equal(t, [][]string{{"x", "2", "0"}, {"y", "1", "3"}}, table.Rows)
}

func TestGapAndAtlasTables(t *testing.T) {
	candidates := []gap.Candidate{{
		Source:         "t1",
		Target:         "a1",
		SourceCategory: taxonomy.Theory,
		TargetCategory: taxonomy.Application,
		Topological:    1,
		Cooccurrence:   0.33333,
		Bridge:         1.5,
		Strength:       3.83333,
	}}
	table := GapTable(candidates)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, []string{"t1", "a1", "Theory", "Application", "1", "0.333", "1.5", "3.833"}, table.Rows[0])

	atlas := gap.NewAtlas([]taxonomy.Category{taxonomy.Theory, taxonomy.Application})
	atlas.Values[0][1], atlas.Values[1][0] = 3.83333, 3.83333
	at := AtlasTable(atlas)
	assert.Equal(t, []string{"", "Theory", "Application"}, at.Header)
	assert.Equal(t, [][]string{{"Theory", "0", "3.833"}, {"Application", "3.833", "0"}}, at.Rows)
}

func TestInnovationAndTrajectoryTables(t *testing.T) {
	inno := &innovation.Result{Scores: []innovation.Score{{
		Concept: "hub", Category: taxonomy.Mechanism, PageRank: 0.25, Entropy: 1.58496, Quadrant: innovation.BoundarySpanner,
	}}}
	assert.Equal(t, [][]string{{"hub", "Mechanism", "0.25", "1.585", "Boundary Spanner"}}, InnovationTable(inno).Rows)

	res := &trajectory.Result{
		Start: "a",
		End:   "d",
		Paths: []trajectory.Path{
			{Nodes: []string{"a", "c", "d"}, Hops: 2, AvgCooccurrence: 0.8, ExplicitLinks: 2, HierarchyScore: 1, CategorySpan: 0, Score: 23},
			{Nodes: []string{"a", "d"}, Hops: 1},
		},
	}
	tt := TrajectoryTable(res)
	assert.Equal(t, "trajectories_a_to_d", tt.Name)
	assert.Equal(t, []string{"1", "a -> c -> d", "2", "0.8", "2", "1", "0", "23"}, tt.Rows[0])
	assert.Equal(t, "2", tt.Rows[1][0])
}

func TestWriteDocuments(t *testing.T) {
	type doc struct {
		RunID string    `json:"run_id"`
		Nodes []float64 `json:"nodes"`
		Skip  string    `json:"-"`
	}
	w := NewWriter(t.TempDir())
	v := doc{RunID: "r1", Nodes: []float64{0.5, 1}, Skip: "hidden"}

	jsonPath, err := w.WriteJSON("report", v)
	require.NoError(t, err)
	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "r1", decoded["run_id"])
	assert.NotContains(t, decoded, "Skip")

	yamlPath, err := w.WriteYAML("report", v)
	require.NoError(t, err)
	assert.Equal(t, "report.yaml", filepath.Base(yamlPath))
	data, err = os.ReadFile(yamlPath)
	require.NoError(t, err)
	decoded = nil
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, "r1", decoded["run_id"])
	assert.Len(t, decoded["nodes"], 2)
	assert.NotContains(t, string(data), "hidden")
}

func TestWriteTables(t *testing.T) {
	w := NewWriter(t.TempDir())
	paths, err := w.WriteTables(
		Table{Name: "one", Header: []string{"a"}, Rows: [][]string{{"1"}}},
		Table{Name: "two", Header: []string{"b"}},
	)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, [][]string{{"b"}}, readCSV(t, paths[1]))
}
