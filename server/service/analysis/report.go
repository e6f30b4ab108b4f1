package analysis

import (
	"cmp"
	"slices"
	"strconv"
	"time"

	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/cooccurrence"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/corpus"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/export"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/gap"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/graph"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/innovation"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/taxonomy"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/trajectory"
)

// Report is the immutable result of one analysis run.
type Report struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`

	Registry   *corpus.Registry        `json:"-"`
	Graph      *graph.LinkGraph        `json:"-"`
	Abundance  *cooccurrence.Abundance `json:"-"`
	Matrix     *cooccurrence.Matrix    `json:"-"`
	Centrality *graph.Centrality       `json:"-"`
	Partition  *graph.Partition        `json:"-"`
	Network    *graph.Network          `json:"-"`

	Nodes         []NodeRecord        `json:"nodes"`
	TopCentrality []NodeRecord        `json:"top_centrality"`
	Communities   []CommunityRecord   `json:"communities"`
	Gaps          *gap.Result         `json:"gaps"`
	Innovation    *innovation.Result  `json:"innovation"`
	Warnings      []corpus.Warning    `json:"warnings,omitempty"`
	Categories    []taxonomy.Category `json:"categories"`

	synthesizer *trajectory.Synthesizer
}

// NodeRecord is one row of the node master table.
type NodeRecord struct {
	ID          string              `json:"id"`
	Category    taxonomy.Category   `json:"category"`
	Color       string              `json:"color"`
	Degree      float64             `json:"degree"`
	Betweenness float64             `json:"betweenness"`
	PageRank    float64             `json:"pagerank"`
	Community   int                 `json:"community"`
	Entropy     float64             `json:"entropy"`
	Quadrant    innovation.Quadrant `json:"quadrant,omitempty"`
	GapScore    float64             `json:"gap_score"`
}

// CommunityRecord assigns one concept to its community.
type CommunityRecord struct {
	Concept   string            `json:"concept"`
	Community int               `json:"community"`
	Category  taxonomy.Category `json:"category"`
}

// Summary holds the headline numbers of a report.
type Summary struct {
	RunID          string `json:"run_id"`
	Concepts       int    `json:"concepts"`
	Edges          int    `json:"edges"`
	MatrixConcepts int    `json:"matrix_concepts"`
	Communities    int    `json:"communities"`
	GapCandidates  int    `json:"gap_candidates"`
	Warnings       int    `json:"warnings"`
}

// Summary returns the headline numbers of r.
func (r *Report) Summary() Summary {
	s := Summary{
		RunID:          r.RunID,
		Concepts:       r.Registry.Len(),
		Edges:          r.Graph.EdgeCount(),
		MatrixConcepts: r.Matrix.Len(),
		Warnings:       len(r.Warnings),
	}
	if r.Partition != nil {
		s.Communities = r.Partition.Count
	}
	if r.Gaps != nil {
		s.GapCandidates = len(r.Gaps.Candidates)
	}
	return s
}

// Node returns the master table row of id.
func (r *Report) Node(id string) (NodeRecord, bool) {
	for _, n := range r.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return NodeRecord{}, false
}

// Synthesizer returns the trajectory synthesizer bound to this report.
func (r *Report) Synthesizer() *trajectory.Synthesizer {
	return r.synthesizer
}

func nodeRecords(reg *corpus.Registry, cent *graph.Centrality, part *graph.Partition, inno *innovation.Result, gaps *gap.Result) []NodeRecord {
	profiles := make(map[string]innovation.Score, len(inno.Scores))
	for _, s := range inno.Scores {
		profiles[s.Concept] = s
	}
	gapScores := gap.NodeScores(gaps.Candidates)

	records := make([]NodeRecord, 0, reg.Len())
	for _, c := range reg.Concepts() {
		rec := NodeRecord{
			ID:          c.ID,
			Category:    c.Category,
			Color:       c.Color,
			Degree:      cent.Degree[c.ID],
			Betweenness: cent.Betweenness[c.ID],
			PageRank:    cent.PageRank[c.ID],
			Community:   -1,
			GapScore:    gapScores[c.ID],
		}
		if community, ok := part.Community[c.ID]; ok {
			rec.Community = community
		}
		if p, ok := profiles[c.ID]; ok {
			rec.Entropy = p.Entropy
			rec.Quadrant = p.Quadrant
		}
		records = append(records, rec)
	}
	return records
}

// TopByPageRank returns at most n records by PageRank, highest first, ties
// broken by id.
func TopByPageRank(nodes []NodeRecord, n int) []NodeRecord {
	sorted := slices.Clone(nodes)
	slices.SortFunc(sorted, func(a, b NodeRecord) int {
		if c := cmp.Compare(b.PageRank, a.PageRank); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// communityRecords lists partitioned concepts by community, then concept.
func communityRecords(nodes []NodeRecord) []CommunityRecord {
	out := make([]CommunityRecord, 0, len(nodes))
	for _, n := range nodes {
		if n.Community < 0 {
			continue
		}
		out = append(out, CommunityRecord{Concept: n.ID, Community: n.Community, Category: n.Category})
	}
	slices.SortFunc(out, func(a, b CommunityRecord) int {
		if c := cmp.Compare(a.Community, b.Community); c != 0 {
			return c
		}
		return cmp.Compare(a.Concept, b.Concept)
	})
	return out
}

func nodeRows(nodes []NodeRecord) [][]string {
	rows := make([][]string, 0, len(nodes))
	for _, n := range nodes {
		rows = append(rows, []string{
			n.ID,
			string(n.Category),
			n.Color,
			export.FormatFloat(n.Degree),
			export.FormatFloat(n.Betweenness),
			export.FormatFloat(n.PageRank),
			strconv.Itoa(n.Community),
			export.Round3(n.Entropy),
			string(n.Quadrant),
			export.Round3(n.GapScore),
		})
	}
	return rows
}

var nodeHeader = []string{
	"id", "category", "color", "degree", "betweenness", "pagerank",
	"community", "entropy", "quadrant", "gap_score",
}

// Tables returns every result table of the report.
func (r *Report) Tables() []export.Table {
	communities := export.Table{
		Name:   "communities",
		Header: []string{"concept", "community", "category"},
		Rows:   make([][]string, 0, len(r.Communities)),
	}
	for _, c := range r.Communities {
		communities.Rows = append(communities.Rows, []string{c.Concept, strconv.Itoa(c.Community), string(c.Category)})
	}
	return []export.Table{
		{Name: "nodes", Header: nodeHeader, Rows: nodeRows(r.Nodes)},
		export.MatrixTable(r.Matrix),
		export.AbundanceTable(r.Abundance),
		{Name: "centrality_top", Header: nodeHeader, Rows: nodeRows(r.TopCentrality)},
		communities,
		export.GapTable(r.Gaps.Candidates),
		export.AtlasTable(r.Gaps.Atlas),
		export.InnovationTable(r.Innovation),
	}
}

// Export writes the report tables, one table per trajectory result, and the
// report document as JSON and YAML. It returns the written paths.
func (r *Report) Export(w *export.Writer, trajectories ...*trajectory.Result) ([]string, error) {
	tables := r.Tables()
	for _, res := range trajectories {
		tables = append(tables, export.TrajectoryTable(res))
	}
	paths, err := w.WriteTables(tables...)
	if err != nil {
		return paths, err
	}
	doc := struct {
		*Report
		Summary      Summary              `json:"summary"`
		Trajectories []*trajectory.Result `json:"trajectories,omitempty"`
	}{Report: r, Summary: r.Summary(), Trajectories: trajectories}
	for _, write := range []func(string, any) (string, error){w.WriteJSON, w.WriteYAML} {
		p, err := write("report", doc)
		if err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}
