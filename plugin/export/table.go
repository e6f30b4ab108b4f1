// Package export writes analysis results as CSV tables and JSON/YAML documents.
package export

import (
	"math"
	"strconv"

	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/cooccurrence"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/gap"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/innovation"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/trajectory"
)

// Table is a named CSV table. Name is the file name without extension.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// FormatFloat renders v at full precision.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Round3 renders v rounded to three decimals.
func Round3(v float64) string {
	return strconv.FormatFloat(math.Round(v*1000)/1000, 'f', -1, 64)
}

// MatrixTable is the concept×concept correlation matrix with a leading id column.
func MatrixTable(m *cooccurrence.Matrix) Table {
	ids := m.IDs()
	t := Table{
		Name:   "cooccurrence_matrix",
		Header: append([]string{""}, ids...),
		Rows:   make([][]string, 0, len(ids)),
	}
	for _, a := range ids {
		row := make([]string, 0, len(ids)+1)
		row = append(row, a)
		for _, b := range ids {
			row = append(row, FormatFloat(m.Value(a, b)))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// AbundanceTable is the concept×document reference count table.
func AbundanceTable(a *cooccurrence.Abundance) Table {
	t := Table{
		Name:   "abundance",
		Header: append([]string{"concept"}, a.Documents...),
		Rows:   make([][]string, 0, len(a.Concepts)),
	}
	for i, id := range a.Concepts {
		row := make([]string, 0, len(a.Documents)+1)
		row = append(row, id)
		for _, v := range a.Counts[i] {
			row = append(row, strconv.Itoa(int(v)))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// GapTable lists gap candidates in rank order.
func GapTable(candidates []gap.Candidate) Table {
	t := Table{
		Name: "gaps",
		Header: []string{
			"source", "target", "source_category", "target_category",
			"topological_score", "cooccurrence_score", "bridge_bonus", "predicted_strength",
		},
		Rows: make([][]string, 0, len(candidates)),
	}
	for _, c := range candidates {
		t.Rows = append(t.Rows, []string{
			c.Source,
			c.Target,
			string(c.SourceCategory),
			string(c.TargetCategory),
			strconv.Itoa(c.Topological),
			Round3(c.Cooccurrence),
			Round3(c.Bridge),
			Round3(c.Strength),
		})
	}
	return t
}

// AtlasTable is the category×category maximum gap strength matrix.
func AtlasTable(a *gap.Atlas) Table {
	t := Table{
		Name:   "gap_atlas",
		Header: []string{""},
		Rows:   make([][]string, 0, len(a.Categories)),
	}
	for _, c := range a.Categories {
		t.Header = append(t.Header, string(c))
	}
	for i, c := range a.Categories {
		row := []string{string(c)}
		for _, v := range a.Values[i] {
			row = append(row, Round3(v))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// InnovationTable lists concept strategy profiles.
func InnovationTable(r *innovation.Result) Table {
	t := Table{
		Name:   "innovation",
		Header: []string{"concept", "category", "pagerank", "entropy", "quadrant"},
		Rows:   make([][]string, 0, len(r.Scores)),
	}
	for _, s := range r.Scores {
		t.Rows = append(t.Rows, []string{
			s.Concept,
			string(s.Category),
			FormatFloat(s.PageRank),
			Round3(s.Entropy),
			string(s.Quadrant),
		})
	}
	return t
}

// TrajectoryTable lists the ranked paths of one trajectory query.
func TrajectoryTable(res *trajectory.Result) Table {
	t := Table{
		Name: "trajectories_" + res.Start + "_to_" + res.End,
		Header: []string{
			"rank", "path", "hops", "avg_cooccurrence",
			"explicit_links", "hierarchy_score", "category_span", "score",
		},
		Rows: make([][]string, 0, len(res.Paths)),
	}
	for i, p := range res.Paths {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(i + 1),
			p.String(),
			strconv.Itoa(p.Hops),
			Round3(p.AvgCooccurrence),
			strconv.Itoa(p.ExplicitLinks),
			strconv.Itoa(p.HierarchyScore),
			strconv.Itoa(p.CategorySpan),
			Round3(p.Score),
		})
	}
	return t
}
