// Package cooccurrence measures how similarly concepts are referenced across
// the category documents.
package cooccurrence

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/corpus"
)

// Abundance counts references per concept (row) and document (column).
// Rows are sorted concept ids with a nonzero total; columns are sorted file names.
type Abundance struct {
	Concepts  []string    `json:"concepts"`
	Documents []string    `json:"documents"`
	Counts    [][]float64 `json:"counts"`
}

// BuildAbundance counts how often each registered concept is referenced
// anywhere in each document.
func BuildAbundance(docs []corpus.Document, reg *corpus.Registry) *Abundance {
	sortedDocs := make([]corpus.Document, len(docs))
	copy(sortedDocs, docs)
	sort.SliceStable(sortedDocs, func(i, j int) bool { return sortedDocs[i].File < sortedDocs[j].File })

	counts := make(map[string][]float64)
	files := make([]string, len(sortedDocs))
	for d, doc := range sortedDocs {
		files[d] = doc.File
		for _, link := range corpus.Links(doc.Content) {
			if !reg.Has(link.Target) {
				continue
			}
			row, ok := counts[link.Target]
			if !ok {
				row = make([]float64, len(sortedDocs))
				counts[link.Target] = row
			}
			row[d]++
		}
	}

	a := &Abundance{Documents: files}
	for id := range counts {
		a.Concepts = append(a.Concepts, id)
	}
	sort.Strings(a.Concepts)
	a.Counts = make([][]float64, len(a.Concepts))
	for i, id := range a.Concepts {
		a.Counts[i] = counts[id]
	}
	return a
}

// Matrix is a symmetric concept×concept Spearman correlation matrix.
type Matrix struct {
	ids   []string
	index map[string]int
	data  *mat.SymDense
}

// Build returns the co-occurrence matrix of docs.
func Build(docs []corpus.Document, reg *corpus.Registry) *Matrix {
	return FromAbundance(BuildAbundance(docs, reg))
}

// FromAbundance correlates the rank vectors of every pair of abundance rows.
// Correlations that are undefined, such as for a constant row, become 0.
func FromAbundance(a *Abundance) *Matrix {
	m := &Matrix{index: make(map[string]int)}
	if a == nil || len(a.Concepts) == 0 {
		return m
	}
	n := len(a.Concepts)
	m.ids = append([]string(nil), a.Concepts...)
	for i, id := range m.ids {
		m.index[id] = i
	}

	ranks := make([][]float64, n)
	for i, row := range a.Counts {
		ranks[i] = Rank(row)
	}

	m.data = mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			m.data.SetSym(i, j, correlation(ranks[i], ranks[j]))
		}
	}
	return m
}

// NewMatrix builds a matrix from explicit values. values is keyed by
// unordered pairs; the diagonal is 1.
func NewMatrix(ids []string, values map[[2]string]float64) *Matrix {
	m := &Matrix{index: make(map[string]int)}
	if len(ids) == 0 {
		return m
	}
	m.ids = append([]string(nil), ids...)
	sort.Strings(m.ids)
	for i, id := range m.ids {
		m.index[id] = i
	}
	m.data = mat.NewSymDense(len(m.ids), nil)
	for i := range m.ids {
		m.data.SetSym(i, i, 1)
	}
	for pair, v := range values {
		i, ok := m.index[pair[0]]
		if !ok {
			continue
		}
		j, ok := m.index[pair[1]]
		if !ok {
			continue
		}
		m.data.SetSym(i, j, v)
	}
	return m
}

func correlation(x, y []float64) float64 {
	if len(x) < 2 {
		return 0
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

// Rank returns the 1-based ranks of values; ties get their average rank.
func Rank(values []float64) []float64 {
	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return values[order[a]] < values[order[b]] })

	ranks := make([]float64, len(values))
	for i := 0; i < len(order); {
		j := i
		for j+1 < len(order) && values[order[j+1]] == values[order[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[order[k]] = avg
		}
		i = j + 1
	}
	return ranks
}

// Len returns the number of concepts in the matrix.
func (m *Matrix) Len() int {
	if m == nil {
		return 0
	}
	return len(m.ids)
}

// IDs returns the concepts of the matrix in lexical order.
func (m *Matrix) IDs() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.ids...)
}

// Has reports whether id has a row in the matrix.
func (m *Matrix) Has(id string) bool {
	if m == nil {
		return false
	}
	_, ok := m.index[id]
	return ok
}

// Get returns the correlation of a and b and whether both are present.
func (m *Matrix) Get(a, b string) (float64, bool) {
	if m == nil {
		return 0, false
	}
	i, ok := m.index[a]
	if !ok {
		return 0, false
	}
	j, ok := m.index[b]
	if !ok {
		return 0, false
	}
	return m.data.At(i, j), true
}

// Value returns the correlation of a and b, or 0 when either is absent.
func (m *Matrix) Value(a, b string) float64 {
	v, _ := m.Get(a, b)
	return v
}

// Row returns the correlations of id with every other concept, self excluded.
func (m *Matrix) Row(id string) map[string]float64 {
	if m == nil {
		return nil
	}
	i, ok := m.index[id]
	if !ok {
		return nil
	}
	row := make(map[string]float64, len(m.ids)-1)
	for j, other := range m.ids {
		if j != i {
			row[other] = m.data.At(i, j)
		}
	}
	return row
}

// Pairs calls fn for every unordered pair of distinct concepts, ordered by
// row then column index.
func (m *Matrix) Pairs(fn func(a, b string, v float64)) {
	if m == nil {
		return
	}
	for i := range m.ids {
		for j := i + 1; j < len(m.ids); j++ {
			fn(m.ids[i], m.ids[j], m.data.At(i, j))
		}
	}
}
