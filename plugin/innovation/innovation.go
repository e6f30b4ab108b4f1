// Package innovation classifies concepts by influence and interdisciplinarity.
package innovation

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/cooccurrence"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/corpus"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/taxonomy"
)

// minNeighborCorrelation is the absolute correlation above which another
// concept counts as a co-occurrence neighbor.
const minNeighborCorrelation = 0.01

// Quadrant is an innovation strategy.
type Quadrant string

// Quadrants split at the median PageRank and the median entropy; a value
// equal to the median counts as low.
const (
	BoundarySpanner Quadrant = "Boundary Spanner"       // high influence, high entropy
	FoundationalHub Quadrant = "Foundational Hub"       // high influence, low entropy
	NicheConnector  Quadrant = "Niche Connector"        // low influence, high entropy
	Underdeveloped  Quadrant = "Underdeveloped Concept" // low influence, low entropy
)

// Score is the innovation profile of one concept.
type Score struct {
	Concept  string            `json:"concept"`
	Category taxonomy.Category `json:"category"`
	PageRank float64           `json:"pagerank"`
	Entropy  float64           `json:"entropy"`
	Quadrant Quadrant          `json:"quadrant"`
}

// Result lists concept profiles sorted by PageRank, highest first.
type Result struct {
	Scores         []Score `json:"scores"`
	MedianPageRank float64 `json:"median_pagerank"`
	MedianEntropy  float64 `json:"median_entropy"`
	Skipped        bool    `json:"skipped,omitempty"`
}

// Analyze profiles every concept that has both a PageRank score and a
// co-occurrence row.
func Analyze(m *cooccurrence.Matrix, reg *corpus.Registry, pagerank map[string]float64) *Result {
	res := &Result{Scores: []Score{}}
	if m.Len() == 0 || len(pagerank) == 0 {
		res.Skipped = true
		return res
	}

	for _, id := range m.IDs() {
		pr, ok := pagerank[id]
		if !ok {
			continue
		}
		res.Scores = append(res.Scores, Score{
			Concept:  id,
			Category: reg.Category(id),
			PageRank: pr,
			Entropy:  Entropy(m, reg, id),
		})
	}
	if len(res.Scores) == 0 {
		res.Skipped = true
		return res
	}

	prs := make([]float64, len(res.Scores))
	ents := make([]float64, len(res.Scores))
	for i, s := range res.Scores {
		prs[i], ents[i] = s.PageRank, s.Entropy
	}
	res.MedianPageRank = median(prs)
	res.MedianEntropy = median(ents)
	for i := range res.Scores {
		res.Scores[i].Quadrant = classify(res.Scores[i], res.MedianPageRank, res.MedianEntropy)
	}

	sort.SliceStable(res.Scores, func(i, j int) bool {
		if res.Scores[i].PageRank != res.Scores[j].PageRank {
			return res.Scores[i].PageRank > res.Scores[j].PageRank
		}
		return res.Scores[i].Concept < res.Scores[j].Concept
	})
	return res
}

// Entropy is the base-2 Shannon entropy of the categories of id's
// co-occurrence neighbors.
func Entropy(m *cooccurrence.Matrix, reg *corpus.Registry, id string) float64 {
	counts := make(map[taxonomy.Category]float64)
	total := 0.0
	for other, v := range m.Row(id) {
		if math.Abs(v) <= minNeighborCorrelation {
			continue
		}
		c := reg.Category(other)
		if c == "" {
			continue
		}
		counts[c]++
		total++
	}
	if total == 0 {
		return 0
	}
	p := make([]float64, 0, len(counts))
	for _, n := range counts {
		p = append(p, n/total)
	}
	sort.Float64s(p)
	return stat.Entropy(p) / math.Ln2
}

func classify(s Score, medianPR, medianEntropy float64) Quadrant {
	highPR := s.PageRank > medianPR
	highEntropy := s.Entropy > medianEntropy
	switch {
	case highPR && highEntropy:
		return BoundarySpanner
	case highPR:
		return FoundationalHub
	case highEntropy:
		return NicheConnector
	default:
		return Underdeveloped
	}
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
