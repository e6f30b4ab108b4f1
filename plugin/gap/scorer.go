// Package gap predicts missing links between concepts of different categories.
package gap

import (
	"context"
	"sort"

	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/cooccurrence"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/corpus"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/graph"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/taxonomy"
)

// Config contains the scoring weights and retention threshold.
type Config struct {
	// Threshold is the strength a candidate must exceed to be kept.
	Threshold          float64 `json:"threshold" yaml:"threshold" mapstructure:"threshold"`
	TopologyWeight     float64 `json:"topology_weight" yaml:"topology_weight" mapstructure:"topology_weight"`
	CooccurrenceWeight float64 `json:"cooccurrence_weight" yaml:"cooccurrence_weight" mapstructure:"cooccurrence_weight"`
}

// DefaultConfig returns default gap scoring configuration.
func DefaultConfig() Config {
	return Config{
		Threshold:          1.0,
		TopologyWeight:     2.0,
		CooccurrenceWeight: 1.0,
	}
}

// Candidate is a scored pair of concepts with no link in either direction.
type Candidate struct {
	Source         string            `json:"source"`
	Target         string            `json:"target"`
	SourceCategory taxonomy.Category `json:"source_category"`
	TargetCategory taxonomy.Category `json:"target_category"`
	Topological    int               `json:"topological"`
	Cooccurrence   float64           `json:"cooccurrence"`
	Bridge         float64           `json:"bridge"`
	Strength       float64           `json:"strength"`
}

// Result is the ranked candidate list and its category atlas.
type Result struct {
	Candidates []Candidate `json:"candidates"`
	Atlas      *Atlas      `json:"atlas"`
	Skipped    bool        `json:"skipped,omitempty"`
}

// Input bundles the artifacts the scorer reads.
type Input struct {
	Graph    *graph.LinkGraph
	Matrix   *cooccurrence.Matrix
	Registry *corpus.Registry
}

// Scorer ranks unlinked concept pairs.
type Scorer struct {
	config   Config
	taxonomy *taxonomy.Taxonomy
	bridges  *taxonomy.BridgeTable
}

// NewScorer creates a scorer. Nil taxonomy or bridges fall back to defaults.
func NewScorer(config Config, tax *taxonomy.Taxonomy, bridges *taxonomy.BridgeTable) *Scorer {
	if tax == nil {
		tax = taxonomy.Default()
	}
	if bridges == nil {
		bridges = taxonomy.DefaultBridgeTable()
	}
	return &Scorer{config: config, taxonomy: tax, bridges: bridges}
}

// Score evaluates every pair (u, v) where u belongs to an earlier category
// than v and no edge joins them. An empty graph or matrix skips scoring.
func (s *Scorer) Score(ctx context.Context, in Input) (*Result, error) {
	res := &Result{Atlas: NewAtlas(s.taxonomy.Categories())}
	if in.Graph.Len() == 0 || in.Matrix.Len() == 0 {
		res.Skipped = true
		return res, nil
	}

	byCategory := make(map[taxonomy.Category][]string)
	for _, c := range s.taxonomy.Categories() {
		for _, id := range in.Registry.ByCategory(c) {
			if in.Graph.HasNode(id) {
				byCategory[c] = append(byCategory[c], id)
			}
		}
	}

	cats := s.taxonomy.Categories()
	for i := 0; i < len(cats); i++ {
		for j := i + 1; j < len(cats); j++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			bonus := s.bridges.Bonus(cats[i], cats[j])
			for _, u := range byCategory[cats[i]] {
				for _, v := range byCategory[cats[j]] {
					if u == v || in.Graph.Adjacent(u, v) {
						continue
					}
					c := s.candidate(in, u, v, cats[i], cats[j], bonus)
					if c.Strength > s.config.Threshold {
						res.Candidates = append(res.Candidates, c)
					}
				}
			}
		}
	}

	sort.SliceStable(res.Candidates, func(a, b int) bool {
		x, y := res.Candidates[a], res.Candidates[b]
		if x.Strength != y.Strength {
			return x.Strength > y.Strength
		}
		if x.Source != y.Source {
			return x.Source < y.Source
		}
		return x.Target < y.Target
	})
	for _, c := range res.Candidates {
		res.Atlas.observe(c.SourceCategory, c.TargetCategory, c.Strength)
	}
	return res, nil
}

func (s *Scorer) candidate(in Input, u, v string, cu, cv taxonomy.Category, bonus float64) Candidate {
	topo := CommonSuccessorScore(in.Graph, u, v)
	cooc := max(0, in.Matrix.Value(u, v))
	return Candidate{
		Source:         u,
		Target:         v,
		SourceCategory: cu,
		TargetCategory: cv,
		Topological:    topo,
		Cooccurrence:   cooc,
		Bridge:         bonus,
		Strength:       s.config.TopologyWeight*float64(topo) + s.config.CooccurrenceWeight*cooc + bonus,
	}
}

// CommonSuccessorScore counts the concepts both u and v link to.
func CommonSuccessorScore(g *graph.LinkGraph, u, v string) int {
	su, sv := g.Successors(u), g.Successors(v)
	n := 0
	for i, j := 0, 0; i < len(su) && j < len(sv); {
		switch {
		case su[i] == sv[j]:
			n++
			i++
			j++
		case su[i] < sv[j]:
			i++
		default:
			j++
		}
	}
	return n
}

// NodeScores returns, per concept, the highest strength among the
// candidates it takes part in.
func NodeScores(candidates []Candidate) map[string]float64 {
	scores := make(map[string]float64)
	for _, c := range candidates {
		if c.Strength > scores[c.Source] {
			scores[c.Source] = c.Strength
		}
		if c.Strength > scores[c.Target] {
			scores[c.Target] = c.Strength
		}
	}
	return scores
}

// Top returns at most n candidates, optionally restricted by filter.
func Top(candidates []Candidate, filter *Filter, n int) ([]Candidate, error) {
	out := make([]Candidate, 0)
	for _, c := range candidates {
		if n > 0 && len(out) >= n {
			break
		}
		if filter != nil {
			ok, err := filter.Match(c)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		out = append(out, c)
	}
	return out, nil
}
