// Package trajectory synthesizes ranked multi-hop research paths between two
// concepts over the co-occurrence graph.
package trajectory

import (
	"container/heap"
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/cooccurrence"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/corpus"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/graph"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/taxonomy"
)

// maxBridges bounds the bridge concepts reported alongside the best path.
const maxBridges = 5

// cancelCheckInterval is how many paths are scored between context checks.
const cancelCheckInterval = 256

// Weights are the coefficients of the path score.
type Weights struct {
	Cooccurrence float64 `json:"cooccurrence" yaml:"cooccurrence" mapstructure:"cooccurrence"`
	Links        float64 `json:"links" yaml:"links" mapstructure:"links"`
	Hierarchy    float64 `json:"hierarchy" yaml:"hierarchy" mapstructure:"hierarchy"`
	Span         float64 `json:"span" yaml:"span" mapstructure:"span"`
}

// Config contains path search bounds and scoring weights.
type Config struct {
	// MaxHops is the maximum number of edges in a path.
	MaxHops int `json:"max_hops" yaml:"max_hops" mapstructure:"max_hops"`
	// MinWeight is the correlation an edge must exceed to be traversed.
	MinWeight float64 `json:"min_weight" yaml:"min_weight" mapstructure:"min_weight"`
	// TopK is the number of ranked paths kept; 0 keeps all.
	TopK int `json:"top_k" yaml:"top_k" mapstructure:"top_k"`
	// MaxPaths caps the paths enumerated per query; 0 means no cap.
	MaxPaths int     `json:"max_paths" yaml:"max_paths" mapstructure:"max_paths"`
	Weights  Weights `json:"weights" yaml:"weights" mapstructure:"weights"`
}

// DefaultConfig returns default trajectory configuration.
func DefaultConfig() Config {
	return Config{
		MaxHops:   4,
		MinWeight: 0.3,
		TopK:      20,
		MaxPaths:  10000,
		Weights: Weights{
			Cooccurrence: 10,
			Links:        5,
			Hierarchy:    2,
			Span:         1,
		},
	}
}

// Validate checks the configuration bounds.
func (c Config) Validate() error {
	if c.MaxHops < 1 {
		return errors.Errorf("max hops must be at least 1, got %d", c.MaxHops)
	}
	if c.MinWeight < 0 || c.MinWeight >= 1 {
		return errors.Errorf("min weight must be in [0, 1), got %g", c.MinWeight)
	}
	if c.TopK < 0 {
		return errors.Errorf("top k must not be negative, got %d", c.TopK)
	}
	if c.MaxPaths < 0 {
		return errors.Errorf("max paths must not be negative, got %d", c.MaxPaths)
	}
	if c.Weights.Cooccurrence < 0 || c.Weights.Links < 0 || c.Weights.Hierarchy < 0 || c.Weights.Span < 0 {
		return errors.New("score weights must not be negative")
	}
	return nil
}

// Path is a scored trajectory.
type Path struct {
	Nodes           []string `json:"nodes"`
	Hops            int      `json:"hops"`
	AvgCooccurrence float64  `json:"avg_cooccurrence"`
	ExplicitLinks   int      `json:"explicit_links"`
	HierarchyScore  int      `json:"hierarchy_score"`
	CategorySpan    int      `json:"category_span"`
	Score           float64  `json:"score"`
}

// String renders the path as "a -> b -> c".
func (p Path) String() string {
	return strings.Join(p.Nodes, " -> ")
}

// Query names the endpoints of a trajectory request. A nil Config uses the
// synthesizer's configuration.
type Query struct {
	Start  string  `json:"start"`
	End    string  `json:"end"`
	Config *Config `json:"config,omitempty"`
}

// Key identifies a query for caching.
func (q Query) Key() string {
	if q.Config == nil {
		return q.Start + "\x00" + q.End
	}
	c := q.Config
	return fmt.Sprintf("%s\x00%s\x00%d\x00%g\x00%d\x00%d", q.Start, q.End, c.MaxHops, c.MinWeight, c.TopK, c.MaxPaths)
}

// Result is the outcome of a trajectory query.
type Result struct {
	Start         string         `json:"start"`
	End           string         `json:"end"`
	Paths         []Path         `json:"paths"`
	Best          Path           `json:"best"`
	Bridges       []string       `json:"bridges"`
	Visualization *Visualization `json:"visualization"`
	Enumerated    int            `json:"enumerated"`
	Truncated     bool           `json:"truncated,omitempty"`
	Fallback      bool           `json:"fallback,omitempty"`
	Reason        string         `json:"reason,omitempty"`
}

// Input bundles the artifacts the synthesizer reads.
type Input struct {
	Graph    *graph.LinkGraph
	Matrix   *cooccurrence.Matrix
	Registry *corpus.Registry
}

// Synthesizer finds and ranks trajectories.
type Synthesizer struct {
	in       Input
	config   Config
	taxonomy *taxonomy.Taxonomy
	pruned   *WeightedGraph
}

// NewSynthesizer creates a synthesizer. A nil taxonomy uses the default order.
func NewSynthesizer(in Input, config Config, tax *taxonomy.Taxonomy) *Synthesizer {
	if tax == nil {
		tax = taxonomy.Default()
	}
	return &Synthesizer{
		in:       in,
		config:   config,
		taxonomy: tax,
		pruned:   Prune(in.Matrix, config.MinWeight),
	}
}

// Synthesize enumerates the simple paths between the query endpoints,
// scores them and keeps the best TopK. When either endpoint is missing from
// the pruned graph, or no path exists, the result holds the single fallback
// path [start, end] with score 0.
func (s *Synthesizer) Synthesize(ctx context.Context, q Query) (*Result, error) {
	cfg := s.config
	pruned := s.pruned
	if q.Config != nil {
		cfg = *q.Config
		if cfg.MinWeight != s.config.MinWeight {
			pruned = Prune(s.in.Matrix, cfg.MinWeight)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if q.Start == "" || q.End == "" {
		return nil, errors.New("start and end concepts are required")
	}

	res := &Result{Start: q.Start, End: q.End}
	res.Bridges = s.bridges(q.Start, q.End)

	switch {
	case !pruned.Has(q.Start):
		return s.fallback(res, fmt.Sprintf("start concept %q has no co-occurrence edge above %g", q.Start, cfg.MinWeight)), nil
	case !pruned.Has(q.End):
		return s.fallback(res, fmt.Sprintf("end concept %q has no co-occurrence edge above %g", q.End, cfg.MinWeight)), nil
	}

	top := &pathHeap{}
	for nodes := range pruned.SimplePaths(q.Start, q.End, cfg.MaxHops) {
		if cfg.MaxPaths > 0 && res.Enumerated >= cfg.MaxPaths {
			res.Truncated = true
			break
		}
		if res.Enumerated%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		res.Enumerated++

		heap.Push(top, s.score(pruned, nodes, cfg.Weights))
		if cfg.TopK > 0 && top.Len() > cfg.TopK {
			heap.Pop(top)
		}
	}
	if top.Len() == 0 {
		return s.fallback(res, fmt.Sprintf("no path of at most %d hops above weight %g", cfg.MaxHops, cfg.MinWeight)), nil
	}

	res.Paths = make([]Path, top.Len())
	for i := len(res.Paths) - 1; i >= 0; i-- {
		res.Paths[i] = heap.Pop(top).(Path)
	}
	res.Best = res.Paths[0]
	res.Visualization = s.visualize(res.Best.Nodes, res.Bridges)
	return res, nil
}

func (s *Synthesizer) fallback(res *Result, reason string) *Result {
	p := Path{Nodes: []string{res.Start, res.End}, Hops: 1}
	res.Paths = []Path{p}
	res.Best = p
	res.Fallback = true
	res.Reason = reason
	res.Visualization = s.visualize(p.Nodes, res.Bridges)
	return res
}

func (s *Synthesizer) score(pruned *WeightedGraph, nodes []string, w Weights) Path {
	p := Path{Nodes: nodes, Hops: len(nodes) - 1}

	total := 0.0
	categories := make(map[taxonomy.Category]struct{})
	for i, u := range nodes {
		if c := s.in.Registry.Category(u); c != "" {
			categories[c] = struct{}{}
		}
		if i == len(nodes)-1 {
			break
		}
		v := nodes[i+1]
		weight, _ := pruned.Weight(u, v)
		total += weight
		if s.in.Graph.HasEdge(u, v) {
			p.ExplicitLinks++
		}
		ru, okU := s.taxonomy.Rank(s.in.Registry.Category(u))
		rv, okV := s.taxonomy.Rank(s.in.Registry.Category(v))
		if okU && okV && rv >= ru {
			p.HierarchyScore++
		}
	}
	if p.Hops > 0 {
		p.AvgCooccurrence = total / float64(p.Hops)
	}
	if len(categories) >= 3 {
		p.CategorySpan = len(categories)
	}
	p.Score = w.Cooccurrence*p.AvgCooccurrence +
		w.Links*float64(p.ExplicitLinks) +
		w.Hierarchy*float64(p.HierarchyScore) +
		w.Span*float64(p.CategorySpan)
	return p
}

// bridges returns up to maxBridges common successors of start and end.
func (s *Synthesizer) bridges(start, end string) []string {
	out := make([]string, 0, maxBridges)
	ends := s.in.Graph.Successors(end)
	for _, id := range s.in.Graph.Successors(start) {
		if len(out) == maxBridges {
			break
		}
		if _, found := slices.BinarySearch(ends, id); found {
			out = append(out, id)
		}
	}
	return out
}

// better reports whether a ranks above b: higher score, then fewer hops,
// then lexical order of the nodes.
func better(a, b Path) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.Hops != b.Hops {
		return a.Hops < b.Hops
	}
	return slices.Compare(a.Nodes, b.Nodes) < 0
}

// pathHeap keeps the worst retained path at the root.
type pathHeap []Path

func (h pathHeap) Len() int           { return len(h) }
func (h pathHeap) Less(i, j int) bool { return better(h[j], h[i]) }
func (h pathHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *pathHeap) Push(x any) { *h = append(*h, x.(Path)) }

func (h *pathHeap) Pop() any {
	old := *h
	n := len(old)
	p := old[n-1]
	*h = old[:n-1]
	return p
}

// Rank sorts paths best first.
func Rank(paths []Path) {
	sort.SliceStable(paths, func(i, j int) bool { return better(paths[i], paths[j]) })
}
