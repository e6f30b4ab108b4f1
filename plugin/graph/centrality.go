package graph

import (
	"math"
)

// Centrality holds per-node influence scores.
type Centrality struct {
	Degree      map[string]float64 `json:"degree"`
	Betweenness map[string]float64 `json:"betweenness"`
	PageRank    map[string]float64 `json:"pagerank"`

	PageRankIterations int  `json:"pagerank_iterations"`
	PageRankConverged  bool `json:"pagerank_converged"`
}

// PageRankConfig contains power-iteration settings.
type PageRankConfig struct {
	Damping       float64 `json:"damping" yaml:"damping" mapstructure:"damping"`
	Tolerance     float64 `json:"tolerance" yaml:"tolerance" mapstructure:"tolerance"`
	MaxIterations int     `json:"max_iterations" yaml:"max_iterations" mapstructure:"max_iterations"`
}

// DefaultPageRankConfig returns the customary damping and stopping rule.
func DefaultPageRankConfig() PageRankConfig {
	return PageRankConfig{
		Damping:       0.85,
		Tolerance:     1e-6,
		MaxIterations: 100,
	}
}

// PageRankResult is the outcome of PageRank.
type PageRankResult struct {
	Scores     map[string]float64
	Iterations int
	Converged  bool
}

// DegreeCentrality returns (in+out)/(n-1) per node. A single node scores 1.
func DegreeCentrality(g *LinkGraph) map[string]float64 {
	n := g.Len()
	scores := make(map[string]float64, n)
	if n == 0 {
		return scores
	}
	if n == 1 {
		scores[g.ids[0]] = 1
		return scores
	}
	scale := 1 / float64(n-1)
	for i, id := range g.ids {
		scores[id] = float64(len(g.out[i])+len(g.in[i])) * scale
	}
	return scores
}

// BetweennessCentrality computes shortest-path betweenness over directed
// edges with Brandes' algorithm, normalized by 1/((n-1)(n-2)) when n > 2.
func BetweennessCentrality(g *LinkGraph) map[string]float64 {
	n := g.Len()
	bc := make([]float64, n)

	sigma := make([]float64, n)
	dist := make([]int, n)
	delta := make([]float64, n)
	preds := make([][]int, n)
	stack := make([]int, 0, n)
	queue := make([]int, 0, n)

	for s := 0; s < n; s++ {
		for i := 0; i < n; i++ {
			sigma[i] = 0
			dist[i] = -1
			delta[i] = 0
			preds[i] = preds[i][:0]
		}
		sigma[s] = 1
		dist[s] = 0
		stack = stack[:0]
		queue = append(queue[:0], s)

		for head := 0; head < len(queue); head++ {
			v := queue[head]
			stack = append(stack, v)
			for _, w := range g.out[v] {
				if dist[w] < 0 {
					dist[w] = dist[v] + 1
					queue = append(queue, w)
				}
				if dist[w] == dist[v]+1 {
					sigma[w] += sigma[v]
					preds[w] = append(preds[w], v)
				}
			}
		}

		for i := len(stack) - 1; i >= 0; i-- {
			w := stack[i]
			for _, v := range preds[w] {
				delta[v] += sigma[v] / sigma[w] * (1 + delta[w])
			}
			if w != s {
				bc[w] += delta[w]
			}
		}
	}

	scale := 1.0
	if n > 2 {
		scale = 1 / float64((n-1)*(n-2))
	}
	scores := make(map[string]float64, n)
	for i, id := range g.ids {
		scores[id] = bc[i] * scale
	}
	return scores
}

// PageRank runs power iteration with uniform teleport. Mass held by nodes
// without outgoing edges is spread uniformly over all nodes. Iteration stops
// once the L1 change drops below n*Tolerance; when MaxIterations is reached
// first, the last iterate is returned with Converged unset.
func PageRank(g *LinkGraph, cfg PageRankConfig) PageRankResult {
	n := g.Len()
	res := PageRankResult{Scores: make(map[string]float64, n)}
	if n == 0 {
		res.Converged = true
		return res
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultPageRankConfig().MaxIterations
	}

	alpha := cfg.Damping
	uniform := 1 / float64(n)
	x := make([]float64, n)
	for i := range x {
		x[i] = uniform
	}
	next := make([]float64, n)

	for iter := 1; iter <= cfg.MaxIterations; iter++ {
		dangling := 0.0
		for u := 0; u < n; u++ {
			if len(g.out[u]) == 0 {
				dangling += x[u]
			}
		}
		base := (alpha*dangling + (1 - alpha)) * uniform
		for i := range next {
			next[i] = base
		}
		for u := 0; u < n; u++ {
			if len(g.out[u]) == 0 {
				continue
			}
			share := alpha * x[u] / float64(len(g.out[u]))
			for _, v := range g.out[u] {
				next[v] += share
			}
		}

		diff := 0.0
		for i := range x {
			diff += math.Abs(next[i] - x[i])
		}
		x, next = next, x
		res.Iterations = iter
		if diff < float64(n)*cfg.Tolerance {
			res.Converged = true
			break
		}
	}

	for i, id := range g.ids {
		res.Scores[id] = x[i]
	}
	return res
}
