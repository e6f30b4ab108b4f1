package trajectory

import (
	"iter"
	"sort"

	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/cooccurrence"
)

type neighbor struct {
	id     string
	weight float64
}

// WeightedGraph is the undirected co-occurrence graph restricted to pairs
// whose correlation exceeds a minimum weight.
type WeightedGraph struct {
	adj map[string][]neighbor
}

// Prune keeps every pair of m whose correlation is strictly above minWeight.
// Concepts without any such pair are not part of the graph.
func Prune(m *cooccurrence.Matrix, minWeight float64) *WeightedGraph {
	g := &WeightedGraph{adj: make(map[string][]neighbor)}
	m.Pairs(func(a, b string, v float64) {
		if v > minWeight {
			g.adj[a] = append(g.adj[a], neighbor{id: b, weight: v})
			g.adj[b] = append(g.adj[b], neighbor{id: a, weight: v})
		}
	})
	for id := range g.adj {
		nbrs := g.adj[id]
		sort.Slice(nbrs, func(i, j int) bool { return nbrs[i].id < nbrs[j].id })
	}
	return g
}

// Has reports whether id has at least one edge.
func (g *WeightedGraph) Has(id string) bool {
	_, ok := g.adj[id]
	return ok
}

// Len returns the number of nodes with at least one edge.
func (g *WeightedGraph) Len() int {
	return len(g.adj)
}

// Weight returns the weight of the edge between a and b.
func (g *WeightedGraph) Weight(a, b string) (float64, bool) {
	nbrs := g.adj[a]
	i := sort.Search(len(nbrs), func(i int) bool { return nbrs[i].id >= b })
	if i < len(nbrs) && nbrs[i].id == b {
		return nbrs[i].weight, true
	}
	return 0, false
}

// Neighbors returns the sorted neighbors of id.
func (g *WeightedGraph) Neighbors(id string) []string {
	nbrs := g.adj[id]
	out := make([]string, len(nbrs))
	for i, n := range nbrs {
		out[i] = n.id
	}
	return out
}

// SimplePaths lazily yields every simple path from start to end with at
// most maxHops edges. Neighbors are explored in lexical order with an
// explicit stack; enumeration stops as soon as the consumer stops ranging.
// Each yielded slice is owned by the consumer.
func (g *WeightedGraph) SimplePaths(start, end string, maxHops int) iter.Seq[[]string] {
	return func(yield func([]string) bool) {
		if start == end || maxHops < 1 || !g.Has(start) || !g.Has(end) {
			return
		}

		type frame struct {
			node string
			next int
		}
		path := []string{start}
		onPath := map[string]bool{start: true}
		stack := []frame{{node: start}}

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			nbrs := g.adj[top.node]
			if top.next >= len(nbrs) {
				stack = stack[:len(stack)-1]
				delete(onPath, path[len(path)-1])
				path = path[:len(path)-1]
				continue
			}
			next := nbrs[top.next].id
			top.next++

			if onPath[next] {
				continue
			}
			if next == end {
				found := make([]string, 0, len(path)+1)
				found = append(found, path...)
				found = append(found, end)
				if !yield(found) {
					return
				}
				continue
			}
			// Descend only while another edge can still reach end.
			if len(path) < maxHops {
				path = append(path, next)
				onPath[next] = true
				stack = append(stack, frame{node: next})
			}
		}
	}
}
