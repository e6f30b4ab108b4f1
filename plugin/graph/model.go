// Package graph builds the concept link graph and derives its centrality and
// community annotations.
package graph

import (
	"sort"
)

// Edge is a directed reference from one concept section to another concept.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// LinkGraph is an immutable simple directed graph. Nodes iterate in lexical
// order and adjacency lists are sorted, so every traversal is deterministic.
type LinkGraph struct {
	ids   []string
	index map[string]int
	out   [][]int
	in    [][]int
	edges int
}

// NewLinkGraph creates a graph over nodes. Edges whose endpoints are not in
// nodes are dropped, as are self-loops and duplicates.
func NewLinkGraph(nodes []string, edges []Edge) *LinkGraph {
	seen := make(map[string]struct{}, len(nodes))
	ids := make([]string, 0, len(nodes))
	for _, id := range nodes {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	g := &LinkGraph{
		ids:   ids,
		index: make(map[string]int, len(ids)),
		out:   make([][]int, len(ids)),
		in:    make([][]int, len(ids)),
	}
	for i, id := range ids {
		g.index[id] = i
	}

	type pair struct{ u, v int }
	dedup := make(map[pair]struct{}, len(edges))
	for _, e := range edges {
		u, ok := g.index[e.Source]
		if !ok {
			continue
		}
		v, ok := g.index[e.Target]
		if !ok || u == v {
			continue
		}
		if _, dup := dedup[pair{u, v}]; dup {
			continue
		}
		dedup[pair{u, v}] = struct{}{}
		g.out[u] = append(g.out[u], v)
		g.in[v] = append(g.in[v], u)
		g.edges++
	}
	for i := range ids {
		sort.Ints(g.out[i])
		sort.Ints(g.in[i])
	}
	return g
}

// Len returns the number of nodes.
func (g *LinkGraph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.ids)
}

// EdgeCount returns the number of directed edges.
func (g *LinkGraph) EdgeCount() int {
	if g == nil {
		return 0
	}
	return g.edges
}

// Nodes returns node ids in lexical order.
func (g *LinkGraph) Nodes() []string {
	if g == nil {
		return nil
	}
	out := make([]string, len(g.ids))
	copy(out, g.ids)
	return out
}

// HasNode reports whether id is a node.
func (g *LinkGraph) HasNode(id string) bool {
	if g == nil {
		return false
	}
	_, ok := g.index[id]
	return ok
}

// HasEdge reports whether the directed edge u→v exists.
func (g *LinkGraph) HasEdge(u, v string) bool {
	if g == nil {
		return false
	}
	ui, ok := g.index[u]
	if !ok {
		return false
	}
	vi, ok := g.index[v]
	if !ok {
		return false
	}
	succ := g.out[ui]
	i := sort.SearchInts(succ, vi)
	return i < len(succ) && succ[i] == vi
}

// Adjacent reports whether u and v are connected in either direction.
func (g *LinkGraph) Adjacent(u, v string) bool {
	return g.HasEdge(u, v) || g.HasEdge(v, u)
}

// Successors returns the sorted targets of u's outgoing edges.
func (g *LinkGraph) Successors(u string) []string {
	if g == nil {
		return nil
	}
	i, ok := g.index[u]
	if !ok {
		return nil
	}
	return g.names(g.out[i])
}

// Predecessors returns the sorted sources of u's incoming edges.
func (g *LinkGraph) Predecessors(u string) []string {
	if g == nil {
		return nil
	}
	i, ok := g.index[u]
	if !ok {
		return nil
	}
	return g.names(g.in[i])
}

// OutDegree returns the number of outgoing edges of u.
func (g *LinkGraph) OutDegree(u string) int {
	if i, ok := g.lookup(u); ok {
		return len(g.out[i])
	}
	return 0
}

// InDegree returns the number of incoming edges of u.
func (g *LinkGraph) InDegree(u string) int {
	if i, ok := g.lookup(u); ok {
		return len(g.in[i])
	}
	return 0
}

// Edges returns every edge ordered by source, then target.
func (g *LinkGraph) Edges() []Edge {
	if g == nil {
		return nil
	}
	out := make([]Edge, 0, g.edges)
	for u, succ := range g.out {
		for _, v := range succ {
			out = append(out, Edge{Source: g.ids[u], Target: g.ids[v]})
		}
	}
	return out
}

func (g *LinkGraph) lookup(id string) (int, bool) {
	if g == nil {
		return 0, false
	}
	i, ok := g.index[id]
	return i, ok
}

func (g *LinkGraph) names(idx []int) []string {
	out := make([]string, len(idx))
	for i, v := range idx {
		out[i] = g.ids[v]
	}
	return out
}
