package graph

import (
	"context"
	"math/rand"
	"sort"
)

// Undirected is a weighted undirected graph used for community detection.
// Self-loops are allowed and stored once in adj[i][i].
type Undirected struct {
	ids []string
	adj []map[int]float64
}

// NewUndirected creates an empty undirected graph over ids.
func NewUndirected(ids []string) *Undirected {
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Strings(sorted)
	u := &Undirected{ids: sorted, adj: make([]map[int]float64, len(sorted))}
	for i := range u.adj {
		u.adj[i] = make(map[int]float64)
	}
	return u
}

// ToUndirected merges the directed edges of g regardless of direction.
// Every connected pair gets weight 1.
func ToUndirected(g *LinkGraph) *Undirected {
	u := NewUndirected(g.Nodes())
	if g == nil {
		return u
	}
	for a, succ := range g.out {
		for _, b := range succ {
			u.adj[a][b] = 1
			u.adj[b][a] = 1
		}
	}
	return u
}

// Len returns the number of nodes.
func (u *Undirected) Len() int {
	if u == nil {
		return 0
	}
	return len(u.ids)
}

// Nodes returns node ids in lexical order.
func (u *Undirected) Nodes() []string {
	if u == nil {
		return nil
	}
	out := make([]string, len(u.ids))
	copy(out, u.ids)
	return out
}

// Weight returns the weight between a and b, or 0.
func (u *Undirected) Weight(a, b int) float64 {
	return u.adj[a][b]
}

// Size returns the total edge weight. Self-loops count once.
func (u *Undirected) Size() float64 {
	total := 0.0
	for i, nbrs := range u.adj {
		for j, w := range nbrs {
			if j >= i {
				total += w
			}
		}
	}
	return total
}

// degree returns the weighted degree of i. Self-loops count twice.
func (u *Undirected) degree(i int) float64 {
	d := 0.0
	for j, w := range u.adj[i] {
		if j == i {
			d += 2 * w
		} else {
			d += w
		}
	}
	return d
}

func (u *Undirected) sortedNeighbors(i int) []int {
	nbrs := make([]int, 0, len(u.adj[i]))
	for j := range u.adj[i] {
		nbrs = append(nbrs, j)
	}
	sort.Ints(nbrs)
	return nbrs
}

// Partition assigns every node to a community.
type Partition struct {
	Community  map[string]int `json:"community"`
	Count      int            `json:"count"`
	Modularity float64        `json:"modularity"`
	Levels     int            `json:"levels"`
	Skipped    bool           `json:"skipped,omitempty"`
}

// Members returns the sorted node ids of community c.
func (p *Partition) Members(c int) []string {
	if p == nil {
		return nil
	}
	var out []string
	for id, comm := range p.Community {
		if comm == c {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// Partitioner detects communities.
type Partitioner interface {
	Partition(ctx context.Context, g *Undirected) (*Partition, error)
}

// Louvain is multi-level modularity optimization. Node visiting order is
// shuffled with a math/rand source seeded by Seed, so results are
// reproducible for the same graph and seed.
type Louvain struct {
	Seed       int64   `json:"seed" yaml:"seed" mapstructure:"seed"`
	Resolution float64 `json:"resolution" yaml:"resolution" mapstructure:"resolution"`
	// MaxPasses bounds the number of aggregation levels; 0 means no bound.
	MaxPasses int `json:"max_passes" yaml:"max_passes" mapstructure:"max_passes"`
}

// DefaultLouvain returns seed 42 and resolution 1.
func DefaultLouvain() Louvain {
	return Louvain{Seed: 42, Resolution: 1}
}

// modularityThreshold is the minimum gain for another aggregation level.
const modularityThreshold = 1e-7

// Partition implements Partitioner.
func (l Louvain) Partition(ctx context.Context, g *Undirected) (*Partition, error) {
	n := g.Len()
	if n == 0 {
		return &Partition{Community: map[string]int{}, Skipped: true}, nil
	}
	resolution := l.Resolution
	if resolution <= 0 {
		resolution = 1
	}

	// communities[k] lists the original nodes merged into level node k.
	communities := make([][]int, n)
	for i := range communities {
		communities[i] = []int{i}
	}

	if g.Size() == 0 {
		return newPartition(g, communities, 0, 0), nil
	}

	rng := rand.New(rand.NewSource(l.Seed))
	level := g
	mod := Modularity(g, communities, resolution)
	levels := 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		inner, improved := oneLevel(level, resolution, rng)
		if !improved {
			break
		}

		merged := make([][]int, len(inner))
		for k, members := range inner {
			for _, m := range members {
				merged[k] = append(merged[k], communities[m]...)
			}
			sort.Ints(merged[k])
		}
		newMod := Modularity(g, merged, resolution)
		if newMod-mod <= modularityThreshold {
			break
		}
		communities, mod = merged, newMod
		levels++
		if l.MaxPasses > 0 && levels >= l.MaxPasses {
			break
		}
		level = aggregate(level, inner)
	}

	return newPartition(g, communities, mod, levels), nil
}

// oneLevel moves single nodes between communities until no move increases
// modularity. It returns the non-empty communities as lists of level nodes.
func oneLevel(g *Undirected, resolution float64, rng *rand.Rand) ([][]int, bool) {
	n := g.Len()
	m := g.Size()
	node2com := make([]int, n)
	degrees := make([]float64, n)
	stot := make([]float64, n)
	for i := 0; i < n; i++ {
		node2com[i] = i
		degrees[i] = g.degree(i)
		stot[i] = degrees[i]
	}
	nbrs := make([][]int, n)
	for i := 0; i < n; i++ {
		nbrs[i] = g.sortedNeighbors(i)
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })

	improved := false
	for moves := 1; moves > 0; {
		moves = 0
		for _, u := range order {
			weights := make(map[int]float64)
			for _, v := range nbrs[u] {
				if v == u {
					continue
				}
				weights[node2com[v]] += g.adj[u][v]
			}
			coms := make([]int, 0, len(weights))
			for c := range weights {
				coms = append(coms, c)
			}
			sort.Ints(coms)

			cur := node2com[u]
			k := degrees[u]
			stot[cur] -= k
			removeCost := -weights[cur]/m + resolution*stot[cur]*k/(2*m*m)

			best, bestGain := cur, 0.0
			for _, c := range coms {
				gain := removeCost + weights[c]/m - resolution*stot[c]*k/(2*m*m)
				if gain > bestGain {
					best, bestGain = c, gain
				}
			}
			stot[best] += k
			if best != cur {
				node2com[u] = best
				moves++
				improved = true
			}
		}
	}

	byCom := make(map[int][]int)
	var keys []int
	for u := 0; u < n; u++ {
		c := node2com[u]
		if _, ok := byCom[c]; !ok {
			keys = append(keys, c)
		}
		byCom[c] = append(byCom[c], u)
	}
	out := make([][]int, 0, len(keys))
	for _, c := range keys {
		out = append(out, byCom[c])
	}
	return out, improved
}

// aggregate collapses every community of g into a single node.
func aggregate(g *Undirected, communities [][]int) *Undirected {
	node2com := make([]int, g.Len())
	for k, members := range communities {
		for _, m := range members {
			node2com[m] = k
		}
	}
	out := &Undirected{
		ids: make([]string, len(communities)),
		adj: make([]map[int]float64, len(communities)),
	}
	for k := range out.adj {
		out.adj[k] = make(map[int]float64)
	}
	for i, nbrs := range g.adj {
		for j, w := range nbrs {
			if j < i {
				continue
			}
			a, b := node2com[i], node2com[j]
			out.adj[a][b] += w
			if a != b {
				out.adj[b][a] += w
			}
		}
	}
	return out
}

// Modularity returns the modularity of communities over g, where each
// community lists node indices of g.
func Modularity(g *Undirected, communities [][]int, resolution float64) float64 {
	m := g.Size()
	if m == 0 {
		return 0
	}
	node2com := make([]int, g.Len())
	for k, members := range communities {
		for _, v := range members {
			node2com[v] = k
		}
	}
	intra := make([]float64, len(communities))
	degree := make([]float64, len(communities))
	for i, nbrs := range g.adj {
		degree[node2com[i]] += g.degree(i)
		for j, w := range nbrs {
			if j < i || node2com[i] != node2com[j] {
				continue
			}
			intra[node2com[i]] += w
		}
	}
	q := 0.0
	for k := range communities {
		d := degree[k] / (2 * m)
		q += intra[k]/m - resolution*d*d
	}
	return q
}

// newPartition renumbers communities 0..k-1 in order of first appearance
// over the lexically sorted node ids.
func newPartition(g *Undirected, communities [][]int, mod float64, levels int) *Partition {
	node2com := make([]int, g.Len())
	for k, members := range communities {
		for _, v := range members {
			node2com[v] = k
		}
	}
	renumber := make(map[int]int, len(communities))
	p := &Partition{
		Community:  make(map[string]int, g.Len()),
		Modularity: mod,
		Levels:     levels,
	}
	for i, id := range g.ids {
		c := node2com[i]
		if _, ok := renumber[c]; !ok {
			renumber[c] = len(renumber)
		}
		p.Community[id] = renumber[c]
	}
	p.Count = len(renumber)
	return p
}
