package trajectory

import (
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/gap"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/taxonomy"
)

// Edge types of the visualization payload.
const (
	EdgeTypeMainPath    = "main_path"    // consecutive concepts of the best path
	EdgeTypeSupportLink = "support_link" // endpoint to bridge concept
)

// VisNode is a concept drawn in the trajectory view.
type VisNode struct {
	ID       string            `json:"id"`
	Category taxonomy.Category `json:"category"`
	Color    string            `json:"color"`
	OnPath   bool              `json:"on_path"`
}

// VisEdge is a directed edge drawn in the trajectory view.
type VisEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
}

// Visualization is the node/edge set of the best path plus its bridges.
type Visualization struct {
	Nodes []VisNode `json:"nodes"`
	Edges []VisEdge `json:"edges"`
}

func (s *Synthesizer) visualize(path, bridges []string) *Visualization {
	vis := &Visualization{Nodes: []VisNode{}, Edges: []VisEdge{}}
	present := make(map[string]bool)
	type pair struct{ u, v string }
	linked := make(map[pair]bool)

	addNode := func(id string, onPath bool) {
		if present[id] {
			return
		}
		concept, ok := s.in.Registry.Get(id)
		if !ok {
			return
		}
		present[id] = true
		vis.Nodes = append(vis.Nodes, VisNode{
			ID:       id,
			Category: concept.Category,
			Color:    concept.Color,
			OnPath:   onPath,
		})
	}
	addEdge := func(u, v, typ string) {
		if !present[u] || !present[v] || linked[pair{u, v}] {
			return
		}
		linked[pair{u, v}] = true
		vis.Edges = append(vis.Edges, VisEdge{Source: u, Target: v, Type: typ})
	}

	for _, id := range path {
		addNode(id, true)
	}
	for i := 0; i+1 < len(path); i++ {
		addEdge(path[i], path[i+1], EdgeTypeMainPath)
	}

	if len(path) == 0 {
		return vis
	}
	start, end := path[0], path[len(path)-1]
	for _, b := range bridges {
		addNode(b, false)
		addEdge(start, b, EdgeTypeSupportLink)
		addEdge(b, end, EdgeTypeSupportLink)
	}
	return vis
}

// Endpoint is a suggested trajectory query.
type Endpoint struct {
	Start    string  `json:"start"`
	End      string  `json:"end"`
	Strength float64 `json:"strength"`
}

// SuggestEndpoints turns the strongest gap candidates from one category to
// another into trajectory queries. An empty category matches any. At most n
// endpoints are returned, in candidate order.
func SuggestEndpoints(candidates []gap.Candidate, from, to taxonomy.Category, n int) []Endpoint {
	var out []Endpoint
	for _, c := range candidates {
		if n > 0 && len(out) >= n {
			break
		}
		if from != "" && c.SourceCategory != from {
			continue
		}
		if to != "" && c.TargetCategory != to {
			continue
		}
		out = append(out, Endpoint{Start: c.Source, End: c.Target, Strength: c.Strength})
	}
	return out
}
