package graph

import (
	"sort"

	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/corpus"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/taxonomy"
)

// EdgeTypeLink marks an explicit cross-reference.
const EdgeTypeLink = "link"

// NetworkNode is a concept as served to graph visualizations.
type NetworkNode struct {
	ID        string            `json:"id"`
	Label     string            `json:"label"`
	Category  taxonomy.Category `json:"category"`
	Color     string            `json:"color"`
	PageRank  float64           `json:"pagerank"`
	Degree    float64           `json:"degree"`
	Community int               `json:"community"`
}

// NetworkEdge is a directed edge as served to graph visualizations.
type NetworkEdge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Type   string  `json:"type"`
	Weight float64 `json:"weight"`
}

// Network is the node/edge payload of the whole graph.
type Network struct {
	Nodes []NetworkNode `json:"nodes"`
	Edges []NetworkEdge `json:"edges"`
	Stats NetworkStats  `json:"stats"`
}

// NetworkStats summarizes a network payload.
type NetworkStats struct {
	NodeCount      int `json:"node_count"`
	EdgeCount      int `json:"edge_count"`
	CommunityCount int `json:"community_count"`
}

// NewNetwork joins the graph with registry metadata and annotations.
// cent and part may be nil.
func NewNetwork(g *LinkGraph, reg *corpus.Registry, cent *Centrality, part *Partition) *Network {
	network := &Network{
		Nodes: make([]NetworkNode, 0, g.Len()),
		Edges: make([]NetworkEdge, 0, g.EdgeCount()),
	}
	for _, id := range g.Nodes() {
		concept, _ := reg.Get(id)
		node := NetworkNode{
			ID:        id,
			Label:     id,
			Category:  concept.Category,
			Color:     concept.Color,
			Community: -1,
		}
		if cent != nil {
			node.PageRank = cent.PageRank[id]
			node.Degree = cent.Degree[id]
		}
		if part != nil {
			if c, ok := part.Community[id]; ok {
				node.Community = c
			}
		}
		network.Nodes = append(network.Nodes, node)
	}
	for _, e := range g.Edges() {
		network.Edges = append(network.Edges, NetworkEdge{
			Source: e.Source,
			Target: e.Target,
			Type:   EdgeTypeLink,
			Weight: 1.0,
		})
	}
	network.Stats = networkStats(network.Nodes, network.Edges)
	return network
}

// NetworkFilter contains filter criteria for graph visualization.
type NetworkFilter struct {
	Categories  []taxonomy.Category // Filter by category
	MinPageRank float64             // Minimum PageRank score
	Communities []int               // Filter by community IDs
}

// ApplyFilter filters the network based on criteria.
func ApplyFilter(network *Network, filter NetworkFilter) *Network {
	if network == nil {
		return nil
	}

	nodeSet := make(map[string]bool)
	var filteredNodes []NetworkNode

	for _, node := range network.Nodes {
		if len(filter.Categories) > 0 && !containsCategory(filter.Categories, node.Category) {
			continue
		}

		if node.PageRank < filter.MinPageRank {
			continue
		}

		if len(filter.Communities) > 0 {
			found := false
			for _, c := range filter.Communities {
				if node.Community == c {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}

		filteredNodes = append(filteredNodes, node)
		nodeSet[node.ID] = true
	}

	// Only keep edges where both nodes are included
	var filteredEdges []NetworkEdge
	for _, edge := range network.Edges {
		if nodeSet[edge.Source] && nodeSet[edge.Target] {
			filteredEdges = append(filteredEdges, edge)
		}
	}

	// Most influential first
	sort.SliceStable(filteredNodes, func(i, j int) bool {
		return filteredNodes[i].PageRank > filteredNodes[j].PageRank
	})

	return &Network{
		Nodes: filteredNodes,
		Edges: filteredEdges,
		Stats: networkStats(filteredNodes, filteredEdges),
	}
}

func networkStats(nodes []NetworkNode, edges []NetworkEdge) NetworkStats {
	communities := make(map[int]bool)
	for _, node := range nodes {
		if node.Community >= 0 {
			communities[node.Community] = true
		}
	}
	return NetworkStats{
		NodeCount:      len(nodes),
		EdgeCount:      len(edges),
		CommunityCount: len(communities),
	}
}

func containsCategory(list []taxonomy.Category, c taxonomy.Category) bool {
	for _, item := range list {
		if item == c {
			return true
		}
	}
	return false
}
