package graph

import (
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/corpus"
)

// Build constructs the link graph. Every concept section contributes an edge
// to each registered concept it references; unknown targets are dropped.
func Build(docs []corpus.Document, reg *corpus.Registry) *LinkGraph {
	var edges []Edge
	for _, doc := range docs {
		for _, section := range corpus.Sections(doc.Content) {
			if section.Owner == "" || !reg.Has(section.Owner) {
				continue
			}
			for _, link := range corpus.Links(section.Body) {
				if !reg.Has(link.Target) {
					continue
				}
				edges = append(edges, Edge{Source: section.Owner, Target: link.Target})
			}
		}
	}
	return NewLinkGraph(reg.IDs(), edges)
}
