package corpus

import (
	"sort"

	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/taxonomy"
)

// Concept is a node of the knowledge graph.
type Concept struct {
	ID       string            `json:"id"`
	Category taxonomy.Category `json:"category"`
	Color    string            `json:"color"`
}

// Registry maps concept ids to their metadata. The first definition of an
// id wins; later definitions are ignored.
type Registry struct {
	order    []string
	concepts map[string]Concept
}

// NewRegistry creates a registry from concepts in definition order.
func NewRegistry(concepts ...Concept) *Registry {
	r := &Registry{concepts: make(map[string]Concept, len(concepts))}
	for _, c := range concepts {
		r.add(c)
	}
	return r
}

// ExtractRegistry collects every concept heading of docs, in document order.
func ExtractRegistry(docs []Document) *Registry {
	r := NewRegistry()
	for _, doc := range docs {
		for _, id := range Headers(doc.Content) {
			r.add(Concept{ID: id, Category: doc.Category, Color: doc.Color})
		}
	}
	return r
}

func (r *Registry) add(c Concept) bool {
	if c.ID == "" {
		return false
	}
	if _, ok := r.concepts[c.ID]; ok {
		return false
	}
	r.concepts[c.ID] = c
	r.order = append(r.order, c.ID)
	return true
}

// Len returns the number of concepts.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}

// Has reports whether id is a known concept.
func (r *Registry) Has(id string) bool {
	if r == nil {
		return false
	}
	_, ok := r.concepts[id]
	return ok
}

// Get returns the concept with the given id.
func (r *Registry) Get(id string) (Concept, bool) {
	if r == nil {
		return Concept{}, false
	}
	c, ok := r.concepts[id]
	return c, ok
}

// Category returns the category of id, or "" if unknown.
func (r *Registry) Category(id string) taxonomy.Category {
	c, _ := r.Get(id)
	return c.Category
}

// IDs returns concept ids in definition order.
func (r *Registry) IDs() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// SortedIDs returns concept ids in lexical order.
func (r *Registry) SortedIDs() []string {
	out := r.IDs()
	sort.Strings(out)
	return out
}

// Concepts returns all concepts in definition order.
func (r *Registry) Concepts() []Concept {
	if r == nil {
		return nil
	}
	out := make([]Concept, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.concepts[id])
	}
	return out
}

// ByCategory returns the ids of c's concepts in definition order.
func (r *Registry) ByCategory(c taxonomy.Category) []string {
	if r == nil {
		return nil
	}
	var out []string
	for _, id := range r.order {
		if r.concepts[id].Category == c {
			out = append(out, id)
		}
	}
	return out
}
