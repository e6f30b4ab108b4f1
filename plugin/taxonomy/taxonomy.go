// Package taxonomy defines the ordered concept categories and the
// category bridge-bonus table used by gap scoring.
package taxonomy

import (
	"fmt"
	"strings"
)

// Category is the classification of a concept, derived from its source document.
type Category string

// Default category names.
const (
	Theory      Category = "Theory"
	Mechanism   Category = "Mechanism"
	Phenomenon  Category = "Phenomenon"
	Method      Category = "Method"
	Material    Category = "Material"
	Application Category = "Application"
)

// Spec describes one category: its name, the document that defines its
// concepts, and a display color.
type Spec struct {
	Name  Category `json:"name" yaml:"name" mapstructure:"name"`
	File  string   `json:"file" yaml:"file" mapstructure:"file"`
	Color string   `json:"color" yaml:"color" mapstructure:"color"`
}

// Taxonomy is an ordered list of categories. The order is the hierarchical
// flow used for trajectory scoring: earlier categories are more fundamental.
type Taxonomy struct {
	specs []Spec
	index map[Category]int
	files map[string]int
}

// DefaultSpecs returns the six-category research taxonomy.
func DefaultSpecs() []Spec {
	return []Spec{
		{Name: Theory, File: "theoretical.md", Color: "#a65628"},
		{Name: Mechanism, File: "mechanisms.md", Color: "#4daf4a"},
		{Name: Phenomenon, File: "phenomena.md", Color: "#ff7f00"},
		{Name: Method, File: "methods.md", Color: "#984ea3"},
		{Name: Material, File: "materials.md", Color: "#377eb8"},
		{Name: Application, File: "applications.md", Color: "#e41a1c"},
	}
}

// Default returns the taxonomy built from DefaultSpecs.
func Default() *Taxonomy {
	t, _ := New(DefaultSpecs())
	return t
}

// New builds a taxonomy. Names and files must be unique and non-empty.
func New(specs []Spec) (*Taxonomy, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("taxonomy: no categories")
	}
	t := &Taxonomy{
		specs: make([]Spec, 0, len(specs)),
		index: make(map[Category]int, len(specs)),
		files: make(map[string]int, len(specs)),
	}
	for _, s := range specs {
		s.Name = Category(strings.TrimSpace(string(s.Name)))
		s.File = strings.TrimSpace(s.File)
		if s.Name == "" || s.File == "" {
			return nil, fmt.Errorf("taxonomy: category needs a name and a file: %+v", s)
		}
		if _, dup := t.index[s.Name]; dup {
			return nil, fmt.Errorf("taxonomy: duplicate category %q", s.Name)
		}
		if _, dup := t.files[s.File]; dup {
			return nil, fmt.Errorf("taxonomy: duplicate file %q", s.File)
		}
		if s.Color == "" {
			s.Color = "grey"
		}
		t.index[s.Name] = len(t.specs)
		t.files[s.File] = len(t.specs)
		t.specs = append(t.specs, s)
	}
	return t, nil
}

// Specs returns the categories in hierarchical order.
func (t *Taxonomy) Specs() []Spec {
	out := make([]Spec, len(t.specs))
	copy(out, t.specs)
	return out
}

// Categories returns the category names in hierarchical order.
func (t *Taxonomy) Categories() []Category {
	out := make([]Category, len(t.specs))
	for i, s := range t.specs {
		out[i] = s.Name
	}
	return out
}

// Len returns the number of categories.
func (t *Taxonomy) Len() int {
	return len(t.specs)
}

// Rank returns the position of c in the hierarchical order.
func (t *Taxonomy) Rank(c Category) (int, bool) {
	i, ok := t.index[c]
	return i, ok
}

// Lookup returns the spec for a category.
func (t *Taxonomy) Lookup(c Category) (Spec, bool) {
	i, ok := t.index[c]
	if !ok {
		return Spec{}, false
	}
	return t.specs[i], true
}

// ForFile returns the category whose document is file.
func (t *Taxonomy) ForFile(file string) (Spec, bool) {
	i, ok := t.files[file]
	if !ok {
		return Spec{}, false
	}
	return t.specs[i], true
}
