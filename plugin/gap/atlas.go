package gap

import (
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/taxonomy"
)

// Atlas is a category×category matrix holding the strongest candidate
// observed for each pair of categories. It is symmetric with a zero diagonal.
type Atlas struct {
	Categories []taxonomy.Category `json:"categories"`
	Values     [][]float64         `json:"values"`

	index map[taxonomy.Category]int
}

// NewAtlas creates an all-zero atlas over categories.
func NewAtlas(categories []taxonomy.Category) *Atlas {
	a := &Atlas{
		Categories: append([]taxonomy.Category(nil), categories...),
		Values:     make([][]float64, len(categories)),
		index:      make(map[taxonomy.Category]int, len(categories)),
	}
	for i, c := range categories {
		a.Values[i] = make([]float64, len(categories))
		a.index[c] = i
	}
	return a
}

func (a *Atlas) observe(x, y taxonomy.Category, strength float64) {
	i, ok := a.index[x]
	if !ok {
		return
	}
	j, ok := a.index[y]
	if !ok || i == j {
		return
	}
	if strength > a.Values[i][j] {
		a.Values[i][j] = strength
		a.Values[j][i] = strength
	}
}

// Get returns the atlas cell for categories x and y.
func (a *Atlas) Get(x, y taxonomy.Category) float64 {
	if a == nil {
		return 0
	}
	i, ok := a.index[x]
	if !ok {
		return 0
	}
	j, ok := a.index[y]
	if !ok {
		return 0
	}
	return a.Values[i][j]
}
