package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTaxonomyOrder(t *testing.T) {
	tax := Default()
	require.Equal(t, 6, tax.Len())
	assert.Equal(t, []Category{Theory, Mechanism, Phenomenon, Method, Material, Application}, tax.Categories())

	rank, ok := tax.Rank(Method)
	require.True(t, ok)
	assert.Equal(t, 3, rank)

	spec, ok := tax.ForFile("materials.md")
	require.True(t, ok)
	assert.Equal(t, Material, spec.Name)
	assert.Equal(t, "#377eb8", spec.Color)

	_, ok = tax.Rank("Unknown")
	assert.False(t, ok)
}

func TestNewRejectsInvalidSpecs(t *testing.T) {
	tests := []struct {
		name  string
		specs []Spec
	}{
		{name: "empty", specs: nil},
		{name: "missing file", specs: []Spec{{Name: Theory}}},
		{name: "duplicate name", specs: []Spec{{Name: Theory, File: "a.md"}, {Name: Theory, File: "b.md"}}},
		{name: "duplicate file", specs: []Spec{{Name: Theory, File: "a.md"}, {Name: Method, File: "a.md"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.specs)
			assert.Error(t, err)
		})
	}
}

func TestBridgeTableIsUnordered(t *testing.T) {
	table := DefaultBridgeTable()

	assert.Equal(t, 1.5, table.Bonus(Theory, Application))
	assert.Equal(t, 1.5, table.Bonus(Application, Theory))
	assert.Equal(t, 1.0, table.Bonus(Application, Material))
	assert.Equal(t, 0.0, table.Bonus(Theory, Method))

	var nilTable *BridgeTable
	assert.Equal(t, 0.0, nilTable.Bonus(Theory, Application))
}

func TestBridgeTableCustomRules(t *testing.T) {
	table, err := NewBridgeTable([]BridgeRule{
		{A: "Gene", B: "Disease", Bonus: 2},
		{A: "Disease", B: "Gene", Bonus: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, 3.0, table.Bonus("Gene", "Disease"))

	err = table.Validate(Default())
	assert.Error(t, err)

	_, err = NewBridgeTable([]BridgeRule{{A: Theory, B: Theory, Bonus: 1}})
	assert.Error(t, err)
}
