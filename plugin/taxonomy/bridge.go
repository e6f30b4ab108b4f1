package taxonomy

import "fmt"

// BridgeRule awards Bonus to candidate links joining categories A and B.
// Rules are unordered: {A: Theory, B: Application} also covers Application-Theory.
type BridgeRule struct {
	A     Category `json:"a" yaml:"a" mapstructure:"a"`
	B     Category `json:"b" yaml:"b" mapstructure:"b"`
	Bonus float64  `json:"bonus" yaml:"bonus" mapstructure:"bonus"`
}

// BridgeTable maps unordered category pairs to a bonus. Pairs not present score 0.
type BridgeTable struct {
	bonus map[pairKey]float64
}

type pairKey struct {
	lo, hi Category
}

func keyOf(a, b Category) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

// DefaultBridgeRules rewards links that carry theory or materials into applications.
func DefaultBridgeRules() []BridgeRule {
	return []BridgeRule{
		{A: Theory, B: Application, Bonus: 1.5},
		{A: Material, B: Application, Bonus: 1.0},
	}
}

// NewBridgeTable builds a table from rules. A later rule for the same pair
// replaces an earlier one.
func NewBridgeTable(rules []BridgeRule) (*BridgeTable, error) {
	t := &BridgeTable{bonus: make(map[pairKey]float64, len(rules))}
	for _, r := range rules {
		if r.A == "" || r.B == "" {
			return nil, fmt.Errorf("bridge rule needs two categories: %+v", r)
		}
		if r.A == r.B {
			return nil, fmt.Errorf("bridge rule joins %q to itself", r.A)
		}
		t.bonus[keyOf(r.A, r.B)] = r.Bonus
	}
	return t, nil
}

// DefaultBridgeTable returns the table built from DefaultBridgeRules.
func DefaultBridgeTable() *BridgeTable {
	t, _ := NewBridgeTable(DefaultBridgeRules())
	return t
}

// Bonus returns the bonus for the unordered pair (a, b).
func (t *BridgeTable) Bonus(a, b Category) float64 {
	if t == nil {
		return 0
	}
	return t.bonus[keyOf(a, b)]
}

// Validate checks that every category named by the table exists in tax.
func (t *BridgeTable) Validate(tax *Taxonomy) error {
	for k := range t.bonus {
		for _, c := range []Category{k.lo, k.hi} {
			if _, ok := tax.Rank(c); !ok {
				return fmt.Errorf("bridge rule references unknown category %q", c)
			}
		}
	}
	return nil
}
