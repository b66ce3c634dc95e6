// Package bond assigns order, style and width to bond candidates from an
// ordered rule list and picks the reference atoms that orient the plane of
// double and triple bonds.
package bond

import (
	"fmt"

	"github.com/chazu/batoms/pkg/mesh"
	"github.com/chazu/batoms/pkg/neighbor"
)

// Bond styles.
const (
	StyleUnicolor = iota
	StyleBicolor
	StyleDashed
	StyleSpring
)

// Rule styles every bond whose endpoints have species (Species1, Species2)
// in that order.
type Rule struct {
	Species1 string  `json:"species1" toml:"species1" yaml:"species1"`
	Species2 string  `json:"species2" toml:"species2" yaml:"species2"`
	Order    int     `json:"order" toml:"order" yaml:"order"`
	Style    int     `json:"style" toml:"style" yaml:"style"`
	Width    float64 `json:"width" toml:"width" yaml:"width"`
}

// Bond is a resolved candidate.
type Bond struct {
	neighbor.Pair

	Order int     `json:"order" yaml:"order"`
	Style int     `json:"style" yaml:"style"`
	Width float64 `json:"width" yaml:"width"`

	// Ref3 and Ref4 are the endpoints of the bond that orients the plane
	// of a multi-order bond.
	Ref3 int `json:"ref3" yaml:"ref3"`
	Ref4 int `json:"ref4" yaml:"ref4"`

	// Plane is the index of that bond in the resolved list, or -1.
	Plane int `json:"plane" yaml:"plane"`

	Species1   int64 `json:"species1" yaml:"species1"`
	Species2   int64 `json:"species2" yaml:"species2"`
	ModelStyle int   `json:"model_style" yaml:"model_style"`

	// Rule is the index of the matching rule, or -1.
	Rule int `json:"rule" yaml:"rule"`
}

// Defaults for candidates no rule matches.
const (
	DefaultOrder = 1
	DefaultStyle = StyleUnicolor
	DefaultWidth = 1.0
)

// Resolve styles each candidate by the first rule matching its
// (species[I], species[J]) and fills in the plane reference atoms.
// modelStyles holds one entry per atom and may be nil; a bond takes the
// model style of atom I.
func Resolve(species []string, modelStyles []int, pairs []neighbor.Pair, rules []Rule) ([]Bond, error) {
	if modelStyles != nil {
		if err := mesh.CheckLen("model_styles", len(species), len(modelStyles)); err != nil {
			return nil, fmt.Errorf("bond: %w", err)
		}
	}
	n := len(species)
	bonds := make([]Bond, len(pairs))
	for k, p := range pairs {
		if p.I < 0 || p.I >= n || p.J < 0 || p.J >= n {
			return nil, fmt.Errorf("bond: candidate %d (%d, %d) outside %d atoms", k, p.I, p.J, n)
		}
		b := Bond{
			Pair:     p,
			Order:    DefaultOrder,
			Style:    DefaultStyle,
			Width:    DefaultWidth,
			Plane:    -1,
			Species1: SpeciesHash(species[p.I]),
			Species2: SpeciesHash(species[p.J]),
			Rule:     -1,
		}
		if modelStyles != nil {
			b.ModelStyle = modelStyles[p.I]
		}
		for r, rule := range rules {
			if rule.Species1 == species[p.I] && rule.Species2 == species[p.J] {
				b.Order, b.Style, b.Width, b.Rule = rule.Order, rule.Style, rule.Width, r
				break
			}
		}
		bonds[k] = b
	}
	assignRefs(bonds)
	return bonds, nil
}

// assignRefs fills Ref3/Ref4. Single bonds point at the previous
// candidate, wrapping around. Multi-order bonds look for the first other
// candidate sharing an endpoint with a different atom pair, falling back
// to atoms (0, 1).
func assignRefs(bonds []Bond) {
	n := len(bonds)
	if n == 0 {
		return
	}
	adj := make(map[int][]int)
	for k, b := range bonds {
		adj[b.I] = append(adj[b.I], k)
		if b.J != b.I {
			adj[b.J] = append(adj[b.J], k)
		}
	}
	for k := range bonds {
		b := &bonds[k]
		if b.Order <= 1 {
			prev := bonds[(k-1+n)%n]
			b.Ref3, b.Ref4 = prev.I, prev.J
			continue
		}
		b.Ref3, b.Ref4 = 0, 1
		if m := planeBond(bonds, adj, k); m >= 0 {
			b.Ref3, b.Ref4, b.Plane = bonds[m].I, bonds[m].J, m
		}
	}
}

// planeBond returns the lowest-index candidate other than k touching one
// of its endpoints whose unordered atom pair differs, or -1. The pair match
// ignores orientation: (j, i) is rejected as well as (i, j).
func planeBond(bonds []Bond, adj map[int][]int, k int) int {
	b := bonds[k]
	best := -1
	for _, atom := range [2]int{b.I, b.J} {
		for _, m := range adj[atom] {
			if m == k || samePair(bonds[m].Pair, b.Pair) {
				continue
			}
			if best < 0 || m < best {
				best = m
			}
			break
		}
	}
	return best
}

func samePair(p, q neighbor.Pair) bool {
	return (p.I == q.I && p.J == q.J) || (p.I == q.J && p.J == q.I)
}
