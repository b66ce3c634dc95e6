// Package neighbor builds periodic-boundary-aware bond candidate lists
// from per-species-pair distance cutoffs.
package neighbor

import (
	"fmt"
	"math"
	"sort"

	"github.com/chazu/batoms/pkg/lattice"
	"github.com/chazu/batoms/pkg/mesh"
	"github.com/chazu/batoms/pkg/spatial"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Pair is a bond candidate: atom J translated by Shift lattice vectors
// lies within the cutoff of atom I.
type Pair struct {
	I     int    `json:"i" yaml:"i"`
	J     int    `json:"j" yaml:"j"`
	Shift [3]int `json:"shift" yaml:"shift"`
}

// Less orders pairs by I, J, then Shift.
func (p Pair) Less(q Pair) bool {
	if p.I != q.I {
		return p.I < q.I
	}
	if p.J != q.J {
		return p.J < q.J
	}
	for k := 0; k < 3; k++ {
		if p.Shift[k] != q.Shift[k] {
			return p.Shift[k] < q.Shift[k]
		}
	}
	return false
}

// Reverse returns the same bond seen from atom J.
func (p Pair) Reverse() Pair {
	return Pair{I: p.J, J: p.I, Shift: [3]int{-p.Shift[0], -p.Shift[1], -p.Shift[2]}}
}

// Cutoff is the accepted bond length range [Min, Max] for a species pair.
type Cutoff struct {
	Species1 string  `json:"species1" toml:"species1" yaml:"species1"`
	Species2 string  `json:"species2" toml:"species2" yaml:"species2"`
	Min      float64 `json:"min" toml:"min" yaml:"min"`
	Max      float64 `json:"max" toml:"max" yaml:"max"`
}

// matches reports whether the cutoff applies to (a, b) in either order.
func (c Cutoff) matches(a, b string) bool {
	return (c.Species1 == a && c.Species2 == b) || (c.Species1 == b && c.Species2 == a)
}

// lookup returns the first cutoff applying to (a, b).
func lookup(cutoffs []Cutoff, a, b string) (Cutoff, bool) {
	for _, c := range cutoffs {
		if c.matches(a, b) {
			return c, true
		}
	}
	return Cutoff{}, false
}

// image is a periodic replica of an atom.
type image struct {
	atom  int
	shift [3]int
}

// Build returns every pair (i, j, S) with Min <= |p_j + S·cell - p_i| <= Max
// for the first cutoff naming the two species. Shifts are only non-zero
// along periodic axes. Each bond is kept once: for a cutoff (A, B) with
// A != B atom I has species A; for A == B either I < J, or I == J with a
// lexicographically positive shift. The result is sorted.
func Build(species []string, positions []v3.Vec, cell *lattice.Cell, cutoffs []Cutoff) ([]Pair, error) {
	if err := mesh.CheckLen("species", len(positions), len(species)); err != nil {
		return nil, fmt.Errorf("neighbor: %w", err)
	}
	pairs := []Pair{}
	if len(cutoffs) == 0 || len(positions) == 0 {
		return pairs, nil
	}

	maxCut := 0.0
	for _, c := range cutoffs {
		maxCut = math.Max(maxCut, c.Max)
	}
	if maxCut <= 0 {
		return pairs, nil
	}

	var reach [3]int
	for k := 0; k < 3; k++ {
		if cell.PBC[k] {
			reach[k] = int(math.Ceil(maxCut / cell.Spacing(k)))
		}
	}

	// The image reach assumes positions inside the cell, so search over
	// wrapped copies and fold the wrap back into the reported shift.
	wrapped, wraps := wrap(positions, cell)

	var images []image
	var imagePos []v3.Vec
	for a := -reach[0]; a <= reach[0]; a++ {
		for b := -reach[1]; b <= reach[1]; b++ {
			for c := -reach[2]; c <= reach[2]; c++ {
				s := [3]int{a, b, c}
				off := cell.Shift(s)
				for j, p := range wrapped {
					images = append(images, image{atom: j, shift: s})
					imagePos = append(imagePos, p.Add(off))
				}
			}
		}
	}
	idx := spatial.New(imagePos)

	for i, pi := range wrapped {
		for _, m := range idx.Within(pi, maxCut) {
			img := images[m]
			j := img.atom
			var s [3]int
			for k := range s {
				s[k] = img.shift[k] + wraps[i][k] - wraps[j][k]
			}
			if i == j && s == [3]int{} {
				continue
			}
			c, ok := lookup(cutoffs, species[i], species[j])
			if !ok {
				continue
			}
			d := imagePos[m].Sub(pi).Length()
			if d < c.Min || d > c.Max {
				continue
			}
			p := Pair{I: i, J: j, Shift: s}
			if canonical(p, species, c) {
				pairs = append(pairs, p)
			}
		}
	}
	Sort(pairs)
	return pairs, nil
}

// wrap moves every position into the cell along periodic axes. It
// returns the wrapped positions and the whole lattice vectors removed,
// so positions[i] = wrapped[i] + cell.Shift(wraps[i]).
func wrap(positions []v3.Vec, cell *lattice.Cell) ([]v3.Vec, [][3]int) {
	wrapped := make([]v3.Vec, len(positions))
	wraps := make([][3]int, len(positions))
	for i, p := range positions {
		f := cell.ToFractional(p)
		frac := [3]float64{f.X, f.Y, f.Z}
		for k := range frac {
			if cell.PBC[k] {
				wraps[i][k] = int(math.Floor(frac[k]))
			}
		}
		wrapped[i] = p.Sub(cell.Shift(wraps[i]))
	}
	return wrapped, wraps
}

// canonical decides which of (i, j, S) and (j, i, -S) is stored.
func canonical(p Pair, species []string, c Cutoff) bool {
	if c.Species1 != c.Species2 {
		return species[p.I] == c.Species1
	}
	if p.I != p.J {
		return p.I < p.J
	}
	for k := 0; k < 3; k++ {
		if p.Shift[k] != 0 {
			return p.Shift[k] > 0
		}
	}
	return false
}

// BuildFrames builds the list for every frame and returns their sorted,
// de-duplicated union.
func BuildFrames(species []string, frames [][]v3.Vec, cell *lattice.Cell, cutoffs []Cutoff) ([]Pair, error) {
	seen := make(map[Pair]struct{})
	out := []Pair{}
	for f, positions := range frames {
		pairs, err := Build(species, positions, cell, cutoffs)
		if err != nil {
			return nil, fmt.Errorf("neighbor: frame %d: %w", f, err)
		}
		for _, p := range pairs {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	Sort(out)
	return out, nil
}

// Sort orders pairs in place with Pair.Less.
func Sort(pairs []Pair) {
	sort.Slice(pairs, func(a, b int) bool { return pairs[a].Less(pairs[b]) })
}
