package bond

import (
	"fmt"

	"github.com/chazu/batoms/pkg/lattice"
	"github.com/chazu/batoms/pkg/mesh"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// planeEps keeps the cross products away from zero when the reference
// bond is parallel to the bond itself.
var planeEps = v3.Vec{X: 1e-8}

// fallbackPlane is used when a multi-order bond has no reference bond.
var fallbackPlane = v3.Vec{Z: 1}

// FrameGeometry holds per-bond placement for one frame.
type FrameGeometry struct {
	// Centers are bond midpoints including the image shift.
	Centers []v3.Vec
	// Offsets are the image shifts in cartesian coordinates.
	Offsets []v3.Vec
	// Vectors run from atom I to the shifted atom J.
	Vectors []v3.Vec
	// Directions are unit vectors perpendicular to the bond along which
	// the strands of double and triple bonds are displaced. Zero for
	// single bonds.
	Directions []v3.Vec
}

// Geometry computes bond placement for every frame.
func Geometry(frames [][]v3.Vec, cell *lattice.Cell, bonds []Bond) ([]FrameGeometry, error) {
	out := make([]FrameGeometry, len(frames))
	offsets := make([]v3.Vec, len(bonds))
	for k, b := range bonds {
		offsets[k] = cell.Shift(b.Shift)
	}
	for f, pos := range frames {
		g := FrameGeometry{
			Centers:    make([]v3.Vec, len(bonds)),
			Offsets:    offsets,
			Vectors:    make([]v3.Vec, len(bonds)),
			Directions: make([]v3.Vec, len(bonds)),
		}
		for k, b := range bonds {
			if b.I >= len(pos) || b.J >= len(pos) {
				return nil, fmt.Errorf("bond: frame %d: %w", f,
					&mesh.ShapeMismatchError{Name: "positions", Want: max(b.I, b.J) + 1, Got: len(pos)})
			}
			pj := pos[b.J].Add(offsets[k])
			g.Centers[k] = pos[b.I].Add(pj).MulScalar(0.5)
			g.Vectors[k] = pj.Sub(pos[b.I])
		}
		for k, b := range bonds {
			if b.Order <= 1 {
				continue
			}
			ref := fallbackPlane
			if b.Plane >= 0 {
				ref = g.Vectors[b.Plane]
			}
			g.Directions[k] = PlaneDirection(ref, g.Vectors[k].Normalize())
		}
		out[f] = g
	}
	return out, nil
}

// PlaneDirection returns the unit vector perpendicular to the bond
// direction n that lies in the plane spanned by n and ref.
func PlaneDirection(ref, n v3.Vec) v3.Vec {
	normal := ref.Cross(n).Add(planeEps)
	return normal.Cross(n).Add(planeEps).Normalize()
}
