package instancer

import (
	"fmt"

	"github.com/chazu/batoms/pkg/kernel"
	"github.com/chazu/batoms/pkg/lattice"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// CellEdges returns the twelve edges of the cell parallelepiped as
// (start, end) pairs.
func CellEdges(cell *lattice.Cell) [12][2]v3.Vec {
	var edges [12][2]v3.Vec
	n := 0
	for axis := 0; axis < 3; axis++ {
		u, w := cell.A[(axis+1)%3], cell.A[(axis+2)%3]
		for _, base := range []v3.Vec{{}, u, w, u.Add(w)} {
			edges[n] = [2]v3.Vec{base, base.Add(cell.A[axis])}
			n++
		}
	}
	return edges
}

// Cell returns a wireframe of the unit cell built from rods of the given
// radius.
func Cell(k kernel.Kernel, label string, cell *lattice.Cell, radius float64) (Template, error) {
	edges := CellEdges(cell)
	parts := make([]kernel.Solid, 0, len(edges))
	for i, e := range edges {
		s, err := kernel.Segment(k, e[0], e[1], radius)
		if err != nil {
			return Template{}, fmt.Errorf("instancer: cell edge %d: %w", i, err)
		}
		parts = append(parts, s)
	}
	return Template{
		Name:  label + "_cell",
		Color: [4]float64{0.2, 0.2, 0.2, 1},
		Solid: k.Union(parts...),
	}, nil
}
