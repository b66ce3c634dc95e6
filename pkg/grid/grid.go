// Package grid samples regular lattices of points inside a unit cell.
package grid

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/batoms/pkg/lattice"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ErrResolution is returned for a non-positive or non-finite resolution.
var ErrResolution = errors.New("grid: resolution must be positive")

// Grid is a regular sample of a cell. Points are ordered with the first
// axis varying slowest: index = (i*Shape[1] + j)*Shape[2] + k.
type Grid struct {
	Points []v3.Vec
	Shape  [3]int
}

// Len returns the number of grid points.
func (g *Grid) Len() int {
	return len(g.Points)
}

// Index returns the flat index of grid point (i, j, k).
func (g *Grid) Index(i, j, k int) int {
	return (i*g.Shape[1]+j)*g.Shape[2] + k
}

// Counts returns floor(|a_i| / resolution) per axis, never less than 1.
func Counts(cell *lattice.Cell, resolution float64) ([3]int, error) {
	var n [3]int
	if !(resolution > 0) || math.IsInf(resolution, 0) {
		return n, fmt.Errorf("%w: got %g", ErrResolution, resolution)
	}
	for i, l := range cell.Lengths() {
		n[i] = int(math.Floor(l / resolution))
		if n[i] < 1 {
			n[i] = 1
		}
	}
	return n, nil
}

// Sample builds the grid of fractional coordinates k/n_i, k in [0, n_i),
// mapped to cartesian coordinates through the cell.
func Sample(cell *lattice.Cell, resolution float64) (*Grid, error) {
	shape, err := Counts(cell, resolution)
	if err != nil {
		return nil, err
	}

	pts := make([]v3.Vec, 0, shape[0]*shape[1]*shape[2])
	for i := 0; i < shape[0]; i++ {
		fx := float64(i) / float64(shape[0])
		for j := 0; j < shape[1]; j++ {
			fy := float64(j) / float64(shape[1])
			for k := 0; k < shape[2]; k++ {
				fz := float64(k) / float64(shape[2])
				pts = append(pts, cell.ToCartesian(v3.Vec{X: fx, Y: fy, Z: fz}))
			}
		}
	}
	return &Grid{Points: pts, Shape: shape}, nil
}

// Cube returns the (2n+1)^3 points center + (a, b, c) * resolution/2/n
// for integer a, b, c in [-n, n], first axis slowest.
func Cube(center v3.Vec, resolution float64, n int) []v3.Vec {
	if n < 1 {
		return []v3.Vec{center}
	}
	step := resolution / 2 / float64(n)
	side := 2*n + 1
	pts := make([]v3.Vec, 0, side*side*side)
	for a := -n; a <= n; a++ {
		for b := -n; b <= n; b++ {
			for c := -n; c <= n; c++ {
				pts = append(pts, center.Add(v3.Vec{
					X: float64(a) * step,
					Y: float64(b) * step,
					Z: float64(c) * step,
				}))
			}
		}
	}
	return pts
}
