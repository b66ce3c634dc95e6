// Package lattice models the periodic unit cell of an atomic structure:
// three lattice vectors plus periodic-boundary flags. It maps between
// cartesian and fractional coordinates and measures distances to the
// six cell faces.
package lattice

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"gonum.org/v1/gonum/mat"
)

const (
	// minVectorLength is the shortest lattice vector accepted as non-degenerate.
	minVectorLength = 1e-8
	// minDeterminant is the smallest |det| accepted as non-singular.
	minDeterminant = 1e-12
)

// Cell is a validated unit cell. Rows of the cell matrix are the lattice
// vectors A[0], A[1], A[2].
type Cell struct {
	A   [3]v3.Vec
	PBC [3]bool

	inv *mat.Dense
	det float64
}

// New validates the lattice vectors and returns a Cell.
func New(a, b, c v3.Vec, pbc [3]bool) (*Cell, error) {
	vecs := [3]v3.Vec{a, b, c}
	for i, v := range vecs {
		if l := v.Length(); l < minVectorLength || math.IsNaN(l) {
			return nil, &InvalidCellError{Axis: i, Length: l}
		}
	}

	m := mat.NewDense(3, 3, []float64{
		a.X, a.Y, a.Z,
		b.X, b.Y, b.Z,
		c.X, c.Y, c.Z,
	})
	det := mat.Det(m)
	if math.Abs(det) < minDeterminant {
		return nil, &InvalidCellError{Axis: -1, Det: det}
	}
	var inv mat.Dense
	if err := inv.Inverse(m); err != nil {
		return nil, &InvalidCellError{Axis: -1, Det: det}
	}

	return &Cell{A: vecs, PBC: pbc, inv: &inv, det: det}, nil
}

// FromMatrix builds a Cell from a row-major 3x3 matrix.
func FromMatrix(m [3][3]float64, pbc [3]bool) (*Cell, error) {
	return New(
		v3.Vec{X: m[0][0], Y: m[0][1], Z: m[0][2]},
		v3.Vec{X: m[1][0], Y: m[1][1], Z: m[1][2]},
		v3.Vec{X: m[2][0], Y: m[2][1], Z: m[2][2]},
		pbc,
	)
}

// Cubic returns a periodic cubic cell with edge length l.
func Cubic(l float64) (*Cell, error) {
	return New(v3.Vec{X: l}, v3.Vec{Y: l}, v3.Vec{Z: l}, [3]bool{true, true, true})
}

// Matrix returns the cell as a row-major 3x3 matrix.
func (c *Cell) Matrix() [3][3]float64 {
	var m [3][3]float64
	for i, v := range c.A {
		m[i] = [3]float64{v.X, v.Y, v.Z}
	}
	return m
}

// Lengths returns |a|, |b|, |c|.
func (c *Cell) Lengths() [3]float64 {
	return [3]float64{c.A[0].Length(), c.A[1].Length(), c.A[2].Length()}
}

// Volume returns the absolute cell volume.
func (c *Cell) Volume() float64 {
	return math.Abs(c.det)
}

// Spacing returns the distance between the two faces perpendicular to
// lattice vector i (volume over the area of the opposite face).
func (c *Cell) Spacing(i int) float64 {
	return c.Volume() / c.faceNormal(i).Length()
}

// ToCartesian maps fractional coordinates to cartesian.
func (c *Cell) ToCartesian(f v3.Vec) v3.Vec {
	return c.A[0].MulScalar(f.X).Add(c.A[1].MulScalar(f.Y)).Add(c.A[2].MulScalar(f.Z))
}

// ToFractional maps cartesian coordinates to fractional coordinates.
func (c *Cell) ToFractional(p v3.Vec) v3.Vec {
	inv := c.inv
	return v3.Vec{
		X: p.X*inv.At(0, 0) + p.Y*inv.At(1, 0) + p.Z*inv.At(2, 0),
		Y: p.X*inv.At(0, 1) + p.Y*inv.At(1, 1) + p.Z*inv.At(2, 1),
		Z: p.X*inv.At(0, 2) + p.Y*inv.At(1, 2) + p.Z*inv.At(2, 2),
	}
}

// Shift returns the cartesian translation s[0]*a + s[1]*b + s[2]*c.
func (c *Cell) Shift(s [3]int) v3.Vec {
	return c.ToCartesian(v3.Vec{X: float64(s[0]), Y: float64(s[1]), Z: float64(s[2])})
}

// faceNormal is the (unnormalized) normal of the faces perpendicular to A[i].
func (c *Cell) faceNormal(i int) v3.Vec {
	return c.A[(i+1)%3].Cross(c.A[(i+2)%3])
}

// FaceDistances returns the distances from p to the six cell faces,
// ordered (a-low, a-high, b-low, b-high, c-low, c-high). The low face of
// axis i passes through the origin, the high face through A[i].
func (c *Cell) FaceDistances(p v3.Vec) [6]float64 {
	var d [6]float64
	for i := 0; i < 3; i++ {
		n := c.faceNormal(i).Normalize()
		d[2*i] = math.Abs(p.Dot(n))
		d[2*i+1] = math.Abs(p.Sub(c.A[i]).Dot(n))
	}
	return d
}

// MinFaceDistance returns the smallest of FaceDistances(p).
func (c *Cell) MinFaceDistance(p v3.Vec) float64 {
	min := math.Inf(1)
	for _, d := range c.FaceDistances(p) {
		if d < min {
			min = d
		}
	}
	return min
}

// Periodic reports whether any axis is periodic.
func (c *Cell) Periodic() bool {
	return c.PBC[0] || c.PBC[1] || c.PBC[2]
}
