// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library.
package sdfx

import (
	"fmt"
	"math"

	"github.com/chazu/batoms/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// DefaultMeshCells controls marching cubes tessellation resolution along
// the longest bounding box side.
const DefaultMeshCells = 64

// solid wraps an sdf.SDF3 to implement kernel.Solid.
type solid struct {
	s sdf.SDF3
}

func (s *solid) Bounds() (min, max v3.Vec) {
	bb := s.s.BoundingBox()
	return bb.Min, bb.Max
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct {
	cells int
}

// New returns a new SdfxKernel.
func New() *SdfxKernel {
	return NewWithCells(DefaultMeshCells)
}

// NewWithCells returns a kernel tessellating with the given number of
// marching cubes cells. Values below 8 are raised to 8.
func NewWithCells(cells int) *SdfxKernel {
	if cells < 8 {
		cells = 8
	}
	return &SdfxKernel{cells: cells}
}

// Cells returns the tessellation resolution.
func (k *SdfxKernel) Cells() int {
	return k.cells
}

func unwrap(s kernel.Solid) sdf.SDF3 {
	return s.(*solid).s
}

func wrap(s sdf.SDF3) kernel.Solid {
	return &solid{s: s}
}

// Sphere creates a sphere centered on the origin.
func (k *SdfxKernel) Sphere(radius float64) (kernel.Solid, error) {
	s, err := sdf.Sphere3D(radius)
	if err != nil {
		return nil, fmt.Errorf("sdfx: sphere: %w", err)
	}
	return wrap(s), nil
}

// Rod creates a flat-ended cylinder along Z centered on the origin.
func (k *SdfxKernel) Rod(length, radius float64) (kernel.Solid, error) {
	if length <= 0 || radius <= 0 {
		return nil, fmt.Errorf("sdfx: rod: length %g and radius %g must be positive", length, radius)
	}
	s, err := sdf.Cylinder3D(length, radius, 0)
	if err != nil {
		return nil, fmt.Errorf("sdfx: rod: %w", err)
	}
	return wrap(s), nil
}

// Union returns the union of the solids.
func (k *SdfxKernel) Union(solids ...kernel.Solid) kernel.Solid {
	if len(solids) == 1 {
		return solids[0]
	}
	parts := make([]sdf.SDF3, len(solids))
	for i, s := range solids {
		parts[i] = unwrap(s)
	}
	return wrap(sdf.Union3D(parts...))
}

// Translate moves a solid by offset.
func (k *SdfxKernel) Translate(s kernel.Solid, offset v3.Vec) kernel.Solid {
	return wrap(sdf.Transform3D(unwrap(s), sdf.Translate3d(offset)))
}

// Align tilts the Z axis by the polar angle of dir, then turns it to the
// azimuth of dir.
func (k *SdfxKernel) Align(s kernel.Solid, dir v3.Vec) kernel.Solid {
	l := dir.Length()
	if l == 0 {
		return s
	}
	theta := math.Acos(math.Max(-1, math.Min(1, dir.Z/l)))
	phi := math.Atan2(dir.Y, dir.X)
	m := sdf.RotateZ(phi).Mul(sdf.RotateY(theta))
	return wrap(sdf.Transform3D(unwrap(s), m))
}

// ToMesh tessellates a solid with uniform marching cubes. Vertices shared
// by neighboring triangles are welded, and normals come from the SDF
// gradient so spheres and rods shade smoothly. A solid that produces no
// triangles gives an empty mesh.
func (k *SdfxKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	if s == nil {
		return nil, fmt.Errorf("sdfx: nil solid")
	}
	f := unwrap(s)
	triangles := render.ToTriangles(f, render.NewMarchingCubesUniform(k.cells))

	m := &kernel.Mesh{
		Vertices: []float32{},
		Normals:  []float32{},
		Indices:  make([]uint32, 0, 3*len(triangles)),
	}
	h := gradientStep(f, k.cells)
	welded := make(map[v3.Vec]uint32)
	for _, tri := range triangles {
		for _, v := range tri {
			id, ok := welded[v]
			if !ok {
				id = uint32(len(m.Vertices) / 3)
				welded[v] = id
				n := gradient(f, v, h)
				if n == (v3.Vec{}) {
					n = tri.Normal()
				}
				m.Vertices = append(m.Vertices, float32(v.X), float32(v.Y), float32(v.Z))
				m.Normals = append(m.Normals, float32(n.X), float32(n.Y), float32(n.Z))
			}
			m.Indices = append(m.Indices, id)
		}
	}
	return m, nil
}

// gradientStep is a tenth of a marching cubes cell along the longest side.
func gradientStep(f sdf.SDF3, cells int) float64 {
	bb := f.BoundingBox()
	size := bb.Max.Sub(bb.Min)
	return math.Max(size.X, math.Max(size.Y, size.Z)) / float64(cells) / 10
}

// gradient returns the unit SDF gradient at p by central differences, or
// the zero vector where the field is flat.
func gradient(f sdf.SDF3, p v3.Vec, h float64) v3.Vec {
	dx := v3.Vec{X: h}
	dy := v3.Vec{Y: h}
	dz := v3.Vec{Z: h}
	g := v3.Vec{
		X: f.Evaluate(p.Add(dx)) - f.Evaluate(p.Sub(dx)),
		Y: f.Evaluate(p.Add(dy)) - f.Evaluate(p.Sub(dy)),
		Z: f.Evaluate(p.Add(dz)) - f.Evaluate(p.Sub(dz)),
	}
	l := g.Length()
	if l == 0 {
		return v3.Vec{}
	}
	return g.MulScalar(1 / l)
}
