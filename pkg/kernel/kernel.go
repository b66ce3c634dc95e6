// Package kernel defines the geometry kernel used to build instancer
// templates. A template is a small solid in its own frame (a sphere, a
// bond rod, a cell wireframe) that the host copies onto every point of a
// mesh. The sdfx package provides the default kernel.
package kernel

import (
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Solid is a kernel-owned shape. Transforms return new solids.
type Solid interface {
	Bounds() (min, max v3.Vec)
}

// Kernel builds template solids and tessellates them.
type Kernel interface {
	// Sphere and Rod are centered on the origin. Rods run along Z.
	Sphere(radius float64) (Solid, error)
	Rod(length, radius float64) (Solid, error)

	Union(solids ...Solid) Solid
	Translate(s Solid, offset v3.Vec) Solid
	// Align rotates s so its Z axis points along dir. A zero dir leaves s
	// unchanged.
	Align(s Solid, dir v3.Vec) Solid

	ToMesh(s Solid) (*Mesh, error)
}

// Segment places a rod of the given radius from a to b.
func Segment(k Kernel, a, b v3.Vec, radius float64) (Solid, error) {
	d := b.Sub(a)
	l := d.Length()
	if l == 0 {
		return nil, fmt.Errorf("kernel: zero-length segment at %v", a)
	}
	rod, err := k.Rod(l, radius)
	if err != nil {
		return nil, err
	}
	return k.Translate(k.Align(rod, d), a.Add(b).MulScalar(0.5)), nil
}
