// Package instancer builds the template solids a host renderer instances
// on every vertex of the cavity and bond meshes. Templates are built in a
// canonical frame: cavity spheres have unit radius and are scaled per
// vertex; bonds have unit length along Z, and the strands of multi-order
// bonds are displaced along X.
package instancer

import (
	"fmt"

	"github.com/chazu/batoms/pkg/bond"
	"github.com/chazu/batoms/pkg/cavity"
	"github.com/chazu/batoms/pkg/kernel"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

const (
	// BondRadius is the rod radius of a bond of width 1.
	BondRadius = 0.1
	// strandGap separates the strands of multi-order bonds, in bond radii.
	strandGap = 2.5
	// dashes is the number of segments in a dashed bond.
	dashes = 5
)

// Template is a named solid with its display color.
type Template struct {
	Name  string
	Color [4]float64
	Solid kernel.Solid
}

// Cavity returns one unit-sphere template per bucket, named
// <label>_cavity_<bucket>.
func Cavity(k kernel.Kernel, label string, buckets *cavity.Buckets) ([]Template, error) {
	if buckets == nil {
		return nil, nil
	}
	out := make([]Template, 0, buckets.Len())
	for _, b := range buckets.All() {
		s, err := k.Sphere(1)
		if err != nil {
			return nil, fmt.Errorf("instancer: cavity %s: %w", b.Name, err)
		}
		out = append(out, Template{
			Name:  fmt.Sprintf("%s_cavity_%s", label, b.Name),
			Color: b.Color,
			Solid: s,
		})
	}
	return out, nil
}

// bondKey identifies one bond template.
type bondKey struct {
	species1, species2 string
	order, style       int
	width              float64
}

// Bonds returns one template per distinct (species pair, order, style,
// width) among rules, plus a default single bond. Names follow
// <label>_<species1>-<species2>_<order>_<style>.
func Bonds(k kernel.Kernel, label string, rules []bond.Rule) ([]Template, error) {
	seen := make(map[bondKey]bool)
	var out []Template
	add := func(key bondKey, name string) error {
		if seen[key] {
			return nil
		}
		seen[key] = true
		s, err := BondSolid(k, key.order, key.style, key.width)
		if err != nil {
			return fmt.Errorf("instancer: bond %s: %w", name, err)
		}
		out = append(out, Template{Name: name, Color: [4]float64{0.8, 0.8, 0.8, 1}, Solid: s})
		return nil
	}
	for _, r := range rules {
		key := bondKey{r.Species1, r.Species2, r.Order, r.Style, r.Width}
		name := fmt.Sprintf("%s_%s-%s_%d_%d", label, r.Species1, r.Species2, r.Order, r.Style)
		if err := add(key, name); err != nil {
			return nil, err
		}
	}
	def := bondKey{order: bond.DefaultOrder, style: bond.DefaultStyle, width: bond.DefaultWidth}
	if err := add(def, fmt.Sprintf("%s_default_%d_%d", label, def.order, def.style)); err != nil {
		return nil, err
	}
	return out, nil
}

// BondSolid builds a unit-length bond template along Z. Orders above 1
// repeat the strand along X; the dashed style splits each strand into
// separated segments.
func BondSolid(k kernel.Kernel, order, style int, width float64) (kernel.Solid, error) {
	if width <= 0 {
		return nil, fmt.Errorf("width %g must be positive", width)
	}
	if order < 1 {
		order = 1
	}
	if order > 3 {
		order = 3
	}
	radius := BondRadius * width
	if order > 1 {
		radius /= 2
	}
	strand, err := strandSolid(k, style, radius)
	if err != nil {
		return nil, err
	}
	if order == 1 {
		return strand, nil
	}
	gap := strandGap * radius
	strands := make([]kernel.Solid, 0, order)
	for i := 0; i < order; i++ {
		x := (float64(i) - float64(order-1)/2) * gap
		strands = append(strands, k.Translate(strand, v3.Vec{X: x}))
	}
	return k.Union(strands...), nil
}

func strandSolid(k kernel.Kernel, style int, radius float64) (kernel.Solid, error) {
	if style != bond.StyleDashed {
		return k.Rod(1, radius)
	}
	seg := 1.0 / float64(2*dashes-1)
	dash, err := k.Rod(seg, radius)
	if err != nil {
		return nil, err
	}
	parts := make([]kernel.Solid, 0, dashes)
	for i := 0; i < dashes; i++ {
		z := -0.5 + seg/2 + float64(2*i)*seg
		parts = append(parts, k.Translate(dash, v3.Vec{Z: z}))
	}
	return k.Union(parts...), nil
}
