// Package mesh is an in-memory vertex buffer in the shape a host renderer
// consumes: one position per vertex, named per-vertex attributes and
// shape-key frames for animation. Every setter validates lengths before
// writing, so a rejected update leaves the mesh as it was.
package mesh

import (
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Kind is the element type of an attribute.
type Kind int

const (
	Int Kind = iota
	Float
	Bool
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "INT"
	case Float:
		return "FLOAT"
	case Bool:
		return "BOOLEAN"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Attribute is a named per-vertex array. Only the slice matching Kind is
// populated.
type Attribute struct {
	Name   string    `json:"name"`
	Kind   Kind      `json:"kind"`
	Ints   []int64   `json:"ints,omitempty"`
	Floats []float64 `json:"floats,omitempty"`
	Bools  []bool    `json:"bools,omitempty"`
}

// Len returns the number of elements.
func (a *Attribute) Len() int {
	switch a.Kind {
	case Int:
		return len(a.Ints)
	case Float:
		return len(a.Floats)
	default:
		return len(a.Bools)
	}
}

func (a *Attribute) resize(n int) {
	switch a.Kind {
	case Int:
		a.Ints = resize(a.Ints, n)
	case Float:
		a.Floats = resize(a.Floats, n)
	case Bool:
		a.Bools = resize(a.Bools, n)
	}
}

func resize[T any](s []T, n int) []T {
	if n <= len(s) {
		return s[:n:n]
	}
	out := make([]T, n)
	copy(out, s)
	return out
}

// PointMesh is a vertex-only mesh.
type PointMesh struct {
	Name string

	positions []v3.Vec
	attrs     map[string]*Attribute
	order     []string

	// frames[0] is the basis shape key once any frame is set.
	frames [][]v3.Vec
}

// NewPointMesh returns a mesh with the given vertices.
func NewPointMesh(name string, positions []v3.Vec) *PointMesh {
	m := &PointMesh{Name: name, attrs: make(map[string]*Attribute)}
	m.positions = append([]v3.Vec(nil), positions...)
	return m
}

// Len returns the vertex count.
func (m *PointMesh) Len() int {
	return len(m.positions)
}

// Positions returns a copy of the vertex positions.
func (m *PointMesh) Positions() []v3.Vec {
	return append([]v3.Vec(nil), m.positions...)
}

// SetPositions overwrites the positions of every vertex.
func (m *PointMesh) SetPositions(p []v3.Vec) error {
	if err := CheckLen("positions", m.Len(), len(p)); err != nil {
		return err
	}
	copy(m.positions, p)
	return nil
}

// Resize adds or removes vertices. New vertices sit at the origin with
// zero attributes; removed vertices take their attribute values and
// shape-key entries with them.
func (m *PointMesh) Resize(n int) {
	if n < 0 {
		n = 0
	}
	m.positions = resize(m.positions, n)
	for _, a := range m.attrs {
		a.resize(n)
	}
	for i := range m.frames {
		m.frames[i] = resize(m.frames[i], n)
	}
}

func (m *PointMesh) set(a *Attribute) error {
	if err := CheckLen(a.Name, m.Len(), a.Len()); err != nil {
		return err
	}
	if old, ok := m.attrs[a.Name]; ok && old.Kind != a.Kind {
		return fmt.Errorf("attribute %s is %s, not %s", a.Name, old.Kind, a.Kind)
	}
	if _, ok := m.attrs[a.Name]; !ok {
		m.order = append(m.order, a.Name)
	}
	m.attrs[a.Name] = a
	return nil
}

// SetInts stores an integer attribute.
func (m *PointMesh) SetInts(name string, v []int64) error {
	return m.set(&Attribute{Name: name, Kind: Int, Ints: append([]int64(nil), v...)})
}

// SetFloats stores a float attribute.
func (m *PointMesh) SetFloats(name string, v []float64) error {
	return m.set(&Attribute{Name: name, Kind: Float, Floats: append([]float64(nil), v...)})
}

// SetBools stores a boolean attribute.
func (m *PointMesh) SetBools(name string, v []bool) error {
	return m.set(&Attribute{Name: name, Kind: Bool, Bools: append([]bool(nil), v...)})
}

// Attribute looks up an attribute by name.
func (m *PointMesh) Attribute(name string) (*Attribute, bool) {
	a, ok := m.attrs[name]
	return a, ok
}

// Ints returns the named integer attribute.
func (m *PointMesh) Ints(name string) ([]int64, bool) {
	a, ok := m.attrs[name]
	if !ok || a.Kind != Int {
		return nil, false
	}
	return a.Ints, true
}

// Floats returns the named float attribute.
func (m *PointMesh) Floats(name string) ([]float64, bool) {
	a, ok := m.attrs[name]
	if !ok || a.Kind != Float {
		return nil, false
	}
	return a.Floats, true
}

// Bools returns the named boolean attribute.
func (m *PointMesh) Bools(name string) ([]bool, bool) {
	a, ok := m.attrs[name]
	if !ok || a.Kind != Bool {
		return nil, false
	}
	return a.Bools, true
}

// AttributeNames lists attributes in creation order.
func (m *PointMesh) AttributeNames() []string {
	return append([]string(nil), m.order...)
}

// NumFrames returns the number of shape-key frames.
func (m *PointMesh) NumFrames() int {
	return len(m.frames)
}

// Frame returns a copy of frame i.
func (m *PointMesh) Frame(i int) ([]v3.Vec, bool) {
	if i < 0 || i >= len(m.frames) {
		return nil, false
	}
	return append([]v3.Vec(nil), m.frames[i]...), true
}

// SetFrame overwrites frame i, or appends it when i == NumFrames().
func (m *PointMesh) SetFrame(i int, p []v3.Vec) error {
	if i < 0 || i > len(m.frames) {
		return fmt.Errorf("frame %d out of range [0, %d]", i, len(m.frames))
	}
	if err := CheckLen(fmt.Sprintf("frame %d", i), m.Len(), len(p)); err != nil {
		return err
	}
	f := append([]v3.Vec(nil), p...)
	if i == len(m.frames) {
		m.frames = append(m.frames, f)
	} else {
		m.frames[i] = f
	}
	return nil
}

// SetFrames replaces every frame. Nothing is written unless all frames
// have the right length.
func (m *PointMesh) SetFrames(frames [][]v3.Vec) error {
	for i, p := range frames {
		if err := CheckLen(fmt.Sprintf("frame %d", i), m.Len(), len(p)); err != nil {
			return err
		}
	}
	m.frames = make([][]v3.Vec, len(frames))
	for i, p := range frames {
		m.frames[i] = append([]v3.Vec(nil), p...)
	}
	return nil
}
