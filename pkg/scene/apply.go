package scene

import (
	"fmt"
	"slices"

	"github.com/chazu/batoms/pkg/bond"
	"github.com/chazu/batoms/pkg/cavity"
	"github.com/chazu/batoms/pkg/instancer"
	"github.com/chazu/batoms/pkg/mesh"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/samber/lo"
)

// Object name suffixes below a structure collection.
const (
	AtomsSuffix   = "_atoms"
	BondsSuffix   = "_bond"
	OffsetsSuffix = "_bond_offset"
	CavitySuffix  = "_cavity"

	// InstancerSuffix names the collection holding instancer templates.
	InstancerSuffix = "_instancer"
)

// update resizes an object's mesh and writes positions, frames and
// attributes. Everything is checked before anything is written.
type update struct {
	positions []v3.Vec
	frames    [][]v3.Vec
	ints      map[string][]int64
	floats    map[string][]float64
	bools     map[string][]bool
}

func (u *update) check() error {
	n := len(u.positions)
	for i, f := range u.frames {
		if err := mesh.CheckLen(fmt.Sprintf("frame %d", i), n, len(f)); err != nil {
			return err
		}
	}
	for name, v := range u.ints {
		if err := mesh.CheckLen(name, n, len(v)); err != nil {
			return err
		}
	}
	for name, v := range u.floats {
		if err := mesh.CheckLen(name, n, len(v)); err != nil {
			return err
		}
	}
	for name, v := range u.bools {
		if err := mesh.CheckLen(name, n, len(v)); err != nil {
			return err
		}
	}
	return nil
}

func (u *update) apply(m *mesh.PointMesh) error {
	if err := u.check(); err != nil {
		return err
	}
	m.Resize(len(u.positions))
	if err := m.SetPositions(u.positions); err != nil {
		return err
	}
	for _, name := range sortedKeys(u.ints) {
		if err := m.SetInts(name, u.ints[name]); err != nil {
			return err
		}
	}
	for _, name := range sortedKeys(u.floats) {
		if err := m.SetFloats(name, u.floats[name]); err != nil {
			return err
		}
	}
	for _, name := range sortedKeys(u.bools) {
		if err := m.SetBools(name, u.bools[name]); err != nil {
			return err
		}
	}
	return m.SetFrames(u.frames)
}

// ensureCollection returns the root collection for a structure.
func (s *Scene) ensureCollection(label string) error {
	_, err := s.Ensure("", label, ObjectCollection)
	return err
}

// ApplyAtoms writes the atoms of structure label: one vertex per atom at
// its first-frame position, species_index and show attributes and one
// shape key per frame.
func (s *Scene) ApplyAtoms(label string, species []string, frames [][]v3.Vec) error {
	if len(frames) == 0 {
		return fmt.Errorf("scene: %s: no frames", label)
	}
	if err := mesh.CheckLen("species", len(frames[0]), len(species)); err != nil {
		return fmt.Errorf("scene: %s: %w", label, err)
	}
	if err := s.ensureCollection(label); err != nil {
		return err
	}
	o, err := s.Ensure(label, label+AtomsSuffix, ObjectAtoms)
	if err != nil {
		return err
	}
	u := &update{
		positions: frames[0],
		frames:    frames,
		ints: map[string][]int64{
			"species_index": lo.Map(species, func(sp string, _ int) int64 { return bond.SpeciesHash(sp) }),
		},
		bools: map[string][]bool{"show": lo.Times(len(species), func(int) bool { return true })},
	}
	if err := u.apply(o.Mesh); err != nil {
		return fmt.Errorf("scene: %s: %w", o.Name, err)
	}
	return nil
}

// ApplyCavity writes one vertex per sphere with species_index naming the
// bucket, scale holding the radius and show set.
func (s *Scene) ApplyCavity(label string, res *cavity.Result, buckets *cavity.Buckets) error {
	if err := s.ensureCollection(label); err != nil {
		return err
	}
	o, err := s.Ensure(label, label+CavitySuffix, ObjectCavity)
	if err != nil {
		return err
	}
	if res == nil {
		res = &cavity.Result{}
	}
	if buckets == nil {
		buckets = &cavity.Buckets{}
	}
	all := buckets.All()
	n := len(res.Spheres)
	u := &update{
		positions: make([]v3.Vec, n),
		ints:      map[string][]int64{"species_index": make([]int64, n)},
		floats:    map[string][]float64{"scale": make([]float64, n)},
		bools:     map[string][]bool{"show": make([]bool, n)},
	}
	for i, sp := range res.Spheres {
		if sp.Bucket < 0 || sp.Bucket >= len(all) {
			return fmt.Errorf("scene: %s: sphere %d has unknown bucket %d", o.Name, i, sp.Bucket)
		}
		u.positions[i] = sp.Center
		u.ints["species_index"][i] = bond.SpeciesHash(all[sp.Bucket].Name)
		u.floats["scale"][i] = sp.Radius
		u.bools["show"][i] = true
	}
	if err := u.apply(o.Mesh); err != nil {
		return fmt.Errorf("scene: %s: %w", o.Name, err)
	}
	return nil
}

// ApplyBonds writes one vertex per bond at its center with the bond
// attributes, and a child offsets object holding the image offsets. Bond
// centers of every frame become shape keys.
func (s *Scene) ApplyBonds(label string, bonds []bond.Bond, geo []bond.FrameGeometry) error {
	if len(geo) == 0 {
		return fmt.Errorf("scene: %s: no frames", label)
	}
	for i, g := range geo {
		if err := mesh.CheckLen(fmt.Sprintf("bond centers of frame %d", i), len(bonds), len(g.Centers)); err != nil {
			return fmt.Errorf("scene: %s: %w", label, err)
		}
	}
	if err := s.ensureCollection(label); err != nil {
		return err
	}
	o, err := s.Ensure(label, label+BondsSuffix, ObjectBonds)
	if err != nil {
		return err
	}
	off, err := s.Ensure(o.Name, label+OffsetsSuffix, ObjectOffsets)
	if err != nil {
		return err
	}

	ints := func(f func(b bond.Bond) int64) []int64 {
		return lo.Map(bonds, func(b bond.Bond, _ int) int64 { return f(b) })
	}
	u := &update{
		positions: geo[0].Centers,
		frames:    lo.Map(geo, func(g bond.FrameGeometry, _ int) []v3.Vec { return g.Centers }),
		ints: map[string][]int64{
			"atoms_index1":   ints(func(b bond.Bond) int64 { return int64(b.I) }),
			"atoms_index2":   ints(func(b bond.Bond) int64 { return int64(b.J) }),
			"atoms_index3":   ints(func(b bond.Bond) int64 { return int64(b.Ref3) }),
			"atoms_index4":   ints(func(b bond.Bond) int64 { return int64(b.Ref4) }),
			"species_index1": ints(func(b bond.Bond) int64 { return b.Species1 }),
			"species_index2": ints(func(b bond.Bond) int64 { return b.Species2 }),
			"order":          ints(func(b bond.Bond) int64 { return int64(b.Order) }),
			"style":          ints(func(b bond.Bond) int64 { return int64(b.Style) }),
			"model_style":    ints(func(b bond.Bond) int64 { return int64(b.ModelStyle) }),
		},
		floats: map[string][]float64{
			"width": lo.Map(bonds, func(b bond.Bond, _ int) float64 { return b.Width }),
		},
		bools: map[string][]bool{"show": lo.Times(len(bonds), func(int) bool { return true })},
	}
	offsets := &update{positions: geo[0].Offsets}
	if err := u.check(); err != nil {
		return fmt.Errorf("scene: %s: %w", o.Name, err)
	}
	if err := offsets.check(); err != nil {
		return fmt.Errorf("scene: %s: %w", off.Name, err)
	}
	if err := u.apply(o.Mesh); err != nil {
		return fmt.Errorf("scene: %s: %w", o.Name, err)
	}
	if err := offsets.apply(off.Mesh); err != nil {
		return fmt.Errorf("scene: %s: %w", off.Name, err)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := lo.Keys(m)
	slices.Sort(keys)
	return keys
}

// ApplyInstancers replaces the instancer objects of a structure with one
// object per template.
func (s *Scene) ApplyInstancers(label string, templates []instancer.Template) error {
	if err := s.ensureCollection(label); err != nil {
		return err
	}
	coll := label + InstancerSuffix
	s.Remove(coll)
	if _, err := s.Add(label, coll, ObjectCollection, nil); err != nil {
		return err
	}
	for i := range templates {
		tpl := templates[i]
		o, err := s.Add(coll, tpl.Name, ObjectInstancer, nil)
		if err != nil {
			return err
		}
		o.Template = &tpl
	}
	return nil
}
