// Package scene models the host scene a structure is drawn into: a tree
// of named objects, each optionally carrying a point mesh. Lookups are
// explicit and report absence instead of failing.
package scene

import (
	"fmt"
	"slices"

	"github.com/chazu/batoms/pkg/mesh"
	"github.com/samber/lo"
)

// Scene is the object hierarchy.
type Scene struct {
	Objects   map[ObjectID]*Object `json:"objects"`
	Roots     []ObjectID           `json:"roots"`
	NameIndex map[string]ObjectID  `json:"name_index"`
	// Version increments on every structural change.
	Version uint64 `json:"version"`
}

// New creates an empty scene.
func New() *Scene {
	return &Scene{
		Objects:   make(map[ObjectID]*Object),
		NameIndex: make(map[string]ObjectID),
	}
}

// Add creates an object named name under parent, or as a root when parent
// is empty. Names are unique across the scene.
func (s *Scene) Add(parent, name string, kind ObjectKind, m *mesh.PointMesh) (*Object, error) {
	if name == "" {
		return nil, fmt.Errorf("scene: empty object name")
	}
	if _, ok := s.NameIndex[name]; ok {
		return nil, fmt.Errorf("scene: object %q already exists", name)
	}
	o := &Object{ID: ObjectID(name), Kind: kind, Name: name, Mesh: m}
	if parent != "" {
		p, ok := s.Find(parent)
		if !ok {
			return nil, fmt.Errorf("scene: no parent %q for %q", parent, name)
		}
		o.ID = p.ID + "/" + ObjectID(name)
		o.Parent = p.ID
		p.Children = append(p.Children, o.ID)
	} else {
		s.Roots = append(s.Roots, o.ID)
	}
	s.Objects[o.ID] = o
	s.NameIndex[name] = o.ID
	s.Version++
	return o, nil
}

// Ensure returns the named object, creating it under parent if needed.
func (s *Scene) Ensure(parent, name string, kind ObjectKind) (*Object, error) {
	if o, ok := s.Find(name); ok {
		if o.Kind != kind {
			return nil, fmt.Errorf("scene: object %q is %s, not %s", name, o.Kind, kind)
		}
		if o.Mesh == nil {
			o.Mesh = mesh.NewPointMesh(name, nil)
		}
		return o, nil
	}
	return s.Add(parent, name, kind, mesh.NewPointMesh(name, nil))
}

// Find returns the object with the given name.
func (s *Scene) Find(name string) (*Object, bool) {
	id, ok := s.NameIndex[name]
	if !ok {
		return nil, false
	}
	o, ok := s.Objects[id]
	return o, ok
}

// Get returns the object with the given ID, or nil.
func (s *Scene) Get(id ObjectID) *Object {
	return s.Objects[id]
}

// Children returns the child objects of o in insertion order.
func (s *Scene) Children(o *Object) []*Object {
	return lo.FilterMap(o.Children, func(id ObjectID, _ int) (*Object, bool) {
		c, ok := s.Objects[id]
		return c, ok
	})
}

// OfKind returns every object of the given kind, ordered by ID.
func (s *Scene) OfKind(kind ObjectKind) []*Object {
	ids := lo.Keys(s.Objects)
	slices.Sort(ids)
	return lo.FilterMap(ids, func(id ObjectID, _ int) (*Object, bool) {
		o := s.Objects[id]
		return o, o.Kind == kind
	})
}

// Remove deletes the named object and everything below it.
func (s *Scene) Remove(name string) bool {
	o, ok := s.Find(name)
	if !ok {
		return false
	}
	for _, c := range s.Children(o) {
		s.Remove(c.Name)
	}
	if o.Parent != "" {
		if p := s.Objects[o.Parent]; p != nil {
			p.Children = lo.Without(p.Children, o.ID)
		}
	} else {
		s.Roots = lo.Without(s.Roots, o.ID)
	}
	delete(s.Objects, o.ID)
	delete(s.NameIndex, o.Name)
	s.Version++
	return true
}

// Len returns the number of objects.
func (s *Scene) Len() int {
	return len(s.Objects)
}
