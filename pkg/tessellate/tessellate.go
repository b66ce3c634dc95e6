// Package tessellate turns the instancer templates of a scene into triangle
// meshes using a geometry kernel. One mesh is produced per instancer
// object.
package tessellate

import (
	"fmt"

	"github.com/chazu/batoms/pkg/kernel"
	"github.com/chazu/batoms/pkg/scene"
	"golang.org/x/sync/errgroup"
)

// Tessellate returns one mesh per instancer object of s, named after the
// object, in depth-first order from the scene roots. Up to workers
// templates are meshed at once; the order does not depend on workers.
// The scene is not modified.
func Tessellate(s *scene.Scene, k kernel.Kernel, workers int) ([]*kernel.Mesh, error) {
	if s == nil {
		return nil, nil
	}

	var instancers []*scene.Object
	for _, rootID := range s.Roots {
		root := s.Get(rootID)
		if root == nil {
			continue
		}
		if err := collect(s, root, &instancers); err != nil {
			return nil, fmt.Errorf("tessellate: root %s: %w", rootID, err)
		}
	}
	if len(instancers) == 0 {
		return nil, nil
	}

	meshes := make([]*kernel.Mesh, len(instancers))
	var g errgroup.Group
	g.SetLimit(max(1, workers))
	for i, o := range instancers {
		g.Go(func() error {
			m, err := k.ToMesh(o.Template.Solid)
			if err != nil {
				return fmt.Errorf("tessellate: %s: %w", o.ID, err)
			}
			m.Name = o.Name
			meshes[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return meshes, nil
}

// collect appends the instancer objects below o in depth-first order.
func collect(s *scene.Scene, o *scene.Object, out *[]*scene.Object) error {
	switch o.Kind {
	case scene.ObjectInstancer:
		if o.Template == nil || o.Template.Solid == nil {
			return fmt.Errorf("instancer %s has no template", o.ID)
		}
		*out = append(*out, o)
		return nil

	case scene.ObjectCollection, scene.ObjectBonds:
		for _, child := range s.Children(o) {
			if err := collect(s, child, out); err != nil {
				return err
			}
		}
		return nil

	case scene.ObjectAtoms, scene.ObjectCell, scene.ObjectOffsets, scene.ObjectCavity:
		// Point meshes are drawn by instancing, nothing to tessellate.
		return nil

	default:
		return fmt.Errorf("unknown object kind: %v", o.Kind)
	}
}
