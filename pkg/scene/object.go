package scene

import (
	"github.com/chazu/batoms/pkg/instancer"
	"github.com/chazu/batoms/pkg/mesh"
)

// ObjectID is the slash-separated path of an object from its root.
type ObjectID string

// ObjectKind enumerates the objects a structure is drawn with.
type ObjectKind int

const (
	ObjectCollection ObjectKind = iota // grouping of the objects below
	ObjectAtoms                        // one vertex per atom
	ObjectCell                         // unit cell corners
	ObjectBonds                        // one vertex per bond center
	ObjectOffsets                      // bond image offsets
	ObjectCavity                       // one vertex per cavity sphere
	ObjectInstancer                    // template geometry for a vertex class
)

func (k ObjectKind) String() string {
	switch k {
	case ObjectCollection:
		return "collection"
	case ObjectAtoms:
		return "atoms"
	case ObjectCell:
		return "cell"
	case ObjectBonds:
		return "bonds"
	case ObjectOffsets:
		return "offsets"
	case ObjectCavity:
		return "cavity"
	case ObjectInstancer:
		return "instancer"
	default:
		return "unknown"
	}
}

// Object is a node of the scene hierarchy.
type Object struct {
	ID       ObjectID        `json:"id"`
	Kind     ObjectKind      `json:"kind"`
	Name     string          `json:"name"`
	Parent   ObjectID        `json:"parent,omitempty"`
	Children []ObjectID      `json:"children,omitempty"`
	Mesh     *mesh.PointMesh `json:"-"`

	// Template is set on instancer objects.
	Template *instancer.Template `json:"-"`
}
