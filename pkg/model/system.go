// Package model defines the plain data a structure is described by: its
// atoms and animation frames, unit cell, neighbor cutoffs, bond style
// rules and cavity parameters. Scene scripts produce a System; the
// pipeline consumes it.
package model

import (
	"errors"
	"fmt"

	"github.com/chazu/batoms/pkg/bond"
	"github.com/chazu/batoms/pkg/cavity"
	"github.com/chazu/batoms/pkg/lattice"
	"github.com/chazu/batoms/pkg/mesh"
	"github.com/chazu/batoms/pkg/neighbor"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// DefaultLabel names a system that never set one.
const DefaultLabel = "batoms"

// ErrNoCell is returned when a system without a cell is used.
var ErrNoCell = errors.New("model: no cell")

// CavityParams configures cavity detection for a system.
type CavityParams struct {
	Enabled    bool            `json:"enabled" yaml:"enabled"`
	Resolution float64         `json:"resolution" yaml:"resolution"`
	MinRadius  float64         `json:"min_radius" yaml:"min_radius"`
	Buckets    []cavity.Bucket `json:"buckets,omitempty" yaml:"buckets,omitempty"`
}

// CellSpec is the serializable form of a unit cell.
type CellSpec struct {
	Matrix [3][3]float64 `json:"matrix" yaml:"matrix"`
	PBC    [3]bool       `json:"pbc" yaml:"pbc"`
}

// System is a structure and its drawing settings.
type System struct {
	Label       string     `json:"label" yaml:"label"`
	Species     []string   `json:"species" yaml:"species"`
	ModelStyles []int      `json:"model_styles" yaml:"model_styles"`
	Frames      [][]v3.Vec `json:"frames" yaml:"frames"`
	Cell        *CellSpec  `json:"cell,omitempty" yaml:"cell,omitempty"`

	Cutoffs   []neighbor.Cutoff `json:"cutoffs,omitempty" yaml:"cutoffs,omitempty"`
	BondRules []bond.Rule       `json:"bond_rules,omitempty" yaml:"bond_rules,omitempty"`
	Cavity    CavityParams      `json:"cavity" yaml:"cavity"`
}

// New returns an empty system with the default label and cavity
// parameters.
func New() *System {
	return &System{
		Label: DefaultLabel,
		Cavity: CavityParams{
			Resolution: cavity.DefaultResolution,
			MinRadius:  cavity.DefaultMinRadius,
		},
	}
}

// NumAtoms returns the number of atoms.
func (s *System) NumAtoms() int {
	return len(s.Species)
}

// AddAtom appends an atom at pos to the first frame.
func (s *System) AddAtom(species string, pos v3.Vec, modelStyle int) {
	if len(s.Frames) == 0 {
		s.Frames = [][]v3.Vec{nil}
	}
	s.Species = append(s.Species, species)
	s.ModelStyles = append(s.ModelStyles, modelStyle)
	s.Frames[0] = append(s.Frames[0], pos)
}

// AddFrame appends an animation frame. It must have one position per atom.
func (s *System) AddFrame(pos []v3.Vec) error {
	if err := mesh.CheckLen("frame", s.NumAtoms(), len(pos)); err != nil {
		return fmt.Errorf("model: frame %d: %w", len(s.Frames), err)
	}
	s.Frames = append(s.Frames, append([]v3.Vec(nil), pos...))
	return nil
}

// SetCell stores the cell after checking it is valid.
func (s *System) SetCell(a, b, c v3.Vec, pbc [3]bool) error {
	cell, err := lattice.New(a, b, c, pbc)
	if err != nil {
		return err
	}
	s.Cell = &CellSpec{Matrix: cell.Matrix(), PBC: pbc}
	return nil
}

// LatticeCell builds the lattice cell.
func (s *System) LatticeCell() (*lattice.Cell, error) {
	if s.Cell == nil {
		return nil, ErrNoCell
	}
	return lattice.FromMatrix(s.Cell.Matrix, s.Cell.PBC)
}

// BucketSet returns a fresh bucket collection seeded from the cavity
// parameters.
func (s *System) BucketSet() *cavity.Buckets {
	return cavity.NewBuckets(s.Cavity.Buckets...)
}

// Validate checks that every frame has one position per atom and that the
// cell, when present, is valid.
func (s *System) Validate() error {
	if err := mesh.CheckLen("model_styles", s.NumAtoms(), len(s.ModelStyles)); err != nil {
		return fmt.Errorf("model: %w", err)
	}
	for i, f := range s.Frames {
		if err := mesh.CheckLen(fmt.Sprintf("frame %d", i), s.NumAtoms(), len(f)); err != nil {
			return fmt.Errorf("model: %w", err)
		}
	}
	if s.Cell != nil {
		if _, err := s.LatticeCell(); err != nil {
			return fmt.Errorf("model: %w", err)
		}
	}
	return nil
}
