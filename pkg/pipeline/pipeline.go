// Package pipeline runs the per-structure computation: cavity detection
// on the first frame, the neighbor list over every frame, bond
// resolution and placement, and the scatter of all results into the
// host scene. Empty inputs produce warnings, not errors.
package pipeline

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/chazu/batoms/pkg/bond"
	"github.com/chazu/batoms/pkg/cavity"
	"github.com/chazu/batoms/pkg/instancer"
	"github.com/chazu/batoms/pkg/kernel"
	"github.com/chazu/batoms/pkg/lattice"
	"github.com/chazu/batoms/pkg/model"
	"github.com/chazu/batoms/pkg/neighbor"
	"github.com/chazu/batoms/pkg/scene"
	"github.com/chazu/batoms/pkg/tessellate"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/sirupsen/logrus"
)

const (
	// boxMargin pads the bounding box used when a structure has no cell.
	boxMargin = 1.0
	// cellEdgeFraction sizes cell edge rods relative to the cell diagonal.
	// The wireframe is sampled over the whole cell, so a cubic cell's edge
	// diameter spans about five samples at the default 64 mesh cells.
	cellEdgeFraction = 1.0 / 40
)

// Warning is a non-fatal condition met while running a stage.
type Warning struct {
	Stage   string `json:"stage" yaml:"stage"`
	Message string `json:"message" yaml:"message"`
}

func (w Warning) String() string {
	return w.Stage + ": " + w.Message
}

// Result is everything computed for one structure.
type Result struct {
	Label string `json:"label" yaml:"label"`

	Cavity  *cavity.Result  `json:"cavity,omitempty" yaml:"cavity,omitempty"`
	Buckets []cavity.Bucket `json:"buckets,omitempty" yaml:"buckets,omitempty"`

	Bonds    []bond.Bond          `json:"bonds" yaml:"bonds"`
	Geometry []bond.FrameGeometry `json:"-" yaml:"-"`

	Warnings []Warning `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Pipeline holds the state shared across runs: the host scene and one
// bucket collection per structure label, so repeated runs classify
// cavities the same way.
type Pipeline struct {
	Detector *cavity.Detector
	Scene    *scene.Scene
	Log      logrus.FieldLogger

	buckets map[string]*cavity.Buckets
}

// New returns a Pipeline with a default detector and an empty scene.
func New() *Pipeline {
	return &Pipeline{
		Detector: cavity.NewDetector(),
		Scene:    scene.New(),
		Log:      logrus.StandardLogger(),
		buckets:  make(map[string]*cavity.Buckets),
	}
}

func (p *Pipeline) log() logrus.FieldLogger {
	if p.Log == nil {
		return logrus.StandardLogger()
	}
	return p.Log
}

func (p *Pipeline) warn(res *Result, stage, msg string) {
	p.log().WithFields(logrus.Fields{"label": res.Label, "stage": stage}).Warn(msg)
	res.Warnings = append(res.Warnings, Warning{Stage: stage, Message: msg})
}

// Buckets returns the bucket collection for label, creating it from seed
// on first use.
func (p *Pipeline) Buckets(label string, seed []cavity.Bucket) *cavity.Buckets {
	if p.buckets == nil {
		p.buckets = make(map[string]*cavity.Buckets)
	}
	b, ok := p.buckets[label]
	if !ok {
		b = cavity.NewBuckets(seed...)
		p.buckets[label] = b
	}
	return b
}

// Run computes cavities (when enabled) and bonds for sys and writes them
// into the scene.
func (p *Pipeline) Run(ctx context.Context, sys *model.System) (*Result, error) {
	res, cell, err := p.prepare(sys)
	if err != nil {
		return nil, err
	}
	if sys.Cavity.Enabled {
		if err := p.cavity(ctx, sys, cell, res); err != nil {
			return nil, err
		}
	}
	if err := p.bonds(sys, cell, res); err != nil {
		return nil, err
	}
	if err := p.apply(sys, res); err != nil {
		return nil, err
	}
	return res, nil
}

// Cavity runs only cavity detection, regardless of sys.Cavity.Enabled.
func (p *Pipeline) Cavity(ctx context.Context, sys *model.System) (*Result, error) {
	res, cell, err := p.prepare(sys)
	if err != nil {
		return nil, err
	}
	if err := p.cavity(ctx, sys, cell, res); err != nil {
		return nil, err
	}
	return res, nil
}

// Bonds runs only the neighbor list and bond resolution.
func (p *Pipeline) Bonds(sys *model.System) (*Result, error) {
	res, cell, err := p.prepare(sys)
	if err != nil {
		return nil, err
	}
	if err := p.bonds(sys, cell, res); err != nil {
		return nil, err
	}
	return res, nil
}

// Instancers builds the template solids for a structure that has been
// run, installs them in the scene and tessellates them with k.
func (p *Pipeline) Instancers(sys *model.System, res *Result, k kernel.Kernel) ([]*kernel.Mesh, error) {
	start := time.Now()
	var templates []instancer.Template
	if res.Cavity != nil {
		tpl, err := instancer.Cavity(k, sys.Label, p.Buckets(sys.Label, sys.Cavity.Buckets))
		if err != nil {
			return nil, err
		}
		templates = append(templates, tpl...)
	}
	tpl, err := instancer.Bonds(k, sys.Label, sys.BondRules)
	if err != nil {
		return nil, err
	}
	templates = append(templates, tpl...)
	if sys.Cell != nil {
		cell, err := sys.LatticeCell()
		if err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
		radius := max(instancer.BondRadius/2, cell.Shift([3]int{1, 1, 1}).Length()*cellEdgeFraction)
		t, err := instancer.Cell(k, sys.Label, cell, radius)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}

	if err := p.Scene.ApplyInstancers(sys.Label, templates); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	workers := 1
	if p.Detector != nil {
		workers = p.Detector.Workers
	}
	meshes, err := tessellate.Tessellate(p.Scene, k, workers)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	elapsed := observe(StageInstancers, start)
	p.log().WithFields(logrus.Fields{
		"label":     sys.Label,
		"templates": len(templates),
		"meshes":    len(meshes),
		"elapsed":   elapsed,
	}).Debug("pipeline: instancers built")
	return meshes, nil
}

func (p *Pipeline) prepare(sys *model.System) (*Result, *lattice.Cell, error) {
	if sys == nil {
		return nil, nil, fmt.Errorf("pipeline: nil system")
	}
	if err := sys.Validate(); err != nil {
		return nil, nil, fmt.Errorf("pipeline: %w", err)
	}
	res := &Result{Label: sys.Label, Bonds: []bond.Bond{}}
	if sys.Cell != nil {
		cell, err := sys.LatticeCell()
		if err != nil {
			return nil, nil, fmt.Errorf("pipeline: %w", err)
		}
		return res, cell, nil
	}
	cell, err := boundingCell(sys.Frames)
	if err != nil {
		return nil, nil, fmt.Errorf("pipeline: %w", err)
	}
	p.warn(res, StageCell, "no cell, using a non-periodic bounding box")
	return res, cell, nil
}

// boundingCell returns a non-periodic orthorhombic cell at the origin
// large enough to hold every position of every frame plus a margin.
func boundingCell(frames [][]v3.Vec) (*lattice.Cell, error) {
	var hi v3.Vec
	for _, f := range frames {
		for _, q := range f {
			hi.X = math.Max(hi.X, math.Abs(q.X))
			hi.Y = math.Max(hi.Y, math.Abs(q.Y))
			hi.Z = math.Max(hi.Z, math.Abs(q.Z))
		}
	}
	return lattice.New(
		v3.Vec{X: hi.X + boxMargin},
		v3.Vec{Y: hi.Y + boxMargin},
		v3.Vec{Z: hi.Z + boxMargin},
		[3]bool{},
	)
}

func (p *Pipeline) cavity(ctx context.Context, sys *model.System, cell *lattice.Cell, res *Result) error {
	start := time.Now()
	if sys.Cell == nil {
		p.warn(res, StageCavity, "no cell, skipping cavity detection")
		return nil
	}
	d := *cavity.NewDetector()
	if p.Detector != nil {
		d = *p.Detector
	}
	d.Resolution = sys.Cavity.Resolution
	d.MinRadius = sys.Cavity.MinRadius
	d.Log = p.log()

	var positions []v3.Vec
	if len(sys.Frames) > 0 {
		positions = sys.Frames[0]
	}
	buckets := p.Buckets(sys.Label, sys.Cavity.Buckets)
	cr, err := d.Detect(ctx, positions, cell, buckets)
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	for _, w := range cr.Warnings {
		res.Warnings = append(res.Warnings, Warning{Stage: StageCavity, Message: w})
	}
	if len(cr.Spheres) == 0 && len(positions) > 0 {
		p.warn(res, StageCavity, "no cavity larger than the minimum radius")
	}
	res.Cavity = cr
	res.Buckets = buckets.All()
	cavitySpheres.Observe(float64(len(cr.Spheres)))
	observe(StageCavity, start)
	return nil
}

func (p *Pipeline) bonds(sys *model.System, cell *lattice.Cell, res *Result) error {
	start := time.Now()
	if len(sys.Cutoffs) == 0 {
		p.warn(res, StageNeighbors, "no cutoffs, no bonds")
	}
	pairs, err := neighbor.BuildFrames(sys.Species, sys.Frames, cell, sys.Cutoffs)
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	observe(StageNeighbors, start)

	start = time.Now()
	bonds, err := bond.Resolve(sys.Species, sys.ModelStyles, pairs, sys.BondRules)
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	geo, err := bond.Geometry(sys.Frames, cell, bonds)
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	res.Bonds = bonds
	res.Geometry = geo
	elapsed := observe(StageBonds, start)

	p.log().WithFields(logrus.Fields{
		"label":   sys.Label,
		"atoms":   sys.NumAtoms(),
		"frames":  len(sys.Frames),
		"bonds":   len(bonds),
		"elapsed": elapsed,
	}).Debug("pipeline: bonds resolved")
	return nil
}

// apply writes the atoms, cavities and bonds of a run into the scene.
func (p *Pipeline) apply(sys *model.System, res *Result) error {
	start := time.Now()
	if sys.NumAtoms() == 0 {
		p.warn(res, StageScene, "no atoms")
		observe(StageScene, start)
		return nil
	}
	if err := p.Scene.ApplyAtoms(sys.Label, sys.Species, sys.Frames); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	if res.Cavity != nil {
		if err := p.Scene.ApplyCavity(sys.Label, res.Cavity, p.Buckets(sys.Label, sys.Cavity.Buckets)); err != nil {
			return fmt.Errorf("pipeline: %w", err)
		}
	}
	if err := p.Scene.ApplyBonds(sys.Label, res.Bonds, res.Geometry); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	observe(StageScene, start)
	return nil
}
