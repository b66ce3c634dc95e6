// Package cavity finds empty spherical voids in a periodic structure.
//
// The detector samples the cell on a regular grid, computes the distance
// from every grid point to its nearest atom, then greedily extracts the
// largest empty sphere, excludes the grid points it covers and repeats
// until the largest remaining distance drops to the minimum radius.
// Spheres that would cross the cell boundary are discarded, the rest are
// re-centered on a finer local grid and classified into radius buckets.
package cavity

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/chazu/batoms/pkg/grid"
	"github.com/chazu/batoms/pkg/lattice"
	"github.com/chazu/batoms/pkg/spatial"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultResolution is the default grid spacing.
	DefaultResolution = 1.0
	// DefaultMinRadius is the default extraction stop threshold.
	DefaultMinRadius = 4.0

	// refineSteps is the half-width, in samples, of the refinement cube.
	refineSteps = 5
	// refineMargin is subtracted from the refined radius.
	refineMargin = 2.0
	// minRefinedRadius is the floor applied after the margin.
	minRefinedRadius = 1.0
)

// Sphere is an extracted cavity.
type Sphere struct {
	Center v3.Vec  `json:"center" yaml:"center"`
	Radius float64 `json:"radius" yaml:"radius"`
	Bucket int     `json:"bucket" yaml:"bucket"`
}

// Result is the output of a detection pass.
type Result struct {
	Spheres  []Sphere `json:"spheres" yaml:"spheres"`
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	// Shape is the sampling grid shape.
	Shape [3]int `json:"shape" yaml:"shape"`

	// Extracted counts spheres before boundary filtering.
	Extracted int `json:"extracted" yaml:"extracted"`
}

// Detector holds the detection parameters. The zero value is not usable;
// start from NewDetector.
type Detector struct {
	Resolution float64
	MinRadius  float64

	// Workers bounds the parallelism of nearest-atom queries.
	Workers int
	Log     logrus.FieldLogger
}

// NewDetector returns a Detector with the default parameters.
func NewDetector() *Detector {
	return &Detector{
		Resolution: DefaultResolution,
		MinRadius:  DefaultMinRadius,
		Workers:    1,
		Log:        logrus.StandardLogger(),
	}
}

func (d *Detector) log() logrus.FieldLogger {
	if d.Log == nil {
		return logrus.StandardLogger()
	}
	return d.Log
}

// Detect runs the full pipeline over the atoms at positions. New buckets
// are appended to buckets, which may be nil for a throwaway collection.
func (d *Detector) Detect(ctx context.Context, positions []v3.Vec, cell *lattice.Cell, buckets *Buckets) (*Result, error) {
	start := time.Now()
	if buckets == nil {
		buckets = &Buckets{}
	}

	g, err := grid.Sample(cell, d.Resolution)
	if err != nil {
		return nil, fmt.Errorf("cavity: %w", err)
	}
	res := &Result{Spheres: []Sphere{}, Shape: g.Shape}

	if len(positions) == 0 {
		msg := "cavity: no atoms, skipping detection"
		d.log().Warn(msg)
		res.Warnings = append(res.Warnings, msg)
		return res, nil
	}

	atoms := spatial.New(positions)
	field, err := atoms.Nearest(ctx, g.Points, d.Workers)
	if err != nil {
		return nil, fmt.Errorf("cavity: distance field: %w", err)
	}

	spheres := Extract(g, field, d.MinRadius)
	res.Extracted = len(spheres)
	spheres = FilterBoundary(cell, spheres)

	spheres, err = d.Refine(ctx, atoms, cell, spheres)
	if err != nil {
		return nil, err
	}
	for i := range spheres {
		spheres[i].Bucket, _ = buckets.Classify(spheres[i].Radius)
	}
	res.Spheres = spheres

	d.log().WithFields(logrus.Fields{
		"atoms":     len(positions),
		"grid":      g.Len(),
		"extracted": res.Extracted,
		"spheres":   len(spheres),
		"elapsed":   time.Since(start),
	}).Debug("cavity: detection done")
	return res, nil
}

// Extract greedily pulls spheres out of the distance field. Each step
// takes the remaining grid point with the largest distance (lowest index
// on ties), stops once that distance is <= minRadius, and otherwise
// removes the point and every remaining grid point within the distance
// of it. Radii come out in non-increasing order.
func Extract(g *grid.Grid, field []spatial.Neighbor, minRadius float64) []Sphere {
	n := len(field)
	if n == 0 || g.Len() != n {
		return nil
	}
	alive := make([]bool, n)
	for i := range alive {
		alive[i] = true
	}
	remaining := n
	mesh := spatial.New(g.Points)

	var spheres []Sphere
	for remaining > 0 {
		imax, dmax := -1, math.Inf(-1)
		for i, nb := range field {
			if alive[i] && nb.Distance > dmax {
				imax, dmax = i, nb.Distance
			}
		}
		if imax < 0 || !(dmax > minRadius) {
			break
		}
		center := g.Points[imax]
		spheres = append(spheres, Sphere{Center: center, Radius: dmax})

		alive[imax] = false
		remaining--
		for _, j := range mesh.Within(center, dmax) {
			if alive[j] {
				alive[j] = false
				remaining--
			}
		}
	}
	return spheres
}

// FilterBoundary keeps spheres whose radius does not exceed the distance
// from their center to the nearest cell face.
func FilterBoundary(cell *lattice.Cell, spheres []Sphere) []Sphere {
	kept := make([]Sphere, 0, len(spheres))
	for _, s := range spheres {
		if s.Radius <= cell.MinFaceDistance(s.Center) {
			kept = append(kept, s)
		}
	}
	return kept
}

// Refine moves every sphere to the point of largest nearest-atom
// distance on a local cube of half-width Resolution/2 and sets the radius
// to max(1, distance - 2). Spheres that no longer clear the cell faces
// after the move are dropped.
func (d *Detector) Refine(ctx context.Context, atoms *spatial.Index, cell *lattice.Cell, spheres []Sphere) ([]Sphere, error) {
	out := make([]Sphere, 0, len(spheres))
	for _, s := range spheres {
		local := grid.Cube(s.Center, d.Resolution, refineSteps)
		field, err := atoms.Nearest(ctx, local, d.Workers)
		if err != nil {
			return nil, fmt.Errorf("cavity: refine: %w", err)
		}
		if len(field) == 0 {
			continue
		}
		imax := 0
		for i, nb := range field {
			if nb.Distance > field[imax].Distance {
				imax = i
			}
		}
		refined := Sphere{
			Center: local[imax],
			Radius: math.Max(minRefinedRadius, field[imax].Distance-refineMargin),
		}
		if refined.Radius > cell.MinFaceDistance(refined.Center) {
			d.log().WithField("center", refined.Center).Debug("cavity: refined sphere crosses boundary, dropped")
			continue
		}
		out = append(out, refined)
	}
	return out, nil
}
