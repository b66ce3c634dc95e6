package cavity

import (
	"context"
	"math"
	"testing"

	"github.com/chazu/batoms/pkg/grid"
	"github.com/chazu/batoms/pkg/lattice"
	"github.com/chazu/batoms/pkg/spatial"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// voidLattice returns a simple cubic lattice (spacing 3) filling a 30 A
// cell with every atom within 3*sqrt(5) of the cell center removed. The
// largest empty sphere sits at (15, 15, 15) with radius 3*sqrt(6).
func voidLattice(t *testing.T) (*lattice.Cell, []v3.Vec) {
	t.Helper()
	cell, err := lattice.Cubic(30)
	require.NoError(t, err)

	var atoms []v3.Vec
	for i := 0; i < 10; i++ {
		for j := 0; j < 10; j++ {
			for k := 0; k < 10; k++ {
				a, b, c := i-5, j-5, k-5
				if a*a+b*b+c*c <= 5 {
					continue
				}
				atoms = append(atoms, v3.Vec{X: float64(3 * i), Y: float64(3 * j), Z: float64(3 * k)})
			}
		}
	}
	return cell, atoms
}

func quietDetector() *Detector {
	d := NewDetector()
	log, _ := test.NewNullLogger()
	d.Log = log
	return d
}

func TestExtractSingleCornerAtom(t *testing.T) {
	cell, err := lattice.Cubic(10)
	require.NoError(t, err)
	g, err := grid.Sample(cell, 5)
	require.NoError(t, err)
	require.Equal(t, [3]int{2, 2, 2}, g.Shape)

	atoms := spatial.New([]v3.Vec{{}})
	field, err := atoms.Nearest(context.Background(), g.Points, 1)
	require.NoError(t, err)

	spheres := Extract(g, field, 1)
	require.Len(t, spheres, 1)
	assert.Equal(t, v3.Vec{X: 5, Y: 5, Z: 5}, spheres[0].Center)
	// Half the diagonal of the 10 A cube.
	assert.InDelta(t, 5*math.Sqrt(3), spheres[0].Radius, 1e-9)
}

func TestExtractRadiiNonIncreasing(t *testing.T) {
	cell, err := lattice.Cubic(12)
	require.NoError(t, err)
	g, err := grid.Sample(cell, 1)
	require.NoError(t, err)

	atoms := spatial.New([]v3.Vec{{X: 1, Y: 1, Z: 1}, {X: 9, Y: 2, Z: 5}, {X: 4, Y: 10, Z: 8}})
	field, err := atoms.Nearest(context.Background(), g.Points, 2)
	require.NoError(t, err)

	spheres := Extract(g, field, 0.5)
	require.NotEmpty(t, spheres)
	for i := 1; i < len(spheres); i++ {
		assert.LessOrEqual(t, spheres[i].Radius, spheres[i-1].Radius)
	}
	for _, s := range spheres {
		assert.Greater(t, s.Radius, 0.5)
	}
	// No extracted center lies inside an earlier sphere.
	for i := range spheres {
		for j := 0; j < i; j++ {
			assert.Greater(t, spheres[i].Center.Sub(spheres[j].Center).Length(), spheres[j].Radius-1e-9)
		}
	}
}

func TestExtractStopsAtMinRadius(t *testing.T) {
	cell, err := lattice.Cubic(4)
	require.NoError(t, err)
	g, err := grid.Sample(cell, 1)
	require.NoError(t, err)
	atoms := spatial.New([]v3.Vec{{X: 2, Y: 2, Z: 2}})
	field, err := atoms.Nearest(context.Background(), g.Points, 1)
	require.NoError(t, err)

	assert.Empty(t, Extract(g, field, 10))
}

func TestFilterBoundary(t *testing.T) {
	cell, err := lattice.Cubic(10)
	require.NoError(t, err)
	spheres := []Sphere{
		{Center: v3.Vec{X: 5, Y: 5, Z: 5}, Radius: 4},
		{Center: v3.Vec{X: 5, Y: 5, Z: 5}, Radius: 5},
		{Center: v3.Vec{X: 1, Y: 5, Z: 5}, Radius: 2},
	}
	kept := FilterBoundary(cell, spheres)
	require.Len(t, kept, 2)
	assert.Equal(t, 4.0, kept[0].Radius)
	assert.Equal(t, 5.0, kept[1].Radius)
}

func TestDetectVoidLattice(t *testing.T) {
	cell, atoms := voidLattice(t)
	d := quietDetector()
	d.Workers = 4
	buckets := &Buckets{}

	res, err := d.Detect(context.Background(), atoms, cell, buckets)
	require.NoError(t, err)
	assert.Equal(t, [3]int{30, 30, 30}, res.Shape)
	require.Len(t, res.Spheres, 1)

	s := res.Spheres[0]
	assert.InDelta(t, 15, s.Center.X, 1e-9)
	assert.InDelta(t, 15, s.Center.Y, 1e-9)
	assert.InDelta(t, 15, s.Center.Z, 1e-9)
	assert.InDelta(t, 3*math.Sqrt(6)-2, s.Radius, 1e-9)

	require.Equal(t, 1, buckets.Len())
	b := buckets.All()[0]
	assert.Equal(t, 0, s.Bucket)
	assert.Equal(t, 5.0, b.Min)
	assert.Equal(t, 6.0, b.Max)
	assert.Equal(t, Palette[0], b.Color)
}

func TestDetectBoundaryInvariant(t *testing.T) {
	cell, atoms := voidLattice(t)
	// Drop a corner region so that large boundary-touching voids appear.
	var sparse []v3.Vec
	for _, a := range atoms {
		if a.X < 9 && a.Y < 9 {
			continue
		}
		sparse = append(sparse, a)
	}
	d := quietDetector()
	d.MinRadius = 2
	res, err := d.Detect(context.Background(), sparse, cell, nil)
	require.NoError(t, err)
	for _, s := range res.Spheres {
		assert.LessOrEqual(t, s.Radius, cell.MinFaceDistance(s.Center))
	}
}

func TestDetectSpheresDoNotOverlap(t *testing.T) {
	cell, err := lattice.Cubic(30)
	require.NoError(t, err)
	// Two voids 12 A apart in a spacing 3 lattice.
	voids := []v3.Vec{{X: 9, Y: 15, Z: 15}, {X: 21, Y: 15, Z: 15}}
	var atoms []v3.Vec
	for i := 0; i < 10; i++ {
		for j := 0; j < 10; j++ {
			for k := 0; k < 10; k++ {
				p := v3.Vec{X: float64(3 * i), Y: float64(3 * j), Z: float64(3 * k)}
				if p.Sub(voids[0]).Length() <= 3*math.Sqrt2 || p.Sub(voids[1]).Length() <= 3*math.Sqrt2 {
					continue
				}
				atoms = append(atoms, p)
			}
		}
	}

	d := quietDetector()
	d.MinRadius = 3
	res, err := d.Detect(context.Background(), atoms, cell, nil)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(res.Spheres), 2)

	// Refinement moves each center by at most half a sample diagonal.
	tol := d.Resolution / 2 * math.Sqrt(3)
	for i, a := range res.Spheres {
		for _, b := range res.Spheres[i+1:] {
			dist := a.Center.Sub(b.Center).Length()
			assert.Greater(t, dist, math.Min(a.Radius, b.Radius)-2*tol,
				"spheres at %v and %v overlap", a.Center, b.Center)
		}
	}
}

func TestDetectIsDeterministic(t *testing.T) {
	cell, atoms := voidLattice(t)
	d := quietDetector()
	buckets := &Buckets{}

	first, err := d.Detect(context.Background(), atoms, cell, buckets)
	require.NoError(t, err)
	n := buckets.Len()
	second, err := d.Detect(context.Background(), atoms, cell, buckets)
	require.NoError(t, err)

	assert.Equal(t, first.Spheres, second.Spheres)
	assert.Equal(t, n, buckets.Len(), "second pass must reuse buckets")
}

func TestDetectNoAtoms(t *testing.T) {
	cell, err := lattice.Cubic(10)
	require.NoError(t, err)
	log, hook := test.NewNullLogger()
	d := NewDetector()
	d.Log = log

	res, err := d.Detect(context.Background(), nil, cell, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Spheres)
	assert.Len(t, res.Warnings, 1)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestDetectBadResolution(t *testing.T) {
	cell, err := lattice.Cubic(10)
	require.NoError(t, err)
	d := quietDetector()
	d.Resolution = 0
	_, err = d.Detect(context.Background(), []v3.Vec{{}}, cell, nil)
	assert.ErrorIs(t, err, grid.ErrResolution)
}
