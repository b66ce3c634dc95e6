package bond

import (
	"math"
	"testing"

	"github.com/chazu/batoms/pkg/lattice"
	"github.com/chazu/batoms/pkg/mesh"
	"github.com/chazu/batoms/pkg/neighbor"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveFirstRuleWins(t *testing.T) {
	species := []string{"C", "C", "O"}
	pairs := []neighbor.Pair{{I: 0, J: 1}, {I: 1, J: 2}, {I: 2, J: 1}}
	rules := []Rule{
		{Species1: "C", Species2: "C", Order: 2, Style: StyleBicolor, Width: 0.8},
		{Species1: "C", Species2: "C", Order: 3, Style: StyleDashed, Width: 0.5},
		{Species1: "C", Species2: "O", Order: 1, Style: StyleSpring, Width: 1.2},
	}
	bonds, err := Resolve(species, nil, pairs, rules)
	require.NoError(t, err)
	require.Len(t, bonds, 3)

	assert.Equal(t, 2, bonds[0].Order)
	assert.Equal(t, StyleBicolor, bonds[0].Style)
	assert.Equal(t, 0, bonds[0].Rule)

	assert.Equal(t, StyleSpring, bonds[1].Style)
	assert.Equal(t, 2, bonds[1].Rule)

	// Rules are directional: (O, C) has no rule.
	assert.Equal(t, -1, bonds[2].Rule)
	assert.Equal(t, DefaultOrder, bonds[2].Order)
	assert.Equal(t, DefaultWidth, bonds[2].Width)
	assert.Equal(t, SpeciesHash("O"), bonds[2].Species1)
	assert.Equal(t, SpeciesHash("C"), bonds[2].Species2)
}

func TestResolvePlaneFromSharingBond(t *testing.T) {
	species := []string{"H", "C", "C", "O"}
	pairs := []neighbor.Pair{{I: 1, J: 2}, {I: 1, J: 3}}
	rules := []Rule{{Species1: "C", Species2: "C", Order: 2, Width: 1}}

	bonds, err := Resolve(species, nil, pairs, rules)
	require.NoError(t, err)

	assert.Equal(t, 2, bonds[0].Order)
	assert.Equal(t, 1, bonds[0].Ref3)
	assert.Equal(t, 3, bonds[0].Ref4)
	assert.Equal(t, 1, bonds[0].Plane)

	// Single bonds point at the previous candidate, wrapping.
	assert.Equal(t, 1, bonds[1].Ref3)
	assert.Equal(t, 2, bonds[1].Ref4)
	assert.Equal(t, -1, bonds[1].Plane)
}

func TestResolvePlaneFallback(t *testing.T) {
	species := []string{"H", "H", "C", "C"}
	bonds, err := Resolve(species, nil, []neighbor.Pair{{I: 2, J: 3}},
		[]Rule{{Species1: "C", Species2: "C", Order: 3, Width: 1}})
	require.NoError(t, err)
	assert.Equal(t, 0, bonds[0].Ref3)
	assert.Equal(t, 1, bonds[0].Ref4)
	assert.Equal(t, -1, bonds[0].Plane)
}

func TestResolvePlaneSkipsSameAtomPair(t *testing.T) {
	species := []string{"H", "C", "C", "C"}
	pairs := []neighbor.Pair{
		{I: 1, J: 2},
		{I: 2, J: 1, Shift: [3]int{0, 0, 1}},
		{I: 2, J: 3},
	}
	bonds, err := Resolve(species, nil, pairs, []Rule{{Species1: "C", Species2: "C", Order: 2, Width: 1}})
	require.NoError(t, err)
	assert.Equal(t, 2, bonds[0].Plane)
	assert.Equal(t, 2, bonds[0].Ref3)
	assert.Equal(t, 3, bonds[0].Ref4)
}

func TestResolveModelStyle(t *testing.T) {
	species := []string{"C", "O"}
	bonds, err := Resolve(species, []int{1, 2}, []neighbor.Pair{{I: 1, J: 0}}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, bonds[0].ModelStyle)

	_, err = Resolve(species, []int{1}, nil, nil)
	assert.ErrorIs(t, err, mesh.ErrShapeMismatch)
}

func TestResolveIndexOutOfRange(t *testing.T) {
	_, err := Resolve([]string{"C"}, nil, []neighbor.Pair{{I: 0, J: 4}}, nil)
	assert.Error(t, err)
}

func TestResolveEmpty(t *testing.T) {
	bonds, err := Resolve([]string{"C"}, nil, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, bonds)
}

func TestSpeciesHash(t *testing.T) {
	for _, name := range []string{"C", "Na", "Zn_1", "abcdefgh"} {
		assert.Equal(t, name, SpeciesName(SpeciesHash(name)), name)
	}
	assert.NotEqual(t, SpeciesHash("C"), SpeciesHash("O"))
	assert.Equal(t, SpeciesHash("very_long_label"), SpeciesHash("very_long_label"))
}

func TestGeometry(t *testing.T) {
	cell, err := lattice.Cubic(10)
	require.NoError(t, err)
	frames := [][]v3.Vec{{{X: 9}, {X: 0.5}, {X: 9, Y: 1}}}
	bonds := []Bond{
		{Pair: neighbor.Pair{I: 0, J: 1, Shift: [3]int{1, 0, 0}}, Order: 2, Plane: 1},
		{Pair: neighbor.Pair{I: 0, J: 2}, Order: 1, Plane: -1},
	}
	geo, err := Geometry(frames, cell, bonds)
	require.NoError(t, err)
	require.Len(t, geo, 1)
	g := geo[0]

	assert.Equal(t, v3.Vec{X: 10}, g.Offsets[0])
	assert.InDelta(t, 9.75, g.Centers[0].X, 1e-12)
	assert.InDelta(t, 1.5, g.Vectors[0].X, 1e-12)

	d := g.Directions[0]
	assert.InDelta(t, 1, d.Length(), 1e-9)
	assert.InDelta(t, 0, d.Dot(v3.Vec{X: 1}), 1e-6)
	assert.InDelta(t, 1, math.Abs(d.Y), 1e-6)
	assert.Equal(t, v3.Vec{}, g.Directions[1])
}

func TestGeometryFallbackPlane(t *testing.T) {
	cell, err := lattice.Cubic(10)
	require.NoError(t, err)
	bonds := []Bond{{Pair: neighbor.Pair{I: 0, J: 1}, Order: 3, Plane: -1}}
	geo, err := Geometry([][]v3.Vec{{{}, {X: 1}}}, cell, bonds)
	require.NoError(t, err)
	d := geo[0].Directions[0]
	assert.InDelta(t, 1, math.Abs(d.Z), 1e-6)
}

func TestGeometryShortFrame(t *testing.T) {
	cell, err := lattice.Cubic(10)
	require.NoError(t, err)
	bonds := []Bond{{Pair: neighbor.Pair{I: 0, J: 3}, Plane: -1}}
	_, err = Geometry([][]v3.Vec{{{}, {X: 1}}}, cell, bonds)
	assert.ErrorIs(t, err, mesh.ErrShapeMismatch)
}
