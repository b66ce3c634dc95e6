package mesh

import (
	"errors"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetPositionsShapeMismatch(t *testing.T) {
	m := NewPointMesh("atoms", []v3.Vec{{}, {X: 1}})
	err := m.SetPositions([]v3.Vec{{}})
	require.Error(t, err)

	var se *ShapeMismatchError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 2, se.Want)
	assert.Equal(t, 1, se.Got)
	assert.ErrorIs(t, err, ErrShapeMismatch)
	assert.Equal(t, []v3.Vec{{}, {X: 1}}, m.Positions())
}

func TestAttributes(t *testing.T) {
	m := NewPointMesh("atoms", make([]v3.Vec, 3))
	require.NoError(t, m.SetInts("species_index", []int64{1, 2, 3}))
	require.NoError(t, m.SetFloats("scale", []float64{1, 1, 0.5}))
	require.NoError(t, m.SetBools("show", []bool{true, false, true}))

	ints, ok := m.Ints("species_index")
	require.True(t, ok)
	assert.Equal(t, []int64{1, 2, 3}, ints)

	_, ok = m.Floats("species_index")
	assert.False(t, ok, "kind must match")
	_, ok = m.Attribute("missing")
	assert.False(t, ok)

	assert.ErrorIs(t, m.SetFloats("scale", []float64{1}), ErrShapeMismatch)
	assert.Error(t, m.SetInts("scale", []int64{1, 2, 3}), "kind cannot change")
	assert.Equal(t, []string{"species_index", "scale", "show"}, m.AttributeNames())
}

func TestResize(t *testing.T) {
	m := NewPointMesh("atoms", []v3.Vec{{X: 1}, {X: 2}})
	require.NoError(t, m.SetInts("order", []int64{2, 3}))
	require.NoError(t, m.SetFrame(0, []v3.Vec{{X: 1}, {X: 2}}))

	m.Resize(3)
	assert.Equal(t, 3, m.Len())
	ints, _ := m.Ints("order")
	assert.Equal(t, []int64{2, 3, 0}, ints)
	f, _ := m.Frame(0)
	assert.Len(t, f, 3)

	m.Resize(1)
	ints, _ = m.Ints("order")
	assert.Equal(t, []int64{2}, ints)
	assert.Equal(t, []v3.Vec{{X: 1}}, m.Positions())
}

func TestFrames(t *testing.T) {
	m := NewPointMesh("atoms", make([]v3.Vec, 2))
	require.NoError(t, m.SetFrame(0, []v3.Vec{{}, {X: 1}}))
	require.NoError(t, m.SetFrame(1, []v3.Vec{{}, {X: 2}}))
	assert.Error(t, m.SetFrame(3, []v3.Vec{{}, {}}))
	assert.Equal(t, 2, m.NumFrames())

	// A bad frame leaves the earlier frames untouched.
	err := m.SetFrames([][]v3.Vec{{{}, {X: 5}}, {{}}})
	assert.ErrorIs(t, err, ErrShapeMismatch)
	f, ok := m.Frame(1)
	require.True(t, ok)
	assert.Equal(t, v3.Vec{X: 2}, f[1])

	require.NoError(t, m.SetFrames([][]v3.Vec{{{}, {X: 5}}}))
	assert.Equal(t, 1, m.NumFrames())
	_, ok = m.Frame(1)
	assert.False(t, ok)
}

func TestKindString(t *testing.T) {
	tests := []struct {
		k    Kind
		want string
	}{
		{Int, "INT"},
		{Float, "FLOAT"},
		{Bool, "BOOLEAN"},
		{Kind(9), "Kind(9)"},
	}
	for _, tt := range tests {
		if got := tt.k.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", int(tt.k), got, tt.want)
		}
	}
}
