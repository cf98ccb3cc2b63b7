package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVectorArithmetic(t *testing.T) {
	a := Vector{1, 2, 3}
	b := Vector{4, -5, 6}

	assert.Equal(t, Vector{5, -3, 9}, a.Add(b))
	assert.Equal(t, Vector{-3, 7, -3}, a.Sub(b))
	assert.Equal(t, Vector{2, 4, 6}, a.Mul(2))
	assert.Equal(t, Vector{0.5, 1, 1.5}, a.Div(2))
	assert.InDelta(t, 12.0, a.Dot(b), 1e-12)
}

func TestVectorCross(t *testing.T) {
	x := Vector{1, 0, 0}
	y := Vector{0, 1, 0}
	assert.Equal(t, Vector{0, 0, 1}, x.Cross(y))
	assert.Equal(t, Vector{0, 0, -1}, y.Cross(x))
}

func TestVectorNorm(t *testing.T) {
	v := Vector{3, 4, 0}
	assert.InDelta(t, 5.0, v.Norm(), 1e-12)
	assert.InDelta(t, 25.0, v.NormSquared(), 1e-12)

	u := v.Normalized()
	assert.InDelta(t, 1.0, u.Norm(), 1e-12)
	assert.Equal(t, Vector{}, Vector{}.Normalized())
}

func TestVectorIsValid(t *testing.T) {
	assert.True(t, Vector{1, 2, 3}.IsValid())
	assert.False(t, Vector{math.NaN(), 0, 0}.IsValid())
	assert.False(t, Vector{0, math.Inf(1), 0}.IsValid())
}
