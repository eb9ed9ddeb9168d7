package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aicam-labs/go-postprocess/fixedpoint"
)

func fp(n int32) fixedpoint.Number {
	return fixedpoint.FromInt(n, 10)
}

func TestNewPointFormatCheck(t *testing.T) {
	assert.Panics(t, func() { NewPoint(fp(1), fixedpoint.FromInt(1, 8)) })
	assert.Panics(t, func() {
		NewPoint3D(fp(1), fp(2), fixedpoint.FromInt(3, 8))
	})
}

func TestVectorBetween(t *testing.T) {
	v := VectorBetween(NewPoint(fp(1), fp(2)), NewPoint(fp(4), fp(6)))
	assert.Equal(t, Vector{X: fp(3), Y: fp(4)}, v)
}

func TestTranslate(t *testing.T) {
	p := NewPoint(fp(1), fp(1)).Translate(Vector{X: fp(2), Y: fp(-3)})
	assert.Equal(t, NewPoint(fp(3), fp(-2)), p)

	points := []Point{NewPoint(fp(0), fp(0)), NewPoint(fp(1), fp(1))}
	TranslatePoints(points, Vector{X: fp(5), Y: fp(5)})
	assert.Equal(t, NewPoint(fp(5), fp(5)), points[0])
	assert.Equal(t, NewPoint(fp(6), fp(6)), points[1])
}

func TestPointScaleAndOffset(t *testing.T) {
	p := NewPoint(fp(2), fp(3)).
		ScaleAndOffset(fp(2), fp(3), Vector{X: fp(1), Y: fp(1)})
	assert.Equal(t, NewPoint(fp(5), fp(10)), p)

	assert.Panics(t, func() {
		NewPoint(fp(1), fp(1)).ScaleAndOffset(fp(-1), fp(1), Vector{X: fp(0), Y: fp(0)})
	})
}

func TestVectorNorm(t *testing.T) {
	assert.Equal(t, fp(5), Vector{X: fp(3), Y: fp(4)}.Norm())
	assert.Equal(t, fp(0), Vector{X: fp(0), Y: fp(0)}.Norm())
	assert.Equal(t, fp(13), Vector{X: fp(-5), Y: fp(12)}.Norm())
}

func TestVectorNorm64MatchesNormOnSmallInputs(t *testing.T) {
	cases := []Vector{
		{X: fp(3), Y: fp(4)},
		{X: fp(0), Y: fp(0)},
		{X: fp(-6), Y: fp(8)},
	}
	for _, v := range cases {
		assert.Equal(t, v.Norm().Raw, v.Norm64().Raw)
	}
}

func TestVectorNorm64LargeInputs(t *testing.T) {
	// 900² + 1200² overflows the int32 mantissa sum Norm relies on.
	v := Vector{X: fp(900), Y: fp(1200)}
	assert.Equal(t, fp(1500), v.Norm64())
}

func TestVector3DNorm(t *testing.T) {
	v := Vector3D{X: fp(1), Y: fp(2), Z: fp(2)}
	assert.Equal(t, fp(3), v.Norm())
}

func TestAngleWithOrdinate(t *testing.T) {
	zero := fp(0)

	// Straight up the ordinate.
	up := Vector{X: zero, Y: fp(1)}
	assert.Equal(t, int32(0), up.AngleWithOrdinate().Raw)

	// Along the abscissa: -pi/2 from the ordinate.
	right := Vector{X: fp(1), Y: zero}
	assert.Equal(t, fixedpoint.HalfPi.Neg().Raw, right.AngleWithOrdinate().Raw)

	// Zero vector maps to 0 by convention.
	assert.Equal(t, int32(0), Vector{X: zero, Y: zero}.AngleWithOrdinate().Raw)
}
