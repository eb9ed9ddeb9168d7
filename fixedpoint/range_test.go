package fixedpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapEndpoints(t *testing.T) {
	origin := NewRange(FromInt(0, 10), FromInt(256, 10))
	image := NewRange(FromInt(0, 10), FromInt(3280, 10))

	assert.Equal(t, image.Min, Map(origin.Min, origin, image))
	assert.Equal(t, image.Max, Map(origin.Max, origin, image))
	assert.Equal(t, FromInt(1640, 10), Map(FromInt(128, 10), origin, image))
}

func TestMapExtrapolates(t *testing.T) {
	origin := NewRange(FromInt(0, 10), FromInt(10, 10))
	image := NewRange(FromInt(0, 10), FromInt(100, 10))

	// Outside the origin range the affine function still applies.
	assert.Equal(t, FromInt(-10, 10), Map(FromInt(-1, 10), origin, image))
	assert.Equal(t, FromInt(110, 10), Map(FromInt(11, 10), origin, image))
}

func TestMapShiftedRanges(t *testing.T) {
	origin := NewRange(FromInt(-1, 10), FromInt(1, 10))
	image := NewRange(FromInt(0, 10), FromInt(144, 10))

	assert.Equal(t, FromInt(72, 10), Map(FromInt(0, 10), origin, image))
}

func TestMapping(t *testing.T) {
	remap := Mapping(
		NewRange(FromInt(0, 10), FromInt(2, 10)),
		NewRange(FromInt(0, 10), FromInt(20, 10)))
	assert.Equal(t, FromInt(10, 10), remap(FromInt(1, 10)))
}

func TestRangeClamp(t *testing.T) {
	r := NewRange(FromInt(0, 10), FromInt(5, 10))
	assert.Equal(t, r.Max, r.Clamp(FromInt(9, 10)))
	assert.Equal(t, r.Min, r.Clamp(FromInt(-2, 10)))
	assert.Equal(t, FromInt(3, 10), r.Clamp(FromInt(3, 10)))
}

func TestNewRangePanicsOnInvertedBounds(t *testing.T) {
	assert.Panics(t, func() { NewRange(FromInt(2, 10), FromInt(1, 10)) })
}
