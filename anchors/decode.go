package anchors

import (
	"github.com/pkg/errors"

	"github.com/aicam-labs/go-postprocess/fixedpoint"
	"github.com/aicam-labs/go-postprocess/geometry"
	"github.com/aicam-labs/go-postprocess/matrix"
)

// ScoreConfig interprets one int16 channel plane as fixed point values.
// Transform, when set, is applied after interpretation; detectors
// typically pass the sigmoid for confidence channels and an identity or
// unit conversion for the rest.
type ScoreConfig struct {
	Data      []int16
	FracBits  uint8
	Transform func(fixedpoint.Number) fixedpoint.Number
}

// RawToFP decodes the channel values at the given indices into values.
// values must hold at least len(indices) entries.
func (c ScoreConfig) RawToFP(indices []int, values []fixedpoint.Number) {
	for i, idx := range indices {
		v := fixedpoint.Interpret(int32(c.Data[idx]), c.FracBits)
		if c.Transform != nil {
			v = c.Transform(v)
		}
		values[i] = v
	}
}

// MultiScoreConfig interprets several parallel int16 channel planes as
// one fixed point value per index, combined by Combine.
type MultiScoreConfig struct {
	Channels [][]int16
	FracBits uint8
	Combine  func(raw []fixedpoint.Number) fixedpoint.Number
}

// RawToFP decodes and combines the channels at the given indices.
func (c MultiScoreConfig) RawToFP(indices []int, values []fixedpoint.Number) {
	raw := make([]fixedpoint.Number, len(c.Channels))
	for i, idx := range indices {
		for j, channel := range c.Channels {
			raw[j] = fixedpoint.Interpret(int32(channel[idx]), c.FracBits)
		}
		values[i] = c.Combine(raw)
	}
}

// BestClass picks the class whose sigmoid score at index is the highest
// among the logit channels, with confidence max / sum of all scores.
func BestClass(channels [][]int16, fracBits uint8, index int) (int, fixedpoint.Number) {
	sum := fixedpoint.FromInt(0, fracBits)
	maxScore := fixedpoint.FromInt(0, fracBits)
	best := 0

	for i, channel := range channels {
		logit := fixedpoint.Interpret(int32(channel[index]), fracBits)
		score := logit.Sigmoid()
		sum = sum.Add(score)
		if score.Gt(maxScore) {
			maxScore = score
			best = i
		}
	}
	return best, maxScore.Div(sum)
}

// BoxConfig interprets four int16 delta channel planes as boxes anchored
// on a detector grid.
type BoxConfig struct {
	DeltaX   []int16
	DeltaY   []int16
	DeltaW   []int16
	DeltaH   []int16
	FracBits uint8
	Grid     geometry.PixelDimensions

	ToAnchor ToAnchorFunc
	ToBox    ToBoxFunc
}

// RawToBoundingBoxes decodes the boxes at the given indices. boxes must
// hold at least len(indices) entries.
func (c BoxConfig) RawToBoundingBoxes(indices []int, boxes []geometry.Box) {
	for i, idx := range indices {
		anchor := c.ToAnchor(IndexToGridCoordinates(idx, c.Grid))

		dx := fixedpoint.Interpret(int32(c.DeltaX[idx]), c.FracBits)
		dy := fixedpoint.Interpret(int32(c.DeltaY[idx]), c.FracBits)
		dw := fixedpoint.Interpret(int32(c.DeltaW[idx]), c.FracBits)
		dh := fixedpoint.Interpret(int32(c.DeltaH[idx]), c.FracBits)

		boxes[i] = c.ToBox(dx, dy, dw, dh, anchor)
	}
}

// PointConfig interprets two int16 channel planes as points.
type PointConfig struct {
	X        []int16
	Y        []int16
	FracBits uint8

	ToPoint ToPointFunc
}

// RawToGeometricPoints decodes the points at the given indices.
func (c PointConfig) RawToGeometricPoints(indices []int, points []geometry.Point) {
	for i, idx := range indices {
		x := fixedpoint.Interpret(int32(c.X[idx]), c.FracBits)
		y := fixedpoint.Interpret(int32(c.Y[idx]), c.FracBits)
		points[i] = c.ToPoint(x, y)
	}
}

// AnchorPointConfig interprets two int16 delta channel planes as points
// anchored on a detector grid. Face landmarks decode this way.
type AnchorPointConfig struct {
	X        []int16
	Y        []int16
	FracBits uint8
	Grid     geometry.PixelDimensions

	ToAnchor ToAnchorFunc
	ToPoint  ToAnchorPointFunc
}

// RawToGeometricPoints decodes the points at the given indices.
func (c AnchorPointConfig) RawToGeometricPoints(indices []int, points []geometry.Point) {
	for i, idx := range indices {
		x := fixedpoint.Interpret(int32(c.X[idx]), c.FracBits)
		y := fixedpoint.Interpret(int32(c.Y[idx]), c.FracBits)
		anchor := c.ToAnchor(IndexToGridCoordinates(idx, c.Grid))
		points[i] = c.ToPoint(x, y, anchor)
	}
}

// RotationConfig interprets groups of six consecutive int16 values as
// 3x3 rotation matrices. The six raw values are remapped from RawRange
// into ValueRange (typically into [-1, 1]) before assembly.
type RotationConfig struct {
	Data       []int16
	FracBits   uint8
	RawRange   fixedpoint.Range
	ValueRange fixedpoint.Range
}

// Decode assembles the rotation matrix for one index into rot, a 3x3
// matrix. The first mapped triple is normalized as the first column; the
// third column is its normalized cross product with the second raw
// triple; the second column completes the right-handed basis. Returns an
// error when either norm is zero.
func (c RotationConfig) Decode(index int, rot matrix.Matrix) error {
	var raw [6]fixedpoint.Number
	for j := 0; j < 6; j++ {
		v := fixedpoint.Interpret(int32(c.Data[index*6+j]), c.FracBits)
		raw[j] = fixedpoint.Map(v, c.RawRange, c.ValueRange)
	}

	zero := fixedpoint.FromInt(0, c.FracBits)

	v1 := matrix.New(3, 1, c.FracBits)
	for j := 0; j < 3; j++ {
		v1.Set(j, 0, raw[j])
	}
	normV1, ok := v1.Norm()
	if !ok || normV1.Eq(zero) {
		return errors.Errorf("anchors: rotation decode at index %d: first column norm is zero", index)
	}
	if err := matrix.InvScale(v1, normV1, v1); err != nil {
		return errors.Wrapf(err, "anchors: rotation decode at index %d", index)
	}

	v4 := matrix.New(3, 1, c.FracBits)
	for j := 0; j < 3; j++ {
		v4.Set(j, 0, raw[3+j])
	}

	v3 := matrix.New(3, 1, c.FracBits)
	matrix.CrossProduct(v1, v4, v3)
	normV3, ok := v3.Norm()
	if !ok || normV3.Eq(zero) {
		return errors.Errorf("anchors: rotation decode at index %d: third column norm is zero", index)
	}
	if err := matrix.InvScale(v3, normV3, v3); err != nil {
		return errors.Wrapf(err, "anchors: rotation decode at index %d", index)
	}

	v2 := matrix.New(3, 1, c.FracBits)
	matrix.CrossProduct(v3, v1, v2)

	for j := 0; j < 3; j++ {
		rot.Set(j, 0, v1.Get(j, 0))
		rot.Set(j, 1, v2.Get(j, 0))
		rot.Set(j, 2, v3.Get(j, 0))
	}
	return nil
}

// RawToRotationMatrices decodes the rotation matrices at the given
// indices. valid[i] reports whether matrices[i] was assembled; a
// degenerate decode leaves the matrix untouched.
func (c RotationConfig) RawToRotationMatrices(indices []int, valid []bool, matrices []matrix.Matrix) {
	for i, idx := range indices {
		valid[i] = c.Decode(idx, matrices[i]) == nil
	}
}
