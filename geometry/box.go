package geometry

import (
	"fmt"

	"github.com/aicam-labs/go-postprocess/fixedpoint"
)

// Box is an axis-aligned rectangle in fixed point image coordinates.
// Left <= Right and Top <= Bottom; the constructor enforces it.
type Box struct {
	Left, Top, Right, Bottom fixedpoint.Number
}

// PixelBox is an axis-aligned rectangle in integer pixel coordinates
// with its dimensions cached at construction.
type PixelBox struct {
	Left, Top, Right, Bottom int32
	Dimensions               PixelDimensions
}

// NewBox builds a Box. All coordinates must share a format, with
// Left <= Right and Top <= Bottom.
func NewBox(left, top, right, bottom fixedpoint.Number) Box {
	if left.Gt(right) {
		panic(fmt.Sprintf("geometry: NewBox: left %d > right %d (Q%d)",
			left.Raw, right.Raw, left.FracBits))
	}
	if top.Gt(bottom) {
		panic(fmt.Sprintf("geometry: NewBox: top %d > bottom %d (Q%d)",
			top.Raw, bottom.Raw, top.FracBits))
	}
	if left.FracBits != top.FracBits || top.FracBits != right.FracBits ||
		right.FracBits != bottom.FracBits {
		panic(fmt.Sprintf("geometry: NewBox: coordinate formats differ: Q%d Q%d Q%d Q%d",
			left.FracBits, top.FracBits, right.FracBits, bottom.FracBits))
	}
	return Box{Left: left, Top: top, Right: right, Bottom: bottom}
}

// NewPixelBox builds a PixelBox with Left <= Right and Top <= Bottom
// and caches the dimensions.
func NewPixelBox(left, top, right, bottom int32) PixelBox {
	if left > right {
		panic(fmt.Sprintf("geometry: NewPixelBox: left %d > right %d", left, right))
	}
	if top > bottom {
		panic(fmt.Sprintf("geometry: NewPixelBox: top %d > bottom %d", top, bottom))
	}
	return PixelBox{
		Left: left, Top: top, Right: right, Bottom: bottom,
		Dimensions: PixelDimensions{Width: right - left, Height: bottom - top},
	}
}

// Width returns right - left.
func (b Box) Width() fixedpoint.Number {
	return b.Right.Sub(b.Left)
}

// Height returns bottom - top.
func (b Box) Height() fixedpoint.Number {
	return b.Bottom.Sub(b.Top)
}

// Area returns width * height.
func (b Box) Area() fixedpoint.Number {
	return b.Width().Mul(b.Height())
}

// Center returns the middle point of the box.
func (b Box) Center() Point {
	halfWidth := b.Width().Rsh(1)
	halfHeight := b.Height().Rsh(1)
	return NewPoint(b.Left.Add(halfWidth), b.Top.Add(halfHeight))
}

// IoU returns the intersection-over-union of two boxes, in [0, 1].
// Negative intersection extents clamp to an empty intersection, so
// disjoint boxes score exactly 0 and identical boxes exactly 1.
func (b Box) IoU(other Box) fixedpoint.Number {
	if b.Left.FracBits != other.Left.FracBits {
		panic(fmt.Sprintf("geometry: IoU: box formats Q%d and Q%d differ",
			b.Left.FracBits, other.Left.FracBits))
	}

	zero := fixedpoint.FromInt(0, b.Top.FracBits)
	area1 := b.Area()
	area2 := other.Area()

	top := fixedpoint.Max(b.Top, other.Top)
	left := fixedpoint.Max(b.Left, other.Left)
	bottom := fixedpoint.Min(b.Bottom, other.Bottom)
	right := fixedpoint.Min(b.Right, other.Right)

	width := fixedpoint.Max(right.Sub(left), zero)
	height := fixedpoint.Max(bottom.Sub(top), zero)

	interArea := width.Mul(height)
	unionArea := area1.Add(area2).Sub(interArea)
	return interArea.Div(unionArea)
}

// Crop returns the intersection of the box with the container. An empty
// intersection collapses to the zero box.
func (b Box) Crop(container Box) Box {
	if b.Left.FracBits != container.Left.FracBits {
		panic(fmt.Sprintf("geometry: Crop: box formats Q%d and Q%d differ",
			b.Left.FracBits, container.Left.FracBits))
	}

	if b.Right.Lt(container.Left) || b.Bottom.Lt(container.Top) ||
		b.Left.Gt(container.Right) || b.Top.Gt(container.Bottom) {
		zero := fixedpoint.FromInt(0, container.Top.FracBits)
		return NewBox(zero, zero, zero, zero)
	}

	left := fixedpoint.Max(b.Left, container.Left)
	top := fixedpoint.Max(b.Top, container.Top)
	right := fixedpoint.Min(b.Right, container.Right)
	bottom := fixedpoint.Min(b.Bottom, container.Bottom)
	return NewBox(left, top, right, bottom)
}

// ScaleAndOffset scales the box coordinates first, then translates them.
// Not interchangeable with OffsetAndScale.
func (b Box) ScaleAndOffset(horizontalScale, verticalScale fixedpoint.Number, offset Vector) Box {
	checkScales("Box.ScaleAndOffset", horizontalScale, verticalScale)
	return NewBox(
		b.Left.Mul(horizontalScale).Add(offset.X),
		b.Top.Mul(verticalScale).Add(offset.Y),
		b.Right.Mul(horizontalScale).Add(offset.X),
		b.Bottom.Mul(verticalScale).Add(offset.Y))
}

// OffsetAndScale translates the box coordinates first, then scales them.
// Not interchangeable with ScaleAndOffset.
func (b Box) OffsetAndScale(offset Vector, horizontalScale, verticalScale fixedpoint.Number) Box {
	checkScales("Box.OffsetAndScale", horizontalScale, verticalScale)
	return NewBox(
		b.Left.Add(offset.X).Mul(horizontalScale),
		b.Top.Add(offset.Y).Mul(verticalScale),
		b.Right.Add(offset.X).Mul(horizontalScale),
		b.Bottom.Add(offset.Y).Mul(verticalScale))
}

// Contains reports whether the point lies strictly inside the box.
func (b Box) Contains(p Point) bool {
	return p.X.Gt(b.Left) && p.X.Lt(b.Right) && p.Y.Gt(b.Top) && p.Y.Lt(b.Bottom)
}

// DistanceToPoint returns the distance from the box center to a point.
func (b Box) DistanceToPoint(p Point) fixedpoint.Number {
	return VectorBetween(b.Center(), p).Norm()
}

// ToPixelBox rounds the box coordinates to the nearest pixel,
// halves to even.
func (b Box) ToPixelBox() PixelBox {
	return NewPixelBox(b.Left.Round(), b.Top.Round(), b.Right.Round(), b.Bottom.Round())
}

// ToGeometricBox lifts an integer pixel box into a fixed point box.
func (b PixelBox) ToGeometricBox(fracBits uint8) Box {
	return NewBox(
		fixedpoint.FromInt(b.Left, fracBits),
		fixedpoint.FromInt(b.Top, fracBits),
		fixedpoint.FromInt(b.Right, fracBits),
		fixedpoint.FromInt(b.Bottom, fracBits))
}

// Inflate grows the box on every side by (scale-1)/2 of its dimensions,
// keeping the center, and rounds to pixels.
func (b Box) Inflate(scale fixedpoint.Number) PixelBox {
	frameScale := scale.Sub(fixedpoint.FromInt(1, scale.FracBits)).
		Div(fixedpoint.FromInt(2, scale.FracBits))

	frameX := b.Width().Mul(frameScale)
	frameY := b.Height().Mul(frameScale)

	return NewPixelBox(
		b.Left.Sub(frameX).Round(),
		b.Top.Sub(frameY).Round(),
		b.Right.Add(frameX).Round(),
		b.Bottom.Add(frameY).Round())
}

// InflateSquare grows the box to a square whose side is the larger
// dimension scaled like Inflate, keeping the center, and rounds to
// pixels.
func (b Box) InflateSquare(scale fixedpoint.Number) PixelBox {
	frameScale := scale.Sub(fixedpoint.FromInt(1, scale.FracBits)).
		Div(fixedpoint.FromInt(2, scale.FracBits))

	width := b.Width()
	height := b.Height()
	maxDim := fixedpoint.Max(width, height)
	frame := maxDim.Mul(frameScale)

	widthOffset := maxDim.Sub(width).Rsh(1).Add(frame)
	heightOffset := maxDim.Sub(height).Rsh(1).Add(frame)

	return NewPixelBox(
		b.Left.Sub(widthOffset).Round(),
		b.Top.Sub(heightOffset).Round(),
		b.Right.Add(widthOffset).Round(),
		b.Bottom.Add(heightOffset).Round())
}

// MatchBox returns the index of the candidate with the highest IoU
// against ref, breaking ties in favor of the first candidate seen.
// ok is false when no candidate reaches iouThreshold (inclusive) or the
// candidate list is empty.
func MatchBox(ref Box, iouThreshold fixedpoint.Number, candidates []Box) (int, bool) {
	if len(candidates) == 0 {
		return 0, false
	}

	best := 0
	bestIoU := ref.IoU(candidates[0])
	for i := 1; i < len(candidates); i++ {
		iou := ref.IoU(candidates[i])
		if iou.Gt(bestIoU) {
			bestIoU = iou
			best = i
		}
	}

	if bestIoU.Ge(iouThreshold) {
		return best, true
	}
	return len(candidates), false
}

// Envelope returns the smallest box containing every point. Panics on an
// empty point list.
func Envelope(points []Point) Box {
	if len(points) == 0 {
		panic("geometry: Envelope: no points")
	}

	left := points[0].X
	right := points[0].X
	top := points[0].Y
	bottom := points[0].Y

	for _, p := range points[1:] {
		left = fixedpoint.Min(left, p.X)
		right = fixedpoint.Max(right, p.X)
		top = fixedpoint.Min(top, p.Y)
		bottom = fixedpoint.Max(bottom, p.Y)
	}
	return NewBox(left, top, right, bottom)
}
