// Package geometry - fixed point 2D/3D points, vectors and boxes for
// detection postprocessing.
package geometry

import (
	"fmt"

	"github.com/aicam-labs/go-postprocess/fixedpoint"
)

// Point is a 2D point in fixed point image coordinates.
type Point struct {
	X, Y fixedpoint.Number
}

// Point3D is a 3D point in fixed point coordinates.
type Point3D struct {
	X, Y, Z fixedpoint.Number
}

// Vector is a 2D displacement in fixed point coordinates.
type Vector struct {
	X, Y fixedpoint.Number
}

// Vector3D is a 3D displacement in fixed point coordinates.
type Vector3D struct {
	X, Y, Z fixedpoint.Number
}

// PixelPoint is a 2D point in integer pixel coordinates.
type PixelPoint struct {
	X, Y int32
}

// Dimensions holds a fixed point width and height pair.
type Dimensions struct {
	Width, Height fixedpoint.Number
}

// PixelDimensions holds an integer width and height pair.
type PixelDimensions struct {
	Width, Height int32
}

// NewPoint builds a Point. Both coordinates must share a format.
func NewPoint(x, y fixedpoint.Number) Point {
	if x.FracBits != y.FracBits {
		panic(fmt.Sprintf("geometry: NewPoint: coordinate formats Q%d and Q%d differ",
			x.FracBits, y.FracBits))
	}
	return Point{X: x, Y: y}
}

// NewPoint3D builds a Point3D. All coordinates must share a format.
func NewPoint3D(x, y, z fixedpoint.Number) Point3D {
	if x.FracBits != y.FracBits || x.FracBits != z.FracBits {
		panic(fmt.Sprintf("geometry: NewPoint3D: coordinate formats Q%d, Q%d, Q%d differ",
			x.FracBits, y.FracBits, z.FracBits))
	}
	return Point3D{X: x, Y: y, Z: z}
}

// VectorBetween returns the displacement from src to dst.
func VectorBetween(src, dst Point) Vector {
	return Vector{X: dst.X.Sub(src.X), Y: dst.Y.Sub(src.Y)}
}

// VectorBetween3D returns the displacement from src to dst.
func VectorBetween3D(src, dst Point3D) Vector3D {
	return Vector3D{X: dst.X.Sub(src.X), Y: dst.Y.Sub(src.Y), Z: dst.Z.Sub(src.Z)}
}

// Translate returns the point moved by v.
func (p Point) Translate(v Vector) Point {
	return Point{X: p.X.Add(v.X), Y: p.Y.Add(v.Y)}
}

// Translate returns the point moved by v.
func (p Point3D) Translate(v Vector3D) Point3D {
	return Point3D{X: p.X.Add(v.X), Y: p.Y.Add(v.Y), Z: p.Z.Add(v.Z)}
}

// TranslatePoints moves every point in the slice by v, in place.
func TranslatePoints(points []Point, v Vector) {
	for i := range points {
		points[i] = points[i].Translate(v)
	}
}

// ScaleAndOffset scales the point coordinates then translates them.
// Scales must be non-negative.
func (p Point) ScaleAndOffset(horizontalScale, verticalScale fixedpoint.Number, offset Vector) Point {
	checkScales("Point.ScaleAndOffset", horizontalScale, verticalScale)
	return NewPoint(
		p.X.Mul(horizontalScale).Add(offset.X),
		p.Y.Mul(verticalScale).Add(offset.Y))
}

// Norm returns the Euclidean length of v. The squared sum accumulates in
// 32 bits; see Norm64 for large vectors.
func (v Vector) Norm() fixedpoint.Number {
	return v.X.Sqr().Add(v.Y.Sqr()).Sqrt()
}

// Norm64 returns the Euclidean length of v with a 64-bit squared sum,
// safe against the int32 overflow Norm is subject to.
func (v Vector) Norm64() fixedpoint.Number {
	fracBits := v.X.FracBits

	x := (int64(v.X.Raw) * int64(v.X.Raw)) >> fracBits
	y := (int64(v.Y.Raw) * int64(v.Y.Raw)) >> fracBits
	sum := x + y
	if sum == 0 {
		return fixedpoint.FromInt(0, fracBits)
	}

	return fixedpoint.Interpret(int32(fixedpoint.ISqrt64(uint64(sum)<<fracBits)), fracBits)
}

// Norm returns the Euclidean length of v.
func (v Vector3D) Norm() fixedpoint.Number {
	return v.X.Sqr().Add(v.Y.Sqr()).Add(v.Z.Sqr()).Sqrt()
}

// AngleWithOrdinate returns the signed angle between the ordinate axis
// and v, in radians. A zero vector maps to angle 0 by convention.
func (v Vector) AngleWithOrdinate() fixedpoint.Number {
	zero := fixedpoint.FromInt(0, v.X.FracBits)
	if v.X.Eq(zero) && v.Y.Eq(zero) {
		return zero
	}
	return fixedpoint.Atan2(v.Y, v.X).Sub(fixedpoint.HalfPi)
}

func checkScales(op string, horizontal, vertical fixedpoint.Number) {
	zero := fixedpoint.FromInt(0, horizontal.FracBits)
	if horizontal.Lt(zero) {
		panic(fmt.Sprintf("geometry: %s: negative horizontal scale", op))
	}
	if vertical.Lt(zero) {
		panic(fmt.Sprintf("geometry: %s: negative vertical scale", op))
	}
}
