package fixedpoint

import "fmt"

// Range represents the closed interval [Min, Max].
type Range struct {
	Min Number
	Max Number
}

// NewRange builds a Range. Panics when min > max.
func NewRange(min, max Number) Range {
	if min.Gt(max) {
		panic(fmt.Sprintf("fixedpoint: NewRange: %d > %d", min.Raw, max.Raw))
	}
	return Range{Min: min, Max: max}
}

// Size returns the length of the range.
func (r Range) Size() Number {
	return r.Max.Sub(r.Min)
}

// Clamp limits n to the range.
func (r Range) Clamp(n Number) Number {
	return n.Clip(r.Min, r.Max)
}

// Map applies to n the affine function defined by
//
//	Map(origin.Min) = image.Min
//	Map(origin.Max) = image.Max
//
// Values outside the origin range are extrapolated, not clamped.
func Map(n Number, origin, image Range) Number {
	result := n.Sub(origin.Min)
	result = result.Mul(image.Size())
	result = result.Div(origin.Size())
	return result.Add(image.Min)
}

// Mapping returns a reusable map function with fixed origin and image
// ranges, for remapping whole result sets into a target coordinate system.
func Mapping(origin, image Range) func(Number) Number {
	return func(n Number) Number {
		return Map(n, origin, image)
	}
}
