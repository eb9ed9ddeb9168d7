// Package fixedpoint - integer-only Q-format arithmetic for FPU-less targets.
//
// A Number holds a 32-bit mantissa and the count of fractional bits, so it
// represents Raw * 2^-FracBits. All production code paths stay in integer
// arithmetic; float conversions exist for tests and debug output only.
package fixedpoint

import (
	"fmt"
	"strings"
)

// MLEngineFracBits is the Q-format the inference engine emits its raw
// int16 outputs in.
const MLEngineFracBits uint8 = 10

// Number represents the real number Raw * 2^-FracBits.
// FracBits is assumed to be non-negative and at most 30.
type Number struct {
	Raw      int32
	FracBits uint8
}

// New returns the fixed point representation of num/den using fracBits
// fractional bits. Panics when den is zero.
func New(num, den int32, fracBits uint8) Number {
	if den == 0 {
		panic("fixedpoint: New: denominator is zero")
	}
	return Number{Raw: (num << fracBits) / den, FracBits: fracBits}
}

// FromInt returns the fixed point representation of the integer n.
// Panics when n cannot be represented in 32-fracBits bits.
func FromInt(n int32, fracBits uint8) Number {
	maxInt := int32(1<<31-1) >> fracBits
	minInt := int32(-1 << 31) >> fracBits
	if n > maxInt || n < minInt {
		panic(fmt.Sprintf(
			"fixedpoint: FromInt: %d is not representable with %d fractional bits", n, fracBits))
	}
	return Number{Raw: n << fracBits, FracBits: fracBits}
}

// Interpret reuses the bits of raw as the mantissa of a Q-format number.
func Interpret(raw int32, fracBits uint8) Number {
	return Number{Raw: raw, FracBits: fracBits}
}

// MaxValue returns the largest representable number for the given format.
func MaxValue(fracBits uint8) Number {
	return Number{Raw: 1<<31 - 1, FracBits: fracBits}
}

// MinValue returns the smallest representable number for the given format.
func MinValue(fracBits uint8) Number {
	return Number{Raw: -1 << 31, FracBits: fracBits}
}

// MaxInt returns the largest integer representable in the given format.
func MaxInt(fracBits uint8) Number {
	return Number{Raw: int32(1<<31-1) >> fracBits, FracBits: fracBits}
}

// MinInt returns the smallest integer representable in the given format.
func MinInt(fracBits uint8) Number {
	return Number{Raw: int32(-1<<31) >> fracBits, FracBits: fracBits}
}

// Rescale converts n to another number of fractional bits. Reducing the
// format loses precision; widening can overflow.
func (n Number) Rescale(fracBits uint8) Number {
	diff := int(n.FracBits) - int(fracBits)
	raw := n.Raw
	if diff >= 0 {
		raw >>= uint(diff)
	} else {
		raw <<= uint(-diff)
	}
	return Number{Raw: raw, FracBits: fracBits}
}

func checkFormat(op string, a, b Number) {
	if a.FracBits != b.FracBits {
		panic(fmt.Sprintf("fixedpoint: %s: format mismatch Q%d vs Q%d", op, a.FracBits, b.FracBits))
	}
}

// Add returns n+m. Both operands must share the same format; the result
// keeps it. Addition of same-format numbers is exact.
func (n Number) Add(m Number) Number {
	checkFormat("Add", n, m)
	return Number{Raw: n.Raw + m.Raw, FracBits: n.FracBits}
}

// AddClampZero returns max(n+m, 0) in the shared format.
func (n Number) AddClampZero(m Number) Number {
	checkFormat("AddClampZero", n, m)
	raw := n.Raw + m.Raw
	if raw < 0 {
		raw = 0
	}
	return Number{Raw: raw, FracBits: n.FracBits}
}

// Sub returns n-m. Both operands must share the same format; the result
// keeps it. Subtraction of same-format numbers is exact.
func (n Number) Sub(m Number) Number {
	checkFormat("Sub", n, m)
	return Number{Raw: n.Raw - m.Raw, FracBits: n.FracBits}
}

// Mul returns n*m. The operands may use different formats: the 64-bit
// product is shifted right by m.FracBits, so the result keeps n's format.
// Because of that shift Mul is not symmetric across formats; operand
// order matters.
func (n Number) Mul(m Number) Number {
	raw := (int64(n.Raw) * int64(m.Raw)) >> m.FracBits
	return Number{Raw: int32(raw), FracBits: n.FracBits}
}

// Sqr returns n*n.
func (n Number) Sqr() Number {
	return n.Mul(n)
}

// Div returns n/m. The dividend is widened by m.FracBits before the
// integer division, so the result keeps n's format. Panics when m is zero.
func (n Number) Div(m Number) Number {
	if m.Raw == 0 {
		panic("fixedpoint: Div: division by zero")
	}
	raw := (int64(n.Raw) << m.FracBits) / int64(m.Raw)
	return Number{Raw: int32(raw), FracBits: n.FracBits}
}

// Lsh multiplies n by 2^k.
func (n Number) Lsh(k uint) Number {
	return Number{Raw: n.Raw << k, FracBits: n.FracBits}
}

// Rsh divides n by 2^k, rounding toward negative infinity.
func (n Number) Rsh(k uint) Number {
	return Number{Raw: n.Raw >> k, FracBits: n.FracBits}
}

// Abs returns the absolute value of n.
func (n Number) Abs() Number {
	raw := n.Raw
	if raw < 0 {
		raw = -raw
	}
	return Number{Raw: raw, FracBits: n.FracBits}
}

// Neg returns -n.
func (n Number) Neg() Number {
	return Number{Raw: -n.Raw, FracBits: n.FracBits}
}

// IsNegative reports whether n < 0.
func (n Number) IsNegative() bool {
	return n.Raw < 0
}

// IsCloseToZero reports whether n is within one mantissa step of zero.
func (n Number) IsCloseToZero() bool {
	return n.Raw >= -1 && n.Raw <= 1
}

// Gt reports n > m. Panics when the formats differ.
func (n Number) Gt(m Number) bool {
	checkFormat("Gt", n, m)
	return n.Raw > m.Raw
}

// Ge reports n >= m. Panics when the formats differ.
func (n Number) Ge(m Number) bool {
	checkFormat("Ge", n, m)
	return n.Raw >= m.Raw
}

// Lt reports n < m. Panics when the formats differ.
func (n Number) Lt(m Number) bool {
	checkFormat("Lt", n, m)
	return n.Raw < m.Raw
}

// Le reports n <= m. Panics when the formats differ.
func (n Number) Le(m Number) bool {
	checkFormat("Le", n, m)
	return n.Raw <= m.Raw
}

// Eq reports n == m. Panics when the formats differ.
func (n Number) Eq(m Number) bool {
	checkFormat("Eq", n, m)
	return n.Raw == m.Raw
}

// Ne reports n != m. Panics when the formats differ.
func (n Number) Ne(m Number) bool {
	checkFormat("Ne", n, m)
	return n.Raw != m.Raw
}

// Between reports lower <= n <= upper.
func (n Number) Between(lower, upper Number) bool {
	return n.Ge(lower) && n.Le(upper)
}

// Max returns the greater of a and b.
func Max(a, b Number) Number {
	if a.Gt(b) {
		return a
	}
	return b
}

// Min returns the lesser of a and b.
func Min(a, b Number) Number {
	if a.Lt(b) {
		return a
	}
	return b
}

// Clip limits n to [min, max]. All three numbers must share a format.
func (n Number) Clip(min, max Number) Number {
	return Max(min, Min(max, n))
}

// Floor returns the greatest integer lesser than or equal to n.
func (n Number) Floor() int32 {
	return n.Raw >> n.FracBits
}

// Ceil returns the least integer greater than or equal to n.
func (n Number) Ceil() int32 {
	result := n.Raw >> n.FracBits
	if !n.IsNegative() {
		mask := int32(1)<<n.FracBits - 1
		if n.Raw&mask != 0 {
			result++
		}
	}
	return result
}

// Round returns the nearest integer to n, rounding exact halves to the
// nearest even integer.
func (n Number) Round() int32 {
	if n.FracBits == 0 {
		return n.Raw
	}
	fracMask := int32(1)<<n.FracBits - 1
	halfFrac := int32(1) << (n.FracBits - 1)
	fracPart := n.Raw & fracMask
	floor := n.Raw >> n.FracBits
	switch {
	case fracPart == halfFrac:
		if floor%2 == 0 {
			return floor
		}
		return floor + 1
	case fracPart > halfFrac:
		return floor + 1
	default:
		return floor
	}
}

// Sqrt returns the greatest representable r such that r*r <= n under Mul's
// truncation. The format must have an even number of fractional bits.
// Panics on a negative operand.
func (n Number) Sqrt() Number {
	if n.Raw < 0 {
		panic(fmt.Sprintf("fixedpoint: Sqrt: negative operand %d (Q%d)", n.Raw, n.FracBits))
	}
	if n.FracBits%2 != 0 {
		panic(fmt.Sprintf("fixedpoint: Sqrt: odd fractional bit count %d", n.FracBits))
	}

	// sqrt(m * 2^-f) = (isqrt(m) * 2^(f/2)) * 2^-f, up to one unit of
	// isqrt truncation. The true mantissa lies between isqrt(m)<<f/2 and
	// (isqrt(m)+1)<<f/2; a dichotomic search finds the exact floor.
	base := int32(ISqrt(n.Raw)) << (n.FracBits / 2)

	left := int32(0)
	right := int32(1)<<(n.FracBits/2) - 1
	inflated := int64(n.Raw) << n.FracBits

	// Invariant: base+left never exceeds the true square root.
	for left != right {
		middle := (right + left) / 2
		candidate := base + middle
		squared := int64(candidate) * int64(candidate)

		if squared == inflated {
			return Number{Raw: candidate, FracBits: n.FracBits}
		}
		if squared < inflated {
			if left != middle {
				left = middle
			} else {
				// Only two values remain.
				candidate = base + right
				squared = int64(candidate) * int64(candidate)
				if squared < inflated {
					left = right
				} else {
					right = left
				}
			}
		} else {
			right = middle - 1
		}
	}
	return Number{Raw: base + left, FracBits: n.FracBits}
}

// Avg returns the arithmetic mean of nums. Panics on an empty slice.
func Avg(nums []Number) Number {
	if len(nums) == 0 {
		panic("fixedpoint: Avg: empty input")
	}
	sum := FromInt(0, nums[0].FracBits)
	for _, v := range nums {
		sum = sum.Add(v)
	}
	return sum.Div(FromInt(int32(len(nums)), sum.FracBits))
}

// Identity returns n unchanged. Used as a decode transform when the raw
// network output is already in the target domain.
func Identity(n Number) Number {
	return n
}

// Float32 converts n to a float32. Test and debug use only.
func (n Number) Float32() float32 {
	return float32(n.Raw) / float32(int32(1)<<n.FracBits)
}

// FromFloat32 converts f to the given format by truncation. Test and
// debug use only.
func FromFloat32(f float32, fracBits uint8) Number {
	return Number{Raw: int32(f * float32(int32(1)<<fracBits)), FracBits: fracBits}
}

// String renders n with its sign, integer part and fractional digits,
// trailing zeros trimmed.
func (n Number) String() string {
	var b strings.Builder
	raw := int64(n.Raw)
	if raw < 0 {
		b.WriteByte('-')
		raw = -raw
	}
	intPart := raw >> n.FracBits
	fracMask := int64(1)<<n.FracBits - 1
	fracPart := raw & fracMask

	fmt.Fprintf(&b, "%d", intPart)
	if fracPart > 0 {
		b.WriteByte('.')
		for fracPart > 0 {
			fracPart *= 10
			b.WriteByte(byte('0' + fracPart>>n.FracBits))
			fracPart &= fracMask
		}
	}
	return b.String()
}
