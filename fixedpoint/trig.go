package fixedpoint

import "fmt"

// Angle constants in the Q10 engine format.
var (
	// QuarterPi approximates pi/4.
	QuarterPi = Number{Raw: 804, FracBits: 10}
	// HalfPi approximates pi/2.
	HalfPi = Number{Raw: 1608, FracBits: 10}
	// Pi approximates pi.
	Pi = Number{Raw: 3217, FracBits: 10}
	// Tau approximates 2*pi.
	Tau = Number{Raw: 3217 * 2, FracBits: 10}
)

const cosLUTLen = 100

// Quarter-wave cosine samples over [0, pi/2] in Q10.
var cosLUT = [cosLUTLen]int32{
	1024, 1024, 1023, 1023, 1022, 1021, 1019, 1018, 1016,
	1014, 1011, 1008, 1005, 1002, 999, 995, 991, 987,
	983, 978, 973, 968, 962, 957, 951, 944, 938,
	931, 925, 917, 910, 903, 895, 887, 879, 870,
	861, 853, 843, 834, 825, 815, 805, 795, 784,
	774, 763, 752, 741, 730, 718, 707, 695, 683,
	671, 658, 646, 633, 620, 607, 594, 581, 567,
	554, 540, 526, 512, 498, 484, 469, 455, 440,
	425, 411, 396, 381, 365, 350, 335, 320, 304,
	288, 273, 257, 241, 226, 210, 194, 178, 162,
	146, 130, 113, 97, 81, 65, 49, 32, 16,
	0,
}

const acosLUTLen = 100

// Arc cosine samples over [0, 1] in Q10.
var acosLUT = [acosLUTLen]int32{
	1608, 1598, 1588, 1577, 1567, 1557, 1546, 1536, 1526,
	1515, 1505, 1494, 1484, 1474, 1463, 1453, 1442, 1432,
	1421, 1411, 1400, 1390, 1379, 1368, 1358, 1347, 1336,
	1326, 1315, 1304, 1293, 1282, 1271, 1261, 1250, 1238,
	1227, 1216, 1205, 1194, 1183, 1171, 1160, 1148, 1137,
	1125, 1114, 1102, 1090, 1078, 1066, 1054, 1042, 1030,
	1018, 1005, 993, 980, 968, 955, 942, 929, 916,
	902, 889, 875, 861, 847, 833, 819, 804, 790,
	775, 759, 744, 728, 712, 696, 679, 662, 645,
	627, 609, 590, 571, 551, 531, 509, 487, 464,
	440, 414, 387, 358, 327, 292, 253, 206, 146,
	0,
}

// Cos computes the cosine of x, in radians. The reduction and the LUT
// interpolation work in the Q10 engine format.
func (x Number) Cos() Number {
	fracBits := x.FracBits
	zero := FromInt(0, fracBits)

	// Bring x into [0, 2*pi).
	for x.Lt(zero) {
		x = x.Add(Tau)
	}
	for x.Ge(Tau) {
		x = x.Sub(Tau)
	}

	if x.Gt(Pi) {
		// cos(x) = -cos(x - pi)
		return x.Sub(Pi).Cos().Neg()
	}
	if x.Eq(HalfPi) {
		return zero
	}
	if x.Ge(HalfPi) {
		// cos(x) = -cos(pi - x)
		return Pi.Sub(x).Cos().Neg()
	}

	// 0 <= x < pi/2: interpolate between LUT samples.
	fpIndex := x.Div(HalfPi)
	fpIndex.Raw *= cosLUTLen - 1

	index := fpIndex.Floor()
	value1 := Number{Raw: cosLUT[index], FracBits: 10}
	value2 := Number{Raw: cosLUT[index+1], FracBits: 10}
	distance := value2.Sub(value1)
	ratio := fpIndex.Sub(FromInt(index, fracBits))

	return value1.Add(ratio.Mul(distance))
}

// Sin computes the sine of x, in radians.
func (x Number) Sin() Number {
	return x.Sub(HalfPi).Cos()
}

// Tan computes the tangent of x, in radians.
func (x Number) Tan() Number {
	return x.Sin().Div(x.Cos())
}

// Acos computes the arc cosine of x. Panics when x is outside [-1, 1].
func (x Number) Acos() Number {
	fracBits := x.FracBits
	zero := FromInt(0, fracBits)
	one := FromInt(1, fracBits)

	if !x.Between(one.Neg(), one) {
		panic(fmt.Sprintf("fixedpoint: Acos: %d (Q%d) outside [-1, 1]", x.Raw, fracBits))
	}

	if x.Lt(zero) {
		// acos(x) = pi - acos(-x)
		return Pi.Sub(x.Neg().Acos())
	}
	if x.Eq(one) {
		return zero
	}

	fpIndex := Number{Raw: x.Raw * (acosLUTLen - 1), FracBits: fracBits}
	index := fpIndex.Floor()

	value1 := Number{Raw: acosLUT[index], FracBits: 10}
	value2 := Number{Raw: acosLUT[index+1], FracBits: 10}
	distance := value2.Sub(value1)
	ratio := fpIndex.Sub(FromInt(index, fracBits))

	return value1.Add(ratio.Mul(distance))
}

// Asin computes the arc sine of x. Panics when x is outside [-1, 1].
func (x Number) Asin() Number {
	one := FromInt(1, x.FracBits)
	if !x.Between(one.Neg(), one) {
		panic(fmt.Sprintf("fixedpoint: Asin: %d (Q%d) outside [-1, 1]", x.Raw, x.FracBits))
	}
	// asin(x) = pi/2 - acos(x)
	return HalfPi.Sub(x.Acos())
}

// Atan computes the arc tangent of x using the rational approximation of
// Rajan, Wang, Inkol & Joyal (2006) on [0, 1], with reciprocal and sign
// reductions for the rest of the domain:
//
//	atan(x) = pi/4*x - x*(|x| - 1)*(0.2447 + 0.0663*|x|)
func (x Number) Atan() Number {
	fracBits := x.FracBits
	one := FromInt(1, fracBits)
	zero := FromInt(0, fracBits)

	if x.Lt(zero) {
		return x.Neg().Atan().Neg()
	}
	if x.Gt(one) {
		// atan(x) = pi/2 - atan(1/x)
		return HalfPi.Sub(one.Div(x).Atan())
	}

	return QuarterPi.Mul(x).Sub(
		x.Mul(
			x.Abs().Sub(one).Mul(
				New(2447, 10000, fracBits).Add(
					New(663, 10000, fracBits).Mul(x.Abs())))))
}

// Atan2 computes the direct angle between vector (1, 0) and (x, y).
// The (0, 0) case returns 0 by convention.
func Atan2(y, x Number) Number {
	fracBits := x.FracBits
	zero := FromInt(0, fracBits)

	switch {
	case x.Eq(zero):
		if y.Eq(zero) {
			return zero
		}
		if y.Gt(zero) {
			return HalfPi
		}
		return HalfPi.Neg()
	case x.Gt(zero):
		return y.Div(x).Atan()
	default:
		if y.Ge(zero) {
			return y.Div(x).Atan().Add(Pi)
		}
		return y.Div(x).Atan().Sub(Pi)
	}
}

// Sigmoid approximates 1 / (1 + e^-x) as 325/1024 * (atan(x) + pi/2).
// The approximation is coarse but the trained confidence thresholds were
// calibrated against it, so it must stay exactly as is.
func (x Number) Sigmoid() Number {
	scale := Interpret(325, 10)
	return x.Atan().Add(HalfPi).Mul(scale)
}

// SigmoidWithParams computes Sigmoid(x*a + b).
func (x Number) SigmoidWithParams(a, b Number) Number {
	return x.Mul(a).Add(b).Sigmoid()
}

// RadiansToDegrees converts an angle from radians to degrees.
func RadiansToDegrees(radians Number) Number {
	return radians.Mul(FromInt(360, radians.FracBits)).Div(Tau)
}

// DegreesToRadians converts an angle from degrees to radians.
func DegreesToRadians(degrees Number) Number {
	return degrees.Mul(Tau).Div(FromInt(360, degrees.FracBits))
}
