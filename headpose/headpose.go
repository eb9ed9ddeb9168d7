// Package headpose - conversion between Euler angles and 3x3 rotation
// matrices in fixed point.
//
// Pitch, roll and yaw are rotations around the x, z and y axes, applied
// in the order roll, then pitch, then yaw.
package headpose

import (
	"fmt"

	"github.com/aicam-labs/go-postprocess/fixedpoint"
	"github.com/aicam-labs/go-postprocess/matrix"
)

// EulerAngles is a head orientation as a pitch/roll/yaw triple, in
// radians.
type EulerAngles struct {
	Pitch fixedpoint.Number
	Roll  fixedpoint.Number
	Yaw   fixedpoint.Number
}

func check3x3(op string, m matrix.Matrix) {
	if m.Rows != 3 || m.Cols != 3 {
		panic(fmt.Sprintf("headpose: %s: want a 3x3 matrix, got %dx%d", op, m.Rows, m.Cols))
	}
}

// RotationMatrixToEulerAngles extracts the Euler angles from a rotation
// matrix. Near gimbal lock, when |m[1][2]| exceeds 0.998, pitch is
// forced to -pi/2, roll to zero and yaw is derived from m[0][1] and
// m[0][0] alone; the extraction cannot separate roll from yaw there.
func RotationMatrixToEulerAngles(rot matrix.Matrix) EulerAngles {
	check3x3("RotationMatrixToEulerAngles", rot)

	fracBits := rot.FracBits
	zero := fixedpoint.FromInt(0, fracBits)
	upper := fixedpoint.New(998, 1000, fracBits)
	lower := fixedpoint.New(-998, 1000, fracBits)

	m12 := rot.Get(1, 2)
	if m12.Gt(upper) || m12.Lt(lower) {
		return EulerAngles{
			Pitch: fixedpoint.HalfPi.Rescale(fracBits).Neg(),
			Roll:  zero,
			Yaw:   fixedpoint.Atan2(rot.Get(0, 1), rot.Get(0, 0)).Neg(),
		}
	}

	return EulerAngles{
		Pitch: m12.Neg().Asin(),
		Roll:  fixedpoint.Atan2(rot.Get(1, 0), rot.Get(1, 1)),
		Yaw:   fixedpoint.Atan2(rot.Get(0, 2), rot.Get(2, 2)),
	}
}

// EulerAnglesToRotationMatrix composes the rotation matrix for the
// given angles into rot, a 3x3 matrix sharing the angles' format.
func EulerAnglesToRotationMatrix(euler EulerAngles, rot matrix.Matrix) {
	check3x3("EulerAnglesToRotationMatrix", rot)

	cos1 := euler.Yaw.Cos()
	cos2 := euler.Pitch.Cos()
	cos3 := euler.Roll.Cos()
	sin1 := euler.Yaw.Sin()
	sin2 := euler.Pitch.Sin()
	sin3 := euler.Roll.Sin()

	rot.Set(0, 0, cos1.Mul(cos3).Add(sin1.Mul(sin2).Mul(sin3)))
	rot.Set(0, 1, cos3.Mul(sin1).Mul(sin2).Sub(cos1.Mul(sin3)))
	rot.Set(0, 2, cos2.Mul(sin1))
	rot.Set(1, 0, cos2.Mul(sin3))
	rot.Set(1, 1, cos2.Mul(cos3))
	rot.Set(1, 2, sin2.Neg())
	rot.Set(2, 0, cos1.Mul(sin2).Mul(sin3).Sub(cos3.Mul(sin1)))
	rot.Set(2, 1, cos1.Mul(cos3).Mul(sin2).Add(sin1.Mul(sin3)))
	rot.Set(2, 2, cos1.Mul(cos2))
}
