package headpose

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aicam-labs/go-postprocess/fixedpoint"
	"github.com/aicam-labs/go-postprocess/matrix"
)

func angles(pitch, roll, yaw float32) EulerAngles {
	return EulerAngles{
		Pitch: fixedpoint.FromFloat32(pitch, 10),
		Roll:  fixedpoint.FromFloat32(roll, 10),
		Yaw:   fixedpoint.FromFloat32(yaw, 10),
	}
}

func TestEulerAnglesToRotationMatrixAgainstFloatReference(t *testing.T) {
	pitch, roll, yaw := float32(0.3), float32(-0.2), float32(0.5)

	rot := matrix.New(3, 3, 10)
	EulerAnglesToRotationMatrix(angles(pitch, roll, yaw), rot)

	cos1, sin1 := math32.Cos(yaw), math32.Sin(yaw)
	cos2, sin2 := math32.Cos(pitch), math32.Sin(pitch)
	cos3, sin3 := math32.Cos(roll), math32.Sin(roll)

	want := [3][3]float32{
		{cos1*cos3 + sin1*sin2*sin3, cos3*sin1*sin2 - cos1*sin3, cos2 * sin1},
		{cos2 * sin3, cos2 * cos3, -sin2},
		{cos1*sin2*sin3 - cos3*sin1, cos1*cos3*sin2 + sin1*sin3, cos1 * cos2},
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			assert.InDelta(t, want[i][j], rot.Get(i, j).Float32(), 0.02,
				"element %d,%d", i, j)
		}
	}
}

func TestIdentityMatrixGivesZeroAngles(t *testing.T) {
	rot := matrix.New(3, 3, 10)
	rot.InitDiagonal(fixedpoint.FromInt(1, 10))

	euler := RotationMatrixToEulerAngles(rot)
	assert.Equal(t, int32(0), euler.Pitch.Raw)
	assert.Equal(t, int32(0), euler.Roll.Raw)
	assert.Equal(t, int32(0), euler.Yaw.Raw)
}

func TestEulerRoundTrip(t *testing.T) {
	tests := []struct {
		name             string
		pitch, roll, yaw float32
	}{
		{"small angles", 0.1, -0.15, 0.2},
		{"mixed signs", -0.4, 0.3, -0.25},
		{"larger pitch", 0.8, 0.1, 0.5},
		{"yaw only", 0, 0, 1.0},
		{"pitch only", -0.9, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rot := matrix.New(3, 3, 10)
			EulerAnglesToRotationMatrix(angles(tt.pitch, tt.roll, tt.yaw), rot)
			got := RotationMatrixToEulerAngles(rot)

			assert.InDelta(t, tt.pitch, got.Pitch.Float32(), 0.05)
			assert.InDelta(t, tt.roll, got.Roll.Float32(), 0.05)
			assert.InDelta(t, tt.yaw, got.Yaw.Float32(), 0.05)
		})
	}
}

func TestGimbalLockForcesZeroRoll(t *testing.T) {
	// At pitch -pi/2 roll and yaw act on the same axis: the extraction
	// reports their sum as yaw and zero roll.
	roll, yaw := float32(0.2), float32(0.3)
	euler := EulerAngles{
		Pitch: fixedpoint.HalfPi.Neg(),
		Roll:  fixedpoint.FromFloat32(roll, 10),
		Yaw:   fixedpoint.FromFloat32(yaw, 10),
	}

	rot := matrix.New(3, 3, 10)
	EulerAnglesToRotationMatrix(euler, rot)
	require.True(t, rot.Get(1, 2).Gt(fixedpoint.New(998, 1000, 10)))

	got := RotationMatrixToEulerAngles(rot)
	assert.Equal(t, int32(0), got.Roll.Raw)
	assert.Equal(t, fixedpoint.HalfPi.Neg().Raw, got.Pitch.Raw)
	assert.InDelta(t, roll+yaw, got.Yaw.Float32(), 0.05)
}

func TestRotationMatrixToEulerAnglesShapeContract(t *testing.T) {
	assert.Panics(t, func() {
		RotationMatrixToEulerAngles(matrix.New(2, 3, 10))
	})
	assert.Panics(t, func() {
		EulerAnglesToRotationMatrix(EulerAngles{}, matrix.New(3, 1, 10))
	})
}
