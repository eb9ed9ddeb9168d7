package detectors

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aicam-labs/go-postprocess/fixedpoint"
)

// newObjectTensors builds per-scale coordinate and score tensors for the
// given class count, with every cell scoring well below threshold.
func newObjectTensors(classes int) (coords, scores [][]int16) {
	coords = make([][]int16, objectScaleCount)
	scores = make([][]int16, objectScaleCount)
	for s, grid := range objectGrids {
		planeSize := int(grid.Width * grid.Height)
		coords[s] = make([]int16, planeSize*4)
		scores[s] = make([]int16, planeSize*(1+classes))
		for i := 0; i < planeSize; i++ {
			scores[s][i] = -2 << 10
		}
	}
	return coords, scores
}

func newTestObjectDetector(t *testing.T) *ObjectDetector {
	d, err := NewObjectDetector(ObjectConfig{
		Classes:             2,
		MaxBoxes:            12,
		ConfidenceThreshold: fixedpoint.New(1, 2, 10),
		IoUThreshold:        fixedpoint.New(1, 2, 10),
	})
	require.NoError(t, err)
	return d
}

func TestNewObjectDetectorRejectsBadConfig(t *testing.T) {
	_, err := NewObjectDetector(ObjectConfig{Classes: 0, MaxBoxes: 10})
	assert.Error(t, err)
	_, err = NewObjectDetector(ObjectConfig{Classes: 3, MaxBoxes: 0})
	assert.Error(t, err)
}

func TestObjectDetectRejectsMalformedTensors(t *testing.T) {
	d := newTestObjectDetector(t)

	coords, scores := newObjectTensors(2)
	_, err := d.Detect(coords[:2], scores)
	assert.Error(t, err)

	coords, scores = newObjectTensors(2)
	coords[1] = coords[1][:10]
	_, err = d.Detect(coords, scores)
	assert.Error(t, err)

	coords, scores = newObjectTensors(3)
	_, err = d.Detect(coords, scores)
	assert.Error(t, err)
}

func TestObjectDetectEmptyFrame(t *testing.T) {
	d := newTestObjectDetector(t)

	coords, scores := newObjectTensors(2)
	objects, err := d.Detect(coords, scores)
	require.NoError(t, err)
	assert.Empty(t, objects)
}

// Three detections across the scales: the coarse and middle scale see
// the same class-1 object and collapse to the stronger coarse one; the
// fine scale contributes a disjoint class-0 object.
func TestObjectDetectMergesScalesPerClass(t *testing.T) {
	d := newTestObjectDetector(t)
	coords, scores := newObjectTensors(2)

	setCell := func(scale, cell int, dl, dt, dr, db, confidence int16, class int, logit int16) {
		planeSize := int(objectGrids[scale].Width * objectGrids[scale].Height)
		coords[scale][planeSize*0+cell] = dl
		coords[scale][planeSize*1+cell] = dt
		coords[scale][planeSize*2+cell] = dr
		coords[scale][planeSize*3+cell] = db
		scores[scale][cell] = confidence
		scores[scale][planeSize*(1+class)+cell] = logit
	}

	// Coarse scale, cell (row 1, col 2): center (80, 48), unit deltas
	// scaled by 12 give the box (68, 36, 92, 60).
	setCell(0, 2+1*12, 1<<10, 1<<10, 1<<10, 1<<10, 2<<10, 1, 2<<10)

	// Middle scale, cell (row 3, col 5): center (88, 56), deltas chosen
	// to decode to near-exactly the same box, same class, lower score.
	setCell(1, 5+3*24, 1707, 1707, 341, 341, 1<<10, 1, 2<<10)

	// Fine scale, cell (row 10, col 10): center (84, 84), half deltas
	// give the disjoint box (78, 78, 90, 90), class 0.
	setCell(2, 10+10*48, 1<<9, 1<<9, 1<<9, 1<<9, 2<<10, 0, 2<<10)

	objects, err := d.Detect(coords, scores)
	require.NoError(t, err)
	require.Len(t, objects, 2)

	var class0, class1 *Object
	for i := range objects {
		switch objects[i].Class {
		case 0:
			class0 = &objects[i]
		case 1:
			class1 = &objects[i]
		}
	}
	require.NotNil(t, class0)
	require.NotNil(t, class1)

	// The coarse detection won the duplicate pair. Coordinates stay in
	// the network input frame and the unit deltas decode exactly.
	assert.InDelta(t, 0.853, class1.Confidence.Float32(), 0.05)
	assert.Empty(t, cmp.Diff(intBox(68, 36, 92, 60), class1.Box))
	// Class 1 took 0.853 of the sigmoid mass against 0.5 for class 0.
	assert.InDelta(t, 0.63, class1.ClassConfidence.Float32(), 0.03)

	assert.Empty(t, cmp.Diff(intBox(78, 78, 90, 90), class0.Box))
}
