package postprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aicam-labs/go-postprocess/fixedpoint"
	"github.com/aicam-labs/go-postprocess/geometry"
)

func fp(n int32) fixedpoint.Number {
	return fixedpoint.FromInt(n, 10)
}

func box(left, top, right, bottom int32) geometry.Box {
	return geometry.NewBox(fp(left), fp(top), fp(right), fp(bottom))
}

func TestFilterOutBelowThreshold(t *testing.T) {
	indices := []int{10, 11, 12, 13, 14}
	scores := []fixedpoint.Number{fp(5), fp(1), fp(3), fp(2), fp(4)}

	n := FilterOutBelowThreshold(fp(2), indices, scores)
	require.Equal(t, 3, n)

	// Survivors are exactly the entries scoring above the threshold,
	// order unspecified.
	kept := map[int]bool{}
	for i := 0; i < n; i++ {
		assert.True(t, scores[i].Gt(fp(2)))
		kept[indices[i]] = true
	}
	assert.Equal(t, map[int]bool{10: true, 12: true, 14: true}, kept)
}

func TestFilterOutBelowThresholdDropsEqual(t *testing.T) {
	indices := []int{0}
	scores := []fixedpoint.Number{fp(2)}
	assert.Equal(t, 0, FilterOutBelowThreshold(fp(2), indices, scores))
}

func TestNMSSuppressesHighOverlap(t *testing.T) {
	// IoU 0.9, above threshold 0.5: only the higher confidence survives.
	indices := []int{0, 1}
	scores := []fixedpoint.Number{fp(3), fp(7)}
	boxes := []geometry.Box{box(0, 0, 10, 10), box(0, 0, 10, 9)}

	n := FilterOutBelowIoUThreshold(fixedpoint.New(1, 2, 10), indices, scores, boxes)
	require.Equal(t, 1, n)
	assert.Equal(t, 1, indices[0])
	assert.Equal(t, fp(7), scores[0])
	assert.Equal(t, box(0, 0, 10, 9), boxes[0])
}

func TestNMSKeepsLowOverlap(t *testing.T) {
	indices := []int{0, 1}
	scores := []fixedpoint.Number{fp(3), fp(7)}
	boxes := []geometry.Box{box(0, 0, 10, 10), box(9, 9, 19, 19)}

	n := FilterOutBelowIoUThreshold(fixedpoint.New(1, 2, 10), indices, scores, boxes)
	assert.Equal(t, 2, n)
}

func TestNMSChain(t *testing.T) {
	// Three mutually overlapping boxes collapse to the best one.
	indices := []int{0, 1, 2}
	scores := []fixedpoint.Number{fp(3), fp(9), fp(5)}
	boxes := []geometry.Box{
		box(0, 0, 10, 10),
		box(0, 0, 10, 10),
		box(0, 0, 10, 10),
	}

	n := FilterOutBelowIoUThreshold(fixedpoint.New(1, 2, 10), indices, scores, boxes)
	require.Equal(t, 1, n)
	assert.Equal(t, fp(9), scores[0])
}

func TestSameClassNMS(t *testing.T) {
	// Identical boxes of different classes never suppress each other.
	indices := []int{0, 1, 2}
	scores := []fixedpoint.Number{fp(3), fp(7), fp(5)}
	boxes := []geometry.Box{
		box(0, 0, 10, 10),
		box(0, 0, 10, 10),
		box(0, 0, 10, 10),
	}
	classes := []int32{1, 2, 1}

	n := FilterOutSameClassBelowIoUThreshold(
		fixedpoint.New(1, 2, 10), indices, scores, boxes, classes)
	require.Equal(t, 2, n)

	kept := map[int32]fixedpoint.Number{}
	for i := 0; i < n; i++ {
		kept[classes[i]] = scores[i]
	}
	assert.Equal(t, fp(5), kept[1])
	assert.Equal(t, fp(7), kept[2])
}

func TestMatchBoxes(t *testing.T) {
	centerDistance := func(a, b geometry.Box) int16 {
		return int16(geometry.VectorBetween(a.Center(), b.Center()).Norm().Round())
	}

	list1 := []geometry.Box{
		box(0, 0, 10, 10),
		box(100, 0, 110, 10),
		box(500, 500, 510, 510),
	}
	list2 := []geometry.Box{
		box(101, 1, 111, 11), // near list1[1]
		box(1, 1, 11, 11),    // near list1[0]
	}

	assignment := MatchBoxes(list1, list2, centerDistance, 50)
	assert.Equal(t, []int{1, 0, NoAssignment}, assignment)
}

func TestMatchBoxesOneToOne(t *testing.T) {
	centerDistance := func(a, b geometry.Box) int16 {
		return int16(geometry.VectorBetween(a.Center(), b.Center()).Norm().Round())
	}

	// Both boxes of list1 prefer the single list2 box; only the closer
	// one gets it.
	list1 := []geometry.Box{box(0, 0, 10, 10), box(2, 0, 12, 10)}
	list2 := []geometry.Box{box(3, 0, 13, 10)}

	assignment := MatchBoxes(list1, list2, centerDistance, 50)
	assert.Equal(t, []int{NoAssignment, 0}, assignment)
}

func TestMatchBoxesEmpty(t *testing.T) {
	assignment := MatchBoxes([]geometry.Box{box(0, 0, 1, 1)}, nil, nil, 0)
	assert.Equal(t, []int{NoAssignment}, assignment)
	assert.Empty(t, MatchBoxes(nil, nil, nil, 0))
}
