package postprocess

import (
	"github.com/aicam-labs/go-postprocess/fixedpoint"
	"github.com/aicam-labs/go-postprocess/geometry"
)

// FilterOutBelowThreshold drops every entry whose score is less than or
// equal to threshold, compacting indices and scores in place by swapping
// the last entry into the freed slot. Order is not preserved. Returns
// the number of surviving entries; both slices must share a length.
func FilterOutBelowThreshold(threshold fixedpoint.Number, indices []int, scores []fixedpoint.Number) int {
	size := len(indices)
	i := 0
	for i < size {
		if scores[i].Le(threshold) {
			scores[i] = scores[size-1]
			indices[i] = indices[size-1]
			size--
			// The moved entry still has to be tested, so i stays put.
		} else {
			i++
		}
	}
	return size
}

// FilterOutBelowIoUThreshold performs greedy non-max suppression: for
// every pair of boxes whose IoU reaches iouThreshold, the lower-scoring
// one is removed and the winner takes its slot. indices, scores and
// boxes are compacted in place; returns the surviving count.
func FilterOutBelowIoUThreshold(
	iouThreshold fixedpoint.Number,
	indices []int,
	scores []fixedpoint.Number,
	boxes []geometry.Box,
) int {
	return suppressDuplicates(iouThreshold, len(indices), indices, scores, boxes, nil, true)
}

// FilterOutSameClassBelowIoUThreshold is FilterOutBelowIoUThreshold
// restricted to pairs sharing a class; boxes of different classes never
// suppress each other.
func FilterOutSameClassBelowIoUThreshold(
	iouThreshold fixedpoint.Number,
	indices []int,
	scores []fixedpoint.Number,
	boxes []geometry.Box,
	classes []int32,
) int {
	return suppressDuplicates(iouThreshold, len(indices), indices, scores, boxes, classes, false)
}

func suppressDuplicates(
	iouThreshold fixedpoint.Number,
	size int,
	indices []int,
	scores []fixedpoint.Number,
	boxes []geometry.Box,
	classes []int32,
	compareDifferentClasses bool,
) int {
	index1 := 0
	for index1 < size {
		box1 := boxes[index1]

		index2 := index1 + 1
		for index2 < size {
			if !compareDifferentClasses && classes[index1] != classes[index2] {
				index2++
				continue
			}

			iou := box1.IoU(boxes[index2])
			if iou.Lt(iouThreshold) {
				index2++
				continue
			}

			// The pair is a duplicate; the higher score wins.
			winner := index1
			if scores[index2].Gt(scores[index1]) {
				winner = index2
			}

			// The winner takes the first slot. Remaining comparisons in
			// this pass still run against the original box1.
			indices[index1] = indices[winner]
			scores[index1] = scores[winner]
			boxes[index1] = boxes[winner]

			// The last entry backfills the loser's slot and is tested
			// on the next iteration.
			indices[index2] = indices[size-1]
			scores[index2] = scores[size-1]
			boxes[index2] = boxes[size-1]

			if !compareDifferentClasses {
				classes[index1] = classes[winner]
				classes[index2] = classes[size-1]
			}

			size--
		}
		index1++
	}
	return size
}
