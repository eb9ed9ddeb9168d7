// Package postprocess - the selection and deduplication pipeline shared
// by the detection heads: bounded top-K selection over raw scores,
// confidence threshold filtering, greedy IoU suppression and the
// anchor-based decode orchestration.
package postprocess

// partition groups indices[left:right+1] around the score of the pivot
// entry. With descending set, entries scoring higher than the pivot end
// up on the left; ascending puts lower scores on the left. Scores are
// looked up through the indices, so the score slice is never reordered.
func partition(indices []int, scores []int16, left, right, pivot int, descending bool) int {
	pivotValue := scores[indices[pivot]]
	indices[pivot], indices[right] = indices[right], indices[pivot]

	storeIndex := left
	for i := left; i <= right; i++ {
		v := scores[indices[i]]
		if (descending && v > pivotValue) || (!descending && v < pivotValue) {
			indices[storeIndex], indices[i] = indices[i], indices[storeIndex]
			storeIndex++
		}
	}
	indices[storeIndex], indices[right] = indices[right], indices[storeIndex]
	return storeIndex
}

// QuickSelect partially orders indices so that its first k entries are
// the k highest-scoring ones, in unspecified order among themselves.
// Expected linear time; a no-op when k covers the whole slice.
func QuickSelect(indices []int, scores []int16, k int) {
	left := 0
	right := len(indices) - 1

	if right-left+1 <= k {
		return
	}

	for {
		if left == right {
			return
		}

		pivot := left + (right-left)/2
		pivot = partition(indices, scores, left, right, pivot, true)

		switch {
		case k == pivot:
			return
		case k < pivot:
			right = pivot - 1
		default:
			left = pivot + 1
		}
	}
}

// QuickSort orders indices by ascending score.
func QuickSort(indices []int, scores []int16) {
	if len(indices) > 0 {
		quickSort(indices, scores, 0, len(indices)-1)
	}
}

func quickSort(indices []int, scores []int16, left, right int) {
	if left >= right {
		return
	}
	pivot := left + (right-left)/2
	pivot = partition(indices, scores, left, right, pivot, false)

	quickSort(indices, scores, left, pivot-1)
	quickSort(indices, scores, pivot+1, right)
}
