package postprocess

import (
	"github.com/aicam-labs/go-postprocess/geometry"
)

// BoxMatcher scores how well two boxes match; lower is better.
type BoxMatcher func(a, b geometry.Box) int16

// NoAssignment marks an unmatched box in a MatchBoxes result.
const NoAssignment = -1

// MatchBoxes greedily assigns each box of list1 to at most one box of
// list2. All pairs are scored with matcher, sorted by ascending score,
// and consumed best-first; pairs scoring above threshold and pairs whose
// boxes were already assigned are skipped. The result maps each list1
// position to its list2 partner, or NoAssignment.
func MatchBoxes(list1, list2 []geometry.Box, matcher BoxMatcher, threshold int16) []int {
	assignment := make([]int, len(list1))
	for i := range assignment {
		assignment[i] = NoAssignment
	}

	pairCount := len(list1) * len(list2)
	if pairCount == 0 {
		return assignment
	}

	type pair struct{ a, b int }
	pairs := make([]pair, pairCount)
	values := make([]int16, pairCount)
	indices := make([]int, pairCount)

	index := 0
	for i := range list1 {
		for j := range list2 {
			indices[index] = index
			pairs[index] = pair{a: i, b: j}
			values[index] = matcher(list1[i], list2[j])
			index++
		}
	}

	QuickSort(indices, values)

	usedA := make([]bool, len(list1))
	usedB := make([]bool, len(list2))
	for _, idx := range indices {
		if values[idx] > threshold {
			break
		}
		p := pairs[idx]
		if usedA[p.a] || usedB[p.b] {
			continue
		}
		assignment[p.a] = p.b
		usedA[p.a] = true
		usedB[p.b] = true
	}
	return assignment
}
