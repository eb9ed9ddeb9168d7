package postprocess

import (
	"fmt"

	"github.com/aicam-labs/go-postprocess/anchors"
	"github.com/aicam-labs/go-postprocess/fixedpoint"
	"github.com/aicam-labs/go-postprocess/geometry"
)

func checkCapacity(op string, need int, indices []int, confidences []fixedpoint.Number, boxes []geometry.Box) {
	if len(indices) < need || len(confidences) < need || len(boxes) < need {
		panic(fmt.Sprintf(
			"postprocess: %s: output buffers hold %d/%d/%d entries, need %d",
			op, len(indices), len(confidences), len(boxes), need))
	}
}

// AnchorBasedDetection postprocesses the raw output of an anchor-based
// detection model. It selects at most maxBoxes grid cells with the
// highest raw confidence, decodes and threshold-filters their
// confidence scores, decodes the surviving bounding boxes and suppresses
// duplicates by IoU. An nmsIoUThreshold of 1 or more disables the
// suppression pass.
//
// The selected grid indices, confidences and boxes are written to the
// caller's buffers, which must hold min(maxBoxes, nbOutputs) entries;
// the returned count is how many were kept. Boxes with the highest
// confidence scores are guaranteed to be among the selected ones.
func AnchorBasedDetection(
	nbOutputs int,
	confidenceConfig anchors.ScoreConfig,
	boxConfig anchors.BoxConfig,
	maxBoxes int,
	confidenceThreshold fixedpoint.Number,
	nmsIoUThreshold fixedpoint.Number,
	indices []int,
	confidences []fixedpoint.Number,
	boxes []geometry.Box,
) int {
	maxIndex := maxBoxes
	if nbOutputs < maxBoxes {
		maxIndex = nbOutputs
	}
	checkCapacity("AnchorBasedDetection", maxIndex, indices, confidences, boxes)

	current := make([]int, nbOutputs)
	for i := range current {
		current[i] = i
	}

	// The maxIndex first entries of current are now the ones with the
	// greatest raw confidence scores.
	QuickSelect(current, confidenceConfig.Data, maxIndex)

	confidenceConfig.RawToFP(current[:maxIndex], confidences)

	nbBoxes := FilterOutBelowThreshold(
		confidenceThreshold, current[:maxIndex], confidences[:maxIndex])

	boxConfig.RawToBoundingBoxes(current[:nbBoxes], boxes)

	one := fixedpoint.FromInt(1, nmsIoUThreshold.FracBits)
	if nmsIoUThreshold.Lt(one) {
		nbBoxes = FilterOutBelowIoUThreshold(
			nmsIoUThreshold, current[:nbBoxes], confidences[:nbBoxes], boxes[:nbBoxes])
	}

	copy(indices, current[:nbBoxes])
	return nbBoxes
}

// CompactModel postprocesses a compact face model whose output carries
// separate face and no-face probability logits next to the confidence
// channel. Cells where the no-face logit reaches the face logit have
// their raw confidence gated to zero before the top-K selection, so they
// can only survive a non-positive confidence threshold. The rest of the
// pipeline matches AnchorBasedDetection, except the IoU suppression pass
// always runs.
func CompactModel(
	nbOutputs int,
	confidenceConfig anchors.ScoreConfig,
	boxConfig anchors.BoxConfig,
	faceProb anchors.ScoreConfig,
	noFaceProb anchors.ScoreConfig,
	maxBoxes int,
	confidenceThreshold fixedpoint.Number,
	nmsIoUThreshold fixedpoint.Number,
	indices []int,
	confidences []fixedpoint.Number,
	boxes []geometry.Box,
) int {
	maxIndex := maxBoxes
	if nbOutputs < maxBoxes {
		maxIndex = nbOutputs
	}
	checkCapacity("CompactModel", maxIndex, indices, confidences, boxes)

	current := make([]int, nbOutputs)
	rawConf := make([]int16, nbOutputs)
	for i := range current {
		current[i] = i
		if faceProb.Data[i] > noFaceProb.Data[i] {
			rawConf[i] = confidenceConfig.Data[i]
		}
	}

	QuickSelect(current, rawConf, maxIndex)

	confidenceConfig.RawToFP(current[:maxIndex], confidences)

	nbBoxes := FilterOutBelowThreshold(
		confidenceThreshold, current[:maxIndex], confidences[:maxIndex])

	boxConfig.RawToBoundingBoxes(current[:nbBoxes], boxes)

	nbBoxes = FilterOutBelowIoUThreshold(
		nmsIoUThreshold, current[:nbBoxes], confidences[:nbBoxes], boxes[:nbBoxes])

	copy(indices, current[:nbBoxes])
	return nbBoxes
}
