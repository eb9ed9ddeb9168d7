package detectors

import (
	"github.com/pkg/errors"

	"github.com/aicam-labs/go-postprocess/anchors"
	"github.com/aicam-labs/go-postprocess/fixedpoint"
	"github.com/aicam-labs/go-postprocess/geometry"
	"github.com/aicam-labs/go-postprocess/postprocess"
)

const (
	personInputWidth  = 256
	personInputHeight = 144

	personChannelsPerScale = 7

	// PersonCap bounds the number of persons a single frame can yield.
	PersonCap = 40
)

// Person channel plane order within each scale block. The head is
// anchor-free: the four delta channels measure the distance from the
// cell center to each box edge.
const (
	personChannelDeltaX1     = 0
	personChannelDeltaY1     = 1
	personChannelDeltaX2     = 2
	personChannelDeltaY2     = 3
	personChannelConfidence  = 4
	personChannelFrontal     = 5
	personChannelNonFrontal  = 6
)

// The output tensor carries the 16x9 scale block first, the 32x18 block
// right after it.
var personGrids = [2]geometry.PixelDimensions{
	{Width: 16, Height: 9},
	{Width: 32, Height: 18},
}

// PersonConfig configures a PersonDetector.
type PersonConfig struct {
	// SourceWidth and SourceHeight are the dimensions of the source
	// image the detections are remapped into.
	SourceWidth  int32
	SourceHeight int32

	// ConfidenceThreshold drops detections scoring at or below it.
	// Zero value selects the production default of 0.55.
	ConfidenceThreshold fixedpoint.Number

	// NMSIoUThreshold merges detections overlapping at or above it in
	// the cross-scale pass. Zero value selects the production default
	// of 0.40.
	NMSIoUThreshold fixedpoint.Number
}

// Person is one detected person in source image coordinates.
type Person struct {
	Confidence fixedpoint.Number
	Box        geometry.Box

	// Frontal reports whether the frontal logit beat the non-frontal
	// one; the two raw scores come along for downstream consumers.
	Frontal              bool
	FrontalConfidence    fixedpoint.Number
	NonFrontalConfidence fixedpoint.Number
}

// PersonDetector postprocesses the two-scale person detection network
// output.
type PersonDetector struct {
	confidenceThreshold fixedpoint.Number
	nmsIoUThreshold     fixedpoint.Number

	mapX func(fixedpoint.Number) fixedpoint.Number
	mapY func(fixedpoint.Number) fixedpoint.Number
}

// NewPersonDetector validates the configuration and builds a detector.
func NewPersonDetector(cfg PersonConfig) (*PersonDetector, error) {
	if cfg.SourceWidth <= 0 || cfg.SourceHeight <= 0 {
		return nil, errors.Errorf(
			"detectors: person: invalid source dimensions %dx%d",
			cfg.SourceWidth, cfg.SourceHeight)
	}

	f := fixedpoint.MLEngineFracBits
	d := &PersonDetector{
		confidenceThreshold: cfg.ConfidenceThreshold,
		nmsIoUThreshold:     cfg.NMSIoUThreshold,
		mapX: fixedpoint.Mapping(
			fixedpoint.NewRange(fixedpoint.FromInt(0, f), fixedpoint.FromInt(personInputWidth, f)),
			fixedpoint.NewRange(fixedpoint.FromInt(0, f), fixedpoint.FromInt(cfg.SourceWidth, f))),
		mapY: fixedpoint.Mapping(
			fixedpoint.NewRange(fixedpoint.FromInt(0, f), fixedpoint.FromInt(personInputHeight, f)),
			fixedpoint.NewRange(fixedpoint.FromInt(0, f), fixedpoint.FromInt(cfg.SourceHeight, f))),
	}
	if d.confidenceThreshold.Raw == 0 {
		d.confidenceThreshold = fixedpoint.New(55, 100, f)
	}
	if d.nmsIoUThreshold.Raw == 0 {
		d.nmsIoUThreshold = fixedpoint.New(40, 100, f)
	}
	return d, nil
}

func personTensorSize() int {
	size := 0
	for _, grid := range personGrids {
		size += int(grid.Width*grid.Height) * personChannelsPerScale
	}
	return size
}

// gridCoordinatesToAnchor places the anchor at the center of its grid
// cell, with zero dimensions: the head is anchor-free.
func personGridCoordinatesToAnchor(grid geometry.PixelDimensions) anchors.ToAnchorFunc {
	f := fixedpoint.MLEngineFracBits
	strideX := fixedpoint.FromInt(personInputWidth/grid.Width, f)
	strideY := fixedpoint.FromInt(personInputHeight/grid.Height, f)
	half := fixedpoint.New(1, 2, f)

	return func(coords anchors.GridCoords) anchors.Anchor {
		return anchors.Anchor{
			Center: geometry.NewPoint(
				strideX.Mul(half).Add(strideX.Mul(fixedpoint.FromInt(coords.Col, f))),
				strideY.Mul(half).Add(strideY.Mul(fixedpoint.FromInt(coords.Row, f)))),
		}
	}
}

func personRawToBoundingBox(dx1, dy1, dx2, dy2 fixedpoint.Number, anchor anchors.Anchor) geometry.Box {
	deltaScale := fixedpoint.FromInt(personInputWidth/32, dx1.FracBits)

	return geometry.NewBox(
		anchor.Center.X.Sub(dx1.Mul(deltaScale)),
		anchor.Center.Y.Sub(dy1.Mul(deltaScale)),
		anchor.Center.X.Add(dx2.Mul(deltaScale)),
		anchor.Center.Y.Add(dy2.Mul(deltaScale)))
}

// personCandidate is one per-scale survivor waiting for the cross-scale
// merge.
type personCandidate struct {
	rawConfidence int16
	confidence    fixedpoint.Number
	box           geometry.Box
	frontal       fixedpoint.Number
	nonFrontal    fixedpoint.Number
}

// Detect postprocesses one person network output tensor. Each scale
// runs the selection pipeline with suppression disabled, the surviving
// candidates are merged, the overall top PersonCap are kept and a
// single cross-scale suppression pass deduplicates them.
func (d *PersonDetector) Detect(output []int16) ([]Person, error) {
	if len(output) != personTensorSize() {
		return nil, errors.Errorf(
			"detectors: person: output tensor holds %d values, want %d",
			len(output), personTensorSize())
	}

	f := fixedpoint.MLEngineFracBits
	noSuppression := fixedpoint.FromInt(1, f)

	var all []personCandidate

	blockStart := 0
	for _, grid := range personGrids {
		planeSize := int(grid.Width * grid.Height)
		plane := func(channel int) []int16 {
			start := blockStart + planeSize*channel
			return output[start : start+planeSize]
		}

		confidenceConfig := anchors.ScoreConfig{
			Data:      plane(personChannelConfidence),
			FracBits:  f,
			Transform: fixedpoint.Number.Sigmoid,
		}
		boxConfig := anchors.BoxConfig{
			DeltaX:   plane(personChannelDeltaX1),
			DeltaY:   plane(personChannelDeltaY1),
			DeltaW:   plane(personChannelDeltaX2),
			DeltaH:   plane(personChannelDeltaY2),
			FracBits: f,
			Grid:     grid,
			ToAnchor: personGridCoordinatesToAnchor(grid),
			ToBox:    personRawToBoundingBox,
		}

		indices := make([]int, PersonCap)
		confidences := make([]fixedpoint.Number, PersonCap)
		boxes := make([]geometry.Box, PersonCap)

		n := postprocess.AnchorBasedDetection(
			planeSize,
			confidenceConfig,
			boxConfig,
			PersonCap,
			d.confidenceThreshold,
			noSuppression,
			indices, confidences, boxes)

		frontal := make([]fixedpoint.Number, n)
		nonFrontal := make([]fixedpoint.Number, n)
		anchors.ScoreConfig{Data: plane(personChannelFrontal), FracBits: f}.
			RawToFP(indices[:n], frontal)
		anchors.ScoreConfig{Data: plane(personChannelNonFrontal), FracBits: f}.
			RawToFP(indices[:n], nonFrontal)

		for i := 0; i < n; i++ {
			all = append(all, personCandidate{
				rawConfidence: confidenceConfig.Data[indices[i]],
				confidence:    confidences[i],
				box:           boxes[i],
				frontal:       frontal[i],
				nonFrontal:    nonFrontal[i],
			})
		}

		blockStart += planeSize * personChannelsPerScale
	}

	// Cross-scale merge: keep the overall best PersonCap candidates.
	merged := make([]int, len(all))
	rawConfidences := make([]int16, len(all))
	for i, c := range all {
		merged[i] = i
		rawConfidences[i] = c.rawConfidence
	}
	postprocess.QuickSelect(merged, rawConfidences, PersonCap)

	total := len(all)
	if total > PersonCap {
		total = PersonCap
	}

	confidences := make([]fixedpoint.Number, total)
	boxes := make([]geometry.Box, total)
	for i := 0; i < total; i++ {
		confidences[i] = all[merged[i]].confidence
		boxes[i] = all[merged[i]].box
	}

	total = postprocess.FilterOutBelowIoUThreshold(
		d.nmsIoUThreshold, merged[:total], confidences[:total], boxes[:total])

	persons := make([]Person, total)
	for i := 0; i < total; i++ {
		c := all[merged[i]]
		persons[i] = Person{
			Confidence: confidences[i],
			Box: geometry.NewBox(
				d.mapX(boxes[i].Left),
				d.mapY(boxes[i].Top),
				d.mapX(boxes[i].Right),
				d.mapY(boxes[i].Bottom)),
			Frontal:              c.frontal.Gt(c.nonFrontal),
			FrontalConfidence:    c.frontal,
			NonFrontalConfidence: c.nonFrontal,
		}
	}
	return persons, nil
}
