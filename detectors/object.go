package detectors

import (
	"github.com/pkg/errors"

	"github.com/aicam-labs/go-postprocess/anchors"
	"github.com/aicam-labs/go-postprocess/fixedpoint"
	"github.com/aicam-labs/go-postprocess/geometry"
	"github.com/aicam-labs/go-postprocess/postprocess"
)

const (
	objectInputWidth  = 384
	objectInputHeight = 288

	objectScaleCount = 3
)

// The three output scales, coarsest first.
var objectGrids = [objectScaleCount]geometry.PixelDimensions{
	{Width: 12, Height: 9},
	{Width: 24, Height: 18},
	{Width: 48, Height: 36},
}

// ObjectConfig configures an ObjectDetector.
type ObjectConfig struct {
	// Classes is the number of class logit planes following the
	// confidence plane in each score tensor.
	Classes int

	// MaxBoxes bounds the detections per frame, split across the
	// output scales.
	MaxBoxes int

	// ConfidenceThreshold drops detections scoring at or below it.
	ConfidenceThreshold fixedpoint.Number

	// IoUThreshold merges same-class detections overlapping at or
	// above it in the cross-scale pass.
	IoUThreshold fixedpoint.Number
}

// Object is one detected object in network input coordinates.
type Object struct {
	Confidence fixedpoint.Number
	Box        geometry.Box

	Class           int32
	ClassConfidence fixedpoint.Number
}

// ObjectDetector postprocesses the three-scale multi-class object
// detection network output.
type ObjectDetector struct {
	cfg ObjectConfig
}

// NewObjectDetector validates the configuration and builds a detector.
func NewObjectDetector(cfg ObjectConfig) (*ObjectDetector, error) {
	if cfg.Classes <= 0 {
		return nil, errors.Errorf("detectors: object: invalid class count %d", cfg.Classes)
	}
	if cfg.MaxBoxes <= 0 {
		return nil, errors.Errorf("detectors: object: invalid box cap %d", cfg.MaxBoxes)
	}
	return &ObjectDetector{cfg: cfg}, nil
}

func objectGridCoordinatesToAnchor(grid geometry.PixelDimensions) anchors.ToAnchorFunc {
	f := fixedpoint.MLEngineFracBits
	strideX := fixedpoint.FromInt(objectInputWidth/grid.Width, f)
	strideY := fixedpoint.FromInt(objectInputHeight/grid.Height, f)
	half := fixedpoint.New(1, 2, f)

	return func(coords anchors.GridCoords) anchors.Anchor {
		return anchors.Anchor{
			Center: geometry.NewPoint(
				strideX.Mul(half).Add(strideX.Mul(fixedpoint.FromInt(coords.Col, f))),
				strideY.Mul(half).Add(strideY.Mul(fixedpoint.FromInt(coords.Row, f)))),
		}
	}
}

// objectRawToBoundingBox decodes edge distances around the cell center,
// swapping corners the network emitted inverted.
func objectRawToBoundingBox(dl, dt, dr, db fixedpoint.Number, anchor anchors.Anchor) geometry.Box {
	deltaScale := fixedpoint.FromInt(objectInputWidth/32, dl.FracBits)

	left := anchor.Center.X.Sub(dl.Mul(deltaScale))
	right := anchor.Center.X.Add(dr.Mul(deltaScale))
	if left.Gt(right) {
		left, right = right, left
	}

	top := anchor.Center.Y.Sub(dt.Mul(deltaScale))
	bottom := anchor.Center.Y.Add(db.Mul(deltaScale))
	if top.Gt(bottom) {
		top, bottom = bottom, top
	}

	return geometry.NewBox(left, top, right, bottom)
}

// Detect postprocesses one frame of object network outputs. coords[s]
// holds the four delta planes of scale s; scores[s] holds its
// confidence plane followed by the class logit planes. Each scale gets
// an equal share of the remaining box budget; survivors are classified,
// merged and deduplicated per class.
func (d *ObjectDetector) Detect(coords, scores [][]int16) ([]Object, error) {
	if len(coords) != objectScaleCount || len(scores) != objectScaleCount {
		return nil, errors.Errorf(
			"detectors: object: want %d output scales, got %d coord and %d score tensors",
			objectScaleCount, len(coords), len(scores))
	}

	f := fixedpoint.MLEngineFracBits
	noSuppression := fixedpoint.FromInt(1, f)

	mergedIndices := make([]int, 0, d.cfg.MaxBoxes)
	confidences := make([]fixedpoint.Number, 0, d.cfg.MaxBoxes)
	boxes := make([]geometry.Box, 0, d.cfg.MaxBoxes)
	classes := make([]int32, 0, d.cfg.MaxBoxes)
	classConfidences := make([]fixedpoint.Number, 0, d.cfg.MaxBoxes)

	remaining := d.cfg.MaxBoxes
	for s, grid := range objectGrids {
		planeSize := int(grid.Width * grid.Height)
		if len(coords[s]) != planeSize*4 {
			return nil, errors.Errorf(
				"detectors: object: scale %d coord tensor holds %d values, want %d",
				s, len(coords[s]), planeSize*4)
		}
		if len(scores[s]) != planeSize*(1+d.cfg.Classes) {
			return nil, errors.Errorf(
				"detectors: object: scale %d score tensor holds %d values, want %d",
				s, len(scores[s]), planeSize*(1+d.cfg.Classes))
		}

		maxBoxes := remaining / (objectScaleCount - s)
		if planeSize < maxBoxes {
			maxBoxes = planeSize
		}
		if maxBoxes == 0 {
			continue
		}

		confidenceConfig := anchors.ScoreConfig{
			Data:      scores[s][:planeSize],
			FracBits:  f,
			Transform: fixedpoint.Number.Sigmoid,
		}
		boxConfig := anchors.BoxConfig{
			DeltaX:   coords[s][planeSize*0 : planeSize*1],
			DeltaY:   coords[s][planeSize*1 : planeSize*2],
			DeltaW:   coords[s][planeSize*2 : planeSize*3],
			DeltaH:   coords[s][planeSize*3 : planeSize*4],
			FracBits: f,
			Grid:     grid,
			ToAnchor: objectGridCoordinatesToAnchor(grid),
			ToBox:    objectRawToBoundingBox,
		}

		indices := make([]int, maxBoxes)
		scaleConfidences := make([]fixedpoint.Number, maxBoxes)
		scaleBoxes := make([]geometry.Box, maxBoxes)

		n := postprocess.AnchorBasedDetection(
			planeSize,
			confidenceConfig,
			boxConfig,
			maxBoxes,
			d.cfg.ConfidenceThreshold,
			noSuppression,
			indices, scaleConfidences, scaleBoxes)

		classChannels := make([][]int16, d.cfg.Classes)
		for c := 0; c < d.cfg.Classes; c++ {
			classChannels[c] = scores[s][planeSize*(1+c) : planeSize*(2+c)]
		}

		for i := 0; i < n; i++ {
			class, classConfidence := anchors.BestClass(classChannels, f, indices[i])
			mergedIndices = append(mergedIndices, len(mergedIndices))
			confidences = append(confidences, scaleConfidences[i])
			boxes = append(boxes, scaleBoxes[i])
			classes = append(classes, int32(class))
			classConfidences = append(classConfidences, classConfidence)
		}
		remaining -= n
	}

	total := postprocess.FilterOutSameClassBelowIoUThreshold(
		d.cfg.IoUThreshold, mergedIndices, confidences, boxes, classes)

	objects := make([]Object, total)
	for i := 0; i < total; i++ {
		objects[i] = Object{
			Confidence:      confidences[i],
			Box:             boxes[i],
			Class:           classes[i],
			ClassConfidence: classConfidences[mergedIndices[i]],
		}
	}
	return objects, nil
}
