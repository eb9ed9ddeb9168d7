// Package detectors - end-to-end postprocessing for the production
// detection heads: faces (with landmarks and head pose angles), persons
// (two output scales, frontal classification) and generic objects
// (three output scales, multi-class).
//
// Each detector consumes a raw int16 output tensor laid out as planar
// channels of gridWidth x gridHeight cells, interprets it in Q10 fixed
// point and returns a bounded, deduplicated detection set remapped into
// the source image frame.
package detectors

import (
	"github.com/pkg/errors"

	"github.com/aicam-labs/go-postprocess/anchors"
	"github.com/aicam-labs/go-postprocess/fixedpoint"
	"github.com/aicam-labs/go-postprocess/geometry"
	"github.com/aicam-labs/go-postprocess/postprocess"
)

const (
	faceInputWidth  = 256
	faceInputHeight = 144

	faceGridWidth      = 16
	faceGridHeight     = 9
	faceAnchorsPerCell = 2

	// One channel plane covers every anchor of the grid.
	facePlaneSize = faceGridWidth * faceGridHeight * faceAnchorsPerCell

	faceChannels      = 18
	faceLandmarkCount = 5

	// FaceCap bounds the number of faces a single frame can yield.
	FaceCap = 5
)

// Face channel plane order within the output tensor.
const (
	faceChannelConfidence = 0
	faceChannelDeltaX     = 1
	faceChannelDeltaY     = 2
	faceChannelDeltaW     = 3
	faceChannelDeltaH     = 4
	// Landmark k occupies planes 5+2k (x) and 6+2k (y).
	faceChannelLandmarks = 5
	faceChannelPitch     = 15
	faceChannelYaw       = 16
	faceChannelRoll      = 17
)

var faceAnchorDims = [faceAnchorsPerCell]geometry.Dimensions{
	{
		Width:  fixedpoint.FromInt(80, fixedpoint.MLEngineFracBits),
		Height: fixedpoint.FromInt(80, fixedpoint.MLEngineFracBits),
	},
	{
		Width:  fixedpoint.FromInt(30, fixedpoint.MLEngineFracBits),
		Height: fixedpoint.FromInt(30, fixedpoint.MLEngineFracBits),
	},
}

// FaceConfig configures a FaceDetector.
type FaceConfig struct {
	// SourceWidth and SourceHeight are the dimensions of the source
	// image the detections are remapped into.
	SourceWidth  int32
	SourceHeight int32

	// ConfidenceThreshold drops detections scoring at or below it.
	// Zero value selects the production default of 0.45.
	ConfidenceThreshold fixedpoint.Number

	// NMSIoUThreshold merges detections overlapping at or above it.
	// Zero value selects the production default of 0.35.
	NMSIoUThreshold fixedpoint.Number
}

// Face is one detected face in source image coordinates. The pose
// angles are in degrees.
type Face struct {
	Confidence fixedpoint.Number
	Box        geometry.Box
	Landmarks  [faceLandmarkCount]geometry.Point
	Pitch      fixedpoint.Number
	Yaw        fixedpoint.Number
	Roll       fixedpoint.Number
}

// FaceDetector postprocesses the face detection network output.
type FaceDetector struct {
	confidenceThreshold fixedpoint.Number
	nmsIoUThreshold     fixedpoint.Number

	mapX func(fixedpoint.Number) fixedpoint.Number
	mapY func(fixedpoint.Number) fixedpoint.Number
}

// NewFaceDetector validates the configuration and builds a detector.
func NewFaceDetector(cfg FaceConfig) (*FaceDetector, error) {
	if cfg.SourceWidth <= 0 || cfg.SourceHeight <= 0 {
		return nil, errors.Errorf(
			"detectors: face: invalid source dimensions %dx%d",
			cfg.SourceWidth, cfg.SourceHeight)
	}

	f := fixedpoint.MLEngineFracBits
	d := &FaceDetector{
		confidenceThreshold: cfg.ConfidenceThreshold,
		nmsIoUThreshold:     cfg.NMSIoUThreshold,
		mapX: fixedpoint.Mapping(
			fixedpoint.NewRange(fixedpoint.FromInt(0, f), fixedpoint.FromInt(faceInputWidth, f)),
			fixedpoint.NewRange(fixedpoint.FromInt(0, f), fixedpoint.FromInt(cfg.SourceWidth, f))),
		mapY: fixedpoint.Mapping(
			fixedpoint.NewRange(fixedpoint.FromInt(0, f), fixedpoint.FromInt(faceInputHeight, f)),
			fixedpoint.NewRange(fixedpoint.FromInt(0, f), fixedpoint.FromInt(cfg.SourceHeight, f))),
	}
	if d.confidenceThreshold.Raw == 0 {
		d.confidenceThreshold = fixedpoint.New(45, 100, f)
	}
	if d.nmsIoUThreshold.Raw == 0 {
		d.nmsIoUThreshold = fixedpoint.New(35, 100, f)
	}
	return d, nil
}

func facePlane(output []int16, channel int) []int16 {
	return output[facePlaneSize*channel : facePlaneSize*(channel+1)]
}

func faceGridCoordinatesToAnchor(coords anchors.GridCoords) anchors.Anchor {
	f := fixedpoint.MLEngineFracBits
	return anchors.Anchor{
		Center: geometry.NewPoint(
			fixedpoint.New((coords.Col+1)*faceInputWidth, faceGridWidth+1, f),
			fixedpoint.New((coords.Row+1)*faceInputHeight, faceGridHeight+1, f)),
		Dims: faceAnchorDims[coords.Anchor],
	}
}

func faceRawToBoundingBox(dx, dy, dw, dh fixedpoint.Number, anchor anchors.Anchor) geometry.Box {
	centerX := anchor.Center.X.Add(anchor.Dims.Width.Mul(dx))
	centerY := anchor.Center.Y.Add(anchor.Dims.Height.Mul(dy))
	width := anchor.Dims.Width.Mul(dw)
	height := anchor.Dims.Height.Mul(dh)

	return geometry.NewBox(
		centerX.Sub(width.Rsh(1)),
		centerY.Sub(height.Rsh(1)),
		centerX.Add(width.Rsh(1)),
		centerY.Add(height.Rsh(1)))
}

func faceRawToLandmark(x, y fixedpoint.Number, anchor anchors.Anchor) geometry.Point {
	return geometry.NewPoint(
		anchor.Center.X.Add(anchor.Dims.Width.Mul(x)),
		anchor.Center.Y.Add(anchor.Dims.Height.Mul(y)))
}

// Detect postprocesses one face network output tensor: top-K selection
// on the confidence channel, sigmoid scoring, threshold filtering, box
// decode, IoU suppression, then landmark and pose decode for the
// survivors, all remapped to source image coordinates.
func (d *FaceDetector) Detect(output []int16) ([]Face, error) {
	if len(output) != facePlaneSize*faceChannels {
		return nil, errors.Errorf(
			"detectors: face: output tensor holds %d values, want %d",
			len(output), facePlaneSize*faceChannels)
	}

	f := fixedpoint.MLEngineFracBits
	grid := geometry.PixelDimensions{Width: faceGridWidth, Height: faceGridHeight}

	confidenceConfig := anchors.ScoreConfig{
		Data:      facePlane(output, faceChannelConfidence),
		FracBits:  f,
		Transform: fixedpoint.Number.Sigmoid,
	}
	boxConfig := anchors.BoxConfig{
		DeltaX:   facePlane(output, faceChannelDeltaX),
		DeltaY:   facePlane(output, faceChannelDeltaY),
		DeltaW:   facePlane(output, faceChannelDeltaW),
		DeltaH:   facePlane(output, faceChannelDeltaH),
		FracBits: f,
		Grid:     grid,
		ToAnchor: faceGridCoordinatesToAnchor,
		ToBox:    faceRawToBoundingBox,
	}

	indices := make([]int, FaceCap)
	confidences := make([]fixedpoint.Number, FaceCap)
	boxes := make([]geometry.Box, FaceCap)

	n := postprocess.AnchorBasedDetection(
		facePlaneSize,
		confidenceConfig,
		boxConfig,
		FaceCap,
		d.confidenceThreshold,
		d.nmsIoUThreshold,
		indices, confidences, boxes)

	var landmarks [faceLandmarkCount][FaceCap]geometry.Point
	for k := 0; k < faceLandmarkCount; k++ {
		landmarkConfig := anchors.AnchorPointConfig{
			X:        facePlane(output, faceChannelLandmarks+2*k),
			Y:        facePlane(output, faceChannelLandmarks+2*k+1),
			FracBits: f,
			Grid:     grid,
			ToAnchor: faceGridCoordinatesToAnchor,
			ToPoint:  faceRawToLandmark,
		}
		landmarkConfig.RawToGeometricPoints(indices[:n], landmarks[k][:n])
	}

	var pitch, yaw, roll [FaceCap]fixedpoint.Number
	poseConfig := func(channel int) anchors.ScoreConfig {
		return anchors.ScoreConfig{
			Data:      facePlane(output, channel),
			FracBits:  f,
			Transform: fixedpoint.RadiansToDegrees,
		}
	}
	poseConfig(faceChannelPitch).RawToFP(indices[:n], pitch[:n])
	poseConfig(faceChannelYaw).RawToFP(indices[:n], yaw[:n])
	poseConfig(faceChannelRoll).RawToFP(indices[:n], roll[:n])

	faces := make([]Face, n)
	for i := 0; i < n; i++ {
		face := Face{
			Confidence: confidences[i],
			Box: geometry.NewBox(
				d.mapX(boxes[i].Left),
				d.mapY(boxes[i].Top),
				d.mapX(boxes[i].Right),
				d.mapY(boxes[i].Bottom)),
			Pitch: pitch[i],
			Yaw:   yaw[i],
			Roll:  roll[i],
		}
		for k := 0; k < faceLandmarkCount; k++ {
			face.Landmarks[k] = geometry.NewPoint(
				d.mapX(landmarks[k][i].X),
				d.mapY(landmarks[k][i].Y))
		}
		faces[i] = face
	}
	return faces, nil
}
