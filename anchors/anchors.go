// Package anchors - grid-cell anchor mapping and decoding of raw detector
// output tensors into fixed point values, boxes, landmarks and rotation
// matrices.
//
// A detector output grid holds gridWidth x gridHeight cells with one or
// more anchor templates per cell. Anchors are indexed flat:
//
//	index = col + row*gridWidth + anchor*gridWidth*gridHeight
//
// Each detector supplies the strategy functions mapping grid coordinates
// to an anchor and raw channel deltas to geometry; the decode configs in
// this package drive those strategies over index lists selected by the
// postprocess pipeline.
package anchors

import (
	"github.com/aicam-labs/go-postprocess/fixedpoint"
	"github.com/aicam-labs/go-postprocess/geometry"
)

// GridCoords locates an anchor inside a detector output grid: the cell
// position plus the anchor template index.
type GridCoords struct {
	Row    int32
	Col    int32
	Anchor int32
}

// Anchor is a reference center point and base dimensions for one grid
// cell and anchor template. Anchor-free detectors use zero dimensions.
type Anchor struct {
	Center geometry.Point
	Dims   geometry.Dimensions
}

// IndexToGridCoordinates recovers the grid coordinates of a flat anchor
// index. The anchor count per cell is not needed: the template index is
// whatever remains above the grid plane.
func IndexToGridCoordinates(index int, grid geometry.PixelDimensions) GridCoords {
	gridSize := grid.Width * grid.Height

	anchor := int32(index) / gridSize
	row := (int32(index) - anchor*gridSize) / grid.Width
	col := int32(index) - anchor*gridSize - row*grid.Width

	return GridCoords{Row: row, Col: col, Anchor: anchor}
}

// ToAnchorFunc maps grid coordinates to the detector's anchor for that
// cell and template.
type ToAnchorFunc func(coords GridCoords) Anchor

// ToBoxFunc decodes the four raw delta channels into a box relative to
// an anchor.
type ToBoxFunc func(dx, dy, dw, dh fixedpoint.Number, anchor Anchor) geometry.Box

// ToPointFunc decodes two raw channels into a point.
type ToPointFunc func(x, y fixedpoint.Number) geometry.Point

// ToAnchorPointFunc decodes two raw delta channels into a point relative
// to an anchor.
type ToAnchorPointFunc func(x, y fixedpoint.Number, anchor Anchor) geometry.Point
