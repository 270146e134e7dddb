// Package raster holds the in-memory representation of a georeferenced pixel
// grid and the windowing math that selects a rectangular sub-region by its
// geographic corners. Decoding raster file formats and extracting
// georeferencing metadata are the job of external collaborators; this package
// only consumes a pixel array plus an affine transform.
package raster

import (
	"errors"
	"fmt"
	"math"

	"frictiongo/pkg/hexgrid"
)

// ErrUnsupportedRegion is returned for bounding boxes that cross a geometric
// edge case this engine does not handle (antimeridian wrap, polar caps).
var ErrUnsupportedRegion = errors.New("raster: unsupported region")

// maxWindowLat is the latitude beyond which windows are rejected. Hexagon
// distortion and meridian convergence make the aggregation unreliable there.
const maxWindowLat = 89.0

// Affine is a six-parameter pixel-to-geographic transform:
//
//	x = A*col + B*row + C
//	y = D*col + E*row + F
//
// For a north-up raster B and D are zero, C/F are the coordinates of the
// top-left corner, A is the pixel width and E the (negative) pixel height.
type Affine struct {
	A, B, C float64
	D, E, F float64
}

// NewNorthUp builds the transform for a north-up raster from its top-left
// corner and pixel size in degrees.
func NewNorthUp(originX, originY, pixelW, pixelH float64) Affine {
	return Affine{A: pixelW, C: originX, E: -pixelH, F: originY}
}

// PixelToGeo maps fractional pixel coordinates to geographic x/y (lon/lat).
func (t Affine) PixelToGeo(col, row float64) (x, y float64) {
	return t.A*col + t.B*row + t.C, t.D*col + t.E*row + t.F
}

// GeoToPixel is the inverse mapping. Fails if the transform is singular.
func (t Affine) GeoToPixel(x, y float64) (col, row float64, err error) {
	det := t.A*t.E - t.B*t.D
	if det == 0 {
		return 0, 0, fmt.Errorf("raster: affine transform is singular")
	}
	dx, dy := x-t.C, y-t.F
	return (t.E*dx - t.B*dy) / det, (t.A*dy - t.D*dx) / det, nil
}

// Window is a rectangular sub-region of a raster: the pixel values in
// row-major order, the transform of the parent raster, the window's offset
// within it and the no-data sentinel. A Window is owned by a single
// aggregation pass and not retained afterward.
type Window struct {
	Pixels    [][]float64
	Transform Affine
	ColOff    int
	RowOff    int
	NoData    float64
}

// Rows returns the number of pixel rows in the window.
func (w *Window) Rows() int { return len(w.Pixels) }

// Center returns the geographic center (lat, lon) of the pixel at the given
// window-relative row and column.
func (w *Window) Center(row, col int) (lat, lon float64) {
	x, y := w.Transform.PixelToGeo(float64(w.ColOff+col)+0.5, float64(w.RowOff+row)+0.5)
	return y, x
}

// WindowFromBounds cuts a window out of a full raster using two geographic
// corners. Pixel bounds are the floor/ceil of the corners mapped through the
// inverse transform, clamped to the raster extent.
func WindowFromBounds(topLeftLat, topLeftLon, bottomRightLat, bottomRightLon float64, tr Affine, pixels [][]float64, noData float64) (*Window, error) {
	for _, c := range [][2]float64{{topLeftLat, topLeftLon}, {bottomRightLat, bottomRightLon}} {
		if c[0] < -90 || c[0] > 90 || c[1] < -180 || c[1] > 180 {
			return nil, fmt.Errorf("%w: lat=%f lon=%f", hexgrid.ErrInvalidCoordinate, c[0], c[1])
		}
	}
	if topLeftLon >= bottomRightLon {
		return nil, fmt.Errorf("%w: bounding box crosses the antimeridian (west=%f east=%f)", ErrUnsupportedRegion, topLeftLon, bottomRightLon)
	}
	if topLeftLat <= bottomRightLat {
		return nil, fmt.Errorf("%w: north edge (%f) must be above south edge (%f)", ErrUnsupportedRegion, topLeftLat, bottomRightLat)
	}
	if math.Abs(topLeftLat) >= maxWindowLat || math.Abs(bottomRightLat) >= maxWindowLat {
		return nil, fmt.Errorf("%w: bounding box touches a polar cap", ErrUnsupportedRegion)
	}

	colMin, rowMin, err := tr.GeoToPixel(topLeftLon, topLeftLat)
	if err != nil {
		return nil, err
	}
	colMax, rowMax, err := tr.GeoToPixel(bottomRightLon, bottomRightLat)
	if err != nil {
		return nil, err
	}

	r0 := clamp(int(math.Floor(rowMin)), 0, len(pixels))
	r1 := clamp(int(math.Ceil(rowMax)), 0, len(pixels))
	if r1 <= r0 {
		return nil, fmt.Errorf("raster: bounding box selects no rows")
	}
	width := 0
	if len(pixels) > 0 {
		width = len(pixels[0])
	}
	c0 := clamp(int(math.Floor(colMin)), 0, width)
	c1 := clamp(int(math.Ceil(colMax)), 0, width)
	if c1 <= c0 {
		return nil, fmt.Errorf("raster: bounding box selects no columns")
	}

	rows := make([][]float64, 0, r1-r0)
	for r := r0; r < r1; r++ {
		rows = append(rows, pixels[r][c0:c1])
	}

	return &Window{
		Pixels:    rows,
		Transform: tr,
		ColOff:    c0,
		RowOff:    r0,
		NoData:    noData,
	}, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
