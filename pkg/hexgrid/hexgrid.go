// Package hexgrid adapts the H3 hexagonal spatial index to the needs of the
// aggregation and traversal engines: coordinate to cell, cell to center,
// ring-1 neighbors and great-circle distances between cell centers.
// All functions are pure; a cell is an opaque 64-bit identifier.
package hexgrid

import (
	"errors"
	"fmt"

	h3 "github.com/uber/h3-go/v4"
)

// Resolution limits of the H3 index.
const (
	MinResolution = 0
	MaxResolution = 15
)

// ErrInvalidCoordinate is returned for latitudes or longitudes outside the
// valid geographic range.
var ErrInvalidCoordinate = errors.New("hexgrid: invalid coordinate")

// Cell addresses one hexagonal region of the global tessellation at a fixed
// resolution. Equality and hashing are by identifier value.
type Cell uint64

// Coord is a geographic point in degrees.
type Coord struct {
	Lat float64
	Lon float64
}

// CellForLatLng maps a geographic coordinate to its containing cell at the
// given resolution.
func CellForLatLng(lat, lon float64, res int) (Cell, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, fmt.Errorf("%w: lat=%f lon=%f", ErrInvalidCoordinate, lat, lon)
	}
	if res < MinResolution || res > MaxResolution {
		return 0, fmt.Errorf("hexgrid: resolution %d out of range [%d, %d]", res, MinResolution, MaxResolution)
	}
	c, err := h3.LatLngToCell(h3.NewLatLng(lat, lon), res)
	if err != nil {
		return 0, fmt.Errorf("hexgrid: index lat=%f lon=%f: %w", lat, lon, err)
	}
	return Cell(c), nil
}

// Center returns the geographic center of a cell.
func Center(c Cell) (lat, lon float64, err error) {
	ll, err := h3.CellToLatLng(h3.Cell(c))
	if err != nil {
		return 0, 0, fmt.Errorf("hexgrid: center of %s: %w", c, err)
	}
	return ll.Lat, ll.Lng, nil
}

// Neighbors returns the ring-1 neighbors of a cell. Usually 6 cells; fewer
// around the 12 pentagon cells of each resolution, which callers must
// tolerate.
func Neighbors(c Cell) ([]Cell, error) {
	disk, err := h3.GridDisk(h3.Cell(c), 1)
	if err != nil {
		return nil, fmt.Errorf("hexgrid: neighbors of %s: %w", c, err)
	}
	out := make([]Cell, 0, len(disk))
	for _, d := range disk {
		if Cell(d) == c {
			continue
		}
		out = append(out, Cell(d))
	}
	return out, nil
}

// DistanceM returns the great-circle distance in meters between the centers
// of two cells. Symmetric in its arguments.
func DistanceM(a, b Cell) (float64, error) {
	la, err := h3.CellToLatLng(h3.Cell(a))
	if err != nil {
		return 0, fmt.Errorf("hexgrid: center of %s: %w", a, err)
	}
	lb, err := h3.CellToLatLng(h3.Cell(b))
	if err != nil {
		return 0, fmt.Errorf("hexgrid: center of %s: %w", b, err)
	}
	return h3.GreatCircleDistanceM(la, lb), nil
}

// Boundary returns the vertices of the cell outline in degrees.
func Boundary(c Cell) ([]Coord, error) {
	b, err := h3.Cell(c).Boundary()
	if err != nil {
		return nil, fmt.Errorf("hexgrid: boundary of %s: %w", c, err)
	}
	out := make([]Coord, 0, len(b))
	for _, v := range b {
		out = append(out, Coord{Lat: v.Lat, Lon: v.Lng})
	}
	return out, nil
}

// ParseCell parses the canonical hexadecimal string form of a cell.
func ParseCell(s string) (Cell, error) {
	c := Cell(h3.IndexFromString(s))
	if !c.Valid() {
		return 0, fmt.Errorf("hexgrid: invalid cell %q", s)
	}
	return c, nil
}

// String renders the canonical hexadecimal form.
func (c Cell) String() string {
	return h3.IndexToString(uint64(c))
}

// Valid reports whether the identifier addresses a real cell.
func (c Cell) Valid() bool {
	return h3.Cell(c).IsValid()
}

// Resolution returns the resolution encoded in the identifier.
func (c Cell) Resolution() int {
	return h3.Cell(c).Resolution()
}
