// Package grid holds the aggregated hexagon grid: the persisted artifact of a
// raster aggregation pass and the sole input of the cost model. A Grid is
// built once, then treated as read-only and shared freely across concurrent
// queries.
package grid

import (
	"sort"

	"frictiongo/pkg/hexgrid"
)

// Grid maps hexagonal cells to their aggregated scalar value. Cells with no
// contributing pixels are absent, never present with a sentinel.
type Grid map[hexgrid.Cell]float64

// Value returns the aggregated value for a cell and whether it is present.
func (g Grid) Value(c hexgrid.Cell) (float64, bool) {
	v, ok := g[c]
	return v, ok
}

// Len returns the number of cells in the grid.
func (g Grid) Len() int { return len(g) }

// Cells returns the cells in ascending identifier order.
func (g Grid) Cells() []hexgrid.Cell {
	out := make([]hexgrid.Cell, 0, len(g))
	for c := range g {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
