// Package cost derives directed edge traversal times between adjacent
// hexagon cells from an aggregated friction grid.
package cost

import (
	"errors"
	"fmt"
	"strings"

	"frictiongo/pkg/grid"
	"frictiongo/pkg/hexgrid"
)

// ErrMissingCell signals that an edge endpoint has no aggregated value. It
// is a soft "no data here" marker: the graph builder turns it into "no edge"
// so searches stop at the frontier of raster coverage.
var ErrMissingCell = errors.New("cost: cell not in grid")

// Blend selects how the two endpoint rates combine into an edge rate.
type Blend int

const (
	// BlendDestination uses the destination cell's rate, producing a
	// directed, generally asymmetric graph. This is the default.
	BlendDestination Blend = iota
	// BlendAverage uses the mean of both endpoint rates, producing a
	// symmetric graph.
	BlendAverage
)

// ParseBlend parses a blend rule name.
func ParseBlend(s string) (Blend, error) {
	switch strings.ToLower(s) {
	case "destination", "":
		return BlendDestination, nil
	case "average":
		return BlendAverage, nil
	}
	return 0, fmt.Errorf("cost: unknown blend rule %q", s)
}

func (b Blend) String() string {
	if b == BlendAverage {
		return "average"
	}
	return "destination"
}

// Model answers edge-cost queries over an immutable grid of minutes-per-meter
// friction rates.
type Model struct {
	grid  grid.Grid
	blend Blend
}

// NewModel wraps a grid with a blend rule.
func NewModel(g grid.Grid, b Blend) *Model {
	return &Model{grid: g, blend: b}
}

// EdgeCost returns the minutes needed to travel from one cell center to an
// adjacent one: inter-center distance times the blended friction rate.
// Returns ErrMissingCell when either endpoint is absent from the grid.
func (m *Model) EdgeCost(from, to hexgrid.Cell) (float64, error) {
	fromRate, ok := m.grid.Value(from)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingCell, from)
	}
	toRate, ok := m.grid.Value(to)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingCell, to)
	}

	rate := toRate
	if m.blend == BlendAverage {
		rate = (fromRate + toRate) / 2
	}
	// Friction rates are non-negative by construction; guard so the search
	// invariant (cost >= 0) holds even on malformed grids.
	if rate < 0 {
		rate = 0
	}

	dist, err := hexgrid.DistanceM(from, to)
	if err != nil {
		return 0, err
	}
	return dist * rate, nil
}
