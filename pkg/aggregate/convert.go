package aggregate

import (
	"fmt"

	"frictiongo/pkg/hexgrid"
)

// FrictionMinutes converts an aggregated friction rate into the minutes
// needed to cross one hexagon: rate * hexagon diameter / scale. The MAP
// friction surface publishes rates scaled by 100, hence the divisor.
func FrictionMinutes(res int, scale float64) (ConvertFunc, error) {
	edge, err := hexgrid.EdgeLengthM(res)
	if err != nil {
		return nil, err
	}
	if scale <= 0 {
		return nil, fmt.Errorf("aggregate: friction scale must be positive, got %f", scale)
	}
	diameter := 2 * edge
	return func(v float64) float64 {
		return v * diameter / scale
	}, nil
}

// RateScale divides scaled raster values back into plain minutes-per-meter
// rates, the unit the traversal cost model works in.
func RateScale(scale float64) (ConvertFunc, error) {
	if scale <= 0 {
		return nil, fmt.Errorf("aggregate: friction scale must be positive, got %f", scale)
	}
	return func(v float64) float64 {
		return v / scale
	}, nil
}

// PopulationFromDensity converts a per-km2 population density into an
// absolute population per hexagon.
func PopulationFromDensity(res int) (ConvertFunc, error) {
	area, err := hexgrid.AreaKm2(res)
	if err != nil {
		return nil, err
	}
	return func(v float64) float64 {
		return v * area
	}, nil
}
