package traveltime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frictiongo/pkg/cost"
	"frictiongo/pkg/grid"
	"frictiongo/pkg/hexgrid"
)

// patchGrid covers a cell and its immediate neighbors with a uniform rate.
func patchGrid(t *testing.T, lat, lon float64, res int, rate float64) (grid.Grid, hexgrid.Cell) {
	t.Helper()
	origin, err := hexgrid.CellForLatLng(lat, lon, res)
	require.NoError(t, err)
	ns, err := hexgrid.Neighbors(origin)
	require.NoError(t, err)

	g := grid.Grid{origin: rate}
	for _, n := range ns {
		g[n] = rate
	}
	return g, origin
}

func TestTravelTime_AdjacentCells(t *testing.T) {
	g, origin := patchGrid(t, 48.8566, 2.3522, 6, 0.01)
	svc := NewService(g, 6, cost.BlendDestination, 0)

	olat, olon, err := hexgrid.Center(origin)
	require.NoError(t, err)
	ns, err := hexgrid.Neighbors(origin)
	require.NoError(t, err)
	dlat, dlon, err := hexgrid.Center(ns[0])
	require.NoError(t, err)

	secs, reachable, err := svc.TravelTime(context.Background(), olat, olon, dlat, dlon)
	require.NoError(t, err)
	assert.True(t, reachable)
	assert.Greater(t, secs, 0.0)

	// 0.01 min/m over a few km of hexagon spacing stays well under a day.
	assert.Less(t, secs, 86400.0)
}

func TestTravelTime_SamePoint(t *testing.T) {
	g, origin := patchGrid(t, 48.8566, 2.3522, 6, 0.01)
	svc := NewService(g, 6, cost.BlendDestination, 0)

	lat, lon, err := hexgrid.Center(origin)
	require.NoError(t, err)

	secs, reachable, err := svc.TravelTime(context.Background(), lat, lon, lat, lon)
	require.NoError(t, err)
	assert.True(t, reachable)
	assert.Equal(t, 0.0, secs)
}

func TestTravelTime_OutsideCoverage(t *testing.T) {
	g, origin := patchGrid(t, 48.8566, 2.3522, 6, 0.01)
	svc := NewService(g, 6, cost.BlendDestination, 0)

	olat, olon, err := hexgrid.Center(origin)
	require.NoError(t, err)

	// Destination on another continent, far outside the covered patch.
	secs, reachable, err := svc.TravelTime(context.Background(), olat, olon, -33.86, 151.21)
	require.NoError(t, err)
	assert.False(t, reachable)
	assert.Equal(t, 0.0, secs)
}

func TestTravelTime_InvalidCoordinates(t *testing.T) {
	g, _ := patchGrid(t, 48.8566, 2.3522, 6, 0.01)
	svc := NewService(g, 6, cost.BlendDestination, 0)

	_, _, err := svc.TravelTime(context.Background(), 95, 0, 48.85, 2.35)
	assert.ErrorIs(t, err, hexgrid.ErrInvalidCoordinate)
}

func TestTravelTime_CancelledContext(t *testing.T) {
	g, origin := patchGrid(t, 48.8566, 2.3522, 6, 0.01)
	svc := NewService(g, 6, cost.BlendDestination, 0)

	lat, lon, err := hexgrid.Center(origin)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = svc.TravelTime(ctx, lat, lon, lat, lon)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsochrone(t *testing.T) {
	g, origin := patchGrid(t, 48.8566, 2.3522, 6, 0.01)
	svc := NewService(g, 6, cost.BlendDestination, 0)

	lat, lon, err := hexgrid.Center(origin)
	require.NoError(t, err)

	// Generous threshold reaches the whole covered patch.
	reach, err := svc.Isochrone(context.Background(), lat, lon, 1e6)
	require.NoError(t, err)
	assert.Len(t, reach.Times, len(g))
	assert.True(t, reach.Contains(origin))

	// Zero threshold yields exactly the origin cell.
	reach, err = svc.Isochrone(context.Background(), lat, lon, 0)
	require.NoError(t, err)
	assert.Len(t, reach.Times, 1)
	assert.True(t, reach.Contains(origin))
}

func TestIsochrone_NegativeThreshold(t *testing.T) {
	g, _ := patchGrid(t, 48.8566, 2.3522, 6, 0.01)
	svc := NewService(g, 6, cost.BlendDestination, 0)

	_, err := svc.Isochrone(context.Background(), 48.85, 2.35, -5)
	assert.Error(t, err)
}

func TestCovered(t *testing.T) {
	g, origin := patchGrid(t, 48.8566, 2.3522, 6, 0.01)
	svc := NewService(g, 6, cost.BlendDestination, 0)

	lat, lon, err := hexgrid.Center(origin)
	require.NoError(t, err)

	ok, err := svc.Covered(lat, lon)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Covered(-33.86, 151.21)
	require.NoError(t, err)
	assert.False(t, ok)
}
