// Package traveltime answers travel time queries against an aggregated
// friction grid: point-to-point estimates and isochrone regions.
package traveltime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"frictiongo/pkg/cost"
	"frictiongo/pkg/graph"
	"frictiongo/pkg/grid"
	"frictiongo/pkg/hexgrid"
	"frictiongo/pkg/search"
)

// Service answers travel time queries over a fixed grid and cost model.
type Service struct {
	grid       grid.Grid
	resolution int
	edges      graph.EdgeFunc
	maxCost    float64 // minutes, 0 means unlimited
}

// NewService builds a query service over the aggregated grid. maxCostMinutes
// bounds point-to-point searches; zero disables the bound.
func NewService(g grid.Grid, resolution int, blend cost.Blend, maxCostMinutes float64) *Service {
	b := graph.NewBuilder(cost.NewModel(g, blend))
	return &Service{
		grid:       g,
		resolution: resolution,
		edges:      b.EdgeFunc(),
		maxCost:    maxCostMinutes,
	}
}

// Resolution returns the hexagon resolution queries are snapped to.
func (s *Service) Resolution() int { return s.resolution }

// Covered reports whether the given point falls in a cell the grid covers.
func (s *Service) Covered(lat, lon float64) (bool, error) {
	c, err := hexgrid.CellForLatLng(lat, lon, s.resolution)
	if err != nil {
		return false, err
	}
	_, ok := s.grid[c]
	return ok, nil
}

// TravelTime estimates the fastest travel time between two points, in
// seconds. reachable is false when no path exists within the cost bound or
// either endpoint falls outside grid coverage; that is a result, not an
// error. Errors are reserved for invalid coordinates.
func (s *Service) TravelTime(ctx context.Context, olat, olon, dlat, dlon float64) (seconds float64, reachable bool, err error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}

	origin, err := hexgrid.CellForLatLng(olat, olon, s.resolution)
	if err != nil {
		return 0, false, fmt.Errorf("origin: %w", err)
	}
	dest, err := hexgrid.CellForLatLng(dlat, dlon, s.resolution)
	if err != nil {
		return 0, false, fmt.Errorf("destination: %w", err)
	}

	qid := uuid.NewString()
	start := time.Now()

	if origin == dest {
		slog.Debug("travel time query", "qid", qid, "origin", origin, "dest", dest, "minutes", 0.0)
		return 0, true, nil
	}

	res, err := search.ShortestPath(s.edges, origin, dest, search.Options{MaxCost: s.maxCost})
	if err != nil {
		if errors.Is(err, search.ErrUnreachable) {
			slog.Debug("travel time query unreachable", "qid", qid, "origin", origin, "dest", dest, "took", time.Since(start))
			return 0, false, nil
		}
		return 0, false, err
	}

	slog.Debug("travel time query", "qid", qid, "origin", origin, "dest", dest,
		"minutes", res.Cost, "took", time.Since(start))
	return res.Cost * 60, true, nil
}

// Isochrone computes the region reachable from a point within the given
// number of minutes.
func (s *Service) Isochrone(ctx context.Context, lat, lon, minutes float64) (search.Reach, error) {
	if err := ctx.Err(); err != nil {
		return search.Reach{}, err
	}
	if minutes < 0 {
		return search.Reach{}, fmt.Errorf("negative threshold: %v", minutes)
	}

	origin, err := hexgrid.CellForLatLng(lat, lon, s.resolution)
	if err != nil {
		return search.Reach{}, fmt.Errorf("origin: %w", err)
	}

	qid := uuid.NewString()
	start := time.Now()

	reach := search.Isochrone(s.edges, origin, minutes)

	slog.Debug("isochrone query", "qid", qid, "origin", origin,
		"threshold", minutes, "cells", len(reach.Times), "took", time.Since(start))
	return reach, nil
}
