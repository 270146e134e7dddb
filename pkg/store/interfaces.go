package store

import (
	"context"
	"time"

	"frictiongo/pkg/grid"
)

// GridMeta describes a cached aggregated grid.
type GridMeta struct {
	Key        string
	SourcePath string
	SourceHash string
	Resolution int
	Reducer    string
	CellCount  int
	CreatedAt  time.Time
}

// GridStore handles aggregated grid persistence. A grid is keyed by its
// source raster, resolution and reducer; the stored source hash detects a
// raster that changed underneath its cache entry.
type GridStore interface {
	GetGrid(ctx context.Context, key, sourceHash string) (grid.Grid, *GridMeta, error)
	PutGrid(ctx context.Context, meta *GridMeta, g grid.Grid) error
	ListGrids(ctx context.Context) ([]*GridMeta, error)
	InvalidateGrid(ctx context.Context, key string) error
}

// StateStore handles persistent application state.
type StateStore interface {
	GetState(ctx context.Context, key string) (string, bool)
	SetState(ctx context.Context, key, val string) error
	DeleteState(ctx context.Context, key string) error
}

// Store defines the repository interface.
// It composes all sub-interfaces for full store access.
// Consumers should depend on specific sub-interfaces when possible.
type Store interface {
	GridStore
	StateStore

	// Close closes the store connection.
	Close() error
}
