package aggregate

import (
	"context"
	"fmt"
	"sync"

	"frictiongo/pkg/grid"
	"frictiongo/pkg/hexgrid"
	"frictiongo/pkg/raster"
)

// CellFunc maps a geographic coordinate to a hexagon cell. The default is
// the H3 indexer; tests inject synthetic mappings.
type CellFunc func(lat, lon float64, res int) (hexgrid.Cell, error)

// ConvertFunc transforms an aggregated cell value after the fold, e.g. from
// a friction rate to minutes per hexagon.
type ConvertFunc func(float64) float64

// Options tune an aggregation pass.
type Options struct {
	// Workers > 1 partitions the window into disjoint row ranges folded in
	// parallel; partial grids are merged with the reducer's combine rule.
	Workers int
	// Convert, when set, is applied to every cell value after folding.
	Convert ConvertFunc
	// Progress, when set, is called after each processed row with the number
	// of rows done and the window total.
	Progress func(done, total int)
	// CellFor overrides the coordinate-to-cell mapping.
	CellFor CellFunc
}

// Aggregate folds every non-nodata pixel of the window into its containing
// cell at the given resolution and returns the resulting sparse grid. Cells
// with zero contributing pixels are absent from the result.
func Aggregate(ctx context.Context, w *raster.Window, r Reducer, res int, opts Options) (grid.Grid, error) {
	cellFor := opts.CellFor
	if cellFor == nil {
		cellFor = hexgrid.CellForLatLng
	}

	total := w.Rows()
	if total == 0 {
		return grid.Grid{}, nil
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > total {
		workers = total
	}

	var (
		progressMu sync.Mutex
		done       int
	)
	rowDone := func() {
		if opts.Progress == nil {
			return
		}
		progressMu.Lock()
		done++
		d := done
		progressMu.Unlock()
		opts.Progress(d, total)
	}

	partials := make([]map[hexgrid.Cell]*accumulator, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	chunk := (total + workers - 1) / workers
	for i := 0; i < workers; i++ {
		r0 := i * chunk
		r1 := r0 + chunk
		if r1 > total {
			r1 = total
		}

		wg.Add(1)
		go func(idx, r0, r1 int) {
			defer wg.Done()
			partials[idx], errs[idx] = foldRows(ctx, w, r, res, cellFor, r0, r1, rowDone)
		}(i, r0, r1)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	// Merge in ascending row-range order so First stays row-major.
	merged := partials[0]
	for _, p := range partials[1:] {
		for cell, acc := range p {
			if have, ok := merged[cell]; ok {
				have.combine(r, acc)
			} else {
				merged[cell] = acc
			}
		}
	}

	out := make(grid.Grid, len(merged))
	for cell, acc := range merged {
		v := acc.result(r)
		if opts.Convert != nil {
			v = opts.Convert(v)
		}
		out[cell] = v
	}
	return out, nil
}

// foldRows scans rows [r0, r1) of the window into a fresh partial grid.
func foldRows(ctx context.Context, w *raster.Window, r Reducer, res int, cellFor CellFunc, r0, r1 int, rowDone func()) (map[hexgrid.Cell]*accumulator, error) {
	acc := map[hexgrid.Cell]*accumulator{}

	for row := r0; row < r1; row++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for col, v := range w.Pixels[row] {
			if v == w.NoData {
				continue
			}
			lat, lon := w.Center(row, col)
			cell, err := cellFor(lat, lon, res)
			if err != nil {
				return nil, fmt.Errorf("aggregate: pixel (%d,%d): %w", row, col, err)
			}
			a, ok := acc[cell]
			if !ok {
				a = &accumulator{}
				acc[cell] = a
			}
			a.fold(r, v)
		}
		rowDone()
	}
	return acc, nil
}
