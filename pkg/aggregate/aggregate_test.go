package aggregate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frictiongo/pkg/hexgrid"
	"frictiongo/pkg/raster"
)

// uniformWindow builds a rows x cols window with constant pixel value v,
// 1-degree pixels, top-left at (50N, 0E).
func uniformWindow(rows, cols int, v float64) *raster.Window {
	pixels := make([][]float64, rows)
	for r := range pixels {
		pixels[r] = make([]float64, cols)
		for c := range pixels[r] {
			pixels[r][c] = v
		}
	}
	return &raster.Window{
		Pixels:    pixels,
		Transform: raster.NewNorthUp(0, 50, 1, 1),
		NoData:    -9999,
	}
}

// colCells maps every pixel to a synthetic cell derived from its column, so
// tests control the pixel-to-cell bucketing exactly.
func colCells(w *raster.Window) CellFunc {
	return func(lat, lon float64, res int) (hexgrid.Cell, error) {
		col, _, err := w.Transform.GeoToPixel(lon, lat)
		if err != nil {
			return 0, err
		}
		return hexgrid.Cell(uint64(col)), nil
	}
}

func TestAggregate_SingleCellMean(t *testing.T) {
	// A 3x3 uniform raster whose pixels all land in one hex cell aggregates
	// with mean to exactly the constant value. Resolution 5 hexagons are
	// ~8km across at the equator; a 3x3 block of 30m pixels centered on a
	// cell center is far inside it.
	cell, err := hexgrid.CellForLatLng(48.0, 11.0, 5)
	require.NoError(t, err)
	clat, clon, err := hexgrid.Center(cell)
	require.NoError(t, err)

	const pix = 0.0003 // ~30m
	pixels := [][]float64{{1, 1, 1}, {1, 1, 1}, {1, 1, 1}}
	w := &raster.Window{
		Pixels:    pixels,
		Transform: raster.NewNorthUp(clon-1.5*pix, clat+1.5*pix, pix, pix),
		NoData:    -9999,
	}

	g, err := Aggregate(context.Background(), w, Mean, 5, Options{})
	require.NoError(t, err)

	require.Equal(t, 1, g.Len(), "all pixels map to one cell")
	v, ok := g.Value(cell)
	require.True(t, ok)
	assert.Equal(t, 1.0, v)
}

func TestAggregate_Reducers(t *testing.T) {
	// Two columns, two rows: column 0 holds {1, 3}, column 1 holds {2, -9999}.
	w := uniformWindow(2, 2, 0)
	w.Pixels[0][0], w.Pixels[0][1] = 1, 2
	w.Pixels[1][0], w.Pixels[1][1] = 3, -9999

	cases := []struct {
		r          Reducer
		col0, col1 float64
	}{
		{Min, 1, 2},
		{Max, 3, 2},
		{Mean, 2, 2},
		{Sum, 4, 2},
		{Count, 2, 1},
		{First, 1, 2},
	}
	for _, tc := range cases {
		t.Run(tc.r.String(), func(t *testing.T) {
			g, err := Aggregate(context.Background(), w, tc.r, 6, Options{CellFor: colCells(w)})
			require.NoError(t, err)

			require.Equal(t, 2, g.Len())
			v0, _ := g.Value(hexgrid.Cell(0))
			v1, _ := g.Value(hexgrid.Cell(1))
			assert.Equal(t, tc.col0, v0)
			assert.Equal(t, tc.col1, v1)
		})
	}
}

func TestAggregate_NoDataOnlyCellOmitted(t *testing.T) {
	w := uniformWindow(2, 2, 5)
	w.Pixels[0][1] = -9999
	w.Pixels[1][1] = -9999

	g, err := Aggregate(context.Background(), w, Mean, 6, Options{CellFor: colCells(w)})
	require.NoError(t, err)

	assert.Equal(t, 1, g.Len(), "a cell with only nodata contributors is absent")
	_, ok := g.Value(hexgrid.Cell(1))
	assert.False(t, ok)
}

func TestAggregate_ParallelMatchesSequential(t *testing.T) {
	w := uniformWindow(32, 8, 0)
	for r := range w.Pixels {
		for c := range w.Pixels[r] {
			w.Pixels[r][c] = float64((r*13+c*7)%29) / 3.0
		}
	}

	for _, r := range []Reducer{Min, Max, Mean, Sum, Count, First} {
		t.Run(r.String(), func(t *testing.T) {
			seq, err := Aggregate(context.Background(), w, r, 6, Options{CellFor: colCells(w), Workers: 1})
			require.NoError(t, err)
			par, err := Aggregate(context.Background(), w, r, 6, Options{CellFor: colCells(w), Workers: 4})
			require.NoError(t, err)
			assert.Equal(t, seq, par)
		})
	}
}

func TestAggregate_SplitAndMergeEqualsWhole(t *testing.T) {
	// Aggregating two halves independently and merging the results must
	// equal aggregating the whole window, for associative reducers.
	w := uniformWindow(10, 4, 0)
	for r := range w.Pixels {
		for c := range w.Pixels[r] {
			w.Pixels[r][c] = float64(r ^ c)
		}
	}

	topRows := make([][]float64, 5)
	botRows := make([][]float64, 5)
	copy(topRows, w.Pixels[:5])
	copy(botRows, w.Pixels[5:])
	top := &raster.Window{Pixels: topRows, Transform: w.Transform, NoData: w.NoData}
	bot := &raster.Window{Pixels: botRows, Transform: w.Transform, RowOff: 5, NoData: w.NoData}

	for _, r := range []Reducer{Min, Max, Sum, Count} {
		t.Run(r.String(), func(t *testing.T) {
			whole, err := Aggregate(context.Background(), w, r, 6, Options{CellFor: colCells(w)})
			require.NoError(t, err)

			gt, err := Aggregate(context.Background(), top, r, 6, Options{CellFor: colCells(w)})
			require.NoError(t, err)
			gb, err := Aggregate(context.Background(), bot, r, 6, Options{CellFor: colCells(w)})
			require.NoError(t, err)

			merged := map[hexgrid.Cell]float64{}
			for c, v := range gt {
				merged[c] = v
			}
			for c, v := range gb {
				if have, ok := merged[c]; ok {
					switch r {
					case Min:
						if v < have {
							merged[c] = v
						}
					case Max:
						if v > have {
							merged[c] = v
						}
					case Sum, Count:
						merged[c] = have + v
					}
				} else {
					merged[c] = v
				}
			}

			assert.Equal(t, map[hexgrid.Cell]float64(whole), merged)
		})
	}
}

func TestAggregate_Progress(t *testing.T) {
	w := uniformWindow(6, 2, 1)

	var calls int
	var last int
	_, err := Aggregate(context.Background(), w, Sum, 6, Options{
		CellFor: colCells(w),
		Progress: func(done, total int) {
			calls++
			last = total
			assert.LessOrEqual(t, done, total)
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 6, calls)
	assert.Equal(t, 6, last)
}

func TestAggregate_Cancelled(t *testing.T) {
	w := uniformWindow(4, 2, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Aggregate(ctx, w, Sum, 6, Options{CellFor: colCells(w)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFrictionMinutes(t *testing.T) {
	conv, err := FrictionMinutes(6, 100)
	require.NoError(t, err)

	edge, err := hexgrid.EdgeLengthM(6)
	require.NoError(t, err)
	assert.InDelta(t, 2*edge/100, conv(1.0), 1e-9)

	_, err = FrictionMinutes(6, 0)
	assert.Error(t, err)
}

func TestRateScale(t *testing.T) {
	conv, err := RateScale(100)
	require.NoError(t, err)
	assert.InDelta(t, 0.01, conv(1.0), 1e-12)
	assert.InDelta(t, 0.5, conv(50), 1e-12)

	_, err = RateScale(-1)
	assert.Error(t, err)
}
