package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frictiongo/pkg/hexgrid"
)

// chain builds a bidirectional line graph 1 - 2 - 3 - ... - n with unit
// edge costs.
func chain(n int) map[hexgrid.Cell]map[hexgrid.Cell]float64 {
	adj := map[hexgrid.Cell]map[hexgrid.Cell]float64{}
	for i := 1; i < n; i++ {
		a, b := hexgrid.Cell(i), hexgrid.Cell(i+1)
		if adj[a] == nil {
			adj[a] = map[hexgrid.Cell]float64{}
		}
		if adj[b] == nil {
			adj[b] = map[hexgrid.Cell]float64{}
		}
		adj[a][b] = 1
		adj[b][a] = 1
	}
	return adj
}

func TestIsochrone_ThresholdZero(t *testing.T) {
	r := Isochrone(edgesOf(chain(5)), 1, 0)

	assert.Len(t, r.Times, 1, "threshold 0 yields exactly the origin")
	assert.True(t, r.Contains(1))
	assert.Zero(t, r.Times[1])
}

func TestIsochrone_Threshold(t *testing.T) {
	r := Isochrone(edgesOf(chain(10)), 1, 3)

	// Cells 1..4 are within 3 minutes of cell 1.
	assert.Equal(t, []hexgrid.Cell{1, 2, 3, 4}, r.Cells())
	assert.Equal(t, 3.0, r.Times[4])
}

func TestIsochrone_Monotonicity(t *testing.T) {
	// For T1 < T2, the T1 region must be a subset of the T2 region.
	edges := edgesOf(chain(20))

	small := Isochrone(edges, 1, 4)
	large := Isochrone(edges, 1, 9)

	assert.Less(t, len(small.Times), len(large.Times))
	for c := range small.Times {
		assert.True(t, large.Contains(c), "cell %s missing from larger isochrone", c)
	}
}

func TestIsochrone_DisconnectedRegion(t *testing.T) {
	// Origin 1 can never reach cells beyond the break at 3.
	adj := chain(3)
	r := Isochrone(edgesOf(adj), 1, 100)

	assert.Equal(t, []hexgrid.Cell{1, 2, 3}, r.Cells())
	assert.False(t, r.Contains(4))
}

func TestIsochrone_Boundary(t *testing.T) {
	// On the chain the interior cells have both neighbors settled; only the
	// two ends of the settled segment touch the outside.
	r := Isochrone(edgesOf(chain(10)), 3, 2)
	require.Equal(t, []hexgrid.Cell{1, 2, 3, 4, 5}, r.Cells())

	neighbors := func(c hexgrid.Cell) ([]hexgrid.Cell, error) {
		return []hexgrid.Cell{c - 1, c + 1}, nil
	}

	assert.Equal(t, []hexgrid.Cell{1, 5}, r.Boundary(neighbors))
}
