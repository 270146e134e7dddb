package grid

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frictiongo/pkg/hexgrid"
)

func testGrid(t *testing.T) Grid {
	t.Helper()
	g := Grid{}
	coords := []struct{ lat, lon float64 }{
		{48.8566, 2.3522},
		{48.95, 2.5},
		{15.462, -87.934},
	}
	// Values chosen to exercise exact float round-tripping.
	vals := []float64{0.1 + 0.2, 1.0 / 3.0, 42}
	for i, c := range coords {
		cell, err := hexgrid.CellForLatLng(c.lat, c.lon, 6)
		require.NoError(t, err)
		g[cell] = vals[i]
	}
	return g
}

func TestCodec_RoundTrip(t *testing.T) {
	g := testGrid(t)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, g))

	got, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, g, got, "write then read must yield an identical mapping")
}

func TestCodec_FileRoundTrip(t *testing.T) {
	g := testGrid(t)

	for _, name := range []string{"grid.csv", "grid.csv.gz"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, WriteFile(path, g))

			got, err := ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, g, got)
		})
	}
}

func TestRead_BadInput(t *testing.T) {
	_, err := Read(bytes.NewBufferString("foo,bar\n"))
	assert.Error(t, err, "unexpected header")

	_, err = Read(bytes.NewBufferString("hex,value\nnot-a-cell,1\n"))
	assert.Error(t, err)

	cell, cerr := hexgrid.CellForLatLng(48.8566, 2.3522, 6)
	require.NoError(t, cerr)
	_, err = Read(bytes.NewBufferString("hex,value\n" + cell.String() + ",abc\n"))
	assert.Error(t, err)
}

func TestGrid_Cells_Sorted(t *testing.T) {
	g := testGrid(t)
	cells := g.Cells()
	require.Len(t, cells, 3)
	for i := 1; i < len(cells); i++ {
		assert.Less(t, cells[i-1], cells[i])
	}
}
