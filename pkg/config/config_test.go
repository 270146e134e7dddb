package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 6, cfg.Grid.Resolution)
	assert.Equal(t, "min", cfg.Aggregate.Reducer)
	assert.Equal(t, "destination", cfg.Cost.Blend)
	assert.Equal(t, -9999.0, cfg.Raster.NoData)
	assert.Equal(t, 3000.0, cfg.Search.MaxCost.Minutes())
}

func TestLoad_CreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "friction.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Grid.Resolution, cfg.Grid.Resolution)

	// The file was written and contains the enum option comments.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Options: min, max, mean, sum, count, first")
	assert.Contains(t, string(data), "# Options: destination (asymmetric), average (symmetric)")
}

func TestLoad_MergesWithDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "friction.yaml")
	partial := `grid:
  resolution: 8
aggregate:
  reducer: mean
search:
  max_cost: 2h
`
	require.NoError(t, os.WriteFile(path, []byte(partial), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Grid.Resolution)
	assert.Equal(t, "mean", cfg.Aggregate.Reducer)
	assert.Equal(t, 120.0, cfg.Search.MaxCost.Minutes())
	// Untouched sections keep their defaults.
	assert.Equal(t, "destination", cfg.Cost.Blend)
	assert.Equal(t, 4, cfg.Aggregate.Workers)
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "friction.yaml")
	require.NoError(t, os.WriteFile(path, []byte("grid: ["), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestParseDuration_ExtendedUnits(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"30s", 30 * time.Second},
		{"90m", 90 * time.Minute},
		{"1d", Day},
		{"2w", 2 * Week},
		{"1d12h", Day + 12*time.Hour},
		{"", 0},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseDuration(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := ParseDuration("5parsecs")
	assert.Error(t, err)
}
