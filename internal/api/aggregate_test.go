package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frictiongo/pkg/config"
	"frictiongo/pkg/grid"
	"frictiongo/pkg/store"
)

// writeTestRaster puts a tiny friction patch near Paris on disk. Pixel
// values are rates scaled by 100, matching the configured friction scale.
func writeTestRaster(t *testing.T) string {
	t.Helper()
	asc := `ncols 4
nrows 3
xllcorner 2.35
yllcorner 48.85
cellsize 0.001
nodata_value -9999
1 1 1 1
1 2 2 1
1 1 -9999 1
`
	path := filepath.Join(t.TempDir(), "friction.asc")
	require.NoError(t, os.WriteFile(path, []byte(asc), 0o644))
	return path
}

func testAggregateConfig(rasterPath string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Raster.Path = rasterPath
	cfg.Grid.Resolution = 6
	cfg.Aggregate.Workers = 2
	return cfg
}

func waitForJob(t *testing.T, h *AggregateHandler, id string) Job {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		req := httptest.NewRequest(http.MethodGet, "/api/aggregate/jobs/"+id, nil)
		req.SetPathValue("id", id)
		rec := httptest.NewRecorder()
		h.HandleJob(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var job Job
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
		if job.State != JobRunning {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job did not finish in time")
	return Job{}
}

func TestAggregateJob(t *testing.T) {
	rasterPath := writeTestRaster(t)
	gs := newMockGridStore()
	h := NewAggregateHandler(testAggregateConfig(rasterPath), gs, NewHub())

	var swapped grid.Grid
	done := make(chan struct{})
	h.OnGrid = func(g grid.Grid, meta *store.GridMeta) {
		swapped = g
		close(done)
	}

	rec := httptest.NewRecorder()
	h.HandleStart(rec, httptest.NewRequest(http.MethodPost, "/api/aggregate", strings.NewReader("{}")))
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	jobID := resp["job_id"]
	require.NotEmpty(t, jobID)

	job := waitForJob(t, h, jobID)
	assert.Equal(t, JobDone, job.State)
	assert.Equal(t, 3, job.RowsTotal)
	assert.Greater(t, job.CellCount, 0)

	// The grid landed in the store under the derived key.
	key := store.GridKey(rasterPath, 6, "min")
	assert.Equal(t, key, job.GridKey)
	assert.Contains(t, gs.saved, key)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("OnGrid was not called")
	}
	assert.Len(t, swapped, job.CellCount)

	// A 100-scaled rate of 1 becomes 0.01 min/m in the stored grid.
	for _, v := range gs.saved[key] {
		assert.InDelta(t, 0.01, v, 0.011)
	}
}

func TestAggregateJob_BadReducer(t *testing.T) {
	h := NewAggregateHandler(testAggregateConfig(writeTestRaster(t)), newMockGridStore(), NewHub())

	rec := httptest.NewRecorder()
	h.HandleStart(rec, httptest.NewRequest(http.MethodPost, "/api/aggregate",
		strings.NewReader(`{"reducer":"median"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAggregateJob_MissingRaster(t *testing.T) {
	cfg := testAggregateConfig("/nonexistent/friction.asc")
	h := NewAggregateHandler(cfg, newMockGridStore(), NewHub())

	rec := httptest.NewRecorder()
	h.HandleStart(rec, httptest.NewRequest(http.MethodPost, "/api/aggregate", strings.NewReader("{}")))
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	job := waitForJob(t, h, resp["job_id"])
	assert.Equal(t, JobFailed, job.State)
	assert.NotEmpty(t, job.Error)
}

func TestHandleJob_Unknown(t *testing.T) {
	h := NewAggregateHandler(testAggregateConfig("x"), newMockGridStore(), NewHub())

	req := httptest.NewRequest(http.MethodGet, "/api/aggregate/jobs/nope", nil)
	req.SetPathValue("id", "nope")
	rec := httptest.NewRecorder()
	h.HandleJob(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
