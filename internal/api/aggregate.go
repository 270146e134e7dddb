package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"frictiongo/pkg/aggregate"
	"frictiongo/pkg/config"
	"frictiongo/pkg/grid"
	"frictiongo/pkg/raster"
	"frictiongo/pkg/store"
)

// Job states.
const (
	JobRunning = "running"
	JobDone    = "done"
	JobFailed  = "failed"
)

// Job tracks one background aggregation run.
type Job struct {
	ID         string    `json:"id"`
	State      string    `json:"state"`
	GridKey    string    `json:"grid_key"`
	RowsDone   int       `json:"rows_done"`
	RowsTotal  int       `json:"rows_total"`
	CellCount  int       `json:"cell_count"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
}

// AggregateHandler runs raster aggregation jobs in the background and
// reports their progress over the websocket hub.
type AggregateHandler struct {
	cfg   *config.Config
	grids store.GridStore
	hub   *Hub

	// OnGrid, when set, receives each successfully aggregated grid, letting
	// the daemon swap its live query surface.
	OnGrid func(grid.Grid, *store.GridMeta)

	mu   sync.Mutex
	jobs map[string]*Job
}

func NewAggregateHandler(cfg *config.Config, grids store.GridStore, hub *Hub) *AggregateHandler {
	return &AggregateHandler{
		cfg:   cfg,
		grids: grids,
		hub:   hub,
		jobs:  map[string]*Job{},
	}
}

// AggregateRequest is the body of POST /api/aggregate. Empty fields fall
// back to the configured defaults.
type AggregateRequest struct {
	RasterPath string `json:"raster_path"`
	Resolution int    `json:"resolution"`
	Reducer    string `json:"reducer"`
	Workers    int    `json:"workers"`
}

func (h *AggregateHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	var req AggregateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.RasterPath == "" {
		req.RasterPath = h.cfg.Raster.Path
	}
	if req.Resolution == 0 {
		req.Resolution = h.cfg.Grid.Resolution
	}
	if req.Reducer == "" {
		req.Reducer = h.cfg.Aggregate.Reducer
	}
	if req.Workers == 0 {
		req.Workers = h.cfg.Aggregate.Workers
	}

	reducer, err := aggregate.ParseReducer(req.Reducer)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	job := &Job{
		ID:        uuid.NewString(),
		State:     JobRunning,
		GridKey:   store.GridKey(req.RasterPath, req.Resolution, req.Reducer),
		StartedAt: time.Now(),
	}
	h.mu.Lock()
	h.jobs[job.ID] = job
	h.mu.Unlock()

	go h.run(job, req, reducer)

	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, map[string]string{"job_id": job.ID})
}

func (h *AggregateHandler) HandleJob(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	job, ok := h.jobs[r.PathValue("id")]
	var snapshot Job
	if ok {
		snapshot = *job
	}
	h.mu.Unlock()

	if !ok {
		http.Error(w, "unknown job", http.StatusNotFound)
		return
	}
	writeJSON(w, snapshot)
}

func (h *AggregateHandler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	h.hub.Subscribe(w, r)
}

func (h *AggregateHandler) run(job *Job, req AggregateRequest, reducer aggregate.Reducer) {
	ctx := context.Background()

	window, err := raster.ReadASCIIGrid(req.RasterPath)
	if err != nil {
		h.fail(job, err)
		return
	}
	window.NoData = h.cfg.Raster.NoData

	convert, err := aggregate.RateScale(h.cfg.Aggregate.FrictionScale)
	if err != nil {
		h.fail(job, err)
		return
	}

	// Broadcast at whole-percent steps to keep websocket traffic sane on
	// large rasters. Progress callbacks arrive from multiple workers.
	var progressMu sync.Mutex
	lastPercent := -1
	progress := func(done, total int) {
		percent := done * 100 / total
		h.mu.Lock()
		job.RowsDone = done
		job.RowsTotal = total
		h.mu.Unlock()

		progressMu.Lock()
		skip := percent == lastPercent
		if !skip {
			lastPercent = percent
		}
		progressMu.Unlock()
		if skip {
			return
		}
		h.hub.Broadcast(ProgressEvent{
			JobID:     job.ID,
			State:     JobRunning,
			RowsDone:  done,
			RowsTotal: total,
			Percent:   float64(percent),
		})
	}

	g, err := aggregate.Aggregate(ctx, window, reducer, req.Resolution, aggregate.Options{
		Workers:  req.Workers,
		Convert:  convert,
		Progress: progress,
	})
	if err != nil {
		h.fail(job, err)
		return
	}

	meta := &store.GridMeta{
		Key:        job.GridKey,
		SourcePath: req.RasterPath,
		Resolution: req.Resolution,
		Reducer:    req.Reducer,
		CellCount:  len(g),
	}
	if hash, err := store.HashFile(req.RasterPath); err == nil {
		meta.SourceHash = hash
	}
	if h.grids != nil {
		if err := h.grids.PutGrid(ctx, meta, g); err != nil {
			h.fail(job, err)
			return
		}
	}

	h.mu.Lock()
	job.State = JobDone
	job.CellCount = len(g)
	job.FinishedAt = time.Now()
	h.mu.Unlock()

	h.hub.Broadcast(ProgressEvent{
		JobID:     job.ID,
		State:     JobDone,
		RowsDone:  job.RowsTotal,
		RowsTotal: job.RowsTotal,
		Percent:   100,
	})
	slog.Info("aggregation job finished", "job", job.ID, "key", job.GridKey, "cells", len(g))

	if h.OnGrid != nil {
		h.OnGrid(g, meta)
	}
}

func (h *AggregateHandler) fail(job *Job, err error) {
	h.mu.Lock()
	job.State = JobFailed
	job.Error = err.Error()
	job.FinishedAt = time.Now()
	h.mu.Unlock()

	h.hub.Broadcast(ProgressEvent{JobID: job.ID, State: JobFailed, Error: err.Error()})
	slog.Error("aggregation job failed", "job", job.ID, "error", err)
}
