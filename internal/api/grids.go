package api

import (
	"log/slog"
	"net/http"
	"time"

	"frictiongo/pkg/store"
)

// GridsHandler exposes the grid cache.
type GridsHandler struct {
	grids store.GridStore
}

func NewGridsHandler(grids store.GridStore) *GridsHandler {
	return &GridsHandler{grids: grids}
}

// GridInfo is the JSON shape of one cached grid's metadata.
type GridInfo struct {
	Key        string    `json:"key"`
	SourcePath string    `json:"source_path"`
	Resolution int       `json:"resolution"`
	Reducer    string    `json:"reducer"`
	CellCount  int       `json:"cell_count"`
	CreatedAt  time.Time `json:"created_at"`
}

func (h *GridsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	metas, err := h.grids.ListGrids(r.Context())
	if err != nil {
		slog.Error("failed to list grids", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	infos := make([]GridInfo, 0, len(metas))
	for _, m := range metas {
		infos = append(infos, GridInfo{
			Key:        m.Key,
			SourcePath: m.SourcePath,
			Resolution: m.Resolution,
			Reducer:    m.Reducer,
			CellCount:  m.CellCount,
			CreatedAt:  m.CreatedAt,
		})
	}
	writeJSON(w, infos)
}

func (h *GridsHandler) HandleInvalidate(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		http.Error(w, "grid key is required", http.StatusBadRequest)
		return
	}

	if err := h.grids.InvalidateGrid(r.Context(), key); err != nil {
		slog.Error("failed to invalidate grid", "key", key, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
