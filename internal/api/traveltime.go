package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"frictiongo/pkg/hexgrid"
	"frictiongo/pkg/traveltime"
)

// TravelTimeHandler answers point-to-point travel time queries.
type TravelTimeHandler struct {
	svc *traveltime.Service
}

func NewTravelTimeHandler(svc *traveltime.Service) *TravelTimeHandler {
	return &TravelTimeHandler{svc: svc}
}

// TravelTimeResponse is the JSON shape of a travel time result.
type TravelTimeResponse struct {
	TravelTimeS float64 `json:"travel_time_s"`
	Reachable   bool    `json:"reachable"`
}

func (h *TravelTimeHandler) Handle(w http.ResponseWriter, r *http.Request) {
	olat, ok1 := parseFloatParam(r, "olat")
	olon, ok2 := parseFloatParam(r, "olon")
	dlat, ok3 := parseFloatParam(r, "dlat")
	dlon, ok4 := parseFloatParam(r, "dlon")
	if !ok1 || !ok2 || !ok3 || !ok4 {
		http.Error(w, "olat, olon, dlat, dlon are required", http.StatusBadRequest)
		return
	}

	secs, reachable, err := h.svc.TravelTime(r.Context(), olat, olon, dlat, dlon)
	if err != nil {
		if errors.Is(err, hexgrid.ErrInvalidCoordinate) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.Error("travel time query failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, TravelTimeResponse{TravelTimeS: secs, Reachable: reachable})
}

func parseFloatParam(r *http.Request, name string) (float64, bool) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
