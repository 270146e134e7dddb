package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"frictiongo/pkg/export"
	"frictiongo/pkg/hexgrid"
	"frictiongo/pkg/traveltime"
)

// IsochroneHandler answers reachable-region queries.
type IsochroneHandler struct {
	svc *traveltime.Service
}

func NewIsochroneHandler(svc *traveltime.Service) *IsochroneHandler {
	return &IsochroneHandler{svc: svc}
}

// IsochroneCell is one reachable cell and its travel time.
type IsochroneCell struct {
	Hex     string  `json:"hex"`
	Minutes float64 `json:"minutes"`
}

// IsochroneResponse is the JSON shape of an isochrone result.
type IsochroneResponse struct {
	Origin       string          `json:"origin"`
	ThresholdMin float64         `json:"threshold_min"`
	Cells        []IsochroneCell `json:"cells"`
}

// Handle computes the region reachable within ?minutes from ?lat/?lon.
// ?format=geojson renders the cells as a polygon feature collection instead
// of the plain JSON listing.
func (h *IsochroneHandler) Handle(w http.ResponseWriter, r *http.Request) {
	lat, ok1 := parseFloatParam(r, "lat")
	lon, ok2 := parseFloatParam(r, "lon")
	minutes, ok3 := parseFloatParam(r, "minutes")
	if !ok1 || !ok2 || !ok3 {
		http.Error(w, "lat, lon, minutes are required", http.StatusBadRequest)
		return
	}
	if minutes < 0 {
		http.Error(w, "minutes must be non-negative", http.StatusBadRequest)
		return
	}

	reach, err := h.svc.Isochrone(r.Context(), lat, lon, minutes)
	if err != nil {
		if errors.Is(err, hexgrid.ErrInvalidCoordinate) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.Error("isochrone query failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if r.URL.Query().Get("format") == "geojson" {
		fc, err := export.FeatureCollection(reach.Times, "travel_time_min")
		if err != nil {
			slog.Error("isochrone geojson rendering failed", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/geo+json")
		if err := json.NewEncoder(w).Encode(fc); err != nil {
			slog.Error("Failed to encode feature collection", "error", err)
		}
		return
	}

	resp := IsochroneResponse{
		Origin:       reach.Origin.String(),
		ThresholdMin: reach.Threshold,
		Cells:        make([]IsochroneCell, 0, len(reach.Times)),
	}
	for _, c := range reach.Cells() {
		resp.Cells = append(resp.Cells, IsochroneCell{Hex: c.String(), Minutes: reach.Times[c]})
	}
	writeJSON(w, resp)
}
