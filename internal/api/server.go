package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"frictiongo/pkg/version"
)

// NewServer creates and configures the HTTP server.
// It accepts handlers for all API endpoints and a shutdownFunc for graceful shutdown.
func NewServer(addr string, tt *TravelTimeHandler, iso *IsochroneHandler, grids *GridsHandler, agg *AggregateHandler, limit *RateLimiter, shutdown func()) *http.Server {
	mux := http.NewServeMux()

	// 1. Health Endpoint
	mux.HandleFunc("GET /health", handleHealth)

	// 2. Version Endpoint
	mux.HandleFunc("GET /api/version", handleVersion)

	// 3. Query Endpoints
	mux.HandleFunc("GET /api/traveltime", tt.Handle)
	mux.HandleFunc("GET /api/isochrone", iso.Handle)

	// 4. Grid Endpoints
	if grids != nil {
		mux.HandleFunc("GET /api/grids", grids.HandleList)
		mux.HandleFunc("DELETE /api/grids/{key}", grids.HandleInvalidate)
	}

	// 5. Aggregation Endpoints
	if agg != nil {
		mux.HandleFunc("POST /api/aggregate", agg.HandleStart)
		mux.HandleFunc("GET /api/aggregate/jobs/{id}", agg.HandleJob)
		mux.HandleFunc("GET /api/aggregate/progress", agg.HandleProgress)
	}

	// 6. Shutdown Endpoint
	mux.HandleFunc("POST /api/shutdown", func(w http.ResponseWriter, r *http.Request) {
		slog.Info("Graceful shutdown initiated via API")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("Shutting down...")); err != nil {
			slog.Error("Failed to write shutdown response", "error", err)
		}
		// Call shutdown in a goroutine to allow response to flush
		go func() {
			time.Sleep(100 * time.Millisecond)
			shutdown()
		}()
	})

	var handler http.Handler = mux
	handler = withRequestLog(handler)
	if limit != nil {
		handler = limit.Middleware(handler)
	}

	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Failed to write health response", "error", err)
	}
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := fmt.Fprintf(w, `{"version": "%s"}`, version.Version); err != nil {
		slog.Error("Failed to write version response", "error", err)
	}
}
