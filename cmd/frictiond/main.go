package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"frictiongo/internal/api"
	"frictiongo/pkg/aggregate"
	"frictiongo/pkg/config"
	"frictiongo/pkg/cost"
	"frictiongo/pkg/db"
	"frictiongo/pkg/grid"
	"frictiongo/pkg/logging"
	"frictiongo/pkg/probe"
	"frictiongo/pkg/raster"
	"frictiongo/pkg/store"
	"frictiongo/pkg/traveltime"
	"frictiongo/pkg/version"
)

var (
	configPath = flag.String("config", "configs/friction.yaml", "Path to config file")
	initConfig = flag.Bool("init-config", false, "Generate default config file and exit")
)

func main() {
	flag.Parse()

	// Local overrides (paths, addresses) may live in a .env file.
	_ = godotenv.Load()

	if *initConfig {
		if err := config.GenerateDefault(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Config file generated:", *configPath)
		return
	}

	if err := run(context.Background(), *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cleanupLogs, err := logging.Init(
		cfg.Log.Server.Path, cfg.Log.Server.Level,
		cfg.Log.Requests.Path, cfg.Log.Requests.Level,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	slog.Info("frictiond started", "version", version.Version)

	dbConn, err := db.Init(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbConn.Close()
	st := store.NewSQLiteStore(dbConn)

	if err := dbConn.PruneGrids(30 * config.Day); err != nil {
		slog.Warn("grid cache maintenance failed", "error", err)
	}

	g, err := loadGrid(ctx, cfg, st)
	if err != nil {
		return fmt.Errorf("failed to load friction grid: %w", err)
	}
	activeKey := store.GridKey(cfg.Raster.Path, cfg.Grid.Resolution, cfg.Aggregate.Reducer)
	if err := st.SetState(ctx, "grid.active", activeKey); err != nil {
		slog.Warn("failed to record active grid", "error", err)
	}

	blend, err := cost.ParseBlend(cfg.Cost.Blend)
	if err != nil {
		return fmt.Errorf("invalid cost config: %w", err)
	}
	svc := traveltime.NewService(g, cfg.Grid.Resolution, blend, cfg.Search.MaxCost.Minutes())

	probes := []probe.Probe{
		{
			Name: "Database",
			Check: func(ctx context.Context) error {
				return dbConn.PingContext(ctx)
			},
			Critical: true,
		},
		{
			Name: "Friction Grid",
			Check: func(ctx context.Context) error {
				if len(g) == 0 {
					return fmt.Errorf("grid is empty")
				}
				return nil
			},
			Critical: true,
		},
		{
			Name: "Raster Source",
			Check: func(ctx context.Context) error {
				_, err := os.Stat(cfg.Raster.Path)
				return err
			},
			Critical: false,
		},
	}
	if err := probe.AnalyzeResults(probe.Run(ctx, probes)); err != nil {
		return fmt.Errorf("startup checks failed: %w", err)
	}

	return runServer(ctx, cfg, svc, st)
}

// loadGrid resolves the query surface in order of preference: the grid
// cache in the database, the exported grid file, and finally a fresh
// aggregation of the configured raster (persisted for next time).
func loadGrid(ctx context.Context, cfg *config.Config, st store.Store) (grid.Grid, error) {
	key := store.GridKey(cfg.Raster.Path, cfg.Grid.Resolution, cfg.Aggregate.Reducer)

	sourceHash := ""
	if hash, err := store.HashFile(cfg.Raster.Path); err == nil {
		sourceHash = hash
	}

	if g, meta, err := st.GetGrid(ctx, key, sourceHash); err != nil {
		return nil, err
	} else if meta != nil {
		slog.Info("loaded grid from cache", "key", key, "cells", len(g))
		return g, nil
	}

	if _, err := os.Stat(cfg.Grid.Path); err == nil {
		g, err := grid.ReadFile(cfg.Grid.Path)
		if err != nil {
			return nil, err
		}
		slog.Info("loaded grid from file", "path", cfg.Grid.Path, "cells", len(g))
		return g, nil
	}

	slog.Info("no cached grid, aggregating raster", "path", cfg.Raster.Path)
	g, err := aggregateRaster(ctx, cfg)
	if err != nil {
		return nil, err
	}

	meta := &store.GridMeta{
		Key:        key,
		SourcePath: cfg.Raster.Path,
		SourceHash: sourceHash,
		Resolution: cfg.Grid.Resolution,
		Reducer:    cfg.Aggregate.Reducer,
		CellCount:  len(g),
	}
	if err := st.PutGrid(ctx, meta, g); err != nil {
		slog.Warn("failed to cache aggregated grid", "error", err)
	}
	return g, nil
}

func aggregateRaster(ctx context.Context, cfg *config.Config) (grid.Grid, error) {
	window, err := raster.ReadASCIIGrid(cfg.Raster.Path)
	if err != nil {
		return nil, err
	}
	window.NoData = cfg.Raster.NoData

	reducer, err := aggregate.ParseReducer(cfg.Aggregate.Reducer)
	if err != nil {
		return nil, err
	}
	convert, err := aggregate.RateScale(cfg.Aggregate.FrictionScale)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	g, err := aggregate.Aggregate(ctx, window, reducer, cfg.Grid.Resolution, aggregate.Options{
		Workers: cfg.Aggregate.Workers,
		Convert: convert,
	})
	if err != nil {
		return nil, err
	}
	slog.Info("aggregation finished", "cells", len(g), "took", time.Since(start).Round(time.Millisecond))
	return g, nil
}

func runServer(ctx context.Context, cfg *config.Config, svc *traveltime.Service, st store.Store) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	shutdownFunc := func() { quit <- syscall.SIGTERM }

	hub := api.NewHub()
	defer hub.Close()

	aggH := api.NewAggregateHandler(cfg, st, hub)
	aggH.OnGrid = func(g grid.Grid, meta *store.GridMeta) {
		// The live service keeps its surface; the refreshed grid applies on
		// the next start. Keep the exported artifact in sync.
		if err := grid.WriteFile(cfg.Grid.Path, g); err != nil {
			slog.Warn("failed to export refreshed grid", "error", err)
			return
		}
		slog.Info("refreshed grid exported, restart to serve it", "path", cfg.Grid.Path, "key", meta.Key)
	}

	srv := api.NewServer(cfg.Server.Address,
		api.NewTravelTimeHandler(svc),
		api.NewIsochroneHandler(svc),
		api.NewGridsHandler(st),
		aggH,
		api.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst),
		shutdownFunc,
	)

	return runServerLifecycle(ctx, srv, quit)
}

func runServerLifecycle(ctx context.Context, srv *http.Server, quit chan os.Signal) error {
	slog.Info("Starting server", "addr", srv.Addr)
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()
	select {
	case <-quit:
		slog.Info("Shutting down server...")
	case <-ctx.Done():
		slog.Info("Context cancelled, shutting down...")
	case err := <-serverErrors:
		return fmt.Errorf("server failed: %w", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
