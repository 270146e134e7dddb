package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"frictiongo/pkg/db"
	"frictiongo/pkg/grid"
	"frictiongo/pkg/hexgrid"
)

// SQLiteStore implements Store.
type SQLiteStore struct {
	db *db.DB
}

// NewSQLiteStore creates a new store.
func NewSQLiteStore(db *db.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GridKey derives the cache key for a source raster aggregated at a given
// resolution with a given reducer.
func GridKey(sourcePath string, resolution int, reducer string) string {
	return fmt.Sprintf("%s|r%d|%s", sourcePath, resolution, reducer)
}

// HashFile returns the hex sha256 of the file at path, used as the grid
// cache invalidation token.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// --- Grids ---

// GetGrid loads a cached grid. It returns (nil, nil, nil) when the key is
// absent or the stored source hash no longer matches sourceHash.
func (s *SQLiteStore) GetGrid(ctx context.Context, key, sourceHash string) (grid.Grid, *GridMeta, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT key, source_path, source_hash, resolution, reducer, cell_count, created_at
		 FROM grids WHERE key = ?`, key)

	var m GridMeta
	err := row.Scan(&m.Key, &m.SourcePath, &m.SourceHash, &m.Resolution, &m.Reducer, &m.CellCount, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, nil // Not found
		}
		return nil, nil, err
	}

	if sourceHash != "" && m.SourceHash != sourceHash {
		slog.Info("cached grid is stale, invalidating", "key", key)
		if err := s.InvalidateGrid(ctx, key); err != nil {
			return nil, nil, err
		}
		return nil, nil, nil
	}

	rows, err := s.db.QueryContext(ctx, "SELECT hex, value FROM grid_cells WHERE grid_key = ?", key)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	g := make(grid.Grid, m.CellCount)
	for rows.Next() {
		var hexID string
		var value float64
		if err := rows.Scan(&hexID, &value); err != nil {
			return nil, nil, err
		}
		c, err := hexgrid.ParseCell(hexID)
		if err != nil {
			return nil, nil, fmt.Errorf("corrupt grid cell %q: %w", hexID, err)
		}
		g[c] = value
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	return g, &m, nil
}

// PutGrid stores a grid and its metadata in one transaction, replacing any
// previous entry under the same key.
func (s *SQLiteStore) PutGrid(ctx context.Context, meta *GridMeta, g grid.Grid) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM grid_cells WHERE grid_key = ?", meta.Key); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM grids WHERE key = ?", meta.Key); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO grids (key, source_path, source_hash, resolution, reducer, cell_count)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		meta.Key, meta.SourcePath, meta.SourceHash, meta.Resolution, meta.Reducer, len(g))
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO grid_cells (grid_key, hex, value) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for c, v := range g {
		if _, err := stmt.ExecContext(ctx, meta.Key, c.String(), v); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) ListGrids(ctx context.Context) ([]*GridMeta, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, source_path, source_hash, resolution, reducer, cell_count, created_at
		 FROM grids ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var metas []*GridMeta
	for rows.Next() {
		var m GridMeta
		if err := rows.Scan(&m.Key, &m.SourcePath, &m.SourceHash, &m.Resolution, &m.Reducer, &m.CellCount, &m.CreatedAt); err != nil {
			return nil, err
		}
		metas = append(metas, &m)
	}
	return metas, rows.Err()
}

func (s *SQLiteStore) InvalidateGrid(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM grid_cells WHERE grid_key = ?", key); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, "DELETE FROM grids WHERE key = ?", key)
	return err
}

// --- State ---

func (s *SQLiteStore) GetState(ctx context.Context, key string) (string, bool) {
	var val string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM persistent_state WHERE key = ?", key).Scan(&val)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Warn("failed to read state", "key", key, "error", err)
		}
		return "", false
	}
	return val, true
}

func (s *SQLiteStore) SetState(ctx context.Context, key, val string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO persistent_state (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, val)
	return err
}

func (s *SQLiteStore) DeleteState(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM persistent_state WHERE key = ?", key)
	return err
}
