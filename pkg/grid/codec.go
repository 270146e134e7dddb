package grid

import (
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"frictiongo/pkg/hexgrid"
)

// The persisted form is a two-column CSV with a "hex,value" header, one cell
// per line, gzip-compressed when the file name ends in .gz. Values are
// rendered with the shortest representation that round-trips exactly, so
// writing and re-reading a grid yields an identical mapping.

// Write serializes the grid to w in cell-identifier order.
func Write(w io.Writer, g Grid) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"hex", "value"}); err != nil {
		return fmt.Errorf("grid: write header: %w", err)
	}
	for _, c := range g.Cells() {
		v := strconv.FormatFloat(g[c], 'g', -1, 64)
		if err := cw.Write([]string{c.String(), v}); err != nil {
			return fmt.Errorf("grid: write cell %s: %w", c, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read parses a grid previously produced by Write.
func Read(r io.Reader) (Grid, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("grid: read header: %w", err)
	}
	if header[0] != "hex" || header[1] != "value" {
		return nil, fmt.Errorf("grid: unexpected header %v", header)
	}

	g := Grid{}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("grid: read record: %w", err)
		}
		cell, err := hexgrid.ParseCell(rec[0])
		if err != nil {
			return nil, err
		}
		v, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("grid: bad value %q for cell %s: %w", rec[1], cell, err)
		}
		g[cell] = v
	}
	return g, nil
}

// WriteFile writes the grid to path, gzipping when the path ends in .gz.
func WriteFile(path string, g Grid) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("grid: create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("grid: create %s: %w", path, err)
	}
	defer f.Close()

	if strings.HasSuffix(path, ".gz") {
		zw := gzip.NewWriter(f)
		if err := Write(zw, g); err != nil {
			return err
		}
		if err := zw.Close(); err != nil {
			return fmt.Errorf("grid: close gzip writer: %w", err)
		}
		return f.Close()
	}

	if err := Write(f, g); err != nil {
		return err
	}
	return f.Close()
}

// ReadFile reads a grid from path, gunzipping when the path ends in .gz.
func ReadFile(path string) (Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("grid: open %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("grid: open gzip reader: %w", err)
		}
		defer zr.Close()
		r = zr
	}
	return Read(r)
}
