package raster

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ReadASCIIGrid loads an ESRI ASCII grid file into a full-raster Window.
// This is a thin adapter for the CLI tools; production rasters arrive as
// pixel arrays from the external decoding collaborator.
func ReadASCIIGrid(path string) (*Window, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("raster: open %s: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 1024*1024), 1024*1024)

	hdr := map[string]float64{}
	var rows [][]float64

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)

		// Header lines are "key value" pairs until the first data row.
		if len(fields) == 2 && len(rows) == 0 && !isDataRow(fields[0]) {
			v, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return nil, fmt.Errorf("raster: bad header value %q in %s: %w", fields[1], path, err)
			}
			hdr[strings.ToLower(fields[0])] = v
			continue
		}

		row := make([]float64, 0, len(fields))
		for _, fstr := range fields {
			v, err := strconv.ParseFloat(fstr, 64)
			if err != nil {
				return nil, fmt.Errorf("raster: bad pixel value %q in %s: %w", fstr, path, err)
			}
			row = append(row, v)
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("raster: read %s: %w", path, err)
	}

	ncols, nrows := int(hdr["ncols"]), int(hdr["nrows"])
	cellsize := hdr["cellsize"]
	if ncols == 0 || nrows == 0 || cellsize == 0 {
		return nil, fmt.Errorf("raster: %s: missing ncols/nrows/cellsize header", path)
	}
	if len(rows) != nrows {
		return nil, fmt.Errorf("raster: %s: expected %d rows, got %d", path, nrows, len(rows))
	}
	for i, r := range rows {
		if len(r) != ncols {
			return nil, fmt.Errorf("raster: %s: row %d has %d columns, expected %d", path, i, len(r), ncols)
		}
	}

	noData := -9999.0
	if v, ok := hdr["nodata_value"]; ok {
		noData = v
	}

	// xllcorner/yllcorner give the lower-left corner; the transform wants
	// the upper-left.
	originX := hdr["xllcorner"]
	originY := hdr["yllcorner"] + float64(nrows)*cellsize

	return &Window{
		Pixels:    rows,
		Transform: NewNorthUp(originX, originY, cellsize, cellsize),
		NoData:    noData,
	}, nil
}

func isDataRow(first string) bool {
	_, err := strconv.ParseFloat(first, 64)
	return err == nil
}
