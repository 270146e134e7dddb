// Package export renders cell-to-value maps as GeoJSON feature collections
// and ESRI shapefiles, one hexagon polygon per cell.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"frictiongo/pkg/hexgrid"
)

// FeatureCollection builds a GeoJSON collection with one polygon feature per
// cell. Each feature carries the cell identifier under "hex" and its value
// under valueProp. Features are emitted in ascending cell order.
func FeatureCollection(values map[hexgrid.Cell]float64, valueProp string) (*geojson.FeatureCollection, error) {
	fc := geojson.NewFeatureCollection()

	for _, c := range sortedCells(values) {
		ring, err := cellRing(c)
		if err != nil {
			return nil, fmt.Errorf("cell %s: %w", c, err)
		}

		f := geojson.NewFeature(orb.Polygon{ring})
		f.Properties["hex"] = c.String()
		f.Properties[valueProp] = values[c]
		fc.Append(f)
	}

	return fc, nil
}

// WriteGeoJSON marshals the cells to an indented GeoJSON file.
func WriteGeoJSON(path string, values map[hexgrid.Cell]float64, valueProp string) error {
	fc, err := FeatureCollection(values, valueProp)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal GeoJSON: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// cellRing returns the closed boundary ring of a cell in lon/lat order.
func cellRing(c hexgrid.Cell) (orb.Ring, error) {
	boundary, err := hexgrid.Boundary(c)
	if err != nil {
		return nil, err
	}

	ring := make(orb.Ring, 0, len(boundary)+1)
	for _, v := range boundary {
		ring = append(ring, orb.Point{v.Lon, v.Lat})
	}
	// GeoJSON rings are closed: first and last position coincide.
	ring = append(ring, ring[0])
	return ring, nil
}

func sortedCells(values map[hexgrid.Cell]float64) []hexgrid.Cell {
	cells := make([]hexgrid.Cell, 0, len(values))
	for c := range values {
		cells = append(cells, c)
	}
	sort.Slice(cells, func(i, j int) bool { return cells[i] < cells[j] })
	return cells
}
