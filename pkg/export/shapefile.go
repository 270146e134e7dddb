package export

import (
	"fmt"

	shp "github.com/jonas-p/go-shp"

	"frictiongo/pkg/hexgrid"
)

// WriteShapefile writes one polygon per cell to an ESRI shapefile, with the
// cell identifier in a HEX attribute and its value in valueField (truncated
// to 10 characters, the dbf limit). Cells are written in ascending order.
func WriteShapefile(path string, values map[hexgrid.Cell]float64, valueField string) error {
	if len(valueField) > 10 {
		valueField = valueField[:10]
	}

	w, err := shp.Create(path, shp.POLYGON)
	if err != nil {
		return fmt.Errorf("failed to create shapefile: %w", err)
	}
	defer w.Close()

	fields := []shp.Field{
		shp.StringField("HEX", 16),
		shp.FloatField(valueField, 16, 4),
	}
	if err := w.SetFields(fields); err != nil {
		return fmt.Errorf("failed to set fields: %w", err)
	}

	for row, c := range sortedCells(values) {
		poly, err := cellPolygon(c)
		if err != nil {
			return fmt.Errorf("cell %s: %w", c, err)
		}
		w.Write(poly)

		if err := w.WriteAttribute(row, 0, c.String()); err != nil {
			return fmt.Errorf("failed to write hex attribute: %w", err)
		}
		if err := w.WriteAttribute(row, 1, values[c]); err != nil {
			return fmt.Errorf("failed to write value attribute: %w", err)
		}
	}

	return nil
}

// cellPolygon returns the cell boundary as a single-ring shapefile polygon.
// Outer rings are clockwise in the shapefile spec, the reverse of the
// counterclockwise order the boundary comes in.
func cellPolygon(c hexgrid.Cell) (*shp.Polygon, error) {
	boundary, err := hexgrid.Boundary(c)
	if err != nil {
		return nil, err
	}

	pts := make([]shp.Point, 0, len(boundary)+1)
	for i := len(boundary) - 1; i >= 0; i-- {
		pts = append(pts, shp.Point{X: boundary[i].Lon, Y: boundary[i].Lat})
	}
	pts = append(pts, pts[0])

	poly := shp.Polygon(*shp.NewPolyLine([][]shp.Point{pts}))
	return &poly, nil
}
