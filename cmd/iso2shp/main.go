// iso2shp computes an isochrone over an aggregated friction grid and writes
// the reachable region as a shapefile or GeoJSON.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"frictiongo/pkg/cost"
	"frictiongo/pkg/export"
	"frictiongo/pkg/grid"
	"frictiongo/pkg/hexgrid"
	"frictiongo/pkg/traveltime"
)

func main() {
	gridPath := flag.String("grid", "", "Path to aggregated grid (.csv or .csv.gz)")
	output := flag.String("output", "", "Path to output (.shp or .geojson)")
	lat := flag.Float64("lat", 0, "Origin latitude")
	lon := flag.Float64("lon", 0, "Origin longitude")
	minutes := flag.Float64("minutes", 60, "Travel time threshold in minutes")
	resolution := flag.Int("res", 6, "Hexagon resolution of the grid")
	blendName := flag.String("blend", "destination", "Edge cost blend: destination, average")
	boundaryOnly := flag.Bool("boundary", false, "Export only the outer frontier cells of the region")
	flag.Parse()

	if *gridPath == "" || *output == "" {
		flag.Usage()
		log.Fatal("Grid and output paths are required")
	}

	if err := run(*gridPath, *output, *blendName, *lat, *lon, *minutes, *resolution, *boundaryOnly); err != nil {
		log.Fatal(err)
	}
}

func run(gridPath, output, blendName string, lat, lon, minutes float64, resolution int, boundaryOnly bool) error {
	g, err := grid.ReadFile(gridPath)
	if err != nil {
		return err
	}

	blend, err := cost.ParseBlend(blendName)
	if err != nil {
		return err
	}

	svc := traveltime.NewService(g, resolution, blend, 0)
	reach, err := svc.Isochrone(context.Background(), lat, lon, minutes)
	if err != nil {
		return err
	}
	if len(reach.Times) == 0 {
		return fmt.Errorf("no cells reachable from %f,%f within %f minutes", lat, lon, minutes)
	}

	cells := reach.Times
	if boundaryOnly {
		cells = map[hexgrid.Cell]float64{}
		for _, c := range reach.Boundary(hexgrid.Neighbors) {
			cells[c] = reach.Times[c]
		}
	}

	if strings.HasSuffix(output, ".geojson") {
		err = export.WriteGeoJSON(output, cells, "travel_time_min")
	} else {
		err = export.WriteShapefile(output, cells, "MINUTES")
	}
	if err != nil {
		return err
	}

	fmt.Printf("Wrote %d cells to %s\n", len(cells), output)
	return nil
}
