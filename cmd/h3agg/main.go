// h3agg aggregates a friction raster into a hexagon grid and writes the
// result as CSV (optionally gzipped), GeoJSON or an ESRI shapefile.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"frictiongo/pkg/aggregate"
	"frictiongo/pkg/export"
	"frictiongo/pkg/grid"
	"frictiongo/pkg/raster"
)

func main() {
	input := flag.String("input", "", "Path to input ASCII grid raster (.asc)")
	output := flag.String("output", "", "Path to output grid (.csv, .csv.gz, .geojson or .shp)")
	reducerName := flag.String("reducer", "min", "Reducer: min, max, mean, sum, count, first")
	resolution := flag.Int("res", 6, "Hexagon resolution (0-15)")
	workers := flag.Int("workers", 4, "Parallel aggregation workers")
	noData := flag.Float64("nodata", -9999, "No-data sentinel value")
	scale := flag.Float64("scale", 100, "Friction scale divisor of the raster values")
	frictionMinutes := flag.Bool("friction-minutes", false,
		"Convert aggregated rates to minutes per hexagon crossing instead of minutes per meter")
	corners := flag.String("corners", "",
		"Optional bounding box as north,west,south,east to aggregate a sub-region")
	flag.Parse()

	if *input == "" || *output == "" {
		flag.Usage()
		log.Fatal("Input and output paths are required")
	}

	if err := run(*input, *output, *reducerName, *corners, *resolution, *workers, *noData, *scale, *frictionMinutes); err != nil {
		log.Fatal(err)
	}
}

func run(input, output, reducerName, corners string, resolution, workers int, noData, scale float64, frictionMinutes bool) error {
	reducer, err := aggregate.ParseReducer(reducerName)
	if err != nil {
		return err
	}

	window, err := raster.ReadASCIIGrid(input)
	if err != nil {
		return fmt.Errorf("failed to read raster: %w", err)
	}
	window.NoData = noData

	if corners != "" {
		window, err = subWindow(window, corners)
		if err != nil {
			return err
		}
	}

	var convert aggregate.ConvertFunc
	if frictionMinutes {
		convert, err = aggregate.FrictionMinutes(resolution, scale)
	} else {
		convert, err = aggregate.RateScale(scale)
	}
	if err != nil {
		return err
	}

	start := time.Now()
	g, err := aggregate.Aggregate(context.Background(), window, reducer, resolution, aggregate.Options{
		Workers: workers,
		Convert: convert,
		Progress: func(done, total int) {
			if done == total || done%500 == 0 {
				fmt.Fprintf(os.Stderr, "\r%d/%d rows", done, total)
			}
		},
	})
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("aggregation failed: %w", err)
	}

	if err := writeOutput(output, g, frictionMinutes); err != nil {
		return err
	}

	fmt.Printf("Aggregated %d rows into %d cells in %v: %s\n",
		window.Rows(), len(g), time.Since(start).Round(time.Millisecond), output)
	return nil
}

// subWindow re-cuts the window to the given north,west,south,east corners.
func subWindow(w *raster.Window, corners string) (*raster.Window, error) {
	parts := strings.Split(corners, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("corners must be north,west,south,east, got %q", corners)
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("bad corner value %q: %w", p, err)
		}
		vals[i] = v
	}
	return raster.WindowFromBounds(vals[0], vals[1], vals[2], vals[3], w.Transform, w.Pixels, w.NoData)
}

func writeOutput(path string, g grid.Grid, frictionMinutes bool) error {
	valueProp := "rate_min_per_m"
	if frictionMinutes {
		valueProp = "minutes"
	}

	switch {
	case strings.HasSuffix(path, ".geojson"):
		return export.WriteGeoJSON(path, g, valueProp)
	case strings.HasSuffix(path, ".shp"):
		return export.WriteShapefile(path, g, strings.ToUpper(valueProp))
	default:
		return grid.WriteFile(path, g)
	}
}
