package search

import (
	"sort"

	"frictiongo/pkg/graph"
	"frictiongo/pkg/hexgrid"
)

// Reach is the result of an isochrone search: every cell settled within the
// time threshold, tagged with its travel time from the origin. Read-only
// once returned.
type Reach struct {
	Origin    hexgrid.Cell
	Threshold float64
	Times     map[hexgrid.Cell]float64
}

// Isochrone computes all cells reachable from origin within threshold
// minutes. The search terminates as soon as the cheapest frontier entry
// exceeds the threshold, bounding work to the reachable region. A threshold
// of zero yields exactly the origin.
func Isochrone(edges graph.EdgeFunc, origin hexgrid.Cell, threshold float64) Reach {
	dist := map[hexgrid.Cell]float64{origin: 0}
	settled := map[hexgrid.Cell]float64{}

	f := newFrontier()
	f.push(origin, 0)

	for f.Len() > 0 {
		cur := f.pop()
		if _, done := settled[cur.cell]; done {
			continue
		}
		if cur.cost > threshold {
			break
		}
		settled[cur.cell] = cur.cost

		for _, e := range edges(cur.cell) {
			candidate := cur.cost + e.Cost
			if best, ok := dist[e.To]; ok && candidate >= best {
				continue
			}
			dist[e.To] = candidate
			f.push(e.To, candidate)
		}
	}

	return Reach{Origin: origin, Threshold: threshold, Times: settled}
}

// Contains reports whether a cell was settled within the threshold.
func (r Reach) Contains(c hexgrid.Cell) bool {
	_, ok := r.Times[c]
	return ok
}

// Cells returns the settled cells in ascending identifier order.
func (r Reach) Cells() []hexgrid.Cell {
	out := make([]hexgrid.Cell, 0, len(r.Times))
	for c := range r.Times {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Boundary returns the settled cells that touch the outside of the reachable
// region: those with at least one neighbor that is unsettled or was never
// explored below the threshold. neighbors is typically hexgrid.Neighbors.
func (r Reach) Boundary(neighbors func(hexgrid.Cell) ([]hexgrid.Cell, error)) []hexgrid.Cell {
	var out []hexgrid.Cell
	for _, c := range r.Cells() {
		ns, err := neighbors(c)
		if err != nil {
			out = append(out, c)
			continue
		}
		for _, n := range ns {
			if !r.Contains(n) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}
