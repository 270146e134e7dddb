// Package search runs single-source shortest-time queries over the lazy
// hexagon graph: point-to-point travel times and isochrones bounded by a
// time budget. The algorithm is classic Dijkstra over non-negative edge
// weights with duplicate frontier entries instead of a decrease-key.
package search

import (
	"container/heap"
	"errors"

	"frictiongo/pkg/graph"
	"frictiongo/pkg/hexgrid"
)

// ErrUnreachable reports that no finite-cost path to the destination exists.
// It is a normal, expected result value, not a failure of the search.
var ErrUnreachable = errors.New("search: destination unreachable")

// Options tune a point-to-point search.
type Options struct {
	// MaxCost, when positive, bounds the search: once the cheapest frontier
	// entry exceeds it the destination is reported unreachable.
	MaxCost float64
	// WithPath records predecessors and reconstructs the path.
	WithPath bool
}

// Result of a point-to-point search.
type Result struct {
	// Cost is the minimum travel time from origin to destination, in the
	// cost model's units (minutes).
	Cost float64
	// Path is the origin-to-destination cell sequence, populated only when
	// Options.WithPath was set.
	Path []hexgrid.Cell
}

// ShortestPath computes the least-cost travel time from origin to dest over
// the given edge function. Returns ErrUnreachable when the frontier empties
// (or exceeds Options.MaxCost) before the destination settles.
func ShortestPath(edges graph.EdgeFunc, origin, dest hexgrid.Cell, opts Options) (Result, error) {
	dist := map[hexgrid.Cell]float64{origin: 0}
	settled := map[hexgrid.Cell]bool{}
	var prev map[hexgrid.Cell]hexgrid.Cell
	if opts.WithPath {
		prev = map[hexgrid.Cell]hexgrid.Cell{}
	}

	f := newFrontier()
	f.push(origin, 0)

	for f.Len() > 0 {
		cur := f.pop()
		if settled[cur.cell] {
			// Stale duplicate entry; a cheaper one settled this cell already.
			continue
		}
		if opts.MaxCost > 0 && cur.cost > opts.MaxCost {
			return Result{}, ErrUnreachable
		}
		settled[cur.cell] = true

		if cur.cell == dest {
			res := Result{Cost: cur.cost}
			if opts.WithPath {
				res.Path = reconstruct(prev, origin, dest)
			}
			return res, nil
		}

		for _, e := range edges(cur.cell) {
			candidate := cur.cost + e.Cost
			if best, ok := dist[e.To]; ok && candidate >= best {
				continue
			}
			dist[e.To] = candidate
			if prev != nil {
				prev[e.To] = cur.cell
			}
			f.push(e.To, candidate)
		}
	}

	return Result{}, ErrUnreachable
}

// reconstruct walks the predecessor chain from dest back to origin and
// reverses it.
func reconstruct(prev map[hexgrid.Cell]hexgrid.Cell, origin, dest hexgrid.Cell) []hexgrid.Cell {
	path := []hexgrid.Cell{dest}
	for cur := dest; cur != origin; {
		p, ok := prev[cur]
		if !ok {
			return nil
		}
		path = append(path, p)
		cur = p
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// frontier is a min-heap keyed by cumulative cost. Equal costs resolve by
// insertion order, so tie-breaking is deterministic (first seen wins).
type frontier struct {
	items []frontierItem
	seq   int64
}

type frontierItem struct {
	cell hexgrid.Cell
	cost float64
	seq  int64
}

func newFrontier() *frontier {
	return &frontier{}
}

func (f *frontier) push(c hexgrid.Cell, cost float64) {
	f.seq++
	heap.Push(f, frontierItem{cell: c, cost: cost, seq: f.seq})
}

func (f *frontier) pop() frontierItem {
	return heap.Pop(f).(frontierItem)
}

func (f *frontier) Len() int { return len(f.items) }

func (f *frontier) Less(i, j int) bool {
	if f.items[i].cost != f.items[j].cost {
		return f.items[i].cost < f.items[j].cost
	}
	return f.items[i].seq < f.items[j].seq
}

func (f *frontier) Swap(i, j int) { f.items[i], f.items[j] = f.items[j], f.items[i] }

func (f *frontier) Push(x any) {
	f.items = append(f.items, x.(frontierItem))
}

func (f *frontier) Pop() any {
	old := f.items
	n := len(old)
	it := old[n-1]
	f.items = old[:n-1]
	return it
}
