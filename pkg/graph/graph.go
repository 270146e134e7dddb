// Package graph exposes the hexagon grid as a lazy weighted graph. Edges are
// computed on demand from the neighbor function and the cost model; nothing
// is materialized up front, so traversals scale to planet-sized grids whose
// explored region is not known ahead of time.
package graph

import (
	"errors"

	"frictiongo/pkg/cost"
	"frictiongo/pkg/hexgrid"
)

// Edge is a transient directed edge with a non-negative traversal cost in
// minutes.
type Edge struct {
	From hexgrid.Cell
	To   hexgrid.Cell
	Cost float64
}

// EdgeFunc yields the outgoing edges of a cell. The search engine depends
// only on this capability, not on any concrete graph type.
type EdgeFunc func(hexgrid.Cell) []Edge

// Builder composes the neighbor function with a cost model.
type Builder struct {
	model *cost.Model
}

// NewBuilder creates a builder over the given cost model.
func NewBuilder(m *cost.Model) *Builder {
	return &Builder{model: m}
}

// Outgoing returns the weighted edges leaving a cell. Neighbors without
// aggregated values produce no edge rather than an error; that is how
// searches naturally stop expanding into uncovered territory.
func (b *Builder) Outgoing(c hexgrid.Cell) []Edge {
	neighbors, err := hexgrid.Neighbors(c)
	if err != nil {
		return nil
	}

	edges := make([]Edge, 0, len(neighbors))
	for _, n := range neighbors {
		w, err := b.model.EdgeCost(c, n)
		if errors.Is(err, cost.ErrMissingCell) {
			continue
		}
		if err != nil {
			continue
		}
		edges = append(edges, Edge{From: c, To: n, Cost: w})
	}
	return edges
}

// EdgeFunc returns Outgoing as a capability.
func (b *Builder) EdgeFunc() EdgeFunc {
	return b.Outgoing
}
