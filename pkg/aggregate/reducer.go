// Package aggregate folds raster pixel values into a sparse hexagon grid.
// Every pixel in a window is mapped to its containing cell and folded into
// that cell's running reducer state, so memory is bounded by the number of
// distinct cells touched rather than the pixel count.
package aggregate

import (
	"fmt"
	"strings"
)

// Reducer selects how the pixel values contributing to one cell are folded
// into a single value. The set is closed; each reducer has an associative
// combine rule so partial grids from parallel workers can be merged exactly.
type Reducer int

const (
	Min Reducer = iota
	Max
	Mean
	Sum
	Count
	First
)

var reducerNames = map[Reducer]string{
	Min:   "min",
	Max:   "max",
	Mean:  "mean",
	Sum:   "sum",
	Count: "count",
	First: "first",
}

// ParseReducer parses a reducer name.
func ParseReducer(s string) (Reducer, error) {
	for r, name := range reducerNames {
		if strings.EqualFold(s, name) {
			return r, nil
		}
	}
	return 0, fmt.Errorf("aggregate: unknown reducer %q", s)
}

func (r Reducer) String() string {
	if name, ok := reducerNames[r]; ok {
		return name
	}
	return fmt.Sprintf("reducer(%d)", int(r))
}

// accumulator is the per-cell running state. Mean folds into (sum, count)
// rather than a running mean so partial accumulators combine exactly.
type accumulator struct {
	value float64
	sum   float64
	count int64
}

func (a *accumulator) fold(r Reducer, v float64) {
	switch r {
	case Min:
		if a.count == 0 || v < a.value {
			a.value = v
		}
	case Max:
		if a.count == 0 || v > a.value {
			a.value = v
		}
	case First:
		if a.count == 0 {
			a.value = v
		}
	}
	a.sum += v
	a.count++
}

// combine merges b into a. b must come later in raster scan order so that
// First stays the row-major first contributor.
func (a *accumulator) combine(r Reducer, b *accumulator) {
	if b.count == 0 {
		return
	}
	if a.count == 0 {
		*a = *b
		return
	}
	switch r {
	case Min:
		if b.value < a.value {
			a.value = b.value
		}
	case Max:
		if b.value > a.value {
			a.value = b.value
		}
	case First:
		// a was seen first; keep its value.
	}
	a.sum += b.sum
	a.count += b.count
}

// result produces the reducer's output. Only called for accumulators with at
// least one contributor; cells without contributors are never emitted.
func (a *accumulator) result(r Reducer) float64 {
	switch r {
	case Min, Max, First:
		return a.value
	case Mean:
		return a.sum / float64(a.count)
	case Sum:
		return a.sum
	case Count:
		return float64(a.count)
	}
	return a.value
}
