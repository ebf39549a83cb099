// Package spatial provides nearest-point lookups over dense point arrays.
package spatial

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/r2"
)

// ErrCellSize is returned for a cell size that is not a positive finite number
var ErrCellSize = errors.New("cell size must be positive and finite")

// Locator finds the point closest to a position
type Locator interface {
	Nearest(pos r2.Point) (uint32, bool)
}

// Grid buckets points into square cells keyed by floor(x/cell), floor(y/cell).
type Grid struct {
	cellSize  float64
	positions []r2.Point
	cells     map[uint64][]uint32
}

// NewGrid buckets positions. Each bucket lists indices in ascending order.
func NewGrid(positions []r2.Point, cellSize float64) (*Grid, error) {
	if !(cellSize > 0) || math.IsInf(cellSize, 1) {
		return nil, fmt.Errorf("%w: %v", ErrCellSize, cellSize)
	}

	g := &Grid{
		cellSize:  cellSize,
		positions: positions,
		cells:     make(map[uint64][]uint32),
	}
	for i, p := range positions {
		cx, cy, ok := g.cell(p)
		if !ok {
			return nil, fmt.Errorf("point %d at %v does not fit a %v grid", i, p, cellSize)
		}
		key := cellKey(cx, cy)
		g.cells[key] = append(g.cells[key], uint32(i))
	}
	return g, nil
}

// cell returns the integer cell coordinates of p, false when p is not finite
// or its cell index overflows int32
func (g *Grid) cell(p r2.Point) (int32, int32, bool) {
	fx := math.Floor(p.X / g.cellSize)
	fy := math.Floor(p.Y / g.cellSize)
	if !fits(fx) || !fits(fy) {
		return 0, 0, false
	}
	return int32(fx), int32(fy), true
}

func fits(f float64) bool {
	return f >= math.MinInt32 && f <= math.MaxInt32
}

// cellKey packs two int32 cell indices into a single uint64 map key
func cellKey(cx, cy int32) uint64 {
	return uint64(uint32(cx))<<32 | uint64(uint32(cy))
}

// Nearest returns the closest point in the cell containing pos. Points in
// neighbouring cells are never considered, so a closer point just across a
// cell boundary is missed. Ties go to the lower index.
func (g *Grid) Nearest(pos r2.Point) (uint32, bool) {
	cx, cy, ok := g.cell(pos)
	if !ok {
		return 0, false
	}
	best, _, found := g.scan(pos, cellKey(cx, cy), 0, math.Inf(1), false)
	return best, found
}

// NearestRing widens the search to the (2*rings+1)^2 block of cells around pos.
// rings <= 0 behaves like Nearest.
func (g *Grid) NearestRing(pos r2.Point, rings int) (uint32, bool) {
	cx, cy, ok := g.cell(pos)
	if !ok {
		return 0, false
	}
	if rings < 0 {
		rings = 0
	}

	var (
		best   uint32
		bestD  = math.Inf(1)
		found  bool
		r      = int64(rings)
		x0, y0 = int64(cx), int64(cy)
	)
	for dx := -r; dx <= r; dx++ {
		for dy := -r; dy <= r; dy++ {
			x, y := x0+dx, y0+dy
			if x < math.MinInt32 || x > math.MaxInt32 || y < math.MinInt32 || y > math.MaxInt32 {
				continue
			}
			best, bestD, found = g.scan(pos, cellKey(int32(x), int32(y)), best, bestD, found)
		}
	}
	return best, found
}

// scan folds one bucket into the running best
func (g *Grid) scan(pos r2.Point, key uint64, best uint32, bestD float64, found bool) (uint32, float64, bool) {
	for _, idx := range g.cells[key] {
		d := pos.Sub(g.positions[idx]).Norm()
		if !found || d < bestD || (d == bestD && idx < best) {
			best, bestD, found = idx, d, true
		}
	}
	return best, bestD, found
}

// CellSize returns the grid cell size
func (g *Grid) CellSize() float64 { return g.cellSize }

// Cells returns the number of non-empty cells
func (g *Grid) Cells() int { return len(g.cells) }

// Ring adapts a Grid's ring search to the Locator interface
type Ring struct {
	Grid  *Grid
	Rings int
}

// Nearest implements Locator
func (r Ring) Nearest(pos r2.Point) (uint32, bool) {
	return r.Grid.NearestRing(pos, r.Rings)
}
