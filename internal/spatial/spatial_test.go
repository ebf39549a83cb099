package spatial

import (
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wegman-software/osmgraph-go/internal/config"
)

var unitSquare = []r2.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}

func TestNewGridRejectsBadCellSize(t *testing.T) {
	for _, size := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := NewGrid(unitSquare, size)
		assert.ErrorIs(t, err, ErrCellSize, "size %v", size)
	}
}

func TestNewGridRejectsOverflowingCells(t *testing.T) {
	_, err := NewGrid([]r2.Point{{X: 180, Y: 0}}, 1e-9)
	assert.Error(t, err)
}

func TestNearestScansSingleCellOnly(t *testing.T) {
	// cell size 1: each corner of the unit square sits in its own cell
	positions := append([]r2.Point{}, unitSquare...)
	positions = append(positions, r2.Point{X: 0.95, Y: 0.5}) // index 4, cell (0,0)
	g, err := NewGrid(positions, 1)
	require.NoError(t, err)

	// (1.01, 0.5) is in cell (1,0) which holds only index 1 at distance ~0.5;
	// index 4 is far closer but lives in the neighbouring cell
	query := r2.Point{X: 1.01, Y: 0.5}
	idx, ok := g.Nearest(query)
	require.True(t, ok)
	assert.Equal(t, uint32(1), idx)

	ringIdx, ok := g.NearestRing(query, 1)
	require.True(t, ok)
	assert.Equal(t, uint32(4), ringIdx)
}

func TestNearestEmptyCell(t *testing.T) {
	g, err := NewGrid(unitSquare, 1)
	require.NoError(t, err)

	_, ok := g.Nearest(r2.Point{X: 5.5, Y: 5.5})
	assert.False(t, ok)
	_, ok = g.Nearest(r2.Point{X: math.NaN(), Y: 0})
	assert.False(t, ok)

	empty, err := NewGrid(nil, 1)
	require.NoError(t, err)
	_, ok = empty.Nearest(r2.Point{})
	assert.False(t, ok)
}

func TestNearestWithinCell(t *testing.T) {
	g, err := NewGrid(unitSquare, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, g.Cells())

	tests := []struct {
		query r2.Point
		want  uint32
	}{
		{r2.Point{X: 0.1, Y: 0.1}, 0},
		{r2.Point{X: 0.9, Y: 0.2}, 1},
		{r2.Point{X: 0.8, Y: 0.8}, 2},
		{r2.Point{X: 0.1, Y: 0.7}, 3},
		{r2.Point{X: 0.5, Y: 0.5}, 0}, // equidistant: lowest index wins
	}
	for _, tt := range tests {
		idx, ok := g.Nearest(tt.query)
		require.True(t, ok)
		assert.Equal(t, tt.want, idx, "query %v", tt.query)
	}
}

func TestNegativeCoordinatesUseFloor(t *testing.T) {
	g, err := NewGrid([]r2.Point{{X: -0.5, Y: -0.5}, {X: 0.5, Y: 0.5}}, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, g.Cells())

	idx, ok := g.Nearest(r2.Point{X: -0.01, Y: -0.01})
	require.True(t, ok)
	assert.Equal(t, uint32(0), idx)
}

func TestTreeMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	positions := make([]r2.Point, 500)
	for i := range positions {
		positions[i] = r2.Point{X: rng.Float64() * 10, Y: rng.Float64() * 10}
	}
	tree := NewTree(positions)
	assert.Equal(t, 500, tree.Len())

	for i := 0; i < 50; i++ {
		q := r2.Point{X: rng.Float64() * 10, Y: rng.Float64() * 10}
		idx, ok := tree.Nearest(q)
		require.True(t, ok)

		best := math.Inf(1)
		for _, p := range positions {
			best = math.Min(best, q.Sub(p).Norm())
		}
		assert.InDelta(t, best, q.Sub(positions[idx]).Norm(), 1e-6)
	}

	_, ok := NewTree(nil).Nearest(r2.Point{})
	assert.False(t, ok)
}

func TestNewLocator(t *testing.T) {
	g, err := NewGrid(unitSquare, 1)
	require.NoError(t, err)
	far := r2.Point{X: 3.2, Y: 3.2}

	cell, err := NewLocator(config.SnapCell, g, unitSquare, 0)
	require.NoError(t, err)
	_, ok := cell.Nearest(far)
	assert.False(t, ok)

	ring, err := NewLocator(config.SnapRing, g, unitSquare, 2)
	require.NoError(t, err)
	idx, ok := ring.Nearest(far)
	require.True(t, ok)
	assert.Equal(t, uint32(2), idx)

	tree, err := NewLocator(config.SnapRTree, g, unitSquare, 0)
	require.NoError(t, err)
	idx, ok = tree.Nearest(far)
	require.True(t, ok)
	assert.Equal(t, uint32(2), idx)

	_, err = NewLocator("kdtree", g, unitSquare, 0)
	assert.Error(t, err)
}
