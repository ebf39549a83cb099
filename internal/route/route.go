// Package route finds paths through a graph of dense point indices.
package route

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/r2"

	"github.com/wegman-software/osmgraph-go/internal/graph"
)

var (
	// ErrCancelled is returned when a search is stopped by its context. It is
	// distinct from an unreachable destination, which is a nil path.
	ErrCancelled = errors.New("route search cancelled")
	// ErrInvalidNode is returned for an endpoint outside the graph
	ErrInvalidNode = errors.New("node index out of range")
	// ErrNoSnap is returned when a position has no nearby point
	ErrNoSnap = errors.New("no point near position")
)

// noPrev marks a node without predecessor
const noPrev = math.MaxUint32

// Path is an ordered node sequence from source to destination inclusive
type Path struct {
	Nodes []uint32
	Cost  float64
}

// Len returns the number of hops
func (p *Path) Len() int {
	if p == nil || len(p.Nodes) == 0 {
		return 0
	}
	return len(p.Nodes) - 1
}

// distance is the planar Euclidean distance, 0 when either position is NaN
func distance(a, b r2.Point) float64 {
	d := a.Sub(b).Norm()
	if math.IsNaN(d) {
		return 0
	}
	return d
}

// PathCost sums the Euclidean lengths of consecutive segments
func PathCost(nodes []uint32, pos []r2.Point) float64 {
	cost := 0.0
	for i := 1; i < len(nodes); i++ {
		cost += distance(pos[nodes[i-1]], pos[nodes[i]])
	}
	return cost
}

func checkEndpoints(g *graph.Graph, src, dst uint32) error {
	if !g.Contains(src) {
		return fmt.Errorf("%w: source %d", ErrInvalidNode, src)
	}
	if !g.Contains(dst) {
		return fmt.Errorf("%w: destination %d", ErrInvalidNode, dst)
	}
	return nil
}

// reconstruct walks predecessors back from dst
func reconstruct(prev []uint32, src, dst uint32) []uint32 {
	var nodes []uint32
	for n := dst; ; n = prev[n] {
		nodes = append(nodes, n)
		if n == src {
			break
		}
	}
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
	return nodes
}
