package route

import (
	"context"
	"fmt"

	"github.com/destel/rill"
	"github.com/golang/geo/r2"

	"github.com/wegman-software/osmgraph-go/internal/config"
	"github.com/wegman-software/osmgraph-go/internal/graph"
	"github.com/wegman-software/osmgraph-go/internal/spatial"
)

// Planner answers position-to-position route queries against a built graph.
// It holds no mutable state and is safe for concurrent use.
type Planner struct {
	Graph     *graph.Graph
	Positions []r2.Point
	Locator   spatial.Locator
}

// Result is the outcome of one query. Path is nil when the destination is
// unreachable.
type Result struct {
	From uint32
	To   uint32
	Path *Path
	Err  error
}

// Query is one entry of a batch
type Query struct {
	From r2.Point
	To   r2.Point
	Algo string
}

// Snap returns the point index the locator picks for pos
func (p *Planner) Snap(pos r2.Point) (uint32, error) {
	if p.Locator == nil {
		return 0, fmt.Errorf("%w: %v", ErrNoSnap, pos)
	}
	idx, ok := p.Locator.Nearest(pos)
	if !ok {
		return 0, fmt.Errorf("%w: %v", ErrNoSnap, pos)
	}
	return idx, nil
}

// Route snaps both positions and searches between them with algo
func (p *Planner) Route(ctx context.Context, from, to r2.Point, algo string) (Result, error) {
	src, err := p.Snap(from)
	if err != nil {
		return Result{}, err
	}
	dst, err := p.Snap(to)
	if err != nil {
		return Result{From: src}, err
	}

	path, err := p.Between(ctx, src, dst, algo)
	return Result{From: src, To: dst, Path: path}, err
}

// Between searches from src to dst with algo
func (p *Planner) Between(ctx context.Context, src, dst uint32, algo string) (*Path, error) {
	switch algo {
	case config.AlgoAStar, "":
		return AStar(ctx, p.Graph, p.Positions, src, dst)
	case config.AlgoBFS:
		nodes, err := BFS(p.Graph, src, dst)
		if err != nil || nodes == nil {
			return nil, err
		}
		return &Path{Nodes: nodes, Cost: PathCost(nodes, p.Positions)}, nil
	}
	return nil, fmt.Errorf("unknown algorithm: %s", algo)
}

// RouteMany runs queries on up to workers goroutines. Results keep the order
// of queries; per-query failures are reported in Result.Err.
func (p *Planner) RouteMany(ctx context.Context, queries []Query, workers int) ([]Result, error) {
	if workers <= 0 {
		workers = 1
	}

	in := rill.FromSlice(queries, nil)
	out := rill.OrderedMap(in, workers, func(q Query) (Result, error) {
		res, err := p.Route(ctx, q.From, q.To, q.Algo)
		res.Err = err
		return res, nil
	})

	results, err := rill.ToSlice(out)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return results, fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	return results, nil
}
