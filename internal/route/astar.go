package route

import (
	"container/heap"
	"context"
	"fmt"
	"math"

	"github.com/golang/geo/r2"

	"github.com/wegman-software/osmgraph-go/internal/graph"
)

// cancelCheckInterval is the number of queue pops between context checks
const cancelCheckInterval = 256

type entry struct {
	node uint32
	g    float64
	f    float64
	h    float64
	seq  uint64
}

// entryQueue orders by f, then h, then node index, then insertion order
type entryQueue []entry

func (q entryQueue) Len() int { return len(q) }

func (q entryQueue) Less(i, j int) bool {
	if q[i].f != q[j].f {
		return q[i].f < q[j].f
	}
	if q[i].h != q[j].h {
		return q[i].h < q[j].h
	}
	if q[i].node != q[j].node {
		return q[i].node < q[j].node
	}
	return q[i].seq < q[j].seq
}

func (q entryQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *entryQueue) Push(x interface{}) { *q = append(*q, x.(entry)) }

func (q *entryQueue) Pop() interface{} {
	old := *q
	n := len(old)
	e := old[n-1]
	*q = old[:n-1]
	return e
}

// AStar returns the shortest path by Euclidean length from src to dst, using
// straight-line distance to dst as the heuristic. A node may be queued several
// times; stale entries are skipped once the node is closed. It returns
// (nil, nil) when dst is unreachable and ErrCancelled when ctx ends first.
func AStar(ctx context.Context, g *graph.Graph, pos []r2.Point, src, dst uint32) (*Path, error) {
	if err := checkEndpoints(g, src, dst); err != nil {
		return nil, err
	}

	n := g.Len()
	gScore := make([]float64, n)
	for i := range gScore {
		gScore[i] = math.Inf(1)
	}
	prev := make([]uint32, n)
	for i := range prev {
		prev[i] = noPrev
	}
	closed := make([]bool, n)
	target := pos[dst]

	var seq uint64
	open := &entryQueue{}
	push := func(node uint32, cost float64) {
		h := distance(pos[node], target)
		heap.Push(open, entry{node: node, g: cost, f: cost + h, h: h, seq: seq})
		seq++
	}

	gScore[src] = 0
	push(src, 0)

	for pops := 0; open.Len() > 0; pops++ {
		if pops%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrCancelled, err)
			}
		}

		cur := heap.Pop(open).(entry)
		if closed[cur.node] {
			continue
		}
		closed[cur.node] = true

		if cur.node == dst {
			return &Path{Nodes: reconstruct(prev, src, dst), Cost: cur.g}, nil
		}

		for _, nb := range g.Neighbors(cur.node) {
			if nb == cur.node || closed[nb] {
				continue
			}
			cost := cur.g + distance(pos[cur.node], pos[nb])
			if cost < gScore[nb] {
				gScore[nb] = cost
				prev[nb] = cur.node
				push(nb, cost)
			}
		}
	}
	return nil, nil
}
