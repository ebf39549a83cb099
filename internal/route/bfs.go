package route

import "github.com/wegman-software/osmgraph-go/internal/graph"

// BFS returns a path with the fewest hops from src to dst, or nil when dst is
// unreachable. Predecessors are recorded on first visit.
func BFS(g *graph.Graph, src, dst uint32) ([]uint32, error) {
	if err := checkEndpoints(g, src, dst); err != nil {
		return nil, err
	}

	prev := make([]uint32, g.Len())
	for i := range prev {
		prev[i] = noPrev
	}
	visited := make([]bool, g.Len())
	visited[src] = true

	queue := []uint32{src}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if n == dst {
			return reconstruct(prev, src, dst), nil
		}
		for _, nb := range g.Neighbors(n) {
			if visited[nb] {
				continue
			}
			visited[nb] = true
			prev[nb] = n
			queue = append(queue, nb)
		}
	}
	return nil, nil
}
