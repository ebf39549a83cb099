// Package graph holds the undirected adjacency built from ways.
package graph

// Graph is an adjacency list over dense point indices. Each undirected edge is
// stored as two directed entries. Segments shared by several ways, or repeated
// within one way, are not deduplicated and appear once per occurrence.
type Graph struct {
	adj   [][]uint32
	edges int
}

// Build connects every consecutive index pair of every way. n is the number of
// points; all way indices must be < n.
func Build(n int, ways [][]uint32) *Graph {
	g := &Graph{adj: make([][]uint32, n)}
	for _, way := range ways {
		for i := 1; i < len(way); i++ {
			a, b := way[i-1], way[i]
			g.adj[a] = append(g.adj[a], b)
			g.adj[b] = append(g.adj[b], a)
			g.edges++
		}
	}
	return g
}

// Neighbors returns the adjacency entries of i. The slice must not be modified.
func (g *Graph) Neighbors(i uint32) []uint32 {
	return g.adj[i]
}

// Len returns the number of vertices
func (g *Graph) Len() int {
	return len(g.adj)
}

// EdgeCount returns the number of undirected edges, counting duplicates
func (g *Graph) EdgeCount() int {
	return g.edges
}

// Degree returns the number of adjacency entries of i
func (g *Graph) Degree(i uint32) int {
	return len(g.adj[i])
}

// Contains reports whether i is a valid vertex
func (g *Graph) Contains(i uint32) bool {
	return int(i) < len(g.adj)
}
