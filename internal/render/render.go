// Package render prepares vertex and index buffers for line-strip drawing.
package render

import (
	"math"

	"github.com/golang/geo/r2"
)

const (
	// RestartIndex separates ways in an index buffer (primitive restart)
	RestartIndex uint32 = math.MaxUint32
	// MinExtent replaces a zero or non-finite bounding box dimension
	MinExtent = 1e-9
)

// Vertex is a position in normalized render space
type Vertex struct {
	X float32
	Y float32
}

// Buffers is the data handed to a renderer: one vertex per point and line
// strips separated by RestartIndex
type Buffers struct {
	Vertices []Vertex
	Indices  []uint32
}

// Project maps positions into [-1,1]^2 relative to bbox:
// (p - center) / (size / 2) componentwise. A degenerate dimension uses MinExtent.
func Project(positions []r2.Point, bbox r2.Rect) []Vertex {
	out := make([]Vertex, len(positions))
	if len(positions) == 0 {
		return out
	}

	center := bbox.Center()
	size := bbox.Size()
	half := r2.Point{X: extent(size.X) / 2, Y: extent(size.Y) / 2}
	for i, p := range positions {
		out[i] = Vertex{
			X: float32((p.X - center.X) / half.X),
			Y: float32((p.Y - center.Y) / half.Y),
		}
	}
	return out
}

func extent(v float64) float64 {
	if !(v > 0) || math.IsInf(v, 0) {
		return MinExtent
	}
	return v
}

// IndexBuffer concatenates ways with RestartIndex between consecutive ways
// and none after the last
func IndexBuffer(ways [][]uint32) []uint32 {
	n := 0
	for _, w := range ways {
		n += len(w) + 1
	}
	out := make([]uint32, 0, n)
	for i, w := range ways {
		if i > 0 {
			out = append(out, RestartIndex)
		}
		out = append(out, w...)
	}
	return out
}

// Build projects positions and concatenates ways into one buffer pair
func Build(positions []r2.Point, bbox r2.Rect, ways [][]uint32) *Buffers {
	return &Buffers{
		Vertices: Project(positions, bbox),
		Indices:  IndexBuffer(ways),
	}
}

// Empty reports whether there is nothing to draw
func (b *Buffers) Empty() bool {
	return len(b.Vertices) == 0 || len(b.Indices) == 0
}

// Strips calls fn for every line strip in the index buffer, stopping when fn
// returns false
func (b *Buffers) Strips(fn func(strip []uint32) bool) {
	start := 0
	for i, idx := range b.Indices {
		if idx != RestartIndex {
			continue
		}
		if i > start && !fn(b.Indices[start:i]) {
			return
		}
		start = i + 1
	}
	if start < len(b.Indices) {
		fn(b.Indices[start:])
	}
}
