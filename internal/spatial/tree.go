package spatial

import (
	"github.com/dhconnelly/rtreego"
	"github.com/golang/geo/r2"
)

// pointTolerance gives point entries a non-degenerate rectangle
const pointTolerance = 1e-9

type treeEntry struct {
	idx  uint32
	rect rtreego.Rect
}

// Bounds implements rtreego.Spatial
func (e *treeEntry) Bounds() rtreego.Rect {
	return e.rect
}

// Tree is an exact nearest-point index backed by an R-tree
type Tree struct {
	rtree *rtreego.Rtree
	size  int
}

// NewTree bulk-loads positions into an R-tree
func NewTree(positions []r2.Point) *Tree {
	entries := make([]rtreego.Spatial, len(positions))
	for i, p := range positions {
		entries[i] = &treeEntry{
			idx:  uint32(i),
			rect: rtreego.Point{p.X, p.Y}.ToRect(pointTolerance),
		}
	}
	return &Tree{
		rtree: rtreego.NewTree(2, 25, 50, entries...),
		size:  len(positions),
	}
}

// Nearest returns the closest point anywhere in the tree
func (t *Tree) Nearest(pos r2.Point) (uint32, bool) {
	if t.size == 0 {
		return 0, false
	}
	nn := t.rtree.NearestNeighbor(rtreego.Point{pos.X, pos.Y})
	if nn == nil {
		return 0, false
	}
	return nn.(*treeEntry).idx, true
}

// Len returns the number of indexed points
func (t *Tree) Len() int { return t.size }
