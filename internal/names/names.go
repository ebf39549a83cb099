// Package names indexes points by their "name" tag.
package names

import (
	radix "github.com/armon/go-radix"

	"github.com/wegman-software/osmgraph-go/internal/ingest"
)

// NameKey is the tag moved out of points into the index
const NameKey = "name"

// Match is one result of a prefix search
type Match struct {
	Name  string `json:"name"`
	Index uint32 `json:"index"`
}

// Index maps names to dense point indices
type Index struct {
	tree *radix.Tree
}

// Build takes ownership of the "name" tag of every point: the tag is deleted
// from the point's tag map and inserted into the index. After Build no point
// carries a name tag. When several points share a name the highest index wins.
func Build(points []ingest.Point) *Index {
	tree := radix.New()
	for i := range points {
		name, ok := points[i].Tags[NameKey]
		if !ok {
			continue
		}
		delete(points[i].Tags, NameKey)
		tree.Insert(name, uint32(i))
	}
	return &Index{tree: tree}
}

// Lookup returns the point index registered under name
func (x *Index) Lookup(name string) (uint32, bool) {
	v, ok := x.tree.Get(name)
	if !ok {
		return 0, false
	}
	return v.(uint32), true
}

// Prefix returns up to limit names starting with prefix in lexicographic
// order. limit <= 0 means no limit.
func (x *Index) Prefix(prefix string, limit int) []Match {
	var out []Match
	x.tree.WalkPrefix(prefix, func(s string, v interface{}) bool {
		out = append(out, Match{Name: s, Index: v.(uint32)})
		return limit > 0 && len(out) >= limit
	})
	return out
}

// Len returns the number of distinct names
func (x *Index) Len() int {
	return x.tree.Len()
}
