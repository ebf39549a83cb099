// Package nodeindex maps sparse external OSM ids to dense point indices.
package nodeindex

import "math"

// MaxIndex is the largest dense index a Remap hands out. math.MaxUint32 is
// reserved as the primitive restart marker in render index buffers.
const MaxIndex = math.MaxUint32 - 1

// Remap assigns contiguous dense indices to sparse external node ids.
// Indices are handed out in insertion order starting at 0.
type Remap struct {
	ids  map[int64]uint32
	next uint32
}

// NewRemap creates an empty remap table. sizeHint pre-sizes the table and may be 0.
func NewRemap(sizeHint int) *Remap {
	return &Remap{ids: make(map[int64]uint32, sizeHint)}
}

// Put assigns the next dense index to id and returns it. Every call consumes
// an index; a repeated id is re-pointed at the newest index.
// ok is false once the index space is exhausted.
func (r *Remap) Put(id int64) (idx uint32, ok bool) {
	if r.next > MaxIndex {
		return 0, false
	}
	idx = r.next
	r.ids[id] = idx
	r.next++
	return idx, true
}

// Get returns the dense index recorded for id
func (r *Remap) Get(id int64) (uint32, bool) {
	idx, ok := r.ids[id]
	return idx, ok
}

// Resolve maps external refs to dense indices, dropping refs that were never
// Put. It returns the resolved indices and the number of dropped refs.
func (r *Remap) Resolve(refs []int64) ([]uint32, int) {
	out := make([]uint32, 0, len(refs))
	for _, ref := range refs {
		if idx, ok := r.ids[ref]; ok {
			out = append(out, idx)
		}
	}
	return out, len(refs) - len(out)
}

// Len returns the number of indices handed out
func (r *Remap) Len() int {
	return int(r.next)
}
