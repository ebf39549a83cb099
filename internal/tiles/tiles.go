// Package tiles lists the Web Mercator tiles touched by exported ways so a
// tile cache can re-render them.
package tiles

import (
	"fmt"

	"github.com/golang/geo/r2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

const (
	// MaxZoom is the deepest zoom a tracker accepts
	MaxZoom = 20
	// maxLat is the edge of the square Web Mercator world
	maxLat = 85.0511287798
)

// Tile is a z/x/y tile
type Tile = maptile.Tile

// Format returns the tile in z/x/y form
func Format(t Tile) string {
	return fmt.Sprintf("%d/%d/%d", t.Z, t.X, t.Y)
}

// At returns the tile containing a lon/lat position. Positions outside the
// Web Mercator range are clamped onto its edge.
func At(pos r2.Point, z int) Tile {
	lon := min(max(pos.X, -180), 180)
	lat := min(max(pos.Y, -maxLat), maxLat)
	t := maptile.At(orb.Point{lon, lat}, maptile.Zoom(z))

	last := uint32(1)<<uint(z) - 1
	t.X = min(t.X, last)
	t.Y = min(t.Y, last)
	return t
}

// Span is an inclusive block of tiles at one zoom
type Span struct {
	Z          int
	MinX, MaxX uint32
	MinY, MaxY uint32
}

// SpanOf returns the tiles covering rect at zoom z. Tile rows grow southwards,
// so the north edge gives MinY.
func SpanOf(rect r2.Rect, z int) Span {
	lo, hi := rect.Lo(), rect.Hi()
	nw := At(r2.Point{X: lo.X, Y: hi.Y}, z)
	se := At(r2.Point{X: hi.X, Y: lo.Y}, z)
	return Span{Z: z, MinX: nw.X, MaxX: se.X, MinY: nw.Y, MaxY: se.Y}
}

// Count returns the number of tiles in the span
func (s Span) Count() int {
	return int(s.MaxX-s.MinX+1) * int(s.MaxY-s.MinY+1)
}

// Each calls fn for every tile in the span
func (s Span) Each(fn func(Tile)) {
	for x := s.MinX; x <= s.MaxX; x++ {
		for y := s.MinY; y <= s.MaxY; y++ {
			fn(Tile{X: x, Y: y, Z: maptile.Zoom(s.Z)})
		}
	}
}
