// Package wkb encodes graph geometry as PostGIS extended WKB.
package wkb

import (
	"fmt"

	"github.com/golang/geo/r2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/ewkb"
)

// SRID4326 is WGS84, the SRID of ingested positions
const SRID4326 = 4326

// Encoder produces little-endian EWKB carrying its SRID
type Encoder struct {
	srid int
}

// NewEncoder creates an encoder tagging geometries with srid
func NewEncoder(srid int) *Encoder {
	return &Encoder{srid: srid}
}

// SRID returns the encoder's SRID
func (e *Encoder) SRID() int { return e.srid }

// Point encodes a single position
func (e *Encoder) Point(p r2.Point) ([]byte, error) {
	return ewkb.Marshal(orb.Point{p.X, p.Y}, e.srid)
}

// LineString encodes the positions of nodes in order
func (e *Encoder) LineString(nodes []uint32, pos []r2.Point) ([]byte, error) {
	if len(nodes) < 2 {
		return nil, fmt.Errorf("linestring needs at least 2 points, got %d", len(nodes))
	}
	line := make(orb.LineString, len(nodes))
	for i, n := range nodes {
		line[i] = orb.Point{pos[n].X, pos[n].Y}
	}
	return ewkb.Marshal(line, e.srid)
}
