// Package proj reprojects lon/lat positions before they are normalized for display.
package proj

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
)

// SRID constants for supported projections
const (
	SRID4326 = 4326 // WGS84 (lon/lat)
	SRID3857 = 3857 // Web Mercator
)

// Web Mercator constants
const (
	earthRadius = 6378137.0
	maxExtent   = 20037508.342789244
	// MaxLat is the latitude clamp applied before projecting
	MaxLat = 85.06
)

// Transformer maps lon/lat positions into a target projection
type Transformer struct {
	TargetSRID int
}

// NewTransformer creates a transformer from WGS84 to target
func NewTransformer(targetSRID int) (*Transformer, error) {
	if targetSRID != SRID4326 && targetSRID != SRID3857 {
		return nil, fmt.Errorf("unsupported target SRID: %d (only 4326 and 3857 supported)", targetSRID)
	}
	return &Transformer{TargetSRID: targetSRID}, nil
}

// NeedsTransform returns true if positions change under this transformer
func (t *Transformer) NeedsTransform() bool {
	return t.TargetSRID != SRID4326
}

// Point projects a single lon/lat position
func (t *Transformer) Point(p r2.Point) r2.Point {
	if !t.NeedsTransform() {
		return p
	}
	return ToWebMercator(p)
}

// Points projects positions into a new slice and returns their bounding box.
// The input is not modified. The box is empty when positions is.
func (t *Transformer) Points(positions []r2.Point) ([]r2.Point, r2.Rect) {
	out := make([]r2.Point, len(positions))
	bounds := r2.EmptyRect()
	for i, p := range positions {
		q := t.Point(p)
		out[i] = q
		if i == 0 {
			bounds = r2.RectFromPoints(q)
		} else {
			bounds = bounds.AddPoint(q)
		}
	}
	return out, bounds
}

// ToWebMercator converts WGS84 lon/lat to Web Mercator metres
func ToWebMercator(p r2.Point) r2.Point {
	lat := math.Max(-MaxLat, math.Min(MaxLat, p.Y))
	latRad := lat * math.Pi / 180.0
	return r2.Point{
		X: p.X * maxExtent / 180.0,
		Y: math.Log(math.Tan(math.Pi/4.0+latRad/2.0)) * earthRadius,
	}
}

// FromWebMercator converts Web Mercator metres back to WGS84 lon/lat
func FromWebMercator(p r2.Point) r2.Point {
	return r2.Point{
		X: p.X * 180.0 / maxExtent,
		Y: (2*math.Atan(math.Exp(p.Y/earthRadius)) - math.Pi/2) * 180.0 / math.Pi,
	}
}
