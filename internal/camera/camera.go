// Package camera implements the 2D pan/zoom view over normalized render space.
package camera

import (
	"github.com/golang/geo/r2"
)

// MinZoom is the smallest zoom a camera can reach
const MinZoom = 1e-6

// Camera maps world (normalized render) coordinates to device coordinates:
// device = world*Zoom + Offset. Values are immutable once published.
type Camera struct {
	Offset r2.Point
	Zoom   float64
}

// Identity is the reset state
var Identity = Camera{Zoom: 1}

// ToDevice maps a world position to device coordinates
func (c Camera) ToDevice(world r2.Point) r2.Point {
	return world.Mul(c.Zoom).Add(c.Offset)
}

// ToWorld maps device coordinates to a world position
func (c Camera) ToWorld(device r2.Point) r2.Point {
	return device.Sub(c.Offset).Mul(1 / c.Zoom)
}

// Matrix returns the column-major 4x4 transform for the camera
func (c Camera) Matrix() [16]float32 {
	z := float32(c.Zoom)
	return [16]float32{
		z, 0, 0, 0,
		0, z, 0, 0,
		0, 0, 1, 0,
		float32(c.Offset.X), float32(c.Offset.Y), 0, 1,
	}
}

// Device converts a screen position (pixels, y down) to device coordinates
// in [-1,1] with y up. A non-positive screen dimension is treated as 1.
func Device(screen, size r2.Point) r2.Point {
	w, h := dim(size.X), dim(size.Y)
	return r2.Point{
		X: screen.X/w*2 - 1,
		Y: 1 - screen.Y/h*2,
	}
}

// Screen converts device coordinates back to a screen position
func Screen(device, size r2.Point) r2.Point {
	w, h := dim(size.X), dim(size.Y)
	return r2.Point{
		X: (device.X + 1) / 2 * w,
		Y: (1 - device.Y) / 2 * h,
	}
}

func dim(v float64) float64 {
	if v <= 0 {
		return 1
	}
	return v
}
