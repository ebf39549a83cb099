package camera

import (
	"math"
	"sync/atomic"

	"github.com/golang/geo/r2"

	"github.com/wegman-software/osmgraph-go/internal/config"
)

// inertiaCutoff is the velocity below which inertia stops
const inertiaCutoff = 1e-3

// Controller turns pointer, scroll and resize input into camera updates.
// All mutating methods must be called from a single goroutine; Snapshot may be
// called from any goroutine.
type Controller struct {
	settings config.CameraConfig

	cam      Camera
	size     r2.Point
	pointer  r2.Point // last pointer position, screen
	device   r2.Point // last pointer position, device
	dragging bool
	velocity float64

	snap atomic.Pointer[Camera]
}

// NewController creates a controller for a screen of the given size
func NewController(settings config.CameraConfig, size r2.Point) *Controller {
	c := &Controller{settings: settings, cam: Identity, size: size}
	c.publish()
	return c
}

func (c *Controller) publish() {
	cam := c.cam
	c.snap.Store(&cam)
}

// Snapshot returns the current offset and zoom as one consistent pair
func (c *Controller) Snapshot() Camera {
	return *c.snap.Load()
}

// Size returns the current screen size
func (c *Controller) Size() r2.Point { return c.size }

// Resize updates the screen size
func (c *Controller) Resize(size r2.Point) {
	c.size = size
	c.device = Device(c.pointer, size)
}

// SetDragging arms or disarms panning
func (c *Controller) SetDragging(down bool) {
	c.dragging = down
}

// Dragging reports whether panning is armed
func (c *Controller) Dragging() bool { return c.dragging }

// PointerMoved records the pointer position. While dragging, the offset
// follows the pointer's movement in device space.
func (c *Controller) PointerMoved(screen r2.Point) {
	d := Device(screen, c.size)
	if c.dragging {
		c.cam.Offset = c.cam.Offset.Add(d.Sub(c.device))
		c.publish()
	}
	c.pointer = screen
	c.device = d
}

// Pan moves the view by a device-space delta
func (c *Controller) Pan(delta r2.Point) {
	c.cam.Offset = c.cam.Offset.Add(delta)
	c.publish()
}

// ZoomAt scales the zoom by 1 + factor*sensitivity while keeping the world
// point under anchor (screen coordinates) fixed on screen
func (c *Controller) ZoomAt(factor float64, anchor r2.Point) {
	zoom := c.cam.Zoom * (1 + factor*c.settings.Sensitivity)
	if math.IsNaN(zoom) || math.IsInf(zoom, 0) {
		return
	}
	if zoom < MinZoom {
		zoom = MinZoom
	}

	d := Device(anchor, c.size)
	w := c.cam.ToWorld(d)
	c.cam.Zoom = zoom
	c.cam.Offset = d.Sub(w.Mul(zoom))
	c.publish()
}

// Scroll zooms at the last pointer position, or feeds inertia when enabled
func (c *Controller) Scroll(amount float64) {
	if c.settings.Inertia {
		c.velocity += amount
		return
	}
	c.ZoomAt(amount, c.pointer)
}

// Tick applies one step of zoom inertia. It reports whether the camera moved.
func (c *Controller) Tick() bool {
	if c.velocity == 0 {
		return false
	}
	c.ZoomAt(c.velocity, c.pointer)
	c.velocity *= c.settings.Decay
	if math.Abs(c.velocity) < inertiaCutoff {
		c.velocity = 0
	}
	return true
}

// Velocity returns the pending inertia
func (c *Controller) Velocity() float64 { return c.velocity }

// Reset restores offset 0 and zoom 1 and stops inertia
func (c *Controller) Reset() {
	c.cam = Identity
	c.velocity = 0
	c.publish()
}

// ScreenToWorld maps a screen position to world coordinates
func (c *Controller) ScreenToWorld(screen r2.Point) r2.Point {
	return c.cam.ToWorld(Device(screen, c.size))
}

// WorldToScreen maps world coordinates to a screen position
func (c *Controller) WorldToScreen(world r2.Point) r2.Point {
	return Screen(c.cam.ToDevice(world), c.size)
}
