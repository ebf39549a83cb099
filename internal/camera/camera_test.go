package camera

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wegman-software/osmgraph-go/internal/config"
)

const tol = 1e-9

var screenSize = r2.Point{X: 800, Y: 600}

func settings() config.CameraConfig {
	return config.DefaultConfig().Camera
}

func assertPoint(t *testing.T, want, got r2.Point, msgAndArgs ...interface{}) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, tol, msgAndArgs...)
	assert.InDelta(t, want.Y, got.Y, tol, msgAndArgs...)
}

func TestDeviceCoordinates(t *testing.T) {
	tests := []struct {
		screen r2.Point
		want   r2.Point
	}{
		{r2.Point{X: 0, Y: 0}, r2.Point{X: -1, Y: 1}},
		{r2.Point{X: 800, Y: 600}, r2.Point{X: 1, Y: -1}},
		{r2.Point{X: 400, Y: 300}, r2.Point{X: 0, Y: 0}},
		{r2.Point{X: 600, Y: 150}, r2.Point{X: 0.5, Y: 0.5}},
	}
	for _, tt := range tests {
		d := Device(tt.screen, screenSize)
		assertPoint(t, tt.want, d)
		assertPoint(t, tt.screen, Screen(d, screenSize))
	}

	// zero size does not divide by zero
	d := Device(r2.Point{X: 1, Y: 1}, r2.Point{})
	assertPoint(t, r2.Point{X: 1, Y: -1}, d)
}

func TestRoundTrip(t *testing.T) {
	c := NewController(settings(), screenSize)
	c.Pan(r2.Point{X: 0.2, Y: -0.1})
	c.cam.Zoom = 2
	c.publish()

	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 100; i++ {
		p := r2.Point{X: rng.Float64()*20 - 10, Y: rng.Float64()*20 - 10}
		assertPoint(t, p, c.ScreenToWorld(c.WorldToScreen(p)))
	}

	// world origin lands at the offset in device space
	assertPoint(t, Screen(r2.Point{X: 0.2, Y: -0.1}, screenSize), c.WorldToScreen(r2.Point{}))
}

func TestZoomAtKeepsAnchorFixed(t *testing.T) {
	anchors := []r2.Point{{X: 0, Y: 0}, {X: 400, Y: 300}, {X: 123, Y: 456}, {X: 799, Y: 1}}
	for _, anchor := range anchors {
		for factor := -0.9; factor <= 5.0; factor += 0.35 {
			c := NewController(settings(), screenSize)
			c.Pan(r2.Point{X: 0.2, Y: -0.1})
			c.ZoomAt(1, r2.Point{X: 10, Y: 20})

			before := c.ScreenToWorld(anchor)
			zoom := c.Snapshot().Zoom
			c.ZoomAt(factor, anchor)
			after := c.ScreenToWorld(anchor)

			assertPoint(t, before, after, "anchor %v factor %v", anchor, factor)
			assert.InDelta(t, zoom*(1+factor*0.1), c.Snapshot().Zoom, tol)
		}
	}
}

func TestZoomNeverReachesZero(t *testing.T) {
	c := NewController(config.CameraConfig{Sensitivity: 1, Decay: 0.5}, screenSize)
	c.ZoomAt(-1, r2.Point{X: 400, Y: 300})
	assert.Equal(t, MinZoom, c.Snapshot().Zoom)
	c.ZoomAt(-5, r2.Point{X: 10, Y: 10})
	assert.Greater(t, c.Snapshot().Zoom, 0.0)
}

func TestDragPansOnlyWhileArmed(t *testing.T) {
	c := NewController(settings(), screenSize)

	c.PointerMoved(r2.Point{X: 400, Y: 300})
	c.PointerMoved(r2.Point{X: 600, Y: 150})
	assert.Equal(t, Identity, c.Snapshot())

	c.SetDragging(true)
	assert.True(t, c.Dragging())
	c.PointerMoved(r2.Point{X: 400, Y: 300})
	assertPoint(t, r2.Point{X: -0.5, Y: -0.5}, c.Snapshot().Offset)

	c.SetDragging(false)
	c.PointerMoved(r2.Point{X: 0, Y: 0})
	assertPoint(t, r2.Point{X: -0.5, Y: -0.5}, c.Snapshot().Offset)
}

func TestDragIsResolutionIndependent(t *testing.T) {
	small := NewController(settings(), r2.Point{X: 100, Y: 100})
	large := NewController(settings(), r2.Point{X: 1000, Y: 1000})
	for _, c := range []*Controller{small, large} {
		size := c.Size()
		c.PointerMoved(r2.Point{X: size.X / 2, Y: size.Y / 2})
		c.SetDragging(true)
		c.PointerMoved(r2.Point{X: size.X * 0.75, Y: size.Y / 2})
	}
	assertPoint(t, small.Snapshot().Offset, large.Snapshot().Offset)
}

func TestReset(t *testing.T) {
	c := NewController(config.CameraConfig{Sensitivity: 0.1, Inertia: true, Decay: 0.85}, screenSize)
	c.Pan(r2.Point{X: 0.3, Y: 0.3})
	c.ZoomAt(3, r2.Point{X: 100, Y: 100})
	c.Scroll(2)

	c.Reset()
	assert.Equal(t, Identity, c.Snapshot())
	assert.Zero(t, c.Velocity())
}

func TestScrollZoomsAtPointer(t *testing.T) {
	c := NewController(settings(), screenSize)
	pointer := r2.Point{X: 200, Y: 500}
	c.PointerMoved(pointer)
	before := c.ScreenToWorld(pointer)

	c.Scroll(2)
	assert.InDelta(t, 1.2, c.Snapshot().Zoom, tol)
	assertPoint(t, before, c.ScreenToWorld(pointer))
}

func TestInertiaDecaysToZero(t *testing.T) {
	c := NewController(config.CameraConfig{Sensitivity: 0.1, Inertia: true, Decay: 0.5}, screenSize)
	c.PointerMoved(r2.Point{X: 400, Y: 300})

	c.Scroll(1)
	assert.Equal(t, Identity, c.Snapshot(), "scroll only feeds velocity")

	ticks := 0
	for c.Tick() {
		ticks++
		require.Less(t, ticks, 100)
	}
	// 1, 0.5, ... 0.001953125 applied; the next value falls below the cutoff
	assert.Equal(t, 10, ticks)
	assert.Zero(t, c.Velocity())
	assert.Greater(t, c.Snapshot().Zoom, 1.0)
	assert.False(t, c.Tick())
}

func TestResizeKeepsPointerInSync(t *testing.T) {
	c := NewController(settings(), screenSize)
	c.PointerMoved(r2.Point{X: 400, Y: 300})
	c.Resize(r2.Point{X: 1600, Y: 1200})
	c.SetDragging(true)
	// resizing under a stationary pointer does not move the view
	c.PointerMoved(r2.Point{X: 400, Y: 300})
	assert.Equal(t, Identity, c.Snapshot())

	c.PointerMoved(r2.Point{X: 800, Y: 600})
	assertPoint(t, r2.Point{X: 0.5, Y: -0.5}, c.Snapshot().Offset)
}

func TestMatrix(t *testing.T) {
	m := Camera{Offset: r2.Point{X: 0.25, Y: -0.5}, Zoom: 2}.Matrix()
	assert.Equal(t, [16]float32{2, 0, 0, 0, 0, 2, 0, 0, 0, 0, 1, 0, 0.25, -0.5, 0, 1}, m)
}

func TestSnapshotConcurrentReaders(t *testing.T) {
	c := NewController(settings(), screenSize)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				cam := c.Snapshot()
				// every published pair satisfies offset == zoom - 1 on both axes
				assert.InDelta(t, cam.Zoom-1, cam.Offset.X, 1e-6)
			}
		}()
	}

	for i := 0; i < 1000; i++ {
		// anchor at device (-1,-1): offset' = -1 - (-1-offset)/zoom*zoom'
		c.ZoomAt(0.1, r2.Point{X: 0, Y: 600})
	}
	close(stop)
	wg.Wait()
}
