package viewer

import (
	"context"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wegman-software/osmgraph-go/internal/camera"
	"github.com/wegman-software/osmgraph-go/internal/config"
	"github.com/wegman-software/osmgraph-go/internal/render"
)

func squareBuffers() *render.Buffers {
	pos := []r2.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	bounds := r2.RectFromPoints(pos...)
	return render.Build(pos, bounds, [][]uint32{{0, 1, 2, 3, 0}})
}

func newViewer(t *testing.T, w, h int) (*Viewer, tcell.SimulationScreen) {
	t.Helper()
	s := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, s.Init())
	t.Cleanup(s.Fini)
	s.SetSize(w, h)

	settings := config.DefaultConfig().Camera
	ctrl := camera.NewController(settings, r2.Point{X: 1, Y: 1})
	return New(s, ctrl, squareBuffers()), s
}

func cell(t *testing.T, s tcell.SimulationScreen, x, y int) rune {
	t.Helper()
	cells, w, _ := s.GetContents()
	c := cells[y*w+x]
	if len(c.Runes) == 0 {
		return ' '
	}
	return c.Runes[0]
}

func key(r rune) *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)
}

func mouse(x, y int, btn tcell.ButtonMask) *tcell.EventMouse {
	return tcell.NewEventMouse(x, y, btn, tcell.ModNone)
}

func TestNewTakesScreenSize(t *testing.T) {
	v, _ := newViewer(t, 40, 20)
	assert.Equal(t, r2.Point{X: 40, Y: 20}, v.Controller().Size())
}

func TestQuitKeys(t *testing.T) {
	v, _ := newViewer(t, 10, 10)
	assert.True(t, v.HandleEvent(key('q')))
	assert.True(t, v.HandleEvent(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)))
	assert.True(t, v.HandleEvent(tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModNone)))
	assert.False(t, v.HandleEvent(key('x')))
}

func TestDragPans(t *testing.T) {
	v, _ := newViewer(t, 10, 10)
	ctrl := v.Controller()

	v.HandleEvent(mouse(0, 0, tcell.Button1))
	assert.True(t, ctrl.Dragging())
	assert.Equal(t, camera.Identity, ctrl.Snapshot(), "pressing must not move the view")

	v.HandleEvent(mouse(5, 5, tcell.Button1))
	snap := ctrl.Snapshot()
	assert.InDelta(t, 1.0, snap.Offset.X, 1e-12)
	assert.InDelta(t, -1.0, snap.Offset.Y, 1e-12)

	v.HandleEvent(mouse(5, 5, tcell.ButtonNone))
	assert.False(t, ctrl.Dragging())

	// moving without a button leaves the view alone
	v.HandleEvent(mouse(0, 0, tcell.ButtonNone))
	assert.Equal(t, snap, ctrl.Snapshot())
}

func TestSecondaryButtonResets(t *testing.T) {
	v, _ := newViewer(t, 10, 10)
	v.Controller().Pan(r2.Point{X: 0.3})

	v.HandleEvent(mouse(2, 2, tcell.Button2))
	assert.Equal(t, camera.Identity, v.Controller().Snapshot())
}

func TestWheelZoomsAtPointer(t *testing.T) {
	v, _ := newViewer(t, 10, 10)
	ctrl := v.Controller()

	v.HandleEvent(mouse(5, 5, tcell.WheelUp))
	snap := ctrl.Snapshot()
	assert.InDelta(t, 1.1, snap.Zoom, 1e-12)
	assert.InDelta(t, 0, snap.Offset.X, 1e-12)
	assert.InDelta(t, 0, snap.Offset.Y, 1e-12)

	v.HandleEvent(mouse(5, 5, tcell.WheelDown))
	assert.InDelta(t, 1.1*0.9, ctrl.Snapshot().Zoom, 1e-12)
	assert.False(t, ctrl.Dragging())
}

func TestKeys(t *testing.T) {
	v, _ := newViewer(t, 10, 10)
	ctrl := v.Controller()

	v.HandleEvent(tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone))
	v.HandleEvent(tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone))
	snap := ctrl.Snapshot()
	assert.InDelta(t, -panStep, snap.Offset.X, 1e-12)
	assert.InDelta(t, -panStep, snap.Offset.Y, 1e-12)

	v.HandleEvent(key('r'))
	assert.Equal(t, camera.Identity, ctrl.Snapshot())

	v.HandleEvent(key('+'))
	assert.InDelta(t, 1.1, ctrl.Snapshot().Zoom, 1e-12)
	v.HandleEvent(key('-'))
	assert.InDelta(t, 1.1*0.9, ctrl.Snapshot().Zoom, 1e-12)
	assert.InDelta(t, 0, ctrl.Snapshot().Offset.X, 1e-12)
}

func TestResize(t *testing.T) {
	v, _ := newViewer(t, 10, 10)
	v.HandleEvent(tcell.NewEventResize(30, 12))
	assert.Equal(t, r2.Point{X: 30, Y: 12}, v.Controller().Size())
}

func TestDrawSquare(t *testing.T) {
	v, s := newViewer(t, 21, 11)
	v.Draw()

	assert.Equal(t, lineRune, cell(t, s, 10, 0), "top edge")
	assert.Equal(t, lineRune, cell(t, s, 0, 5), "left edge")
	assert.Equal(t, lineRune, cell(t, s, 20, 5), "right edge")
	assert.Equal(t, ' ', cell(t, s, 10, 5), "interior")
	assert.Equal(t, 'z', cell(t, s, 1, 10), "status line")
}

func TestDrawFollowsZoom(t *testing.T) {
	v, s := newViewer(t, 21, 11)
	for i := 0; i < 5; i++ {
		v.HandleEvent(key('-'))
	}
	v.Draw()

	// zoom 0.9^5 puts the top edge near device y 0.59, row 2
	assert.Equal(t, ' ', cell(t, s, 10, 0))
	assert.Equal(t, lineRune, cell(t, s, 10, 2))
}

func TestDrawEmptyBuffers(t *testing.T) {
	s := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, s.Init())
	defer s.Fini()
	s.SetSize(10, 5)

	ctrl := camera.NewController(config.DefaultConfig().Camera, r2.Point{X: 10, Y: 5})
	v := New(s, ctrl, render.Build(nil, r2.EmptyRect(), nil))
	v.Draw()
	assert.Equal(t, ' ', cell(t, s, 5, 0))
}

func TestClip(t *testing.T) {
	rect := r2.RectFromPoints(r2.Point{}, r2.Point{X: 10, Y: 10})

	a, b, ok := clip(r2.Point{X: -5, Y: 5}, r2.Point{X: 15, Y: 5}, rect)
	require.True(t, ok)
	assert.InDelta(t, 0, a.X, 1e-12)
	assert.InDelta(t, 10, b.X, 1e-12)

	_, _, ok = clip(r2.Point{X: -5, Y: -5}, r2.Point{X: -1, Y: 20}, rect)
	assert.False(t, ok)

	a, b, ok = clip(r2.Point{X: 2, Y: 3}, r2.Point{X: 4, Y: 5}, rect)
	require.True(t, ok)
	assert.Equal(t, r2.Point{X: 2, Y: 3}, a)
	assert.Equal(t, r2.Point{X: 4, Y: 5}, b)
}

func TestRunQuits(t *testing.T) {
	v, s := newViewer(t, 10, 10)

	done := make(chan error, 1)
	go func() { done <- v.Run(context.Background()) }()
	s.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("viewer did not quit")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	v, _ := newViewer(t, 10, 10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, v.Run(ctx))
}
