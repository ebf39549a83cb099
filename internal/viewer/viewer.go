// Package viewer draws the render buffers in a terminal and drives the
// camera from mouse, wheel, key and resize events.
package viewer

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/golang/geo/r2"

	"github.com/wegman-software/osmgraph-go/internal/camera"
	"github.com/wegman-software/osmgraph-go/internal/render"
)

const (
	tickInterval = 33 * time.Millisecond
	panStep      = 0.1 // device units per arrow key press
	lineRune     = '•'
)

var (
	lineStyle   = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	statusStyle = tcell.StyleDefault.Reverse(true)
)

// Viewer owns a screen and the camera controller that looks at buf
type Viewer struct {
	screen  tcell.Screen
	ctrl    *camera.Controller
	buf     *render.Buffers
	buttons tcell.ButtonMask
}

// New creates a viewer on an initialized screen
func New(screen tcell.Screen, ctrl *camera.Controller, buf *render.Buffers) *Viewer {
	w, h := screen.Size()
	ctrl.Resize(r2.Point{X: float64(w), Y: float64(h)})
	return &Viewer{screen: screen, ctrl: ctrl, buf: buf}
}

// Controller returns the camera controller
func (v *Viewer) Controller() *camera.Controller { return v.ctrl }

// Run draws and handles events until the user quits or ctx ends
func (v *Viewer) Run(ctx context.Context) error {
	v.screen.EnableMouse()
	v.screen.HideCursor()

	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			events <- ev
		}
	}()

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	v.Draw()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if v.HandleEvent(ev) {
				return nil
			}
			v.Draw()
		case <-ticker.C:
			if v.ctrl.Tick() {
				v.Draw()
			}
		}
	}
}

// HandleEvent applies one terminal event to the camera. It reports whether
// the viewer should exit.
func (v *Viewer) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		w, h := ev.Size()
		v.ctrl.Resize(r2.Point{X: float64(w), Y: float64(h)})
		v.screen.Sync()
	case *tcell.EventMouse:
		v.handleMouse(ev)
	case *tcell.EventKey:
		return v.handleKey(ev)
	}
	return false
}

func (v *Viewer) handleMouse(ev *tcell.EventMouse) {
	x, y := ev.Position()
	btn := ev.Buttons()
	pressed := btn &^ v.buttons
	v.buttons = btn &^ (tcell.WheelUp | tcell.WheelDown | tcell.WheelLeft | tcell.WheelRight)

	// pointer first so arming a drag never jumps the view
	v.ctrl.PointerMoved(r2.Point{X: float64(x), Y: float64(y)})
	v.ctrl.SetDragging(btn&tcell.Button1 != 0)

	if pressed&tcell.Button2 != 0 {
		v.ctrl.Reset()
	}
	if btn&tcell.WheelUp != 0 {
		v.ctrl.Scroll(1)
	}
	if btn&tcell.WheelDown != 0 {
		v.ctrl.Scroll(-1)
	}
}

func (v *Viewer) centre() r2.Point {
	return v.ctrl.Size().Mul(0.5)
}

func (v *Viewer) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyLeft:
		v.ctrl.Pan(r2.Point{X: panStep})
	case tcell.KeyRight:
		v.ctrl.Pan(r2.Point{X: -panStep})
	case tcell.KeyUp:
		v.ctrl.Pan(r2.Point{Y: -panStep})
	case tcell.KeyDown:
		v.ctrl.Pan(r2.Point{Y: panStep})
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q', 'Q':
			return true
		case 'r', 'R':
			v.ctrl.Reset()
		case '+', '=':
			v.ctrl.ZoomAt(1, v.centre())
		case '-', '_':
			v.ctrl.ZoomAt(-1, v.centre())
		}
	}
	return false
}

// Draw renders every way strip under the current camera plus a status line
func (v *Viewer) Draw() {
	v.screen.Clear()
	w, h := v.screen.Size()
	if w <= 0 || h <= 0 {
		return
	}
	cam := v.ctrl.Snapshot()
	size := r2.Point{X: float64(w), Y: float64(h)}
	view := r2.RectFromPoints(r2.Point{}, size)

	toScreen := func(i uint32) r2.Point {
		vx := v.buf.Vertices[i]
		world := r2.Point{X: float64(vx.X), Y: float64(vx.Y)}
		return camera.Screen(cam.ToDevice(world), size)
	}

	v.buf.Strips(func(strip []uint32) bool {
		prev := toScreen(strip[0])
		for _, idx := range strip[1:] {
			cur := toScreen(idx)
			if a, b, ok := clip(prev, cur, view); ok {
				v.line(a, b, w, h)
			}
			prev = cur
		}
		return true
	})

	status := fmt.Sprintf(" zoom %.3g  offset %.3f,%.3f  drag/wheel  arrows pan  +/- zoom  r reset  q quit ",
		cam.Zoom, cam.Offset.X, cam.Offset.Y)
	for x, r := range []rune(status) {
		if x >= w {
			break
		}
		v.screen.SetContent(x, h-1, r, nil, statusStyle)
	}
	v.screen.Show()
}

// line rasterizes a segment already clipped to the screen
func (v *Viewer) line(a, b r2.Point, w, h int) {
	d := b.Sub(a)
	steps := int(math.Ceil(math.Max(math.Abs(d.X), math.Abs(d.Y))))
	if steps == 0 {
		steps = 1
	}
	for i := 0; i <= steps; i++ {
		p := a.Add(d.Mul(float64(i) / float64(steps)))
		x := max(0, min(int(math.Floor(p.X)), w-1))
		y := max(0, min(int(math.Floor(p.Y)), h-1))
		v.screen.SetContent(x, y, lineRune, nil, lineStyle)
	}
}

// clip trims segment ab to rect (Liang-Barsky). ok is false when the segment
// lies entirely outside.
func clip(a, b r2.Point, rect r2.Rect) (r2.Point, r2.Point, bool) {
	d := b.Sub(a)
	t0, t1 := 0.0, 1.0
	lo, hi := rect.Lo(), rect.Hi()
	edges := [4][2]float64{
		{-d.X, a.X - lo.X},
		{d.X, hi.X - a.X},
		{-d.Y, a.Y - lo.Y},
		{d.Y, hi.Y - a.Y},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return a, b, false
			}
			continue
		}
		t := q / p
		if p < 0 {
			if t > t1 {
				return a, b, false
			}
			t0 = math.Max(t0, t)
		} else {
			if t < t0 {
				return a, b, false
			}
			t1 = math.Min(t1, t)
		}
	}
	if math.IsNaN(t0) || math.IsNaN(t1) {
		return a, b, false
	}
	return a.Add(d.Mul(t0)), a.Add(d.Mul(t1)), true
}
