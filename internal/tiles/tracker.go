package tiles

import (
	"bufio"
	"fmt"
	"os"
	"slices"
	"sync"

	"github.com/golang/geo/r2"
	"go.uber.org/zap"

	"github.com/wegman-software/osmgraph-go/internal/logger"
)

// Tracker collects the distinct tiles touched by line segments across a range
// of zooms. It is safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	tiles   map[Tile]struct{}
	minZoom int
	maxZoom int
}

// NewTracker creates a tracker for zooms minZoom..maxZoom
func NewTracker(minZoom, maxZoom int) (*Tracker, error) {
	if minZoom < 0 || maxZoom > MaxZoom || minZoom > maxZoom {
		return nil, fmt.Errorf("invalid zoom range %d-%d (allowed 0-%d)", minZoom, maxZoom, MaxZoom)
	}
	return &Tracker{
		tiles:   make(map[Tile]struct{}),
		minZoom: minZoom,
		maxZoom: maxZoom,
	}, nil
}

// AddPoint marks the tiles containing pos
func (t *Tracker) AddPoint(pos r2.Point) {
	t.AddRect(r2.RectFromPoints(pos))
}

// AddRect marks every tile intersecting rect
func (t *Tracker) AddRect(rect r2.Rect) {
	if rect.IsEmpty() {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for z := t.minZoom; z <= t.maxZoom; z++ {
		SpanOf(rect, z).Each(func(tile Tile) {
			t.tiles[tile] = struct{}{}
		})
	}
}

// AddWay marks the tiles under each segment of a way, using the segment's
// bounding box
func (t *Tracker) AddWay(nodes []uint32, pos []r2.Point) {
	switch len(nodes) {
	case 0:
		return
	case 1:
		t.AddPoint(pos[nodes[0]])
		return
	}
	for i := 1; i < len(nodes); i++ {
		t.AddRect(r2.RectFromPoints(pos[nodes[i-1]], pos[nodes[i]]))
	}
}

// Count returns the number of distinct tiles
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.tiles)
}

// CountByZoom returns the number of tiles at each zoom
func (t *Tracker) CountByZoom() map[int]int {
	t.mu.Lock()
	defer t.mu.Unlock()

	counts := make(map[int]int)
	for tile := range t.tiles {
		counts[int(tile.Z)]++
	}
	return counts
}

// Tiles returns the tiles ordered by zoom, then x, then y
func (t *Tracker) Tiles() []Tile {
	t.mu.Lock()
	out := make([]Tile, 0, len(t.tiles))
	for tile := range t.tiles {
		out = append(out, tile)
	}
	t.mu.Unlock()

	slices.SortFunc(out, func(a, b Tile) int {
		switch {
		case a.Z != b.Z:
			return int(a.Z) - int(b.Z)
		case a.X != b.X:
			return cmpUint(a.X, b.X)
		}
		return cmpUint(a.Y, b.Y)
	})
	return out
}

func cmpUint(a, b uint32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// WriteFile writes the tiles to path, one z/x/y per line
func (t *Tracker) WriteFile(path string) error {
	log := logger.Get()

	tiles := t.Tiles()
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create expire file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, tile := range tiles {
		fmt.Fprintln(w, Format(tile))
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write expire file: %w", err)
	}

	counts := t.CountByZoom()
	fields := []zap.Field{zap.String("file", path)}
	for z := t.minZoom; z <= t.maxZoom; z++ {
		fields = append(fields, zap.Int(fmt.Sprintf("z%d", z), counts[z]))
	}
	fields = append(fields, zap.Int("total", len(tiles)))
	log.Info("Wrote expire tiles", fields...)

	return f.Close()
}
