// Package ingest consumes an element stream into dense point and way arrays.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/golang/geo/r2"
	"go.uber.org/zap"

	"github.com/wegman-software/osmgraph-go/internal/config"
	"github.com/wegman-software/osmgraph-go/internal/flex"
	"github.com/wegman-software/osmgraph-go/internal/logger"
	"github.com/wegman-software/osmgraph-go/internal/nodeindex"
	"github.com/wegman-software/osmgraph-go/internal/source"
	"github.com/wegman-software/osmgraph-go/internal/style"
)

// Point is an ingested point; its dense index is its position in Dataset.Points
type Point struct {
	ID   int64
	Pos  r2.Point // X = lon, Y = lat
	Tags map[string]string
}

// Way is an ingested way whose Nodes are dense point indices
type Way struct {
	ID    int64
	Nodes []uint32
	Tags  map[string]string
}

// Stats holds per-item diagnostics. None of these abort a load.
type Stats struct {
	RawPoints      int64
	RawWays        int64
	DanglingRefs   int64 // way refs to unknown points, dropped
	SmallWays      int64 // ways with <= 2 resolved refs, dropped
	PointsFiltered int64
	WaysFiltered   int64
}

// Dataset is the result of one ingestion pass
type Dataset struct {
	Points []Point
	Ways   []Way
	Bounds r2.Rect
	Stats  Stats
}

// Empty reports whether no points were ingested. An empty dataset is valid.
func (d *Dataset) Empty() bool {
	return len(d.Points) == 0
}

// Positions returns point positions indexed by dense index
func (d *Dataset) Positions() []r2.Point {
	pos := make([]r2.Point, len(d.Points))
	for i := range d.Points {
		pos[i] = d.Points[i].Pos
	}
	return pos
}

// WayNodes returns the node index lists of all ways
func (d *Dataset) WayNodes() [][]uint32 {
	out := make([][]uint32, len(d.Ways))
	for i := range d.Ways {
		out[i] = d.Ways[i].Nodes
	}
	return out
}

// Options selects which elements are kept. All fields are optional.
type Options struct {
	BBox      *config.BBox  // points outside are dropped
	WayFilter *style.Filter // tag rules for ways
	Script    *flex.Filter  // Lua keep_way / keep_point callbacks
}

// Open opens path as an element stream, classifying failures as open-stage I/O errors
func Open(ctx context.Context, path string, opts source.Options) (source.Source, error) {
	src, err := source.Open(ctx, path, opts)
	if err != nil {
		return nil, openError(err)
	}
	return src, nil
}

// Consume reads src to the end. Points must arrive before the ways that
// reference them. On error no partial dataset is returned.
func Consume(src source.Source, opts Options) (*Dataset, error) {
	log := logger.Get()
	start := time.Now()

	ds := &Dataset{Bounds: r2.EmptyRect()}
	remap := nodeindex.NewRemap(0)

	for src.Scan() {
		el := src.Element()
		switch {
		case el.Point != nil:
			if err := ds.addPoint(el.Point, remap, opts); err != nil {
				return nil, err
			}
		case el.Way != nil:
			if err := ds.addWay(el.Way, remap, opts); err != nil {
				return nil, err
			}
		}
	}
	if err := src.Err(); err != nil {
		return nil, classify(err)
	}

	log.Info("Ingestion complete",
		zap.Int("points", len(ds.Points)),
		zap.Int("ways", len(ds.Ways)),
		zap.Int64("dangling_refs", ds.Stats.DanglingRefs),
		zap.Int64("small_ways", ds.Stats.SmallWays),
		zap.Int64("points_filtered", ds.Stats.PointsFiltered),
		zap.Int64("ways_filtered", ds.Stats.WaysFiltered),
		zap.Duration("duration", time.Since(start)))

	return ds, nil
}

func (ds *Dataset) addPoint(p *source.Point, remap *nodeindex.Remap, opts Options) error {
	ds.Stats.RawPoints++

	if !opts.BBox.Contains(p.Lat, p.Lon) {
		ds.Stats.PointsFiltered++
		return nil
	}
	if opts.Script != nil {
		keep, err := opts.Script.KeepPoint(p.Tags, p.Lon, p.Lat)
		if err != nil {
			return parseError(ErrFilter, fmt.Errorf("point %d: %w", p.ID, err))
		}
		if !keep {
			ds.Stats.PointsFiltered++
			return nil
		}
	}

	if _, ok := remap.Put(p.ID); !ok {
		return parseError(ErrFormat, fmt.Errorf("point %d exceeds the dense index space", p.ID))
	}

	pos := r2.Point{X: p.Lon, Y: p.Lat}
	if len(ds.Points) == 0 {
		ds.Bounds = r2.RectFromPoints(pos)
	} else {
		ds.Bounds = ds.Bounds.AddPoint(pos)
	}
	ds.Points = append(ds.Points, Point{ID: p.ID, Pos: pos, Tags: p.Tags})
	return nil
}

func (ds *Dataset) addWay(w *source.Way, remap *nodeindex.Remap, opts Options) error {
	ds.Stats.RawWays++

	if opts.WayFilter != nil && !opts.WayFilter.Match(w.Tags) {
		ds.Stats.WaysFiltered++
		return nil
	}

	nodes, dropped := remap.Resolve(w.Refs)
	ds.Stats.DanglingRefs += int64(dropped)
	if len(nodes) <= 2 {
		ds.Stats.SmallWays++
		return nil
	}

	if opts.Script != nil {
		keep, err := opts.Script.KeepWay(w.Tags, len(nodes))
		if err != nil {
			return parseError(ErrFilter, fmt.Errorf("way %d: %w", w.ID, err))
		}
		if !keep {
			ds.Stats.WaysFiltered++
			return nil
		}
	}

	ds.Ways = append(ds.Ways, Way{ID: w.ID, Nodes: nodes, Tags: w.Tags})
	return nil
}

// classify separates read failures from stream corruption
func classify(err error) error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return parseError(ErrIO, err)
	}
	return parseError(ErrFormat, err)
}
