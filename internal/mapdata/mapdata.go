// Package mapdata loads a map file and builds every query structure over it.
package mapdata

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/geo/r2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wegman-software/osmgraph-go/internal/config"
	"github.com/wegman-software/osmgraph-go/internal/flex"
	"github.com/wegman-software/osmgraph-go/internal/graph"
	"github.com/wegman-software/osmgraph-go/internal/ingest"
	"github.com/wegman-software/osmgraph-go/internal/logger"
	"github.com/wegman-software/osmgraph-go/internal/names"
	"github.com/wegman-software/osmgraph-go/internal/proj"
	"github.com/wegman-software/osmgraph-go/internal/render"
	"github.com/wegman-software/osmgraph-go/internal/route"
	"github.com/wegman-software/osmgraph-go/internal/source"
	"github.com/wegman-software/osmgraph-go/internal/spatial"
	"github.com/wegman-software/osmgraph-go/internal/style"
)

// Map is a fully built dataset. It is read-only after Build returns and may be
// shared between goroutines.
type Map struct {
	Points    []ingest.Point
	Ways      []ingest.Way
	Positions []r2.Point
	Bounds    r2.Rect
	Stats     ingest.Stats

	Graph   *graph.Graph
	Grid    *spatial.Grid
	Locator spatial.Locator
	Names   *names.Index
	Buffers *render.Buffers
}

// Empty reports whether the map has no points
func (m *Map) Empty() bool {
	return len(m.Points) == 0
}

// Planner returns a route planner over the map
func (m *Map) Planner() *route.Planner {
	return &route.Planner{Graph: m.Graph, Positions: m.Positions, Locator: m.Locator}
}

// Options controls index construction
type Options struct {
	CellSize   float64
	SnapMode   string
	SnapRings  int
	Projection int
}

// OptionsFromConfig extracts build options from cfg
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		CellSize:   cfg.CellSize,
		SnapMode:   cfg.SnapMode,
		SnapRings:  cfg.SnapRings,
		Projection: cfg.Projection,
	}
}

// Load ingests cfg.InputFile and builds the map. Either a complete map or an
// error is returned, never a partial map.
func Load(ctx context.Context, cfg *config.Config) (*Map, error) {
	log := logger.Get()

	opts := ingest.Options{BBox: cfg.BBox}
	if cfg.StyleFile != "" {
		st, err := style.LoadConfig(cfg.StyleFile)
		if err != nil {
			return nil, err
		}
		opts.WayFilter = st.WayFilter()
	}
	if cfg.FilterScript != "" {
		script, err := flex.LoadFile(cfg.FilterScript)
		if err != nil {
			return nil, err
		}
		defer script.Close()
		opts.Script = script
	}

	log.Info("Reading input", zap.String("file", cfg.InputFile), zap.String("format", cfg.Format))
	src, err := ingest.Open(ctx, cfg.InputFile, source.Options{
		Format:   cfg.Format,
		Workers:  cfg.Workers,
		Progress: cfg.Progress,
	})
	if err != nil {
		return nil, err
	}
	defer src.Close()

	ds, err := ingest.Consume(src, opts)
	if err != nil {
		return nil, err
	}
	return Build(ctx, ds, OptionsFromConfig(cfg))
}

// Build constructs the graph, spatial index, name index and render buffers
// concurrently. The name index takes the "name" tag out of ds.Points.
func Build(ctx context.Context, ds *ingest.Dataset, opts Options) (*Map, error) {
	log := logger.Get()
	start := time.Now()

	m := &Map{
		Points:    ds.Points,
		Ways:      ds.Ways,
		Positions: ds.Positions(),
		Bounds:    ds.Bounds,
		Stats:     ds.Stats,
	}
	if m.Empty() {
		log.Warn("Dataset is empty; routing and lookups will return no results")
	}
	wayNodes := ds.WayNodes()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		m.Graph = graph.Build(len(m.Positions), wayNodes)
		return nil
	})

	g.Go(func() error {
		grid, err := spatial.NewGrid(m.Positions, opts.CellSize)
		if err != nil {
			return fmt.Errorf("failed to build spatial index: %w", err)
		}
		loc, err := spatial.NewLocator(opts.SnapMode, grid, m.Positions, opts.SnapRings)
		if err != nil {
			return err
		}
		m.Grid, m.Locator = grid, loc
		return gctx.Err()
	})

	g.Go(func() error {
		m.Names = names.Build(m.Points)
		return nil
	})

	g.Go(func() error {
		srid := opts.Projection
		if srid == 0 {
			srid = proj.SRID4326
		}
		t, err := proj.NewTransformer(srid)
		if err != nil {
			return err
		}
		positions, bounds := m.Positions, m.Bounds
		if t.NeedsTransform() {
			positions, bounds = t.Points(m.Positions)
		}
		m.Buffers = render.Build(positions, bounds, wayNodes)
		return gctx.Err()
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Info("Indexes built",
		zap.Int("vertices", m.Graph.Len()),
		zap.Int("edges", m.Graph.EdgeCount()),
		zap.Int("cells", m.Grid.Cells()),
		zap.Int("names", m.Names.Len()),
		zap.Int("indices", len(m.Buffers.Indices)),
		zap.Duration("duration", time.Since(start)))

	return m, nil
}
