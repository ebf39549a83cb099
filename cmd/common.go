package cmd

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/spf13/cobra"
	"github.com/wegman-software/osmgraph-go/internal/logger"
	"github.com/wegman-software/osmgraph-go/internal/mapdata"
	"github.com/wegman-software/osmgraph-go/internal/metrics"
)

// addInputFlags registers the flags that control loading and indexing
func addInputFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&cfg.Format, "format", "f", cfg.Format, "Input format: auto, pbf or xml")
	f.StringVarP(&cfg.BBoxStr, "bbox", "b", cfg.BBoxStr, "Bounding box filter: minlon,minlat,maxlon,maxlat")
	f.StringVarP(&cfg.StyleFile, "style", "S", cfg.StyleFile, "Style YAML file for way tag filtering")
	f.StringVar(&cfg.FilterScript, "filter-script", cfg.FilterScript, "Lua script defining keep_way/keep_point")
	f.Float64Var(&cfg.CellSize, "cell-size", cfg.CellSize, "Spatial grid cell size in degrees")
	f.StringVar(&cfg.SnapMode, "snap", cfg.SnapMode, "Snap mode: cell, ring or rtree")
	f.IntVar(&cfg.SnapRings, "snap-rings", cfg.SnapRings, "Rings searched around the cell in ring mode")
	f.IntVarP(&cfg.Projection, "projection", "E", cfg.Projection, "Render projection SRID (4326 or 3857)")
	f.BoolVar(&cfg.Progress, "progress", cfg.Progress, "Show a progress bar while reading")
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// startMetrics logs system metrics in the background when an interval is set.
// The returned collector is nil otherwise.
func startMetrics(ctx context.Context) *metrics.Collector {
	if cfg.MetricsInterval <= 0 {
		return nil
	}
	log := logger.Get()
	collector := metrics.NewCollector(cfg.MetricsInterval, log)
	go collector.Start(ctx)
	log.Info("System metrics collection started", zap.Duration("interval", cfg.MetricsInterval))
	return collector
}

// loadMap validates cfg and builds the map for input, exiting on failure
func loadMap(ctx context.Context, input string) *mapdata.Map {
	cfg.InputFile = input
	log := logger.Get()

	if err := cfg.Validate(); err != nil {
		exitWithError("invalid configuration", err)
	}

	start := time.Now()
	m, err := mapdata.Load(ctx, cfg)
	if err != nil {
		exitWithError("failed to load map", err)
	}

	log.Info("Map ready",
		zap.String("points", humanize.Comma(int64(len(m.Points)))),
		zap.String("ways", humanize.Comma(int64(len(m.Ways)))),
		zap.String("edges", humanize.Comma(int64(m.Graph.EdgeCount()))),
		zap.Duration("duration", time.Since(start).Round(time.Millisecond)))
	return m
}

// printJSON writes v to stdout
func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		exitWithError("failed to write output", err)
	}
}
