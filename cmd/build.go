package cmd

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/spf13/cobra"
	"github.com/wegman-software/osmgraph-go/internal/logger"
	"github.com/wegman-software/osmgraph-go/internal/snapshot"
)

var buildCmd = &cobra.Command{
	Use:   "build <input.osm.pbf|input.osm>",
	Short: "Load a map, print its statistics and optionally save render buffers",
	Long: `Ingest an OSM file and build every index over it, then print a summary.

With --snapshot the render buffers are written as Parquet files:
  - vertices.parquet (x, y)
  - indices.parquet  (index, with 4294967295 as the strip restart marker)

The view command can open a snapshot without re-reading the source file.`,
	Args: cobra.ExactArgs(1),
	Run:  runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
	addInputFlags(buildCmd)

	buildCmd.Flags().StringVarP(&cfg.SnapshotDir, "snapshot", "o", cfg.SnapshotDir, "Directory to write render buffer Parquet files")
}

func runBuild(cmd *cobra.Command, args []string) {
	ctx, cancel := signalContext()
	defer cancel()
	startMetrics(ctx)

	m := loadMap(ctx, args[0])
	st := m.Stats

	fmt.Printf("Points:        %s (%s read, %s filtered)\n",
		humanize.Comma(int64(len(m.Points))), humanize.Comma(st.RawPoints), humanize.Comma(st.PointsFiltered))
	fmt.Printf("Ways:          %s (%s read, %s filtered, %s too short)\n",
		humanize.Comma(int64(len(m.Ways))), humanize.Comma(st.RawWays), humanize.Comma(st.WaysFiltered), humanize.Comma(st.SmallWays))
	fmt.Printf("Dangling refs: %s\n", humanize.Comma(st.DanglingRefs))
	fmt.Printf("Edges:         %s\n", humanize.Comma(int64(m.Graph.EdgeCount())))
	fmt.Printf("Grid cells:    %s (cell size %g)\n", humanize.Comma(int64(m.Grid.Cells())), m.Grid.CellSize())
	fmt.Printf("Names:         %s\n", humanize.Comma(int64(m.Names.Len())))
	fmt.Printf("Render buffer: %s vertices, %s indices\n",
		humanize.Comma(int64(len(m.Buffers.Vertices))), humanize.Comma(int64(len(m.Buffers.Indices))))
	if !m.Empty() {
		lo, hi := m.Bounds.Lo(), m.Bounds.Hi()
		fmt.Printf("Bounds:        %.6f,%.6f,%.6f,%.6f\n", lo.X, lo.Y, hi.X, hi.Y)
	}

	if cfg.SnapshotDir == "" {
		return
	}
	start := time.Now()
	if err := snapshot.Save(cfg.SnapshotDir, m.Buffers); err != nil {
		exitWithError("failed to save snapshot", err)
	}
	logger.Get().Info("Snapshot saved",
		zap.String("dir", cfg.SnapshotDir),
		zap.Duration("duration", time.Since(start).Round(time.Millisecond)))
}
