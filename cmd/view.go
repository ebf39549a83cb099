package cmd

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/golang/geo/r2"
	"go.uber.org/zap"

	"github.com/spf13/cobra"
	"github.com/wegman-software/osmgraph-go/internal/camera"
	"github.com/wegman-software/osmgraph-go/internal/logger"
	"github.com/wegman-software/osmgraph-go/internal/render"
	"github.com/wegman-software/osmgraph-go/internal/snapshot"
	"github.com/wegman-software/osmgraph-go/internal/viewer"
)

var viewCmd = &cobra.Command{
	Use:   "view [<input>]",
	Short: "Browse the map's ways in the terminal",
	Long: `Draw every way as a line strip and pan/zoom with the mouse and keyboard.

  drag (left button)   pan
  wheel                zoom at the pointer
  right button, r      reset the view
  arrows               pan
  + / -                zoom at the centre
  q, Esc               quit

Either build from an input file or open a directory written by
"build --snapshot" with --snapshot.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runView,
}

func init() {
	rootCmd.AddCommand(viewCmd)
	addInputFlags(viewCmd)

	viewCmd.Flags().StringVarP(&cfg.SnapshotDir, "snapshot", "o", cfg.SnapshotDir, "Open render buffers from this snapshot directory")
	viewCmd.Flags().Float64Var(&cfg.Camera.Sensitivity, "sensitivity", cfg.Camera.Sensitivity, "Zoom change per wheel step")
	viewCmd.Flags().BoolVar(&cfg.Camera.Inertia, "inertia", cfg.Camera.Inertia, "Smooth zoom with decaying velocity")
	viewCmd.Flags().Float64Var(&cfg.Camera.Decay, "decay", cfg.Camera.Decay, "Inertia velocity multiplier per frame, in (0, 1)")
}

func runView(cmd *cobra.Command, args []string) {
	ctx, cancel := signalContext()
	defer cancel()
	log := logger.Get()

	var buf *render.Buffers
	switch {
	case cfg.SnapshotDir != "" && len(args) == 0:
		var err error
		if buf, err = snapshot.Load(cfg.SnapshotDir); err != nil {
			exitWithError("failed to open snapshot", err)
		}
		log.Info("Snapshot loaded",
			zap.Int("vertices", len(buf.Vertices)), zap.Int("indices", len(buf.Indices)))
	case len(args) == 1:
		buf = loadMap(ctx, args[0]).Buffers
	default:
		exitWithError("view needs an input file or --snapshot", nil)
	}
	if buf.Empty() {
		log.Warn("Nothing to draw")
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		exitWithError("failed to open terminal", err)
	}
	if err := screen.Init(); err != nil {
		exitWithError("failed to initialize terminal", err)
	}

	ctrl := camera.NewController(cfg.Camera, r2.Point{X: 1, Y: 1})
	err = viewer.New(screen, ctrl, buf).Run(ctx)
	screen.Fini()
	if err != nil {
		exitWithError("viewer failed", err)
	}

	cam := ctrl.Snapshot()
	fmt.Printf("zoom %g offset %g,%g\n", cam.Zoom, cam.Offset.X, cam.Offset.Y)
}
