package cmd

import (
	"time"

	"go.uber.org/zap"

	"github.com/spf13/cobra"
	"github.com/wegman-software/osmgraph-go/internal/loader"
	"github.com/wegman-software/osmgraph-go/internal/logger"
	"github.com/wegman-software/osmgraph-go/internal/tiles"
)

var (
	createIndexes bool
	dropExisting  bool
	expireOutput  string
	expireMinZoom int
	expireMaxZoom int
)

var exportCmd = &cobra.Command{
	Use:   "export-pg <input>",
	Short: "Export the routable ways and named points to PostgreSQL",
	Long: `Build the map and bulk load it into PostgreSQL/PostGIS.

This stage:
  1. Creates graph_ways (way id, point indices, tags, LineString) and
     graph_names (name, point index, Point)
  2. Uses COPY for high-speed bulk loading, one stream per table
  3. Optionally creates spatial and key indexes

With --expire-output, the z/x/y tiles under every exported way segment are
written to a file for tile cache invalidation.`,
	Args: cobra.ExactArgs(1),
	Run:  runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	addInputFlags(exportCmd)

	f := exportCmd.Flags()
	f.BoolVar(&createIndexes, "create-indexes", true, "Create spatial indexes after loading")
	f.BoolVar(&dropExisting, "drop-existing", false, "Drop existing tables before loading")
	f.StringVar(&cfg.DBHost, "db-host", cfg.DBHost, "PostgreSQL host")
	f.IntVar(&cfg.DBPort, "db-port", cfg.DBPort, "PostgreSQL port")
	f.StringVarP(&cfg.DBName, "db-name", "d", cfg.DBName, "PostgreSQL database name")
	f.StringVarP(&cfg.DBUser, "db-user", "U", cfg.DBUser, "PostgreSQL user")
	f.StringVarP(&cfg.DBPassword, "db-password", "W", cfg.DBPassword, "PostgreSQL password")
	f.StringVar(&cfg.DBSchema, "db-schema", cfg.DBSchema, "PostgreSQL schema")
	f.StringVar(&expireOutput, "expire-output", "", "Write expired tiles to this file")
	f.IntVar(&expireMinZoom, "expire-min-zoom", 10, "Minimum zoom for tile expiry")
	f.IntVar(&expireMaxZoom, "expire-max-zoom", 14, "Maximum zoom for tile expiry")
}

func runExport(cmd *cobra.Command, args []string) {
	ctx, cancel := signalContext()
	defer cancel()
	startMetrics(ctx)
	log := logger.Get()

	var tracker *tiles.Tracker
	if expireOutput != "" {
		var err error
		if tracker, err = tiles.NewTracker(expireMinZoom, expireMaxZoom); err != nil {
			exitWithError("invalid expire settings", err)
		}
	}

	m := loadMap(ctx, args[0])

	log.Info("Starting PostgreSQL export",
		zap.String("database", cfg.DBName),
		zap.String("host", cfg.DBHost),
		zap.Int("port", cfg.DBPort),
		zap.String("user", cfg.DBUser),
		zap.String("schema", cfg.DBSchema),
	)
	start := time.Now()

	ldr, err := loader.NewLoader(ctx, cfg, dropExisting, createIndexes)
	if err != nil {
		exitWithError("failed to create loader", err)
	}
	defer ldr.Close()

	stats, err := ldr.Export(ctx, m)
	if err != nil {
		exitWithError("export failed", err)
	}

	log.Info("Export complete",
		zap.Duration("duration", time.Since(start).Round(time.Second)),
		zap.Int64("ways", stats.WaysLoaded),
		zap.Int64("names", stats.NamesLoaded),
	)

	if tracker == nil {
		return
	}
	for _, w := range m.Ways {
		tracker.AddWay(w.Nodes, m.Positions)
	}
	if err := tracker.WriteFile(expireOutput); err != nil {
		exitWithError("failed to write expire tiles", err)
	}
}
