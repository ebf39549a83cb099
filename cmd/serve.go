package cmd

import (
	"github.com/spf13/cobra"
	"github.com/wegman-software/osmgraph-go/internal/logger"
	"github.com/wegman-software/osmgraph-go/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve <input>",
	Short: "Serve nearest, route and search queries over HTTP",
	Long: `Build the map once and answer queries over HTTP:

  GET /healthz
  GET /stats
  GET /nearest?lon=&lat=
  GET /route?from=lon,lat&to=lon,lat[&algo=astar|bfs]   (GeoJSON Feature)
  GET /search?q=prefix[&limit=n]

Each route search is bounded by --timeout.`,
	Args: cobra.ExactArgs(1),
	Run:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addInputFlags(serveCmd)

	serveCmd.Flags().StringVarP(&cfg.ListenAddr, "listen", "l", cfg.ListenAddr, "Address to listen on")
	serveCmd.Flags().DurationVar(&cfg.RouteTimeout, "timeout", cfg.RouteTimeout, "Per-request route search limit, 0 for none")
}

func runServe(cmd *cobra.Command, args []string) {
	ctx, cancel := signalContext()
	defer cancel()
	collector := startMetrics(ctx)

	m := loadMap(ctx, args[0])
	h := server.NewHandler(m, logger.Get(), server.Options{
		RouteTimeout: cfg.RouteTimeout,
		Collector:    collector,
	})
	if err := server.Run(ctx, cfg.ListenAddr, h); err != nil {
		exitWithError("server failed", err)
	}
}
