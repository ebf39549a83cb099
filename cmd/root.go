package cmd

import (
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/wegman-software/osmgraph-go/internal/config"
	"github.com/wegman-software/osmgraph-go/internal/logger"
)

var (
	cfg             = config.DefaultConfig()
	verbose         bool
	logFile         string
	metricsInterval time.Duration
	configFile      string
)

var rootCmd = &cobra.Command{
	Use:   "osmgraph",
	Short: "Route, search and view OpenStreetMap extracts in memory",
	Long: `osmgraph loads an OSM PBF or XML extract into memory and builds:

  - a dense point index and an undirected graph over way segments
  - a uniform grid for snapping coordinates to the nearest point
  - a prefix tree over point names
  - line-strip render buffers for the terminal viewer

Routes are found with breadth-first search or A*. The built map can be
queried from the command line, served over HTTP, exported to PostGIS or
browsed interactively.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configFile != "" {
			if err := loadConfigFile(cmd.Flags(), configFile); err != nil {
				return err
			}
		}
		cfg.Verbose = cfg.Verbose || verbose
		if logFile != "" {
			cfg.LogFile = logFile
		}
		if cmd.Flags().Changed("metrics-interval") {
			cfg.MetricsInterval = metricsInterval
		}

		// Initialize logger with optional file output
		if cfg.LogFile != "" {
			logger.InitWithFile(cfg.Verbose, cfg.LogFile)
		} else {
			logger.Init(cfg.Verbose)
		}

		if cfg.BBoxStr != "" {
			bbox, err := config.ParseBBox(cfg.BBoxStr)
			if err != nil {
				return err
			}
			cfg.BBox = bbox
		}
		return nil
	},
}

func Execute() error {
	defer logger.Sync()
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML configuration file; explicit flags take precedence")
	rootCmd.PersistentFlags().IntVarP(&cfg.Workers, "workers", "j", cfg.Workers, "Number of parallel workers")

	// Logging and metrics flags
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Path to log file for persistent logging (JSON format)")
	rootCmd.PersistentFlags().DurationVar(&metricsInterval, "metrics-interval", 0, "Interval for system metrics logging, 0 disables (e.g., 10s, 1m)")
}

// loadConfigFile overlays the YAML file onto cfg, then re-applies flags the
// user set explicitly
func loadConfigFile(flags *pflag.FlagSet, path string) error {
	changed := map[*pflag.Flag]string{}
	flags.Visit(func(f *pflag.Flag) {
		changed[f] = f.Value.String()
	})

	if err := cfg.LoadFile(path); err != nil {
		return err
	}
	for f, v := range changed {
		if err := f.Value.Set(v); err != nil {
			return err
		}
	}
	return nil
}

func exitWithError(msg string, err error) {
	log := logger.Get()
	if err != nil {
		log.Error(msg, zap.Error(err))
	} else {
		log.Error(msg)
	}
	logger.Sync()
	os.Exit(1)
}
