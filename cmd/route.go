package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/golang/geo/r2"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"github.com/spf13/cobra"
	"github.com/wegman-software/osmgraph-go/internal/config"
	"github.com/wegman-software/osmgraph-go/internal/logger"
	"github.com/wegman-software/osmgraph-go/internal/route"
)

var queriesFile string

var routeCmd = &cobra.Command{
	Use:   "route <input> [<from lon,lat> <to lon,lat>]",
	Short: "Find a route between two coordinates",
	Long: `Snap both coordinates to the nearest map point and search for a path.

The route is printed as a GeoJSON LineString feature with the point indices,
the Euclidean cost and the hop count as properties.

With --queries, each line of the file holds "lon,lat lon,lat" and the routes
are computed in parallel (-j) and printed as one FeatureCollection in input
order. Blank lines and lines starting with # are ignored.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if queriesFile != "" {
			return cobra.ExactArgs(1)(cmd, args)
		}
		return cobra.ExactArgs(3)(cmd, args)
	},
	Run: runRoute,
}

func init() {
	rootCmd.AddCommand(routeCmd)
	addInputFlags(routeCmd)

	routeCmd.Flags().StringVarP(&cfg.Algorithm, "algo", "a", cfg.Algorithm, "Search algorithm: astar or bfs")
	routeCmd.Flags().DurationVar(&cfg.RouteTimeout, "timeout", cfg.RouteTimeout, "Give up on a search after this long, 0 for no limit")
	routeCmd.Flags().StringVarP(&queriesFile, "queries", "q", "", "File of route queries to run as a batch")
}

func runRoute(cmd *cobra.Command, args []string) {
	ctx, cancel := signalContext()
	defer cancel()
	startMetrics(ctx)
	log := logger.Get()

	var queries []route.Query
	if queriesFile != "" {
		var err error
		if queries, err = readQueries(queriesFile, cfg.Algorithm); err != nil {
			exitWithError("failed to read queries", err)
		}
	} else {
		q, err := parseQuery(args[1], args[2], cfg.Algorithm)
		if err != nil {
			exitWithError("invalid coordinates", err)
		}
		queries = []route.Query{q}
	}

	m := loadMap(ctx, args[0])
	planner := m.Planner()

	if cfg.RouteTimeout > 0 {
		var timeoutCancel context.CancelFunc
		ctx, timeoutCancel = context.WithTimeout(ctx, cfg.RouteTimeout)
		defer timeoutCancel()
	}

	results, err := planner.RouteMany(ctx, queries, cfg.Workers)
	if err != nil && !errors.Is(err, route.ErrCancelled) {
		exitWithError("routing failed", err)
	}

	fc := geojson.NewFeatureCollection()
	failed := 0
	for i, res := range results {
		switch {
		case res.Err != nil:
			failed++
			log.Warn("Query failed", zap.Int("query", i), zap.Error(res.Err))
		case res.Path == nil:
			failed++
			log.Warn("Destination unreachable",
				zap.Int("query", i), zap.Uint32("from", res.From), zap.Uint32("to", res.To))
		default:
			f := route.Feature(res.Path, m.Positions)
			f.Properties["query"] = i
			f.Properties["algo"] = queries[i].Algo
			fc.Append(f)
		}
	}

	if queriesFile == "" {
		if len(fc.Features) == 0 {
			exitWithError("no route found", results[0].Err)
		}
		printJSON(fc.Features[0])
		return
	}
	printJSON(fc)
	if failed > 0 {
		log.Warn("Some queries produced no route", zap.Int("failed", failed), zap.Int("total", len(queries)))
	}
}

func parseQuery(from, to, algo string) (route.Query, error) {
	flon, flat, err := config.ParseLonLat(from)
	if err != nil {
		return route.Query{}, fmt.Errorf("from: %w", err)
	}
	tlon, tlat, err := config.ParseLonLat(to)
	if err != nil {
		return route.Query{}, fmt.Errorf("to: %w", err)
	}
	return route.Query{
		From: r2.Point{X: flon, Y: flat},
		To:   r2.Point{X: tlon, Y: tlat},
		Algo: algo,
	}, nil
}

func readQueries(path, algo string) ([]route.Query, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var queries []route.Query
	sc := bufio.NewScanner(f)
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: expected \"lon,lat lon,lat\"", line)
		}
		q, err := parseQuery(fields[0], fields[1], algo)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		queries = append(queries, q)
	}
	return queries, sc.Err()
}
