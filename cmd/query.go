package cmd

import (
	"github.com/golang/geo/r2"

	"github.com/spf13/cobra"
	"github.com/wegman-software/osmgraph-go/internal/config"
)

var searchLimit int

var nearestCmd = &cobra.Command{
	Use:   "nearest <input> <lon,lat>",
	Short: "Print the map point the snap mode picks for a coordinate",
	Args:  cobra.ExactArgs(2),
	Run:   runNearest,
}

var searchCmd = &cobra.Command{
	Use:   "search <input> <prefix>",
	Short: "List named points whose name starts with prefix",
	Long: `Look up point names in the prefix tree built from the "name" tag.

Names are matched case-sensitively and listed in lexical order. When several
points share a name, the last one read wins.`,
	Args: cobra.ExactArgs(2),
	Run:  runSearch,
}

func init() {
	rootCmd.AddCommand(nearestCmd)
	addInputFlags(nearestCmd)

	rootCmd.AddCommand(searchCmd)
	addInputFlags(searchCmd)
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 20, "Maximum number of results, 0 for all")
}

type pointOutput struct {
	Index    uint32   `json:"index"`
	ID       int64    `json:"id"`
	Lon      float64  `json:"lon"`
	Lat      float64  `json:"lat"`
	Name     string   `json:"name,omitempty"`
	Distance *float64 `json:"distance,omitempty"`
}

func runNearest(cmd *cobra.Command, args []string) {
	lon, lat, err := config.ParseLonLat(args[1])
	if err != nil {
		exitWithError("invalid coordinate", err)
	}

	ctx, cancel := signalContext()
	defer cancel()
	m := loadMap(ctx, args[0])

	pos := r2.Point{X: lon, Y: lat}
	idx, err := m.Planner().Snap(pos)
	if err != nil {
		exitWithError("no point near coordinate", err)
	}

	p := m.Points[idx]
	d := pos.Sub(p.Pos).Norm()
	printJSON(pointOutput{Index: idx, ID: p.ID, Lon: p.Pos.X, Lat: p.Pos.Y, Distance: &d})
}

func runSearch(cmd *cobra.Command, args []string) {
	ctx, cancel := signalContext()
	defer cancel()
	m := loadMap(ctx, args[0])

	matches := m.Names.Prefix(args[1], searchLimit)
	out := make([]pointOutput, len(matches))
	for i, match := range matches {
		p := m.Points[match.Index]
		out[i] = pointOutput{Index: match.Index, ID: p.ID, Lon: p.Pos.X, Lat: p.Pos.Y, Name: match.Name}
	}
	printJSON(out)
}
