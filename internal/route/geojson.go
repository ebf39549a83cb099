package route

import (
	"github.com/golang/geo/r2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Feature converts a path to a GeoJSON LineString feature with the node
// indices and cost as properties
func Feature(path *Path, pos []r2.Point) *geojson.Feature {
	line := make(orb.LineString, len(path.Nodes))
	for i, n := range path.Nodes {
		line[i] = orb.Point{pos[n].X, pos[n].Y}
	}

	f := geojson.NewFeature(line)
	f.Properties["nodes"] = path.Nodes
	f.Properties["cost"] = path.Cost
	f.Properties["hops"] = path.Len()
	return f
}
