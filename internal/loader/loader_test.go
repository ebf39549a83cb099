package loader

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/ewkb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wegman-software/osmgraph-go/internal/ingest"
	"github.com/wegman-software/osmgraph-go/internal/mapdata"
	"github.com/wegman-software/osmgraph-go/internal/source"
)

func buildMap(t *testing.T) *mapdata.Map {
	t.Helper()
	ds, err := ingest.Consume(source.FromElements(
		source.P(100, 0, 0, map[string]string{"name": "Main Street"}),
		source.P(200, 1, 0, nil),
		source.P(300, 1, 1, map[string]string{"name": "Harbour"}),
		source.Element{Way: &source.Way{ID: 7, Refs: []int64{100, 200, 300}, Tags: map[string]string{"highway": "residential"}}},
	), ingest.Options{})
	require.NoError(t, err)

	m, err := mapdata.Build(context.Background(), ds, mapdata.Options{CellSize: 1})
	require.NoError(t, err)
	return m
}

func TestWayRows(t *testing.T) {
	rows, err := WayRows(buildMap(t))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	require.Len(t, row, len(waysSpec.columns))
	assert.Equal(t, int64(7), row[0])
	assert.Equal(t, int32(3), row[1])

	var tags map[string]string
	require.NoError(t, json.Unmarshal([]byte(row[2].(string)), &tags))
	assert.Equal(t, "residential", tags["highway"])

	geom, srid, err := ewkb.Unmarshal(row[3].([]byte))
	require.NoError(t, err)
	assert.Equal(t, 4326, srid)
	assert.Equal(t, orb.LineString{{0, 0}, {1, 0}, {1, 1}}, geom)
}

func TestNameRows(t *testing.T) {
	rows, err := NameRows(buildMap(t))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// lexicographic by name
	assert.Equal(t, []any{int64(2), int64(300), "Harbour"}, rows[0][:3])
	assert.Equal(t, []any{int64(0), int64(100), "Main Street"}, rows[1][:3])

	geom, _, err := ewkb.Unmarshal(rows[1][3].([]byte))
	require.NoError(t, err)
	assert.Equal(t, orb.Point{0, 0}, geom)
}

func TestTagsJSON(t *testing.T) {
	s, err := tagsJSON(nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", s)

	s, err = tagsJSON(map[string]string{"a": "b"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"b"}`, s)
}

func TestSchemaSQL(t *testing.T) {
	table := qualified("osm", WaysTable)
	assert.Equal(t, `"osm"."graph_ways"`, table)

	create := waysSpec.createSQL(table)
	assert.Contains(t, create, `CREATE TABLE IF NOT EXISTS "osm"."graph_ways"`)
	assert.Contains(t, create, "GEOMETRY(LineString, 4326)")

	stmts := namesSpec.indexSQL(qualified("public", NamesTable))
	assert.Equal(t, []string{
		`CREATE INDEX IF NOT EXISTS "graph_names_geom_idx" ON "public"."graph_names" USING GIST (geom)`,
		`CREATE INDEX IF NOT EXISTS "graph_names_name_idx" ON "public"."graph_names" (name)`,
		`ANALYZE "public"."graph_names"`,
	}, stmts)
}
