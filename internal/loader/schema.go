package loader

import (
	"fmt"

	"github.com/jackc/pgx/v5"
)

type tableSpec struct {
	name    string
	columns []string
	ddl     string
	geomIdx bool
	keyCol  string
}

var (
	waysSpec = tableSpec{
		name:    WaysTable,
		columns: []string{"way_id", "node_count", "tags", "geom"},
		ddl: `way_id BIGINT NOT NULL,
			node_count INTEGER NOT NULL,
			tags JSONB,
			geom GEOMETRY(LineString, 4326)`,
		geomIdx: true,
		keyCol:  "way_id",
	}

	namesSpec = tableSpec{
		name:    NamesTable,
		columns: []string{"point_index", "osm_id", "name", "geom"},
		ddl: `point_index BIGINT NOT NULL,
			osm_id BIGINT NOT NULL,
			name TEXT NOT NULL,
			geom GEOMETRY(Point, 4326)`,
		geomIdx: true,
		keyCol:  "name",
	}
)

func qualified(schema, table string) string {
	return pgx.Identifier{schema, table}.Sanitize()
}

func (s tableSpec) createSQL(table string) string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t\t\t%s\n\t\t)", table, s.ddl)
}

func (s tableSpec) indexSQL(table string) []string {
	var stmts []string
	if s.geomIdx {
		stmts = append(stmts, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s USING GIST (geom)",
			pgx.Identifier{s.name + "_geom_idx"}.Sanitize(), table))
	}
	if s.keyCol != "" {
		stmts = append(stmts, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
			pgx.Identifier{s.name + "_" + s.keyCol + "_idx"}.Sanitize(), table, s.keyCol))
	}
	return append(stmts, "ANALYZE "+table)
}
