// Package loader exports a built map into PostGIS tables.
package loader

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wegman-software/osmgraph-go/internal/config"
	"github.com/wegman-software/osmgraph-go/internal/logger"
	"github.com/wegman-software/osmgraph-go/internal/mapdata"
	"github.com/wegman-software/osmgraph-go/internal/wkb"
)

// Table names
const (
	WaysTable  = "graph_ways"
	NamesTable = "graph_names"
)

// Stats holds loader statistics
type Stats struct {
	WaysLoaded  int64
	NamesLoaded int64
}

// Loader writes ways and named points with COPY
type Loader struct {
	cfg           *config.Config
	pool          *pgxpool.Pool
	dropExisting  bool
	createIndexes bool
}

// NewLoader connects to PostgreSQL
func NewLoader(ctx context.Context, cfg *config.Config, dropExisting, createIndexes bool) (*Loader, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	poolConfig.MaxConns = int32(max(cfg.Workers, 2))

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	return &Loader{
		cfg:           cfg,
		pool:          pool,
		dropExisting:  dropExisting,
		createIndexes: createIndexes,
	}, nil
}

// Close closes connections
func (l *Loader) Close() error {
	l.pool.Close()
	return nil
}

// Export loads both tables in parallel, then indexes them
func (l *Loader) Export(ctx context.Context, m *mapdata.Map) (*Stats, error) {
	log := logger.Get()
	stats := &Stats{}

	if _, err := l.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS postgis"); err != nil {
		return nil, fmt.Errorf("failed to create PostGIS extension: %w", err)
	}
	if l.cfg.DBSchema != "public" {
		if _, err := l.pool.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+pgx.Identifier{l.cfg.DBSchema}.Sanitize()); err != nil {
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	wayRows, err := WayRows(m)
	if err != nil {
		return nil, err
	}
	nameRows, err := NameRows(m)
	if err != nil {
		return nil, err
	}

	tables := []struct {
		spec  tableSpec
		rows  [][]any
		count *int64
	}{
		{waysSpec, wayRows, &stats.WaysLoaded},
		{namesSpec, nameRows, &stats.NamesLoaded},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range tables {
		t := t
		g.Go(func() error {
			log.Info("Loading table", zap.String("table", t.spec.name), zap.Int("rows", len(t.rows)))
			n, err := l.loadTable(gctx, t.spec, t.rows)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", t.spec.name, err)
			}
			*t.count = n
			log.Info("Table loaded", zap.String("table", t.spec.name), zap.Int64("rows", n))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if l.createIndexes {
		g, gctx := errgroup.WithContext(ctx)
		for _, spec := range []tableSpec{waysSpec, namesSpec} {
			spec := spec
			g.Go(func() error {
				return l.createIndexesFor(gctx, spec)
			})
		}
		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("failed to create indexes: %w", err)
		}
		log.Info("All indexes created")
	}

	return stats, nil
}

func (l *Loader) loadTable(ctx context.Context, spec tableSpec, rows [][]any) (int64, error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	table := qualified(l.cfg.DBSchema, spec.name)
	if l.dropExisting {
		if _, err := conn.Exec(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
			return 0, fmt.Errorf("failed to drop table: %w", err)
		}
	}
	if _, err := conn.Exec(ctx, spec.createSQL(table)); err != nil {
		return 0, fmt.Errorf("failed to create table: %w", err)
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "TRUNCATE "+table); err != nil {
		return 0, fmt.Errorf("failed to truncate: %w", err)
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{l.cfg.DBSchema, spec.name}, spec.columns,
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			return rows[i], nil
		}))
	if err != nil {
		return 0, fmt.Errorf("COPY failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return n, nil
}

func (l *Loader) createIndexesFor(ctx context.Context, spec tableSpec) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	table := qualified(l.cfg.DBSchema, spec.name)
	for _, stmt := range spec.indexSQL(table) {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// WayRows encodes every way as (way_id, node_count, tags, geom)
func WayRows(m *mapdata.Map) ([][]any, error) {
	enc := wkb.NewEncoder(wkb.SRID4326)
	rows := make([][]any, 0, len(m.Ways))
	for _, w := range m.Ways {
		geom, err := enc.LineString(w.Nodes, m.Positions)
		if err != nil {
			return nil, fmt.Errorf("way %d: %w", w.ID, err)
		}
		tags, err := tagsJSON(w.Tags)
		if err != nil {
			return nil, fmt.Errorf("way %d: %w", w.ID, err)
		}
		rows = append(rows, []any{w.ID, int32(len(w.Nodes)), tags, geom})
	}
	return rows, nil
}

// NameRows encodes every indexed name as (point_index, osm_id, name, geom)
func NameRows(m *mapdata.Map) ([][]any, error) {
	enc := wkb.NewEncoder(wkb.SRID4326)
	matches := m.Names.Prefix("", 0)
	rows := make([][]any, 0, len(matches))
	for _, match := range matches {
		geom, err := enc.Point(m.Positions[match.Index])
		if err != nil {
			return nil, fmt.Errorf("name %q: %w", match.Name, err)
		}
		rows = append(rows, []any{int64(match.Index), m.Points[match.Index].ID, match.Name, geom})
	}
	return rows, nil
}

func tagsJSON(tags map[string]string) (string, error) {
	if len(tags) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
