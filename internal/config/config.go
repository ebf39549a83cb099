package config

import (
	"fmt"
	"math"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Snap modes for resolving a coordinate to a graph point
const (
	SnapCell  = "cell"  // single grid cell (default)
	SnapRing  = "ring"  // grid cell plus surrounding rings
	SnapRTree = "rtree" // exact nearest via R-tree
)

// Routing algorithms
const (
	AlgoAStar = "astar"
	AlgoBFS   = "bfs"
)

// BBox represents a geographic bounding box
type BBox struct {
	MinLon, MinLat, MaxLon, MaxLat float64
	IsSet                          bool
}

// Contains checks if a point is within the bounding box
func (b *BBox) Contains(lat, lon float64) bool {
	if b == nil || !b.IsSet {
		return true
	}
	return lon >= b.MinLon && lon <= b.MaxLon && lat >= b.MinLat && lat <= b.MaxLat
}

// ParseBBox parses a bbox string in format "minlon,minlat,maxlon,maxlat"
func ParseBBox(s string) (*BBox, error) {
	if s == "" {
		return &BBox{IsSet: false}, nil
	}

	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("bbox must have 4 values: minlon,minlat,maxlon,maxlat")
	}

	var coords [4]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid bbox coordinate %q: %w", p, err)
		}
		coords[i] = v
	}

	bbox := &BBox{
		MinLon: coords[0],
		MinLat: coords[1],
		MaxLon: coords[2],
		MaxLat: coords[3],
		IsSet:  true,
	}

	if bbox.MinLon > bbox.MaxLon {
		return nil, fmt.Errorf("minlon (%f) must be <= maxlon (%f)", bbox.MinLon, bbox.MaxLon)
	}
	if bbox.MinLat > bbox.MaxLat {
		return nil, fmt.Errorf("minlat (%f) must be <= maxlat (%f)", bbox.MinLat, bbox.MaxLat)
	}

	return bbox, nil
}

// ParseLonLat parses a "lon,lat" pair
func ParseLonLat(s string) (lon, lat float64, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("coordinate must be lon,lat: %q", s)
	}
	lon, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid longitude %q: %w", parts[0], err)
	}
	lat, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid latitude %q: %w", parts[1], err)
	}
	return lon, lat, nil
}

// CameraConfig controls the interactive view camera
type CameraConfig struct {
	Sensitivity float64 `yaml:"sensitivity"` // zoom change per scroll unit
	Inertia     bool    `yaml:"inertia"`     // smooth zoom with a decaying velocity
	Decay       float64 `yaml:"decay"`       // per-tick velocity multiplier, must be < 1
}

// Config holds the global configuration
type Config struct {
	// Input settings
	InputFile string `yaml:"input"`
	Format    string `yaml:"format"` // auto, pbf or xml
	BBox      *BBox  `yaml:"-"`
	BBoxStr   string `yaml:"bbox"`

	// Filtering
	StyleFile    string `yaml:"style"`         // YAML tag filter for ways
	FilterScript string `yaml:"filter_script"` // Lua keep_way/keep_point script

	// Index and routing settings
	Projection   int           `yaml:"projection"` // render SRID (4326 or 3857)
	CellSize     float64       `yaml:"cell_size"`  // grid cell size in degrees
	SnapMode     string        `yaml:"snap_mode"`
	SnapRings    int           `yaml:"snap_rings"`
	Algorithm    string        `yaml:"algorithm"`
	RouteTimeout time.Duration `yaml:"route_timeout"`

	// Output settings
	SnapshotDir string `yaml:"snapshot_dir"`

	// Database settings
	DBHost     string `yaml:"db_host"`
	DBPort     int    `yaml:"db_port"`
	DBName     string `yaml:"db_name"`
	DBUser     string `yaml:"db_user"`
	DBPassword string `yaml:"db_password"`
	DBSchema   string `yaml:"db_schema"`

	// Service settings
	ListenAddr string `yaml:"listen"`

	Camera CameraConfig `yaml:"camera"`

	// Processing settings
	Workers  int  `yaml:"workers"`
	Progress bool `yaml:"progress"`

	// Logging and metrics
	Verbose         bool          `yaml:"verbose"`
	LogFile         string        `yaml:"log_file"`
	MetricsInterval time.Duration `yaml:"metrics_interval"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Format:       "auto",
		Projection:   4326,
		CellSize:     0.01, // ~1.1km at the equator
		SnapMode:     SnapCell,
		SnapRings:    1,
		Algorithm:    AlgoAStar,
		RouteTimeout: 30 * time.Second,
		DBHost:       "localhost",
		DBPort:       5432,
		DBName:       "osm",
		DBUser:       "postgres",
		DBSchema:     "public",
		ListenAddr:   ":8080",
		Camera: CameraConfig{
			Sensitivity: 0.1,
			Inertia:     false,
			Decay:       0.85,
		},
		Workers:         runtime.NumCPU(),
		MetricsInterval: 0,
	}
}

// LoadFile overlays a YAML configuration file onto the receiver.
// Keys absent from the file keep their current values.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config YAML: %w", err)
	}
	if c.BBoxStr != "" {
		bbox, err := ParseBBox(c.BBoxStr)
		if err != nil {
			return err
		}
		c.BBox = bbox
	}
	return nil
}

// ConnectionString returns a PostgreSQL connection string
func (c *Config) ConnectionString() string {
	connStr := fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBName, c.DBUser,
	)
	if c.DBPassword != "" {
		connStr += fmt.Sprintf(" password=%s", c.DBPassword)
	}
	return connStr
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.InputFile == "" {
		return fmt.Errorf("input file is required")
	}
	switch c.Format {
	case "", "auto", "pbf", "xml":
	default:
		return fmt.Errorf("unsupported input format: %s (supported: auto, pbf, xml)", c.Format)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	if !(c.CellSize > 0) || math.IsInf(c.CellSize, 0) {
		return fmt.Errorf("cell size must be positive, got %v", c.CellSize)
	}
	switch c.SnapMode {
	case SnapCell, SnapRTree:
	case SnapRing:
		if c.SnapRings < 0 {
			return fmt.Errorf("snap rings must not be negative")
		}
	default:
		return fmt.Errorf("unsupported snap mode: %s (supported: cell, ring, rtree)", c.SnapMode)
	}
	if c.Algorithm != AlgoAStar && c.Algorithm != AlgoBFS {
		return fmt.Errorf("unsupported algorithm: %s (supported: astar, bfs)", c.Algorithm)
	}
	if c.Projection != 4326 && c.Projection != 3857 {
		return fmt.Errorf("unsupported projection: %d (supported: 4326, 3857)", c.Projection)
	}
	if c.Camera.Sensitivity <= 0 {
		return fmt.Errorf("camera sensitivity must be positive")
	}
	if c.Camera.Decay <= 0 || c.Camera.Decay >= 1 {
		return fmt.Errorf("camera decay must be in (0, 1), got %v", c.Camera.Decay)
	}
	return nil
}
