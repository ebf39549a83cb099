package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBBox(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    *BBox
		wantErr bool
	}{
		{name: "empty", input: "", want: &BBox{}},
		{
			name:  "monaco",
			input: "7.409, 43.724, 7.440, 43.752",
			want:  &BBox{MinLon: 7.409, MinLat: 43.724, MaxLon: 7.440, MaxLat: 43.752, IsSet: true},
		},
		{name: "too few values", input: "1,2,3", wantErr: true},
		{name: "not a number", input: "a,2,3,4", wantErr: true},
		{name: "inverted lon", input: "5,0,4,1", wantErr: true},
		{name: "inverted lat", input: "0,5,1,4", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBBox(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBBoxContains(t *testing.T) {
	var unset *BBox
	assert.True(t, unset.Contains(10, 10))

	b := &BBox{MinLon: 0, MinLat: 0, MaxLon: 1, MaxLat: 1, IsSet: true}
	assert.True(t, b.Contains(0.5, 0.5))
	assert.False(t, b.Contains(1.5, 0.5))
}

func TestParseLonLat(t *testing.T) {
	lon, lat, err := ParseLonLat("7.42, 43.73")
	require.NoError(t, err)
	assert.Equal(t, 7.42, lon)
	assert.Equal(t, 43.73, lat)

	_, _, err = ParseLonLat("7.42")
	assert.Error(t, err)
	_, _, err = ParseLonLat("x,1")
	assert.Error(t, err)
}

func TestLoadFileOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "osmgraph.yaml")
	data := `
input: monaco.osm.pbf
cell_size: 0.005
snap_mode: rtree
route_timeout: 5s
bbox: "7.4,43.7,7.5,43.8"
camera:
  inertia: true
  decay: 0.5
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFile(path))

	assert.Equal(t, "monaco.osm.pbf", cfg.InputFile)
	assert.Equal(t, 0.005, cfg.CellSize)
	assert.Equal(t, SnapRTree, cfg.SnapMode)
	assert.Equal(t, 5*time.Second, cfg.RouteTimeout)
	assert.True(t, cfg.Camera.Inertia)
	assert.Equal(t, 0.5, cfg.Camera.Decay)
	// untouched keys keep their defaults
	assert.Equal(t, 0.1, cfg.Camera.Sensitivity)
	assert.Equal(t, AlgoAStar, cfg.Algorithm)
	require.NotNil(t, cfg.BBox)
	assert.True(t, cfg.BBox.IsSet)
	assert.Equal(t, 7.4, cfg.BBox.MinLon)

	require.NoError(t, cfg.Validate())
}

func TestLoadFileMissing(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.LoadFile(filepath.Join(t.TempDir(), "nope.yaml")))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing input", func(c *Config) { c.InputFile = "" }},
		{"bad format", func(c *Config) { c.Format = "shp" }},
		{"no workers", func(c *Config) { c.Workers = 0 }},
		{"zero cell size", func(c *Config) { c.CellSize = 0 }},
		{"negative cell size", func(c *Config) { c.CellSize = -1 }},
		{"bad snap mode", func(c *Config) { c.SnapMode = "kd" }},
		{"negative rings", func(c *Config) { c.SnapMode = SnapRing; c.SnapRings = -1 }},
		{"bad algorithm", func(c *Config) { c.Algorithm = "dijkstra" }},
		{"bad projection", func(c *Config) { c.Projection = 27700 }},
		{"decay too large", func(c *Config) { c.Camera.Decay = 1 }},
		{"no sensitivity", func(c *Config) { c.Camera.Sensitivity = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.InputFile = "in.osm.pbf"
			require.NoError(t, cfg.Validate())
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConnectionString(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "host=localhost port=5432 dbname=osm user=postgres sslmode=disable", cfg.ConnectionString())
	cfg.DBPassword = "secret"
	assert.Contains(t, cfg.ConnectionString(), "password=secret")
}
