package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wegman-software/osmgraph-go/internal/ingest"
	"github.com/wegman-software/osmgraph-go/internal/mapdata"
	"github.com/wegman-software/osmgraph-go/internal/source"
)

// two components: the unit square way, and an isolated way far east
func testHandler(t *testing.T, opts Options) *Handler {
	t.Helper()
	ds, err := ingest.Consume(source.FromElements(
		source.P(1, 0, 0, map[string]string{"name": "Main Street"}),
		source.P(2, 1, 0, nil),
		source.P(3, 1, 1, map[string]string{"name": "Market Square"}),
		source.P(4, 0, 1, nil),
		source.P(5, 5, 0, nil),
		source.P(6, 5, 1, nil),
		source.P(7, 6, 1, nil),
		source.W(10, 1, 2, 3, 4),
		source.W(11, 5, 6, 7),
	), ingest.Options{})
	require.NoError(t, err)

	m, err := mapdata.Build(context.Background(), ds, mapdata.Options{CellSize: 1})
	require.NoError(t, err)
	return NewHandler(m, zap.NewNop(), opts)
}

func get(t *testing.T, h http.Handler, url string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	return rec
}

func TestHealthAndStats(t *testing.T) {
	r := testHandler(t, Options{}).Router()

	rec := get(t, r, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = get(t, r, "/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats statsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 7, stats.Points)
	assert.Equal(t, 2, stats.Ways)
	assert.Equal(t, 5, stats.Edges)
	assert.Equal(t, 2, stats.Names)
	require.NotNil(t, stats.Bounds)
	assert.Equal(t, [4]float64{0, 0, 6, 1}, *stats.Bounds)
	assert.Nil(t, stats.Metrics)
}

func TestNearest(t *testing.T) {
	r := testHandler(t, Options{}).Router()

	rec := get(t, r, "/nearest?lon=1.1&lat=0.2")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp nearestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, uint32(1), resp.Index)
	assert.Equal(t, int64(2), resp.ID)
	assert.InDelta(t, 0.2236, resp.Distance, 1e-4)

	assert.Equal(t, http.StatusUnprocessableEntity, get(t, r, "/nearest?lon=20&lat=20").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, r, "/nearest?lon=x&lat=1").Code)
}

func TestRoute(t *testing.T) {
	r := testHandler(t, Options{RouteTimeout: time.Minute}).Router()

	rec := get(t, r, "/route?from=0.1,0.1&to=1.2,1.2")
	require.Equal(t, http.StatusOK, rec.Code)
	var feature struct {
		Type     string `json:"type"`
		Geometry struct {
			Type        string      `json:"type"`
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			Nodes []uint32 `json:"nodes"`
			Cost  float64  `json:"cost"`
			Algo  string   `json:"algo"`
		} `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &feature))
	assert.Equal(t, "Feature", feature.Type)
	assert.Equal(t, "LineString", feature.Geometry.Type)
	assert.Equal(t, []uint32{0, 1, 2}, feature.Properties.Nodes)
	assert.InDelta(t, 2.0, feature.Properties.Cost, 1e-12)
	assert.Equal(t, "astar", feature.Properties.Algo)

	rec = get(t, r, "/route?from=0.1,0.1&to=0.1,1.1&algo=bfs")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &feature))
	assert.Equal(t, []uint32{0, 1, 2, 3}, feature.Properties.Nodes)
}

func TestRouteErrors(t *testing.T) {
	r := testHandler(t, Options{}).Router()

	tests := []struct {
		name string
		url  string
		code int
	}{
		{"unreachable", "/route?from=0.1,0.1&to=5.1,0.1", http.StatusNotFound},
		{"no snap", "/route?from=0.1,0.1&to=30,30", http.StatusUnprocessableEntity},
		{"bad from", "/route?from=abc&to=1,1", http.StatusBadRequest},
		{"missing to", "/route?from=0,0", http.StatusBadRequest},
		{"bad algo", "/route?from=0,0&to=1,1&algo=dijkstra", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, r, tt.url)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
			var e errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
			assert.NotEmpty(t, e.Code)
		})
	}
}

func TestRouteTimeout(t *testing.T) {
	r := testHandler(t, Options{RouteTimeout: time.Nanosecond}).Router()

	rec := get(t, r, "/route?from=0.1,0.1&to=1.2,1.2")
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestSearch(t *testing.T) {
	r := testHandler(t, Options{}).Router()

	rec := get(t, r, "/search?q=Ma")
	require.Equal(t, http.StatusOK, rec.Code)
	var results []searchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 2)
	assert.Equal(t, "Main Street", results[0].Name)
	assert.Equal(t, uint32(0), results[0].Index)
	assert.Equal(t, "Market Square", results[1].Name)
	assert.Equal(t, 1.0, results[1].Lon)

	rec = get(t, r, "/search?q=Ma&limit=1")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	assert.Len(t, results, 1)

	assert.Equal(t, http.StatusBadRequest, get(t, r, "/search").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, r, "/search?q=M&limit=0").Code)
	assert.Equal(t, "[]\n", get(t, r, "/search?q=Zed").Body.String())
}

func TestRunShutsDown(t *testing.T) {
	h := testHandler(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- Run(ctx, "127.0.0.1:0", h) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
