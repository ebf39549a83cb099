package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang/geo/r2"
	"go.uber.org/zap"

	"github.com/wegman-software/osmgraph-go/internal/config"
	"github.com/wegman-software/osmgraph-go/internal/ingest"
	"github.com/wegman-software/osmgraph-go/internal/metrics"
	"github.com/wegman-software/osmgraph-go/internal/route"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 100
)

type pointResponse struct {
	Index uint32  `json:"index"`
	ID    int64   `json:"id"`
	Lon   float64 `json:"lon"`
	Lat   float64 `json:"lat"`
}

type nearestResponse struct {
	pointResponse
	Distance float64 `json:"distance"`
}

type searchResult struct {
	Name string `json:"name"`
	pointResponse
}

type statsResponse struct {
	Points  int                    `json:"points"`
	Ways    int                    `json:"ways"`
	Edges   int                    `json:"edges"`
	Names   int                    `json:"names"`
	Cells   int                    `json:"cells"`
	Bounds  *[4]float64            `json:"bounds,omitempty"` // minlon, minlat, maxlon, maxlat
	Ingest  ingest.Stats           `json:"ingest"`
	Metrics *metrics.SystemMetrics `json:"metrics,omitempty"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	resp := statsResponse{
		Points: len(h.m.Points),
		Ways:   len(h.m.Ways),
		Edges:  h.m.Graph.EdgeCount(),
		Names:  h.m.Names.Len(),
		Cells:  h.m.Grid.Cells(),
		Ingest: h.m.Stats,
	}
	if !h.m.Empty() {
		lo, hi := h.m.Bounds.Lo(), h.m.Bounds.Hi()
		resp.Bounds = &[4]float64{lo.X, lo.Y, hi.X, hi.Y}
	}
	if h.collector != nil {
		resp.Metrics = h.collector.GetMetrics()
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) point(idx uint32) pointResponse {
	p := h.m.Points[idx]
	return pointResponse{Index: idx, ID: p.ID, Lon: p.Pos.X, Lat: p.Pos.Y}
}

func (h *Handler) handleNearest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lon, errLon := strconv.ParseFloat(q.Get("lon"), 64)
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	if errLon != nil || errLat != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "lon and lat must be numbers")
		return
	}

	pos := r2.Point{X: lon, Y: lat}
	idx, err := h.planner.Snap(pos)
	if err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, "no_point", err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, nearestResponse{
		pointResponse: h.point(idx),
		Distance:      pos.Sub(h.m.Positions[idx]).Norm(),
	})
}

func parsePosition(s string) (r2.Point, error) {
	lon, lat, err := config.ParseLonLat(s)
	if err != nil {
		return r2.Point{}, err
	}
	return r2.Point{X: lon, Y: lat}, nil
}

func (h *Handler) handleRoute(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := parsePosition(q.Get("from"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", fmt.Sprintf("from: %v", err))
		return
	}
	to, err := parsePosition(q.Get("to"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", fmt.Sprintf("to: %v", err))
		return
	}
	algo := strings.ToLower(q.Get("algo"))
	if algo == "" {
		algo = config.AlgoAStar
	}
	if algo != config.AlgoAStar && algo != config.AlgoBFS {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "algo must be astar or bfs")
		return
	}

	ctx := r.Context()
	if h.routeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.routeTimeout)
		defer cancel()
	}

	res, err := h.planner.Route(ctx, from, to, algo)
	switch {
	case errors.Is(err, route.ErrNoSnap):
		h.writeError(w, http.StatusUnprocessableEntity, "no_point", err.Error())
		return
	case errors.Is(err, route.ErrCancelled):
		h.writeError(w, http.StatusGatewayTimeout, "cancelled", err.Error())
		return
	case err != nil:
		h.log.Error("Route failed", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "route_failed", err.Error())
		return
	case res.Path == nil:
		h.writeError(w, http.StatusNotFound, "unreachable",
			fmt.Sprintf("no route from point %d to point %d", res.From, res.To))
		return
	}

	f := route.Feature(res.Path, h.m.Positions)
	f.Properties["algo"] = algo
	h.writeJSON(w, http.StatusOK, f)
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	prefix := q.Get("q")
	if prefix == "" {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "q is required")
		return
	}

	limit := defaultSearchLimit
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			h.writeError(w, http.StatusBadRequest, "validation_failed", "limit must be a positive integer")
			return
		}
		limit = min(n, maxSearchLimit)
	}

	matches := h.m.Names.Prefix(prefix, limit)
	results := make([]searchResult, len(matches))
	for i, m := range matches {
		results[i] = searchResult{Name: m.Name, pointResponse: h.point(m.Index)}
	}
	h.writeJSON(w, http.StatusOK, results)
}
