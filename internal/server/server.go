// Package server exposes nearest-point, routing and name queries over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/wegman-software/osmgraph-go/internal/mapdata"
	"github.com/wegman-software/osmgraph-go/internal/metrics"
	"github.com/wegman-software/osmgraph-go/internal/route"
)

// Handler serves queries against one built map
type Handler struct {
	m            *mapdata.Map
	planner      *route.Planner
	log          *zap.Logger
	routeTimeout time.Duration
	collector    *metrics.Collector
}

// Options configures a Handler
type Options struct {
	RouteTimeout time.Duration
	Collector    *metrics.Collector // optional, reported by /stats
}

// NewHandler creates a handler over m
func NewHandler(m *mapdata.Map, log *zap.Logger, opts Options) *Handler {
	return &Handler{
		m:            m,
		planner:      m.Planner(),
		log:          log,
		routeTimeout: opts.RouteTimeout,
		collector:    opts.Collector,
	}
}

// Router returns the HTTP routes
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.requestLogger)

	r.Get("/healthz", h.handleHealth)
	r.Get("/stats", h.handleStats)
	r.Get("/nearest", h.handleNearest)
	r.Get("/route", h.handleRoute)
	r.Get("/search", h.handleSearch)
	return r
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.log.Debug("Request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func Run(ctx context.Context, addr string, h *Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		h.log.Info("HTTP server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Warn("Failed to write response", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string) {
	h.writeJSON(w, status, errorResponse{Code: code, Message: message})
}
