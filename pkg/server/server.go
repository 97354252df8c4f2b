// Package server exposes the enhancement pipeline over HTTP: route
// submission, job lookup, the static network, health, and metrics.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/zen-systems/voltgate/pkg/job"
	"github.com/zen-systems/voltgate/pkg/routing"
)

// Server routes HTTP requests to the job pool and store.
type Server struct {
	pool   *job.Pool
	store  job.Store
	graph  *routing.Graph
	logger zerolog.Logger
	router chi.Router
}

// Options configures a Server.
type Options struct {
	Pool   *job.Pool
	Store  job.Store
	Graph  *routing.Graph
	Logger zerolog.Logger
}

// New builds the server and its route table.
func New(opts Options) *Server {
	s := &Server{
		pool:   opts.Pool,
		store:  opts.Store,
		graph:  opts.Graph,
		logger: opts.Logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Route("/api", func(r chi.Router) {
		r.Post("/routes", s.handleSubmitRoute)
		r.Get("/jobs/{jobID}", s.handleGetJob)
		r.Get("/locations", s.handleLocations)
		r.Get("/health", s.handleHealth)
	})
	r.Handle("/metrics", promhttp.Handler())

	s.router = r
	return s
}

// Handler returns the http handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

type submitRequest struct {
	Origin      string         `json:"origin"`
	Destination string         `json:"destination"`
	Constraints map[string]any `json:"constraints,omitempty"`
}

type submitResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

func (s *Server) handleSubmitRoute(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Origin == "" || req.Destination == "" {
		writeError(w, http.StatusBadRequest, "origin and destination are required")
		return
	}
	if !s.graph.HasNode(req.Origin) {
		writeError(w, http.StatusBadRequest, "unknown origin: "+req.Origin)
		return
	}
	if !s.graph.HasNode(req.Destination) {
		writeError(w, http.StatusBadRequest, "unknown destination: "+req.Destination)
		return
	}

	rec := job.NewRecord(req.Origin, req.Destination, req.Constraints)
	if err := s.pool.Submit(rec); err != nil {
		if errors.Is(err, job.ErrQueueFull) {
			writeError(w, http.StatusServiceUnavailable, "job queue is full, retry later")
			return
		}
		s.logger.Error().Err(err).Msg("failed to submit job")
		writeError(w, http.StatusInternalServerError, "failed to submit job")
		return
	}

	writeJSON(w, http.StatusAccepted, submitResponse{JobID: rec.ID, Status: string(rec.Status)})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "jobID")

	rec, err := s.store.GetJob(r.Context(), id)
	if err == nil {
		writeJSON(w, http.StatusOK, rec)
		return
	}
	if !errors.Is(err, job.ErrNotFound) {
		s.logger.Error().Str("job_id", id).Err(err).Msg("failed to load job")
		writeError(w, http.StatusInternalServerError, "failed to load job")
		return
	}

	// Terminal records live in the store; anything queued or running is
	// only visible through the pool.
	if status, ok := s.pool.Status(id); ok {
		writeJSON(w, http.StatusOK, submitResponse{JobID: id, Status: string(status)})
		return
	}
	writeError(w, http.StatusNotFound, "job not found")
}

type locationsResponse struct {
	Locations        []routing.Location        `json:"locations"`
	ChargingStations []routing.ChargingStation `json:"charging_stations"`
}

func (s *Server) handleLocations(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, locationsResponse{
		Locations:        s.graph.Locations(),
		ChargingStations: s.graph.Stations(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request handled")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
