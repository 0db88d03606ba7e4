// Package coordinator provides the simulation host for the shard allocator.
// This file implements the HTTP API.
package coordinator

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dreamware/shardsim/internal/cluster"
	"github.com/dreamware/shardsim/internal/storage"
)

// Server exposes a Simulator over HTTP/JSON.
type Server struct {
	sim      *Simulator
	gatherer prometheus.Gatherer
}

// NewServer creates the HTTP front end of sim. Metrics are served from
// gatherer; pass nil to disable /metrics.
func NewServer(sim *Simulator, gatherer prometheus.Gatherer) *Server {
	return &Server{sim: sim, gatherer: gatherer}
}

// Handler returns the routes of the API.
//
// Routes:
//   - POST   /allocate            run an allocation, returns cluster.SnapshotView
//   - GET    /snapshot?session=   last snapshot of a session
//   - GET    /sessions            session names
//   - DELETE /sessions?session=   forget a session's history
//   - GET    /bounds              shape policy
//   - GET    /health              liveness
//   - GET    /metrics             Prometheus exposition
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/allocate", s.handleAllocate)
	mux.HandleFunc("/snapshot", s.handleSnapshot)
	mux.HandleFunc("/sessions", s.handleSessions)
	mux.HandleFunc("/bounds", s.handleBounds)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if s.gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}

func (s *Server) handleAllocate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req cluster.AllocateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.Session == "" {
		req.Session = DefaultSession
	}

	snap, err := s.sim.Allocate(req.Session, req.Config)
	if err != nil {
		if errors.Is(err, cluster.ErrInvalidConfig) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.Error(
			"Allocation failed",
			slog.String("session", req.Session),
			slog.Any("error", err),
		)
		http.Error(w, "allocation failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, cluster.NewSnapshotView(req.Session, req.Config, snap))
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := sessionParam(r)
	state, err := s.sim.Session(name)
	if errors.Is(err, storage.ErrSessionNotFound) {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, cluster.NewSnapshotView(name, state.Config, state.Snapshot))
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, struct {
			Sessions []string `json:"sessions"`
		}{Sessions: s.sim.Sessions()})
	case http.MethodDelete:
		if err := s.sim.Reset(sessionParam(r)); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleBounds(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.sim.Bounds())
}

func sessionParam(r *http.Request) string {
	if name := r.URL.Query().Get("session"); name != "" {
		return name
	}
	return DefaultSession
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to write response", slog.Any("error", err))
	}
}
