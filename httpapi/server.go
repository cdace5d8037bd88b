// Package httpapi exposes a read-only operational HTTP surface for the
// scheduler: queue statistics, per-channel resource state, a health probe
// and Prometheus metrics. It owns no mutation endpoints; submission and
// cancellation stay in-process.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sgerami52009-hash/wizardai/scheduler"
	"github.com/sgerami52009-hash/wizardai/telemetry"
)

// Server serves the operational endpoints.
type Server struct {
	controller *scheduler.AdmissionController
	monitor    *telemetry.Monitor
	logger     *slog.Logger
	router     *mux.Router
}

// NewServer wires the routes. A nil logger falls back to slog.Default().
func NewServer(controller *scheduler.AdmissionController, monitor *telemetry.Monitor, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		controller: controller,
		monitor:    monitor,
		logger:     logger,
		router:     mux.NewRouter(),
	}

	s.router.HandleFunc("/api/v1/stats", s.handleStats).Methods("GET")
	s.router.HandleFunc("/api/v1/resources", s.handleResources).Methods("GET")
	s.router.HandleFunc("/api/v1/alerts", s.handleAlerts).Methods("GET")
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.Handle("/metrics", promhttp.HandlerFor(monitor.Registry(), promhttp.HandlerOpts{})).Methods("GET")

	return s
}

// Handler returns the root handler for mounting into an http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.controller.Stats())
}

func (s *Server) handleResources(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.controller.ResourceState())
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.monitor.AlertHistory())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	healthy := s.monitor.IsHealthy()
	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := map[string]any{
		"healthy":   healthy,
		"pressure":  s.controller.Stats().OverallPressure.String(),
		"timestamp": time.Now().Unix(),
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("failed to write health response", slog.String("error", err.Error()))
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to write response", slog.String("error", err.Error()))
	}
}
