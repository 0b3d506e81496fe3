// Package api is the thin HTTP surface over the pipeline: live positions,
// static-schedule sync, health and metrics.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/urbanflow-transit/feedpipe/config"
	"github.com/urbanflow-transit/feedpipe/feed"
	"github.com/urbanflow-transit/feedpipe/metrics"
	"github.com/urbanflow-transit/feedpipe/pipeline"
	"github.com/urbanflow-transit/feedpipe/schedule"
)

type Server struct {
	cfg          *config.App
	orchestrator *pipeline.Orchestrator
	schedules    *schedule.Service
	collector    *metrics.Collector
	httpServer   *http.Server
}

func NewServer(cfg *config.App, orch *pipeline.Orchestrator, schedules *schedule.Service, collector *metrics.Collector) *Server {
	s := &Server{cfg: cfg, orchestrator: orch, schedules: schedules, collector: collector}

	r := mux.NewRouter()
	r.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/{city}/vehicles", s.handleVehicles).Methods(http.MethodGet)
	r.HandleFunc("/api/{city}/sync", s.handleSync).Methods(http.MethodPost)
	if collector != nil {
		r.Handle("/metrics", collector.Handler()).Methods(http.MethodGet)
	}

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) Start() {
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()
	log.Printf("server listening on %s", s.httpServer.Addr)
}

// WaitForShutdown blocks until SIGINT/SIGTERM, then drains the server.
func (s *Server) WaitForShutdown() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Printf("shutdown signal received")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVehicles(w http.ResponseWriter, r *http.Request) {
	city := mux.Vars(r)["city"]
	positions, err := s.orchestrator.Positions(r.Context(), city)
	if err != nil {
		var unsupported *pipeline.UnsupportedFeedError
		var cfgErr *feed.ConfigurationError
		if errors.As(err, &unsupported) || errors.As(err, &cfgErr) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, positions)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	city := mux.Vars(r)["city"]
	force := r.URL.Query().Get("force") == "1" || r.URL.Query().Get("force") == "true"

	start := time.Now()
	res, err := s.schedules.Sync(r.Context(), city, force)
	if err != nil {
		s.collector.RecordSync(city, "error", time.Since(start))
		writeError(w, http.StatusBadGateway, err)
		return
	}
	s.collector.RecordSync(city, string(res.Status), time.Since(start))
	writeJSON(w, http.StatusOK, res)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
