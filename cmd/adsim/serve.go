// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"github.com/luxfi/adsim/engine"
	"github.com/luxfi/adsim/pkg/analytics"
	"github.com/luxfi/adsim/pkg/config"
	"github.com/luxfi/adsim/pkg/log"
	"github.com/luxfi/adsim/pkg/metric"
	"github.com/luxfi/adsim/pkg/storage"
	"github.com/luxfi/adsim/pkg/stream"
)

func newServeCmd() *cobra.Command {
	var (
		configPath   string
		listenAddr   string
		tickInterval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the simulator over HTTP with a live tick stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := log.NewWithLevel(logLevel)
			defer logger.Sync()

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			srv := newServer(cfg, tickInterval, logger)
			httpServer := &http.Server{
				Addr:    listenAddr,
				Handler: srv.routes(),
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("listening", "addr", listenAddr)
				if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			select {
			case err := <-errCh:
				return err
			case <-sigCh:
			}

			logger.Info("shutting down")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return httpServer.Shutdown(ctx)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to simulation config YAML")
	cmd.Flags().StringVar(&listenAddr, "listen", ":8080", "HTTP listen address")
	cmd.Flags().DurationVar(&tickInterval, "tick-interval", 50*time.Millisecond, "Wall-clock pacing of streamed ticks")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

// server exposes the simulator over HTTP: launch runs, stream their ticks,
// fetch stored results, export metrics.
type server struct {
	cfg          engine.Config
	tickInterval time.Duration
	backend      storage.Backend
	metrics      *metric.Metrics
	hub          *stream.Hub
	log          log.Logger
}

func newServer(cfg engine.Config, tickInterval time.Duration, logger log.Logger) *server {
	hub := stream.NewHub(logger)
	go hub.Run()
	return &server{
		cfg:          cfg,
		tickInterval: tickInterval,
		backend:      storage.NewMemoryBackend(),
		metrics:      metric.New("adsim"),
		hub:          hub,
		log:          logger,
	}
}

func (s *server) routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/api/runs", s.handleStartRun).Methods(http.MethodPost)
	r.HandleFunc("/api/runs", s.handleListRuns).Methods(http.MethodGet)
	r.HandleFunc("/api/runs/{id}", s.handleGetRun).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.hub.ServeWS)
	r.Handle("/metrics", s.metrics.Handler())
	return r
}

// tickEvent is the wire envelope for one streamed tick.
type tickEvent struct {
	RunID string `json:"run_id"`
	Event any    `json:"event"`
	Done  bool   `json:"done"`
}

func (s *server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	cfg := s.cfg
	if raw := r.URL.Query().Get("seed"); raw != "" {
		seed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid seed %q", raw), http.StatusBadRequest)
			return
		}
		cfg.Seed = seed
	}

	run, err := engine.Init(cfg, s.log)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id := uuid.New()
	s.metrics.RunsStarted.Inc()
	go s.driveRun(id, run, cfg)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]any{"id": id, "seed": cfg.Seed, "horizon": cfg.Horizon})
}

// driveRun steps an interactive run on a fixed-timestep ticker, streaming
// each event, then stores the finished record.
func (s *server) driveRun(id uuid.UUID, run *engine.Run, cfg engine.Config) {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for range ticker.C {
		ev, done, err := run.Step()
		if err != nil {
			s.log.Error("run step", "run", id, "error", err)
			return
		}
		s.metrics.ObserveEvent(ev)
		s.hub.BroadcastJSON(tickEvent{RunID: id.String(), Event: ev, Done: done})
		if done {
			break
		}
	}

	events := run.State().Events
	rec := &storage.RunRecord{
		ID:      id,
		Seed:    cfg.Seed,
		Horizon: cfg.Horizon,
		Events:  events,
		Report:  analytics.Build(events),
	}
	if err := s.backend.SaveRun(context.Background(), rec); err != nil {
		s.log.Error("save run", "run", id, "error", err)
		return
	}
	s.metrics.RunsCompleted.Inc()
	s.log.Info("run complete", "run", id, "ticks", len(events))
}

func (s *server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	records, err := s.backend.ListRuns(r.Context(), 50)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	summaries := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		summaries = append(summaries, map[string]any{
			"id":         rec.ID,
			"created_at": rec.CreatedAt,
			"seed":       rec.Seed,
			"horizon":    rec.Horizon,
			"report":     rec.Report,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(summaries)
}

func (s *server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid run id", http.StatusBadRequest)
		return
	}
	rec, err := s.backend.GetRun(r.Context(), id)
	if errors.Is(err, storage.ErrRunNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rec)
}
