// Package api exposes the job and question surface over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/examforge/question-engine/internal/config"
	"github.com/examforge/question-engine/internal/observability"
	"github.com/examforge/question-engine/internal/pipeline"
	"github.com/examforge/question-engine/internal/render"
	"github.com/examforge/question-engine/internal/store"
)

// Server serves the job submission and question query endpoints.
type Server struct {
	cfg          config.ServerConfig
	orchestrator *pipeline.Orchestrator
	store        *store.Store
	logger       *observability.Logger
	httpServer   *http.Server
}

// NewServer creates the HTTP server. store may be nil; question queries
// then return 404.
func NewServer(cfg config.ServerConfig, orchestrator *pipeline.Orchestrator, st *store.Store, logger *observability.Logger) *Server {
	s := &Server{
		cfg:          cfg,
		orchestrator: orchestrator,
		store:        st,
		logger:       logger.WithComponent("api"),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.WriteTimeout))

	r.Get("/health", s.handleHealth)
	r.Route("/jobs", func(r chi.Router) {
		r.Post("/", s.handleSubmitJob)
		r.Get("/", s.handleListJobs)
		r.Get("/{jobID}", s.handleGetJob)
	})
	r.Get("/questions", s.handleListQuestions)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s
}

// Handler returns the configured router, for tests.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Start serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.httpServer.Addr).Msg("HTTP server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.GracefulShutdown)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

type submitJobRequest struct {
	SourceFile string `json:"sourceFile"`
}

func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	var req submitJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SourceFile == "" {
		writeError(w, http.StatusBadRequest, "sourceFile is required")
		return
	}
	if err := render.ValidatePDF(req.SourceFile); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	// The job runs detached from the request; clients poll GET /jobs/{id}.
	job := s.orchestrator.ProcessAsync(req.SourceFile, 2*time.Hour)

	writeJSON(w, http.StatusAccepted, job)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	if job, ok := s.orchestrator.Job(jobID); ok {
		writeJSON(w, http.StatusOK, job)
		return
	}

	if s.store != nil {
		job, err := s.store.GetJob(r.Context(), jobID)
		if err == nil {
			writeJSON(w, http.StatusOK, job)
			return
		}
		if !errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusInternalServerError, "job lookup failed")
			return
		}
	}

	writeError(w, http.StatusNotFound, "job not found")
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"jobs": s.orchestrator.Jobs()})
}

func (s *Server) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, "question store not configured")
		return
	}

	filter := store.QuestionFilter{
		JobID:      r.URL.Query().Get("jobId"),
		Subject:    r.URL.Query().Get("subject"),
		Difficulty: r.URL.Query().Get("difficulty"),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}

	questions, err := s.store.ListQuestions(r.Context(), filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("Question query failed")
		writeError(w, http.StatusInternalServerError, "question query failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"questions": questions,
		"count":     len(questions),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
