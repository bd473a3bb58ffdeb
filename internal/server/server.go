// =============================================================================
// CSV Reconciler - HTTP Service
// =============================================================================
//
// This module exposes the reconciliation pipeline over HTTP.
//
// ROUTES:
//   POST /upload   multipart form with "spo_file" and "fin_file"
//   GET  /healthz  liveness check
//
// BACKGROUND JOBS:
//   A cron job removes uploads older than the configured retention. Uploads
//   are normally deleted when their request ends; the job only catches files
//   left behind by crashes or by keep_uploads.
//
// =============================================================================

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/ginjaninja78/csv-reconciler/internal/config"
	"github.com/ginjaninja78/csv-reconciler/internal/logging"
	"github.com/ginjaninja78/csv-reconciler/internal/pipeline"
	"github.com/ginjaninja78/csv-reconciler/pkg/utils"
)

// =============================================================================
// SERVER STRUCTURE
// =============================================================================

// Server serves reconciliation requests.
type Server struct {
	cfg        *config.MainConfig
	pipeline   *pipeline.Pipeline
	files      *utils.FileManager
	router     *mux.Router
	httpServer *http.Server
	cron       *cron.Cron
	logger     *zerolog.Logger
}

// New creates a Server around a pipeline.
//
// RETURNS:
//   - The server, with routes and the cleanup job registered.
//   - An error if the cleanup schedule is not a valid cron spec.
func New(cfg *config.MainConfig, p *pipeline.Pipeline, logger *zerolog.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.Default()
	}

	s := &Server{
		cfg:      cfg,
		pipeline: p,
		files:    p.Files(),
		router:   mux.NewRouter(),
		cron:     cron.New(),
		logger:   logger,
	}

	s.router.Use(s.requestID)
	s.router.HandleFunc("/upload", s.handleUpload).Methods(http.MethodPost)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	if _, err := s.cron.AddFunc(cfg.Server.CleanupSchedule, s.cleanUploads); err != nil {
		return nil, fmt.Errorf("invalid cleanup schedule %q: %w", cfg.Server.CleanupSchedule, err)
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return s, nil
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Start prepares the working directories, starts the cleanup job and serves
// until Shutdown is called.
//
// RETURNS:
//   - nil after a graceful shutdown, or the listener error.
func (s *Server) Start() error {
	if err := s.files.EnsureDirectories(); err != nil {
		return err
	}

	s.cron.Start()

	s.logger.Info().
		Str("addr", s.httpServer.Addr).
		Str("upload_dir", s.cfg.UploadDir).
		Str("cleanup_schedule", s.cfg.Server.CleanupSchedule).
		Msg("Starting HTTP server")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests, waits for running ones and stops the
// cleanup job.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down HTTP server")

	err := s.httpServer.Shutdown(ctx)

	// Wait for a running cleanup, bounded by ctx.
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}

	return err
}

// cleanUploads removes stale uploads.
func (s *Server) cleanUploads() {
	removed, err := utils.CleanOldFiles(s.cfg.UploadDir, s.cfg.Server.UploadRetention)
	if err != nil {
		s.logger.Error().Err(err).Msg("Upload cleanup failed")
		return
	}
	if removed > 0 {
		s.logger.Info().Int("removed", removed).Msg("Removed stale uploads")
	}
}
