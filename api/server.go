package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/overrun115/pdf-reader-saas-mvp-sub001/extraction"
	"github.com/overrun115/pdf-reader-saas-mvp-sub001/scheduler"
)

// ExtractionService is the pipeline capability the handlers need.
type ExtractionService interface {
	Extract(ctx context.Context, doc extraction.Document, params extraction.Params) (*extraction.Result, error)
}

// Server exposes the job intake subsystem over HTTP.
type Server struct {
	scheduler      *scheduler.Scheduler
	pipeline       ExtractionService
	defaultTimeout time.Duration
	logger         *zap.Logger
}

// NewServer creates the HTTP server over the scheduler and pipeline.
func NewServer(sched *scheduler.Scheduler, pipeline ExtractionService, defaultTimeout time.Duration, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		scheduler:      sched,
		pipeline:       pipeline,
		defaultTimeout: defaultTimeout,
		logger:         logger,
	}
}

// Routes registers all endpoints on a fresh mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/extract", s.ExtractHandler)
	mux.HandleFunc("/api/jobs", s.JobStatusHandler)
	mux.HandleFunc("/api/queue", s.QueueHandler)
	mux.HandleFunc("/api/download", s.DownloadHandler)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return mux
}

// Start starts the API server.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.logger.Info("API server listening", zap.String("addr", addr))
	return http.ListenAndServe(addr, s.Routes())
}
