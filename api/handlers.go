package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/overrun115/pdf-reader-saas-mvp-sub001/export"
	"github.com/overrun115/pdf-reader-saas-mvp-sub001/extraction"
	"github.com/overrun115/pdf-reader-saas-mvp-sub001/scheduler"
)

type ExtractRequest struct {
	FilePath        string `json:"file_path"`
	Label           string `json:"label"`
	TimeoutSeconds  int    `json:"timeout_seconds"`
	MaxRowsPerTable int    `json:"max_rows_per_table"`
	OutputShape     string `json:"output_shape"`
}

type ExtractResponse struct {
	JobID string `json:"job_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// ExtractHandler submits a processing job running the extraction pipeline.
func (s *Server) ExtractHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if strings.TrimSpace(req.FilePath) == "" {
		http.Error(w, "missing file_path parameter", http.StatusBadRequest)
		return
	}
	label := req.Label
	if label == "" {
		label = filepath.Base(req.FilePath)
	}
	timeout := s.defaultTimeout
	if req.TimeoutSeconds > 0 {
		timeout = time.Duration(req.TimeoutSeconds) * time.Second
	}

	doc := extraction.Document{Path: req.FilePath, Label: label}
	params := extraction.Params{
		MaxRowsPerTable: req.MaxRowsPerTable,
		OutputShape:     extraction.OutputShape(req.OutputShape),
	}

	jobID, err := s.scheduler.Submit(req.FilePath, label, func(ctx context.Context) (any, error) {
		result, err := s.pipeline.Extract(ctx, doc, params)
		if errors.Is(err, extraction.ErrNoTabularData) {
			// expected outcome for unextractable documents, not a failure
			return &extraction.Result{Method: "none"}, nil
		}
		if err != nil {
			return nil, err
		}
		return result, nil
	}, timeout)
	if errors.Is(err, scheduler.ErrCapacityExceeded) {
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "processing queue is full, try again later"})
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusAccepted, ExtractResponse{JobID: jobID})
}

// JobStatusHandler returns the tracked job record.
func (s *Server) JobStatusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "missing id parameter", http.StatusBadRequest)
		return
	}

	job, err := s.scheduler.GetStatus(id)
	if errors.Is(err, scheduler.ErrJobNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "job not found"})
		return
	}

	writeJSON(w, http.StatusOK, job)
}

// QueueHandler reports queue depth, running count and the configured limits.
func (s *Server) QueueHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, s.scheduler.GetQueueSnapshot())
}

// DownloadHandler renders a completed job's tables as a spreadsheet.
func (s *Server) DownloadHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "missing id parameter", http.StatusBadRequest)
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "xlsx"
	}

	job, err := s.scheduler.GetStatus(id)
	if errors.Is(err, scheduler.ErrJobNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "job not found"})
		return
	}
	if job.Status != scheduler.StatusCompleted {
		writeJSON(w, http.StatusConflict, errorResponse{Error: "job is not completed"})
		return
	}

	result, ok := job.Result.(*extraction.Result)
	if !ok || len(result.Tables) == 0 {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no tabular data found"})
		return
	}

	switch format {
	case "xlsx":
		data, err := export.WriteXLSX(result.Tables)
		if err != nil {
			s.logger.Error("xlsx export failed", zap.String("job_id", id), zap.Error(err))
			http.Error(w, "export failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="`+job.Label+`.xlsx"`)
		_, _ = w.Write(data)
	case "csv":
		data, err := export.WriteCSV(result.Tables)
		if err != nil {
			s.logger.Error("csv export failed", zap.String("job_id", id), zap.Error(err))
			http.Error(w, "export failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="`+job.Label+`.csv"`)
		_, _ = w.Write(data)
	default:
		http.Error(w, "unsupported format: "+format, http.StatusBadRequest)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
