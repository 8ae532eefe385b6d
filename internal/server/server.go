// Package server exposes the transformation engine over HTTP as background
// jobs with SSE progress streams and persisted results.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cwbudde/pixelsculpt/internal/config"
	"github.com/cwbudde/pixelsculpt/internal/imageio"
	"github.com/cwbudde/pixelsculpt/internal/sculpt"
	"github.com/cwbudde/pixelsculpt/internal/store"
)

// Defaults fills in job fields a request leaves out.
type Defaults struct {
	Params sculpt.Params
	Width  int
	Height int
}

// Server represents the HTTP server
type Server struct {
	jobManager  *JobManager
	resultStore store.Store
	defaults    Defaults
	addr        string
	server      *http.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer creates a new HTTP server. resultStore may be nil, in which case
// results only live in memory.
func NewServer(addr string, resultStore store.Store, defaults Defaults) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		jobManager:  NewJobManager(),
		resultStore: resultStore,
		defaults:    defaults,
		addr:        addr,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/jobs", s.handleJobs)
	mux.HandleFunc("/api/v1/jobs/", s.handleJobsWithID)
	mux.HandleFunc("/api/v1/results", s.handleListResults)

	return s.loggingMiddleware(s.corsMiddleware(mux))
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	slog.Info("Starting HTTP server", "addr", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server and cancels running jobs
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down HTTP server", "running_jobs", len(s.jobManager.GetRunningJobs()))
	s.cancel()

	var err error
	if s.server != nil {
		err = s.server.Shutdown(ctx)
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		slog.Warn("Timed out waiting for jobs to stop")
	}
	return err
}

// handleJobs handles /api/v1/jobs
func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateJob(w, r)
	case http.MethodGet:
		s.handleListJobs(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleJobsWithID handles /api/v1/jobs/:id/*
func (s *Server) handleJobsWithID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/jobs/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "Job ID required", http.StatusBadRequest)
		return
	}

	jobID := parts[0]
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if len(parts) == 1 || parts[1] == "status" {
		s.handleGetJobStatus(w, r, jobID)
		return
	}
	switch parts[1] {
	case store.ResultImage:
		s.handleGetImage(w, r, jobID, store.ResultImage)
	case store.DiffImage:
		s.handleGetImage(w, r, jobID, store.DiffImage)
	case "trace":
		s.handleGetTrace(w, r, jobID)
	case "stream":
		s.handleJobStream(w, r, jobID)
	default:
		http.Error(w, "Not found", http.StatusNotFound)
	}
}

// handleCreateJob handles POST /api/v1/jobs
func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var cfg JobConfig
	cfg.Params = s.defaults.Params
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}

	if cfg.SourcePath == "" {
		http.Error(w, "sourcePath is required", http.StatusBadRequest)
		return
	}
	if cfg.TargetPath == "" {
		http.Error(w, "targetPath is required", http.StatusBadRequest)
		return
	}
	if cfg.Width <= 0 {
		cfg.Width = s.defaults.Width
	}
	if cfg.Height <= 0 {
		cfg.Height = s.defaults.Height
	}
	if err := cfg.Params.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := config.ValidateDimensions(cfg.Width, cfg.Height, cfg.Params); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	job := s.jobManager.CreateJob(cfg)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		runJob(s.ctx, s.jobManager, s.resultStore, job.ID)
	}()

	writeJSON(w, http.StatusCreated, job)
}

// handleListJobs handles GET /api/v1/jobs
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.jobManager.ListJobs())
}

// handleListResults handles GET /api/v1/results, the persisted records
func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	if s.resultStore == nil {
		writeJSON(w, http.StatusOK, []store.RecordInfo{})
		return
	}
	infos, err := s.resultStore.ListRecords()
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to list results: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

// handleGetJobStatus handles GET /api/v1/jobs/:id/status. Jobs from earlier
// server runs are answered from the result store.
func (s *Server) handleGetJobStatus(w http.ResponseWriter, r *http.Request, jobID string) {
	job, exists := s.jobManager.GetJob(jobID)
	if exists {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"id":        job.ID,
			"state":     job.State,
			"config":    job.Config,
			"stage":     job.Stage,
			"verdict":   job.Verdict,
			"elapsed":   job.Elapsed().Seconds(),
			"startTime": job.StartTime,
			"endTime":   job.EndTime,
			"error":     job.Error,
		})
		return
	}

	if s.resultStore != nil {
		record, err := s.resultStore.LoadRecord(jobID)
		if err == nil {
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"id":        record.JobID,
				"state":     StateCompleted,
				"config":    record.Config,
				"verdict":   record.Verdict,
				"elapsed":   record.Elapsed,
				"startTime": record.Timestamp,
			})
			return
		}
		if !errors.Is(err, store.ErrNotFound) {
			http.Error(w, fmt.Sprintf("Failed to load record: %v", err), http.StatusInternalServerError)
			return
		}
	}

	http.Error(w, "Job not found", http.StatusNotFound)
}

// handleGetImage serves result.png or diff.png, from memory when the job ran
// in this process and from the result store otherwise.
func (s *Server) handleGetImage(w http.ResponseWriter, r *http.Request, jobID, name string) {
	job, exists := s.jobManager.GetJob(jobID)
	if exists {
		img := job.output
		if name == store.DiffImage {
			img = job.diff
		}
		if img == nil {
			http.Error(w, "No results yet", http.StatusNotFound)
			return
		}
		writePNG(w, img)
		return
	}

	if s.resultStore != nil {
		path := s.resultStore.ImagePath(jobID, name)
		if _, err := os.Stat(path); err == nil {
			w.Header().Set("Cache-Control", "no-cache")
			http.ServeFile(w, r, path)
			return
		}
	}

	http.Error(w, "Job not found", http.StatusNotFound)
}

// handleGetTrace handles GET /api/v1/jobs/:id/trace
func (s *Server) handleGetTrace(w http.ResponseWriter, r *http.Request, jobID string) {
	if s.resultStore == nil {
		http.Error(w, "No result store configured", http.StatusNotFound)
		return
	}
	entries, err := s.resultStore.ReadTrace(jobID)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Trace not found", http.StatusNotFound)
		return
	} else if err != nil {
		http.Error(w, fmt.Sprintf("Failed to read trace: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

func writePNG(w http.ResponseWriter, img image.Image) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	if err := imageio.EncodePNG(w, img); err != nil {
		slog.Error("Failed to encode PNG", "error", err)
	}
}

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
