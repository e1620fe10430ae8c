// Package server provides the HTTP server for the faceveil anonymization
// service.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/pmalhotra/faceveil/internal/anonymizer"
	"github.com/pmalhotra/faceveil/internal/live"
	"github.com/pmalhotra/faceveil/internal/media"
	"github.com/pmalhotra/faceveil/internal/server/api"
	"github.com/pmalhotra/faceveil/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	MediaDir  string
	Store     *store.Store
	Processor *anonymizer.Processor
	Archiver  *media.S3Archiver
	Live      *live.Pipeline
}

// Server represents the HTTP server for the faceveil application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	// Processing endpoints need a processor; file uploads also need a
	// media directory to write outputs into.
	if s.config.Processor != nil {
		s.mux.HandleFunc("/api/process_frame", s.handleProcessFrame)
		s.mux.Handle("/api/ws", NewFramesHandler(s.config.Processor))

		if s.config.MediaDir != "" {
			s.mux.HandleFunc("/api/upload_image", s.handleUploadImage)
			s.mux.HandleFunc("/api/upload_video", s.handleUploadVideo)
		}
	}

	if s.config.MediaDir != "" {
		s.mux.HandleFunc("/api/download", s.handleDownload)
	}

	// Register job history API if Store is configured
	if s.config.Store != nil {
		jobsHandler := api.NewJobsHandler(s.config.Store)
		s.mux.Handle("/api/jobs", jobsHandler)
		s.mux.Handle("/api/jobs/", jobsHandler)
	}

	// Register live camera stream if a pipeline is configured
	if s.config.Live != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Live))
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status": "ok",
		"uptime": uptime.String(),
	}

	if s.config.Processor != nil {
		detector := "network"
		if s.config.Processor.Fallback() {
			detector = "cascade"
		}
		response["detector"] = detector
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
