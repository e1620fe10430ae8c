// Package api provides HTTP API handlers for the faceveil job history.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/pmalhotra/faceveil/internal/store"
)

// JobsHandler handles HTTP requests for the processing history.
type JobsHandler struct {
	store *store.Store
}

// NewJobsHandler creates a new JobsHandler with the given store.
func NewJobsHandler(s *store.Store) *JobsHandler {
	return &JobsHandler{store: s}
}

// ServeHTTP implements the http.Handler interface and routes requests to
// appropriate methods.
func (h *JobsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/jobs or /api/jobs/{id}
	path := strings.TrimPrefix(r.URL.Path, "/api/jobs")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		// Collection endpoint: /api/jobs
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	// Item endpoint: /api/jobs/{id}
	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type jobResponse struct {
	ID          string  `json:"id"`
	Kind        string  `json:"kind"`
	InputName   string  `json:"input_name"`
	OutputName  string  `json:"output_name"`
	ThumbName   string  `json:"thumb_name,omitempty"`
	DownloadURL string  `json:"download_url"`
	Method      string  `json:"method"`
	Factor      int     `json:"factor"`
	Faces       int     `json:"faces"`
	Frames      int     `json:"frames,omitempty"`
	AvgFaces    float64 `json:"avg_faces_per_frame,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

type listJobsResponse struct {
	Jobs []jobResponse `json:"jobs"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// toResponse converts a store.Job to a jobResponse.
func toResponse(j *store.Job) jobResponse {
	resp := jobResponse{
		ID:          j.ID,
		Kind:        string(j.Kind),
		InputName:   j.InputName,
		OutputName:  j.OutputName,
		ThumbName:   j.ThumbName,
		DownloadURL: "/api/download?file=" + j.OutputName,
		Method:      j.Method,
		Factor:      j.Factor,
		Faces:       j.Faces,
		Frames:      j.Frames,
		CreatedAt:   j.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if j.Frames > 0 {
		resp.AvgFaces = float64(j.Faces) / float64(j.Frames)
	}
	return resp
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// list handles GET /api/jobs and returns the processing history, newest
// first.
func (h *JobsHandler) list(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.store.Jobs().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	response := listJobsResponse{
		Jobs: make([]jobResponse, 0, len(jobs)),
	}

	for _, j := range jobs {
		response.Jobs = append(response.Jobs, toResponse(j))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/jobs/{id} and returns a single job.
func (h *JobsHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	job, err := h.store.Jobs().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Job not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get job")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(job))
}

// delete handles DELETE /api/jobs/{id} and removes a job record.
func (h *JobsHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	err := h.store.Jobs().Delete(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Job not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete job")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
