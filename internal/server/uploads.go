package server

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/pmalhotra/faceveil/internal/media"
	"github.com/pmalhotra/faceveil/internal/store"
)

type imageUploadResponse struct {
	OutputPath    string `json:"output_path"`
	DownloadURL   string `json:"download_url"`
	FacesDetected int    `json:"faces_detected"`
}

type videoUploadResponse struct {
	OutputPath   string  `json:"output_path"`
	DownloadURL  string  `json:"download_url"`
	TotalFrames  int     `json:"total_frames"`
	TotalFaces   int     `json:"total_faces"`
	AvgFacesRate float64 `json:"avg_faces_per_frame"`
}

// baseName is filepath.Base that maps an empty path to an empty string,
// for optional artifacts like thumbnails.
func baseName(path string) string {
	if path == "" {
		return ""
	}
	return filepath.Base(path)
}

// saveUpload stages a multipart file into the media directory under the
// upload naming scheme and returns its path.
func (s *Server) saveUpload(file multipart.File, originalName string) (string, error) {
	path := filepath.Join(s.config.MediaDir, media.UploadName(originalName))

	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, file); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("save upload file: %w", err)
	}

	return path, nil
}

// archive best-effort uploads a processed output to the object store.
func (s *Server) archive(path string) {
	if s.config.Archiver == nil || path == "" {
		return
	}
	object, err := s.config.Archiver.Upload(path)
	if err != nil {
		log.Warnf("S3 archival of %s failed: %v", filepath.Base(path), err)
		return
	}
	log.Infof("Archived %s as %s", filepath.Base(path), object)
}

// recordJob best-effort persists a job history row.
func (s *Server) recordJob(job *store.Job) {
	if s.config.Store == nil {
		return
	}
	if err := s.config.Store.Jobs().Create(job); err != nil {
		log.Warnf("Failed to record job %s: %v", job.ID, err)
	}
}

// handleUploadImage handles POST /api/upload_image.
func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing image field")
		return
	}
	defer file.Close()

	staged, err := s.saveUpload(file, header.Filename)
	if err != nil {
		log.Errorf("Error staging image upload: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to save upload")
		return
	}
	defer os.Remove(staged)

	method, factor := requestOptions(r)

	result, err := media.ProcessImage(s.config.Processor, staged, s.config.MediaDir, method, factor)
	if err != nil {
		log.Errorf("Error processing image: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	outputName := filepath.Base(result.OutputPath)
	s.recordJob(&store.Job{
		ID:         uuid.New().String(),
		Kind:       store.JobKindImage,
		InputName:  header.Filename,
		OutputName: outputName,
		ThumbName:  baseName(result.ThumbPath),
		Method:     string(method),
		Factor:     factor,
		Faces:      result.Faces,
	})
	s.archive(result.OutputPath)

	writeJSON(w, http.StatusOK, imageUploadResponse{
		OutputPath:    result.OutputPath,
		DownloadURL:   "/api/download?file=" + outputName,
		FacesDetected: result.Faces,
	})
}

// handleUploadVideo handles POST /api/upload_video.
func (s *Server) handleUploadVideo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("video")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing video field")
		return
	}
	defer file.Close()

	staged, err := s.saveUpload(file, header.Filename)
	if err != nil {
		log.Errorf("Error staging video upload: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to save upload")
		return
	}
	defer os.Remove(staged)

	method, factor := requestOptions(r)

	result, err := media.ProcessVideo(s.config.Processor, staged, s.config.MediaDir, method, factor, nil)
	if err != nil {
		log.Errorf("Error processing video: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	outputName := filepath.Base(result.OutputPath)
	s.recordJob(&store.Job{
		ID:         uuid.New().String(),
		Kind:       store.JobKindVideo,
		InputName:  header.Filename,
		OutputName: outputName,
		ThumbName:  baseName(result.ThumbPath),
		Method:     string(method),
		Factor:     factor,
		Faces:      result.Faces,
		Frames:     result.Frames,
	})
	s.archive(result.OutputPath)

	writeJSON(w, http.StatusOK, videoUploadResponse{
		OutputPath:   result.OutputPath,
		DownloadURL:  "/api/download?file=" + outputName,
		TotalFrames:  result.Frames,
		TotalFaces:   result.Faces,
		AvgFacesRate: result.AvgFaces,
	})
}
