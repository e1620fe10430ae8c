package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pmalhotra/faceveil/internal/anonymizer"
	"github.com/pmalhotra/faceveil/internal/store"
	"github.com/pmalhotra/faceveil/testdata"
)

func newUploadServer(t *testing.T, faces []anonymizer.FaceRect) (*Server, *store.Store) {
	t.Helper()

	detector := anonymizer.NewStubDetector()
	detector.SetFaces(faces)

	proc, err := anonymizer.New(anonymizer.Config{
		Method:   anonymizer.Gaussian,
		Factor:   31,
		Detector: detector,
	})
	if err != nil {
		t.Fatalf("failed to create processor: %v", err)
	}
	t.Cleanup(func() { proc.Close() })

	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	return New(Config{
		MediaDir:  t.TempDir(),
		Processor: proc,
		Store:     st,
	}), st
}

func imageUploadRequest(t *testing.T, field, filename string) *http.Request {
	t.Helper()

	frame := testdata.GradientFrame(200, 200)
	defer frame.Close()

	data, err := testdata.EncodeJPEG(frame)
	if err != nil {
		t.Fatalf("failed to encode frame: %v", err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload_image", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestServer_UploadImage(t *testing.T) {
	t.Run("processes upload and records a job", func(t *testing.T) {
		s, st := newUploadServer(t, []anonymizer.FaceRect{{X: 40, Y: 40, Width: 60, Height: 60}})

		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, imageUploadRequest(t, "image", "holiday.jpg"))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
		}

		var response imageUploadResponse
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}

		if response.FacesDetected != 1 {
			t.Errorf("expected 1 face detected, got %d", response.FacesDetected)
		}
		if !strings.HasPrefix(response.DownloadURL, "/api/download?file=anonymized_") {
			t.Errorf("unexpected download url %q", response.DownloadURL)
		}
		if !strings.HasSuffix(response.OutputPath, "_holiday.jpg") {
			t.Errorf("expected output path to keep original name, got %q", response.OutputPath)
		}
		if _, err := os.Stat(response.OutputPath); err != nil {
			t.Errorf("expected output file to exist: %v", err)
		}

		jobs, err := st.Jobs().List()
		if err != nil {
			t.Fatalf("failed to list jobs: %v", err)
		}
		if len(jobs) != 1 {
			t.Fatalf("expected 1 recorded job, got %d", len(jobs))
		}
		if jobs[0].InputName != "holiday.jpg" {
			t.Errorf("expected input name 'holiday.jpg', got %q", jobs[0].InputName)
		}
		if jobs[0].Kind != store.JobKindImage {
			t.Errorf("expected image job, got %q", jobs[0].Kind)
		}
	})

	t.Run("removes staged upload after processing", func(t *testing.T) {
		s, _ := newUploadServer(t, nil)

		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, imageUploadRequest(t, "image", "clean.jpg"))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		entries, err := os.ReadDir(s.config.MediaDir)
		if err != nil {
			t.Fatalf("failed to read media dir: %v", err)
		}
		for _, entry := range entries {
			if strings.HasPrefix(entry.Name(), "upload_") {
				t.Errorf("staged upload %s not removed", entry.Name())
			}
		}
	})

	t.Run("rejects missing image field", func(t *testing.T) {
		s, _ := newUploadServer(t, nil)

		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, imageUploadRequest(t, "wrong_field", "photo.jpg"))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
		}
	})

	t.Run("only allows POST method", func(t *testing.T) {
		s, _ := newUploadServer(t, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/upload_image", nil)
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
		}
	})
}

func TestServer_UploadVideo(t *testing.T) {
	t.Run("rejects missing video field", func(t *testing.T) {
		s, _ := newUploadServer(t, nil)

		rec := httptest.NewRecorder()
		req := imageUploadRequest(t, "image", "clip.mp4")
		req.URL.Path = "/api/upload_video"

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
		}
	})

	t.Run("rejects undecodable video payload", func(t *testing.T) {
		s, _ := newUploadServer(t, nil)

		var body bytes.Buffer
		writer := multipart.NewWriter(&body)
		part, _ := writer.CreateFormFile("video", "clip.mp4")
		part.Write([]byte("not a video"))
		writer.Close()

		req := httptest.NewRequest(http.MethodPost, "/api/upload_video", &body)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		rec := httptest.NewRecorder()

		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected status %d, got %d", http.StatusInternalServerError, rec.Code)
		}
	})
}
