package server

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/pmalhotra/faceveil/internal/anonymizer"
)

// maxUploadBytes caps multipart uploads held in memory before spilling to
// disk.
const maxUploadBytes = 32 << 20

// frameResponse is the payload returned for a processed single frame.
type frameResponse struct {
	ProcessedImage string `json:"processed_image"`
	FaceCount      int    `json:"face_count"`
}

type errorResponse struct {
	Error string `json:"error"`
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

// requestOptions reads the blur_method and blur_factor form fields. An
// unknown method falls through to the processor's configured default; a
// missing factor defaults to 30.
func requestOptions(r *http.Request) (anonymizer.Method, int) {
	method := anonymizer.Method(r.FormValue("blur_method"))

	factor := 30
	if v := r.FormValue("blur_factor"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			factor = parsed
		}
	}

	return method, factor
}

// handleProcessFrame handles POST /api/process_frame: a single webcam frame
// in, the anonymized frame and a face count out.
func (s *Server) handleProcessFrame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing image field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read image")
		return
	}

	img, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil || img.Empty() {
		writeError(w, http.StatusBadRequest, "Invalid image data")
		return
	}
	defer img.Close()

	method, factor := requestOptions(r)

	count, err := s.config.Processor.ProcessFrameWith(&img, method, factor)
	if err != nil {
		log.Errorf("Error processing frame: %v", err)
		writeError(w, http.StatusInternalServerError, "Error processing frame")
		return
	}

	buf, err := gocv.IMEncode(".jpg", img)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode frame")
		return
	}
	defer buf.Close()

	writeJSON(w, http.StatusOK, frameResponse{
		ProcessedImage: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.GetBytes()),
		FaceCount:      count,
	})
}
