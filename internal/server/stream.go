package server

import (
	"fmt"
	"net/http"

	"github.com/pmalhotra/faceveil/internal/live"
)

// StreamHandler serves anonymized camera frames as an MJPEG stream.
type StreamHandler struct {
	pipeline *live.Pipeline
}

// NewStreamHandler creates a new StreamHandler backed by the live pipeline.
func NewStreamHandler(pipeline *live.Pipeline) *StreamHandler {
	return &StreamHandler{pipeline: pipeline}
}

// ServeHTTP streams MJPEG frames to the client until it disconnects.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	frames, cancel := h.pipeline.Subscribe()
	defer cancel()

	for {
		select {
		case <-r.Context().Done():
			return
		case data := <-frames:
			fmt.Fprintf(w, "--frame\r\n")
			fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
			fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(data))
			w.Write(data)
			fmt.Fprintf(w, "\r\n")

			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}
	}
}
