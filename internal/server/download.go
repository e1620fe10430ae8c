package server

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/pmalhotra/faceveil/internal/media"
)

// handleDownload handles GET /api/download?file=<name>. Only files matching
// the server naming scheme are served, which prevents arbitrary-path
// disclosure.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	name := r.URL.Query().Get("file")
	if !media.Downloadable(name) {
		writeError(w, http.StatusForbidden, "Access denied")
		return
	}

	path := filepath.Join(s.config.MediaDir, name)
	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="`+media.DisplayName(name)+`"`)
	w.Header().Set("Content-Type", "application/octet-stream")
	http.ServeFile(w, r, path)
}
