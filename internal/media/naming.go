// Package media runs the anonymization pipeline over image and video files
// and owns the server-controlled output naming scheme.
package media

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Name prefixes. Only files carrying an output or thumbnail prefix are
// eligible for download; uploads are staging files and never served.
const (
	outputPrefix = "anonymized_"
	uploadPrefix = "upload_"
	thumbPrefix  = "thumb_"
)

// newID returns a 32-character hex id.
func newID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// OutputName builds the server-controlled name for a processed file.
func OutputName(original string) string {
	return fmt.Sprintf("%s%s_%s", outputPrefix, newID(), filepath.Base(original))
}

// UploadName builds the staging name for an uploaded file.
func UploadName(original string) string {
	return fmt.Sprintf("%s%s_%s", uploadPrefix, newID(), filepath.Base(original))
}

// ThumbName builds the thumbnail name for a processed output. Thumbnails are
// always JPEG.
func ThumbName(outputName string) string {
	name := thumbPrefix + strings.TrimPrefix(outputName, outputPrefix)
	if ext := strings.ToLower(filepath.Ext(name)); ext != ".jpg" && ext != ".jpeg" {
		name += ".jpg"
	}
	return name
}

// Downloadable reports whether a requested file name matches the server
// naming scheme. Names with path separators or without a served prefix are
// rejected, which prevents arbitrary-path disclosure.
func Downloadable(name string) bool {
	if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") {
		return false
	}
	return strings.HasPrefix(name, outputPrefix) || strings.HasPrefix(name, thumbPrefix)
}

// DisplayName strips the generated prefixes from a served file name,
// recovering the original basename for Content-Disposition.
func DisplayName(name string) string {
	parts := strings.SplitN(name, "_", 3)
	if len(parts) == 3 && parts[2] != "" {
		return parts[2]
	}
	return name
}
