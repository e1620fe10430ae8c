// Package anonymizer implements the face anonymization pipeline: face
// detection with a confidence threshold plus an obscuring filter (Gaussian
// blur or pixelation) applied in place to each detected region.
package anonymizer

import "gocv.io/x/gocv"

// Method selects the obscuring filter applied to detected face regions.
type Method string

const (
	// Gaussian blurs each face region with a symmetric Gaussian kernel.
	Gaussian Method = "gaussian"
	// Pixelate replaces each face region with coarse uniform blocks.
	Pixelate Method = "pixelate"
)

// FaceRect is an axis-aligned face bounding box in pixel units with a
// top-left origin, in the detector's native coordinate frame. Rects come
// straight from the detector and may extend past the frame bounds; they are
// clamped only when obscured.
type FaceRect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Detector defines the interface for face detection implementations.
type Detector interface {
	// Detect analyzes a frame and returns detected face rectangles.
	// Returns an empty slice if no faces are detected.
	Detect(frame *gocv.Mat) ([]FaceRect, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for a Processor.
type Config struct {
	// Method is the obscuring filter to apply (default: Gaussian).
	Method Method

	// Factor is the filter intensity (default: 30). For Gaussian it is the
	// kernel size and must be odd; for Pixelate it controls block size.
	Factor int

	// Confidence is the minimum detection confidence threshold (0.0-1.0).
	// Zero means the default of 0.5.
	Confidence float64

	// ModelFile and ConfigFile locate the TensorFlow face detection network.
	// Both must exist for the network detector to be selected.
	ModelFile  string
	ConfigFile string

	// CascadeFile locates the Haar cascade used as the fallback detector.
	CascadeFile string

	// Detector overrides automatic detector selection when non-nil.
	Detector Detector
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		Method:      Gaussian,
		Factor:      30,
		Confidence:  0.5,
		ModelFile:   "models/opencv_face_detector_uint8.pb",
		ConfigFile:  "models/opencv_face_detector.pbtxt",
		CascadeFile: "models/haarcascade_frontalface_default.xml",
	}
}
