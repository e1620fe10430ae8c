package anonymizer

import (
	"gocv.io/x/gocv"
)

// StubDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type StubDetector struct {
	faces []FaceRect
	err   error
	calls int
}

// NewStubDetector creates a new StubDetector instance.
func NewStubDetector() *StubDetector {
	return &StubDetector{}
}

// SetFaces sets the face rectangles that will be returned by Detect.
func (s *StubDetector) SetFaces(faces []FaceRect) {
	s.faces = faces
}

// SetError sets the error that will be returned by Detect.
func (s *StubDetector) SetError(err error) {
	s.err = err
}

// Calls returns how many times Detect has been invoked.
func (s *StubDetector) Calls() int {
	return s.calls
}

// Detect returns the pre-configured faces or error.
func (s *StubDetector) Detect(frame *gocv.Mat) ([]FaceRect, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.faces, nil
}

// Close is a no-op for the stub detector.
func (s *StubDetector) Close() error {
	return nil
}
