package anonymizer

import (
	"errors"
	"fmt"
	"os"

	pigo "github.com/esimov/pigo/core"
	"gocv.io/x/gocv"
)

// Pigo detection parameters.
const (
	pigoMinSize     = 30
	pigoMaxSize     = 1000
	pigoShiftFactor = 0.1
	pigoScaleFactor = 1.1
	pigoIoU         = 0.2
	// pigoQuality is the minimum classification score to accept a face.
	// The pigo score is unbounded, not a 0-1 confidence.
	pigoQuality = 5.0
)

// PigoDetector implements Detector using the pure-Go pigo classifier. It is
// never auto-selected; callers opt in explicitly when neither OpenCV model
// set is available.
type PigoDetector struct {
	classifier *pigo.Pigo
}

// NewPigoDetector loads a binary pigo cascade (the "facefinder" file).
func NewPigoDetector(cascadeFile string) (*PigoDetector, error) {
	data, err := os.ReadFile(cascadeFile)
	if err != nil {
		return nil, fmt.Errorf("read cascade file %s: %w", cascadeFile, err)
	}

	classifier, err := pigo.NewPigo().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpack cascade file %s: %w", cascadeFile, err)
	}

	return &PigoDetector{classifier: classifier}, nil
}

// Detect runs the pigo cascade over the frame's luminance channel and
// returns clustered detections above the quality threshold. Pigo reports
// square regions centered on the face.
func (d *PigoDetector) Detect(frame *gocv.Mat) ([]FaceRect, error) {
	if frame == nil || frame.Empty() {
		return nil, errors.New("empty frame")
	}

	gray := gocv.NewMat()
	defer gray.Close()

	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	cols := gray.Cols()
	rows := gray.Rows()

	params := pigo.CascadeParams{
		MinSize:     pigoMinSize,
		MaxSize:     pigoMaxSize,
		ShiftFactor: pigoShiftFactor,
		ScaleFactor: pigoScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: gray.ToBytes(),
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	dets := d.classifier.RunCascade(params, 0.0)
	dets = d.classifier.ClusterDetections(dets, pigoIoU)

	faces := make([]FaceRect, 0, len(dets))
	for _, det := range dets {
		if det.Q <= pigoQuality {
			continue
		}
		half := det.Scale / 2
		faces = append(faces, FaceRect{
			X:      det.Col - half,
			Y:      det.Row - half,
			Width:  det.Scale,
			Height: det.Scale,
		})
	}

	return faces, nil
}

// Close is a no-op; pigo holds no external resources.
func (d *PigoDetector) Close() error {
	return nil
}
