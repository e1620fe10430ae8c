package anonymizer

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Cascade detection parameters.
const (
	// cascadeScaleFactor is the image pyramid scale step.
	cascadeScaleFactor = 1.1
	// cascadeMinNeighbors is the minimum neighbor votes to keep a candidate.
	cascadeMinNeighbors = 5
	// cascadeMinSize is the minimum face size in pixels.
	cascadeMinSize = 30
)

// CascadeDetector implements Detector using a classical Haar cascade
// classifier. It is the fallback when the network model is unavailable.
type CascadeDetector struct {
	classifier gocv.CascadeClassifier
}

// NewCascadeDetector loads the Haar cascade from the given XML file.
func NewCascadeDetector(cascadeFile string) (*CascadeDetector, error) {
	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(cascadeFile) {
		classifier.Close()
		return nil, fmt.Errorf("load cascade file %s", cascadeFile)
	}

	return &CascadeDetector{classifier: classifier}, nil
}

// Detect runs the multi-scale cascade on the frame's luminance channel.
// Returned rectangles are always within frame bounds.
func (d *CascadeDetector) Detect(frame *gocv.Mat) ([]FaceRect, error) {
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

	rects := d.classifier.DetectMultiScaleWithParams(gray,
		cascadeScaleFactor, cascadeMinNeighbors, 0,
		image.Pt(cascadeMinSize, cascadeMinSize), image.Pt(0, 0))

	faces := make([]FaceRect, 0, len(rects))
	for _, r := range rects {
		faces = append(faces, FaceRect{
			X:      r.Min.X,
			Y:      r.Min.Y,
			Width:  r.Dx(),
			Height: r.Dy(),
		})
	}

	return faces, nil
}

// Close releases the classifier.
func (d *CascadeDetector) Close() error {
	return d.classifier.Close()
}
