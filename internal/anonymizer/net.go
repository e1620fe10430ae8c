package anonymizer

import (
	"errors"
	"fmt"
	"image"
	"os"

	"gocv.io/x/gocv"
)

// Network detector input parameters. The frame is resized to a 300x300 blob
// and the per-channel means are subtracted; no channel swap, no depth scale.
const netInputSize = 300

// NetDetector implements Detector using the OpenCV DNN face detection
// network (TensorFlow SSD graph).
type NetDetector struct {
	net        gocv.Net
	confidence float64
}

// NewNetDetector loads the face detection network from the given model and
// config files. Both files must exist on disk.
func NewNetDetector(modelFile, configFile string, confidence float64) (*NetDetector, error) {
	if _, err := os.Stat(modelFile); err != nil {
		return nil, fmt.Errorf("model file %s: %w", modelFile, err)
	}
	if _, err := os.Stat(configFile); err != nil {
		return nil, fmt.Errorf("config file %s: %w", configFile, err)
	}

	net := gocv.ReadNet(modelFile, configFile)
	if net.Empty() {
		return nil, fmt.Errorf("read network from %s", modelFile)
	}

	return &NetDetector{
		net:        net,
		confidence: confidence,
	}, nil
}

// Detect runs a forward pass and returns face rectangles whose confidence is
// strictly greater than the configured threshold. Rectangles are converted
// from the network's normalized coordinates to absolute pixels by truncation
// and may fall outside the frame bounds; callers clamp at obscure time.
func (d *NetDetector) Detect(frame *gocv.Mat) ([]FaceRect, error) {
	if frame == nil || frame.Empty() {
		return nil, errors.New("empty frame")
	}

	blob := gocv.BlobFromImage(*frame, 1.0,
		image.Pt(netInputSize, netInputSize),
		gocv.NewScalar(104, 117, 123, 0),
		false, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	prob := d.net.Forward("")
	defer prob.Close()

	width := float32(frame.Cols())
	height := float32(frame.Rows())

	// Each output slot is 7 floats: [id, label, confidence, x1, y1, x2, y2]
	// with box coordinates as fractions of the frame dimensions.
	faces := []FaceRect{}
	for i := 0; i < prob.Total(); i += 7 {
		confidence := float64(prob.GetFloatAt(0, i+2))
		if confidence <= d.confidence {
			continue
		}

		x1 := int(prob.GetFloatAt(0, i+3) * width)
		y1 := int(prob.GetFloatAt(0, i+4) * height)
		x2 := int(prob.GetFloatAt(0, i+5) * width)
		y2 := int(prob.GetFloatAt(0, i+6) * height)

		faces = append(faces, FaceRect{
			X:      x1,
			Y:      y1,
			Width:  x2 - x1,
			Height: y2 - y1,
		})
	}

	return faces, nil
}

// Close releases the network.
func (d *NetDetector) Close() error {
	return d.net.Close()
}
