package anonymizer

import (
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// ErrEmptyFrame is returned when a nil or empty frame is handed in. Decoding
// is the caller's job; the processor never decodes bytes itself.
var ErrEmptyFrame = errors.New("empty frame")

// Processor detects faces in frames and obscures them in place. The detector
// strategy is chosen once at construction: the network detector when its
// model files are present, the Haar cascade otherwise. There is no runtime
// re-selection.
//
// Method and factor are guarded by a mutex so a Processor may be shared, but
// request paths should prefer ProcessFrameWith with explicit options over
// mutating shared configuration between calls.
type Processor struct {
	detector Detector
	fallback bool

	mu     sync.RWMutex
	method Method
	factor int
}

// New creates a Processor from the given configuration. When cfg.Detector is
// nil the detector is selected from the model files on disk; a missing or
// unreadable network model triggers a permanent fallback to the Haar
// cascade, logged once.
func New(cfg Config) (*Processor, error) {
	p := &Processor{
		method: cfg.Method,
		factor: cfg.Factor,
	}
	if p.method != Gaussian && p.method != Pixelate {
		p.method = Gaussian
	}
	if p.factor < 1 {
		p.factor = 30
	}

	confidence := cfg.Confidence
	if confidence == 0 {
		confidence = 0.5
	}

	if cfg.Detector != nil {
		p.detector = cfg.Detector
		return p, nil
	}

	if net, err := NewNetDetector(cfg.ModelFile, cfg.ConfigFile, confidence); err == nil {
		p.detector = net
		log.Info("Using DNN face detector")
		return p, nil
	} else {
		log.Warnf("DNN face detection model not available (%v), falling back to Haar cascade", err)
	}

	cascade, err := NewCascadeDetector(cfg.CascadeFile)
	if err != nil {
		return nil, fmt.Errorf("no usable face detector: %w", err)
	}
	p.detector = cascade
	p.fallback = true

	return p, nil
}

// ProcessFrame detects faces in the frame and obscures each one in place
// using the processor's current method and factor. It returns the number of
// faces detected, which counts every detection even when its region clamps
// to a no-op.
func (p *Processor) ProcessFrame(frame *gocv.Mat) (int, error) {
	p.mu.RLock()
	method := p.method
	factor := p.factor
	p.mu.RUnlock()

	return p.ProcessFrameWith(frame, method, factor)
}

// ProcessFrameWith is ProcessFrame with explicit per-call options, so
// concurrent callers need not mutate shared configuration. An unknown method
// falls back to the processor's configured method; a factor below 1 is
// clamped to 1.
func (p *Processor) ProcessFrameWith(frame *gocv.Mat, method Method, factor int) (int, error) {
	if frame == nil || frame.Empty() {
		return 0, ErrEmptyFrame
	}

	if method != Gaussian && method != Pixelate {
		p.mu.RLock()
		method = p.method
		p.mu.RUnlock()
	}
	if factor < 1 {
		factor = 1
	}

	faces, err := p.detector.Detect(frame)
	if err != nil {
		return 0, fmt.Errorf("detect faces: %w", err)
	}

	for _, face := range faces {
		if err := Obscure(frame, face, method, factor); err != nil {
			return len(faces), fmt.Errorf("obscure face: %w", err)
		}
	}

	return len(faces), nil
}

// SetMethod sets the obscuring method. Unknown values are silently ignored
// and the previous method is retained.
func (p *Processor) SetMethod(method Method) {
	if method != Gaussian && method != Pixelate {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.method = method
}

// SetFactor sets the filter intensity, clamped to a minimum of 1.
func (p *Processor) SetFactor(factor int) {
	if factor < 1 {
		factor = 1
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.factor = factor
}

// Method returns the current obscuring method.
func (p *Processor) Method() Method {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.method
}

// Factor returns the current filter intensity.
func (p *Processor) Factor() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.factor
}

// Fallback reports whether the cascade fallback detector is active.
func (p *Processor) Fallback() bool {
	return p.fallback
}

// Close releases the detector.
func (p *Processor) Close() error {
	if p.detector == nil {
		return nil
	}
	return p.detector.Close()
}
