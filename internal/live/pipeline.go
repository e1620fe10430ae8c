package live

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/pmalhotra/faceveil/internal/anonymizer"
)

// Pipeline timing constants.
const (
	// IdleFPS is the frame rate when the scene is static.
	IdleFPS = 5
	// ActiveFPS is the frame rate while motion is present.
	ActiveFPS = 15
	// idleTimeout is how long after the last motion the pipeline drops back
	// to idle.
	idleTimeout = 2 * time.Second
)

// Pipeline reads frames from a local camera, anonymizes each one through the
// shared processor and fans the JPEG-encoded result out to subscribers.
// Frames are processed independently; there is no tracking across frames.
type Pipeline struct {
	camera Camera
	motion *MotionDetector
	proc   *anonymizer.Processor

	mu     sync.Mutex
	subs   map[chan []byte]struct{}
	paused bool
	stopCh chan struct{}
}

// NewPipeline creates a Pipeline reading from camera and anonymizing with
// proc. motionThreshold is the changed-pixel percentage that switches the
// camera to the active frame rate; <= 0 selects a 1% default.
func NewPipeline(camera Camera, proc *anonymizer.Processor, motionThreshold float64) *Pipeline {
	if motionThreshold <= 0 {
		motionThreshold = 1.0
	}

	return &Pipeline{
		camera: camera,
		motion: NewMotionDetector(motionThreshold),
		proc:   proc,
		subs:   make(map[chan []byte]struct{}),
	}
}

// Start opens the camera and begins the capture loop.
func (p *Pipeline) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopCh != nil {
		return nil
	}

	if err := p.camera.Open(); err != nil {
		return err
	}
	p.camera.SetFPS(IdleFPS)

	p.stopCh = make(chan struct{})
	go p.run(p.stopCh)

	log.Info("Live anonymization pipeline started")
	return nil
}

// Stop halts the capture loop and releases the camera.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopCh == nil {
		return
	}
	close(p.stopCh)
	p.stopCh = nil

	if err := p.camera.Close(); err != nil {
		log.Warnf("Error closing camera: %v", err)
	}
	p.motion.Close()

	log.Info("Live anonymization pipeline stopped")
}

// SetPaused pauses or resumes frame publication. While paused the camera
// stays open but no frames are processed or delivered.
func (p *Pipeline) SetPaused(paused bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = paused
}

// IsPaused reports whether the pipeline is paused.
func (p *Pipeline) IsPaused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// Subscribe registers a frame consumer. The returned channel carries
// JPEG-encoded anonymized frames; slow consumers miss frames rather than
// stalling the pipeline. The cancel function must be called when done.
func (p *Pipeline) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, 1)

	p.mu.Lock()
	p.subs[ch] = struct{}{}
	p.mu.Unlock()

	cancel := func() {
		p.mu.Lock()
		delete(p.subs, ch)
		p.mu.Unlock()
	}
	return ch, cancel
}

// run is the capture loop. It idles at IdleFPS, switches to ActiveFPS while
// motion is present, and drops back after idleTimeout without motion.
func (p *Pipeline) run(stopCh chan struct{}) {
	activeMode := false
	lastMotion := time.Now()

	frameInterval := time.Second / time.Duration(IdleFPS)
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if p.IsPaused() {
				continue
			}

			frame, err := p.camera.ReadFrame()
			if err != nil {
				continue
			}

			if p.motion.Detect(frame) {
				lastMotion = time.Now()
				if !activeMode {
					activeMode = true
					p.camera.SetFPS(ActiveFPS)
					ticker.Reset(time.Second / time.Duration(ActiveFPS))
				}
			} else if activeMode && time.Since(lastMotion) > idleTimeout {
				activeMode = false
				p.camera.SetFPS(IdleFPS)
				ticker.Reset(time.Second / time.Duration(IdleFPS))
			}

			if _, err := p.proc.ProcessFrame(frame); err != nil {
				log.Warnf("Error processing live frame: %v", err)
				frame.Close()
				continue
			}

			buf, err := gocv.IMEncode(".jpg", *frame)
			frame.Close()
			if err != nil {
				continue
			}

			data := append([]byte(nil), buf.GetBytes()...)
			buf.Close()
			p.publish(data)
		}
	}
}

// publish delivers a frame to every subscriber without blocking.
func (p *Pipeline) publish(data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for ch := range p.subs {
		select {
		case ch <- data:
		default:
		}
	}
}
