package capture

import (
	"fmt"
	"image"
	"sync"
	"time"

	"go-id-capture/internal/analyzer"
	"go-id-capture/internal/logger"
	"go-id-capture/internal/observer"
	"go-id-capture/internal/preprocess"
	"go-id-capture/pkg/models"

	"github.com/sirupsen/logrus"
)

// State is the capture state machine position.
type State int32

const (
	StateIdle State = iota
	StateCapturing
)

func (s State) String() string {
	if s == StateCapturing {
		return "capturing"
	}
	return "idle"
}

// ControllerConfig tunes the capture arbitration around the stability gate.
type ControllerConfig struct {
	// Cooldown is the minimum wall-clock interval between two captures. The
	// controller stays in the capturing state for this long after a capture.
	Cooldown time.Duration

	// CropPadding is added around the winning box before cropping, clamped
	// to the frame bounds.
	CropPadding int
}

// DefaultControllerConfig returns the capture tuning used by the pipeline.
func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		Cooldown:    3 * time.Second,
		CropPadding: 12,
	}
}

// Validate checks the controller configuration.
func (c ControllerConfig) Validate() error {
	if c.Cooldown <= 0 {
		return fmt.Errorf("cooldown must be > 0")
	}
	if c.CropPadding < 0 {
		return fmt.Errorf("crop padding must be >= 0")
	}
	return nil
}

// Controller wraps the detector and stability gate in a state machine that
// emits exactly one capture event per stable episode. All mutable state
// (gate history, capture state, cooldown bookkeeping) is owned here and
// guarded by one mutex, so no tick observes a half-updated history.
type Controller struct {
	mu   sync.Mutex
	cfg  ControllerConfig
	det  analyzer.FrameDetector
	gate *Gate

	pipeline      preprocess.Transform
	detectionSink observer.DetectionSink
	captureSink   observer.CaptureSink

	state       State
	lastCapture time.Time
	resetTimer  *time.Timer
	closed      bool
}

// NewController creates a capture controller. The pipeline is applied to the
// crop before the capture sink sees it; a nil pipeline falls back to the
// default OCR pipeline. Sinks may be nil.
func NewController(cfg ControllerConfig, det analyzer.FrameDetector, gate *Gate,
	pipeline preprocess.Transform, detectionSink observer.DetectionSink,
	captureSink observer.CaptureSink) (*Controller, error) {

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if det == nil || gate == nil {
		return nil, fmt.Errorf("detector and gate are required")
	}
	if pipeline == nil {
		pipeline = preprocess.DefaultOCRPipeline()
	}

	return &Controller{
		cfg:           cfg,
		det:           det,
		gate:          gate,
		pipeline:      pipeline,
		detectionSink: detectionSink,
		captureSink:   captureSink,
	}, nil
}

// Tick analyzes one frame. At most one capture event is emitted per cooldown
// window, and no new analysis triggers a capture while the controller is
// still capturing.
func (c *Controller) Tick(frame image.Image, now time.Time) models.TickOutcome {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return models.TickOutcome{State: StateIdle.String()}
	}

	det := c.det.Detect(frame, now)
	if det != nil && c.detectionSink != nil {
		// Observational only: never block the tick waiting on the sink.
		go c.detectionSink.OnDetection(*det)
	}

	// Watchdog: if the deferred cooldown transition was lost, recover here
	// instead of locking out capture permanently.
	if c.state == StateCapturing && now.Sub(c.lastCapture) >= c.cfg.Cooldown {
		c.state = StateIdle
	}

	decision := c.gate.Observe(det, now)
	outcome := models.TickOutcome{Detection: det, Stable: decision.Stable}

	if !decision.Stable || c.state != StateIdle || now.Sub(c.lastCapture) < c.cfg.Cooldown {
		outcome.State = c.state.String()
		c.mu.Unlock()
		return outcome
	}

	// Enter the capturing state. The next stability episode starts fresh.
	c.state = StateCapturing
	c.lastCapture = now
	c.gate.Reset()
	best := *decision.Best
	c.resetTimer = time.AfterFunc(c.cfg.Cooldown, c.cooldownExpired)
	c.mu.Unlock()

	c.emitCapture(frame, best)

	outcome.Captured = true
	outcome.State = StateCapturing.String()
	return outcome
}

// emitCapture crops, preprocesses and delivers the winning frame region to
// the capture sink exactly once.
func (c *Controller) emitCapture(frame image.Image, best models.Detection) {
	bounds := frame.Bounds()
	box := best.Box.Pad(c.cfg.CropPadding).Clamp(bounds.Dx(), bounds.Dy())
	if box.Empty() {
		logger.WithField("box", best.Box.String()).Warn("Winning box collapsed to empty crop")
		return
	}

	crop := preprocess.Crop(frame, box)
	processed := c.pipeline(crop)

	logger.WithFields(logrus.Fields{
		"box":        box.String(),
		"confidence": best.Confidence,
	}).Info("Capture emitted")

	if c.captureSink != nil {
		c.captureSink.OnCapture(processed, best)
	}
}

// cooldownExpired is the deferred transition back to idle. It is idempotent
// and a no-op if the controller left the capturing state some other way or
// was closed.
func (c *Controller) cooldownExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if c.state == StateCapturing {
		c.state = StateIdle
	}
}

// State returns the current state machine position.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close halts future ticks and defuses the pending cooldown transition so it
// cannot fire into a torn-down controller.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.resetTimer != nil {
		c.resetTimer.Stop()
	}
	c.state = StateIdle
}
