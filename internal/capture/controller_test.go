package capture

import (
	"image"
	"sync"
	"testing"
	"time"

	"go-id-capture/internal/observer"
	"go-id-capture/pkg/models"
)

// scriptedDetector returns a fixed detection for every frame, stamped with
// the tick time.
type scriptedDetector struct {
	box        models.BoundingBox
	confidence float64
	silent     bool
}

func (d *scriptedDetector) Detect(img image.Image, now time.Time) *models.Detection {
	if d.silent {
		return nil
	}
	return &models.Detection{
		Box:         d.box,
		Confidence:  d.confidence,
		Sharpness:   500,
		EdgeDensity: 0.2,
		Timestamp:   now,
	}
}

// captureRecorder counts capture events.
type captureRecorder struct {
	mu       sync.Mutex
	captures []models.Detection
}

func (r *captureRecorder) OnCapture(img *image.RGBA, det models.Detection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.captures = append(r.captures, det)
}

func (r *captureRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.captures)
}

func testControllerConfig() ControllerConfig {
	return ControllerConfig{
		Cooldown:    3 * time.Second,
		CropPadding: 12,
	}
}

func newTestController(t *testing.T, det *scriptedDetector, recorder *captureRecorder) *Controller {
	t.Helper()
	gate, err := NewGate(testGateConfig())
	if err != nil {
		t.Fatalf("Failed to create gate: %v", err)
	}
	controller, err := NewController(testControllerConfig(), det, gate, nil, nil, recorder)
	if err != nil {
		t.Fatalf("Failed to create controller: %v", err)
	}
	return controller
}

func testFrame() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 640, 480))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	return img
}

func TestTick_SingleCapturePerStableEpisode(t *testing.T) {
	det := &scriptedDetector{box: models.BoundingBox{X: 200, Y: 150, Width: 240, Height: 150}, confidence: 0.8}
	recorder := &captureRecorder{}
	controller := newTestController(t, det, recorder)
	defer controller.Close()

	frame := testFrame()
	base := time.Now()

	// Three agreeing ticks spanning 500ms produce exactly one capture.
	var captured int
	for i := 0; i < 3; i++ {
		outcome := controller.Tick(frame, base.Add(time.Duration(i)*250*time.Millisecond))
		if outcome.Captured {
			captured++
		}
	}
	if captured != 1 {
		t.Fatalf("Expected exactly one captured tick, got %d", captured)
	}
	if recorder.count() != 1 {
		t.Fatalf("Expected exactly one capture event, got %d", recorder.count())
	}
	if controller.State() != StateCapturing {
		t.Errorf("Expected capturing state after capture, got %s", controller.State())
	}
}

func TestTick_CooldownBlocksSecondCapture(t *testing.T) {
	det := &scriptedDetector{box: models.BoundingBox{X: 200, Y: 150, Width: 240, Height: 150}, confidence: 0.8}
	recorder := &captureRecorder{}
	controller := newTestController(t, det, recorder)
	defer controller.Close()

	frame := testFrame()
	base := time.Now()

	// First stable window captures.
	for i := 0; i < 3; i++ {
		controller.Tick(frame, base.Add(time.Duration(i)*250*time.Millisecond))
	}
	if recorder.count() != 1 {
		t.Fatalf("Expected one capture, got %d", recorder.count())
	}

	// A second stable window forms within the cooldown; it must not capture.
	for i := 3; i < 8; i++ {
		outcome := controller.Tick(frame, base.Add(time.Duration(i)*250*time.Millisecond))
		if outcome.Captured {
			t.Fatalf("Expected no capture during cooldown at tick %d", i)
		}
	}
	if recorder.count() != 1 {
		t.Errorf("Expected capture count to stay at 1, got %d", recorder.count())
	}
}

func TestTick_CapturesAgainAfterCooldown(t *testing.T) {
	det := &scriptedDetector{box: models.BoundingBox{X: 200, Y: 150, Width: 240, Height: 150}, confidence: 0.8}
	recorder := &captureRecorder{}
	controller := newTestController(t, det, recorder)
	defer controller.Close()

	frame := testFrame()
	base := time.Now()

	for i := 0; i < 3; i++ {
		controller.Tick(frame, base.Add(time.Duration(i)*250*time.Millisecond))
	}
	if recorder.count() != 1 {
		t.Fatalf("Expected one capture, got %d", recorder.count())
	}

	// Well past the cooldown, a fresh stable window captures again. The
	// in-tick watchdog recovers the idle state even if the deferred timer
	// has not fired for these synthetic timestamps.
	later := base.Add(10 * time.Second)
	for i := 0; i < 3; i++ {
		controller.Tick(frame, later.Add(time.Duration(i)*250*time.Millisecond))
	}
	if recorder.count() != 2 {
		t.Errorf("Expected a second capture after cooldown, got %d", recorder.count())
	}
}

func TestTick_NoDetectionNoCapture(t *testing.T) {
	det := &scriptedDetector{silent: true}
	recorder := &captureRecorder{}
	controller := newTestController(t, det, recorder)
	defer controller.Close()

	frame := testFrame()
	base := time.Now()
	for i := 0; i < 5; i++ {
		outcome := controller.Tick(frame, base.Add(time.Duration(i)*250*time.Millisecond))
		if outcome.Captured || outcome.Stable || outcome.Detection != nil {
			t.Fatalf("Expected empty outcome at tick %d, got %+v", i, outcome)
		}
	}
	if recorder.count() != 0 {
		t.Errorf("Expected no captures, got %d", recorder.count())
	}
}

func TestTick_AfterCloseIsNoOp(t *testing.T) {
	det := &scriptedDetector{box: models.BoundingBox{X: 200, Y: 150, Width: 240, Height: 150}, confidence: 0.8}
	recorder := &captureRecorder{}
	controller := newTestController(t, det, recorder)
	controller.Close()

	frame := testFrame()
	base := time.Now()
	for i := 0; i < 3; i++ {
		outcome := controller.Tick(frame, base.Add(time.Duration(i)*250*time.Millisecond))
		if outcome.Captured || outcome.Detection != nil {
			t.Fatal("Expected closed controller to ignore ticks")
		}
	}
	if recorder.count() != 0 {
		t.Errorf("Expected no captures after close, got %d", recorder.count())
	}

	// Closing twice is safe.
	controller.Close()
}

func TestNewController_RequiresDetectorAndGate(t *testing.T) {
	gate, err := NewGate(testGateConfig())
	if err != nil {
		t.Fatalf("Failed to create gate: %v", err)
	}
	if _, err := NewController(testControllerConfig(), nil, gate, nil, nil, nil); err == nil {
		t.Error("Expected error for nil detector")
	}

	det := &scriptedDetector{}
	if _, err := NewController(testControllerConfig(), det, nil, nil, nil, nil); err == nil {
		t.Error("Expected error for nil gate")
	}

	bad := ControllerConfig{Cooldown: 0, CropPadding: 12}
	if _, err := NewController(bad, det, gate, nil, nil, nil); err == nil {
		t.Error("Expected error for invalid config")
	}
}

var _ observer.CaptureSink = (*captureRecorder)(nil)
