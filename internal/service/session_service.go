package service

import (
	"context"
	"image"
	"sync"
	"time"

	"go-id-capture/internal/analyzer"
	"go-id-capture/internal/capture"
	"go-id-capture/internal/logger"
	"go-id-capture/internal/observer"
	"go-id-capture/internal/repository"
	"go-id-capture/pkg/models"
)

// CaptureSessionService drives one auto-capture session: the caller feeds
// frames at the source's cadence, the controller decides when to capture,
// and each capture flows through the extraction pipeline in the background.
type CaptureSessionService interface {
	// Tick fetches one frame and advances the capture state machine.
	Tick(ctx context.Context, frameURL string) (*models.TickOutcome, error)

	// LatestExtraction returns the result of the most recent completed
	// capture, or nil when none has completed yet.
	LatestExtraction() *models.ExtractionResult

	// Close stops the session; subsequent ticks are no-ops.
	Close()
}

type captureSessionService struct {
	repo       repository.FrameRepository
	controller *capture.Controller
	extraction ExtractionService

	mu     sync.RWMutex
	latest *models.ExtractionResult
}

// NewCaptureSessionService wires a controller whose capture events feed the
// extraction service. The detection sink is caller-supplied UI feedback and
// may be nil.
func NewCaptureSessionService(repo repository.FrameRepository, cfg capture.ControllerConfig,
	gateCfg capture.GateConfig, detector analyzer.FrameDetector,
	extraction ExtractionService, detectionSink observer.DetectionSink) (CaptureSessionService, error) {

	svc := &captureSessionService{repo: repo, extraction: extraction}

	gate, err := capture.NewGate(gateCfg)
	if err != nil {
		return nil, err
	}

	controller, err := capture.NewController(cfg, detector, gate, nil, detectionSink,
		observer.CaptureSinkFunc(svc.onCapture))
	if err != nil {
		return nil, err
	}
	svc.controller = controller

	return svc, nil
}

func (s *captureSessionService) Tick(ctx context.Context, frameURL string) (*models.TickOutcome, error) {
	img, err := s.repo.FetchFrame(ctx, frameURL)
	if err != nil {
		return nil, err
	}
	outcome := s.controller.Tick(img, time.Now())
	return &outcome, nil
}

// onCapture receives the preprocessed crop exactly once per stable episode
// and runs the slow OCR extraction off the tick path.
func (s *captureSessionService) onCapture(img *image.RGBA, det models.Detection) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		// The crop was already preprocessed by the controller's pipeline.
		result, err := s.extraction.ExtractFromImage(ctx, img, ExtractOptions{
			Pipeline: passthrough,
		})
		if err != nil {
			logger.WithError(err).Error("Capture extraction failed")
			return
		}

		s.mu.Lock()
		s.latest = result
		s.mu.Unlock()
	}()
}

// passthrough skips re-preprocessing for crops the controller already ran
// through its pipeline.
func passthrough(img *image.RGBA) *image.RGBA {
	return img
}

func (s *captureSessionService) LatestExtraction() *models.ExtractionResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

func (s *captureSessionService) Close() {
	s.controller.Close()
}
