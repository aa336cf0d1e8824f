package service

import (
	"context"
	"image"
	"time"

	"go-id-capture/internal/analyzer"
	apperrors "go-id-capture/internal/errors"
	"go-id-capture/internal/preprocess"
	"go-id-capture/internal/repository"
	"go-id-capture/pkg/models"
)

// FrameService analyzes a single frame fetched from the frame source.
type FrameService interface {
	// AnalyzeFrame fetches and analyzes a frame. A nil detection with a nil
	// error means nothing document-like was found; only validation and
	// frame-source failures return errors.
	AnalyzeFrame(ctx context.Context, frameURL string) (*models.Detection, error)

	// CropDocument fetches a frame, detects the document and returns the
	// padded crop. Unlike AnalyzeFrame, a missing detection is an error here
	// because the caller needs a region to work with.
	CropDocument(ctx context.Context, frameURL string) (*image.RGBA, error)
}

type frameService struct {
	repo        repository.FrameRepository
	detector    analyzer.FrameDetector
	cropPadding int
}

// NewFrameService creates a frame analysis service.
func NewFrameService(repo repository.FrameRepository, detector analyzer.FrameDetector, cropPadding int) FrameService {
	return &frameService{repo: repo, detector: detector, cropPadding: cropPadding}
}

func (s *frameService) AnalyzeFrame(ctx context.Context, frameURL string) (*models.Detection, error) {
	img, err := s.repo.FetchFrame(ctx, frameURL)
	if err != nil {
		return nil, err
	}
	return s.detector.Detect(img, time.Now()), nil
}

func (s *frameService) CropDocument(ctx context.Context, frameURL string) (*image.RGBA, error) {
	img, err := s.repo.FetchFrame(ctx, frameURL)
	if err != nil {
		return nil, err
	}

	det := s.detector.Detect(img, time.Now())
	if det == nil {
		return nil, apperrors.NewValidationError("no document detected in frame", nil)
	}

	bounds := img.Bounds()
	box := det.Box.Pad(s.cropPadding).Clamp(bounds.Dx(), bounds.Dy())
	if box.Empty() {
		return nil, apperrors.NewValidationError("detected region is empty after clamping", nil)
	}
	return preprocess.Crop(img, box), nil
}
