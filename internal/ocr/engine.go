// Package ocr wraps the Tesseract engine behind a small interface. The
// engine is treated as an opaque, possibly slow, possibly low-accuracy
// collaborator: failures surface as typed, retryable errors and confidence
// is informational only.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"sync"

	apperrors "go-id-capture/internal/errors"
	"go-id-capture/internal/preprocess"
	"go-id-capture/pkg/models"

	"github.com/otiai10/gosseract/v2"
)

// Engine recognizes text in a preprocessed document crop.
type Engine interface {
	Recognize(ctx context.Context, img *image.RGBA) (*models.OCRResult, error)
	Close() error
}

// Config tunes the Tesseract client.
type Config struct {
	// Language is the Tesseract language code, e.g. "eng".
	Language string

	// PageSegMode is "auto", "single_block" or "single_line".
	PageSegMode string

	// MinWidth upscales narrower crops before submission; small crops OCR
	// poorly at native resolution.
	MinWidth int
}

// DefaultConfig returns the engine settings for uppercase Latin ID text.
func DefaultConfig() Config {
	return Config{
		Language:    "eng",
		PageSegMode: "single_block",
		MinWidth:    600,
	}
}

type tesseractEngine struct {
	mu     sync.Mutex
	client *gosseract.Client
	cfg    Config
}

// NewTesseractEngine creates a Tesseract-backed engine. The client is reused
// across calls; the mutex serializes them, so two engine calls for the same
// capture can never overlap.
func NewTesseractEngine(cfg Config) (Engine, error) {
	client := gosseract.NewClient()

	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if err := client.SetLanguage(cfg.Language); err != nil {
		client.Close()
		return nil, apperrors.NewEngineError("failed to set OCR language", err, false)
	}

	psm, err := pageSegMode(cfg.PageSegMode)
	if err != nil {
		client.Close()
		return nil, apperrors.NewValidationError("invalid page segmentation mode", err)
	}
	if err := client.SetPageSegMode(psm); err != nil {
		client.Close()
		return nil, apperrors.NewEngineError("failed to set page segmentation mode", err, false)
	}

	return &tesseractEngine{client: client, cfg: cfg}, nil
}

func pageSegMode(mode string) (gosseract.PageSegMode, error) {
	switch mode {
	case "", "single_block":
		return gosseract.PSM_SINGLE_BLOCK, nil
	case "auto":
		return gosseract.PSM_AUTO, nil
	case "single_line":
		return gosseract.PSM_SINGLE_LINE, nil
	default:
		return 0, fmt.Errorf("unknown page segmentation mode %q", mode)
	}
}

// Recognize submits the crop to Tesseract and returns the raw text with the
// mean word confidence on a 0-100 scale.
func (e *tesseractEngine) Recognize(ctx context.Context, img *image.RGBA) (*models.OCRResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewTimeoutError("OCR cancelled before submission", err)
	}
	if img == nil || img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
		return nil, apperrors.NewValidationError("empty image submitted to OCR engine", nil)
	}

	img = preprocess.Upscale(img, e.cfg.MinWidth)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, apperrors.NewInternalError("failed to encode OCR input", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, apperrors.NewEngineError("failed to load image into OCR engine", err, true)
	}

	text, err := e.client.Text()
	if err != nil {
		return nil, apperrors.NewEngineError("OCR recognition failed", err, true)
	}

	return &models.OCRResult{
		Text:       text,
		Confidence: e.meanWordConfidence(),
	}, nil
}

// meanWordConfidence averages per-word confidence over the current image. A
// failure here degrades to zero confidence rather than failing the call;
// extraction proceeds regardless of confidence.
func (e *tesseractEngine) meanWordConfidence() float64 {
	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return 0
	}
	total := 0.0
	for _, box := range boxes {
		total += box.Confidence
	}
	return total / float64(len(boxes))
}

func (e *tesseractEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.client.Close()
}
