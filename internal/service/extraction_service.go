package service

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"go-id-capture/internal/extractor"
	"go-id-capture/internal/logger"
	"go-id-capture/internal/ocr"
	"go-id-capture/internal/preprocess"
	"go-id-capture/internal/storage"
	"go-id-capture/pkg/models"

	"github.com/sirupsen/logrus"
)

// ExtractOptions configures one extraction call.
type ExtractOptions struct {
	// Pipeline overrides the default preprocessing pipeline; nil keeps it.
	Pipeline preprocess.Transform

	// ExpectedText enables WER/CER verification against a known name.
	ExpectedText string
}

// ExtractionService runs OCR plus name extraction over a captured document
// crop.
type ExtractionService interface {
	// ExtractFromImage preprocesses the crop, invokes the OCR engine, and
	// parses the name. When extraction is empty it retries exactly once with
	// the alternate preprocessing pipeline; low-confidence non-empty results
	// are never retried.
	ExtractFromImage(ctx context.Context, crop image.Image, opts ExtractOptions) (*models.ExtractionResult, error)

	// ExtractFromText parses a name from raw OCR text without engine calls.
	ExtractFromText(raw string) *models.ExtractionResult
}

type extractionService struct {
	engine    ocr.Engine
	primary   preprocess.Transform
	alternate preprocess.Transform
	archive   storage.CaptureArchive // optional
	retries   int

	// Serializes extraction per capture: two engine calls for the same
	// capture must never overlap.
	mu sync.Mutex
}

// NewExtractionService creates the extraction orchestrator. The archive may
// be nil; retries is capped at one alternate-preprocessing attempt.
func NewExtractionService(engine ocr.Engine, archive storage.CaptureArchive, retries int) ExtractionService {
	if retries < 0 {
		retries = 0
	}
	if retries > 1 {
		retries = 1
	}
	return &extractionService{
		engine:    engine,
		primary:   preprocess.DefaultOCRPipeline(),
		alternate: preprocess.AlternateOCRPipeline(),
		archive:   archive,
		retries:   retries,
	}
}

func (s *extractionService) ExtractFromImage(ctx context.Context, crop image.Image, opts ExtractOptions) (*models.ExtractionResult, error) {
	start := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	pipeline := s.primary
	if opts.Pipeline != nil {
		pipeline = opts.Pipeline
	}

	source := preprocess.ToRGBA(crop)
	processed := pipeline(preprocess.ToRGBA(crop))

	s.archiveCrop(processed)

	ocrResult, err := s.engine.Recognize(ctx, processed)
	if err != nil {
		return nil, err
	}

	result := s.buildResult(ocrResult)

	// The fallback retry triggers only on an empty extraction, never on a
	// low-confidence but non-empty read.
	if !result.Found && s.retries > 0 {
		logger.WithField("ocr_confidence", ocrResult.Confidence).
			Debug("Empty extraction, retrying with alternate preprocessing")

		retryResult, retryErr := s.engine.Recognize(ctx, s.alternate(source))
		if retryErr != nil {
			// The first call succeeded; report its empty outcome instead of
			// failing the whole extraction on the retry.
			logger.WithError(retryErr).Warn("Alternate-preprocessing retry failed")
		} else {
			result = s.buildResult(retryResult)
		}
		result.Retried = true
	}

	if opts.ExpectedText != "" {
		wer := WordErrorRate(opts.ExpectedText, result.Name)
		cer := CharErrorRate(opts.ExpectedText, result.Name)
		result.WER = &wer
		result.CER = &cer
	}

	result.ProcessingTimeSec = time.Since(start).Seconds()

	logger.WithFields(logrus.Fields{
		"found":   result.Found,
		"format":  result.Format,
		"retried": result.Retried,
	}).Info("Extraction completed")

	return result, nil
}

func (s *extractionService) ExtractFromText(raw string) *models.ExtractionResult {
	start := time.Now()
	name, format, found := extractor.Extract(raw)
	return &models.ExtractionResult{
		Name:              name,
		Found:             found,
		Format:            format,
		OCRText:           raw,
		ProcessingTimeSec: time.Since(start).Seconds(),
	}
}

func (s *extractionService) buildResult(ocrResult *models.OCRResult) *models.ExtractionResult {
	name, format, found := extractor.Extract(ocrResult.Text)
	return &models.ExtractionResult{
		Name:          name,
		Found:         found,
		Format:        format,
		OCRText:       ocrResult.Text,
		OCRConfidence: ocrResult.Confidence,
	}
}

// archiveCrop uploads the preprocessed crop in the background. Archive
// failures are logged, never propagated: archiving must not fail a capture.
func (s *extractionService) archiveCrop(img *image.RGBA) {
	if s.archive == nil {
		return
	}
	name := fmt.Sprintf("capture-%s.png", time.Now().UTC().Format("20060102T150405.000Z0700"))
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.archive.Store(ctx, name, img); err != nil {
			logger.WithError(err).WithField("blob", name).Warn("Failed to archive capture")
		}
	}()
}
