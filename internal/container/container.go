package container

import (
	"fmt"
	"net/http"

	"go-id-capture/internal/analyzer"
	"go-id-capture/internal/config"
	"go-id-capture/internal/logger"
	"go-id-capture/internal/observer"
	"go-id-capture/internal/ocr"
	"go-id-capture/internal/repository"
	"go-id-capture/internal/service"
	"go-id-capture/internal/storage"
	"go-id-capture/internal/transport"
)

// Container holds all application dependencies
type Container struct {
	config            *config.Config
	imageFetcher      storage.ImageFetcher
	frameRepository   repository.FrameRepository
	detector          *analyzer.Detector
	ocrEngine         ocr.Engine
	captureArchive    storage.CaptureArchive
	frameService      service.FrameService
	extractionService service.ExtractionService
	captureSession    service.CaptureSessionService
	handler           http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer() (*Container, error) {
	// Load configuration
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Build dependency graph
	imageFetcher := storage.NewHTTPImageFetcher()
	frameRepository := repository.NewHTTPFrameRepository(imageFetcher)

	detector, err := analyzer.NewDetector(cfg.DetectorOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to build detector: %w", err)
	}

	ocrEngine, err := ocr.NewTesseractEngine(cfg.OCRConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OCR engine: %w", err)
	}

	var captureArchive storage.CaptureArchive
	if cfg.ArchiveEnabled() {
		captureArchive, err = storage.NewAzureArchive(cfg.AzureAccountName, cfg.AzureAccountKey, cfg.AzureContainer)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize capture archive: %w", err)
		}
	}

	extractionService := service.NewExtractionService(ocrEngine, captureArchive, cfg.ExtractRetries)
	frameService := service.NewFrameService(frameRepository, detector, cfg.CropPadding)

	captureSession, err := service.NewCaptureSessionService(frameRepository, cfg.ControllerConfig(),
		cfg.GateConfig(), detector, extractionService,
		observer.NewLoggingDetectionSink(logger.Logger))
	if err != nil {
		return nil, fmt.Errorf("failed to build capture session: %w", err)
	}

	handler := transport.NewHandler(frameService, extractionService, captureSession, cfg)

	return &Container{
		config:            cfg,
		imageFetcher:      imageFetcher,
		frameRepository:   frameRepository,
		detector:          detector,
		ocrEngine:         ocrEngine,
		captureArchive:    captureArchive,
		frameService:      frameService,
		extractionService: extractionService,
		captureSession:    captureSession,
		handler:           handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Close releases the OCR engine and stops the capture session.
func (c *Container) Close() error {
	c.captureSession.Close()
	return c.ocrEngine.Close()
}
