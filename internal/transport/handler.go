package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go-id-capture/internal/config"
	apperrors "go-id-capture/internal/errors"
	"go-id-capture/internal/logger"
	"go-id-capture/internal/preprocess"
	"go-id-capture/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func validateFrameURL(frameURL string) error {
	parsedURL, err := url.Parse(frameURL)
	if err != nil {
		return apperrors.NewValidationError("Invalid URL format", err)
	}
	if parsedURL.Host == "" {
		return apperrors.NewValidationError("URL must have a valid host", nil)
	}

	return nil
}

type AnalysisRequest struct {
	URL string `json:"url" binding:"required,url"`
}

type ExtractionRequest struct {
	URL          string            `json:"url" binding:"required,url"`
	Pipeline     []preprocess.Step `json:"pipeline,omitempty"`
	ExpectedText string            `json:"expected_text,omitempty"`
}

type TextExtractionRequest struct {
	Text string `json:"text" binding:"required"`
}

type TickRequest struct {
	URL string `json:"url" binding:"required,url"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func NewHandler(frames service.FrameService, extraction service.ExtractionService,
	session service.CaptureSessionService, cfg *config.Config) http.Handler {
	r := gin.Default()

	r.Use(
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	r.GET("/health", healthCheck)
	r.POST("/analyze", analyzeFrame(frames, cfg))
	r.POST("/extract", extractFromURL(frames, extraction, cfg))
	r.POST("/extract-text", extractFromText(extraction))
	r.POST("/tick", tickSession(session, cfg))
	r.GET("/capture/latest", latestCapture(session))

	return r
}

// analyzeFrame runs the document detector over one frame and reports the
// detection, if any, without touching the capture state machine.
func analyzeFrame(frames service.FrameService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		var req AnalysisRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}
		if err := validateFrameURL(req.URL); err != nil {
			respondError(c, apperrors.GetStatusCode(err), "invalid frame URL", err)
			return
		}

		det, err := frames.AnalyzeFrame(ctx, req.URL)
		if err != nil {
			respondError(c, determineStatusCode(err), "frame analysis failed", err)
			return
		}

		logger.WithFields(logrus.Fields{
			"url":                req.URL,
			"detected":           det != nil,
			"processing_time_ms": time.Since(startTime).Milliseconds(),
		}).Info("Frame analysis completed")

		if det == nil {
			c.JSON(http.StatusOK, gin.H{"detected": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"detected": true, "detection": det})
	}
}

// extractFromURL detects the document in one frame, crops it and runs the
// full OCR extraction pipeline. An optional pipeline override lets callers
// swap the preprocessing steps.
func extractFromURL(frames service.FrameService, extraction service.ExtractionService,
	cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		var req ExtractionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}
		if err := validateFrameURL(req.URL); err != nil {
			respondError(c, apperrors.GetStatusCode(err), "invalid frame URL", err)
			return
		}

		opts := service.ExtractOptions{ExpectedText: req.ExpectedText}
		if len(req.Pipeline) > 0 {
			pipeline, err := preprocess.Build(req.Pipeline)
			if err != nil {
				respondError(c, http.StatusBadRequest, "invalid pipeline", err)
				return
			}
			opts.Pipeline = pipeline
		}

		crop, err := frames.CropDocument(ctx, req.URL)
		if err != nil {
			respondError(c, determineStatusCode(err), "document crop failed", err)
			return
		}

		result, err := extraction.ExtractFromImage(ctx, crop, opts)
		if err != nil {
			respondError(c, determineStatusCode(err), "extraction failed", err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// extractFromText parses a name from caller-supplied OCR text. This never
// fails: unparseable text yields an empty result.
func extractFromText(extraction service.ExtractionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req TextExtractionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}

		c.JSON(http.StatusOK, extraction.ExtractFromText(req.Text))
	}
}

// tickSession advances the shared auto-capture session with one frame.
func tickSession(session service.CaptureSessionService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		var req TickRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}
		if err := validateFrameURL(req.URL); err != nil {
			respondError(c, apperrors.GetStatusCode(err), "invalid frame URL", err)
			return
		}

		outcome, err := session.Tick(ctx, req.URL)
		if err != nil {
			respondError(c, determineStatusCode(err), "tick failed", err)
			return
		}

		c.JSON(http.StatusOK, outcome)
	}
}

// latestCapture reports the extraction result of the most recent capture.
func latestCapture(session service.CaptureSessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		result := session.LatestExtraction()
		if result == nil {
			c.JSON(http.StatusOK, gin.H{"available": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"available": true, "result": result})
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": "1.0.0",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()
			respondError(c, determineStatusCode(err), "request processing failed", err)
		}
	}
}

func determineStatusCode(err error) int {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	c.AbortWithStatusJSON(code, ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}
