package transport

import (
	"context"
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go-id-capture/internal/config"
	apperrors "go-id-capture/internal/errors"
	"go-id-capture/internal/service"
	"go-id-capture/pkg/models"

	"github.com/gin-gonic/gin"
)

func testConfig() *config.Config {
	return &config.Config{
		RequestTimeout:     5 * time.Second,
		MaxRequestBodySize: 1 << 20,
	}
}

type stubFrameService struct {
	detection *models.Detection
	crop      *image.RGBA
	err       error
}

func (s *stubFrameService) AnalyzeFrame(ctx context.Context, frameURL string) (*models.Detection, error) {
	return s.detection, s.err
}

func (s *stubFrameService) CropDocument(ctx context.Context, frameURL string) (*image.RGBA, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.crop, nil
}

type stubExtractionService struct {
	result *models.ExtractionResult
	err    error
}

func (s *stubExtractionService) ExtractFromImage(ctx context.Context, crop image.Image, opts service.ExtractOptions) (*models.ExtractionResult, error) {
	return s.result, s.err
}

func (s *stubExtractionService) ExtractFromText(raw string) *models.ExtractionResult {
	return s.result
}

type stubSessionService struct {
	outcome *models.TickOutcome
	latest  *models.ExtractionResult
	err     error
}

func (s *stubSessionService) Tick(ctx context.Context, frameURL string) (*models.TickOutcome, error) {
	return s.outcome, s.err
}

func (s *stubSessionService) LatestExtraction() *models.ExtractionResult {
	return s.latest
}

func (s *stubSessionService) Close() {}

func testHandler(frames service.FrameService, extraction service.ExtractionService,
	session service.CaptureSessionService) http.Handler {
	gin.SetMode(gin.TestMode)
	return NewHandler(frames, extraction, session, testConfig())
}

func doJSON(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	handler := testHandler(&stubFrameService{}, &stubExtractionService{}, &stubSessionService{})

	rec := doJSON(t, handler, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body["status"] != "available" {
		t.Errorf("Expected status 'available', got %v", body["status"])
	}
}

func TestAnalyze(t *testing.T) {
	detection := &models.Detection{
		Box:        models.BoundingBox{X: 100, Y: 80, Width: 240, Height: 150},
		Confidence: 0.82,
		Timestamp:  time.Now(),
	}

	t.Run("detection found", func(t *testing.T) {
		handler := testHandler(&stubFrameService{detection: detection}, &stubExtractionService{}, &stubSessionService{})

		rec := doJSON(t, handler, http.MethodPost, "/analyze", `{"url":"http://frames.local/cam0.jpg"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var body struct {
			Detected  bool              `json:"detected"`
			Detection *models.Detection `json:"detection"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("Failed to decode body: %v", err)
		}
		if !body.Detected || body.Detection == nil {
			t.Fatalf("Expected a detection in the response, got %s", rec.Body.String())
		}
		if body.Detection.Box.Width != 240 {
			t.Errorf("Expected box width 240, got %d", body.Detection.Box.Width)
		}
	})

	t.Run("no detection", func(t *testing.T) {
		handler := testHandler(&stubFrameService{}, &stubExtractionService{}, &stubSessionService{})

		rec := doJSON(t, handler, http.MethodPost, "/analyze", `{"url":"http://frames.local/cam0.jpg"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"detected":false`) {
			t.Errorf("Expected detected:false, got %s", rec.Body.String())
		}
	})

	t.Run("missing url", func(t *testing.T) {
		handler := testHandler(&stubFrameService{}, &stubExtractionService{}, &stubSessionService{})

		rec := doJSON(t, handler, http.MethodPost, "/analyze", `{}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", rec.Code)
		}
	})

	t.Run("upstream failure maps to typed status", func(t *testing.T) {
		failing := &stubFrameService{err: apperrors.NewResourceError("frame source unavailable", nil)}
		handler := testHandler(failing, &stubExtractionService{}, &stubSessionService{})

		rec := doJSON(t, handler, http.MethodPost, "/analyze", `{"url":"http://frames.local/cam0.jpg"}`)
		if rec.Code != http.StatusBadGateway {
			t.Errorf("Expected 502, got %d", rec.Code)
		}
	})
}

func TestExtract(t *testing.T) {
	result := &models.ExtractionResult{
		Name:   "JUAN SANTOS DELA CRUZ",
		Found:  true,
		Format: models.FormatPhilHealth,
	}

	t.Run("success", func(t *testing.T) {
		frames := &stubFrameService{crop: image.NewRGBA(image.Rect(0, 0, 240, 150))}
		handler := testHandler(frames, &stubExtractionService{result: result}, &stubSessionService{})

		rec := doJSON(t, handler, http.MethodPost, "/extract", `{"url":"http://frames.local/cam0.jpg"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var body models.ExtractionResult
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("Failed to decode body: %v", err)
		}
		if body.Name != "JUAN SANTOS DELA CRUZ" {
			t.Errorf("Expected extracted name, got %q", body.Name)
		}
	})

	t.Run("unknown pipeline step", func(t *testing.T) {
		frames := &stubFrameService{crop: image.NewRGBA(image.Rect(0, 0, 240, 150))}
		handler := testHandler(frames, &stubExtractionService{result: result}, &stubSessionService{})

		rec := doJSON(t, handler, http.MethodPost, "/extract",
			`{"url":"http://frames.local/cam0.jpg","pipeline":[{"name":"posterize"}]}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400 for unknown transform, got %d", rec.Code)
		}
	})

	t.Run("no document detected", func(t *testing.T) {
		failing := &stubFrameService{err: apperrors.NewValidationError("no document detected in frame", nil)}
		handler := testHandler(failing, &stubExtractionService{result: result}, &stubSessionService{})

		rec := doJSON(t, handler, http.MethodPost, "/extract", `{"url":"http://frames.local/cam0.jpg"}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", rec.Code)
		}
	})
}

func TestExtractText(t *testing.T) {
	result := &models.ExtractionResult{Name: "JUAN DELA CRUZ", Found: true, Format: models.FormatGeneric}
	handler := testHandler(&stubFrameService{}, &stubExtractionService{result: result}, &stubSessionService{})

	rec := doJSON(t, handler, http.MethodPost, "/extract-text", `{"text":"JUAN DELA CRUZ"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "JUAN DELA CRUZ") {
		t.Errorf("Expected extracted name in body, got %s", rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodPost, "/extract-text", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing text, got %d", rec.Code)
	}
}

func TestTickAndLatest(t *testing.T) {
	outcome := &models.TickOutcome{Stable: true, Captured: true, State: "capturing"}
	latest := &models.ExtractionResult{Name: "JUAN DELA CRUZ", Found: true}
	session := &stubSessionService{outcome: outcome, latest: latest}
	handler := testHandler(&stubFrameService{}, &stubExtractionService{}, session)

	rec := doJSON(t, handler, http.MethodPost, "/tick", `{"url":"http://frames.local/cam0.jpg"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"captured":true`) {
		t.Errorf("Expected captured outcome, got %s", rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodGet, "/capture/latest", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"available":true`) {
		t.Errorf("Expected an available result, got %s", rec.Body.String())
	}

	empty := &stubSessionService{outcome: outcome}
	handler = testHandler(&stubFrameService{}, &stubExtractionService{}, empty)
	rec = doJSON(t, handler, http.MethodGet, "/capture/latest", "")
	if !strings.Contains(rec.Body.String(), `"available":false`) {
		t.Errorf("Expected no available result, got %s", rec.Body.String())
	}
}
