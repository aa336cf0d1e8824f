package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"go-id-capture/internal/analyzer"
	"go-id-capture/internal/capture"
	"go-id-capture/internal/ocr"
)

// Config carries every named numeric tunable of the capture pipeline plus
// the server settings. Tunables are independent; none is behaviorally
// coupled to another.
type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	FrameFetchTimeout  time.Duration
	MaxRequestBodySize int64

	// Tick cadence of the external frame source, informational for sinks.
	TickInterval time.Duration

	// Detector thresholds
	EdgeThreshold  int
	MinArea        int
	MinAspectRatio float64
	MaxAspectRatio float64
	MinEdgeDensity float64
	BlurThreshold  float64
	MinConfidence  float64
	ScanStride     int

	// Stability gate
	PixelTolerance    int
	SizeTolerance     float64
	MinStableDuration time.Duration
	HistoryHorizon    time.Duration
	GapReset          time.Duration
	StabilityWindow   int

	// Capture
	Cooldown    time.Duration
	CropPadding int

	// OCR
	OCRLanguage    string
	OCREngineMode  string
	OCRMinWidth    int
	ExtractRetries int

	// Capture archive (optional; empty account name disables archiving)
	AzureAccountName string
	AzureAccountKey  string
	AzureContainer   string
}

func (c *Config) ServerAddress() string {
	return net.JoinHostPort(strings.TrimSpace(c.Host), strings.TrimSpace(c.Port))
}

// DetectorOptions maps the configured thresholds onto the full-frame
// detector preset.
func (c *Config) DetectorOptions() analyzer.Options {
	opts := analyzer.FullFrameOptions()
	opts.EdgeThreshold = c.EdgeThreshold
	opts.MinArea = c.MinArea
	opts.MinAspectRatio = c.MinAspectRatio
	opts.MaxAspectRatio = c.MaxAspectRatio
	opts.MinEdgeDensity = c.MinEdgeDensity
	opts.BlurThreshold = c.BlurThreshold
	opts.MinConfidence = c.MinConfidence
	opts.ScanStride = c.ScanStride
	return opts
}

// GateConfig maps the configured stability tunables.
func (c *Config) GateConfig() capture.GateConfig {
	cfg := capture.DefaultGateConfig()
	cfg.PixelTolerance = c.PixelTolerance
	cfg.SizeTolerance = c.SizeTolerance
	cfg.MinStableDuration = c.MinStableDuration
	cfg.Horizon = c.HistoryHorizon
	cfg.GapReset = c.GapReset
	cfg.WindowSize = c.StabilityWindow
	return cfg
}

// ControllerConfig maps the configured capture tunables.
func (c *Config) ControllerConfig() capture.ControllerConfig {
	return capture.ControllerConfig{
		Cooldown:    c.Cooldown,
		CropPadding: c.CropPadding,
	}
}

// OCRConfig maps the configured engine tunables.
func (c *Config) OCRConfig() ocr.Config {
	return ocr.Config{
		Language:    c.OCRLanguage,
		PageSegMode: c.OCREngineMode,
		MinWidth:    c.OCRMinWidth,
	}
}

// ArchiveEnabled reports whether capture archiving is configured.
func (c *Config) ArchiveEnabled() bool {
	return c.AzureAccountName != "" && c.AzureAccountKey != "" && c.AzureContainer != ""
}

func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		FrameFetchTimeout:  parseDurationOrDefault("FRAME_FETCH_TIMEOUT", 15*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 10*1024*1024), // 10MB

		TickInterval: parseDurationOrDefault("TICK_INTERVAL", 220*time.Millisecond),

		EdgeThreshold:  int(parseIntOrDefault("EDGE_THRESHOLD", 128)),
		MinArea:        int(parseIntOrDefault("MIN_AREA", 5000)),
		MinAspectRatio: parseFloatOrDefault("MIN_ASPECT_RATIO", 1.2),
		MaxAspectRatio: parseFloatOrDefault("MAX_ASPECT_RATIO", 2.2),
		MinEdgeDensity: parseFloatOrDefault("MIN_EDGE_DENSITY", 0.05),
		BlurThreshold:  parseFloatOrDefault("BLUR_THRESHOLD", 100.0),
		MinConfidence:  parseFloatOrDefault("MIN_CONFIDENCE", 0.45),
		ScanStride:     int(parseIntOrDefault("SCAN_STRIDE", 18)),

		PixelTolerance:    int(parseIntOrDefault("STABILITY_PIXEL_TOLERANCE", 40)),
		SizeTolerance:     parseFloatOrDefault("STABILITY_SIZE_TOLERANCE", 0.12),
		MinStableDuration: parseDurationOrDefault("MIN_STABLE_DURATION", 450*time.Millisecond),
		HistoryHorizon:    parseDurationOrDefault("HISTORY_HORIZON", 1200*time.Millisecond),
		GapReset:          parseDurationOrDefault("GAP_RESET", 500*time.Millisecond),
		StabilityWindow:   int(parseIntOrDefault("STABILITY_WINDOW", 3)),

		Cooldown:    parseDurationOrDefault("CAPTURE_COOLDOWN", 3*time.Second),
		CropPadding: int(parseIntOrDefault("CROP_PADDING", 12)),

		OCRLanguage:    getEnvOrDefault("OCR_LANGUAGE", "eng"),
		OCREngineMode:  getEnvOrDefault("OCR_ENGINE_MODE", "single_block"),
		OCRMinWidth:    int(parseIntOrDefault("OCR_MIN_WIDTH", 600)),
		ExtractRetries: int(parseIntOrDefault("EXTRACT_RETRIES", 1)),

		AzureAccountName: os.Getenv("AZURE_ACCOUNT_NAME"),
		AzureAccountKey:  os.Getenv("AZURE_ACCOUNT_KEY"),
		AzureContainer:   os.Getenv("AZURE_CAPTURE_CONTAINER"),
	}

	p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}
	if cfg.MaxRequestBodySize <= 0 {
		return nil, fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", cfg.MaxRequestBodySize)
	}
	if cfg.RequestTimeout <= 0 || cfg.FrameFetchTimeout <= 0 {
		return nil, fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s)",
			cfg.RequestTimeout, cfg.FrameFetchTimeout)
	}
	if cfg.ExtractRetries < 0 || cfg.ExtractRetries > 1 {
		return nil, fmt.Errorf("EXTRACT_RETRIES must be 0 or 1 (got %d)", cfg.ExtractRetries)
	}
	if err := cfg.DetectorOptions().Validate(); err != nil {
		return nil, fmt.Errorf("invalid detector configuration: %w", err)
	}
	if err := cfg.GateConfig().Validate(); err != nil {
		return nil, fmt.Errorf("invalid stability configuration: %w", err)
	}
	if err := cfg.ControllerConfig().Validate(); err != nil {
		return nil, fmt.Errorf("invalid capture configuration: %w", err)
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
