package observer

import (
	"image"

	"go-id-capture/pkg/models"

	"github.com/sirupsen/logrus"
)

// DetectionSink receives every per-tick detection for UI-style feedback. It
// is purely observational: the pipeline never blocks on it and drops are
// acceptable if the sink is slow.
type DetectionSink interface {
	OnDetection(det models.Detection)
}

// CaptureSink receives the preprocessed crop and the winning detection,
// exactly once per stable episode.
type CaptureSink interface {
	OnCapture(img *image.RGBA, det models.Detection)
}

// DetectionSinkFunc adapts a function to a DetectionSink.
type DetectionSinkFunc func(det models.Detection)

func (f DetectionSinkFunc) OnDetection(det models.Detection) {
	f(det)
}

// CaptureSinkFunc adapts a function to a CaptureSink.
type CaptureSinkFunc func(img *image.RGBA, det models.Detection)

func (f CaptureSinkFunc) OnCapture(img *image.RGBA, det models.Detection) {
	f(img, det)
}

// LoggingDetectionSink logs per-tick detections.
type LoggingDetectionSink struct {
	logger *logrus.Logger
}

// NewLoggingDetectionSink creates a detection sink that logs each detection
// at debug level.
func NewLoggingDetectionSink(logger *logrus.Logger) *LoggingDetectionSink {
	return &LoggingDetectionSink{logger: logger}
}

func (s *LoggingDetectionSink) OnDetection(det models.Detection) {
	s.logger.WithFields(logrus.Fields{
		"box":          det.Box.String(),
		"confidence":   det.Confidence,
		"sharpness":    det.Sharpness,
		"edge_density": det.EdgeDensity,
	}).Debug("Document detected")
}

// FanOutDetectionSinks notifies each sink in order. Sinks that panic are
// recovered and logged so one bad observer cannot take down the tick loop.
func FanOutDetectionSinks(sinks ...DetectionSink) DetectionSink {
	return DetectionSinkFunc(func(det models.Detection) {
		for _, sink := range sinks {
			func(s DetectionSink) {
				defer func() {
					if r := recover(); r != nil {
						logrus.WithField("panic", r).Error("Detection sink panicked")
					}
				}()
				s.OnDetection(det)
			}(sink)
		}
	})
}
