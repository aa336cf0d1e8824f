package capture

import (
	"time"

	"go-id-capture/pkg/models"
)

// detectionHistory is an ordered, time-bounded sequence of detections owned
// by the controller. Entries older than the horizon are evicted on every
// insertion so no stale state leaks across stability episodes.
type detectionHistory struct {
	entries []models.Detection
	horizon time.Duration
}

func newDetectionHistory(horizon time.Duration) *detectionHistory {
	return &detectionHistory{horizon: horizon}
}

// append adds a detection and evicts entries older than the horizon relative
// to now.
func (h *detectionHistory) append(d models.Detection, now time.Time) {
	h.entries = append(h.entries, d)
	cutoff := now.Add(-h.horizon)

	keep := 0
	for keep < len(h.entries) && h.entries[keep].Timestamp.Before(cutoff) {
		keep++
	}
	if keep > 0 {
		h.entries = append(h.entries[:0], h.entries[keep:]...)
	}
}

// newest returns the most recent retained entry, or nil.
func (h *detectionHistory) newest() *models.Detection {
	if len(h.entries) == 0 {
		return nil
	}
	return &h.entries[len(h.entries)-1]
}

// window returns the k most recent entries in insertion order, or nil when
// fewer are retained.
func (h *detectionHistory) window(k int) []models.Detection {
	if len(h.entries) < k {
		return nil
	}
	return h.entries[len(h.entries)-k:]
}

func (h *detectionHistory) clear() {
	h.entries = h.entries[:0]
}
