package capture

import (
	"fmt"
	"time"

	"go-id-capture/pkg/models"
)

// GateConfig tunes the temporal stability criteria.
type GateConfig struct {
	// Horizon bounds how long detections stay in the history.
	Horizon time.Duration

	// GapReset clears the history when no detection arrives for this long
	// after the newest retained entry; a long absence means the subject was
	// lost, so the stability count restarts instead of decaying.
	GapReset time.Duration

	// WindowSize is the number of most-recent entries that must agree.
	WindowSize int

	// PixelTolerance is the maximum per-axis position drift, in pixels, from
	// the first entry of the window.
	PixelTolerance int

	// SizeTolerance is the maximum width/height drift as a fraction of the
	// first entry's dimensions.
	SizeTolerance float64

	// MinStableDuration is the minimum time span the window must cover.
	MinStableDuration time.Duration

	// BestBySharpness selects the window's best entry by sharpness instead
	// of confidence.
	BestBySharpness bool
}

// DefaultGateConfig returns the stability tuning used by the capture
// pipeline.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		Horizon:           1200 * time.Millisecond,
		GapReset:          500 * time.Millisecond,
		WindowSize:        3,
		PixelTolerance:    40,
		SizeTolerance:     0.12,
		MinStableDuration: 450 * time.Millisecond,
	}
}

// Validate checks that the gate configuration is usable.
func (c GateConfig) Validate() error {
	if c.Horizon <= 0 || c.GapReset <= 0 || c.MinStableDuration <= 0 {
		return fmt.Errorf("gate durations must be > 0")
	}
	if c.WindowSize < 2 {
		return fmt.Errorf("gate window size must be >= 2, got %d", c.WindowSize)
	}
	if c.PixelTolerance <= 0 || c.SizeTolerance <= 0 {
		return fmt.Errorf("gate tolerances must be > 0")
	}
	return nil
}

// Decision is the outcome of one gate observation.
type Decision struct {
	Stable bool

	// Best is the window entry with the highest confidence (or sharpness),
	// ties broken by most-recent timestamp. Nil unless Stable.
	Best *models.Detection
}

// Gate consumes per-frame detection results and decides when detections have
// been geometrically stable for long enough to trust. Not safe for
// concurrent use; the controller serializes access.
type Gate struct {
	cfg     GateConfig
	history *detectionHistory
}

// NewGate creates a stability gate.
func NewGate(cfg GateConfig) (*Gate, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Gate{cfg: cfg, history: newDetectionHistory(cfg.Horizon)}, nil
}

// Observe records one per-frame result (nil = no detection) and reports
// whether the recent window is stable.
func (g *Gate) Observe(det *models.Detection, now time.Time) Decision {
	if det != nil {
		g.history.append(*det, now)
	} else if newest := g.history.newest(); newest != nil && now.Sub(newest.Timestamp) > g.cfg.GapReset {
		g.history.clear()
	}

	window := g.history.window(g.cfg.WindowSize)
	if window == nil {
		return Decision{}
	}

	first := window[0]
	for _, entry := range window[1:] {
		if !g.withinTolerance(first, entry) {
			return Decision{}
		}
	}

	span := window[len(window)-1].Timestamp.Sub(first.Timestamp)
	if span < g.cfg.MinStableDuration {
		return Decision{}
	}

	best := g.bestOf(window)
	return Decision{Stable: true, Best: &best}
}

// Reset clears the history so the next stability episode starts fresh.
func (g *Gate) Reset() {
	g.history.clear()
}

// withinTolerance checks position and size drift of an entry against the
// first entry of the window.
func (g *Gate) withinTolerance(first, entry models.Detection) bool {
	if absInt(entry.Box.X-first.Box.X) > g.cfg.PixelTolerance {
		return false
	}
	if absInt(entry.Box.Y-first.Box.Y) > g.cfg.PixelTolerance {
		return false
	}
	maxWidthDrift := g.cfg.SizeTolerance * float64(first.Box.Width)
	maxHeightDrift := g.cfg.SizeTolerance * float64(first.Box.Height)
	if absFloat(float64(entry.Box.Width-first.Box.Width)) > maxWidthDrift {
		return false
	}
	if absFloat(float64(entry.Box.Height-first.Box.Height)) > maxHeightDrift {
		return false
	}
	return true
}

// bestOf selects the strongest entry of a stable window.
func (g *Gate) bestOf(window []models.Detection) models.Detection {
	best := window[0]
	for _, entry := range window[1:] {
		if g.rank(entry) > g.rank(best) {
			best = entry
			continue
		}
		// Ties go to the most recent entry; the window is in insertion order.
		if g.rank(entry) == g.rank(best) && !entry.Timestamp.Before(best.Timestamp) {
			best = entry
		}
	}
	return best
}

func (g *Gate) rank(d models.Detection) float64 {
	if g.cfg.BestBySharpness {
		return d.Sharpness
	}
	return d.Confidence
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
