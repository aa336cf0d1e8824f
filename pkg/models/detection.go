package models

import (
	"fmt"
	"math"
	"time"
)

// BoundingBox is a rectangular region in pixel coordinates with the origin
// at the top-left corner of the frame.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Area returns the number of pixels covered by the box.
func (b BoundingBox) Area() int {
	if b.Width <= 0 || b.Height <= 0 {
		return 0
	}
	return b.Width * b.Height
}

// AspectRatio returns width/height, or 0 for a degenerate box.
func (b BoundingBox) AspectRatio() float64 {
	if b.Height <= 0 {
		return 0
	}
	return float64(b.Width) / float64(b.Height)
}

// Center returns the box center in pixel coordinates.
func (b BoundingBox) Center() (float64, float64) {
	return float64(b.X) + float64(b.Width)/2, float64(b.Y) + float64(b.Height)/2
}

// Pad expands the box by p pixels on every side. Negative coordinates are
// allowed here; callers clamp against frame bounds before cropping.
func (b BoundingBox) Pad(p int) BoundingBox {
	return BoundingBox{
		X:      b.X - p,
		Y:      b.Y - p,
		Width:  b.Width + 2*p,
		Height: b.Height + 2*p,
	}
}

// Clamp intersects the box with a frame of the given dimensions. The result
// never extends outside the frame; a box fully outside collapses to empty.
func (b BoundingBox) Clamp(frameWidth, frameHeight int) BoundingBox {
	x0 := b.X
	y0 := b.Y
	x1 := b.X + b.Width
	y1 := b.Y + b.Height

	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 > frameWidth {
		x1 = frameWidth
	}
	if y1 > frameHeight {
		y1 = frameHeight
	}
	if x1 < x0 {
		x1 = x0
	}
	if y1 < y0 {
		y1 = y0
	}

	return BoundingBox{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Empty reports whether the box covers no pixels.
func (b BoundingBox) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// DistanceTo returns the euclidean distance between the centers of two boxes.
func (b BoundingBox) DistanceTo(other BoundingBox) float64 {
	cx1, cy1 := b.Center()
	cx2, cy2 := other.Center()
	return math.Hypot(cx1-cx2, cy1-cy2)
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", b.X, b.Y, b.Width, b.Height)
}

// Detection is the outcome of analyzing a single frame: the most
// document-like rectangular region found, with its quality measurements.
// A Detection is immutable once produced.
type Detection struct {
	Box BoundingBox `json:"box"`

	// Confidence is the combined document-likeness score in [0,1].
	Confidence float64 `json:"confidence"`

	// Sharpness is the Laplacian variance over the box region.
	Sharpness float64 `json:"sharpness"`

	// EdgeDensity is the fraction of edge pixels inside the box, in [0,1].
	EdgeDensity float64 `json:"edge_density"`

	Timestamp time.Time `json:"timestamp"`
}

// TickOutcome summarizes a single pass of the capture pipeline over a frame.
type TickOutcome struct {
	// Detection is the per-frame detection, nil when nothing document-like
	// was found. No detection is a normal outcome, not an error.
	Detection *Detection `json:"detection,omitempty"`

	// Stable reports whether the stability gate fired on this tick.
	Stable bool `json:"stable"`

	// Captured reports whether this tick emitted a capture event.
	Captured bool `json:"captured"`

	// State is the controller state after the tick ("idle" or "capturing").
	State string `json:"state"`
}
