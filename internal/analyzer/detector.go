package analyzer

import (
	"image"
	"math"
	"time"

	"go-id-capture/pkg/models"
)

// FrameDetector locates the most document-like rectangular region in a
// frame. A nil result means no detection; that is a normal per-frame
// outcome, never an error.
type FrameDetector interface {
	Detect(img image.Image, now time.Time) *models.Detection
}

// Detector is a classical edge-based document detector. For identical pixel
// input and identical options the output is bit-identical: there is no
// randomness and candidate order is a fixed raster scan.
type Detector struct {
	opts Options
}

// NewDetector creates a detector after validating the options.
func NewDetector(opts Options) (*Detector, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Detector{opts: opts}, nil
}

// candidate is an edge cluster under evaluation.
type candidate struct {
	box         models.BoundingBox
	edgeDensity float64
	sharpness   float64
	score       float64
}

// Detect analyzes one frame and returns the best-scoring candidate above the
// confidence threshold, or nil.
func (d *Detector) Detect(img image.Image, now time.Time) *models.Detection {
	if img == nil {
		return nil
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return nil
	}

	gray := newGrayImage(img)
	edges := newEdgeMap(gray, d.opts.EdgeThreshold)

	var best *candidate
	for _, cand := range d.collectCandidates(gray, edges) {
		cand := cand
		if !d.passesFilters(&cand) {
			continue
		}
		cand.score = d.score(&cand, width, height)
		if best == nil || cand.score > best.score {
			best = &cand
		}
	}

	if best == nil || best.score < d.opts.MinConfidence {
		return nil
	}

	return &models.Detection{
		Box:         best.box,
		Confidence:  best.score,
		Sharpness:   best.sharpness,
		EdgeDensity: best.edgeDensity,
		Timestamp:   now,
	}
}

// collectCandidates scans the frame on a coarse stride. Windows with enough
// unclaimed edge pixels seed a bounding-rectangle expansion over a bounded
// neighborhood; expanded edge pixels are claimed so neighboring seeds do not
// produce duplicate rectangles.
func (d *Detector) collectCandidates(gray *grayImage, edges *edgeMap) []candidate {
	claimed := make([]bool, gray.width*gray.height)
	var cands []candidate

	for sy := 0; sy < gray.height; sy += d.opts.ScanStride {
		for sx := 0; sx < gray.width; sx += d.opts.ScanStride {
			if edges.countWindow(sx, sy, d.opts.WindowSize, claimed) < d.opts.MinSeedEdges {
				continue
			}

			box, found := d.expand(edges, claimed, sx, sy)
			if !found {
				continue
			}
			box = box.Pad(d.opts.Padding).Clamp(gray.width, gray.height)
			if box.Empty() {
				continue
			}

			area := box.Area()
			cands = append(cands, candidate{
				box:         box,
				edgeDensity: float64(edges.countBox(box)) / float64(area),
				sharpness:   laplacianVariance(gray, box),
			})
		}
	}

	return cands
}

// expand grows min/max X/Y over all unclaimed edge pixels inside the bounded
// search neighborhood around the seed, claiming them as it goes.
func (d *Detector) expand(edges *edgeMap, claimed []bool, seedX, seedY int) (models.BoundingBox, bool) {
	x0 := seedX - d.opts.SearchRadius
	y0 := seedY - d.opts.SearchRadius
	x1 := seedX + d.opts.WindowSize + d.opts.SearchRadius
	y1 := seedY + d.opts.WindowSize + d.opts.SearchRadius
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 > edges.width {
		x1 = edges.width
	}
	if y1 > edges.height {
		y1 = edges.height
	}

	minX, minY := edges.width, edges.height
	maxX, maxY := -1, -1

	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			idx := y*edges.width + x
			if !edges.bits[idx] || claimed[idx] {
				continue
			}
			claimed[idx] = true
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}

	if maxX < 0 {
		return models.BoundingBox{}, false
	}
	return models.BoundingBox{X: minX, Y: minY, Width: maxX - minX + 1, Height: maxY - minY + 1}, true
}

// passesFilters applies the size, aspect ratio, edge density and sharpness
// gates to a candidate.
func (d *Detector) passesFilters(c *candidate) bool {
	if c.box.Area() < d.opts.MinArea {
		return false
	}
	ratio := c.box.AspectRatio()
	if ratio < d.opts.MinAspectRatio || ratio > d.opts.MaxAspectRatio {
		return false
	}
	if c.edgeDensity < d.opts.MinEdgeDensity {
		return false
	}
	if c.sharpness < d.opts.BlurThreshold {
		return false
	}
	return true
}

// score combines edge density, normalized sharpness, centering and area into
// a document-likeness confidence in [0,1].
func (d *Detector) score(c *candidate, frameWidth, frameHeight int) float64 {
	cx, cy := c.box.Center()
	dx := cx - float64(frameWidth)/2
	dy := cy - float64(frameHeight)/2
	maxDist := math.Hypot(float64(frameWidth)/2, float64(frameHeight)/2)
	centering := 1 - math.Hypot(dx, dy)/maxDist
	if centering < 0 {
		centering = 0
	}

	areaScore := float64(c.box.Area()) / (float64(frameWidth*frameHeight) * d.opts.TargetAreaFraction)
	if areaScore > 1 {
		areaScore = 1
	}

	sharpScore := c.sharpness / d.opts.SharpnessNorm
	if sharpScore > 1 {
		sharpScore = 1
	}

	return d.opts.EdgeDensityWeight*c.edgeDensity +
		d.opts.SharpnessWeight*sharpScore +
		d.opts.CenteringWeight*centering +
		d.opts.AreaWeight*areaScore
}
