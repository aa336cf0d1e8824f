package analyzer

import "fmt"

// Options provides the full tunable surface of the document detector. The
// full-frame and overlay detection modes share one implementation and differ
// only in thresholds and scoring weights.
type Options struct {
	// Candidate discovery
	ScanStride   int // coarse scan step between seed windows
	WindowSize   int // local window for seed edge counting
	MinSeedEdges int // edge pixels required to seed an expansion
	SearchRadius int // bounded neighborhood grown around a seed
	Padding      int // pixels added around an expanded rectangle

	// Edge map
	EdgeThreshold int // Sobel magnitude binarization threshold (0-255 scale)

	// Candidate filters
	MinArea        int
	MinAspectRatio float64
	MaxAspectRatio float64
	MinEdgeDensity float64
	BlurThreshold  float64 // minimum Laplacian variance over the candidate box

	// Scoring
	MinConfidence      float64
	SharpnessNorm      float64 // Laplacian variance mapped to 1.0 at this value
	TargetAreaFraction float64 // area score saturates at frameArea*fraction
	EdgeDensityWeight  float64
	SharpnessWeight    float64
	CenteringWeight    float64
	AreaWeight         float64
}

// FullFrameOptions returns the detector configuration for scanning a whole
// camera frame for a document held somewhere in view.
func FullFrameOptions() Options {
	return Options{
		ScanStride:         18,
		WindowSize:         36,
		MinSeedEdges:       25,
		SearchRadius:       90,
		Padding:            10,
		EdgeThreshold:      128,
		MinArea:            5000,
		MinAspectRatio:     1.2,
		MaxAspectRatio:     2.2,
		MinEdgeDensity:     0.05,
		BlurThreshold:      100.0,
		MinConfidence:      0.45,
		SharpnessNorm:      1000.0,
		TargetAreaFraction: 0.6,
		EdgeDensityWeight:  0.3,
		SharpnessWeight:    0.3,
		CenteringWeight:    0.2,
		AreaWeight:         0.2,
	}
}

// OverlayOptions returns the configuration for frames already cropped to a
// guide overlay, where the document fills most of the view. Centering matters
// less there, sharpness more.
func OverlayOptions() Options {
	opts := FullFrameOptions()
	opts.MinArea = 2000
	opts.MinAspectRatio = 1.0
	opts.MaxAspectRatio = 2.5
	opts.MinEdgeDensity = 0.04
	opts.MinConfidence = 0.35
	opts.TargetAreaFraction = 0.8
	opts.EdgeDensityWeight = 0.35
	opts.SharpnessWeight = 0.35
	opts.CenteringWeight = 0.1
	opts.AreaWeight = 0.2
	return opts
}

// Validate checks that the options describe a usable detector.
func (o Options) Validate() error {
	if o.ScanStride <= 0 || o.WindowSize <= 0 || o.SearchRadius <= 0 {
		return fmt.Errorf("scan stride, window size and search radius must be > 0")
	}
	if o.EdgeThreshold < 0 || o.EdgeThreshold > 255 {
		return fmt.Errorf("edge threshold must be in [0,255], got %d", o.EdgeThreshold)
	}
	if o.MinAspectRatio <= 0 || o.MaxAspectRatio < o.MinAspectRatio {
		return fmt.Errorf("invalid aspect ratio band [%f,%f]", o.MinAspectRatio, o.MaxAspectRatio)
	}
	if o.SharpnessNorm <= 0 || o.TargetAreaFraction <= 0 {
		return fmt.Errorf("sharpness norm and target area fraction must be > 0")
	}
	sum := o.EdgeDensityWeight + o.SharpnessWeight + o.CenteringWeight + o.AreaWeight
	if sum < 0.99 || sum > 1.01 {
		return fmt.Errorf("scoring weights must sum to 1, got %f", sum)
	}
	return nil
}
