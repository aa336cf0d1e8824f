package preprocess

import (
	"image"
	"image/color"
	"testing"

	"go-id-capture/pkg/models"
)

func TestBuild_UnknownStep(t *testing.T) {
	if _, err := Build([]Step{{Name: "posterize"}}); err == nil {
		t.Fatal("Expected error for unknown transform name")
	}
}

func TestBuild_NamedSteps(t *testing.T) {
	pipeline, err := Build([]Step{
		{Name: "grayscale"},
		{Name: "binary_threshold", Params: map[string]float64{"threshold": 100}},
		{Name: "dilate"},
	})
	if err != nil {
		t.Fatalf("Failed to build pipeline: %v", err)
	}

	img := pipeline(newTestImage(8, 8, color.RGBA{180, 180, 180, 255}))
	if r, _, _ := pixelAt(img, 4, 4); r != 255 {
		t.Errorf("Expected binarized white output, got %d", r)
	}
}

func TestBuild_EmptyPipelineIsIdentity(t *testing.T) {
	pipeline, err := Build(nil)
	if err != nil {
		t.Fatalf("Failed to build empty pipeline: %v", err)
	}

	img := pipeline(newTestImage(4, 4, color.RGBA{12, 34, 56, 255}))
	r, g, b := pixelAt(img, 1, 1)
	if r != 12 || g != 34 || b != 56 {
		t.Errorf("Expected unchanged pixel, got (%d,%d,%d)", r, g, b)
	}
}

func TestDefaultOCRPipeline(t *testing.T) {
	// Dark text on a light background binarizes to black strokes on white.
	img := newTestImage(16, 16, color.RGBA{220, 220, 220, 255})
	img.Set(8, 8, color.RGBA{20, 20, 20, 255})

	out := DefaultOCRPipeline()(img)
	if r, _, _ := pixelAt(out, 0, 0); r != 255 {
		t.Errorf("Expected light background to binarize white, got %d", r)
	}
}

func TestCrop_ClampsToFrame(t *testing.T) {
	frame := newTestImage(100, 80, color.RGBA{50, 50, 50, 255})

	tests := []struct {
		name       string
		box        models.BoundingBox
		wantW      int
		wantH      int
		wantEmptyW bool
	}{
		{
			name:  "inside frame",
			box:   models.BoundingBox{X: 10, Y: 10, Width: 30, Height: 20},
			wantW: 30, wantH: 20,
		},
		{
			name:  "overhangs right edge",
			box:   models.BoundingBox{X: 80, Y: 10, Width: 50, Height: 20},
			wantW: 20, wantH: 20,
		},
		{
			name:  "negative origin",
			box:   models.BoundingBox{X: -15, Y: -5, Width: 40, Height: 30},
			wantW: 25, wantH: 25,
		},
		{
			name:       "fully outside",
			box:        models.BoundingBox{X: 200, Y: 200, Width: 40, Height: 30},
			wantEmptyW: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			crop := Crop(frame, tt.box)
			bounds := crop.Bounds()
			if tt.wantEmptyW {
				if bounds.Dx() != 0 || bounds.Dy() != 0 {
					t.Errorf("Expected empty crop, got %dx%d", bounds.Dx(), bounds.Dy())
				}
				return
			}
			if bounds.Dx() != tt.wantW || bounds.Dy() != tt.wantH {
				t.Errorf("Expected %dx%d crop, got %dx%d", tt.wantW, tt.wantH, bounds.Dx(), bounds.Dy())
			}
		})
	}
}

func TestUpscale(t *testing.T) {
	small := newTestImage(100, 60, color.RGBA{128, 128, 128, 255})
	up := Upscale(small, 600)
	if up.Bounds().Dx() != 200 {
		t.Errorf("Expected doubled width 200, got %d", up.Bounds().Dx())
	}

	wide := newTestImage(800, 400, color.RGBA{128, 128, 128, 255})
	if same := Upscale(wide, 600); same.Bounds().Dx() != 800 {
		t.Errorf("Expected wide image unchanged, got width %d", same.Bounds().Dx())
	}
}

func TestToRGBA_AnchorsAtOrigin(t *testing.T) {
	offset := image.NewRGBA(image.Rect(5, 7, 25, 27))
	out := ToRGBA(offset)
	if out.Bounds().Min.X != 0 || out.Bounds().Min.Y != 0 {
		t.Errorf("Expected origin-anchored bounds, got %v", out.Bounds())
	}
	if out.Bounds().Dx() != 20 || out.Bounds().Dy() != 20 {
		t.Errorf("Expected 20x20 output, got %v", out.Bounds())
	}
}
