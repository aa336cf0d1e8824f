package preprocess

import (
	"fmt"
	"image"
	"image/draw"

	"go-id-capture/pkg/models"

	"github.com/disintegration/imaging"
)

// Chain composes transforms into an ordered pipeline. Composition order is
// caller-specified and significant.
func Chain(transforms ...Transform) Transform {
	return func(img *image.RGBA) *image.RGBA {
		for _, t := range transforms {
			img = t(img)
		}
		return img
	}
}

// DefaultOCRPipeline is the pipeline the capture controller applies to a
// document crop before handing it to the OCR engine.
func DefaultOCRPipeline() Transform {
	return Chain(Grayscale(), BinaryThreshold(128), Dilate(1))
}

// AlternateOCRPipeline is the fallback pipeline used for the single retry
// when the default pipeline yields an empty extraction.
func AlternateOCRPipeline() Transform {
	return Chain(Grayscale(), GaussianBlur(), AdaptiveThreshold(15, 5))
}

// Step names one transform plus its numeric parameters, for building a
// pipeline from a request or configuration.
type Step struct {
	Name   string             `json:"name"`
	Params map[string]float64 `json:"params,omitempty"`
}

func (s Step) param(key string, fallback float64) float64 {
	if v, ok := s.Params[key]; ok {
		return v
	}
	return fallback
}

// Build resolves named steps into a composed transform. Unknown names are a
// validation failure; parameters fall back to sensible defaults.
func Build(steps []Step) (Transform, error) {
	transforms := make([]Transform, 0, len(steps))
	for _, step := range steps {
		switch step.Name {
		case "grayscale":
			transforms = append(transforms, Grayscale())
		case "binary_threshold":
			transforms = append(transforms, BinaryThreshold(uint8(step.param("threshold", 128))))
		case "adaptive_threshold":
			transforms = append(transforms, AdaptiveThreshold(int(step.param("block_size", 15)), int(step.param("c", 5))))
		case "gaussian_blur":
			transforms = append(transforms, GaussianBlur())
		case "sharpen":
			transforms = append(transforms, Sharpen())
		case "dilate":
			transforms = append(transforms, Dilate(int(step.param("iterations", 1))))
		case "erode":
			transforms = append(transforms, Erode(int(step.param("iterations", 1))))
		case "contrast":
			transforms = append(transforms, ContrastEnhancement(step.param("factor", 1.5)))
		case "invert":
			transforms = append(transforms, Invert())
		default:
			return nil, fmt.Errorf("unknown transform %q", step.Name)
		}
	}
	return Chain(transforms...), nil
}

// ToRGBA copies any image into an owned RGBA buffer anchored at the origin.
func ToRGBA(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)
	return dst
}

// Crop extracts a box from a frame into an owned buffer. The box is clamped
// to the frame bounds first, so crop dimensions never exceed the frame.
func Crop(img image.Image, box models.BoundingBox) *image.RGBA {
	bounds := img.Bounds()
	box = box.Clamp(bounds.Dx(), bounds.Dy())
	if box.Empty() {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}
	rect := image.Rect(bounds.Min.X+box.X, bounds.Min.Y+box.Y,
		bounds.Min.X+box.X+box.Width, bounds.Min.Y+box.Y+box.Height)
	return ToRGBA(imaging.Crop(img, rect))
}

// Upscale doubles the crop with Lanczos resampling when it is narrower than
// minWidth. Small crops OCR poorly at native resolution.
func Upscale(img *image.RGBA, minWidth int) *image.RGBA {
	if img.Bounds().Dx() >= minWidth || img.Bounds().Dx() == 0 {
		return img
	}
	return ToRGBA(imaging.Resize(img, img.Bounds().Dx()*2, 0, imaging.Lanczos))
}
