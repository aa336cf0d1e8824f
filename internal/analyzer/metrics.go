package analyzer

import (
	"go-id-capture/pkg/models"

	"gonum.org/v1/gonum/stat"
)

// laplacianVariance measures sharpness over a box region as the mean of
// squared responses to the kernel [0,1,0; 1,-4,1; 0,1,0]. Higher values mean
// sharper content; blurry regions flatten toward zero.
func laplacianVariance(g *grayImage, box models.BoundingBox) float64 {
	x0, y0 := box.X, box.Y
	x1, y1 := box.X+box.Width, box.Y+box.Height

	// The kernel needs a full neighborhood: stay inside both the box
	// interior and the image interior.
	if x0 < 1 {
		x0 = 1
	}
	if y0 < 1 {
		y0 = 1
	}
	if x1 > g.width-1 {
		x1 = g.width - 1
	}
	if y1 > g.height-1 {
		y1 = g.height - 1
	}
	if x1 <= x0 || y1 <= y0 {
		return 0
	}

	squared := make([]float64, 0, (x1-x0)*(y1-y0))
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			center := float64(g.at(x, y))
			top := float64(g.at(x, y-1))
			bottom := float64(g.at(x, y+1))
			left := float64(g.at(x-1, y))
			right := float64(g.at(x+1, y))

			response := -4*center + top + bottom + left + right
			squared = append(squared, response*response)
		}
	}

	return stat.Mean(squared, nil)
}
