package analyzer

import "image"

// grayImage is a width x height intensity field derived from a frame with
// BT.601 luma weights. Integer arithmetic keeps the conversion bit-identical
// across runs for identical input.
type grayImage struct {
	pix    []uint8
	width  int
	height int
}

// luma computes 0.299*R + 0.587*G + 0.114*B with integer rounding.
func luma(r, g, b uint8) uint8 {
	return uint8((299*int(r) + 587*int(g) + 114*int(b) + 500) / 1000)
}

// newGrayImage converts a frame to an owned grayscale buffer. Rows are
// processed in parallel strips; rows are independent so the result is
// deterministic.
func newGrayImage(img image.Image) *grayImage {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	g := &grayImage{pix: make([]uint8, w*h), width: w, height: h}

	forEachRowStrip(h, func(startY, endY int) {
		for y := startY; y < endY; y++ {
			row := g.pix[y*w : (y+1)*w]
			for x := 0; x < w; x++ {
				r16, g16, b16, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
				row[x] = luma(uint8(r16>>8), uint8(g16>>8), uint8(b16>>8))
			}
		}
	})

	return g
}

func (g *grayImage) at(x, y int) uint8 {
	return g.pix[y*g.width+x]
}
