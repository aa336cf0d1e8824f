package analyzer

import (
	"math"

	"go-id-capture/pkg/models"
)

// edgeMap is a binary edge grid derived from a grayscale field with a 3x3
// Sobel gradient. Immutable once produced.
type edgeMap struct {
	bits   []bool
	width  int
	height int
}

// sobelX computes the horizontal Sobel gradient at an interior pixel.
func sobelX(g *grayImage, x, y int) int {
	return -1*int(g.at(x-1, y-1)) + 1*int(g.at(x+1, y-1)) +
		-2*int(g.at(x-1, y)) + 2*int(g.at(x+1, y)) +
		-1*int(g.at(x-1, y+1)) + 1*int(g.at(x+1, y+1))
}

// sobelY computes the vertical Sobel gradient at an interior pixel.
func sobelY(g *grayImage, x, y int) int {
	return -1*int(g.at(x-1, y-1)) - 2*int(g.at(x, y-1)) - 1*int(g.at(x+1, y-1)) +
		1*int(g.at(x-1, y+1)) + 2*int(g.at(x, y+1)) + 1*int(g.at(x+1, y+1))
}

// newEdgeMap binarizes the Sobel gradient magnitude at the given threshold.
// Border pixels have no full 3x3 neighborhood and are never edges.
func newEdgeMap(g *grayImage, threshold int) *edgeMap {
	e := &edgeMap{bits: make([]bool, g.width*g.height), width: g.width, height: g.height}
	if g.width < 3 || g.height < 3 {
		return e
	}

	limit := float64(threshold)
	forEachRowStrip(g.height-2, func(startY, endY int) {
		for y := startY + 1; y < endY+1; y++ {
			for x := 1; x < g.width-1; x++ {
				gx := sobelX(g, x, y)
				gy := sobelY(g, x, y)
				if math.Sqrt(float64(gx*gx+gy*gy)) > limit {
					e.bits[y*e.width+x] = true
				}
			}
		}
	})

	return e
}

func (e *edgeMap) at(x, y int) bool {
	return e.bits[y*e.width+x]
}

// countWindow counts edge pixels in a size x size window anchored at (x,y),
// clamped to the map bounds. Pixels already claimed by an expansion are
// skipped so neighboring seeds do not rediscover the same cluster.
func (e *edgeMap) countWindow(x, y, size int, claimed []bool) int {
	x1, y1 := x+size, y+size
	if x1 > e.width {
		x1 = e.width
	}
	if y1 > e.height {
		y1 = e.height
	}

	count := 0
	for cy := y; cy < y1; cy++ {
		for cx := x; cx < x1; cx++ {
			idx := cy*e.width + cx
			if e.bits[idx] && (claimed == nil || !claimed[idx]) {
				count++
			}
		}
	}
	return count
}

// countBox counts edge pixels inside a bounding box assumed to lie within
// the map bounds.
func (e *edgeMap) countBox(b models.BoundingBox) int {
	count := 0
	for y := b.Y; y < b.Y+b.Height; y++ {
		for x := b.X; x < b.X+b.Width; x++ {
			if e.bits[y*e.width+x] {
				count++
			}
		}
	}
	return count
}
