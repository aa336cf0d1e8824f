package preprocess

import (
	"image"
)

// Transform is a pure pixel-level operation over an owned RGBA buffer. A
// transform may mutate the buffer in place or return a replacement; callers
// must use the returned buffer. All transforms are deterministic and keep the
// RGB channels equal after grayscale-derived steps.
type Transform func(*image.RGBA) *image.RGBA

// lumaOf computes the BT.601 luma of the pixel starting at offset i.
func lumaOf(pix []uint8, i int) uint8 {
	return uint8((299*int(pix[i]) + 587*int(pix[i+1]) + 114*int(pix[i+2]) + 500) / 1000)
}

func clampByte(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// Grayscale broadcasts BT.601 luma to all color channels. Running it twice
// equals running it once.
func Grayscale() Transform {
	return func(img *image.RGBA) *image.RGBA {
		pix := img.Pix
		for i := 0; i < len(pix); i += 4 {
			y := lumaOf(pix, i)
			pix[i], pix[i+1], pix[i+2] = y, y, y
		}
		return img
	}
}

// BinaryThreshold maps every pixel to 255 when its luma exceeds t, else 0.
func BinaryThreshold(t uint8) Transform {
	return func(img *image.RGBA) *image.RGBA {
		pix := img.Pix
		for i := 0; i < len(pix); i += 4 {
			var v uint8
			if lumaOf(pix, i) > t {
				v = 255
			}
			pix[i], pix[i+1], pix[i+2] = v, v, v
		}
		return img
	}
}

// AdaptiveThreshold binarizes against a per-pixel threshold equal to the
// local luma mean over a blockSize x blockSize window minus c. A summed-area
// table keeps the window mean exact and cheap.
func AdaptiveThreshold(blockSize, c int) Transform {
	if blockSize < 3 {
		blockSize = 3
	}
	return func(img *image.RGBA) *image.RGBA {
		b := img.Bounds()
		w, h := b.Dx(), b.Dy()
		if w == 0 || h == 0 {
			return img
		}

		// Integral of luma with a zero row/column of padding.
		integral := make([]int, (w+1)*(h+1))
		for y := 0; y < h; y++ {
			rowSum := 0
			for x := 0; x < w; x++ {
				i := img.PixOffset(b.Min.X+x, b.Min.Y+y)
				rowSum += int(lumaOf(img.Pix, i))
				integral[(y+1)*(w+1)+x+1] = integral[y*(w+1)+x+1] + rowSum
			}
		}

		half := blockSize / 2
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				x0, y0 := x-half, y-half
				x1, y1 := x+half+1, y+half+1
				if x0 < 0 {
					x0 = 0
				}
				if y0 < 0 {
					y0 = 0
				}
				if x1 > w {
					x1 = w
				}
				if y1 > h {
					y1 = h
				}

				sum := integral[y1*(w+1)+x1] - integral[y0*(w+1)+x1] -
					integral[y1*(w+1)+x0] + integral[y0*(w+1)+x0]
				mean := sum / ((x1 - x0) * (y1 - y0))

				i := img.PixOffset(b.Min.X+x, b.Min.Y+y)
				var v uint8
				if int(lumaOf(img.Pix, i)) > mean-c {
					v = 255
				}
				img.Pix[i], img.Pix[i+1], img.Pix[i+2] = v, v, v
			}
		}
		return img
	}
}

// convolve3x3 applies a fixed 3x3 kernel per color channel against a
// snapshot of the buffer, replicating edge pixels, with the result divided by
// divisor and clamped to [0,255].
func convolve3x3(img *image.RGBA, kernel [9]int, divisor int) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	src := make([]uint8, len(img.Pix))
	copy(src, img.Pix)

	clampCoord := func(v, max int) int {
		if v < 0 {
			return 0
		}
		if v >= max {
			return max - 1
		}
		return v
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sums [3]int
			k := 0
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					si := img.PixOffset(b.Min.X+clampCoord(x+kx, w), b.Min.Y+clampCoord(y+ky, h))
					weight := kernel[k]
					k++
					sums[0] += weight * int(src[si])
					sums[1] += weight * int(src[si+1])
					sums[2] += weight * int(src[si+2])
				}
			}
			di := img.PixOffset(b.Min.X+x, b.Min.Y+y)
			img.Pix[di] = clampByte(sums[0] / divisor)
			img.Pix[di+1] = clampByte(sums[1] / divisor)
			img.Pix[di+2] = clampByte(sums[2] / divisor)
		}
	}
	return img
}

// GaussianBlur applies the fixed kernel [1,2,1; 2,4,2; 1,2,1]/16.
func GaussianBlur() Transform {
	return func(img *image.RGBA) *image.RGBA {
		return convolve3x3(img, [9]int{1, 2, 1, 2, 4, 2, 1, 2, 1}, 16)
	}
}

// Sharpen applies the fixed kernel [0,-1,0; -1,5,-1; 0,-1,0].
func Sharpen() Transform {
	return func(img *image.RGBA) *image.RGBA {
		return convolve3x3(img, [9]int{0, -1, 0, -1, 5, -1, 0, -1, 0}, 1)
	}
}

// morph3x3 applies a 3x3 max (dilate) or min (erode) filter per channel the
// requested number of times.
func morph3x3(img *image.RGBA, iterations int, dilate bool) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	for iter := 0; iter < iterations; iter++ {
		src := make([]uint8, len(img.Pix))
		copy(src, img.Pix)

		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				var extremes [3]uint8
				if !dilate {
					extremes = [3]uint8{255, 255, 255}
				}
				for ky := -1; ky <= 1; ky++ {
					for kx := -1; kx <= 1; kx++ {
						nx, ny := x+kx, y+ky
						if nx < 0 || ny < 0 || nx >= w || ny >= h {
							continue
						}
						si := img.PixOffset(b.Min.X+nx, b.Min.Y+ny)
						for ch := 0; ch < 3; ch++ {
							v := src[si+ch]
							if dilate && v > extremes[ch] {
								extremes[ch] = v
							}
							if !dilate && v < extremes[ch] {
								extremes[ch] = v
							}
						}
					}
				}
				di := img.PixOffset(b.Min.X+x, b.Min.Y+y)
				img.Pix[di], img.Pix[di+1], img.Pix[di+2] = extremes[0], extremes[1], extremes[2]
			}
		}
	}
	return img
}

// Dilate applies a 3x3 maximum filter the given number of iterations,
// thickening bright strokes.
func Dilate(iterations int) Transform {
	if iterations < 1 {
		iterations = 1
	}
	return func(img *image.RGBA) *image.RGBA {
		return morph3x3(img, iterations, true)
	}
}

// Erode applies a 3x3 minimum filter the given number of iterations.
func Erode(iterations int) Transform {
	if iterations < 1 {
		iterations = 1
	}
	return func(img *image.RGBA) *image.RGBA {
		return morph3x3(img, iterations, false)
	}
}

// ContrastEnhancement maps each channel to clamp(factor*v + (factor-1)*128).
func ContrastEnhancement(factor float64) Transform {
	return func(img *image.RGBA) *image.RGBA {
		offset := (factor - 1) * 128
		pix := img.Pix
		for i := 0; i < len(pix); i += 4 {
			for ch := 0; ch < 3; ch++ {
				pix[i+ch] = clampByte(int(factor*float64(pix[i+ch]) + offset))
			}
		}
		return img
	}
}

// Invert maps each channel to 255-v.
func Invert() Transform {
	return func(img *image.RGBA) *image.RGBA {
		pix := img.Pix
		for i := 0; i < len(pix); i += 4 {
			pix[i] = 255 - pix[i]
			pix[i+1] = 255 - pix[i+1]
			pix[i+2] = 255 - pix[i+2]
		}
		return img
	}
}
