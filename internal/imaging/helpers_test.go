package imaging

import (
	"image"
	"image/color"
)

// createInMemoryImage creates an in-memory test image
func createInMemoryImage(width, height int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// createPatternImage creates an image with different colors in each quadrant
func createPatternImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var c color.Color
			if x < width/2 && y < height/2 {
				c = color.RGBA{255, 0, 0, 255} // Red top-left
			} else if x >= width/2 && y < height/2 {
				c = color.RGBA{0, 255, 0, 255} // Green top-right
			} else if x < width/2 && y >= height/2 {
				c = color.RGBA{0, 0, 255, 255} // Blue bottom-left
			} else {
				c = color.RGBA{255, 255, 255, 255} // White bottom-right
			}
			img.Set(x, y, c)
		}
	}
	return img
}

// createRectGray creates a white gray buffer with a filled rectangle of the
// given intensity.
func createRectGray(width, height int, r image.Rectangle, v uint8) GrayBuffer {
	g := NewGrayBuffer(width, height)
	for i := range g.Pix {
		g.Pix[i] = 255
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			g.Pix[y*width+x] = v
		}
	}
	return g
}

// createNoiseGray fills a gray buffer with a deterministic pseudo-random
// pattern.
func createNoiseGray(width, height int, seed uint32) GrayBuffer {
	g := NewGrayBuffer(width, height)
	s := seed
	for i := range g.Pix {
		s = s*1664525 + 1013904223
		g.Pix[i] = uint8(s >> 24)
	}
	return g
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func rectOf(x0, y0, x1, y1 int) image.Rectangle {
	return image.Rect(x0, y0, x1, y1)
}
