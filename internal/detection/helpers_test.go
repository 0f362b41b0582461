package detection

import (
	"image"

	"github.com/ironsheep/docscan-mcp/internal/imaging"
)

// createFrame creates a white RGB frame with a filled rectangle of the given
// gray level.
func createFrame(width, height int, rect image.Rectangle, level uint8) imaging.PixelBuffer {
	buf := imaging.PixelBuffer{Width: width, Height: height, Channels: 3, Pix: make([]uint8, width*height*3)}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := uint8(255)
			if (image.Point{x, y}).In(rect) {
				v = level
			}
			i := (y*width + x) * 3
			buf.Pix[i], buf.Pix[i+1], buf.Pix[i+2] = v, v, v
		}
	}
	return buf
}

// createMap creates a binary map with the given rectangles filled.
func createMap(width, height int, rects ...image.Rectangle) imaging.BinaryMap {
	m := imaging.NewBinaryMap(width, height)
	for _, r := range rects {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				m.Pix[y*width+x] = 255
			}
		}
	}
	return m
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func boxNear(got BoundingBox, want BoundingBox, tol int) bool {
	return absInt(got.X-want.X) <= tol && absInt(got.Y-want.Y) <= tol &&
		absInt(got.Width-want.Width) <= tol && absInt(got.Height-want.Height) <= tol
}
