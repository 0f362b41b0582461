package imaging

import (
	"errors"
	"image"
	"image/color"
)

// ErrInvalidInput is returned by the few operations that report errors when a
// buffer has non-positive dimensions or a sample count that does not match them.
// Pixel primitives never return it; they fail closed with an empty result.
var ErrInvalidInput = errors.New("invalid pixel buffer")

// PixelBuffer is a channel-interleaved 8-bit image.
//
// Channels is 1 (gray), 3 (RGB) or 4 (RGBA). The invariant
// len(Pix) == Width*Height*Channels must hold for the buffer to be valid.
type PixelBuffer struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

// Valid reports whether the buffer dimensions and sample count agree.
func (b PixelBuffer) Valid() bool {
	if b.Width <= 0 || b.Height <= 0 {
		return false
	}
	switch b.Channels {
	case 1, 3, 4:
	default:
		return false
	}
	return len(b.Pix) == b.Width*b.Height*b.Channels
}

// GrayBuffer is a single-channel image with one sample (0-255) per pixel.
type GrayBuffer struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewGrayBuffer allocates a zeroed gray buffer. Non-positive dimensions
// produce the empty buffer.
func NewGrayBuffer(width, height int) GrayBuffer {
	if width <= 0 || height <= 0 {
		return GrayBuffer{}
	}
	return GrayBuffer{Width: width, Height: height, Pix: make([]uint8, width*height)}
}

// Valid reports whether the buffer dimensions and sample count agree.
func (g GrayBuffer) Valid() bool {
	return g.Width > 0 && g.Height > 0 && len(g.Pix) == g.Width*g.Height
}

// At returns the sample at (x, y) with coordinates clamped to the buffer.
func (g GrayBuffer) At(x, y int) uint8 {
	return g.Pix[clamp(y, 0, g.Height-1)*g.Width+clamp(x, 0, g.Width-1)]
}

// Image converts the buffer into an *image.Gray sharing no memory with g.
func (g GrayBuffer) Image() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, g.Width, g.Height))
	copy(img.Pix, g.Pix)
	return img
}

// BinaryMap is a GrayBuffer whose samples are restricted to 0 and 255.
type BinaryMap GrayBuffer

// NewBinaryMap allocates an all-background binary map.
func NewBinaryMap(width, height int) BinaryMap {
	return BinaryMap(NewGrayBuffer(width, height))
}

// Valid reports whether the map dimensions and sample count agree.
func (m BinaryMap) Valid() bool {
	return GrayBuffer(m).Valid()
}

// IsSet reports whether (x, y) is a foreground pixel. Out-of-bounds
// coordinates are background.
func (m BinaryMap) IsSet(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.Pix[y*m.Width+x] != 0
}

// Foreground counts the pixels set to 255.
func (m BinaryMap) Foreground() int {
	n := 0
	for _, v := range m.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}

// Image converts the map into an *image.Gray.
func (m BinaryMap) Image() *image.Gray {
	return GrayBuffer(m).Image()
}

// FromImage copies any image.Image into an RGBA PixelBuffer whose origin is the
// top-left corner of img.Bounds().
func FromImage(img image.Image) PixelBuffer {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return PixelBuffer{}
	}

	buf := PixelBuffer{Width: width, Height: height, Channels: 4, Pix: make([]uint8, width*height*4)}

	// Fast path for the common decoder outputs.
	if src, ok := img.(*image.NRGBA); ok {
		for y := 0; y < height; y++ {
			off := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			copy(buf.Pix[y*width*4:(y+1)*width*4], src.Pix[off:off+width*4])
		}
		return buf
	}

	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			buf.Pix[i] = c.R
			buf.Pix[i+1] = c.G
			buf.Pix[i+2] = c.B
			buf.Pix[i+3] = c.A
			i += 4
		}
	}
	return buf
}

// Image converts the buffer to an image.Image. Invalid buffers yield an empty
// *image.NRGBA.
func (b PixelBuffer) Image() image.Image {
	if !b.Valid() {
		return image.NewNRGBA(image.Rectangle{})
	}
	rect := image.Rect(0, 0, b.Width, b.Height)
	switch b.Channels {
	case 1:
		img := image.NewGray(rect)
		copy(img.Pix, b.Pix)
		return img
	case 3:
		img := image.NewNRGBA(rect)
		for i, j := 0, 0; i < len(b.Pix); i, j = i+3, j+4 {
			img.Pix[j] = b.Pix[i]
			img.Pix[j+1] = b.Pix[i+1]
			img.Pix[j+2] = b.Pix[i+2]
			img.Pix[j+3] = 255
		}
		return img
	default:
		img := image.NewNRGBA(rect)
		copy(img.Pix, b.Pix)
		return img
	}
}

// clamp constrains an integer value to the range [min, max].
// Used for boundary handling in convolution operations.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

func clampByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
