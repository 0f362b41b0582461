package imaging

import "math"

// Grayscale converts a pixel buffer to luminance using ITU-R BT.601 weights
// (0.299*R + 0.587*G + 0.114*B). Single-channel input is copied unchanged.
// Invalid input yields the empty GrayBuffer.
func Grayscale(b PixelBuffer) GrayBuffer {
	if !b.Valid() {
		return GrayBuffer{}
	}
	out := NewGrayBuffer(b.Width, b.Height)
	if b.Channels == 1 {
		copy(out.Pix, b.Pix)
		return out
	}
	for i, j := 0, 0; j < len(out.Pix); i, j = i+b.Channels, j+1 {
		r := float64(b.Pix[i])
		g := float64(b.Pix[i+1])
		bl := float64(b.Pix[i+2])
		out.Pix[j] = clampByte(0.299*r + 0.587*g + 0.114*bl)
	}
	return out
}

// GaussianKernel returns the normalized 1-D kernel for the given radius.
// sigma = radius/3, so the kernel spans +-3 sigma. The 2-D kernel
// exp(-(x²+y²)/(2σ²)) is the outer product of this kernel with itself.
func GaussianKernel(radius int) []float64 {
	if radius < 1 {
		return []float64{1}
	}
	sigma := float64(radius) / 3.0
	kernel := make([]float64, 2*radius+1)
	var sum float64
	for i := -radius; i <= radius; i++ {
		v := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		kernel[i+radius] = v
		sum += v
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// GaussianBlur smooths a gray buffer with a separable Gaussian of the given
// radius. Border pixels use clamped coordinates.
func GaussianBlur(g GrayBuffer, radius int) GrayBuffer {
	if !g.Valid() {
		return GrayBuffer{}
	}
	blurred := blurField(toField(g), g.Width, g.Height, radius)
	out := NewGrayBuffer(g.Width, g.Height)
	for i, v := range blurred {
		out.Pix[i] = clampByte(v)
	}
	return out
}

// toField widens a gray buffer to float64 samples.
func toField(g GrayBuffer) []float64 {
	f := make([]float64, len(g.Pix))
	for i, v := range g.Pix {
		f[i] = float64(v)
	}
	return f
}

// blurField applies the separable Gaussian to a float field. Keeping the
// intermediate in float64 avoids double rounding for the edge detectors.
func blurField(src []float64, width, height, radius int) []float64 {
	kernel := GaussianKernel(radius)
	r := len(kernel) / 2

	tmp := make([]float64, len(src))
	for y := 0; y < height; y++ {
		row := y * width
		for x := 0; x < width; x++ {
			var sum float64
			for k := -r; k <= r; k++ {
				sum += src[row+clamp(x+k, 0, width-1)] * kernel[k+r]
			}
			tmp[row+x] = sum
		}
	}

	out := make([]float64, len(src))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var sum float64
			for k := -r; k <= r; k++ {
				sum += tmp[clamp(y+k, 0, height-1)*width+x] * kernel[k+r]
			}
			out[y*width+x] = sum
		}
	}
	return out
}

// GradientField holds per-pixel gradient magnitude and direction (radians,
// atan2(Gy, Gx)).
type GradientField struct {
	Width     int
	Height    int
	Magnitude []float64
	Direction []float64
}

// Valid reports whether the field carries data for every pixel.
func (f GradientField) Valid() bool {
	n := f.Width * f.Height
	return f.Width > 0 && f.Height > 0 && len(f.Magnitude) == n && len(f.Direction) == n
}

var (
	sobelX = [3][3]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	sobelY = [3][3]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}
	scharrX = [3][3]float64{
		{-3, 0, 3},
		{-10, 0, 10},
		{-3, 0, 3},
	}
	scharrY = [3][3]float64{
		{-3, -10, -3},
		{0, 0, 0},
		{3, 10, 3},
	}
)

// Sobel computes the 3x3 Sobel gradient of a gray buffer.
// magnitude = sqrt(Gx² + Gy²), direction = atan2(Gy, Gx).
func Sobel(g GrayBuffer) GradientField {
	if !g.Valid() {
		return GradientField{}
	}
	return gradient(toField(g), g.Width, g.Height, &sobelX, &sobelY)
}

// Scharr computes the 3x3 Scharr gradient, which has better rotational
// symmetry than Sobel at the cost of larger magnitudes.
func Scharr(g GrayBuffer) GradientField {
	if !g.Valid() {
		return GradientField{}
	}
	return gradient(toField(g), g.Width, g.Height, &scharrX, &scharrY)
}

func gradient(src []float64, width, height int, kx, ky *[3][3]float64) GradientField {
	field := GradientField{
		Width:     width,
		Height:    height,
		Magnitude: make([]float64, width*height),
		Direction: make([]float64, width*height),
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var gx, gy float64
			for dy := -1; dy <= 1; dy++ {
				py := clamp(y+dy, 0, height-1)
				for dx := -1; dx <= 1; dx++ {
					v := src[py*width+clamp(x+dx, 0, width-1)]
					gx += v * kx[dy+1][dx+1]
					gy += v * ky[dy+1][dx+1]
				}
			}
			i := y*width + x
			field.Magnitude[i] = math.Sqrt(gx*gx + gy*gy)
			field.Direction[i] = math.Atan2(gy, gx)
		}
	}
	return field
}

// NormalizeMagnitude rescales a gradient magnitude field to 0-255 relative to
// its maximum. A field with no gradient maps to an all-zero buffer.
func NormalizeMagnitude(f GradientField) GrayBuffer {
	if !f.Valid() {
		return GrayBuffer{}
	}
	var maxMag float64
	for _, m := range f.Magnitude {
		if m > maxMag {
			maxMag = m
		}
	}
	out := NewGrayBuffer(f.Width, f.Height)
	if maxMag == 0 {
		return out
	}
	scale := 255.0 / maxMag
	for i, m := range f.Magnitude {
		out.Pix[i] = clampByte(m * scale)
	}
	return out
}
