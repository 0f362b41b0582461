package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"math"
)

// CannyBlurRadius is the Gaussian radius applied before gradient computation
// (sigma = 1).
const CannyBlurRadius = 3

// Canny performs Canny edge detection on a gray buffer.
//
// Thresholds are in gradient-magnitude units of the Sobel operator applied to
// 0-255 samples. Pixels at or above thresholdHigh are strong edges; pixels
// between the thresholds survive only when connected (8-neighborhood, any
// distance) to a strong edge.
//
// # Algorithm
//
//  1. Gaussian blur (radius CannyBlurRadius) to reduce noise
//  2. Sobel gradient: magnitude = sqrt(Gx² + Gy²), direction = atan2(Gy, Gx)
//  3. Non-maximum suppression along the quantized gradient direction
//  4. Hysteresis linking with an explicit work stack
//
// Invalid input yields the empty BinaryMap.
func Canny(g GrayBuffer, thresholdLow, thresholdHigh float64) BinaryMap {
	if !g.Valid() {
		return BinaryMap{}
	}
	if thresholdLow > thresholdHigh {
		thresholdLow, thresholdHigh = thresholdHigh, thresholdLow
	}
	width, height := g.Width, g.Height

	blurred := blurField(toField(g), width, height, CannyBlurRadius)
	grad := gradient(blurred, width, height, &sobelX, &sobelY)
	suppressed := nonMaxSuppression(grad)

	return hysteresis(suppressed, width, height, thresholdLow, thresholdHigh)
}

// nonMaxSuppression thins edges to 1-pixel width by keeping only local maxima
// in the gradient direction. Border pixels are always suppressed.
func nonMaxSuppression(grad GradientField) []float64 {
	width, height := grad.Width, grad.Height
	mag := grad.Magnitude
	suppressed := make([]float64, width*height)

	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			i := y*width + x
			m := mag[i]
			if m == 0 {
				continue
			}
			angle := grad.Direction[i]

			// Determine neighbors to compare based on gradient direction
			var n1, n2 float64
			switch {
			case (angle >= -math.Pi/8 && angle < math.Pi/8) || angle >= 7*math.Pi/8 || angle < -7*math.Pi/8:
				n1 = mag[i-1]
				n2 = mag[i+1]
			case (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8):
				n1 = mag[i-width-1]
				n2 = mag[i+width+1]
			case (angle >= 3*math.Pi/8 && angle < 5*math.Pi/8) || (angle >= -5*math.Pi/8 && angle < -3*math.Pi/8):
				n1 = mag[i-width]
				n2 = mag[i+width]
			default:
				n1 = mag[i-width+1]
				n2 = mag[i+width-1]
			}

			if m >= n1 && m >= n2 {
				suppressed[i] = m
			}
		}
	}
	return suppressed
}

// hysteresis keeps strong edges and every weak edge reachable from one.
func hysteresis(suppressed []float64, width, height int, low, high float64) BinaryMap {
	out := NewBinaryMap(width, height)
	stack := make([]int, 0, 256)

	for i, v := range suppressed {
		if v >= high && out.Pix[i] == 0 {
			out.Pix[i] = 255
			stack = append(stack, i)
		}
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			px, py := p%width, p/width
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := px+dx, py+dy
					if nx < 0 || ny < 0 || nx >= width || ny >= height {
						continue
					}
					n := ny*width + nx
					if out.Pix[n] == 0 && suppressed[n] >= low && suppressed[n] > 0 {
						out.Pix[n] = 255
						stack = append(stack, n)
					}
				}
			}
		}
	}
	return out
}

// EdgeMapResult contains an edge map encoded as base64 PNG.
//
// White pixels (255) are edges, black pixels (0) are not.
type EdgeMapResult struct {
	// Width of the output image in pixels (same as input).
	Width int `json:"width"`

	// Height of the output image in pixels (same as input).
	Height int `json:"height"`

	// EdgePixels is the number of pixels marked as edges.
	EdgePixels int `json:"edge_pixels"`

	// ImageBase64 is the edge image encoded as base64 PNG.
	ImageBase64 string `json:"image_base64"`

	// MimeType is always "image/png".
	MimeType string `json:"mime_type"`
}

// EncodeEdgeMap renders a binary map as a base64 PNG result.
func EncodeEdgeMap(m BinaryMap) (*EdgeMapResult, error) {
	if !m.Valid() {
		return nil, ErrInvalidInput
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, m.Image()); err != nil {
		return nil, fmt.Errorf("failed to encode edge image: %w", err)
	}
	return &EdgeMapResult{
		Width:       m.Width,
		Height:      m.Height,
		EdgePixels:  m.Foreground(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}
