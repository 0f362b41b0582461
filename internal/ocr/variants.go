package ocr

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"

	"github.com/ironsheep/docscan-mcp/internal/imaging"
)

// Method is a preprocessing variant rendered before recognition.
type Method int

// Preprocessing variants.
const (
	MethodOriginal Method = iota
	MethodEnhanced
	MethodAdaptiveBinary
	MethodHighContrast
	MethodDenoised
)

// AllMethods lists every variant in the order attempts are reported.
var AllMethods = []Method{
	MethodOriginal,
	MethodEnhanced,
	MethodAdaptiveBinary,
	MethodHighContrast,
	MethodDenoised,
}

const (
	// enhanceBlurRadius is the light blur applied before stretching.
	enhanceBlurRadius = 1

	// sigmoidGain is the steepness of the high-contrast curve.
	sigmoidGain = 12.0

	// denoiseBlurRadius is the bild Gaussian radius used by the denoised variant.
	denoiseBlurRadius = 1.0

	// openingRadius is the structuring element radius of the opening.
	openingRadius = 1.0
)

func (m Method) String() string {
	switch m {
	case MethodOriginal:
		return "original"
	case MethodEnhanced:
		return "enhanced"
	case MethodAdaptiveBinary:
		return "adaptive-binary"
	case MethodHighContrast:
		return "high-contrast"
	case MethodDenoised:
		return "denoised"
	default:
		return fmt.Sprintf("method(%d)", int(m))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Method) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// ParseMethod resolves a variant name as produced by String.
func ParseMethod(name string) (Method, error) {
	for _, m := range AllMethods {
		if strings.EqualFold(name, m.String()) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown preprocessing method: %q", name)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Method) UnmarshalText(text []byte) error {
	parsed, err := ParseMethod(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Render produces the given variant of img. The input is never modified.
//
//   - original: img unchanged
//   - enhanced: grayscale, light Gaussian blur, histogram stretch to 0-255
//   - adaptive-binary: grayscale, adaptive threshold, text black on white
//   - high-contrast: per-channel sigmoid 1/(1+e^(-12(x-0.5))) on x in [0,1]
//   - denoised: blur, grayscale, morphological opening (erode then dilate)
func Render(m Method, img image.Image, blockSize int, c float64) (image.Image, error) {
	switch m {
	case MethodOriginal:
		return img, nil
	case MethodEnhanced:
		gray := imaging.Grayscale(imaging.FromImage(img))
		if !gray.Valid() {
			return nil, imaging.ErrInvalidInput
		}
		return imaging.HistogramStretch(imaging.GaussianBlur(gray, enhanceBlurRadius)).Image(), nil
	case MethodAdaptiveBinary:
		gray := imaging.Grayscale(imaging.FromImage(img))
		if !gray.Valid() {
			return nil, imaging.ErrInvalidInput
		}
		return imaging.Invert(imaging.AdaptiveThreshold(gray, blockSize, c)).Image(), nil
	case MethodHighContrast:
		return adjust.Apply(img, sigmoid), nil
	case MethodDenoised:
		gray := effect.Grayscale(blur.Gaussian(img, denoiseBlurRadius))
		return effect.Dilate(effect.Erode(gray, openingRadius), openingRadius), nil
	default:
		return nil, fmt.Errorf("unknown preprocessing method: %d", int(m))
	}
}

// sigmoidLUT maps each 8-bit sample through the high-contrast curve.
var sigmoidLUT = func() [256]uint8 {
	var lut [256]uint8
	for i := range lut {
		x := float64(i) / 255
		y := 1 / (1 + math.Exp(-sigmoidGain*(x-0.5)))
		lut[i] = uint8(math.Round(y * 255))
	}
	return lut
}()

func sigmoid(c color.RGBA) color.RGBA {
	return color.RGBA{R: sigmoidLUT[c.R], G: sigmoidLUT[c.G], B: sigmoidLUT[c.B], A: c.A}
}
