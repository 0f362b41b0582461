package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// DefaultOverlayColor is used when the requested color cannot be parsed.
const DefaultOverlayColor = "#00ff00"

// OverlayResult contains the image with a boundary outline drawn on it.
type OverlayResult struct {
	EncodedImage
	Vertices int `json:"vertices"`
}

// Overlay draws a closed polygon on a copy of img, blending the outline color
// with the underlying pixels by opacity (0-1). When label is non-empty it is
// drawn at the first vertex using a small built-in digit font.
func Overlay(img image.Image, polygon []image.Point, colorHex string, opacity float64, thickness int, label string) (*OverlayResult, error) {
	if len(polygon) < 2 {
		return nil, fmt.Errorf("overlay requires at least 2 vertices, got %d", len(polygon))
	}
	lineColor, err := colorful.Hex(colorHex)
	if err != nil {
		lineColor, _ = colorful.Hex(DefaultOverlayColor)
	}
	if opacity <= 0 || opacity > 1 {
		opacity = 1
	}
	if thickness < 1 {
		thickness = 1
	}

	bounds := img.Bounds()
	result := image.NewRGBA(bounds)
	draw.Draw(result, bounds, img, bounds.Min, draw.Src)

	for i := range polygon {
		a := polygon[i]
		b := polygon[(i+1)%len(polygon)]
		drawLine(result, a, b, thickness, lineColor, opacity)
	}

	if label != "" {
		r, g, b := lineColor.RGB255()
		drawLabel(result, polygon[0].X+2, polygon[0].Y+2, label,
			color.RGBA{255, 255, 255, 255}, color.RGBA{r / 2, g / 2, b / 2, 255})
	}

	enc, err := EncodePNG(result)
	if err != nil {
		return nil, err
	}
	return &OverlayResult{EncodedImage: *enc, Vertices: len(polygon)}, nil
}

// drawLine rasterizes a segment with Bresenham's algorithm, stamping a square
// of side thickness at every step.
func drawLine(img *image.RGBA, a, b image.Point, thickness int, c colorful.Color, opacity float64) {
	dx := int(math.Abs(float64(b.X - a.X)))
	dy := -int(math.Abs(float64(b.Y - a.Y)))
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	errAcc := dx + dy
	x, y := a.X, a.Y
	half := thickness / 2
	for {
		for oy := -half; oy < thickness-half; oy++ {
			for ox := -half; ox < thickness-half; ox++ {
				blendPixel(img, x+ox, y+oy, c, opacity)
			}
		}
		if x == b.X && y == b.Y {
			return
		}
		e2 := 2 * errAcc
		if e2 >= dy {
			errAcc += dy
			x += sx
		}
		if e2 <= dx {
			errAcc += dx
			y += sy
		}
	}
}

func blendPixel(img *image.RGBA, x, y int, c colorful.Color, opacity float64) {
	if !(image.Point{x, y}).In(img.Bounds()) {
		return
	}
	dst := c
	if opacity < 1 {
		under, ok := colorful.MakeColor(img.RGBAAt(x, y))
		if ok {
			dst = under.BlendRgb(c, opacity)
		}
	}
	r, g, b := dst.Clamped().RGB255()
	img.SetRGBA(x, y, color.RGBA{r, g, b, 255})
}

// drawLabel draws a simple text label at the given position using a 3x5
// pixel font covering digits, '.' and '%'.
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	glyphs := map[rune][]string{
		'0': {"111", "101", "101", "101", "111"},
		'1': {"010", "110", "010", "010", "111"},
		'2': {"111", "001", "111", "100", "111"},
		'3': {"111", "001", "111", "001", "111"},
		'4': {"101", "101", "111", "001", "001"},
		'5': {"111", "100", "111", "001", "111"},
		'6': {"111", "100", "111", "101", "111"},
		'7': {"111", "001", "001", "001", "001"},
		'8': {"111", "101", "111", "101", "111"},
		'9': {"111", "101", "111", "001", "111"},
		'.': {"000", "000", "000", "000", "010"},
		'%': {"101", "001", "010", "100", "101"},
	}

	bounds := img.Bounds()
	charWidth := 4
	labelWidth := len(text) * charWidth
	labelHeight := 7

	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			if p := (image.Point{x + dx, y + dy}); p.In(bounds) {
				img.SetRGBA(p.X, p.Y, bg)
			}
		}
	}

	cx := x
	for _, ch := range text {
		glyph, ok := glyphs[ch]
		if !ok {
			cx += charWidth
			continue
		}
		for row, line := range glyph {
			for col, pixel := range line {
				if pixel != '1' {
					continue
				}
				if p := (image.Point{cx + col, y + row}); p.In(bounds) {
					img.SetRGBA(p.X, p.Y, fg)
				}
			}
		}
		cx += charWidth
	}
}
