package ocr

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
)

// scriptedEngine returns canned responses in call order. Run it with
// Options.Concurrency 1 so the order matches AllMethods.
type scriptedEngine struct {
	mu        sync.Mutex
	responses []response
	calls     int
	sizes     []image.Point
	langs     []string
}

type response struct {
	rec *Recognition
	err error
}

var errFake = errors.New("fake engine failure")

func (e *scriptedEngine) Recognize(ctx context.Context, img image.Image, opts RecognizeOptions) (*Recognition, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.sizes = append(e.sizes, img.Bounds().Size())
	e.langs = append(e.langs, opts.Language)
	i := e.calls
	e.calls++
	if i >= len(e.responses) {
		return nil, errFake
	}
	return e.responses[i].rec, e.responses[i].err
}

// recognition builds a Recognition whose words all carry conf.
func recognition(text string, conf float64) *Recognition {
	rec := &Recognition{Text: text, Confidence: conf}
	start := 0
	for i, r := range text + " " {
		if r == ' ' {
			if i > start {
				rec.Words = append(rec.Words, Word{
					Text:       text[start:i],
					Confidence: conf,
					Box:        image.Rect(start*8, 0, i*8, 12),
				})
			}
			start = i + 1
		}
	}
	return rec
}

// createPage creates a white page with a few dark text-like bars.
func createPage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.White)
		}
	}
	for line := 0; line < 3; line++ {
		y0 := 10 + line*20
		for y := y0; y < y0+6 && y < height; y++ {
			for x := 10; x < width-10; x++ {
				if (x/7)%3 != 2 {
					img.Set(x, y, color.RGBA{20, 20, 20, 255})
				}
			}
		}
	}
	return img
}
