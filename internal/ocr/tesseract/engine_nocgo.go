//go:build !cgo

package tesseract

import (
	"context"
	"image"

	"github.com/ironsheep/docscan-mcp/internal/ocr"
)

// Engine is a placeholder that always fails with ErrUnavailable.
type Engine struct {
	cfg Config
}

var _ ocr.Engine = (*Engine)(nil)

// New returns an Engine.
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Recognize returns ErrUnavailable.
func (e *Engine) Recognize(ctx context.Context, img image.Image, opts ocr.RecognizeOptions) (*ocr.Recognition, error) {
	return nil, ErrUnavailable
}

// Info reports that OCR is unavailable.
func (e *Engine) Info() Info {
	return Info{
		Available: false,
		Error:     ErrUnavailable.Error(),
		Backend:   Backend,
	}
}
