//go:build cgo

package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/docscan-mcp/internal/ocr"
)

// Engine recognizes text with Tesseract. Each call uses its own client, so an
// Engine is safe for concurrent use.
type Engine struct {
	cfg Config
}

var _ ocr.Engine = (*Engine)(nil)

// New returns an Engine.
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Recognize runs Tesseract on img. Tesseract itself cannot be interrupted;
// when ctx is done Recognize returns ctx.Err() and the call finishes in the
// background.
func (e *Engine) Recognize(ctx context.Context, img image.Image, opts ocr.RecognizeOptions) (*ocr.Recognition, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	type result struct {
		rec *ocr.Recognition
		err error
	}
	resultCh := make(chan result, 1)

	go func() {
		rec, err := e.recognize(buf.Bytes(), opts)
		resultCh <- result{rec, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultCh:
		return res.rec, res.err
	}
}

func (e *Engine) recognize(data []byte, opts ocr.RecognizeOptions) (*ocr.Recognition, error) {
	client, err := e.client()
	if err != nil {
		return nil, err
	}
	defer client.Close()

	if err := client.SetLanguage(e.cfg.language(opts.Language)); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if opts.PageSegMode > 0 {
		if err := client.SetPageSegMode(gosseract.PageSegMode(opts.PageSegMode)); err != nil {
			return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
		}
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}
	rec := &ocr.Recognition{Text: strings.TrimSpace(text)}

	// Word boxes are optional; the text alone is still a result.
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return rec, nil
	}
	total := 0.0
	for _, box := range boxes {
		if strings.TrimSpace(box.Word) == "" {
			continue
		}
		rec.Words = append(rec.Words, ocr.Word{
			Text:       box.Word,
			Confidence: box.Confidence,
			Box:        box.Box,
		})
		total += box.Confidence
	}
	if len(rec.Words) > 0 {
		rec.Confidence = total / float64(len(rec.Words))
	}
	return rec, nil
}

func (e *Engine) client() (*gosseract.Client, error) {
	client := gosseract.NewClient()
	if e.cfg.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(e.cfg.TessdataPrefix); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set tessdata path: %w", err)
		}
	}
	return client, nil
}

// Info reports the Tesseract version.
func (e *Engine) Info() Info {
	client := gosseract.NewClient()
	defer client.Close()
	return Info{
		Available:      true,
		Version:        client.Version(),
		Backend:        Backend,
		TessdataPrefix: e.cfg.TessdataPrefix,
	}
}
