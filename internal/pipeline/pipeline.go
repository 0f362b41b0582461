// Package pipeline ties boundary detection, cropping and multi-variant OCR
// into one object with an explicit lifetime. It owns the decoded image cache,
// so there is no package-level state anywhere in the processing path.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/ironsheep/docscan-mcp/internal/detection"
	"github.com/ironsheep/docscan-mcp/internal/imaging"
	"github.com/ironsheep/docscan-mcp/internal/ocr"
	"github.com/ironsheep/docscan-mcp/internal/session"
)

// DefaultCropPadding is the margin kept around a detected boundary when it is
// cropped for OCR.
const DefaultCropPadding = 4

// ErrClosed is returned by a Pipeline after Close.
var ErrClosed = errors.New("pipeline closed")

// Options configures a Pipeline.
type Options struct {
	Detection   detection.Options
	OCR         ocr.Options
	CropPadding int
}

// DefaultOptions returns the pipeline defaults.
func DefaultOptions() Options {
	return Options{
		Detection:   detection.DefaultOptions(),
		OCR:         ocr.DefaultOptions(),
		CropPadding: DefaultCropPadding,
	}
}

// Report is the outcome of Process.
type Report struct {
	Detection *detection.DetectionResult `json:"detection"`

	// Selection is nil when no boundary was found.
	Selection *ocr.Selection `json:"selection,omitempty"`

	DetectElapsed  time.Duration `json:"detect_elapsed_ns"`
	ExtractElapsed time.Duration `json:"extract_elapsed_ns,omitempty"`
}

// Pipeline runs detection and extraction. It is safe for concurrent use.
type Pipeline struct {
	opts   Options
	engine ocr.Engine
	cache  *imaging.ImageCache
	runner *ocr.Runner
	log    *slog.Logger
	closed chan struct{}
}

// New returns a Pipeline recognizing text with engine. A nil logger uses
// slog.Default.
func New(engine ocr.Engine, opts Options, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		opts:   opts,
		engine: engine,
		cache:  imaging.NewImageCache(imaging.DefaultCacheCapacity),
		runner: ocr.NewRunner(engine, opts.OCR),
		log:    logger,
		closed: make(chan struct{}),
	}
}

// WithDetection returns a Pipeline that shares p's cache and lifetime but
// detects with opts.
func (p *Pipeline) WithDetection(opts detection.Options) *Pipeline {
	q := *p
	q.opts.Detection = opts
	return &q
}

// WithOCR returns a Pipeline that shares p's cache and lifetime but extracts
// with opts.
func (p *Pipeline) WithOCR(opts ocr.Options) *Pipeline {
	q := *p
	q.opts.OCR = opts
	q.runner = ocr.NewRunner(p.engine, opts)
	return &q
}

// Options returns the pipeline options.
func (p *Pipeline) Options() Options {
	return p.opts
}

// Cache returns the decoded image cache.
func (p *Pipeline) Cache() *imaging.ImageCache {
	return p.cache
}

// Close releases cached images. Later calls fail with ErrClosed.
func (p *Pipeline) Close() {
	select {
	case <-p.closed:
		return
	default:
	}
	close(p.closed)
	p.cache.Clear()
}

func (p *Pipeline) check(ctx context.Context) error {
	select {
	case <-p.closed:
		return ErrClosed
	default:
	}
	return ctx.Err()
}

// Load decodes the image at path through the cache.
func (p *Pipeline) Load(path string) (image.Image, error) {
	select {
	case <-p.closed:
		return nil, ErrClosed
	default:
	}
	return p.cache.Load(path)
}

// Unload drops the cached image at path so the next Load reads the file
// again. It reports whether the path was cached.
func (p *Pipeline) Unload(path string) bool {
	removed := p.cache.Evict(path)
	p.log.Debug("image unloaded", "path", path, "cached", removed)
	return removed
}

// Detect finds the document boundary in img.
func (p *Pipeline) Detect(ctx context.Context, img image.Image) (*detection.DetectionResult, error) {
	if err := p.check(ctx); err != nil {
		return nil, err
	}
	return p.detectBuffer(ctx, imaging.FromImage(img))
}

// DetectFile loads the image at path through the cache and finds its
// boundary.
func (p *Pipeline) DetectFile(ctx context.Context, path string) (*detection.DetectionResult, error) {
	if err := p.check(ctx); err != nil {
		return nil, err
	}
	buf, err := p.cache.LoadBuffer(path)
	if err != nil {
		return nil, err
	}
	return p.detectBuffer(ctx, buf)
}

func (p *Pipeline) detectBuffer(ctx context.Context, buf imaging.PixelBuffer) (*detection.DetectionResult, error) {
	if !buf.Valid() {
		return nil, imaging.ErrInvalidInput
	}
	start := time.Now()
	res, err := detection.Detect(ctx, buf, p.opts.Detection)
	if err != nil {
		return nil, err
	}
	if res.Found() {
		p.log.Debug("boundary detected",
			"method", res.Candidate.Method,
			"confidence", res.Candidate.Confidence,
			"box", res.Candidate.BoundingBox,
			"elapsed", time.Since(start))
	} else {
		p.log.Debug("no boundary", "elapsed", time.Since(start))
	}
	return res, nil
}

// Extract recognizes the text inside box, padded by CropPadding. A nil box
// recognizes the whole image.
func (p *Pipeline) Extract(ctx context.Context, img image.Image, box *detection.BoundingBox) (*ocr.Selection, error) {
	if err := p.check(ctx); err != nil {
		return nil, err
	}
	region := img
	if box != nil {
		r := box.Rect().Add(img.Bounds().Min)
		cropped, err := imaging.CropRegion(img, r, p.opts.CropPadding)
		if err != nil {
			return nil, fmt.Errorf("failed to crop boundary: %w", err)
		}
		region = cropped
	}

	start := time.Now()
	sel, err := p.runner.Extract(ctx, region)
	if err != nil {
		p.log.Warn("extraction failed", "error", err, "elapsed", time.Since(start))
		return nil, err
	}
	for _, f := range sel.Failures {
		p.log.Debug("variant dropped", "method", f.Method, "error", f.Error)
	}
	p.log.Debug("text extracted",
		"method", sel.Best.Method,
		"confidence", sel.Best.Confidence,
		"quality", sel.Best.QualityScore,
		"spell_corrected", sel.SpellCorrected,
		"elapsed", time.Since(start))
	return sel, nil
}

// Process detects the boundary in img and, when one is found, extracts its
// text. Finding no boundary is not an error; the report then has a nil
// Selection.
func (p *Pipeline) Process(ctx context.Context, img image.Image) (*Report, error) {
	start := time.Now()
	det, err := p.Detect(ctx, img)
	if err != nil {
		return nil, err
	}
	report := &Report{Detection: det, DetectElapsed: time.Since(start)}
	if !det.Found() {
		return report, nil
	}

	start = time.Now()
	box := det.Candidate.BoundingBox
	sel, err := p.Extract(ctx, img, &box)
	if err != nil {
		return report, err
	}
	report.Selection = sel
	report.ExtractElapsed = time.Since(start)
	return report, nil
}

// Extractor adapts Extract for a session.Controller.
func (p *Pipeline) Extractor() session.ExtractFunc {
	return func(ctx context.Context, frame image.Image, box detection.BoundingBox) (*ocr.Selection, error) {
		return p.Extract(ctx, frame, &box)
	}
}
