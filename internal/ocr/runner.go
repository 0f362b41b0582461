package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"runtime"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/ironsheep/docscan-mcp/internal/imaging"
)

// Options configures an extraction.
type Options struct {
	// MultiPreprocessing runs every variant. When false only the
	// adaptive-binary variant runs, as in FastMode.
	MultiPreprocessing bool

	// FastMode runs only the adaptive-binary variant on an image downscaled
	// to FastMaxWidth.
	FastMode     bool
	FastMaxWidth int

	// ConfidenceThreshold excludes attempts below it, 0-100.
	ConfidenceThreshold float64

	SpellCheck      bool
	MaxAlternatives int

	// Concurrency bounds simultaneous engine calls. Zero uses GOMAXPROCS.
	Concurrency int

	// BlockSize and ThresholdC configure the adaptive-binary variant.
	BlockSize  int
	ThresholdC float64

	Language    string
	PageSegMode int
}

// DefaultOptions returns the extraction defaults.
func DefaultOptions() Options {
	return Options{
		MultiPreprocessing:  true,
		FastMaxWidth:        700,
		ConfidenceThreshold: 60,
		SpellCheck:          true,
		MaxAlternatives:     3,
		BlockSize:           imaging.DefaultBlockSize,
		ThresholdC:          imaging.DefaultThresholdC,
		Language:            "eng",
	}
}

// fast reports whether only the adaptive-binary variant runs.
func (o Options) fast() bool {
	return o.FastMode || !o.MultiPreprocessing
}

// Methods returns the variants an extraction with o runs.
func (o Options) Methods() []Method {
	if o.fast() {
		return []Method{MethodAdaptiveBinary}
	}
	return AllMethods
}

// Runner renders preprocessing variants and recognizes each with an Engine.
type Runner struct {
	engine Engine
	opts   Options
}

// NewRunner returns a Runner using engine.
func NewRunner(engine Engine, opts Options) *Runner {
	return &Runner{engine: engine, opts: opts}
}

// Options returns the runner's options.
func (r *Runner) Options() Options {
	return r.opts
}

// Run renders every configured variant of img and recognizes each. Variants
// the engine fails on, or that come back empty, are dropped and reported as
// *AttemptError values in failures. Attempts are returned in variant order.
//
// The error is ctx.Err() on cancellation and wraps ErrAllAttemptsFailed,
// joined with every failure, when no attempt survived.
func (r *Runner) Run(ctx context.Context, img image.Image) (attempts []Attempt, failures []error, err error) {
	if img == nil || img.Bounds().Empty() {
		return nil, nil, imaging.ErrInvalidInput
	}
	if r.opts.fast() && r.opts.FastMaxWidth > 0 {
		img = imaging.Downscale(img, r.opts.FastMaxWidth)
	}

	methods := r.opts.Methods()
	limit := int64(r.opts.Concurrency)
	if limit <= 0 {
		limit = int64(runtime.GOMAXPROCS(0))
	}
	sem := semaphore.NewWeighted(limit)

	results := make([]*Attempt, len(methods))
	errs := make([]error, len(methods))
	var wg sync.WaitGroup

	for i, m := range methods {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)
			results[i], errs[i] = r.attempt(ctx, m, img)
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	for i := range methods {
		if errs[i] != nil {
			failures = append(failures, errs[i])
			continue
		}
		attempts = append(attempts, *results[i])
	}
	if len(attempts) == 0 {
		return nil, failures, fmt.Errorf("%w: %w", ErrAllAttemptsFailed, errors.Join(failures...))
	}
	return attempts, failures, nil
}

func (r *Runner) attempt(ctx context.Context, m Method, img image.Image) (*Attempt, error) {
	start := time.Now()
	variant, err := Render(m, img, r.opts.BlockSize, r.opts.ThresholdC)
	if err != nil {
		return nil, &AttemptError{Method: m, Err: err}
	}
	rec, err := r.engine.Recognize(ctx, variant, RecognizeOptions{
		Language:    r.opts.Language,
		PageSegMode: r.opts.PageSegMode,
	})
	if err != nil {
		return nil, &AttemptError{Method: m, Err: err}
	}
	if rec == nil || strings.TrimSpace(rec.Text) == "" {
		return nil, &AttemptError{Method: m, Err: errEmptyText}
	}
	a := NewAttempt(m, rec, time.Since(start))
	return &a, nil
}

// Extract runs every variant, selects the best attempt and, when enabled,
// applies spell correction to the winning text.
func (r *Runner) Extract(ctx context.Context, img image.Image) (*Selection, error) {
	attempts, failures, err := r.Run(ctx, img)
	if err != nil {
		return nil, err
	}

	sel, err := Select(attempts, r.opts.ConfidenceThreshold, r.opts.MaxAlternatives)
	if err != nil {
		return nil, err
	}
	for _, f := range failures {
		var ae *AttemptError
		if errors.As(f, &ae) {
			sel.Failures = append(sel.Failures, Failure{Method: ae.Method, Error: ae.Err.Error()})
		}
	}

	if r.opts.SpellCheck {
		if text, changed := Correct(sel.Best.Text); changed {
			sel.Best.Text = text
			sel.SpellCorrected = true
		}
	}
	return sel, nil
}
