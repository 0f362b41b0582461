package detection

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/docscan-mcp/internal/imaging"
)

// AdaptiveFallbackConfidence is the Canny confidence below which the adaptive
// threshold detector also runs.
const AdaptiveFallbackConfidence = 0.6

// Options configures a detection pass.
type Options struct {
	// MinBoundaryArea is the smallest accepted candidate area in square pixels.
	MinBoundaryArea int

	// MaxAreaRatio rejects candidates covering more than this fraction of the
	// frame. Zero disables the check.
	MaxAreaRatio float64

	// CannyLow and CannyHigh are the hysteresis thresholds.
	CannyLow  float64
	CannyHigh float64

	// BlockSize and ThresholdC configure the adaptive threshold detector.
	BlockSize  int
	ThresholdC float64

	// CombineResults attaches every contributing detector to the result.
	CombineResults bool

	// Parallel runs independent detectors concurrently. The outcome is the
	// same as a sequential pass.
	Parallel bool
}

// DefaultOptions returns the detection defaults.
func DefaultOptions() Options {
	return Options{
		MinBoundaryArea: 1000,
		MaxAreaRatio:    0.98,
		CannyLow:        50,
		CannyHigh:       150,
		BlockSize:       imaging.DefaultBlockSize,
		ThresholdC:      imaging.DefaultThresholdC,
		CombineResults:  true,
	}
}

// Detect finds the document boundary in a frame.
//
// Detectors run in a fixed order with fixed weights: Canny (1.0), adaptive
// threshold (0.8, only when Canny found nothing or is below
// AdaptiveFallbackConfidence), edge projection (0.6) and Scharr/Otsu gradient
// (0.7). The candidate with the highest confidence*weight wins; on ties the
// earlier detector is kept. No geometric merging takes place.
//
// An invalid buffer or a frame without a boundary yields a result with a nil
// Candidate. The only error is ctx cancellation.
func Detect(ctx context.Context, buf imaging.PixelBuffer, opts Options) (*DetectionResult, error) {
	gray := imaging.Grayscale(buf)
	if !gray.Valid() {
		return &DetectionResult{}, nil
	}
	return DetectGray(ctx, gray, opts)
}

// DetectGray is Detect for a frame that is already grayscale.
func DetectGray(ctx context.Context, gray imaging.GrayBuffer, opts Options) (*DetectionResult, error) {
	if !gray.Valid() {
		return &DetectionResult{}, nil
	}

	found := make([]*BoundaryCandidate, len(Methods))
	independent := []Method{MethodCanny, MethodProjection, MethodGradient}

	if opts.Parallel {
		g, gctx := errgroup.WithContext(ctx)
		for _, m := range independent {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				found[m] = detect(m, gray, opts)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for _, m := range independent {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			found[m] = detect(m, gray, opts)
		}
	}

	if c := found[MethodCanny]; c == nil || c.Confidence < AdaptiveFallbackConfidence {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		found[MethodAdaptive] = detect(MethodAdaptive, gray, opts)
	}

	return selectCandidate(found, opts.CombineResults), nil
}

// selectCandidate ranks per-detector candidates (indexed by Method) by
// weighted confidence.
func selectCandidate(found []*BoundaryCandidate, combine bool) *DetectionResult {
	result := &DetectionResult{}
	var contributions []Contribution
	var winner Contribution
	bestScore := -1.0

	for _, m := range Methods {
		c := found[m]
		if c == nil {
			continue
		}
		contrib := Contribution{
			Method:        m,
			Weight:        m.Weight(),
			Confidence:    c.Confidence,
			WeightedScore: c.Confidence * m.Weight(),
		}
		contributions = append(contributions, contrib)
		if contrib.WeightedScore > bestScore {
			bestScore = contrib.WeightedScore
			result.Candidate = c
			winner = contrib
		}
	}

	switch {
	case result.Candidate == nil:
	case combine && len(contributions) >= 2:
		result.Contributors = contributions
	default:
		result.Contributors = []Contribution{winner}
	}
	return result
}
