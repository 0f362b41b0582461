package detection

import "github.com/ironsheep/docscan-mcp/internal/imaging"

// adaptiveBlurRadius smooths paper texture before local thresholding.
const adaptiveBlurRadius = 2

// detect runs a single detector over a grayscale frame and returns its best
// candidate, or nil.
func detect(method Method, gray imaging.GrayBuffer, opts Options) *BoundaryCandidate {
	frame := Frame{
		Width:        gray.Width,
		Height:       gray.Height,
		MinArea:      opts.MinBoundaryArea,
		MaxAreaRatio: opts.MaxAreaRatio,
	}
	switch method {
	case MethodCanny:
		return detectCanny(gray, opts, frame)
	case MethodAdaptive:
		return detectAdaptive(gray, opts, frame)
	case MethodProjection:
		return detectProjection(gray, frame)
	case MethodGradient:
		return detectGradient(gray, frame)
	default:
		return nil
	}
}

// detectCanny traces the Canny edge map after a 3x3 dilation that closes
// one-pixel gaps left by non-maximum suppression at corners.
func detectCanny(gray imaging.GrayBuffer, opts Options, frame Frame) *BoundaryCandidate {
	edges := imaging.Canny(gray, opts.CannyLow, opts.CannyHigh)
	return bestOf(imaging.Dilate(edges, 1), MethodCanny, frame)
}

// detectAdaptive traces the dark-on-light foreground of a locally
// thresholded frame.
func detectAdaptive(gray imaging.GrayBuffer, opts Options, frame Frame) *BoundaryCandidate {
	blurred := imaging.GaussianBlur(gray, adaptiveBlurRadius)
	binary := imaging.AdaptiveThreshold(blurred, opts.BlockSize, opts.ThresholdC)
	return bestOf(binary, MethodAdaptive, frame)
}

// detectGradient thresholds the normalized Scharr magnitude at the Otsu level.
// A frame without any gradient has no Otsu split and yields nil.
func detectGradient(gray imaging.GrayBuffer, frame Frame) *BoundaryCandidate {
	magnitude := imaging.NormalizeMagnitude(imaging.Scharr(gray))
	level, ok := imaging.Otsu(magnitude)
	if !ok {
		return nil
	}
	edges := imaging.Threshold(magnitude, level)
	return bestOf(imaging.Dilate(edges, 1), MethodGradient, frame)
}

// bestOf traces a binary map and returns the top-scoring candidate.
func bestOf(m imaging.BinaryMap, method Method, frame Frame) *BoundaryCandidate {
	contours := Trace(m)
	candidates := make([]BoundaryCandidate, 0, len(contours))
	for _, c := range contours {
		if cand, ok := ScoreContour(c, method, frame); ok {
			candidates = append(candidates, cand)
		}
	}
	return best(candidates)
}
