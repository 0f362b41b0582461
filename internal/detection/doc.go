// Package detection finds the boundary of a document in a captured frame.
//
// Four independent detectors each produce at most one BoundaryCandidate:
//
//   - Canny: gradient, non-maximum suppression and hysteresis, followed by a
//     3x3 dilation and contour tracing
//   - Adaptive: local mean threshold of the blurred frame
//   - Projection: row and column edge profiles (cheap, no tracing)
//   - Gradient: Scharr magnitude thresholded at its Otsu level
//
// Contours are traced with Moore neighbor following (Trace), simplified with
// Douglas-Peucker (Simplify) and scored by ScoreContour:
//
//	score = rectangularity * cornerBonus * sqrt(area)
//
// Detect runs the detectors in a fixed order, weights their confidences and
// keeps the best candidate. When nothing is found the result carries a nil
// Candidate; that is an expected outcome, not an error.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//   - BoundingBox Width and Height count pixels, so they are inclusive of
//     both extreme points
//
// # Determinism
//
// Every function is a pure function of its inputs. Running the detectors in
// parallel (Options.Parallel) does not change the result.
package detection
