package detection

import "math"

// NonQuadCornerBonus is the corner bonus for polygons that do not have exactly
// four vertices.
const NonQuadCornerBonus = 0.6

// Frame describes the image a candidate was found in and the area limits a
// candidate must respect.
type Frame struct {
	Width        int
	Height       int
	MinArea      int
	MaxAreaRatio float64
}

// ScoreContour turns a traced contour into a boundary candidate.
//
//	rectangularity = shoelace area / bounding-box area
//	confidence     = rectangularity * cornerBonus
//	score          = confidence * sqrt(area)
//
// The area and bounding box come from the traced contour; the corner bonus
// and the candidate polygon come from its Douglas-Peucker simplification.
// ok is false for degenerate geometry and for areas outside the frame limits.
func ScoreContour(traced Contour, method Method, frame Frame) (BoundaryCandidate, bool) {
	if !traced.Usable() {
		return BoundaryCandidate{}, false
	}
	area := ShoelaceArea(traced.Points)
	if area <= 0 || area < float64(frame.MinArea) {
		return BoundaryCandidate{}, false
	}
	if frame.MaxAreaRatio > 0 && area > frame.MaxAreaRatio*float64(frame.Width*frame.Height) {
		return BoundaryCandidate{}, false
	}

	box := boundsOf(traced.Points)
	if box.X < 0 || box.Y < 0 || box.X+box.Width > frame.Width || box.Y+box.Height > frame.Height {
		return BoundaryCandidate{}, false
	}

	simplified := SimplifyRelative(Contour{Points: traced.Points, Closed: true}, DefaultEpsilonRatio)
	if !simplified.Usable() {
		return BoundaryCandidate{}, false
	}

	rectangularity := math.Min(1, area/float64(box.Area()))
	confidence := rectangularity * CornerBonus(simplified.Points)

	return BoundaryCandidate{
		Contour:     simplified,
		Area:        area,
		BoundingBox: box,
		Score:       confidence * math.Sqrt(area),
		Method:      method,
		Confidence:  confidence,
	}, true
}

// ShoelaceArea returns the absolute area of the closed polygon through pts.
func ShoelaceArea(pts []Point) float64 {
	n := len(pts)
	if n < 3 {
		return 0
	}
	var sum int
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return math.Abs(float64(sum)) / 2
}

// CornerBonus rewards quadrilaterals with right-angled corners:
// 1 - mean(|angle - pi/2|) / (pi/2), in [0, 1]. Polygons with any other vertex
// count get NonQuadCornerBonus.
func CornerBonus(polygon []Point) float64 {
	if len(polygon) != 4 {
		return NonQuadCornerBonus
	}
	var deviation float64
	for i := range polygon {
		prev := polygon[(i+3)%4]
		cur := polygon[i]
		next := polygon[(i+1)%4]
		deviation += math.Abs(cornerAngle(prev, cur, next) - math.Pi/2)
	}
	bonus := 1 - (deviation/4)/(math.Pi/2)
	return math.Max(0, math.Min(1, bonus))
}

// cornerAngle returns the angle at cur between the edges to prev and next,
// in [0, pi].
func cornerAngle(prev, cur, next Point) float64 {
	ax, ay := float64(prev.X-cur.X), float64(prev.Y-cur.Y)
	bx, by := float64(next.X-cur.X), float64(next.Y-cur.Y)
	la, lb := math.Hypot(ax, ay), math.Hypot(bx, by)
	if la == 0 || lb == 0 {
		return 0
	}
	cos := (ax*bx + ay*by) / (la * lb)
	return math.Acos(math.Max(-1, math.Min(1, cos)))
}

// best returns the highest-scoring candidate, keeping the earliest on ties.
func best(candidates []BoundaryCandidate) *BoundaryCandidate {
	var top *BoundaryCandidate
	for i := range candidates {
		if top == nil || candidates[i].Score > top.Score {
			top = &candidates[i]
		}
	}
	return top
}
