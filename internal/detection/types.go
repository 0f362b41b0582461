package detection

import (
	"fmt"
	"image"
	"math"
)

// Point represents a 2D coordinate in pixel space.
type Point struct {
	X int `json:"x"` // Horizontal position (0 = leftmost)
	Y int `json:"y"` // Vertical position (0 = topmost)
}

// Contour is an ordered sequence of boundary points. Closed contours end next
// to their first point; open contours were cut short by the tracing cap.
type Contour struct {
	Points []Point `json:"points"`
	Closed bool    `json:"closed"`
}

// Usable reports whether the contour has enough points to describe an area.
func (c Contour) Usable() bool {
	return len(c.Points) >= 3
}

// Length returns the polyline length, including the closing segment for
// closed contours.
func (c Contour) Length() float64 {
	n := len(c.Points)
	if n < 2 {
		return 0
	}
	var total float64
	for i := 1; i < n; i++ {
		total += dist(c.Points[i-1], c.Points[i])
	}
	if c.Closed {
		total += dist(c.Points[n-1], c.Points[0])
	}
	return total
}

// ImagePoints converts the contour to image.Point values for drawing.
func (c Contour) ImagePoints() []image.Point {
	out := make([]image.Point, len(c.Points))
	for i, p := range c.Points {
		out[i] = image.Point{X: p.X, Y: p.Y}
	}
	return out
}

// BoundingBox is an axis-aligned box. Width and Height count pixels, so a box
// around a single pixel is 1x1.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Area returns Width*Height.
func (b BoundingBox) Area() int {
	return b.Width * b.Height
}

// Rect returns the box as an image.Rectangle (Max exclusive).
func (b BoundingBox) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

// Contains reports whether p lies inside the box.
func (b BoundingBox) Contains(p Point) bool {
	return p.X >= b.X && p.Y >= b.Y && p.X < b.X+b.Width && p.Y < b.Y+b.Height
}

// boundsOf returns the inclusive bounding box of a point set.
func boundsOf(points []Point) BoundingBox {
	if len(points) == 0 {
		return BoundingBox{}
	}
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		minX = minInt(minX, p.X)
		minY = minInt(minY, p.Y)
		maxX = maxInt(maxX, p.X)
		maxY = maxInt(maxY, p.Y)
	}
	return BoundingBox{X: minX, Y: minY, Width: maxX - minX + 1, Height: maxY - minY + 1}
}

// Method identifies the detector that produced a candidate.
type Method int

// Detectors in orchestration order.
const (
	MethodCanny Method = iota
	MethodAdaptive
	MethodProjection
	MethodGradient
)

// Methods lists every detector in orchestration order.
var Methods = []Method{MethodCanny, MethodAdaptive, MethodProjection, MethodGradient}

func (m Method) String() string {
	switch m {
	case MethodCanny:
		return "canny"
	case MethodAdaptive:
		return "adaptive"
	case MethodProjection:
		return "projection"
	case MethodGradient:
		return "gradient"
	default:
		return fmt.Sprintf("method(%d)", int(m))
	}
}

// Weight is the confidence multiplier applied when ranking candidates from
// different detectors.
func (m Method) Weight() float64 {
	switch m {
	case MethodCanny:
		return 1.0
	case MethodAdaptive:
		return 0.8
	case MethodProjection:
		return 0.6
	case MethodGradient:
		return 0.7
	default:
		return 0
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Method) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Method) UnmarshalText(text []byte) error {
	for _, candidate := range Methods {
		if string(text) == candidate.String() {
			*m = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown detection method: %q", text)
}

// BoundaryCandidate is a scored polygon hypothesized to be the document edge.
//
// Invariants: Area > 0, Area <= BoundingBox.Area(), the bounding box contains
// every contour point and lies within the frame.
type BoundaryCandidate struct {
	// Contour is the simplified polygon.
	Contour Contour `json:"contour"`

	// Area is the shoelace area of the traced contour in square pixels.
	Area float64 `json:"area"`

	// BoundingBox encloses the traced contour.
	BoundingBox BoundingBox `json:"bounding_box"`

	// Score is Confidence * sqrt(Area).
	Score float64 `json:"score"`

	// Method is the detector that produced the candidate.
	Method Method `json:"method"`

	// Confidence is rectangularity * corner bonus, in [0, 1].
	Confidence float64 `json:"confidence"`
}

// Contribution records one detector's candidate in a detection pass.
type Contribution struct {
	Method        Method  `json:"method"`
	Weight        float64 `json:"weight"`
	Confidence    float64 `json:"confidence"`
	WeightedScore float64 `json:"weighted_score"`
}

// DetectionResult is the outcome of one detection pass. A nil Candidate means
// no boundary was found, which is an expected outcome rather than an error.
type DetectionResult struct {
	Candidate *BoundaryCandidate `json:"candidate"`

	// Contributors lists the winning detector and, when results are combined,
	// every other detector that produced a candidate, in orchestration order.
	Contributors []Contribution `json:"contributors,omitempty"`
}

// Found reports whether a boundary was detected.
func (r *DetectionResult) Found() bool {
	return r != nil && r.Candidate != nil
}

func dist(a, b Point) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
