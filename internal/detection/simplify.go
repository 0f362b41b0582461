package detection

import "math"

// DefaultEpsilonRatio is the Douglas-Peucker tolerance as a fraction of the
// contour length.
const DefaultEpsilonRatio = 0.02

// SimplifyRelative simplifies c with epsilon = ratio * c.Length().
func SimplifyRelative(c Contour, ratio float64) Contour {
	return Simplify(c, ratio*c.Length())
}

// Simplify reduces a contour with the Douglas-Peucker algorithm: a point
// between two kept points survives only if its perpendicular distance from
// their chord exceeds epsilon.
//
// Closed contours are split at the point farthest from the first point and
// each half is simplified as an open chain, so the first point is always
// kept. Ties between equally distant points go to the lowest index, which
// makes the result idempotent: simplifying the output again with the same
// epsilon returns the same sequence.
//
// The recursion is driven by an explicit work stack.
func Simplify(c Contour, epsilon float64) Contour {
	n := len(c.Points)
	if n < 3 {
		out := make([]Point, n)
		copy(out, c.Points)
		return Contour{Points: out, Closed: c.Closed}
	}

	keep := make([]bool, n)
	keep[0] = true

	if c.Closed {
		far, farDist := 0, -1.0
		for i := 1; i < n; i++ {
			if d := dist(c.Points[0], c.Points[i]); d > farDist {
				far, farDist = i, d
			}
		}
		keep[far] = true
		reduce(c.Points, 0, far, epsilon, keep)
		// Second half wraps back to the first point, addressed as index n.
		reduce(c.Points, far, n, epsilon, keep)
	} else {
		keep[n-1] = true
		reduce(c.Points, 0, n-1, epsilon, keep)
	}

	out := make([]Point, 0, n)
	for i, k := range keep {
		if k {
			out = append(out, c.Points[i])
		}
	}
	return Contour{Points: out, Closed: c.Closed}
}

type span struct{ first, last int }

// reduce marks the points of pts[first..last] that Douglas-Peucker keeps.
// Index len(pts) refers to pts[0].
func reduce(pts []Point, first, last int, epsilon float64, keep []bool) {
	n := len(pts)
	at := func(i int) Point { return pts[i%n] }

	stack := []span{{first, last}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if s.last-s.first < 2 {
			continue
		}

		a, b := at(s.first), at(s.last)
		idx, maxDist := -1, -1.0
		for i := s.first + 1; i < s.last; i++ {
			if d := perpendicularDistance(at(i), a, b); d > maxDist {
				idx, maxDist = i, d
			}
		}
		if maxDist > epsilon {
			keep[idx%n] = true
			stack = append(stack, span{idx, s.last}, span{s.first, idx})
		}
	}
}

// perpendicularDistance returns the distance from p to the line through a and
// b, or to a when a and b coincide.
func perpendicularDistance(p, a, b Point) float64 {
	dx := float64(b.X - a.X)
	dy := float64(b.Y - a.Y)
	length := math.Hypot(dx, dy)
	if length == 0 {
		return dist(p, a)
	}
	return math.Abs(dy*float64(p.X-a.X)-dx*float64(p.Y-a.Y)) / length
}
