package detection

import "github.com/ironsheep/docscan-mcp/internal/imaging"

// MinContourPoints is the shortest traced boundary kept; shorter ones are
// treated as noise.
const MinContourPoints = 10

// maxTraceSteps bounds a single trace regardless of image size.
const maxTraceSteps = 10000

// neighbors lists the 8-neighborhood clockwise (in screen coordinates)
// starting at west.
var neighbors = [8]Point{
	{-1, 0}, {-1, -1}, {0, -1}, {1, -1},
	{1, 0}, {1, 1}, {0, 1}, {-1, 1},
}

// neighborIndex maps an offset in [-1,1]² to its index in neighbors.
func neighborIndex(dx, dy int) int {
	for i, n := range neighbors {
		if n.X == dx && n.Y == dy {
			return i
		}
	}
	return -1
}

// Trace extracts the boundaries of the foreground regions of an edge map.
//
// Pixels are scanned in raster order. Every unvisited foreground pixel with a
// background 4-neighbor (out-of-bounds counts as background) starts a Moore
// neighbor trace that walks the region boundary clockwise, marking pixels
// visited. A trace stops when it returns to its start pixel (closed contour)
// or after min(10000, width*height) steps (open contour). Contours with fewer
// than MinContourPoints points are discarded.
//
// Invalid maps yield no contours.
func Trace(m imaging.BinaryMap) []Contour {
	if !m.Valid() {
		return nil
	}
	width, height := m.Width, m.Height
	limit := minInt(maxTraceSteps, width*height)
	visited := make([]bool, width*height)

	contours := make([]Contour, 0)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			if m.Pix[i] == 0 || visited[i] || !onBoundary(m, x, y) {
				continue
			}
			c := traceFrom(m, visited, Point{x, y}, limit)
			if len(c.Points) >= MinContourPoints {
				contours = append(contours, c)
			}
		}
	}
	return contours
}

func onBoundary(m imaging.BinaryMap, x, y int) bool {
	return !m.IsSet(x-1, y) || !m.IsSet(x+1, y) || !m.IsSet(x, y-1) || !m.IsSet(x, y+1)
}

// traceFrom follows one boundary starting at start. The initial backtrack is
// the first background neighbor in clockwise order from west.
func traceFrom(m imaging.BinaryMap, visited []bool, start Point, limit int) Contour {
	back := -1
	for d, n := range neighbors {
		if !m.IsSet(start.X+n.X, start.Y+n.Y) {
			back = d
			break
		}
	}

	points := []Point{start}
	visited[start.Y*m.Width+start.X] = true
	if back < 0 {
		return Contour{Points: points}
	}

	cur := start
	for steps := 0; steps < limit; steps++ {
		next, dir, ok := nextBoundary(m, cur, back)
		if !ok {
			// Isolated pixel
			return Contour{Points: points}
		}
		if next == start {
			return Contour{Points: points, Closed: true}
		}

		// The neighbor checked just before next is background and adjacent
		// to next; it becomes the backtrack for the following step.
		prev := neighbors[(dir+7)%8]
		bx, by := cur.X+prev.X-next.X, cur.Y+prev.Y-next.Y
		back = neighborIndex(bx, by)

		cur = next
		points = append(points, cur)
		visited[cur.Y*m.Width+cur.X] = true
	}
	return Contour{Points: points}
}

// nextBoundary sweeps clockwise around cur, starting after the backtrack
// direction, and returns the first foreground neighbor.
func nextBoundary(m imaging.BinaryMap, cur Point, back int) (Point, int, bool) {
	for k := 1; k <= 8; k++ {
		d := (back + k) % 8
		n := neighbors[d]
		if m.IsSet(cur.X+n.X, cur.Y+n.Y) {
			return Point{cur.X + n.X, cur.Y + n.Y}, d, true
		}
	}
	return Point{}, 0, false
}
