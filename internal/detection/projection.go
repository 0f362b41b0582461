package detection

import (
	"math"

	"github.com/ironsheep/docscan-mcp/internal/imaging"
)

const (
	// projectionEdgeThreshold is the Sobel magnitude above which a pixel
	// counts as an edge for the projection profiles.
	projectionEdgeThreshold = 120.0

	// projectionMinDensity is the fraction of edge pixels below which the
	// frame is considered empty.
	projectionMinDensity = 0.001

	// projectionPeakRatio selects profile rows/columns whose edge count
	// reaches this fraction of the profile maximum.
	projectionPeakRatio = 0.5

	// projectionSupportRadius is how far from the box outline an edge pixel
	// may lie and still support it.
	projectionSupportRadius = 2
)

// detectProjection is a cheap detector that looks for long horizontal and
// vertical edge runs. It projects edge pixels onto the rows and columns, takes
// the outermost rows and columns whose counts reach half the peak as the box
// sides and scores the box by how much of its outline is backed by edges.
func detectProjection(gray imaging.GrayBuffer, frame Frame) *BoundaryCandidate {
	edges := edgeMask(gray)

	rows := make([]int, gray.Height)
	cols := make([]int, gray.Width)
	total := 0
	for y := 0; y < gray.Height; y++ {
		for x := 0; x < gray.Width; x++ {
			if edges.IsSet(x, y) {
				rows[y]++
				cols[x]++
				total++
			}
		}
	}
	if float64(total) < projectionMinDensity*float64(gray.Width*gray.Height) {
		return nil
	}

	top, bottom, ok := peakSpan(rows)
	if !ok {
		return nil
	}
	left, right, ok := peakSpan(cols)
	if !ok {
		return nil
	}

	quad := Contour{
		Points: []Point{{left, top}, {right, top}, {right, bottom}, {left, bottom}},
		Closed: true,
	}
	cand, ok := ScoreContour(quad, MethodProjection, frame)
	if !ok {
		return nil
	}

	support := outlineSupport(edges, cand.BoundingBox)
	cand.Confidence *= support
	cand.Score = cand.Confidence * math.Sqrt(cand.Area)
	if cand.Confidence == 0 {
		return nil
	}
	return &cand
}

// edgeMask thresholds the Sobel magnitude of a lightly blurred frame.
func edgeMask(gray imaging.GrayBuffer) imaging.BinaryMap {
	field := imaging.Sobel(imaging.GaussianBlur(gray, 1))
	out := imaging.NewBinaryMap(gray.Width, gray.Height)
	for i, m := range field.Magnitude {
		if m > projectionEdgeThreshold {
			out.Pix[i] = 255
		}
	}
	return out
}

// peakSpan returns the first and last indices whose value reaches
// projectionPeakRatio of the profile maximum.
func peakSpan(profile []int) (first, last int, ok bool) {
	peak := 0
	for _, v := range profile {
		peak = maxInt(peak, v)
	}
	if peak == 0 {
		return 0, 0, false
	}
	cutoff := int(math.Ceil(projectionPeakRatio * float64(peak)))
	first, last = -1, -1
	for i, v := range profile {
		if v >= cutoff {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	return first, last, last > first
}

// outlineSupport returns the fraction of outline pixels of box that have an
// edge pixel within projectionSupportRadius.
func outlineSupport(edges imaging.BinaryMap, box BoundingBox) float64 {
	x0, y0 := box.X, box.Y
	x1, y1 := box.X+box.Width-1, box.Y+box.Height-1

	hits, total := 0, 0
	check := func(x, y int) {
		total++
		for dy := -projectionSupportRadius; dy <= projectionSupportRadius; dy++ {
			for dx := -projectionSupportRadius; dx <= projectionSupportRadius; dx++ {
				if edges.IsSet(x+dx, y+dy) {
					hits++
					return
				}
			}
		}
	}
	for x := x0; x <= x1; x++ {
		check(x, y0)
		check(x, y1)
	}
	for y := y0 + 1; y < y1; y++ {
		check(x0, y)
		check(x1, y)
	}
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
