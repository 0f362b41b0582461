package imaging

// Default adaptive threshold parameters, tuned for dark text on light paper.
const (
	DefaultBlockSize  = 15
	DefaultThresholdC = 9.0
)

// AdaptiveThreshold marks a pixel as foreground (255) when it is darker than
// the mean of its blockSize x blockSize neighborhood minus c.
//
// The neighborhood is clipped at the buffer edges, so border pixels average
// over fewer samples rather than reading replicated values. Even block sizes
// are rounded up to the next odd value; sizes below 3 become 3.
//
// Raising c can only lower the per-pixel threshold, so the foreground count
// never increases with c.
func AdaptiveThreshold(g GrayBuffer, blockSize int, c float64) BinaryMap {
	if !g.Valid() {
		return BinaryMap{}
	}
	if blockSize < 3 {
		blockSize = 3
	}
	if blockSize%2 == 0 {
		blockSize++
	}
	half := blockSize / 2
	w, h := g.Width, g.Height

	// Summed-area table with a zero row and column in front.
	stride := w + 1
	integral := make([]int64, stride*(h+1))
	for y := 0; y < h; y++ {
		var rowSum int64
		for x := 0; x < w; x++ {
			rowSum += int64(g.Pix[y*w+x])
			integral[(y+1)*stride+x+1] = integral[y*stride+x+1] + rowSum
		}
	}

	out := NewBinaryMap(w, h)
	for y := 0; y < h; y++ {
		y0 := clamp(y-half, 0, h-1)
		y1 := clamp(y+half, 0, h-1) + 1
		for x := 0; x < w; x++ {
			x0 := clamp(x-half, 0, w-1)
			x1 := clamp(x+half, 0, w-1) + 1
			sum := integral[y1*stride+x1] - integral[y0*stride+x1] - integral[y1*stride+x0] + integral[y0*stride+x0]
			count := (x1 - x0) * (y1 - y0)
			mean := float64(sum) / float64(count)
			if float64(g.Pix[y*w+x]) < mean-c {
				out.Pix[y*w+x] = 255
			}
		}
	}
	return out
}

// Otsu returns the global threshold maximizing between-class variance of the
// buffer histogram. ok is false when the buffer is invalid or holds a single
// intensity, in which case no split exists.
func Otsu(g GrayBuffer) (threshold uint8, ok bool) {
	if !g.Valid() {
		return 0, false
	}
	var hist [256]int
	for _, v := range g.Pix {
		hist[v]++
	}

	total := len(g.Pix)
	var sumAll float64
	for i, n := range hist {
		sumAll += float64(i * n)
	}

	var (
		sumBack    float64
		weightBack int
		best       float64
	)
	for t := 0; t < 256; t++ {
		weightBack += hist[t]
		if weightBack == 0 {
			continue
		}
		weightFore := total - weightBack
		if weightFore == 0 {
			break
		}
		sumBack += float64(t * hist[t])
		meanBack := sumBack / float64(weightBack)
		meanFore := (sumAll - sumBack) / float64(weightFore)
		diff := meanBack - meanFore
		between := float64(weightBack) * float64(weightFore) * diff * diff
		if between > best {
			best = between
			threshold = uint8(t)
		}
	}
	return threshold, best > 0
}

// Threshold marks pixels strictly above level as foreground.
func Threshold(g GrayBuffer, level uint8) BinaryMap {
	if !g.Valid() {
		return BinaryMap{}
	}
	out := NewBinaryMap(g.Width, g.Height)
	for i, v := range g.Pix {
		if v > level {
			out.Pix[i] = 255
		}
	}
	return out
}

// Invert swaps foreground and background, producing dark-on-light output from
// a foreground map.
func Invert(m BinaryMap) GrayBuffer {
	if !m.Valid() {
		return GrayBuffer{}
	}
	out := NewGrayBuffer(m.Width, m.Height)
	for i, v := range m.Pix {
		out.Pix[i] = 255 - v
	}
	return out
}

// Dilate grows foreground regions by radius pixels using a square structuring
// element. It is used to bridge one-pixel gaps in edge maps before contour
// tracing.
func Dilate(m BinaryMap, radius int) BinaryMap {
	return morph(m, radius, true)
}

// Erode shrinks foreground regions by radius pixels using a square
// structuring element.
func Erode(m BinaryMap, radius int) BinaryMap {
	return morph(m, radius, false)
}

func morph(m BinaryMap, radius int, dilate bool) BinaryMap {
	if !m.Valid() {
		return BinaryMap{}
	}
	out := NewBinaryMap(m.Width, m.Height)
	if radius < 1 {
		copy(out.Pix, m.Pix)
		return out
	}
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			hit := !dilate
			for dy := -radius; dy <= radius && hit != dilate; dy++ {
				for dx := -radius; dx <= radius; dx++ {
					px, py := x+dx, y+dy
					inside := px >= 0 && py >= 0 && px < m.Width && py < m.Height
					if dilate && inside && m.Pix[py*m.Width+px] != 0 {
						hit = true
						break
					}
					if !dilate && (!inside || m.Pix[py*m.Width+px] == 0) {
						hit = false
						break
					}
				}
			}
			if hit {
				out.Pix[y*m.Width+x] = 255
			}
		}
	}
	return out
}
