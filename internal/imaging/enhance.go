package imaging

// HistogramStretch linearly maps the darkest sample to 0 and the brightest to
// 255. A buffer holding a single intensity is returned as a copy.
func HistogramStretch(g GrayBuffer) GrayBuffer {
	if !g.Valid() {
		return GrayBuffer{}
	}
	lo, hi := uint8(255), uint8(0)
	for _, v := range g.Pix {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	out := NewGrayBuffer(g.Width, g.Height)
	if hi == lo {
		copy(out.Pix, g.Pix)
		return out
	}
	scale := 255.0 / float64(hi-lo)
	for i, v := range g.Pix {
		out.Pix[i] = clampByte(float64(v-lo) * scale)
	}
	return out
}
