package quantize

import (
	"image"
	"image/color"
	"sort"

	mediancut "github.com/ericpauley/go-quantize/quantize"
)

// maxSamples bounds how many pixels feed the median cut.
const maxSamples = 500_000

// sample is an opaque pixel that needs a palette entry, with its importance.
type sample struct {
	c      color.NRGBA
	weight uint32
}

// maxColors returns the palette size allowed at quality.
func maxColors(quality int) int {
	if quality >= 50 {
		return 256
	}
	n := 256 * quality / 50
	if n < 8 {
		n = 8
	}
	return n
}

// paletteBuilder chooses per-frame palettes.
type paletteBuilder struct {
	fixed []color.NRGBA
	fast  bool
	extra bool
}

// build returns a palette for samples. Fixed colors come first; the
// transparent entry, when present, is always last.
func (b paletteBuilder) build(samples []sample, quality int, needTransparent bool) (color.Palette, int) {
	limit := 256
	if needTransparent {
		limit--
	}
	budget := maxColors(quality) - (256 - limit) - len(b.fixed)

	pal := make(color.Palette, 0, 256)
	seen := make(map[color.NRGBA]bool, 256)
	add := func(c color.NRGBA) {
		c.A = 255
		if !seen[c] && len(pal) < limit {
			seen[c] = true
			pal = append(pal, c)
		}
	}

	for _, c := range b.fixed {
		add(c)
	}
	if budget > 0 && len(samples) > 0 {
		for _, c := range b.colors(samples, budget, quality) {
			add(c)
		}
	}

	transparent := -1
	if needTransparent || len(pal) == 0 {
		transparent = len(pal)
		pal = append(pal, color.NRGBA{})
	}
	return pal, transparent
}

// colors picks at most n colors for samples. When the samples use few
// enough distinct colors they are returned exactly, most important first.
func (b paletteBuilder) colors(samples []sample, n, quality int) []color.NRGBA {
	weights := make(map[color.NRGBA]uint64)
	for _, s := range samples {
		weights[s.c] += uint64(s.weight)
		if len(weights) > n {
			return b.medianCut(samples, n, quality)
		}
	}

	out := make([]color.NRGBA, 0, len(weights))
	for c := range weights {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		wi, wj := weights[out[i]], weights[out[j]]
		if wi != wj {
			return wi > wj
		}
		return rgbKey(out[i].R, out[i].G, out[i].B) < rgbKey(out[j].R, out[j].G, out[j].B)
	})
	return out
}

func (b paletteBuilder) medianCut(samples []sample, n, quality int) []color.NRGBA {
	step := 1
	switch {
	case quality < 40:
		step = 3
	case quality < 80:
		step = 2
	}
	if b.fast {
		step *= 2
	}
	for len(samples)/step > maxSamples {
		step++
	}

	picked := make([]sample, 0, len(samples)/step+1)
	for i := 0; i < len(samples); i += step {
		picked = append(picked, samples[i])
	}

	img := image.NewNRGBA(image.Rect(0, 0, len(picked), 1))
	for i, s := range picked {
		img.Pix[i*4+0] = s.c.R
		img.Pix[i*4+1] = s.c.G
		img.Pix[i*4+2] = s.c.B
		img.Pix[i*4+3] = 255
	}

	q := mediancut.MedianCutQuantizer{
		Aggregation: mediancut.Mean,
		Weighting: func(_ image.Image, x, _ int) uint32 {
			return picked[x].weight
		},
	}
	raw := q.Quantize(make(color.Palette, 0, n), img)

	centroids := make([]color.NRGBA, 0, len(raw))
	for _, c := range raw {
		nc := color.NRGBAModel.Convert(c).(color.NRGBA)
		nc.A = 255
		centroids = append(centroids, nc)
	}

	passes := 1
	switch {
	case b.extra:
		passes = 3
	case b.fast:
		passes = 0
	}
	for i := 0; i < passes; i++ {
		centroids = refine(centroids, picked)
	}
	return centroids
}

// refine runs one k-means pass: every centroid moves to the weighted mean
// of the samples nearest to it.
func refine(centroids []color.NRGBA, samples []sample) []color.NRGBA {
	if len(centroids) == 0 {
		return centroids
	}

	type acc struct{ r, g, b, w uint64 }
	sums := make([]acc, len(centroids))
	m := newMatcher(centroids)
	for _, s := range samples {
		i := m.nearest(s.c.R, s.c.G, s.c.B)
		w := uint64(s.weight)
		sums[i].r += uint64(s.c.R) * w
		sums[i].g += uint64(s.c.G) * w
		sums[i].b += uint64(s.c.B) * w
		sums[i].w += w
	}

	out := make([]color.NRGBA, len(centroids))
	for i, a := range sums {
		if a.w == 0 {
			out[i] = centroids[i]
			continue
		}
		out[i] = color.NRGBA{
			R: uint8((a.r + a.w/2) / a.w),
			G: uint8((a.g + a.w/2) / a.w),
			B: uint8((a.b + a.w/2) / a.w),
			A: 255,
		}
	}
	return out
}
