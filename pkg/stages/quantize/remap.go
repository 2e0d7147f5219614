package quantize

import (
	"image"
	"image/color"
)

// matcher finds the nearest palette entry for a color.
type matcher struct {
	entries []color.NRGBA
	cache   map[uint32]uint8
}

func newMatcher(entries []color.NRGBA) *matcher {
	return &matcher{
		entries: entries,
		cache:   make(map[uint32]uint8),
	}
}

func (m *matcher) nearest(r, g, b uint8) int {
	key := rgbKey(r, g, b)
	if idx, ok := m.cache[key]; ok {
		return int(idx)
	}

	best, bestDiff := 0, ^uint32(0)
	for i, c := range m.entries {
		d := colorDiff(c.R, c.G, c.B, r, g, b)
		if d < bestDiff {
			best, bestDiff = i, d
			if d == 0 {
				break
			}
		}
	}
	m.cache[key] = uint8(best)
	return best
}

func rgbKey(r, g, b uint8) uint32 {
	return uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

// colorDiff is a perceptually weighted squared RGB distance.
func colorDiff(r1, g1, b1, r2, g2, b2 uint8) uint32 {
	dr := int32(r1) - int32(r2)
	dg := int32(g1) - int32(g2)
	db := int32(b1) - int32(b2)
	return uint32(dr*dr*2 + dg*dg*3 + db*db)
}

// ditherLevel returns the error diffusion strength for quality.
func ditherLevel(quality int) float32 {
	if quality <= 50 {
		return 0
	}
	return float32(quality-50) / 50
}

// keepsBackground reports whether the screen pixel can be left as it is.
func keepsBackground(bg color.NRGBA, importance uint8, r, g, b uint8) bool {
	return bg.A == 255 && (importance == 0 || (bg.R == r && bg.G == g && bg.B == b))
}

// remap converts img to palette indices with Floyd-Steinberg dithering.
// On frames after the first, pixels that the screen already shows are
// mapped to the transparent index.
func remap(img *image.NRGBA, importance []uint8, bg []color.NRGBA, pal color.Palette, transparent int, first bool, dither float32) *image.Paletted {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	out := image.NewPaletted(image.Rect(0, 0, w, h), pal)

	opaque := len(pal)
	if transparent >= 0 {
		opaque = transparent
	}
	entries := make([]color.NRGBA, opaque)
	for i := range entries {
		entries[i] = color.NRGBAModel.Convert(pal[i]).(color.NRGBA)
	}
	m := newMatcher(entries)

	var curr, next [][3]float32
	if dither > 0 {
		curr = make([][3]float32, w+2)
		next = make([][3]float32, w+2)
	}

	for y := 0; y < h; y++ {
		src := img.Pix[y*img.Stride : y*img.Stride+w*4]
		dst := out.Pix[y*out.Stride : y*out.Stride+w]
		for x := 0; x < w; x++ {
			i := y*w + x
			r, g, b, a := src[x*4], src[x*4+1], src[x*4+2], src[x*4+3]
			if a == 0 || len(entries) == 0 || (!first && keepsBackground(bg[i], importance[i], r, g, b)) {
				dst[x] = uint8(transparent)
				continue
			}

			if dither > 0 {
				e := curr[x+1]
				r = clampAdd(r, e[0])
				g = clampAdd(g, e[1])
				b = clampAdd(b, e[2])
			}

			idx := m.nearest(r, g, b)
			c := entries[idx]

			if dither > 0 {
				er := (float32(r) - float32(c.R)) * dither
				eg := (float32(g) - float32(c.G)) * dither
				eb := (float32(b) - float32(c.B)) * dither
				spread(&curr[x+2], er, eg, eb, 7.0/16)
				spread(&next[x], er, eg, eb, 3.0/16)
				spread(&next[x+1], er, eg, eb, 5.0/16)
				spread(&next[x+2], er, eg, eb, 1.0/16)
			}

			if !first && transparent >= 0 && bg[i].A == 255 && bg[i].R == c.R && bg[i].G == c.G && bg[i].B == c.B {
				dst[x] = uint8(transparent)
			} else {
				dst[x] = uint8(idx)
			}
		}

		if dither > 0 {
			curr, next = next, curr
			clear(next)
		}
	}
	return out
}

func spread(e *[3]float32, r, g, b, f float32) {
	e[0] += r * f
	e[1] += g * f
	e[2] += b * f
}

func clampAdd(v uint8, e float32) uint8 {
	f := float32(v) + e
	switch {
	case f <= 0:
		return 0
	case f >= 255:
		return 255
	}
	return uint8(f + 0.5)
}
