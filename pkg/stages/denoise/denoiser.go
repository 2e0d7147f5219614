package denoise

import (
	"image"
	"sort"

	"github.com/user/gifstream/pkg/pipeline"
)

// lookahead is how many frames each pixel's history spans.
const lookahead = 5

// pixelHistory tracks one pixel over the lookahead window. Index 0 is the
// oldest frame, the one being emitted.
type pixelHistory struct {
	r, g, b    [lookahead]uint8
	alphaBits  uint8 // bit i set = transparent at index i
	canStayFor uint8
	stayedFor  uint8
	bg         [4]uint8 // color currently emitted for the pixel; bg[3] is alpha
}

func (h *pixelHistory) get(i int) (r, g, b uint8, ok bool) {
	if h.alphaBits&(1<<i) != 0 {
		return 0, 0, 0, false
	}
	return h.r[i], h.g[i], h.b[i], true
}

func (h *pixelHistory) append(r, g, b, a uint8) {
	for n := 1; n < lookahead; n++ {
		h.r[n-1] = h.r[n]
		h.g[n-1] = h.g[n]
		h.b[n-1] = h.b[n]
	}
	h.alphaBits >>= 1
	if a < 128 {
		h.alphaBits |= 1 << (lookahead - 1)
	} else {
		h.alphaBits &^= 1 << (lookahead - 1)
		h.r[lookahead-1] = r
		h.g[lookahead-1] = g
		h.b[lookahead-1] = b
	}
}

// frameMeta travels with a frame through the denoiser's window.
type frameMeta struct {
	frameNumber uint32
	endPTS      float64
	dispose     pipeline.Disposal
}

type denoised struct {
	image      *image.NRGBA
	importance []uint8
	meta       frameMeta
}

// Denoiser smooths pixels that flicker for a few frames and scores how
// much each pixel changes, so later stages spend palette entries and bytes
// where motion is visible.
type Denoiser struct {
	width, height int
	threshold     uint32
	history       []pixelHistory

	appended int // frames appended, including blank flush frames
	pushed   int
	emitted  int
	pending  []frameMeta
}

// NewDenoiser creates a Denoiser for width×height frames.
// quality is 1-100; higher quality tolerates less change before a pixel is redrawn.
func NewDenoiser(width, height, quality int) *Denoiser {
	t := uint32(55 - quality/2)
	history := make([]pixelHistory, width*height)
	for i := range history {
		history[i].alphaBits = 0xff
	}
	return &Denoiser{
		width:     width,
		height:    height,
		threshold: t * t,
		history:   history,
	}
}

// Threshold returns the squared color distance under which a change is ignored.
func (d *Denoiser) Threshold() uint32 {
	return d.threshold
}

// push adds a frame; it returns a denoised frame once the window is full.
func (d *Denoiser) push(img *image.NRGBA, meta frameMeta) []denoised {
	d.pending = append(d.pending, meta)
	d.pushed++

	for y := 0; y < d.height; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+d.width*4]
		for x := 0; x < d.width; x++ {
			d.history[y*d.width+x].append(row[x*4], row[x*4+1], row[x*4+2], row[x*4+3])
		}
	}
	d.appended++
	return d.emit()
}

// flush drains the window by appending transparent frames.
func (d *Denoiser) flush() []denoised {
	var out []denoised
	for d.emitted < d.pushed {
		for i := range d.history {
			d.history[i].append(0, 0, 0, 0)
		}
		d.appended++
		out = append(out, d.emit()...)
	}
	return out
}

func (d *Denoiser) emit() []denoised {
	// Frame k reaches index 0 after k+lookahead appends.
	if d.appended < lookahead || d.emitted >= d.pushed {
		return nil
	}

	odd := d.emitted&1 != 0
	img := image.NewNRGBA(image.Rect(0, 0, d.width, d.height))
	importance := make([]uint8, d.width*d.height)
	for i := range d.history {
		c, imp := d.history[i].step(d.threshold, odd)
		copy(img.Pix[i*4:i*4+4], c[:])
		importance[i] = imp
	}

	meta := d.pending[0]
	d.pending = d.pending[1:]
	d.emitted++
	return []denoised{{image: img, importance: importance, meta: meta}}
}

// step decides the color emitted for the pixel at index 0 and its importance.
func (h *pixelHistory) step(threshold uint32, oddFrame bool) ([4]uint8, uint8) {
	r, g, b, ok := h.get(0)
	if !ok {
		// Importance 0 pixels are ignored downstream, but a pixel that has to
		// become transparent must still be drawn once.
		var imp uint8
		if h.bg[3] > 0 {
			h.bg[3] = 0
			h.canStayFor = 0
			imp = 1
		}
		return [4]uint8{}, imp
	}

	if cohort(r, g, b) == oddFrame {
		threshold *= 2
	}

	diffWithBg := uint32(1 << 20)
	if h.bg[3] > 0 {
		diffWithBg = colorDiff(h.bg[0], h.bg[1], h.bg[2], r, g, b)
	}

	if h.stayedFor < h.canStayFor {
		h.stayedFor++
		// The second, corrective frame gets weight proportional to the stay.
		var max uint8
		if h.stayedFor == 1 {
			max = [5]uint8{0, 40, 80, 100, 110}[minU8(h.canStayFor, 4)]
		}
		return h.bg, importance(diffWithBg, threshold, 0, max)
	}

	if diffWithBg < threshold {
		return h.bg, 0
	}

	stays := 0
	for i := 1; i < lookahead; i++ {
		nr, ng, nb, ok := h.get(i)
		if !ok || colorDiff(nr, ng, nb, r, g, b) >= threshold {
			break
		}
		stays = i
	}

	if stays == 0 {
		h.bg = [4]uint8{r, g, b, 255}
		return h.bg, importance(diffWithBg, threshold, 10, 110)
	}

	smoothed := [4]uint8{
		median(h.r, stays+1),
		median(h.g, stays+1),
		median(h.b, stays+1),
		255,
	}

	var imp uint8
	switch {
	case stays <= 1:
		imp = importance(diffWithBg, threshold, 5, 80)
	case stays == 2:
		imp = importance(diffWithBg, threshold, 15, 190)
	default:
		imp = importance(diffWithBg, threshold, 50, 205)
	}

	h.bg = smoothed
	// Overlapping stays give smoother transitions.
	h.canStayFor = minU8(uint8(stays), lookahead-1)
	h.stayedFor = 0
	return h.bg, imp
}

// cohort splits colors into two arbitrary groups whose thresholds alternate
// between frames, so each frame spends fewer palette entries on change.
func cohort(r, g, b uint8) bool {
	return (r/2 > g) != (b > 127)
}

// importance scales how far diff exceeds the perceptible threshold into min..min+max.
func importance(diff, threshold uint32, min, max uint8) uint8 {
	var exceeds uint32
	if diff > threshold {
		exceeds = diff - threshold
	}
	scaled := uint64(exceeds) * uint64(max) / (uint64(threshold) * 48)
	if scaled > uint64(max) {
		scaled = uint64(max)
	}
	return min + uint8(scaled)
}

func median(src [lookahead]uint8, n int) uint8 {
	switch n {
	case 1:
		return src[0]
	case 2:
		return avg8(src[0], src[1])
	}
	tmp := make([]uint8, n)
	copy(tmp, src[:n])
	sort.Slice(tmp, func(i, j int) bool { return tmp[i] < tmp[j] })
	if n%2 == 1 {
		return tmp[n/2]
	}
	return avg8(tmp[n/2-1], tmp[n/2])
}

func avg8(a, b uint8) uint8 {
	return uint8((uint16(a) + uint16(b)) / 2)
}

func minU8(a, b uint8) uint8 {
	if a < b {
		return a
	}
	return b
}

// colorDiff is a perceptually weighted squared RGB distance.
func colorDiff(r1, g1, b1, r2, g2, b2 uint8) uint32 {
	dr := int32(r1) - int32(r2)
	dg := int32(g1) - int32(g2)
	db := int32(b1) - int32(b2)
	return uint32(dr*dr*2 + dg*dg*3 + db*db)
}
