package quantize

import (
	"image"
	"image/color"

	"github.com/user/gifstream/pkg/pipeline"
)

// screen mirrors what a GIF decoder shows after each written frame, so the
// next frame only needs to encode what differs from it.
type screen struct {
	width, height int
	pix           []color.NRGBA

	// Disposal and area of the last drawn frame, applied before the next one.
	dispose pipeline.Disposal
	rect    image.Rectangle
}

func newScreen(width, height int) *screen {
	return &screen{
		width:  width,
		height: height,
		pix:    make([]color.NRGBA, width*height),
	}
}

// keeps reports whether the next frame is drawn over the previous one.
func (s *screen) keeps() bool {
	return s.dispose != pipeline.DisposalBackground
}

// background returns the pixels visible before the next frame is drawn.
// The returned slice must not be modified.
func (s *screen) background() []color.NRGBA {
	if s.keeps() || s.rect.Empty() {
		return s.pix
	}
	bg := make([]color.NRGBA, len(s.pix))
	copy(bg, s.pix)
	for y := s.rect.Min.Y; y < s.rect.Max.Y; y++ {
		row := bg[y*s.width : (y+1)*s.width]
		for x := s.rect.Min.X; x < s.rect.Max.X; x++ {
			row[x] = color.NRGBA{}
		}
	}
	return bg
}

// skip records a frame that produced no output. A frame that asked for
// its area to be cleared still has that effect on the one before it.
func (s *screen) skip(dispose pipeline.Disposal) {
	if dispose == pipeline.DisposalBackground {
		s.dispose = pipeline.DisposalBackground
	}
}

// commit draws img over bg and makes it the current screen.
func (s *screen) commit(bg []color.NRGBA, img *image.Paletted, transparent int, dispose pipeline.Disposal) {
	s.pix = bg

	r := img.Rect
	for y := r.Min.Y; y < r.Max.Y; y++ {
		src := img.Pix[(y-r.Min.Y)*img.Stride : (y-r.Min.Y)*img.Stride+r.Dx()]
		dst := s.pix[y*s.width : (y+1)*s.width]
		for x, idx := range src {
			if int(idx) == transparent {
				continue
			}
			dst[r.Min.X+x] = color.NRGBAModel.Convert(img.Palette[idx]).(color.NRGBA)
		}
	}

	s.dispose = dispose
	s.rect = r
}
