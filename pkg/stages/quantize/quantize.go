// Package quantize turns denoised frames into palette images that only
// encode what differs from the picture a decoder already shows.
package quantize

import (
	"context"
	"image"
	"image/color"

	"github.com/user/gifstream/pkg/pipeline"
	"github.com/user/gifstream/pkg/ports"
)

// Stage quantizes frames in output order. It keeps a model of the decoded
// screen, so Execute must be called sequentially.
type Stage struct {
	settings pipeline.Settings
	palettes paletteBuilder
	logger   ports.Logger

	screen    *screen
	unchanged int
}

// NewStage creates a quantize stage.
func NewStage(settings pipeline.Settings, logger ports.Logger) *Stage {
	return &Stage{
		settings: settings,
		palettes: paletteBuilder{
			fixed: settings.FixedColors,
			fast:  settings.Fast,
			extra: settings.ExtraEffort,
		},
		logger: logger.WithComponent("quantize"),
	}
}

// Execute quantizes one frame. A frame that would draw nothing comes back
// with Unchanged set and no image.
func (s *Stage) Execute(ctx context.Context, f pipeline.DenoisedFrame) (pipeline.QuantizedFrame, error) {
	if err := ctx.Err(); err != nil {
		return pipeline.QuantizedFrame{}, pipeline.Classify("quantize", err)
	}

	b := f.Image.Bounds()
	first := s.screen == nil
	if first {
		s.screen = newScreen(b.Dx(), b.Dy())
	} else if b.Dx() != s.screen.width || b.Dy() != s.screen.height {
		return pipeline.QuantizedFrame{}, pipeline.Errorf(pipeline.KindQuantization, "quantize",
			"frame %d is %dx%d, expected %dx%d", f.FrameNumber, b.Dx(), b.Dy(), s.screen.width, s.screen.height)
	}
	if len(f.Importance) != b.Dx()*b.Dy() {
		return pipeline.QuantizedFrame{}, pipeline.Errorf(pipeline.KindQuantization, "quantize",
			"frame %d has %d importance values for %d pixels", f.FrameNumber, len(f.Importance), b.Dx()*b.Dy())
	}

	out := pipeline.QuantizedFrame{
		Index:            f.Index,
		TransparentIndex: -1,
		Dispose:          f.Dispose,
		EndPTS:           f.EndPTS,
	}

	if !first && s.screen.keeps() && allZero(f.Importance) {
		return s.skip(out), nil
	}

	// The first frame stays on screen under everything else.
	quality := 100
	if !first {
		quality = s.settings.ColorQuality()
	}

	bg := s.screen.background()
	samples, needTransparent := collect(f, bg, first)
	pal, transparent := s.palettes.build(samples, quality, needTransparent)
	img := remap(f.Image, f.Importance, bg, pal, transparent, first, ditherLevel(quality))

	if !first && !f.Last {
		r := usedBounds(img, transparent)
		if r.Empty() {
			if s.screen.keeps() {
				return s.skip(out), nil
			}
			// The previous frame still has to be cleared on time.
			r = image.Rect(0, 0, 1, 1)
		}
		if r != img.Rect {
			img = crop(img, r)
		}
	}

	s.screen.commit(bg, img, transparent, f.Dispose)
	s.logger.Debug("Frame %d: %d colors, %dx%d at %d,%d", f.FrameNumber, len(pal),
		img.Rect.Dx(), img.Rect.Dy(), img.Rect.Min.X, img.Rect.Min.Y)

	out.Image = img
	out.TransparentIndex = transparent
	return out, nil
}

// Unchanged returns how many frames had nothing to draw.
func (s *Stage) Unchanged() int {
	return s.unchanged
}

func (s *Stage) skip(out pipeline.QuantizedFrame) pipeline.QuantizedFrame {
	s.unchanged++
	s.screen.skip(out.Dispose)
	out.Unchanged = true
	return out
}

// collect gathers the pixels that need a palette entry and reports whether
// the palette needs a transparent entry.
func collect(f pipeline.DenoisedFrame, bg []color.NRGBA, first bool) ([]sample, bool) {
	img := f.Image
	w, h := img.Rect.Dx(), img.Rect.Dy()
	needTransparent := !first

	samples := make([]sample, 0, w*h)
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < w; x++ {
			i := y*w + x
			r, g, b, a := row[x*4], row[x*4+1], row[x*4+2], row[x*4+3]
			if a == 0 {
				needTransparent = true
				continue
			}
			if !first && keepsBackground(bg[i], f.Importance[i], r, g, b) {
				continue
			}
			weight := uint32(f.Importance[i])
			if weight == 0 {
				weight = 1
			}
			samples = append(samples, sample{c: color.NRGBA{R: r, G: g, B: b, A: 255}, weight: weight})
		}
	}
	return samples, needTransparent
}

func allZero(values []uint8) bool {
	for _, v := range values {
		if v != 0 {
			return false
		}
	}
	return true
}

var _ pipeline.Stage[pipeline.DenoisedFrame, pipeline.QuantizedFrame] = (*Stage)(nil)
