// Package composite normalizes admitted pixel buffers into canonical frames.
package composite

import (
	"context"
	"image"

	"golang.org/x/image/draw"

	"github.com/user/gifstream/pkg/pipeline"
	"github.com/user/gifstream/pkg/ports"
)

// Stage copies a raw pixel buffer into an NRGBA image, resizes it to the
// configured bounds and makes its alpha channel binary.
// Execute has no shared mutable state and may run on many goroutines at once.
type Stage struct {
	renderer ports.Renderer
	settings pipeline.Settings
	logger   ports.Logger
}

// NewStage creates a new composite stage.
func NewStage(renderer ports.Renderer, settings pipeline.Settings, logger ports.Logger) *Stage {
	return &Stage{
		renderer: renderer,
		settings: settings,
		logger:   logger.WithComponent("composite"),
	}
}

// Execute normalizes one frame.
func (s *Stage) Execute(ctx context.Context, frame pipeline.PixelFrame) (pipeline.CanonicalFrame, error) {
	if err := frame.Validate(); err != nil {
		return pipeline.CanonicalFrame{}, err
	}

	img := toNRGBA(frame)

	w, h := s.settings.Dimensions(frame.Width, frame.Height)
	if w != frame.Width || h != frame.Height {
		s.logger.Debug("Resizing frame %d from %dx%d to %dx%d", frame.FrameNumber, frame.Width, frame.Height, w, h)
		img = asNRGBA(s.renderer.ResizeImage(img, w, h, s.settings.Fast))
	}

	if s.settings.Matte != nil {
		img = s.applyMatte(img)
	}

	binaryAlpha(img)

	return pipeline.CanonicalFrame{
		FrameNumber: frame.FrameNumber,
		PTS:         frame.PTS,
		Delay:       frame.Delay,
		Image:       img,
	}, nil
}

// FromImage converts a decoded image into a tightly packed RGBA PixelFrame.
func FromImage(img image.Image) pipeline.PixelFrame {
	nrgba := asNRGBA(img)
	b := nrgba.Bounds()
	return pipeline.PixelFrame{
		Width:     b.Dx(),
		Height:    b.Dy(),
		RowStride: nrgba.Stride,
		Layout:    pipeline.LayoutRGBA,
		Pix:       nrgba.Pix,
	}
}

// applyMatte blends partially transparent pixels over the matte color.
// Fully transparent pixels stay transparent.
func (s *Stage) applyMatte(img *image.NRGBA) *image.NRGBA {
	partial := false
	for i := 3; i < len(img.Pix); i += 4 {
		if a := img.Pix[i]; a != 0 && a != 255 {
			partial = true
			break
		}
	}
	if !partial {
		return img
	}

	flat := asNRGBA(s.renderer.Flatten(img, s.settings.Matte))
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] == 0 {
			flat.Pix[i-3], flat.Pix[i-2], flat.Pix[i-1], flat.Pix[i] = 0, 0, 0, 0
		}
	}
	return flat
}

// toNRGBA copies the buffer honouring the row stride and pixel layout.
func toNRGBA(f pipeline.PixelFrame) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, f.Width, f.Height))
	stride := f.Stride()
	bpp := f.Layout.BytesPerPixel()

	for y := 0; y < f.Height; y++ {
		src := f.Pix[y*stride : y*stride+f.Width*bpp]
		dst := img.Pix[y*img.Stride : y*img.Stride+f.Width*4]

		switch f.Layout {
		case pipeline.LayoutRGBA:
			copy(dst, src)
		case pipeline.LayoutARGB:
			for x := 0; x < f.Width; x++ {
				dst[x*4+0] = src[x*4+1]
				dst[x*4+1] = src[x*4+2]
				dst[x*4+2] = src[x*4+3]
				dst[x*4+3] = src[x*4+0]
			}
		case pipeline.LayoutRGB:
			for x := 0; x < f.Width; x++ {
				dst[x*4+0] = src[x*3+0]
				dst[x*4+1] = src[x*3+1]
				dst[x*4+2] = src[x*3+2]
				dst[x*4+3] = 255
			}
		}
	}
	return img
}

// asNRGBA returns img as a zero-origin *image.NRGBA, converting when needed.
func asNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// ditherThresholds is an 8×8 ordered dither matrix scaled to 8..134.
var ditherThresholds = [64]uint8{
	0*2 + 8, 48*2 + 8, 12*2 + 8, 60*2 + 8, 3*2 + 8, 51*2 + 8, 15*2 + 8, 63*2 + 8,
	32*2 + 8, 16*2 + 8, 44*2 + 8, 28*2 + 8, 35*2 + 8, 19*2 + 8, 47*2 + 8, 31*2 + 8,
	8*2 + 8, 56*2 + 8, 4*2 + 8, 52*2 + 8, 11*2 + 8, 59*2 + 8, 7*2 + 8, 55*2 + 8,
	40*2 + 8, 24*2 + 8, 36*2 + 8, 20*2 + 8, 43*2 + 8, 27*2 + 8, 39*2 + 8, 23*2 + 8,
	2*2 + 8, 50*2 + 8, 14*2 + 8, 62*2 + 8, 1*2 + 8, 49*2 + 8, 13*2 + 8, 61*2 + 8,
	34*2 + 8, 18*2 + 8, 46*2 + 8, 30*2 + 8, 33*2 + 8, 17*2 + 8, 45*2 + 8, 29*2 + 8,
	10*2 + 8, 58*2 + 8, 6*2 + 8, 54*2 + 8, 9*2 + 8, 57*2 + 8, 5*2 + 8, 53*2 + 8,
	42*2 + 8, 26*2 + 8, 38*2 + 8, 22*2 + 8, 41*2 + 8, 25*2 + 8, 37*2 + 8, 21*2 + 8,
}

// binaryAlpha makes every pixel fully opaque or fully transparent.
// Transparent pixels are cleared so identical frames compare equal.
func binaryAlpha(img *image.NRGBA) {
	b := img.Bounds()
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+b.Dx()*4]
		for x := 0; x < b.Dx(); x++ {
			a := row[x*4+3]
			if a == 255 {
				continue
			}
			if a < ditherThresholds[(y&7)*8+(x&7)] {
				row[x*4+0], row[x*4+1], row[x*4+2], row[x*4+3] = 0, 0, 0, 0
			} else {
				row[x*4+3] = 255
			}
		}
	}
}

var _ pipeline.Stage[pipeline.PixelFrame, pipeline.CanonicalFrame] = (*Stage)(nil)
