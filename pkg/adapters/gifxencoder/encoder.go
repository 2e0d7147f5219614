// Package gifxencoder writes GIF89a blocks with github.com/NathanBaulch/gifx.
package gifxencoder

import (
	"errors"
	"image"
	"image/color"
	"io"
	"time"

	gif "github.com/NathanBaulch/gifx"

	"github.com/user/gifstream/pkg/ports"
)

// ErrNotStarted is returned when frames are written before Begin.
var ErrNotStarted = errors.New("gifxencoder: Begin has not been called")

// Encoder implements ports.GIFEncoder. Frames whose palette equals the
// global color table are written without a local table.
type Encoder struct {
	enc *gif.Encoder
}

// New creates a new Encoder.
func New() *Encoder {
	return &Encoder{}
}

// Begin writes the header, the global color table and, when loopCount is
// not negative, the NETSCAPE2.0 loop extension.
func (e *Encoder) Begin(w io.Writer, width, height int, global color.Palette, loopCount int) error {
	e.enc = gif.NewEncoder(w)
	cfg := image.Config{ColorModel: global, Width: width, Height: height}
	if err := e.enc.WriteHeader(cfg, 0); err != nil {
		return err
	}
	if loopCount >= 0 {
		if err := e.enc.WriteApplicationNetscape(&gif.ApplicationNetscape{LoopCount: loopCount}); err != nil {
			return err
		}
	}
	return nil
}

// WriteFrame writes a graphic control extension and the image block.
func (e *Encoder) WriteFrame(img *image.Paletted, delayCentis int, disposal byte) error {
	if e.enc == nil {
		return ErrNotStarted
	}
	return e.enc.WriteFrame(&gif.Frame{
		Image:          img,
		DelayTime:      time.Duration(delayCentis) * 10 * time.Millisecond,
		DisposalMethod: disposal,
	})
}

// End writes the trailer and flushes the buffered output.
func (e *Encoder) End() error {
	if e.enc == nil {
		return ErrNotStarted
	}
	if err := e.enc.WriteTrailer(); err != nil {
		return err
	}
	return e.enc.Flush()
}

var _ ports.GIFEncoder = (*Encoder)(nil)
