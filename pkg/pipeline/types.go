package pipeline

import (
	"fmt"
	"image"
	"image/color"
	"math"
)

// =============================================================================
// Settings
// =============================================================================

// DefaultQuality is used when Settings.Quality is left at zero.
const DefaultQuality = 90

// MaxDelayCentis is the longest frame delay a GIF can carry that decoders honor.
const MaxDelayCentis = 30000

// RepeatMode selects how the animation loops.
type RepeatMode int

const (
	// RepeatForever loops the animation indefinitely.
	RepeatForever RepeatMode = iota
	// RepeatOnce plays the animation a single time.
	RepeatOnce
	// RepeatCount plays the animation Count additional times.
	RepeatCount
)

// Repeat describes looping behavior.
type Repeat struct {
	Mode  RepeatMode
	Count uint16
}

// RepeatFromInt converts the boundary integer form: negative plays once,
// zero loops forever and n > 0 repeats n times.
func RepeatFromInt(n int) Repeat {
	switch {
	case n < 0:
		return Repeat{Mode: RepeatOnce}
	case n == 0:
		return Repeat{Mode: RepeatForever}
	case n > math.MaxUint16:
		return Repeat{Mode: RepeatCount, Count: math.MaxUint16}
	default:
		return Repeat{Mode: RepeatCount, Count: uint16(n)}
	}
}

// Int returns the boundary integer form of r.
func (r Repeat) Int() int {
	switch r.Mode {
	case RepeatOnce:
		return -1
	case RepeatCount:
		return int(r.Count)
	default:
		return 0
	}
}

// LoopCount returns the NETSCAPE2.0 loop count to write, or -1 when no
// loop extension should be written at all.
func (r Repeat) LoopCount() int {
	switch r.Mode {
	case RepeatOnce:
		return -1
	case RepeatCount:
		return int(r.Count)
	default:
		return 0
	}
}

// String returns a human readable form.
func (r Repeat) String() string {
	switch r.Mode {
	case RepeatOnce:
		return "once"
	case RepeatCount:
		return fmt.Sprintf("%d times", r.Count)
	default:
		return "forever"
	}
}

// Settings configures an encoding session.
// Settings are frozen once the first frame has been admitted.
type Settings struct {
	MaxWidth      uint32 // 0 = keep source width
	MaxHeight     uint32 // 0 = keep source height
	Quality       int    // 1-100
	MotionQuality int    // 1-100, 0 = same as Quality
	LossyQuality  int    // 1-100, 0 = same as Quality
	Fast          bool
	ExtraEffort   bool
	Repeat        Repeat

	// FixedColors are kept in every frame's palette.
	FixedColors []color.NRGBA

	// Matte, when set, is composited under semi-transparent pixels.
	Matte color.Color
}

// DefaultSettings returns Settings with default values.
func DefaultSettings() Settings {
	return Settings{
		Quality: DefaultQuality,
		Repeat:  Repeat{Mode: RepeatForever},
	}
}

// Validate checks every quality knob is within 1..100.
func (s Settings) Validate() error {
	check := func(name string, v int, optional bool) error {
		if optional && v == 0 {
			return nil
		}
		if v < 1 || v > 100 {
			return Errorf(KindInvalidArgument, "settings", "%s must be between 1 and 100, got %d", name, v)
		}
		return nil
	}
	if err := check("quality", s.Quality, false); err != nil {
		return err
	}
	if err := check("motion quality", s.MotionQuality, true); err != nil {
		return err
	}
	if err := check("lossy quality", s.LossyQuality, true); err != nil {
		return err
	}
	if len(s.FixedColors) > 255 {
		return Errorf(KindInvalidArgument, "settings", "too many fixed colors: %d", len(s.FixedColors))
	}
	return nil
}

// EffectiveMotionQuality returns the quality used by the temporal denoiser.
func (s Settings) EffectiveMotionQuality() int {
	if s.MotionQuality == 0 {
		return s.Quality
	}
	return s.MotionQuality
}

// EffectiveLossyQuality returns the quality used by the lossy compression pass.
func (s Settings) EffectiveLossyQuality() int {
	if s.LossyQuality == 0 {
		return s.Quality
	}
	return s.LossyQuality
}

// ColorQuality is the palette quality for frames after the first one.
// Those frames are shown briefly, so they are allowed a little more color loss.
func (s Settings) ColorQuality() int {
	q := s.Quality * 4 / 3
	if q > 100 {
		q = 100
	}
	return q
}

// LossyLoss returns the tolerated per-pixel loss for the lossy compression
// pass. Zero disables the pass.
func (s Settings) LossyLoss() int {
	q := s.EffectiveLossyQuality()
	if q >= 100 {
		return 0
	}
	return int(math.Ceil(math.Pow(100.0/6.0-float64(q)/6.0, 1.75)))
}

// Dimensions returns the output size for a source of w×h.
// Aspect ratio is not preserved: each axis is clamped independently.
func (s Settings) Dimensions(w, h int) (int, int) {
	if s.MaxWidth > 0 && int(s.MaxWidth) < w {
		w = int(s.MaxWidth)
	}
	if s.MaxHeight > 0 && int(s.MaxHeight) < h {
		h = int(s.MaxHeight)
	}
	return w, h
}

// =============================================================================
// Admission Types
// =============================================================================

// PixelLayout is the byte order of a raw pixel buffer.
type PixelLayout int

const (
	LayoutRGBA PixelLayout = iota
	LayoutARGB
	LayoutRGB
)

// BytesPerPixel returns the pixel size of the layout.
func (l PixelLayout) BytesPerPixel() int {
	if l == LayoutRGB {
		return 3
	}
	return 4
}

// String returns the layout name.
func (l PixelLayout) String() string {
	switch l {
	case LayoutRGBA:
		return "RGBA"
	case LayoutARGB:
		return "ARGB"
	case LayoutRGB:
		return "RGB"
	default:
		return "unknown"
	}
}

// PixelFrame is a raw frame handed in by the producer.
type PixelFrame struct {
	FrameNumber uint32
	PTS         float64 // seconds
	Delay       uint16  // legacy mode: display time in 1/100 s, 0 when PTS is used
	Width       int
	Height      int
	RowStride   int // bytes per row, 0 = tightly packed
	Layout      PixelLayout
	Pix         []byte
}

// Stride returns the effective row stride.
func (f PixelFrame) Stride() int {
	if f.RowStride == 0 {
		return f.Width * f.Layout.BytesPerPixel()
	}
	return f.RowStride
}

// Validate checks dimensions, stride and buffer length.
func (f PixelFrame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 || f.Width > 0xffff || f.Height > 0xffff {
		return Errorf(KindInvalidInput, "add frame", "invalid frame size %dx%d", f.Width, f.Height)
	}
	if f.Layout < LayoutRGBA || f.Layout > LayoutRGB {
		return Errorf(KindInvalidArgument, "add frame", "unknown pixel layout %d", f.Layout)
	}
	if math.IsNaN(f.PTS) || math.IsInf(f.PTS, 0) || f.PTS < 0 {
		return Errorf(KindInvalidArgument, "add frame", "invalid presentation timestamp %v", f.PTS)
	}
	row := f.Width * f.Layout.BytesPerPixel()
	stride := f.Stride()
	if stride < row {
		return Errorf(KindInvalidInput, "add frame", "row stride %d is shorter than a row (%d bytes)", stride, row)
	}
	need := stride*(f.Height-1) + row
	if len(f.Pix) < need {
		return Errorf(KindInvalidInput, "add frame", "pixel buffer holds %d bytes, need %d", len(f.Pix), need)
	}
	return nil
}

// AdmissionOutcome is the result of offering a frame to the ordering buffer.
type AdmissionOutcome int

const (
	Accepted AdmissionOutcome = iota
	SkippedDuplicateOrOutOfOrder
	Rejected
)

// String returns the outcome name.
func (o AdmissionOutcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case SkippedDuplicateOrOutOfOrder:
		return "skipped"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// =============================================================================
// Stage Frame Types
// =============================================================================

// CanonicalFrame is a copied, normalized frame with binary alpha.
type CanonicalFrame struct {
	FrameNumber uint32
	PTS         float64
	Delay       uint16
	Image       *image.NRGBA
}

// OrderedFrame is a frame in output order with its display interval resolved.
type OrderedFrame struct {
	CanonicalFrame
	Index    int     // position in output order
	StartPTS float64 // relative to the first frame
	EndPTS   float64 // seconds from stream start when the frame stops being shown
}

// Disposal is the GIF disposal method applied after a frame is shown.
// Values match image/gif.
type Disposal uint8

const (
	DisposalNone       Disposal = 0
	DisposalKeep       Disposal = 1
	DisposalBackground Disposal = 2
)

// String returns the disposal name.
func (d Disposal) String() string {
	switch d {
	case DisposalKeep:
		return "keep"
	case DisposalBackground:
		return "background"
	default:
		return "none"
	}
}

// DenoisedFrame carries the temporally smoothed image and its importance map.
type DenoisedFrame struct {
	Index       int
	FrameNumber uint32
	Image       *image.NRGBA
	Importance  []uint8 // one weight per pixel, 0 = not worth re-emitting
	Dispose     Disposal
	EndPTS      float64
	Last        bool
}

// QuantizedFrame is an indexed frame ready for muxing.
// Image.Rect is the frame's placement on the logical screen.
type QuantizedFrame struct {
	Index            int
	Image            *image.Paletted
	TransparentIndex int // -1 when the palette has no transparent entry
	Dispose          Disposal
	EndPTS           float64

	// Unchanged frames carry no pixels; the muxer extends the previous
	// frame's display time instead of writing them.
	Unchanged bool
}

// EncodedFrame describes a frame after it was written to the output.
type EncodedFrame struct {
	Index       int
	DelayCentis int
	Rect        image.Rectangle
	PaletteSize int
}

// =============================================================================
// Results
// =============================================================================

// Stats counts what happened to admitted frames.
type Stats struct {
	Admitted         int
	Rejected         int
	SkippedLate      int // frame number already released
	SkippedTimestamp int // timestamp did not increase
	Merged           int // identical to the next frame
	Unchanged        int // nothing left after transparency and trimming
	Written          int
	BytesWritten     int64
	Width            int
	Height           int
	DurationCentis   int
}
