// Package encode implements the GIF muxing stage.
package encode

import (
	"context"
	"errors"
	"math"

	"github.com/user/gifstream/pkg/pipeline"
	"github.com/user/gifstream/pkg/ports"
)

// ErrNoFrames is returned by Flush when the stream ended before any frame
// was written.
var ErrNoFrames = errors.New("no frames were written")

// Stage writes quantized frames to a byte sink. It holds one frame back,
// because a frame's delay is only known once the following frames have
// been seen to change something.
type Stage struct {
	encoder   ports.GIFEncoder
	lossy     ports.CompressionPass
	loopCount int
	logger    ports.Logger

	out     *sinkWriter
	begun   bool
	pending *pipeline.QuantizedFrame
	written int // centiseconds
}

// NewStage creates a new encode stage. lossy may be nil.
func NewStage(encoder ports.GIFEncoder, sink ports.ByteSink, repeat pipeline.Repeat, lossy ports.CompressionPass, logger ports.Logger) *Stage {
	return &Stage{
		encoder:   encoder,
		lossy:     lossy,
		loopCount: repeat.LoopCount(),
		logger:    logger.WithComponent("encode"),
		out:       &sinkWriter{sink: sink},
	}
}

// Push implements pipeline.BufferedStage.
func (s *Stage) Push(ctx context.Context, f pipeline.QuantizedFrame) ([]pipeline.EncodedFrame, error) {
	if err := ctx.Err(); err != nil {
		return nil, pipeline.Classify("encode", err)
	}

	if f.Unchanged {
		if s.pending != nil {
			s.pending.EndPTS = f.EndPTS
			if f.Dispose == pipeline.DisposalBackground {
				s.pending.Dispose = pipeline.DisposalBackground
			}
		}
		return nil, nil
	}

	var out []pipeline.EncodedFrame
	if s.pending != nil {
		e, err := s.write(*s.pending)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	s.pending = &f
	return out, nil
}

// Flush writes the held frame and the trailer.
func (s *Stage) Flush(ctx context.Context) ([]pipeline.EncodedFrame, error) {
	var out []pipeline.EncodedFrame
	if s.pending != nil {
		e, err := s.write(*s.pending)
		if err != nil {
			return nil, err
		}
		s.pending = nil
		out = append(out, e)
	}

	if !s.begun {
		return nil, ErrNoFrames
	}
	if err := s.encoder.End(); err != nil {
		return out, s.fail("finish", err)
	}
	return out, nil
}

func (s *Stage) write(f pipeline.QuantizedFrame) (pipeline.EncodedFrame, error) {
	if !s.begun {
		r := f.Image.Rect
		if err := s.encoder.Begin(s.out, r.Dx(), r.Dy(), f.Image.Palette, s.loopCount); err != nil {
			return pipeline.EncodedFrame{}, s.fail("write header", err)
		}
		s.begun = true
		s.logger.Debug("Writing %dx%d GIF, loop count %d", r.Dx(), r.Dy(), s.loopCount)
	}

	if s.lossy != nil {
		if err := s.lossy.Apply(f.Image, f.TransparentIndex); err != nil {
			return pipeline.EncodedFrame{}, pipeline.Wrap(pipeline.KindMux, "compress frame", err)
		}
	}

	delay := s.delay(f.EndPTS)
	if err := s.encoder.WriteFrame(f.Image, delay, byte(f.Dispose)); err != nil {
		return pipeline.EncodedFrame{}, s.fail("write frame", err)
	}

	return pipeline.EncodedFrame{
		Index:       f.Index,
		DelayCentis: delay,
		Rect:        f.Image.Rect,
		PaletteSize: len(f.Image.Palette),
	}, nil
}

// delay converts an end timestamp into a frame delay. Rounding is done on
// the running total so errors do not accumulate over many frames.
func (s *Stage) delay(end float64) int {
	d := int(math.Round(end*100)) - s.written
	if d < 1 {
		d = 1
	}
	if d > pipeline.MaxDelayCentis {
		d = pipeline.MaxDelayCentis
	}
	s.written += d
	return d
}

// fail reports a sink failure with its own kind; anything else the
// encoder returns is a mux error.
func (s *Stage) fail(op string, err error) error {
	if s.out.err != nil {
		return pipeline.Classify(op, s.out.err)
	}
	return pipeline.Wrap(pipeline.KindMux, op, err)
}

// sinkWriter adapts a ByteSink to io.Writer and remembers the sink's error.
type sinkWriter struct {
	sink ports.ByteSink
	err  error
}

func (w *sinkWriter) Write(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	if err := w.sink.Write(p); err != nil {
		w.err = err
		return 0, err
	}
	return len(p), nil
}

var _ pipeline.BufferedStage[pipeline.QuantizedFrame, pipeline.EncodedFrame] = (*Stage)(nil)
