// Package denoise merges repeated frames, chooses each frame's disposal and
// runs the temporal denoiser that produces per-pixel importance maps.
package denoise

import (
	"bytes"
	"context"

	"github.com/user/gifstream/pkg/pipeline"
	"github.com/user/gifstream/pkg/ports"
)

// Stage holds one frame back to compare it with its successor, then feeds
// it to the denoiser.
type Stage struct {
	quality int
	logger  ports.Logger

	denoiser      *Denoiser
	held          *pipeline.OrderedFrame
	firstHasAlpha bool
	index         int
	merged        int
}

// NewStage creates a denoise stage. quality is the motion quality (1-100).
func NewStage(quality int, logger ports.Logger) *Stage {
	return &Stage{
		quality: quality,
		logger:  logger.WithComponent("denoise"),
	}
}

// Push implements pipeline.BufferedStage.
func (s *Stage) Push(ctx context.Context, f pipeline.OrderedFrame) ([]pipeline.DenoisedFrame, error) {
	if s.held == nil {
		b := f.Image.Bounds()
		s.denoiser = NewDenoiser(b.Dx(), b.Dy(), s.quality)
		s.firstHasAlpha = hasTransparency(f.Image.Pix)
		s.held = &f
		s.logger.Debug("Denoising %dx%d frames, threshold %d", b.Dx(), b.Dy(), s.denoiser.Threshold())
		return nil, nil
	}

	curr := s.held
	if f.Image.Bounds() != curr.Image.Bounds() {
		return nil, pipeline.Errorf(pipeline.KindInvalidInput, "add frame",
			"frame %d has wrong size (%dx%d, expected %dx%d)", f.FrameNumber,
			f.Image.Bounds().Dx(), f.Image.Bounds().Dy(), curr.Image.Bounds().Dx(), curr.Image.Bounds().Dy())
	}

	if bytes.Equal(f.Image.Pix, curr.Image.Pix) {
		s.merged++
		s.logger.Debug("Frame %d is identical to frame %d, merging", curr.FrameNumber, f.FrameNumber)
		s.held = &f
		return nil, nil
	}

	dispose := pipeline.DisposalKeep
	if lowersAlpha(curr.Image.Pix, f.Image.Pix) {
		dispose = pipeline.DisposalBackground
	}

	s.held = &f
	return s.wrap(s.denoiser.push(curr.Image, metaOf(curr, dispose)), false), nil
}

// Flush implements pipeline.BufferedStage.
func (s *Stage) Flush(ctx context.Context) ([]pipeline.DenoisedFrame, error) {
	if s.held == nil {
		return nil, nil
	}
	last := s.held
	s.held = nil

	// The last frame resets to background so looping transparent
	// animations restart cleanly; opaque ones keep it.
	dispose := pipeline.DisposalKeep
	if s.firstHasAlpha {
		dispose = pipeline.DisposalBackground
	}

	out := s.wrap(s.denoiser.push(last.Image, metaOf(last, dispose)), false)
	out = append(out, s.wrap(s.denoiser.flush(), true)...)
	return out, nil
}

// Merged returns how many frames were dropped for being identical to the next one.
func (s *Stage) Merged() int {
	return s.merged
}

func (s *Stage) wrap(frames []denoised, final bool) []pipeline.DenoisedFrame {
	out := make([]pipeline.DenoisedFrame, 0, len(frames))
	for i, d := range frames {
		out = append(out, pipeline.DenoisedFrame{
			Index:       s.index,
			FrameNumber: d.meta.frameNumber,
			Image:       d.image,
			Importance:  d.importance,
			Dispose:     d.meta.dispose,
			EndPTS:      d.meta.endPTS,
			Last:        final && i == len(frames)-1,
		})
		s.index++
	}
	return out
}

func metaOf(f *pipeline.OrderedFrame, dispose pipeline.Disposal) frameMeta {
	return frameMeta{
		frameNumber: f.FrameNumber,
		endPTS:      f.EndPTS,
		dispose:     dispose,
	}
}

func hasTransparency(pix []byte) bool {
	for i := 3; i < len(pix); i += 4 {
		if pix[i] < 128 {
			return true
		}
	}
	return false
}

// lowersAlpha reports whether next is less opaque than curr anywhere.
func lowersAlpha(curr, next []byte) bool {
	for i := 3; i < len(curr); i += 4 {
		if next[i] < curr[i] {
			return true
		}
	}
	return false
}

var _ pipeline.BufferedStage[pipeline.OrderedFrame, pipeline.DenoisedFrame] = (*Stage)(nil)
