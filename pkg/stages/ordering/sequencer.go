package ordering

import (
	"context"

	"github.com/user/gifstream/pkg/pipeline"
	"github.com/user/gifstream/pkg/ports"
)

// wrapThreshold is the first-frame timestamp above which the offset is
// treated as the trailing delay of the last frame.
const wrapThreshold = 1.0 / 100.0

// Sequencer turns released frames into frames with a display interval.
// A frame can only be emitted once the next frame's timestamp is known,
// so it always holds one frame back.
type Sequencer struct {
	logger ports.Logger

	started  bool
	legacy   bool
	firstPTS float64
	elapsed  float64 // legacy mode: sum of delays so far

	held      *pipeline.OrderedFrame
	prevStart float64
	index     int

	received int
	skipped  int
}

// NewSequencer creates a Sequencer.
func NewSequencer(logger ports.Logger) *Sequencer {
	return &Sequencer{
		logger:    logger.WithComponent("sequencer"),
		prevStart: -1,
	}
}

// Push implements pipeline.BufferedStage.
func (s *Sequencer) Push(ctx context.Context, f pipeline.CanonicalFrame) ([]pipeline.OrderedFrame, error) {
	s.received++

	if !s.started {
		s.started = true
		s.legacy = f.Delay > 0
		if !s.legacy {
			s.firstPTS = f.PTS
		}
	} else if (f.Delay > 0) != s.legacy {
		return nil, pipeline.Errorf(pipeline.KindInvalidArgument, "add frame",
			"frame %d mixes frame delays with presentation timestamps", f.FrameNumber)
	}

	if s.legacy {
		start := s.elapsed
		s.elapsed += float64(f.Delay) / 100
		s.prevStart = start
		out := pipeline.OrderedFrame{
			CanonicalFrame: f,
			Index:          s.index,
			StartPTS:       start,
			EndPTS:         s.elapsed,
		}
		s.index++
		return []pipeline.OrderedFrame{out}, nil
	}

	start := f.PTS - s.firstPTS
	if s.held != nil && start <= s.held.StartPTS {
		s.skipped++
		s.logger.Debug("Skipping frame %d: timestamp %.3f does not follow %.3f", f.FrameNumber, start, s.held.StartPTS)
		return nil, nil
	}

	var out []pipeline.OrderedFrame
	if s.held != nil {
		s.held.EndPTS = start
		s.prevStart = s.held.StartPTS
		out = append(out, *s.held)
	}
	s.held = &pipeline.OrderedFrame{
		CanonicalFrame: f,
		Index:          s.index,
		StartPTS:       start,
	}
	s.index++
	return out, nil
}

// Flush implements pipeline.BufferedStage. The last frame lasts for the
// first frame's timestamp offset when that offset is significant, otherwise
// for as long as the interval before it.
func (s *Sequencer) Flush(ctx context.Context) ([]pipeline.OrderedFrame, error) {
	if s.held == nil {
		return nil, nil
	}
	last := *s.held
	s.held = nil
	if s.firstPTS > wrapThreshold {
		last.EndPTS = last.StartPTS + s.firstPTS
	} else {
		last.EndPTS = last.StartPTS + (last.StartPTS - s.prevStart)
	}
	return []pipeline.OrderedFrame{last}, nil
}

// Skipped returns how many frames were dropped for a non-increasing timestamp.
func (s *Sequencer) Skipped() int {
	return s.skipped
}

// Received returns how many frames were pushed.
func (s *Sequencer) Received() int {
	return s.received
}

var _ pipeline.BufferedStage[pipeline.CanonicalFrame, pipeline.OrderedFrame] = (*Sequencer)(nil)
