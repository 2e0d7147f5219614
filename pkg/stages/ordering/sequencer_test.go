package ordering

import (
	"context"
	"math"
	"testing"

	"github.com/user/gifstream/pkg/adapters/logger"
	"github.com/user/gifstream/pkg/pipeline"
)

func sequence(t *testing.T, frames []pipeline.CanonicalFrame) ([]pipeline.OrderedFrame, *Sequencer) {
	t.Helper()
	ctx := context.Background()
	s := NewSequencer(logger.NewNoop())

	var out []pipeline.OrderedFrame
	for _, f := range frames {
		got, err := s.Push(ctx, f)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out = append(out, got...)
	}
	got, err := s.Flush(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return append(out, got...), s
}

func ptsFrames(pts ...float64) []pipeline.CanonicalFrame {
	frames := make([]pipeline.CanonicalFrame, len(pts))
	for i, p := range pts {
		frames[i] = pipeline.CanonicalFrame{FrameNumber: uint32(i), PTS: p}
	}
	return frames
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSequencer_EndIsNextStart(t *testing.T) {
	out, _ := sequence(t, ptsFrames(0, 0.1, 0.25))

	want := []float64{0.1, 0.25, 0.4}
	if len(out) != len(want) {
		t.Fatalf("expected %d frames, got %d", len(want), len(out))
	}
	for i, w := range want {
		if !approx(out[i].EndPTS, w) {
			t.Errorf("frame %d: expected end %.3f, got %.3f", i, w, out[i].EndPTS)
		}
		if out[i].Index != i {
			t.Errorf("frame %d: expected index %d, got %d", i, i, out[i].Index)
		}
	}
}

func TestSequencer_FirstTimestampBecomesTrailingDelay(t *testing.T) {
	out, _ := sequence(t, ptsFrames(0.1, 1.2, 1.3))

	if !approx(out[0].StartPTS, 0) {
		t.Errorf("expected first frame to start at 0, got %.3f", out[0].StartPTS)
	}
	// 1.3 - 0.1 is the last start, plus the 0.1 offset.
	if !approx(out[2].EndPTS, 1.3) {
		t.Errorf("expected last frame to end at 1.3, got %.3f", out[2].EndPTS)
	}
}

func TestSequencer_SteadyRateForLastFrame(t *testing.T) {
	out, _ := sequence(t, ptsFrames(0, 1.2, 1.3))

	if !approx(out[2].EndPTS, 1.4) {
		t.Errorf("expected last frame to end at 1.4, got %.3f", out[2].EndPTS)
	}
}

func TestSequencer_LoneFrameLastsOneSecond(t *testing.T) {
	out, _ := sequence(t, ptsFrames(0))

	if len(out) != 1 || !approx(out[0].EndPTS, 1) {
		t.Fatalf("expected a single frame ending at 1s, got %+v", out)
	}
}

func TestSequencer_SkipsNonIncreasingTimestamps(t *testing.T) {
	out, s := sequence(t, ptsFrames(0, 0.5, 0.5, 0.3, 1.0))

	if len(out) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(out))
	}
	if s.Skipped() != 2 {
		t.Errorf("expected 2 skipped frames, got %d", s.Skipped())
	}
	if out[2].FrameNumber != 4 {
		t.Errorf("expected frame 4 last, got %d", out[2].FrameNumber)
	}
	if !approx(out[1].EndPTS, 1.0) {
		t.Errorf("expected skipped time to extend frame 1 to 1.0, got %.3f", out[1].EndPTS)
	}
}

func TestSequencer_LegacyDelays(t *testing.T) {
	frames := []pipeline.CanonicalFrame{
		{FrameNumber: 0, Delay: 10},
		{FrameNumber: 1, Delay: 20},
		{FrameNumber: 2, Delay: 5},
	}
	out, _ := sequence(t, frames)

	want := []float64{0.1, 0.3, 0.35}
	for i, w := range want {
		if !approx(out[i].EndPTS, w) {
			t.Errorf("frame %d: expected end %.2f, got %.2f", i, w, out[i].EndPTS)
		}
	}
}

func TestSequencer_RejectsMixedModes(t *testing.T) {
	s := NewSequencer(logger.NewNoop())
	ctx := context.Background()

	if _, err := s.Push(ctx, pipeline.CanonicalFrame{FrameNumber: 0, Delay: 10}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := s.Push(ctx, pipeline.CanonicalFrame{FrameNumber: 1, PTS: 0.5})
	if pipeline.KindOf(err) != pipeline.KindInvalidArgument {
		t.Errorf("expected invalid argument, got %v", err)
	}
}
