package orchestrator

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/user/gifstream/pkg/adapters/logger"
	"github.com/user/gifstream/pkg/mocks"
	"github.com/user/gifstream/pkg/pipeline"
	"github.com/user/gifstream/pkg/ports"
	"github.com/user/gifstream/pkg/stages/denoise"
	"github.com/user/gifstream/pkg/stages/encode"
	"github.com/user/gifstream/pkg/stages/ordering"
	"github.com/user/gifstream/pkg/stages/quantize"
)

type fixture struct {
	orch    *Orchestrator
	encoder *mocks.GIFEncoder
	sink    *mocks.ByteSink
	counter *CountingSink
}

func newFixture(quantizer pipeline.Stage[pipeline.DenoisedFrame, pipeline.QuantizedFrame]) *fixture {
	log := logger.NewNoop()
	settings := pipeline.DefaultSettings()
	if quantizer == nil {
		quantizer = quantize.NewStage(settings, log)
	}

	f := &fixture{encoder: &mocks.GIFEncoder{}, sink: &mocks.ByteSink{}}
	f.counter = NewCountingSink(f.sink)
	f.orch = New(
		ordering.NewSequencer(log),
		denoise.NewStage(settings.EffectiveMotionQuality(), log),
		quantizer,
		encode.NewStage(f.encoder, f.counter, settings.Repeat, nil, log),
		f.counter,
		log,
	)
	return f
}

func solid(n uint32, pts float64, c color.NRGBA) pipeline.CanonicalFrame {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return pipeline.CanonicalFrame{FrameNumber: n, PTS: pts, Image: img}
}

func tickets(frames ...pipeline.CanonicalFrame) <-chan Ticket {
	ch := make(chan Ticket, len(frames))
	for _, f := range frames {
		ch <- Ticket{Frames: []pipeline.CanonicalFrame{f}, Outcome: pipeline.Accepted}
	}
	close(ch)
	return ch
}

var (
	red  = color.NRGBA{R: 255, A: 255}
	blue = color.NRGBA{B: 255, A: 255}
)

func TestOrchestrator_Run(t *testing.T) {
	f := newFixture(nil)

	stats, err := f.orch.Run(context.Background(), tickets(
		solid(0, 0, red),
		solid(1, 0.1, blue),
		solid(2, 0.2, red),
	), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.Written != 3 {
		t.Errorf("expected 3 written frames, got %d", stats.Written)
	}
	if stats.DurationCentis != 30 {
		t.Errorf("expected 30cs, got %d", stats.DurationCentis)
	}
	if stats.Width != 2 || stats.Height != 2 {
		t.Errorf("expected 2x2, got %dx%d", stats.Width, stats.Height)
	}
	if !f.encoder.EndCalled {
		t.Error("expected trailer to be written")
	}
	if f.sink.Flushes != 1 {
		t.Errorf("expected 1 flush, got %d", f.sink.Flushes)
	}
	if f.counter.Count() != int64(len(f.sink.Bytes())) || f.counter.Count() == 0 {
		t.Errorf("expected counted bytes to match sink, got %d and %d", f.counter.Count(), len(f.sink.Bytes()))
	}
}

func TestOrchestrator_CountsSkippedAndMerged(t *testing.T) {
	f := newFixture(nil)

	stats, err := f.orch.Run(context.Background(), tickets(
		solid(0, 0, red),
		solid(1, 0.1, blue),
		solid(2, 0.1, red), // same timestamp
		solid(3, 0.2, red),
		solid(4, 0.3, red), // identical to the previous frame
	), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.SkippedTimestamp != 1 {
		t.Errorf("expected 1 skipped timestamp, got %d", stats.SkippedTimestamp)
	}
	if stats.Merged != 1 {
		t.Errorf("expected 1 merged frame, got %d", stats.Merged)
	}
}

func TestOrchestrator_ProgressPerTicket(t *testing.T) {
	f := newFixture(nil)

	ch := make(chan Ticket, 3)
	ch <- Ticket{Frames: []pipeline.CanonicalFrame{solid(0, 0, red)}}
	ch <- Ticket{Outcome: pipeline.SkippedDuplicateOrOutOfOrder}
	ch <- Ticket{Frames: []pipeline.CanonicalFrame{solid(1, 0.1, blue)}}
	close(ch)

	calls := 0
	progress := ports.ProgressFunc(func() bool {
		calls++
		return true
	})

	if _, err := f.orch.Run(context.Background(), ch, progress, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 progress calls, got %d", calls)
	}
}

func TestOrchestrator_Abort(t *testing.T) {
	f := newFixture(nil)

	aborts := 0
	calls := 0
	progress := ports.ProgressFunc(func() bool {
		calls++
		return false
	})

	stats, err := f.orch.Run(context.Background(), tickets(
		solid(0, 0, red),
		solid(1, 0.1, blue),
		solid(2, 0.2, red),
	), progress, func() { aborts++ })

	if !errors.Is(err, pipeline.ErrAborted) {
		t.Fatalf("expected aborted, got %v", err)
	}
	if aborts != 1 || calls != 1 {
		t.Errorf("expected one abort after one progress call, got %d and %d", aborts, calls)
	}
	if stats.Written != 3 {
		t.Errorf("queued frames should still be written, got %d", stats.Written)
	}
	if !f.encoder.EndCalled {
		t.Error("expected trailer to be written after abort")
	}
}

func TestOrchestrator_PanicIsThreadLost(t *testing.T) {
	f := newFixture(pipeline.StageFunc[pipeline.DenoisedFrame, pipeline.QuantizedFrame](
		func(ctx context.Context, in pipeline.DenoisedFrame) (pipeline.QuantizedFrame, error) {
			panic("boom")
		}))

	_, err := f.orch.Run(context.Background(), tickets(solid(0, 0, red), solid(1, 0.1, blue)), nil, nil)
	if pipeline.KindOf(err) != pipeline.KindThreadLost {
		t.Errorf("expected thread lost, got %v", err)
	}
}

func TestOrchestrator_FailureDrainsRemainingTickets(t *testing.T) {
	f := newFixture(nil)

	ch := make(chan Ticket, 4)
	ch <- Ticket{Frames: []pipeline.CanonicalFrame{solid(0, 0, red)}}
	ch <- Ticket{Frames: []pipeline.CanonicalFrame{{FrameNumber: 1, PTS: 0.1, Delay: 5, Image: solid(1, 0, red).Image}}}
	ch <- Ticket{Frames: []pipeline.CanonicalFrame{solid(2, 0.2, blue)}}
	ch <- Ticket{Frames: []pipeline.CanonicalFrame{solid(3, 0.3, red)}}
	close(ch)

	_, err := f.orch.Run(context.Background(), ch, nil, nil)
	if pipeline.KindOf(err) != pipeline.KindInvalidArgument {
		t.Errorf("expected invalid argument, got %v", err)
	}
	if len(ch) != 0 {
		t.Errorf("expected every ticket to be drained, %d left", len(ch))
	}
	if len(f.encoder.WriteFrameCalls) != 0 {
		t.Errorf("nothing should be written after a failure, got %d frames", len(f.encoder.WriteFrameCalls))
	}
}

func TestOrchestrator_NoFrames(t *testing.T) {
	f := newFixture(nil)

	_, err := f.orch.Run(context.Background(), tickets(), nil, nil)
	if !errors.Is(err, pipeline.ErrInvalidState) {
		t.Errorf("expected invalid state, got %v", err)
	}
}

func TestCountingSink(t *testing.T) {
	sink := &mocks.ByteSink{}
	c := NewCountingSink(sink)

	c.Write([]byte("abc"))
	c.Write([]byte("de"))
	if c.Count() != 5 {
		t.Errorf("expected 5 bytes, got %d", c.Count())
	}

	sink.WriteFunc = func(p []byte) error { return errors.New("full") }
	if err := c.Write([]byte("x")); err == nil {
		t.Error("expected error from sink")
	}
	if c.Count() != 5 {
		t.Errorf("failed writes must not be counted, got %d", c.Count())
	}
}

func TestOrchestrator_FinalTicketHasNoProgress(t *testing.T) {
	f := newFixture(nil)

	ch := make(chan Ticket, 2)
	ch <- Ticket{Outcome: pipeline.Accepted}
	ch <- Ticket{Frames: []pipeline.CanonicalFrame{solid(1, 0, red), solid(2, 0.1, blue)}, Final: true}
	close(ch)

	calls := 0
	progress := ports.ProgressFunc(func() bool {
		calls++
		return true
	})

	stats, err := f.orch.Run(context.Background(), ch, progress, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 progress call, got %d", calls)
	}
	if stats.Written != 2 {
		t.Errorf("expected drained frames to be written, got %d", stats.Written)
	}
}
