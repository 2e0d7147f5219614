// Package orchestrator drives admitted frames through the encoding stages
// on the consumer goroutine.
package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/user/gifstream/pkg/pipeline"
	"github.com/user/gifstream/pkg/ports"
	"github.com/user/gifstream/pkg/stages/encode"
)

// Ticket is one admission handed from the producer to the consumer.
type Ticket struct {
	// Frames released in order by this admission. Empty when the frame is
	// waiting for a gap to be filled or was skipped.
	Frames  []pipeline.CanonicalFrame
	Outcome pipeline.AdmissionOutcome

	// Final tickets carry the frames drained at finish. They are not an
	// admission, so no progress is reported for them.
	Final bool
}

// Orchestrator coordinates the consumer side of the pipeline.
type Orchestrator struct {
	sequencer pipeline.BufferedStage[pipeline.CanonicalFrame, pipeline.OrderedFrame]
	denoiser  pipeline.BufferedStage[pipeline.OrderedFrame, pipeline.DenoisedFrame]
	quantizer pipeline.Stage[pipeline.DenoisedFrame, pipeline.QuantizedFrame]
	muxer     pipeline.BufferedStage[pipeline.QuantizedFrame, pipeline.EncodedFrame]
	sink      ports.ByteSink
	logger    ports.Logger

	received  int
	sequenced int
	denoised  int
}

// New creates a new Orchestrator. sink is flushed once the trailer has been written.
func New(
	sequencer pipeline.BufferedStage[pipeline.CanonicalFrame, pipeline.OrderedFrame],
	denoiser pipeline.BufferedStage[pipeline.OrderedFrame, pipeline.DenoisedFrame],
	quantizer pipeline.Stage[pipeline.DenoisedFrame, pipeline.QuantizedFrame],
	muxer pipeline.BufferedStage[pipeline.QuantizedFrame, pipeline.EncodedFrame],
	sink ports.ByteSink,
	logger ports.Logger,
) *Orchestrator {
	return &Orchestrator{
		sequencer: sequencer,
		denoiser:  denoiser,
		quantizer: quantizer,
		muxer:     muxer,
		sink:      sink,
		logger:    logger.WithComponent("orchestrator"),
	}
}

// Run consumes tickets until the channel is closed, then writes the end of
// the stream. progress is notified once per ticket; when it returns false,
// abort is called and Run keeps draining but reports pipeline.ErrAborted.
// After the first failure tickets are still drained but no longer processed.
func (o *Orchestrator) Run(ctx context.Context, tickets <-chan Ticket, progress ports.ProgressObserver, abort func()) (pipeline.Stats, error) {
	var stats pipeline.Stats
	var failure error
	aborted := false

	for t := range tickets {
		if failure != nil {
			continue
		}
		if err := o.safely(func() error { return o.admit(ctx, t.Frames, &stats) }); err != nil {
			failure = err
			o.logger.Error("Encoding failed: %s", err)
			continue
		}
		if !t.Final && !aborted && progress != nil && !progress.FrameDone() {
			aborted = true
			o.logger.Warn("Encoding aborted by progress observer")
			if abort != nil {
				abort()
			}
		}
	}

	if failure == nil {
		failure = o.safely(func() error { return o.finish(ctx, &stats) })
	}

	stats.SkippedTimestamp = o.received - o.sequenced
	stats.Merged = o.sequenced - o.denoised

	switch {
	case failure != nil:
		return stats, failure
	case aborted:
		return stats, pipeline.ErrAborted
	}

	o.logger.Info("Wrote %d frames", stats.Written)
	return stats, nil
}

func (o *Orchestrator) admit(ctx context.Context, frames []pipeline.CanonicalFrame, stats *pipeline.Stats) error {
	for _, f := range frames {
		o.received++
		ordered, err := o.sequencer.Push(ctx, f)
		if err != nil {
			return err
		}
		if err := o.denoise(ctx, ordered, stats); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) finish(ctx context.Context, stats *pipeline.Stats) error {
	ordered, err := o.sequencer.Flush(ctx)
	if err != nil {
		return err
	}
	if err := o.denoise(ctx, ordered, stats); err != nil {
		return err
	}

	denoised, err := o.denoiser.Flush(ctx)
	if err != nil {
		return err
	}
	if err := o.quantize(ctx, denoised, stats); err != nil {
		return err
	}

	encoded, err := o.muxer.Flush(ctx)
	if errors.Is(err, encode.ErrNoFrames) {
		return pipeline.Wrap(pipeline.KindInvalidState, "finish", err)
	}
	if err != nil {
		return err
	}
	o.record(encoded, stats)

	if err := o.sink.Flush(); err != nil {
		return pipeline.Classify("flush", err)
	}
	return nil
}

func (o *Orchestrator) denoise(ctx context.Context, frames []pipeline.OrderedFrame, stats *pipeline.Stats) error {
	for _, f := range frames {
		o.sequenced++
		denoised, err := o.denoiser.Push(ctx, f)
		if err != nil {
			return err
		}
		if err := o.quantize(ctx, denoised, stats); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) quantize(ctx context.Context, frames []pipeline.DenoisedFrame, stats *pipeline.Stats) error {
	for _, f := range frames {
		o.denoised++
		q, err := o.quantizer.Execute(ctx, f)
		if err != nil {
			return err
		}
		if q.Unchanged {
			stats.Unchanged++
		} else if stats.Width == 0 {
			stats.Width, stats.Height = q.Image.Rect.Dx(), q.Image.Rect.Dy()
		}

		encoded, err := o.muxer.Push(ctx, q)
		if err != nil {
			return err
		}
		o.record(encoded, stats)
	}
	return nil
}

func (o *Orchestrator) record(frames []pipeline.EncodedFrame, stats *pipeline.Stats) {
	for _, e := range frames {
		stats.Written++
		stats.DurationCentis += e.DelayCentis
	}
}

// safely runs fn, turning a panic into a KindThreadLost error and any
// unclassified error into a classified one.
func (o *Orchestrator) safely(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = pipeline.Wrap(pipeline.KindThreadLost, "encode", fmt.Errorf("consumer panicked: %v", r))
		}
	}()
	return pipeline.Classify("encode", fn())
}
