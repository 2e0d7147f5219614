// Package gifstream encodes frames produced by any source into an animated
// GIF. Frames are admitted on the caller's goroutines and encoded by a
// background consumer that writes the stream to the bound output.
package gifstream

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"sync"
	"sync/atomic"

	"github.com/user/gifstream/pkg/adapters/callbacksink"
	"github.com/user/gifstream/pkg/adapters/filesink"
	"github.com/user/gifstream/pkg/adapters/lossypass"
	"github.com/user/gifstream/pkg/orchestrator"
	"github.com/user/gifstream/pkg/pipeline"
	"github.com/user/gifstream/pkg/ports"
	"github.com/user/gifstream/pkg/stages/composite"
	"github.com/user/gifstream/pkg/stages/denoise"
	"github.com/user/gifstream/pkg/stages/encode"
	"github.com/user/gifstream/pkg/stages/ordering"
	"github.com/user/gifstream/pkg/stages/quantize"
)

// State is the lifecycle state of an Encoder.
type State int

const (
	// StateConfiguring accepts settings changes until the first frame.
	StateConfiguring State = iota
	// StateAccepting admits frames. Settings are frozen.
	StateAccepting
	// StateDraining is entered by Finish while queued frames are written.
	StateDraining
	StateFinished
	StateFailed
	StateAborted
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateConfiguring:
		return "configuring"
	case StateAccepting:
		return "accepting"
	case StateDraining:
		return "draining"
	case StateFinished:
		return "finished"
	case StateFailed:
		return "failed"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// stderrObserver is the default ErrorObserver.
var stderrObserver = ports.ErrorFunc(func(message string) {
	fmt.Fprintln(os.Stderr, "gifstream: "+message)
})

type result struct {
	stats pipeline.Stats
	err   error
}

// Encoder is the producer side of an encoding session.
// All methods are safe for concurrent use; admissions are serialized.
type Encoder struct {
	mu       sync.Mutex
	opts     options
	logger   ports.Logger
	settings pipeline.Settings
	state    State

	progress ports.ProgressObserver
	observer ports.ErrorObserver

	sink    *orchestrator.CountingSink
	closer  ports.SinkCloser
	start   chan pipeline.Settings
	tickets chan orchestrator.Ticket
	done    chan result

	compositor *composite.Stage
	buffer     *ordering.Buffer

	// Shape of the first accepted frame; later frames must match it.
	haveFirst   bool
	firstSize   image.Point
	firstLegacy bool
	invalid    int // frames rejected before reaching the ordering buffer
	aborted    atomic.Bool

	stats pipeline.Stats
}

// New creates an Encoder. A zero Quality selects pipeline.DefaultQuality.
func New(settings pipeline.Settings, opts ...Option) (*Encoder, error) {
	if settings.Quality == 0 {
		settings.Quality = pipeline.DefaultQuality
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	settings.FixedColors = append([]color.NRGBA(nil), settings.FixedColors...)

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &Encoder{
		opts:     o,
		logger:   o.logger,
		settings: settings,
		observer: stderrObserver,
		buffer:   ordering.NewBuffer(o.window),
	}, nil
}

// =============================================================================
// Configuration
// =============================================================================

func (e *Encoder) configure(op string, fn func(*pipeline.Settings)) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateConfiguring {
		return pipeline.Errorf(pipeline.KindInvalidState, op, "settings cannot change after the first frame")
	}
	next := e.settings
	fn(&next)
	if err := next.Validate(); err != nil {
		return err
	}
	e.settings = next
	return nil
}

// SetMotionQuality sets the temporal denoiser quality (1-100).
func (e *Encoder) SetMotionQuality(q int) error {
	return e.configure("set motion quality", func(s *pipeline.Settings) { s.MotionQuality = q })
}

// SetLossyQuality sets the lossy compression quality (1-100).
func (e *Encoder) SetLossyQuality(q int) error {
	return e.configure("set lossy quality", func(s *pipeline.Settings) { s.LossyQuality = q })
}

// SetExtraEffort spends more time on each palette.
func (e *Encoder) SetExtraEffort(extra bool) error {
	return e.configure("set extra effort", func(s *pipeline.Settings) { s.ExtraEffort = extra })
}

// SetFast trades quality for speed.
func (e *Encoder) SetFast(fast bool) error {
	return e.configure("set fast", func(s *pipeline.Settings) { s.Fast = fast })
}

// SetRepeat sets looping: negative plays once, zero loops forever and
// n > 0 repeats n times.
func (e *Encoder) SetRepeat(n int) error {
	return e.configure("set repeat", func(s *pipeline.Settings) { s.Repeat = pipeline.RepeatFromInt(n) })
}

// AddFixedColor keeps an opaque color in every frame's palette.
func (e *Encoder) AddFixedColor(r, g, b uint8) error {
	return e.configure("add fixed color", func(s *pipeline.Settings) {
		colors := make([]color.NRGBA, len(s.FixedColors), len(s.FixedColors)+1)
		copy(colors, s.FixedColors)
		s.FixedColors = append(colors, color.NRGBA{R: r, G: g, B: b, A: 255})
	})
}

// SetProgressObserver sets the observer notified once per admitted frame.
// It must be called before an output is set.
func (e *Encoder) SetProgressObserver(p ports.ProgressObserver) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sink != nil || e.state != StateConfiguring {
		return pipeline.Errorf(pipeline.KindInvalidState, "set progress observer", "output is already set")
	}
	e.progress = p
	return nil
}

// SetErrorObserver sets where diagnostics are reported. nil silences them.
// It must be called before an output is set.
func (e *Encoder) SetErrorObserver(o ports.ErrorObserver) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sink != nil || e.state != StateConfiguring {
		return pipeline.Errorf(pipeline.KindInvalidState, "set error observer", "output is already set")
	}
	e.observer = o
	return nil
}

// Settings returns a copy of the current settings.
func (e *Encoder) Settings() pipeline.Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.settings
	s.FixedColors = append([]color.NRGBA(nil), s.FixedColors...)
	return s
}

// =============================================================================
// Output binding
// =============================================================================

// SetFileOutput writes the GIF to path. The file is removed if encoding fails.
func (e *Encoder) SetFileOutput(path string) error {
	return e.bind("set file output", func() (ports.ByteSink, error) {
		sink, err := filesink.New(e.opts.fs, path)
		if err != nil {
			return nil, err
		}
		e.logger.Info("Writing GIF to %s", path)
		return sink, nil
	})
}

// SetWriteCallback delivers the GIF to fn.
func (e *Encoder) SetWriteCallback(fn callbacksink.Func) error {
	if fn == nil {
		return pipeline.Errorf(pipeline.KindInvalidArgument, "set write callback", "callback is nil")
	}
	return e.bind("set write callback", func() (ports.ByteSink, error) {
		return callbacksink.New(fn), nil
	})
}

// SetOutput writes the GIF to sink. When sink also implements
// ports.SinkCloser it is closed by Finish.
func (e *Encoder) SetOutput(sink ports.ByteSink) error {
	if sink == nil {
		return pipeline.Errorf(pipeline.KindInvalidArgument, "set output", "sink is nil")
	}
	return e.bind("set output", func() (ports.ByteSink, error) {
		return sink, nil
	})
}

func (e *Encoder) bind(op string, open func() (ports.ByteSink, error)) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch {
	case e.state != StateConfiguring:
		return pipeline.Errorf(pipeline.KindInvalidState, op, "output must be set before the first frame")
	case e.sink != nil:
		return pipeline.Errorf(pipeline.KindInvalidState, op, "output is already set")
	}

	sink, err := open()
	if err != nil {
		return err
	}
	e.sink = orchestrator.NewCountingSink(sink)
	if c, ok := sink.(ports.SinkCloser); ok {
		e.closer = c
	}

	e.start = make(chan pipeline.Settings, 1)
	e.tickets = make(chan orchestrator.Ticket, e.opts.queueDepth)
	e.done = make(chan result, 1)
	go e.consume(e.start, e.tickets, e.done, e.sink, e.progress)
	return nil
}

// consume runs on its own goroutine. It waits for the settings frozen by
// the first admission, then drives the stages until tickets is closed.
func (e *Encoder) consume(start <-chan pipeline.Settings, tickets <-chan orchestrator.Ticket, done chan<- result, sink ports.ByteSink, progress ports.ProgressObserver) {
	settings, ok := <-start
	if !ok {
		done <- result{err: pipeline.Errorf(pipeline.KindInvalidState, "finish", "no frames were added")}
		return
	}

	log := e.logger
	lossy := e.opts.compression
	if lossy == nil {
		if p := lossypass.New(settings.LossyLoss()); p != nil {
			lossy = p
		}
	}
	log.Debug("Encoding with quality %d, motion quality %d, lossy quality %d",
		settings.Quality, settings.EffectiveMotionQuality(), settings.EffectiveLossyQuality())

	orch := orchestrator.New(
		ordering.NewSequencer(log),
		denoise.NewStage(settings.EffectiveMotionQuality(), log),
		quantize.NewStage(settings, log),
		encode.NewStage(e.opts.encoder, sink, settings.Repeat, lossy, log),
		sink,
		log,
	)
	stats, err := orch.Run(context.Background(), tickets, progress, func() { e.aborted.Store(true) })
	done <- result{stats: stats, err: err}
}

// =============================================================================
// Admission
// =============================================================================

// checkAccepting must be called with e.mu held.
func (e *Encoder) checkAccepting(op string) error {
	switch {
	case e.state >= StateDraining:
		return pipeline.Errorf(pipeline.KindInvalidState, op, "encoder has finished")
	case e.sink == nil:
		return pipeline.Errorf(pipeline.KindInvalidState, op, "no output has been set")
	case e.aborted.Load():
		return pipeline.Errorf(pipeline.KindAborted, op, "encoding was aborted")
	}
	return nil
}

// compositorFor validates f, freezes the settings on the first admission
// and returns the stage that normalizes frames.
func (e *Encoder) compositorFor(op string, f pipeline.PixelFrame) (*composite.Stage, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkAccepting(op); err != nil {
		return nil, err
	}
	if err := f.Validate(); err != nil {
		e.invalid++
		return nil, err
	}
	if e.state == StateConfiguring {
		e.state = StateAccepting
		e.compositor = composite.NewStage(e.opts.renderer, e.settings, e.logger)
		e.start <- e.settings
	}
	return e.compositor, nil
}

func (e *Encoder) reject() {
	e.mu.Lock()
	e.invalid++
	e.mu.Unlock()
}

// AddFrame admits a frame. Pixels are copied before AddFrame returns.
// It blocks while the consumer is behind.
func (e *Encoder) AddFrame(f pipeline.PixelFrame) error {
	stage, err := e.compositorFor("add frame", f)
	if err != nil {
		return err
	}

	// Normalizing is the expensive part of admission and needs no lock.
	canon, err := stage.Execute(context.Background(), f)
	if err != nil {
		e.reject()
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkAccepting("add frame"); err != nil {
		return err
	}
	if err := e.matchesFirst(canon); err != nil {
		e.invalid++
		return err
	}
	outcome, released, err := e.buffer.Admit(canon)
	if err != nil {
		return err
	}
	if outcome == pipeline.SkippedDuplicateOrOutOfOrder {
		e.logger.Debug("Frame %d was already encoded, skipping", f.FrameNumber)
	}
	if !e.haveFirst && outcome == pipeline.Accepted {
		e.haveFirst = true
		e.firstSize = canon.Image.Rect.Size()
		e.firstLegacy = canon.Delay > 0
	}
	e.tickets <- orchestrator.Ticket{Frames: released, Outcome: outcome}
	return nil
}

// matchesFirst rejects a frame whose timing mode or size differs from the
// first accepted frame. It must be called with e.mu held.
func (e *Encoder) matchesFirst(f pipeline.CanonicalFrame) error {
	if !e.haveFirst {
		return nil
	}
	if (f.Delay > 0) != e.firstLegacy {
		return pipeline.Errorf(pipeline.KindInvalidArgument, "add frame",
			"frame %d mixes frame delays with presentation timestamps", f.FrameNumber)
	}
	want, got := e.firstSize, f.Image.Rect.Size()
	if got != want {
		return pipeline.Errorf(pipeline.KindInvalidInput, "add frame",
			"frame %d has wrong size (%dx%d, expected %dx%d)", f.FrameNumber, got.X, got.Y, want.X, want.Y)
	}
	return nil
}

// AddFrameRGBA admits an RGBA frame. stride 0 means tightly packed rows.
// pts is the presentation timestamp in seconds.
func (e *Encoder) AddFrameRGBA(frameNumber uint32, width, height, stride int, pix []byte, pts float64) error {
	return e.addRaw(frameNumber, width, height, stride, pipeline.LayoutRGBA, pix, pts)
}

// AddFrameARGB admits an ARGB frame.
func (e *Encoder) AddFrameARGB(frameNumber uint32, width, height, stride int, pix []byte, pts float64) error {
	return e.addRaw(frameNumber, width, height, stride, pipeline.LayoutARGB, pix, pts)
}

// AddFrameRGB admits an RGB frame. It is fully opaque.
func (e *Encoder) AddFrameRGB(frameNumber uint32, width, height, stride int, pix []byte, pts float64) error {
	return e.addRaw(frameNumber, width, height, stride, pipeline.LayoutRGB, pix, pts)
}

func (e *Encoder) addRaw(frameNumber uint32, width, height, stride int, layout pipeline.PixelLayout, pix []byte, pts float64) error {
	return e.AddFrame(pipeline.PixelFrame{
		FrameNumber: frameNumber,
		PTS:         pts,
		Width:       width,
		Height:      height,
		RowStride:   stride,
		Layout:      layout,
		Pix:         pix,
	})
}

// AddFrameRGBAWithDelay admits a tightly packed RGBA frame shown for delay
// hundredths of a second. A stream must use either delays or timestamps.
func (e *Encoder) AddFrameRGBAWithDelay(frameNumber uint32, width, height int, pix []byte, delay uint16) error {
	if delay == 0 {
		return pipeline.Errorf(pipeline.KindInvalidArgument, "add frame", "frame %d: delay must be at least 1", frameNumber)
	}
	return e.AddFrame(pipeline.PixelFrame{
		FrameNumber: frameNumber,
		Delay:       delay,
		Width:       width,
		Height:      height,
		Layout:      pipeline.LayoutRGBA,
		Pix:         pix,
	})
}

// AddFrameFile decodes a PNG, JPEG, GIF, WebP or BMP file and admits it.
func (e *Encoder) AddFrameFile(frameNumber uint32, path string, pts float64) error {
	e.mu.Lock()
	err := e.checkAccepting("add frame")
	e.mu.Unlock()
	if err != nil {
		return err
	}

	data, err := e.opts.fs.ReadFile(path)
	if err != nil {
		e.reject()
		return pipeline.Classify("read "+path, err)
	}
	img, _, err := e.opts.decoder.Decode(data)
	if err != nil {
		e.reject()
		return pipeline.Wrap(pipeline.KindInvalidInput, "decode "+path, err)
	}

	f := composite.FromImage(img)
	f.FrameNumber = frameNumber
	f.PTS = pts
	return e.AddFrame(f)
}

// =============================================================================
// Completion
// =============================================================================

// Finish stops admission, writes every queued frame and the trailer, and
// returns the terminal status. Only the first call does anything; later
// calls return KindInvalidState.
func (e *Encoder) Finish() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state >= StateDraining {
		return pipeline.Errorf(pipeline.KindInvalidState, "finish", "encoder has already finished")
	}
	if e.sink == nil {
		e.state = StateFailed
		return e.report(pipeline.Errorf(pipeline.KindInvalidState, "finish", "no output has been set"))
	}

	started := e.state == StateAccepting
	e.state = StateDraining
	if !started {
		close(e.start)
	} else if released := e.buffer.Drain(); len(released) > 0 {
		e.tickets <- orchestrator.Ticket{Frames: released, Outcome: pipeline.Accepted, Final: true}
	}
	close(e.tickets)

	res := <-e.done
	err := res.err
	if e.closer != nil {
		if cerr := e.closer.Close(err); cerr != nil && err == nil {
			err = pipeline.Classify("close", cerr)
		}
	}
	e.stats = e.collect(res.stats)

	switch pipeline.KindOf(err) {
	case pipeline.KindOK:
		e.state = StateFinished
		e.logger.Info("Encoded %d frames, %d bytes", e.stats.Written, e.stats.BytesWritten)
		return nil
	case pipeline.KindAborted:
		e.state = StateAborted
		return err
	default:
		e.state = StateFailed
		return e.report(err)
	}
}

// report must be called with e.mu held.
func (e *Encoder) report(err error) error {
	if e.observer != nil {
		e.observer.ReportError(err.Error())
	}
	return err
}

// collect must be called with e.mu held.
func (e *Encoder) collect(stats pipeline.Stats) pipeline.Stats {
	admitted, skipped, rejected := e.buffer.Counts()
	stats.Admitted = admitted
	stats.SkippedLate = skipped
	stats.Rejected = rejected + e.invalid
	if e.sink != nil {
		stats.BytesWritten = e.sink.Count()
	}
	return stats
}

// Stats returns what happened to admitted frames. Stage counts are only
// known once Finish has returned.
func (e *Encoder) Stats() pipeline.Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state >= StateFinished {
		return e.stats
	}
	return e.collect(pipeline.Stats{})
}

// State returns the lifecycle state. An encode stopped by the progress
// observer reports StateAborted before Finish is called.
func (e *Encoder) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateAccepting && e.aborted.Load() {
		return StateAborted
	}
	return e.state
}
