// Package callbacksink delivers the GIF stream to a caller supplied function.
package callbacksink

import (
	"fmt"

	"github.com/user/gifstream/pkg/pipeline"
	"github.com/user/gifstream/pkg/ports"
)

// Func receives the next chunk of the stream. A zero-length call asks the
// receiver to flush. A non-zero return value reports a failure; values that
// name an I/O error kind are reported with that kind.
type Func func(p []byte) int

// Sink implements ports.ByteSink over a Func.
type Sink struct {
	fn Func
}

// New creates a new Sink.
func New(fn Func) *Sink {
	return &Sink{fn: fn}
}

// Write implements ports.ByteSink.
func (s *Sink) Write(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	return codeError("write", s.fn(p))
}

// Flush implements ports.ByteSink.
func (s *Sink) Flush() error {
	return codeError("flush", s.fn(nil))
}

func codeError(op string, code int) error {
	if code == 0 {
		return nil
	}
	kind := pipeline.ErrorKind(code)
	if !kind.IsIO() {
		kind = pipeline.KindOther
	}
	return pipeline.Wrap(kind, op, fmt.Errorf("write callback returned %d", code))
}

var _ ports.ByteSink = (*Sink)(nil)
