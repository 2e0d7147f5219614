package orchestrator

import (
	"sync/atomic"

	"github.com/user/gifstream/pkg/ports"
)

// CountingSink counts the bytes that reach the wrapped sink.
type CountingSink struct {
	sink ports.ByteSink
	n    atomic.Int64
}

// NewCountingSink wraps sink.
func NewCountingSink(sink ports.ByteSink) *CountingSink {
	return &CountingSink{sink: sink}
}

// Write implements ports.ByteSink.
func (s *CountingSink) Write(p []byte) error {
	if err := s.sink.Write(p); err != nil {
		return err
	}
	s.n.Add(int64(len(p)))
	return nil
}

// Flush implements ports.ByteSink.
func (s *CountingSink) Flush() error {
	return s.sink.Flush()
}

// Count returns the number of bytes written so far.
func (s *CountingSink) Count() int64 {
	return s.n.Load()
}

var _ ports.ByteSink = (*CountingSink)(nil)
