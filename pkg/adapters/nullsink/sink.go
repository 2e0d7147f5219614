// Package nullsink discards the GIF stream. It backs dry runs, where only
// the encode statistics are wanted.
package nullsink

import (
	"github.com/user/gifstream/pkg/ports"
)

// Sink is a ports.ByteSink that drops everything written to it.
type Sink struct{}

// New creates a new Sink.
func New() *Sink {
	return &Sink{}
}

// Write does nothing.
func (s *Sink) Write(p []byte) error {
	return nil
}

// Flush does nothing.
func (s *Sink) Flush() error {
	return nil
}

// Ensure Sink implements ports.ByteSink
var _ ports.ByteSink = (*Sink)(nil)
