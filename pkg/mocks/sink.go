package mocks

import (
	"bytes"
	"sync"
	"time"

	"github.com/user/gifstream/pkg/ports"
)

// ByteSink is a mock implementation of ports.ByteSink and ports.SinkCloser.
type ByteSink struct {
	mu   sync.Mutex
	data bytes.Buffer

	// Delay makes every Write block for the given duration.
	Delay time.Duration

	WriteFunc func(p []byte) error
	FlushFunc func() error
	CloseFunc func(cause error) error

	// Recorded calls for verification
	Writes     int
	Flushes    int
	Closed     bool
	CloseCause error
}

func (m *ByteSink) Write(p []byte) error {
	if m.Delay > 0 {
		time.Sleep(m.Delay)
	}
	if m.WriteFunc != nil {
		if err := m.WriteFunc(p); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Writes++
	m.data.Write(p)
	return nil
}

func (m *ByteSink) Flush() error {
	m.mu.Lock()
	m.Flushes++
	m.mu.Unlock()
	if m.FlushFunc != nil {
		return m.FlushFunc()
	}
	return nil
}

func (m *ByteSink) Close(cause error) error {
	m.mu.Lock()
	m.Closed = true
	m.CloseCause = cause
	m.mu.Unlock()
	if m.CloseFunc != nil {
		return m.CloseFunc(cause)
	}
	return nil
}

// Bytes returns a copy of everything written so far.
func (m *ByteSink) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.data.Bytes()...)
}

// IsClosed reports whether Close was called.
func (m *ByteSink) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Closed
}

var (
	_ ports.ByteSink   = (*ByteSink)(nil)
	_ ports.SinkCloser = (*ByteSink)(nil)
)
