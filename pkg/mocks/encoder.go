package mocks

import (
	"image"
	"image/color"
	"io"
	"sync"

	"github.com/user/gifstream/pkg/ports"
)

// GIFEncoder is a mock implementation of ports.GIFEncoder.
// By default every call writes a few marker bytes to the writer given to Begin.
type GIFEncoder struct {
	mu sync.Mutex
	w  io.Writer

	BeginFunc      func(w io.Writer, width, height int, global color.Palette, loopCount int) error
	WriteFrameFunc func(img *image.Paletted, delayCentis int, disposal byte) error
	EndFunc        func() error

	// Recorded calls for verification
	BeginCalls      []BeginCall
	WriteFrameCalls []WriteFrameCall
	EndCalled       bool
}

// BeginCall records a call to Begin.
type BeginCall struct {
	Width, Height int
	PaletteSize   int
	LoopCount     int
}

// WriteFrameCall records a call to WriteFrame.
type WriteFrameCall struct {
	Rect        image.Rectangle
	DelayCentis int
	Disposal    byte
	PaletteSize int
}

func (m *GIFEncoder) Begin(w io.Writer, width, height int, global color.Palette, loopCount int) error {
	m.mu.Lock()
	m.w = w
	m.BeginCalls = append(m.BeginCalls, BeginCall{Width: width, Height: height, PaletteSize: len(global), LoopCount: loopCount})
	m.mu.Unlock()
	if m.BeginFunc != nil {
		return m.BeginFunc(w, width, height, global, loopCount)
	}
	_, err := w.Write([]byte("GIF89a"))
	return err
}

func (m *GIFEncoder) WriteFrame(img *image.Paletted, delayCentis int, disposal byte) error {
	m.mu.Lock()
	m.WriteFrameCalls = append(m.WriteFrameCalls, WriteFrameCall{
		Rect:        img.Rect,
		DelayCentis: delayCentis,
		Disposal:    disposal,
		PaletteSize: len(img.Palette),
	})
	w := m.w
	m.mu.Unlock()
	if m.WriteFrameFunc != nil {
		return m.WriteFrameFunc(img, delayCentis, disposal)
	}
	_, err := w.Write([]byte{0x2c})
	return err
}

func (m *GIFEncoder) End() error {
	m.mu.Lock()
	m.EndCalled = true
	w := m.w
	m.mu.Unlock()
	if m.EndFunc != nil {
		return m.EndFunc()
	}
	_, err := w.Write([]byte{0x3b})
	return err
}

// Delays returns the delay of every written frame.
func (m *GIFEncoder) Delays() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int, len(m.WriteFrameCalls))
	for i, c := range m.WriteFrameCalls {
		out[i] = c.DelayCentis
	}
	return out
}

var _ ports.GIFEncoder = (*GIFEncoder)(nil)
