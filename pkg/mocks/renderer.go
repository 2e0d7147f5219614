package mocks

import (
	"image"
	"image/color"
	"sync"

	"github.com/user/gifstream/pkg/ports"
)

// Renderer is a mock implementation of ports.Renderer.
type Renderer struct {
	mu sync.Mutex

	ResizeImageFunc func(img image.Image, width, height int, fast bool) image.Image
	FlattenFunc     func(img image.Image, bg color.Color) image.Image

	ResizeCalls  []image.Point
	FlattenCalls int
}

func (m *Renderer) ResizeImage(img image.Image, width, height int, fast bool) image.Image {
	m.mu.Lock()
	m.ResizeCalls = append(m.ResizeCalls, image.Pt(width, height))
	m.mu.Unlock()

	if m.ResizeImageFunc != nil {
		return m.ResizeImageFunc(img, width, height, fast)
	}
	// Nearest neighbour keeps tests independent of filter details.
	src := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			sx := src.Min.X + x*src.Dx()/width
			sy := src.Min.Y + y*src.Dy()/height
			dst.Set(x, y, img.At(sx, sy))
		}
	}
	return dst
}

func (m *Renderer) Flatten(img image.Image, bg color.Color) image.Image {
	m.mu.Lock()
	m.FlattenCalls++
	m.mu.Unlock()

	if m.FlattenFunc != nil {
		return m.FlattenFunc(img, bg)
	}
	return img
}

var _ ports.Renderer = (*Renderer)(nil)
