package gifxencoder

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"testing"
)

var pal = color.Palette{
	color.NRGBA{R: 255, A: 255},
	color.NRGBA{B: 255, A: 255},
	color.NRGBA{},
}

func TestEncoder_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	e := New()

	if err := e.Begin(&buf, 4, 3, pal, 0); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	first := image.NewPaletted(image.Rect(0, 0, 4, 3), pal)
	if err := e.WriteFrame(first, 10, 1); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}
	second := image.NewPaletted(image.Rect(1, 1, 3, 2), pal)
	second.Pix[0] = 1
	second.Pix[1] = 2
	if err := e.WriteFrame(second, 25, 2); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}
	if err := e.End(); err != nil {
		t.Fatalf("End failed: %v", err)
	}

	g, err := gif.DecodeAll(&buf)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(g.Image) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(g.Image))
	}
	if g.Delay[0] != 10 || g.Delay[1] != 25 {
		t.Errorf("expected delays [10 25], got %v", g.Delay)
	}
	if g.Disposal[0] != 1 || g.Disposal[1] != 2 {
		t.Errorf("expected disposals [1 2], got %v", g.Disposal)
	}
	if g.Image[1].Rect != image.Rect(1, 1, 3, 2) {
		t.Errorf("expected frame at (1,1)-(3,2), got %v", g.Image[1].Rect)
	}
	if g.Config.Width != 4 || g.Config.Height != 3 {
		t.Errorf("expected 4x3 screen, got %dx%d", g.Config.Width, g.Config.Height)
	}
	if g.LoopCount != 0 {
		t.Errorf("expected loop forever, got %d", g.LoopCount)
	}
}

func TestEncoder_PlayOnceHasNoLoopExtension(t *testing.T) {
	var buf bytes.Buffer
	e := New()

	e.Begin(&buf, 1, 1, pal, -1)
	e.WriteFrame(image.NewPaletted(image.Rect(0, 0, 1, 1), pal), 10, 1)
	if err := e.End(); err != nil {
		t.Fatalf("End failed: %v", err)
	}

	if bytes.Contains(buf.Bytes(), []byte("NETSCAPE2.0")) {
		t.Error("play-once output should not carry a loop extension")
	}
	g, err := gif.DecodeAll(&buf)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if g.LoopCount != -1 {
		t.Errorf("expected loop count -1, got %d", g.LoopCount)
	}
}

func TestEncoder_RequiresBegin(t *testing.T) {
	e := New()
	err := e.WriteFrame(image.NewPaletted(image.Rect(0, 0, 1, 1), pal), 1, 0)
	if !errors.Is(err, ErrNotStarted) {
		t.Errorf("expected ErrNotStarted, got %v", err)
	}
}
