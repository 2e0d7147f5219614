package lossypass

import (
	"image"
	"image/color"
	"testing"
)

var pal = color.Palette{
	color.NRGBA{R: 100, G: 100, B: 100, A: 255},
	color.NRGBA{R: 102, G: 101, B: 100, A: 255},
	color.NRGBA{R: 250, G: 10, B: 10, A: 255},
	color.NRGBA{},
}

func TestNew_ZeroLossDisables(t *testing.T) {
	if New(0) != nil {
		t.Error("expected nil pass for zero loss")
	}
}

func TestPass_ExtendsRuns(t *testing.T) {
	img := image.NewPaletted(image.Rect(0, 0, 6, 1), pal)
	copy(img.Pix, []uint8{0, 1, 1, 2, 1, 0})

	if err := New(10).Apply(img, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []uint8{0, 0, 0, 2, 1, 1}
	for i := range want {
		if img.Pix[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, img.Pix)
		}
	}
}

func TestPass_LeavesTransparentPixels(t *testing.T) {
	img := image.NewPaletted(image.Rect(0, 0, 4, 1), pal)
	copy(img.Pix, []uint8{0, 3, 1, 3})

	New(10).Apply(img, 3)

	want := []uint8{0, 3, 1, 3}
	for i := range want {
		if img.Pix[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, img.Pix)
		}
	}
}

func TestPass_RowsAreIndependent(t *testing.T) {
	img := image.NewPaletted(image.Rect(0, 0, 1, 2), pal)
	copy(img.Pix, []uint8{0, 1})

	New(10).Apply(img, 3)

	if img.Pix[1] != 1 {
		t.Errorf("a run must not continue onto the next row, got %v", img.Pix)
	}
}
