package ggrenderer

import (
	"image"
	"image/color"
	"testing"
)

func TestRenderer_ResizeImage(t *testing.T) {
	r := New()

	img := image.NewNRGBA(image.Rect(0, 0, 200, 50))
	for i := range img.Pix {
		img.Pix[i] = 255
	}

	for _, fast := range []bool{false, true} {
		resized := r.ResizeImage(img, 100, 50, fast)
		bounds := resized.Bounds()
		if bounds.Dx() != 100 || bounds.Dy() != 50 {
			t.Errorf("fast=%v: expected 100x50, got %dx%d", fast, bounds.Dx(), bounds.Dy())
		}

		_, _, _, a := resized.At(50, 25).RGBA()
		if a != 0xffff {
			t.Errorf("fast=%v: expected opaque pixel, got alpha %d", fast, a)
		}
	}
}

func TestRenderer_Flatten(t *testing.T) {
	r := New()

	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	img.SetNRGBA(1, 1, color.NRGBA{R: 255, A: 255})

	flat := r.Flatten(img, color.White)
	if flat.Bounds().Dx() != 4 || flat.Bounds().Dy() != 4 {
		t.Fatalf("expected 4x4, got %v", flat.Bounds())
	}

	got := color.NRGBAModel.Convert(flat.At(0, 0)).(color.NRGBA)
	if got != (color.NRGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Errorf("expected transparent pixel to become white, got %v", got)
	}

	got = color.NRGBAModel.Convert(flat.At(1, 1)).(color.NRGBA)
	if got != (color.NRGBA{R: 255, A: 255}) {
		t.Errorf("expected opaque pixel to stay red, got %v", got)
	}
}
