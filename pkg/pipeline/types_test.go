package pipeline

import (
	"errors"
	"testing"
)

func TestRepeatFromInt(t *testing.T) {
	tests := []struct {
		in        int
		mode      RepeatMode
		loopCount int
	}{
		{-1, RepeatOnce, -1},
		{-42, RepeatOnce, -1},
		{0, RepeatForever, 0},
		{3, RepeatCount, 3},
		{100000, RepeatCount, 65535},
	}

	for _, tt := range tests {
		r := RepeatFromInt(tt.in)
		if r.Mode != tt.mode {
			t.Errorf("RepeatFromInt(%d): expected mode %d, got %d", tt.in, tt.mode, r.Mode)
		}
		if r.LoopCount() != tt.loopCount {
			t.Errorf("RepeatFromInt(%d): expected loop count %d, got %d", tt.in, tt.loopCount, r.LoopCount())
		}
	}
}

func TestSettings_Validate(t *testing.T) {
	s := DefaultSettings()
	if err := s.Validate(); err != nil {
		t.Fatalf("default settings should be valid: %v", err)
	}

	for _, q := range []int{0, 101, -5} {
		s := DefaultSettings()
		s.Quality = q
		err := s.Validate()
		if KindOf(err) != KindInvalidArgument {
			t.Errorf("quality %d: expected invalid argument, got %v", q, err)
		}
	}

	s = DefaultSettings()
	s.MotionQuality = 150
	if !errors.Is(s.Validate(), &Error{Kind: KindInvalidArgument}) {
		t.Error("expected motion quality 150 to be rejected")
	}
}

func TestSettings_Dimensions(t *testing.T) {
	tests := []struct {
		name       string
		maxW, maxH uint32
		w, h       int
		wantW      int
		wantH      int
	}{
		{"unset keeps size", 0, 0, 1920, 1080, 1920, 1080},
		{"width only does not keep aspect", 100, 0, 200, 50, 100, 50},
		{"height only", 0, 20, 200, 50, 200, 20},
		{"never upscales", 400, 400, 200, 50, 200, 50},
		{"both", 64, 32, 200, 50, 64, 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Settings{MaxWidth: tt.maxW, MaxHeight: tt.maxH}
			w, h := s.Dimensions(tt.w, tt.h)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("expected %dx%d, got %dx%d", tt.wantW, tt.wantH, w, h)
			}
		})
	}
}

func TestSettings_DerivedQualities(t *testing.T) {
	s := Settings{Quality: 90}
	if s.ColorQuality() != 100 {
		t.Errorf("expected color quality 100, got %d", s.ColorQuality())
	}
	if s.EffectiveMotionQuality() != 90 {
		t.Errorf("expected motion quality to follow quality, got %d", s.EffectiveMotionQuality())
	}

	s = Settings{Quality: 60}
	if s.ColorQuality() != 80 {
		t.Errorf("expected color quality 80, got %d", s.ColorQuality())
	}

	s = Settings{Quality: 100}
	if s.LossyLoss() != 0 {
		t.Errorf("expected no loss at quality 100, got %d", s.LossyLoss())
	}

	// ceil((100/6 - 70/6)^1.75) = ceil(5^1.75) = ceil(16.72)
	s = Settings{Quality: 100, LossyQuality: 70}
	if s.LossyLoss() != 17 {
		t.Errorf("expected loss 17, got %d", s.LossyLoss())
	}
}

func TestPixelFrame_Validate(t *testing.T) {
	ok := PixelFrame{Width: 2, Height: 2, Layout: LayoutRGB, Pix: make([]byte, 12)}
	if err := ok.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	padded := PixelFrame{Width: 2, Height: 2, RowStride: 8, Layout: LayoutRGB, Pix: make([]byte, 14)}
	if err := padded.Validate(); err != nil {
		t.Fatalf("last row does not need padding: %v", err)
	}

	tests := []struct {
		name  string
		frame PixelFrame
		kind  ErrorKind
	}{
		{"zero width", PixelFrame{Width: 0, Height: 1, Pix: make([]byte, 4)}, KindInvalidInput},
		{"short stride", PixelFrame{Width: 2, Height: 1, RowStride: 4, Pix: make([]byte, 8)}, KindInvalidInput},
		{"short buffer", PixelFrame{Width: 2, Height: 2, Pix: make([]byte, 15)}, KindInvalidInput},
		{"negative pts", PixelFrame{Width: 1, Height: 1, PTS: -1, Pix: make([]byte, 4)}, KindInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if kind := KindOf(tt.frame.Validate()); kind != tt.kind {
				t.Errorf("expected %s, got %s", tt.kind, kind)
			}
		})
	}
}
