package ordering

import (
	"math/rand"
	"testing"

	"github.com/user/gifstream/pkg/pipeline"
)

func frame(n uint32) pipeline.CanonicalFrame {
	return pipeline.CanonicalFrame{FrameNumber: n, PTS: float64(n) / 10}
}

func TestBuffer_InOrder(t *testing.T) {
	b := NewBuffer(0)

	for i := uint32(0); i < 5; i++ {
		outcome, released, err := b.Admit(frame(i))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if outcome != pipeline.Accepted {
			t.Errorf("expected accepted, got %s", outcome)
		}
		if len(released) != 1 || released[0].FrameNumber != i {
			t.Errorf("expected frame %d to be released immediately, got %v", i, released)
		}
	}
}

func TestBuffer_AnyPermutationReleasesAscending(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for round := 0; round < 20; round++ {
		b := NewBuffer(32)
		order := rng.Perm(24)

		var got []uint32
		for _, n := range order {
			_, released, err := b.Admit(frame(uint32(n)))
			if err != nil {
				t.Fatalf("round %d: unexpected error: %v", round, err)
			}
			for _, f := range released {
				got = append(got, f.FrameNumber)
			}
		}
		for _, f := range b.Drain() {
			got = append(got, f.FrameNumber)
		}

		if len(got) != 24 {
			t.Fatalf("round %d: expected 24 frames, got %d", round, len(got))
		}
		for i, n := range got {
			if n != uint32(i) {
				t.Fatalf("round %d: expected frame %d at position %d, got %d", round, i, i, n)
			}
		}
	}
}

func TestBuffer_HoldsUntilGapFilled(t *testing.T) {
	b := NewBuffer(0)

	_, released, _ := b.Admit(frame(2))
	if len(released) != 0 {
		t.Fatalf("expected nothing released, got %d frames", len(released))
	}
	_, released, _ = b.Admit(frame(1))
	if len(released) != 0 {
		t.Fatalf("expected nothing released, got %d frames", len(released))
	}
	if b.Pending() != 2 {
		t.Errorf("expected 2 pending frames, got %d", b.Pending())
	}

	_, released, _ = b.Admit(frame(0))
	if len(released) != 3 {
		t.Fatalf("expected 3 frames released, got %d", len(released))
	}
	if b.Next() != 3 {
		t.Errorf("expected next frame 3, got %d", b.Next())
	}
}

func TestBuffer_SkipsAlreadyReleased(t *testing.T) {
	b := NewBuffer(0)
	b.Admit(frame(0))
	b.Admit(frame(1))

	outcome, released, err := b.Admit(frame(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != pipeline.SkippedDuplicateOrOutOfOrder {
		t.Errorf("expected skipped, got %s", outcome)
	}
	if len(released) != 0 {
		t.Errorf("expected no frames, got %d", len(released))
	}

	admitted, skipped, rejected := b.Counts()
	if admitted != 2 || skipped != 1 || rejected != 0 {
		t.Errorf("expected counts 2/1/0, got %d/%d/%d", admitted, skipped, rejected)
	}
}

func TestBuffer_RejectsDuplicatePending(t *testing.T) {
	b := NewBuffer(0)
	b.Admit(frame(3))

	outcome, _, err := b.Admit(frame(3))
	if outcome != pipeline.Rejected {
		t.Errorf("expected rejected, got %s", outcome)
	}
	if pipeline.KindOf(err) != pipeline.KindInvalidInput {
		t.Errorf("expected invalid input, got %v", err)
	}
}

func TestBuffer_RejectsBeyondWindow(t *testing.T) {
	b := NewBuffer(4)

	if outcome, _, _ := b.Admit(frame(3)); outcome != pipeline.Accepted {
		t.Fatalf("frame inside the window should be accepted, got %s", outcome)
	}
	outcome, _, err := b.Admit(frame(4))
	if outcome != pipeline.Rejected {
		t.Errorf("expected rejected, got %s", outcome)
	}
	if pipeline.KindOf(err) != pipeline.KindInvalidInput {
		t.Errorf("expected invalid input, got %v", err)
	}
}

func TestBuffer_DrainClosesGaps(t *testing.T) {
	b := NewBuffer(0)
	b.Admit(frame(5))
	b.Admit(frame(2))

	drained := b.Drain()
	if len(drained) != 2 || drained[0].FrameNumber != 2 || drained[1].FrameNumber != 5 {
		t.Fatalf("expected frames 2 and 5, got %v", drained)
	}
	if b.Next() != 6 {
		t.Errorf("expected next frame 6, got %d", b.Next())
	}
}
