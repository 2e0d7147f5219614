// Package ordering restores frame-number order on admission and resolves
// each frame's display interval from presentation timestamps.
package ordering

import (
	"container/heap"

	"github.com/user/gifstream/pkg/pipeline"
)

// DefaultWindow is how far ahead of the next expected frame number a frame
// may arrive before it is rejected.
const DefaultWindow = 16

// Buffer releases frames strictly in ascending frame-number order.
// It is not safe for concurrent use; the encoder serializes admission.
type Buffer struct {
	window  int
	next    uint32
	pending frameHeap
	queued  map[uint32]struct{}

	admitted int
	skipped  int
	rejected int
}

// NewBuffer creates a Buffer. window <= 0 selects DefaultWindow.
func NewBuffer(window int) *Buffer {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Buffer{
		window: window,
		queued: make(map[uint32]struct{}),
	}
}

// Admit offers a frame. On acceptance it returns the frames that became
// releasable, which may be none when an earlier frame is still missing.
func (b *Buffer) Admit(f pipeline.CanonicalFrame) (pipeline.AdmissionOutcome, []pipeline.CanonicalFrame, error) {
	if f.FrameNumber < b.next {
		b.skipped++
		return pipeline.SkippedDuplicateOrOutOfOrder, nil, nil
	}
	if _, dup := b.queued[f.FrameNumber]; dup {
		b.rejected++
		return pipeline.Rejected, nil, pipeline.Errorf(pipeline.KindInvalidInput, "add frame",
			"frame %d was already added", f.FrameNumber)
	}
	if uint64(f.FrameNumber) >= uint64(b.next)+uint64(b.window) {
		b.rejected++
		return pipeline.Rejected, nil, pipeline.Errorf(pipeline.KindInvalidInput, "add frame",
			"frame %d is too far ahead, still waiting for frame %d", f.FrameNumber, b.next)
	}

	b.admitted++
	b.queued[f.FrameNumber] = struct{}{}
	heap.Push(&b.pending, f)

	var released []pipeline.CanonicalFrame
	for b.pending.Len() > 0 && b.pending[0].FrameNumber == b.next {
		released = append(released, b.pop())
		b.next++
	}
	return pipeline.Accepted, released, nil
}

// Drain releases every pending frame in number order, closing any gaps.
func (b *Buffer) Drain() []pipeline.CanonicalFrame {
	var released []pipeline.CanonicalFrame
	for b.pending.Len() > 0 {
		f := b.pop()
		b.next = f.FrameNumber + 1
		released = append(released, f)
	}
	return released
}

// Pending returns the number of frames waiting for a predecessor.
func (b *Buffer) Pending() int {
	return b.pending.Len()
}

// Next returns the frame number that will be released next.
func (b *Buffer) Next() uint32 {
	return b.next
}

// Counts returns how many frames were admitted, skipped and rejected.
func (b *Buffer) Counts() (admitted, skipped, rejected int) {
	return b.admitted, b.skipped, b.rejected
}

func (b *Buffer) pop() pipeline.CanonicalFrame {
	f := heap.Pop(&b.pending).(pipeline.CanonicalFrame)
	delete(b.queued, f.FrameNumber)
	return f
}

// frameHeap is a min-heap keyed by frame number.
type frameHeap []pipeline.CanonicalFrame

func (h frameHeap) Len() int           { return len(h) }
func (h frameHeap) Less(i, j int) bool { return h[i].FrameNumber < h[j].FrameNumber }
func (h frameHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *frameHeap) Push(x interface{}) {
	*h = append(*h, x.(pipeline.CanonicalFrame))
}

func (h *frameHeap) Pop() interface{} {
	old := *h
	n := len(old)
	f := old[n-1]
	old[n-1] = pipeline.CanonicalFrame{}
	*h = old[:n-1]
	return f
}
