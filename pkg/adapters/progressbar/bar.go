// Package progressbar draws encoding progress on a terminal line.
package progressbar

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/user/gifstream/pkg/ports"
)

const (
	defaultWidth = 80
	minBarWidth  = 10

	// Columns left for the description, counter and time estimate.
	reserved = 40
)

// Bar counts finished frames on a progressbar.ProgressBar.
type Bar struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

// NewWriter creates a Bar drawing to w, sized for a terminal of width columns.
// total <= 0 shows a spinner with a plain counter.
func NewWriter(w io.Writer, total, width int) *Bar {
	if width <= 0 {
		width = defaultWidth
	}
	barWidth := width - reserved
	if barWidth < minBarWidth {
		barWidth = minBarWidth
	}
	if total <= 0 {
		total = -1
	}

	return &Bar{
		w: w,
		bar: progressbar.NewOptions(total,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetWidth(barWidth),
			progressbar.OptionSetDescription("Frames"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(total > 0),
		),
	}
}

// Stderr returns a Bar on stderr when it is a terminal, otherwise an
// observer that only lets encoding continue.
func Stderr(total int) ports.ProgressObserver {
	fd := os.Stderr.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return ports.ProgressFunc(func() bool { return true })
	}
	width, _, err := term.GetSize(int(fd))
	if err != nil {
		width = defaultWidth
	}
	return NewWriter(os.Stderr, total, width)
}

// FrameDone implements ports.ProgressObserver.
func (b *Bar) FrameDone() bool {
	b.bar.Add(1)
	return true
}

// Done ends the status line. The bar is left where it stopped, so an
// interrupted encode does not show as complete.
func (b *Bar) Done() {
	fmt.Fprintln(b.w)
}

// Count returns the number of frames reported so far.
func (b *Bar) Count() int {
	return int(b.bar.State().CurrentNum)
}

var _ ports.ProgressObserver = (*Bar)(nil)
