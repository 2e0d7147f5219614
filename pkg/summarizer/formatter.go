package summarizer

import "fmt"

// Formatter defines the interface for formatting a Summary.
type Formatter interface {
	// Format converts a Summary to a formatted string.
	Format(summary *Summary) string
}

// FormatFunc is a function adapter for the Formatter interface.
type FormatFunc func(summary *Summary) string

// Format implements the Formatter interface.
func (f FormatFunc) Format(summary *Summary) string {
	return f(summary)
}

// OneLine renders the output size, frame count and duration on one line.
var OneLine = FormatFunc(func(s *Summary) string {
	return fmt.Sprintf("%dx%d, %d frames, %.2f s, %s",
		s.Output.Width, s.Output.Height, s.Frames.Written,
		float64(s.Output.DurationMs)/1000, formatBytes(s.Output.FileSize))
})
