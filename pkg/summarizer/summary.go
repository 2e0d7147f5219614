// Package summarizer provides summary generation for encoding results.
package summarizer

import (
	"time"

	"github.com/user/gifstream/pkg/pipeline"
)

// Summary contains all data collected during an encoding session.
type Summary struct {
	// Metadata
	GeneratedAt time.Time
	Elapsed     time.Duration

	// Input information
	Input InputInfo

	// Encoding settings
	Settings Settings

	// What happened to the frames
	Frames FrameInfo

	// GIF output details
	Output OutputInfo
}

// InputInfo describes where frames came from.
type InputInfo struct {
	Files int
	FPS   float64
}

// Settings contains the encoding configuration.
type Settings struct {
	Quality       int
	MotionQuality int
	LossyQuality  int
	Fast          bool
	ExtraEffort   bool
	Repeat        string
	MaxWidth      uint32
	MaxHeight     uint32
}

// FrameInfo counts frames at each stage.
type FrameInfo struct {
	Admitted         int
	Rejected         int
	SkippedLate      int
	SkippedTimestamp int
	Merged           int
	Unchanged        int
	Written          int
}

// OutputInfo contains information about the output GIF.
type OutputInfo struct {
	Destination string
	Width       int
	Height      int
	DurationMs  int
	FileSize    int64
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// SettingsFrom extracts the reported settings.
func SettingsFrom(s pipeline.Settings) Settings {
	return Settings{
		Quality:       s.Quality,
		MotionQuality: s.EffectiveMotionQuality(),
		LossyQuality:  s.EffectiveLossyQuality(),
		Fast:          s.Fast,
		ExtraEffort:   s.ExtraEffort,
		Repeat:        s.Repeat.String(),
		MaxWidth:      s.MaxWidth,
		MaxHeight:     s.MaxHeight,
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithInput sets input information.
func (b *Builder) WithInput(files int, fps float64) *Builder {
	b.summary.Input = InputInfo{
		Files: files,
		FPS:   fps,
	}
	return b
}

// WithSettings sets encoding settings.
func (b *Builder) WithSettings(settings pipeline.Settings) *Builder {
	b.summary.Settings = SettingsFrom(settings)
	return b
}

// WithStats fills frame counts and output details from encoder stats.
func (b *Builder) WithStats(stats pipeline.Stats) *Builder {
	b.summary.Frames = FrameInfo{
		Admitted:         stats.Admitted,
		Rejected:         stats.Rejected,
		SkippedLate:      stats.SkippedLate,
		SkippedTimestamp: stats.SkippedTimestamp,
		Merged:           stats.Merged,
		Unchanged:        stats.Unchanged,
		Written:          stats.Written,
	}
	b.summary.Output.Width = stats.Width
	b.summary.Output.Height = stats.Height
	b.summary.Output.DurationMs = stats.DurationCentis * 10
	b.summary.Output.FileSize = stats.BytesWritten
	return b
}

// WithDestination sets where the GIF was written.
func (b *Builder) WithDestination(dest string) *Builder {
	b.summary.Output.Destination = dest
	return b
}

// WithElapsed sets the wall time the session took.
func (b *Builder) WithElapsed(d time.Duration) *Builder {
	b.summary.Elapsed = d
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
