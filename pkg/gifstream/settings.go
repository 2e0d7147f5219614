package gifstream

import (
	"image/color"

	"github.com/user/gifstream/pkg/pipeline"
)

// QualityPreset names a set of quality knobs.
type QualityPreset string

const (
	QualityLow    QualityPreset = "low"
	QualityMedium QualityPreset = "medium"
	QualityHigh   QualityPreset = "high"
)

// QualitySettings contains the quality knobs a preset sets.
type QualitySettings struct {
	Quality       int // palette and dithering quality (1-100)
	MotionQuality int // temporal denoiser quality (1-100)
	LossyQuality  int // lossy compression quality (1-100, 100 = off)
}

// GetQualitySettings returns quality settings for the given preset.
func GetQualitySettings(preset QualityPreset) QualitySettings {
	switch preset {
	case QualityLow:
		return QualitySettings{
			Quality:       60,
			MotionQuality: 50,
			LossyQuality:  40,
		}
	case QualityHigh:
		return QualitySettings{
			Quality:       100,
			MotionQuality: 100,
			LossyQuality:  100,
		}
	default: // medium
		return QualitySettings{
			Quality:       pipeline.DefaultQuality,
			MotionQuality: pipeline.DefaultQuality,
			LossyQuality:  pipeline.DefaultQuality,
		}
	}
}

// SettingsBuilder provides a fluent interface for building pipeline.Settings.
type SettingsBuilder struct {
	settings pipeline.Settings
}

// NewSettingsBuilder creates a SettingsBuilder with default settings.
func NewSettingsBuilder() *SettingsBuilder {
	return &SettingsBuilder{
		settings: pipeline.DefaultSettings(),
	}
}

// Build returns the settings with quality values clamped to 1-100.
// Optional qualities left at zero stay zero.
func (b *SettingsBuilder) Build() pipeline.Settings {
	s := b.settings
	s.Quality = clampQuality(s.Quality)
	if s.MotionQuality != 0 {
		s.MotionQuality = clampQuality(s.MotionQuality)
	}
	if s.LossyQuality != 0 {
		s.LossyQuality = clampQuality(s.LossyQuality)
	}
	s.FixedColors = append([]color.NRGBA(nil), s.FixedColors...)
	return s
}

func clampQuality(q int) int {
	if q < 1 {
		return 1
	}
	if q > 100 {
		return 100
	}
	return q
}

// WithMaxWidth sets the maximum output width. 0 keeps the source width.
func (b *SettingsBuilder) WithMaxWidth(width uint32) *SettingsBuilder {
	b.settings.MaxWidth = width
	return b
}

// WithMaxHeight sets the maximum output height. 0 keeps the source height.
func (b *SettingsBuilder) WithMaxHeight(height uint32) *SettingsBuilder {
	b.settings.MaxHeight = height
	return b
}

// WithQuality sets the overall quality.
func (b *SettingsBuilder) WithQuality(quality int) *SettingsBuilder {
	b.settings.Quality = quality
	return b
}

// WithMotionQuality sets the temporal denoiser quality.
func (b *SettingsBuilder) WithMotionQuality(quality int) *SettingsBuilder {
	b.settings.MotionQuality = quality
	return b
}

// WithLossyQuality sets the lossy compression quality.
func (b *SettingsBuilder) WithLossyQuality(quality int) *SettingsBuilder {
	b.settings.LossyQuality = quality
	return b
}

// WithQualityPreset applies a quality preset.
func (b *SettingsBuilder) WithQualityPreset(preset QualityPreset) *SettingsBuilder {
	q := GetQualitySettings(preset)
	b.settings.Quality = q.Quality
	b.settings.MotionQuality = q.MotionQuality
	b.settings.LossyQuality = q.LossyQuality
	return b
}

// WithFast trades quality for encoding speed.
func (b *SettingsBuilder) WithFast(fast bool) *SettingsBuilder {
	b.settings.Fast = fast
	return b
}

// WithExtraEffort spends more time on palettes.
func (b *SettingsBuilder) WithExtraEffort(extra bool) *SettingsBuilder {
	b.settings.ExtraEffort = extra
	return b
}

// WithRepeat sets looping from its integer form: negative plays once,
// zero loops forever, n > 0 repeats n times.
func (b *SettingsBuilder) WithRepeat(n int) *SettingsBuilder {
	b.settings.Repeat = pipeline.RepeatFromInt(n)
	return b
}

// WithFixedColor adds a color kept in every palette.
func (b *SettingsBuilder) WithFixedColor(c color.Color) *SettingsBuilder {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	n.A = 255
	b.settings.FixedColors = append(b.settings.FixedColors, n)
	return b
}

// WithMatte sets the color composited under semi-transparent pixels.
func (b *SettingsBuilder) WithMatte(c color.Color) *SettingsBuilder {
	b.settings.Matte = c
	return b
}
