// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"image/color"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/user/gifstream/pkg/adapters/gcssink"
	"github.com/user/gifstream/pkg/adapters/s3sink"
	"github.com/user/gifstream/pkg/gifstream"
	"github.com/user/gifstream/pkg/pipeline"
)

// Config represents the full configuration for the gifstream command.
type Config struct {
	// Quality
	Quality       int  `yaml:"quality"`
	MotionQuality int  `yaml:"motion_quality"`
	LossyQuality  int  `yaml:"lossy_quality"`
	Fast          bool `yaml:"fast"`
	Extra         bool `yaml:"extra"`

	// Size (0 = keep the source size)
	Width  uint32 `yaml:"width"`
	Height uint32 `yaml:"height"`

	// Timing
	FPS         float64 `yaml:"fps"`
	FastForward float64 `yaml:"fast_forward"`
	Repeat      int     `yaml:"repeat"`

	// Colors
	Matte       string   `yaml:"matte"`
	FixedColors []string `yaml:"fixed_colors"`

	// Input
	Workers int  `yaml:"workers"`
	NoSort  bool `yaml:"no_sort"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Remote outputs, used for s3:// and gs:// destinations
	S3  s3sink.Config  `yaml:"s3"`
	GCS gcssink.Config `yaml:"gcs"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		Quality:     pipeline.DefaultQuality,
		FPS:         20,
		FastForward: 1,
		Workers:     4,
		LogLevel:    "info",
		S3: s3sink.Config{
			Region: "us-east-1",
		},
	}
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return cfg, nil
}

// ToSettings converts the quality, size and color options to pipeline.Settings.
func (c Config) ToSettings() (pipeline.Settings, error) {
	b := gifstream.NewSettingsBuilder().
		WithQuality(c.Quality).
		WithMotionQuality(c.MotionQuality).
		WithLossyQuality(c.LossyQuality).
		WithFast(c.Fast).
		WithExtraEffort(c.Extra).
		WithMaxWidth(c.Width).
		WithMaxHeight(c.Height).
		WithRepeat(c.Repeat)

	if c.Matte != "" {
		m, ok := parseHex(c.Matte)
		if !ok {
			return pipeline.Settings{}, fmt.Errorf("invalid matte color %q", c.Matte)
		}
		b.WithMatte(m)
	}
	for _, s := range c.FixedColors {
		fc, ok := parseHex(s)
		if !ok {
			return pipeline.Settings{}, fmt.Errorf("invalid fixed color %q", s)
		}
		b.WithFixedColor(fc)
	}

	settings := b.Build()
	return settings, settings.Validate()
}

// FrameDuration returns the presentation time step between input files.
func (c Config) FrameDuration() float64 {
	fps := c.FPS
	if fps <= 0 {
		fps = Defaults().FPS
	}
	speed := c.FastForward
	if speed <= 0 {
		speed = 1
	}
	return 1 / (fps * speed)
}

// ParseColor parses a hex color string to color.Color.
// Invalid strings yield black.
func ParseColor(hex string) color.Color {
	c, ok := parseHex(hex)
	if !ok {
		return color.Black
	}
	return c
}

func parseHex(hex string) (color.NRGBA, bool) {
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.NRGBA{}, false
	}

	var rgb [3]uint8
	for i := range rgb {
		hi, ok1 := hexValue(hex[i*2])
		lo, ok2 := hexValue(hex[i*2+1])
		if !ok1 || !ok2 {
			return color.NRGBA{}, false
		}
		rgb[i] = hi<<4 | lo
	}
	return color.NRGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255}, true
}

func hexValue(c byte) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}
