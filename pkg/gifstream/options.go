package gifstream

import (
	"github.com/user/gifstream/pkg/adapters/ggrenderer"
	"github.com/user/gifstream/pkg/adapters/gifxencoder"
	"github.com/user/gifstream/pkg/adapters/imagedecoder"
	"github.com/user/gifstream/pkg/adapters/logger"
	"github.com/user/gifstream/pkg/adapters/osfilesystem"
	"github.com/user/gifstream/pkg/ports"
	"github.com/user/gifstream/pkg/stages/ordering"
)

// DefaultQueueDepth is how many admissions may wait for the consumer
// before Add* calls block.
const DefaultQueueDepth = 4

type options struct {
	logger      ports.Logger
	renderer    ports.Renderer
	decoder     ports.ImageDecoder
	fs          ports.FileSystem
	encoder     ports.GIFEncoder
	compression ports.CompressionPass
	window      int
	queueDepth  int
}

func defaultOptions() options {
	return options{
		logger:     logger.NewNoop(),
		renderer:   ggrenderer.New(),
		decoder:    imagedecoder.New(),
		fs:         osfilesystem.New(),
		encoder:    gifxencoder.New(),
		window:     ordering.DefaultWindow,
		queueDepth: DefaultQueueDepth,
	}
}

// Option configures an Encoder.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(l ports.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRenderer replaces the resampler used to resize frames.
func WithRenderer(r ports.Renderer) Option {
	return func(o *options) { o.renderer = r }
}

// WithDecoder replaces the decoder used by AddFrameFile.
func WithDecoder(d ports.ImageDecoder) Option {
	return func(o *options) { o.decoder = d }
}

// WithFileSystem replaces the file system used by AddFrameFile and SetFileOutput.
func WithFileSystem(fs ports.FileSystem) Option {
	return func(o *options) { o.fs = fs }
}

// WithGIFEncoder replaces the GIF block writer.
func WithGIFEncoder(e ports.GIFEncoder) Option {
	return func(o *options) { o.encoder = e }
}

// WithCompressionPass replaces the lossy pass chosen from the lossy quality.
func WithCompressionPass(p ports.CompressionPass) Option {
	return func(o *options) { o.compression = p }
}

// WithReorderWindow sets how far ahead of the next expected frame number
// a frame may be added.
func WithReorderWindow(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.window = n
		}
	}
}

// WithQueueDepth sets how many admissions may be queued for the consumer.
func WithQueueDepth(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.queueDepth = n
		}
	}
}
