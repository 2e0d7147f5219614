// Package gcssink streams the GIF to a Google Cloud Storage object.
package gcssink

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/user/gifstream/pkg/pipeline"
	"github.com/user/gifstream/pkg/ports"
)

// ErrNoBucket is returned when the destination has no bucket.
var ErrNoBucket = errors.New("gcssink: bucket is required")

// Config identifies the destination object.
type Config struct {
	Bucket string `yaml:"bucket"`
	Object string `yaml:"object"`
	// CredentialsFile is a service account key file. Application default
	// credentials are used when empty.
	CredentialsFile string `yaml:"credentials_file"`
}

// Sink writes into a storage object writer. The object only becomes
// visible once Close completes the upload.
type Sink struct {
	name   string
	w      io.WriteCloser
	cancel context.CancelFunc
	client io.Closer
	logger ports.Logger
	closed bool
}

// Open creates a client and starts writing gs://bucket/object.
func Open(ctx context.Context, cfg Config, logger ports.Logger) (*Sink, error) {
	if cfg.Bucket == "" {
		return nil, pipeline.Wrap(pipeline.KindInvalidArgument, "open gcs", ErrNoBucket)
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, pipeline.Classify("open gcs", fmt.Errorf("storage.NewClient: %w", err))
	}

	ctx, cancel := context.WithCancel(ctx)
	w := client.Bucket(cfg.Bucket).Object(cfg.Object).NewWriter(ctx)
	w.ContentType = "image/gif"

	return newSink(fmt.Sprintf("gs://%s/%s", cfg.Bucket, cfg.Object), w, cancel, client, logger), nil
}

func newSink(name string, w io.WriteCloser, cancel context.CancelFunc, client io.Closer, logger ports.Logger) *Sink {
	return &Sink{
		name:   name,
		w:      w,
		cancel: cancel,
		client: client,
		logger: logger.WithComponent("gcssink"),
	}
}

// Write implements ports.ByteSink.
func (s *Sink) Write(p []byte) error {
	if _, err := s.w.Write(p); err != nil {
		return pipeline.Classify("upload "+s.name, err)
	}
	return nil
}

// Flush implements ports.ByteSink. The writer uploads in chunks on its own.
func (s *Sink) Flush() error {
	return nil
}

// Close implements ports.SinkCloser. A non-nil cause cancels the upload
// so no partial object is created.
func (s *Sink) Close(cause error) error {
	if s.closed {
		return nil
	}
	s.closed = true
	defer s.client.Close()

	if cause != nil {
		s.cancel()
		s.w.Close()
		s.logger.Warn("Upload to %s aborted", s.name)
		return nil
	}

	err := s.w.Close()
	s.cancel()
	if err != nil {
		return pipeline.Classify("upload "+s.name, fmt.Errorf("Writer.Close: %w", err))
	}
	s.logger.Info("Uploaded %s", s.name)
	return nil
}

// Name returns the gs:// URL of the destination.
func (s *Sink) Name() string {
	return s.name
}

var (
	_ ports.ByteSink   = (*Sink)(nil)
	_ ports.SinkCloser = (*Sink)(nil)
)
