// Package s3sink streams the GIF to an Amazon S3 (or S3 compatible) object.
package s3sink

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/user/gifstream/pkg/pipeline"
	"github.com/user/gifstream/pkg/ports"
)

// Config identifies the destination object and how to reach it.
type Config struct {
	Bucket    string `yaml:"bucket"`
	Key       string `yaml:"key"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Endpoint  string `yaml:"endpoint"` // optional, for S3 compatible services
}

// Uploader is the subset of manager.Uploader used by the sink.
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// NewUploader creates a multipart uploader for cfg. Static credentials are
// used when an access key is set.
func NewUploader(cfg Config) *manager.Uploader {
	opts := s3.Options{Region: cfg.Region}
	if cfg.AccessKey != "" {
		opts.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}
	return manager.NewUploader(s3.New(opts))
}

// Sink pipes written bytes into an upload running on its own goroutine.
// Write blocks while the uploader is busy, which pushes back on the encoder.
type Sink struct {
	cfg    Config
	logger ports.Logger

	pw     *io.PipeWriter
	done   chan error
	cancel context.CancelFunc
	closed bool
}

// New starts uploading to cfg.Bucket/cfg.Key.
func New(ctx context.Context, uploader Uploader, cfg Config, logger ports.Logger) *Sink {
	ctx, cancel := context.WithCancel(ctx)
	pr, pw := io.Pipe()

	s := &Sink{
		cfg:    cfg,
		logger: logger.WithComponent("s3sink"),
		pw:     pw,
		done:   make(chan error, 1),
		cancel: cancel,
	}

	go func() {
		_, err := uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(cfg.Bucket),
			Key:         aws.String(cfg.Key),
			Body:        pr,
			ContentType: aws.String("image/gif"),
		})
		// Unblock a writer stuck on a failed upload.
		pr.CloseWithError(err)
		s.done <- err
	}()

	return s
}

// Write implements ports.ByteSink.
func (s *Sink) Write(p []byte) error {
	if _, err := s.pw.Write(p); err != nil {
		return pipeline.Classify("upload s3://"+s.cfg.Bucket+"/"+s.cfg.Key, err)
	}
	return nil
}

// Flush implements ports.ByteSink. Data is streamed as it is written, so
// there is nothing to flush before Close.
func (s *Sink) Flush() error {
	return nil
}

// Close implements ports.SinkCloser. It completes the upload, or aborts it
// when cause is not nil.
func (s *Sink) Close(cause error) error {
	if s.closed {
		return nil
	}
	s.closed = true
	defer s.cancel()

	if cause != nil {
		s.cancel()
		s.pw.CloseWithError(cause)
		<-s.done
		s.logger.Warn("Upload to s3://%s/%s aborted", s.cfg.Bucket, s.cfg.Key)
		return nil
	}

	s.pw.Close()
	if err := <-s.done; err != nil {
		return pipeline.Classify("upload s3://"+s.cfg.Bucket+"/"+s.cfg.Key, err)
	}
	s.logger.Info("Uploaded s3://%s/%s", s.cfg.Bucket, s.cfg.Key)
	return nil
}

var (
	_ ports.ByteSink   = (*Sink)(nil)
	_ ports.SinkCloser = (*Sink)(nil)
)
