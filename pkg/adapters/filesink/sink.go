// Package filesink writes the GIF stream to a file.
package filesink

import (
	"io"

	"github.com/user/gifstream/pkg/pipeline"
	"github.com/user/gifstream/pkg/ports"
)

// Sink streams bytes into a file created through a ports.FileSystem.
type Sink struct {
	fs     ports.FileSystem
	path   string
	w      io.WriteCloser
	closed bool
}

// New creates or truncates the file at path. Errors are classified, so
// a missing directory is KindNotFound and a read-only one is
// KindPermissionDenied.
func New(fs ports.FileSystem, path string) (*Sink, error) {
	w, err := fs.Create(path)
	if err != nil {
		return nil, pipeline.Classify("create "+path, err)
	}
	return &Sink{fs: fs, path: path, w: w}, nil
}

// Path returns the output path.
func (s *Sink) Path() string {
	return s.path
}

// Write implements ports.ByteSink.
func (s *Sink) Write(p []byte) error {
	n, err := s.w.Write(p)
	if err != nil {
		return pipeline.Classify("write "+s.path, err)
	}
	if n < len(p) {
		return pipeline.Wrap(pipeline.KindShortWrite, "write "+s.path, io.ErrShortWrite)
	}
	return nil
}

// Flush implements ports.ByteSink. Files that support it are synced to disk.
func (s *Sink) Flush() error {
	if f, ok := s.w.(interface{ Sync() error }); ok {
		return pipeline.Classify("sync "+s.path, f.Sync())
	}
	return nil
}

// Close implements ports.SinkCloser. When cause is not nil the
// unfinished file is removed.
func (s *Sink) Close(cause error) error {
	if s.closed {
		return nil
	}
	s.closed = true

	err := s.w.Close()
	if cause != nil {
		if rmErr := s.fs.Remove(s.path); rmErr != nil && err == nil {
			err = rmErr
		}
	}
	return pipeline.Classify("close "+s.path, err)
}

var (
	_ ports.ByteSink   = (*Sink)(nil)
	_ ports.SinkCloser = (*Sink)(nil)
)
