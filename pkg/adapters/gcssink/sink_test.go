package gcssink

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/user/gifstream/pkg/adapters/logger"
	"github.com/user/gifstream/pkg/pipeline"
)

type fakeWriter struct {
	buf      bytes.Buffer
	writeErr error
	closeErr error
	closed   bool
}

func (f *fakeWriter) Write(p []byte) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	return f.buf.Write(p)
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return f.closeErr
}

type fakeClient struct{ closed bool }

func (c *fakeClient) Close() error {
	c.closed = true
	return nil
}

func newTestSink(w *fakeWriter) (*Sink, *fakeClient, *bool) {
	cancelled := false
	client := &fakeClient{}
	s := newSink("gs://b/o.gif", w, func() { cancelled = true }, client, logger.NewNoop())
	return s, client, &cancelled
}

func TestSink_WritesAndCompletes(t *testing.T) {
	w := &fakeWriter{}
	s, client, _ := newTestSink(w)

	s.Write([]byte("GIF89a"))
	s.Write([]byte{0x3b})
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if err := s.Close(nil); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if w.buf.String() != "GIF89a;" {
		t.Errorf("expected GIF89a;, got %q", w.buf.String())
	}
	if !w.closed || !client.closed {
		t.Error("expected writer and client to be closed")
	}
}

func TestSink_CloseWithCauseCancels(t *testing.T) {
	w := &fakeWriter{}
	s, _, cancelled := newTestSink(w)

	if err := s.Close(errors.New("encoding failed")); err != nil {
		t.Errorf("aborting should not fail, got %v", err)
	}
	if !*cancelled {
		t.Error("expected the upload context to be cancelled")
	}
}

func TestSink_CloseIsIdempotent(t *testing.T) {
	w := &fakeWriter{closeErr: errors.New("boom")}
	s, _, _ := newTestSink(w)

	if err := s.Close(nil); err == nil {
		t.Error("expected first Close to report the failure")
	}
	if err := s.Close(nil); err != nil {
		t.Errorf("expected second Close to be a no-op, got %v", err)
	}
}

func TestSink_WriteErrorIsClassified(t *testing.T) {
	w := &fakeWriter{writeErr: context.DeadlineExceeded}
	s, _, _ := newTestSink(w)

	err := s.Write([]byte("x"))
	if pipeline.KindOf(err) != pipeline.KindTimedOut {
		t.Errorf("expected timed out, got %v", err)
	}
}

func TestOpen_RequiresBucket(t *testing.T) {
	_, err := Open(context.Background(), Config{Object: "o"}, logger.NewNoop())
	if !errors.Is(err, ErrNoBucket) {
		t.Errorf("expected ErrNoBucket, got %v", err)
	}
}
