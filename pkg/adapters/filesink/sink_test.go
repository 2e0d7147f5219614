package filesink

import (
	"errors"
	"io"
	"io/fs"
	"testing"

	"github.com/user/gifstream/pkg/mocks"
	"github.com/user/gifstream/pkg/pipeline"
)

func TestSink_WritesFile(t *testing.T) {
	mfs := mocks.NewFileSystem()
	s, err := New(mfs, "out.gif")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s.Write([]byte("GIF89a"))
	s.Write([]byte{0x3b})
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if err := s.Close(nil); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, ok := mfs.GetFile("out.gif")
	if !ok {
		t.Fatal("expected file to exist")
	}
	if string(data) != "GIF89a;" {
		t.Errorf("expected %q, got %q", "GIF89a;", data)
	}
}

func TestSink_CreateErrorsAreClassified(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want pipeline.ErrorKind
	}{
		{"not found", fs.ErrNotExist, pipeline.KindNotFound},
		{"permission", fs.ErrPermission, pipeline.KindPermissionDenied},
		{"exists", fs.ErrExist, pipeline.KindAlreadyExists},
		{"other", errors.New("disk on fire"), pipeline.KindOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mfs := mocks.NewFileSystem()
			mfs.CreateFunc = func(path string) (io.WriteCloser, error) {
				return nil, &fs.PathError{Op: "open", Path: path, Err: tt.err}
			}
			_, err := New(mfs, "out.gif")
			if pipeline.KindOf(err) != tt.want {
				t.Errorf("expected %s, got %v", tt.want, err)
			}
		})
	}
}

func TestSink_CloseWithCauseRemovesFile(t *testing.T) {
	mfs := mocks.NewFileSystem()
	s, _ := New(mfs, "out.gif")
	s.Write([]byte("GIF89a"))

	if err := s.Close(errors.New("encoding failed")); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, ok := mfs.GetFile("out.gif"); ok {
		t.Error("unfinished file should be removed")
	}
	if err := s.Close(nil); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
}
