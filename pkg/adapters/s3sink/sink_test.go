package s3sink

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/user/gifstream/pkg/adapters/logger"
	"github.com/user/gifstream/pkg/pipeline"
)

type fakeUploader struct {
	body   []byte
	input  *s3.PutObjectInput
	err    error
	readOK bool
}

func (f *fakeUploader) Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	f.input = input
	if f.err != nil {
		return nil, f.err
	}
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	f.body = data
	f.readOK = true
	return &manager.UploadOutput{}, nil
}

func TestSink_UploadsStream(t *testing.T) {
	up := &fakeUploader{}
	s := New(context.Background(), up, Config{Bucket: "anims", Key: "out.gif"}, logger.NewNoop())

	if err := s.Write([]byte("GIF89a")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	s.Write([]byte{0x3b})
	s.Flush()
	if err := s.Close(nil); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if string(up.body) != "GIF89a;" {
		t.Errorf("expected uploaded GIF89a;, got %q", up.body)
	}
	if *up.input.Bucket != "anims" || *up.input.Key != "out.gif" {
		t.Errorf("unexpected destination %s/%s", *up.input.Bucket, *up.input.Key)
	}
	if *up.input.ContentType != "image/gif" {
		t.Errorf("expected image/gif, got %s", *up.input.ContentType)
	}
}

func TestSink_UploadFailureSurfacesOnWrite(t *testing.T) {
	up := &fakeUploader{err: errors.New("access denied")}
	s := New(context.Background(), up, Config{Bucket: "b", Key: "k"}, logger.NewNoop())

	// The upload fails without reading, so the pipe reports its error.
	var err error
	for i := 0; i < 3 && err == nil; i++ {
		err = s.Write([]byte("data"))
	}
	if err == nil {
		t.Fatal("expected write to fail")
	}
	if pipeline.KindOf(err) != pipeline.KindOther {
		t.Errorf("expected other, got %v", err)
	}
	if err := s.Close(nil); err == nil {
		t.Error("expected Close to report the upload failure")
	}
}

func TestSink_CloseWithCauseAborts(t *testing.T) {
	up := &fakeUploader{}
	s := New(context.Background(), up, Config{Bucket: "b", Key: "k"}, logger.NewNoop())

	s.Write([]byte("partial"))
	if err := s.Close(errors.New("encoding failed")); err != nil {
		t.Errorf("aborting should not fail, got %v", err)
	}
	if up.readOK {
		t.Error("upload should not complete when aborted")
	}
}
