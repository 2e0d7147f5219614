package osfilesystem

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestFileSystem_WriteAndReadFile(t *testing.T) {
	fsys := New()
	path := filepath.Join(t.TempDir(), "a", "b", "frame.png")

	if err := fsys.WriteFile(path, []byte("hello")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	data, err := fsys.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("expected %q, got %q", "hello", data)
	}
}

func TestFileSystem_CreateStreams(t *testing.T) {
	fsys := New()
	path := filepath.Join(t.TempDir(), "out.gif")
	os.WriteFile(path, []byte("old contents"), 0644)

	w, err := fsys.Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	w.Write([]byte("GIF"))
	w.Write([]byte("89a"))
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "GIF89a" {
		t.Errorf("expected truncated file with GIF89a, got %q", data)
	}
}

func TestFileSystem_CreateInMissingDirectory(t *testing.T) {
	fsys := New()
	_, err := fsys.Create(filepath.Join(t.TempDir(), "missing", "out.gif"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected not exist, got %v", err)
	}
}

func TestFileSystem_ExistsAndRemove(t *testing.T) {
	fsys := New()
	path := filepath.Join(t.TempDir(), "test.txt")
	os.WriteFile(path, []byte("test"), 0644)

	if ok, err := fsys.Exists(path); err != nil || !ok {
		t.Fatalf("expected file to exist, got %v %v", ok, err)
	}
	if err := fsys.Remove(path); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if ok, _ := fsys.Exists(path); ok {
		t.Error("expected file to be removed")
	}
}
