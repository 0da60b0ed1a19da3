package capture

import (
	"context"
	"errors"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type stubBlobs struct {
	container string
	name      string
	size      int
	err       error
}

func (b *stubBlobs) GetImage(ctx context.Context, blobURL string) (image.Image, error) {
	return nil, errors.New("not implemented")
}

func (b *stubBlobs) PutImage(ctx context.Context, container, name string, data []byte) (string, error) {
	if b.err != nil {
		return "", b.err
	}
	b.container, b.name, b.size = container, name, len(data)
	return "https://acct.blob.core.windows.net/" + container + "/" + name, nil
}

func (b *stubBlobs) Owns(imageURL string) bool { return false }

func TestSnapshotName(t *testing.T) {
	ts := time.Date(2024, 3, 5, 14, 7, 9, 42*int(time.Millisecond), time.UTC)
	if got := SnapshotName(ts); got != "2024-03-05-14-07-09-042.jpg" {
		t.Errorf("Expected 2024-03-05-14-07-09-042.jpg, got %s", got)
	}
}

func TestSnapshotWriter_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "snaps")
	w, err := NewSnapshotWriter(dir)
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}

	captured := time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)
	path, err := w.Save(context.Background(), Detection{Image: blankGray(), Captured: captured})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if filepath.Base(path) != "2024-03-05-14-07-09-000.jpg" {
		t.Errorf("Unexpected snapshot path %s", path)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("Snapshot not written: %v", err)
	}
	defer file.Close()
	img, err := jpeg.Decode(file)
	if err != nil {
		t.Fatalf("Snapshot is not a JPEG: %v", err)
	}
	if img.Bounds().Dx() != 160 {
		t.Errorf("Expected 160px wide snapshot, got %d", img.Bounds().Dx())
	}

	if _, err := w.Save(context.Background(), Detection{}); err == nil {
		t.Error("Expected error for detection without image")
	}
}

func TestSnapshotWriter_Upload(t *testing.T) {
	blobs := &stubBlobs{}
	w, err := NewSnapshotWriter(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}
	w.WithUpload(blobs, "snapshots")

	location, err := w.Save(context.Background(), Detection{Image: blankGray(), Captured: time.Now()})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if blobs.container != "snapshots" || blobs.size == 0 {
		t.Errorf("Expected upload to snapshots, got %+v", blobs)
	}
	if location != "https://acct.blob.core.windows.net/snapshots/"+blobs.name {
		t.Errorf("Expected blob URL, got %s", location)
	}

	blobs.err = errors.New("forbidden")
	location, err = w.Save(context.Background(), Detection{Image: blankGray(), Captured: time.Now()})
	if err == nil || filepath.Ext(location) != ".jpg" {
		t.Errorf("Expected upload error with local path, got %q, %v", location, err)
	}
}
