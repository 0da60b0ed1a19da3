package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/anime-shed/frame-scanner-go/internal/storage"
)

const snapshotLayout = "2006-01-02-15-04-05.000"

// SnapshotWriter saves the frames that produced detections as JPEG files,
// and optionally uploads them to blob storage
type SnapshotWriter struct {
	dir       string
	blobs     storage.BlobStorage
	container string
	quality   int
}

// NewSnapshotWriter creates a writer that saves into dir
func NewSnapshotWriter(dir string) (*SnapshotWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot directory: %w", err)
	}
	return &SnapshotWriter{dir: dir, quality: 90}, nil
}

// WithUpload also uploads every snapshot to the given container
func (w *SnapshotWriter) WithUpload(blobs storage.BlobStorage, container string) *SnapshotWriter {
	w.blobs = blobs
	w.container = container
	return w
}

// SnapshotName formats a capture time as a file name, with milliseconds
func SnapshotName(t time.Time) string {
	return strings.Replace(t.Format(snapshotLayout), ".", "-", 1) + ".jpg"
}

// Save writes the detection's frame and returns where it was stored: the
// blob URL when uploading, the local path otherwise
func (w *SnapshotWriter) Save(ctx context.Context, det Detection) (string, error) {
	if det.Image == nil {
		return "", errors.New("detection carries no frame image")
	}

	captured := det.Captured
	if captured.IsZero() {
		captured = time.Now()
	}
	name := SnapshotName(captured)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, det.Image, &jpeg.Options{Quality: w.quality}); err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	if w.blobs == nil {
		return path, nil
	}
	blobURL, err := w.blobs.PutImage(ctx, w.container, name, buf.Bytes())
	if err != nil {
		return path, fmt.Errorf("upload snapshot: %w", err)
	}
	return blobURL, nil
}
