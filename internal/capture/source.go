package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"time"

	"github.com/anime-shed/frame-scanner-go/internal/frame"
)

// ErrSourceUnavailable indicates a camera backend not built into this binary
var ErrSourceUnavailable = errors.New("capture source unavailable")

// Source produces camera frames. Each frame returned by Next is owned by
// the caller, who must Close it. Next returns io.EOF once the source is
// exhausted.
type Source interface {
	Next(ctx context.Context) (*frame.Frame, error)
	Close() error
}

// ImageSource replays still images as frames, one per interval
type ImageSource struct {
	images   []image.Image
	interval time.Duration
	next     int
	loop     bool
}

// NewImageSource creates a source that replays images in order
func NewImageSource(images []image.Image, interval time.Duration) *ImageSource {
	return &ImageSource{images: images, interval: interval}
}

// WithLoop makes the source start over after the last image
func (s *ImageSource) WithLoop() *ImageSource {
	s.loop = true
	return s
}

// LoadImages decodes PNG and JPEG files from disk
func LoadImages(paths []string) ([]image.Image, error) {
	images := make([]image.Image, 0, len(paths))
	for _, path := range paths {
		img, err := loadImage(path)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, nil
}

func loadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// Next returns the next image as a frame, waiting out the interval first
func (s *ImageSource) Next(ctx context.Context) (*frame.Frame, error) {
	if s.next >= len(s.images) {
		if !s.loop || len(s.images) == 0 {
			return nil, io.EOF
		}
		s.next = 0
	}

	if s.interval > 0 && s.next > 0 {
		timer := time.NewTimer(s.interval)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	img := s.images[s.next]
	s.next++
	return frame.FromImage(img)
}

// Close implements Source
func (s *ImageSource) Close() error {
	return nil
}

// copyDeviceFrame deinterleaves a device YUYV buffer into a new frame and
// hands the buffer back through requeue before returning. The frame owns
// its own bytes and has no release hook into the device.
func copyDeviceFrame(data []byte, width, height int, requeue func()) (*frame.Frame, error) {
	defer requeue()
	return frame.FromYUYV(data, width, height, nil)
}
