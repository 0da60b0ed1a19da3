//go:build !gocv

package capture

import (
	"context"
	"fmt"

	"github.com/anime-shed/frame-scanner-go/internal/frame"
)

// CameraSource needs a build with the gocv tag and OpenCV installed
type CameraSource struct{}

// NewCameraSource returns an error unless built with the gocv tag
func NewCameraSource(device interface{}) (*CameraSource, error) {
	return nil, fmt.Errorf("%w: built without OpenCV support", ErrSourceUnavailable)
}

func (s *CameraSource) Next(ctx context.Context) (*frame.Frame, error) {
	return nil, ErrSourceUnavailable
}

func (s *CameraSource) Close() error {
	return nil
}
