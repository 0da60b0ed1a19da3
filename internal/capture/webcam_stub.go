//go:build !linux

package capture

import (
	"context"
	"fmt"

	"github.com/anime-shed/frame-scanner-go/internal/frame"
)

// WebcamSource is only available on Linux
type WebcamSource struct{}

// NewWebcamSource returns an error on non-Linux platforms
func NewWebcamSource(device string) (*WebcamSource, error) {
	return nil, fmt.Errorf("%w: V4L2 is only available on Linux", ErrSourceUnavailable)
}

func (s *WebcamSource) Next(ctx context.Context) (*frame.Frame, error) {
	return nil, ErrSourceUnavailable
}

func (s *WebcamSource) Close() error {
	return nil
}
