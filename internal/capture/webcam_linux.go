//go:build linux

package capture

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/blackjack/webcam"
	"github.com/sirupsen/logrus"

	"github.com/anime-shed/frame-scanner-go/internal/frame"
	"github.com/anime-shed/frame-scanner-go/internal/logger"
)

const pixFmtYUYV webcam.PixelFormat = 0x56595559

// waitSeconds bounds each wait so cancellation is noticed
const waitSeconds = 1

// WebcamSource reads YUYV frames from a V4L2 device and hands them out as
// planar 4:2:2 frames. Device buffers are requeued on the capture goroutine
// as soon as their bytes are copied, so the analysis goroutine never touches
// the device.
type WebcamSource struct {
	cam    *webcam.Webcam
	width  int
	height int
	log    *logrus.Entry
}

// NewWebcamSource opens device at its largest YUYV frame size
func NewWebcamSource(device string) (*WebcamSource, error) {
	cam, err := webcam.Open(device)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", device, err)
	}

	formats := cam.GetSupportedFormats()
	if _, ok := formats[pixFmtYUYV]; !ok {
		cam.Close()
		return nil, fmt.Errorf("%w: %s does not offer YUYV", ErrSourceUnavailable, device)
	}

	sizes := cam.GetSupportedFrameSizes(pixFmtYUYV)
	if len(sizes) == 0 {
		cam.Close()
		return nil, fmt.Errorf("%w: %s reports no YUYV frame sizes", ErrSourceUnavailable, device)
	}
	sort.Slice(sizes, func(i, j int) bool {
		return sizes[i].MaxWidth*sizes[i].MaxHeight < sizes[j].MaxWidth*sizes[j].MaxHeight
	})
	largest := sizes[len(sizes)-1]

	format, w, h, err := cam.SetImageFormat(pixFmtYUYV, largest.MaxWidth, largest.MaxHeight)
	if err != nil {
		cam.Close()
		return nil, fmt.Errorf("set image format: %w", err)
	}
	if format != pixFmtYUYV {
		cam.Close()
		return nil, fmt.Errorf("%w: driver switched to %s", ErrSourceUnavailable, formats[format])
	}

	if err := cam.StartStreaming(); err != nil {
		cam.Close()
		return nil, fmt.Errorf("start streaming: %w", err)
	}

	log := logger.Component("webcam").WithField("device", device)
	log.WithFields(logrus.Fields{"width": w, "height": h}).Info("Webcam streaming")

	return &WebcamSource{cam: cam, width: int(w), height: int(h), log: log}, nil
}

// Next waits for the next device frame
func (s *WebcamSource) Next(ctx context.Context) (*frame.Frame, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		err := s.cam.WaitForFrame(waitSeconds)
		var timeout *webcam.Timeout
		switch {
		case errors.As(err, &timeout):
			continue
		case err != nil:
			return nil, fmt.Errorf("wait for frame: %w", err)
		}

		data, index, err := s.cam.GetFrame()
		if err != nil {
			return nil, fmt.Errorf("read frame: %w", err)
		}
		release := func() {
			if err := s.cam.ReleaseFrame(index); err != nil {
				s.log.WithError(err).Warn("Failed to requeue device buffer")
			}
		}
		if len(data) == 0 {
			release()
			continue
		}
		return copyDeviceFrame(data, s.width, s.height, release)
	}
}

// Close stops streaming and closes the device
func (s *WebcamSource) Close() error {
	if err := s.cam.StopStreaming(); err != nil {
		s.log.WithError(err).Warn("Failed to stop streaming")
	}
	return s.cam.Close()
}
