//go:build gocv

package capture

import (
	"context"
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/anime-shed/frame-scanner-go/internal/frame"
)

// CameraSource reads frames through OpenCV. OpenCV delivers BGR, so only
// the luminance survives the conversion and chroma is neutral.
type CameraSource struct {
	capture *gocv.VideoCapture
	bgr     gocv.Mat
	gray    gocv.Mat
}

// NewCameraSource opens an OpenCV capture device by index or path
func NewCameraSource(device interface{}) (*CameraSource, error) {
	vc, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("open video capture: %w", err)
	}
	return &CameraSource{capture: vc, bgr: gocv.NewMat(), gray: gocv.NewMat()}, nil
}

// Next reads one frame from the device
func (s *CameraSource) Next(ctx context.Context) (*frame.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ok := s.capture.Read(&s.bgr); !ok || s.bgr.Empty() {
		return nil, fmt.Errorf("%w: camera returned no frame", ErrSourceUnavailable)
	}

	gocv.CvtColor(s.bgr, &s.gray, gocv.ColorBGRToGray)
	width, height := s.gray.Cols(), s.gray.Rows()
	gray := &image.Gray{
		Pix:    s.gray.ToBytes(),
		Stride: width,
		Rect:   image.Rect(0, 0, width, height),
	}
	return frame.FromGray(gray), nil
}

// Close releases the device and the conversion buffers
func (s *CameraSource) Close() error {
	s.bgr.Close()
	s.gray.Close()
	return s.capture.Close()
}
