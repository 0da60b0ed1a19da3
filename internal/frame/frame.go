package frame

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

var (
	// ErrUnknownEncoding indicates an encoding name that could not be parsed
	ErrUnknownEncoding = errors.New("unknown pixel encoding")

	// ErrInvalidDimensions indicates a non-positive width or height
	ErrInvalidDimensions = errors.New("invalid frame dimensions")

	// ErrShortBuffer indicates a pixel buffer smaller than the frame needs
	ErrShortBuffer = errors.New("pixel buffer too short")
)

// Plane is one pixel buffer of a frame. It carries a read cursor so that a
// consumer which reads part of it leaves the position behind, the same way a
// camera buffer does.
type Plane struct {
	data        []byte
	pos         int
	RowStride   int
	PixelStride int
}

// NewPlane wraps data as a plane
func NewPlane(data []byte, rowStride, pixelStride int) *Plane {
	return &Plane{
		data:        data,
		RowStride:   rowStride,
		PixelStride: pixelStride,
	}
}

// Rewind resets the read cursor to the start of the buffer
func (p *Plane) Rewind() {
	p.pos = 0
}

// Len returns the number of unread bytes
func (p *Plane) Len() int {
	return len(p.data) - p.pos
}

// Size returns the total buffer size regardless of the cursor
func (p *Plane) Size() int {
	return len(p.data)
}

// Read implements io.Reader over the remaining bytes
func (p *Plane) Read(b []byte) (int, error) {
	if p.pos >= len(p.data) {
		return 0, io.EOF
	}
	n := copy(b, p.data[p.pos:])
	p.pos += n
	return n, nil
}

// Frame is a single camera image handed to an analyzer. The analyzer owns
// it for one call and must Close it on every path.
type Frame struct {
	Encoding  PixelEncoding
	Width     int
	Height    int
	Planes    []*Plane
	Sequence  uint64
	Timestamp time.Time

	release  func()
	once     sync.Once
	released atomic.Bool
}

// New creates a frame. release may be nil when the buffers need no
// returning to a pool or device.
func New(encoding PixelEncoding, width, height int, planes []*Plane, release func()) *Frame {
	return &Frame{
		Encoding:  encoding,
		Width:     width,
		Height:    height,
		Planes:    planes,
		Timestamp: time.Now(),
		release:   release,
	}
}

// Close releases the frame's underlying resource. Only the first call has
// an effect.
func (f *Frame) Close() error {
	f.once.Do(func() {
		f.released.Store(true)
		if f.release != nil {
			f.release()
		}
	})
	return nil
}

// Released reports whether Close has been called
func (f *Frame) Released() bool {
	return f.released.Load()
}
