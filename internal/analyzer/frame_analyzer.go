package analyzer

import (
	"errors"
	"fmt"
	"io"

	"github.com/makiuchi-d/gozxing"
	"github.com/sirupsen/logrus"

	"github.com/anime-shed/frame-scanner-go/internal/decoder"
	"github.com/anime-shed/frame-scanner-go/internal/frame"
	"github.com/anime-shed/frame-scanner-go/internal/logger"
)

// FrameAnalyzer adapts camera frames to the barcode decoder. Its
// configuration is fixed at construction and it keeps no state between
// frames, so one instance serves a whole stream.
type FrameAnalyzer struct {
	accepted map[frame.PixelEncoding]struct{}
	formats  []decoder.Format
	decoder  decoder.Decoder
	onResult ResultHandler
	log      *logrus.Entry
}

// NewFrameAnalyzer creates an analyzer that calls onResult for every frame
// that decodes. onResult may be nil when only Decode is used.
func NewFrameAnalyzer(opts Options, onResult ResultHandler) (*FrameAnalyzer, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analyzer options: %w", err)
	}

	dec, err := decoder.New(decoder.Options{
		Formats:     opts.Formats,
		TryHarder:   opts.TryHarder,
		PureBarcode: opts.PureBarcode,
	})
	if err != nil {
		return nil, err
	}

	accepted := make(map[frame.PixelEncoding]struct{}, len(opts.AcceptedEncodings))
	for _, enc := range opts.AcceptedEncodings {
		accepted[enc] = struct{}{}
	}

	return &FrameAnalyzer{
		accepted: accepted,
		formats:  dec.Formats(),
		decoder:  dec,
		onResult: onResult,
		log:      logger.Component("frame_analyzer"),
	}, nil
}

// Accepts reports whether frames in enc will be decoded
func (a *FrameAnalyzer) Accepts(enc frame.PixelEncoding) bool {
	_, ok := a.accepted[enc]
	return ok
}

// Formats returns the symbologies this analyzer decodes
func (a *FrameAnalyzer) Formats() []decoder.Format {
	return append([]decoder.Format(nil), a.formats...)
}

// Analyze decodes f and hands a successful result to the result handler
// before releasing the frame. Frames that do not decode are dropped.
func (a *FrameAnalyzer) Analyze(f *frame.Frame) {
	defer f.Close()

	result, outcome, err := a.decode(f)
	a.logOutcome(f, outcome, err)

	if outcome == OutcomeDecoded && a.onResult != nil {
		a.onResult(result)
	}
}

// Decode decodes f and returns the outcome. The frame is released before
// Decode returns.
func (a *FrameAnalyzer) Decode(f *frame.Frame) (*decoder.Result, Outcome) {
	defer f.Close()

	result, outcome, err := a.decode(f)
	a.logOutcome(f, outcome, err)
	return result, outcome
}

func (a *FrameAnalyzer) decode(f *frame.Frame) (*decoder.Result, Outcome, error) {
	if !a.Accepts(f.Encoding) {
		return nil, OutcomeUnsupportedEncoding, fmt.Errorf("%w: %s", ErrUnsupportedEncoding, f.Encoding)
	}

	source, err := luminanceSource(f)
	if err != nil {
		return nil, OutcomeMalformedFrame, err
	}

	result, err := a.decoder.Decode(source)
	if err != nil {
		if errors.Is(err, decoder.ErrNotFound) {
			return nil, OutcomeNotFound, err
		}
		return nil, OutcomeUnreadable, err
	}
	return result, OutcomeDecoded, nil
}

// luminanceSource reads the whole first plane, from the start regardless of
// where earlier readers left the cursor, and exposes it as grayscale for
// the full frame without inversion.
func luminanceSource(f *frame.Frame) (gozxing.LuminanceSource, error) {
	if f.Width <= 0 || f.Height <= 0 {
		return nil, fmt.Errorf("%w: dimensions %dx%d", ErrMalformedPlane, f.Width, f.Height)
	}
	if len(f.Planes) == 0 || f.Planes[0] == nil {
		return nil, fmt.Errorf("%w: frame has no planes", ErrMalformedPlane)
	}

	plane := f.Planes[0]
	if plane.PixelStride > 1 {
		return nil, fmt.Errorf("%w: pixel stride %d", ErrMalformedPlane, plane.PixelStride)
	}

	plane.Rewind()
	data := make([]byte, plane.Len())
	if _, err := io.ReadFull(plane, data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPlane, err)
	}

	stride := plane.RowStride
	if stride < f.Width {
		stride = f.Width
	}
	if len(data) < stride*(f.Height-1)+f.Width {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d with row stride %d",
			ErrMalformedPlane, len(data), f.Width, f.Height, stride)
	}
	// The last row of a strided plane may stop at the frame width
	if len(data) < stride*f.Height {
		padded := make([]byte, stride*f.Height)
		copy(padded, data)
		data = padded
	}

	source, err := gozxing.NewPlanarYUVLuminanceSource(data, stride, f.Height, 0, 0, f.Width, f.Height, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPlane, err)
	}
	return source, nil
}

func (a *FrameAnalyzer) logOutcome(f *frame.Frame, outcome Outcome, err error) {
	entry := a.log.WithFields(logrus.Fields{
		"encoding": f.Encoding.String(),
		"width":    f.Width,
		"height":   f.Height,
		"sequence": f.Sequence,
		"outcome":  outcome.String(),
	})

	switch outcome {
	case OutcomeDecoded:
		entry.Debug("Symbol decoded")
	case OutcomeUnsupportedEncoding:
		entry.WithError(err).Warn("Frame rejected, expected planar YUV")
	case OutcomeMalformedFrame:
		entry.WithError(err).Warn("Frame rejected, luminance plane does not cover the frame")
	default:
		entry.WithError(err).Debug("No symbol decoded")
	}
}
